package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"
)

func main() {
	gateway := flag.String("gateway", "stripe", "Gateway scheme to sign with (stripe, razorpay)")
	url := flag.String("url", "", "Webhook URL (default http://localhost:8080/webhooks/<gateway>)")
	secret := flag.String("secret", "", "Webhook secret (default $STRIPE_WEBHOOK_SECRET / $RAZORPAY_WEBHOOK_SECRET)")
	eventID := flag.String("event-id", "evt_"+randomHex(12), "Event ID")
	eventType := flag.String("type", "", "Vendor event type (default checkout.session.completed / payment.authorized)")
	orderID := flag.String("order", "", "Order id carried in the payload")
	dryRun := flag.Bool("dry-run", false, "Only print headers and body, don't send")

	flag.Parse()

	if *url == "" {
		*url = "http://localhost:8080/webhooks/" + *gateway
	}
	if *orderID == "" {
		fmt.Fprintf(os.Stderr, "Error: -order is required\n")
		os.Exit(1)
	}

	var (
		body    []byte
		headers map[string]string
		err     error
	)
	switch *gateway {
	case "stripe":
		if *secret == "" {
			*secret = os.Getenv("STRIPE_WEBHOOK_SECRET")
		}
		if *eventType == "" {
			*eventType = "checkout.session.completed"
		}
		body, headers, err = buildStripe(*secret, *eventID, *eventType, *orderID)
	case "razorpay":
		if *secret == "" {
			*secret = os.Getenv("RAZORPAY_WEBHOOK_SECRET")
		}
		if *eventType == "" {
			*eventType = "payment.authorized"
		}
		body, headers, err = buildRazorpay(*secret, *eventID, *eventType, *orderID)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown gateway %q\n", *gateway)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for k, v := range headers {
		fmt.Printf("%s: %s\n", k, v)
	}
	fmt.Printf("Body: %s\n", string(body))

	if *dryRun {
		fmt.Println("\n[DRY RUN] Not sending request")
		return
	}

	// Send webhook
	fmt.Printf("\nSending to %s...\n", *url)
	req, err := http.NewRequest("POST", *url, bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sending request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %d\n", resp.StatusCode)
	fmt.Printf("Response: %s\n", string(respBody))

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}

func buildStripe(secret, eventID, eventType, orderID string) ([]byte, map[string]string, error) {
	if secret == "" {
		return nil, nil, fmt.Errorf("secret not provided and STRIPE_WEBHOOK_SECRET not set")
	}
	now := time.Now().Unix()
	payload := map[string]any{
		"id":      eventID,
		"type":    eventType,
		"created": now,
		"data": map[string]any{
			"object": map[string]any{
				"metadata": map[string]string{"order_id": orderID},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}

	m := hmac.New(sha256.New, []byte(secret))
	m.Write([]byte(strconv.FormatInt(now, 10)))
	m.Write([]byte("."))
	m.Write(body)
	sig := fmt.Sprintf("t=%d,v1=%s", now, hex.EncodeToString(m.Sum(nil)))

	return body, map[string]string{"Stripe-Signature": sig}, nil
}

func buildRazorpay(secret, eventID, eventType, orderID string) ([]byte, map[string]string, error) {
	if secret == "" {
		return nil, nil, fmt.Errorf("secret not provided and RAZORPAY_WEBHOOK_SECRET not set")
	}
	payload := map[string]any{
		"event":      eventType,
		"created_at": time.Now().Unix(),
		"payload": map[string]any{
			"payment": map[string]any{
				"entity": map[string]any{
					"order_id": "order_" + randomHex(10),
					"notes":    map[string]string{"order_id": orderID},
				},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}

	m := hmac.New(sha256.New, []byte(secret))
	m.Write(body)

	return body, map[string]string{
		"X-Razorpay-Signature": hex.EncodeToString(m.Sum(nil)),
		"X-Razorpay-Event-Id":  eventID,
	}, nil
}

func randomHex(n int) string {
	b := make([]byte, (n+1)/2)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)[:n]
}
