package gateways

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func signStripe(secret string, ts int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, body)
	return hex.EncodeToString(mac.Sum(nil))
}

func stripeHeader(sig string, ts int64) http.Header {
	h := http.Header{}
	h.Set("Stripe-Signature", fmt.Sprintf("t=%d,v1=%s", ts, sig))
	return h
}

func TestStripe_VerifyAndParse(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ts := now.Add(-30 * time.Second).Unix()
	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","created":1767268770,"data":{"object":{"id":"pi_1","metadata":{"order_id":"ord-42"}}}}`)

	gw := NewStripe(Config{Secret: "whsec_test", MaxSkew: 5 * time.Minute, Now: func() time.Time { return now }})
	ev, err := gw.VerifyAndParse(stripeHeader(signStripe("whsec_test", ts, body), ts), body)
	if err != nil {
		t.Fatalf("verify webhook: %v", err)
	}
	if ev.ID != "evt_1" {
		t.Fatalf("expected event id evt_1, got %q", ev.ID)
	}
	if ev.Type != EventPaymentSucceeded {
		t.Fatalf("expected canonical type %q, got %q", EventPaymentSucceeded, ev.Type)
	}
	if ev.OrderRef != "ord-42" {
		t.Fatalf("expected order ref ord-42, got %q", ev.OrderRef)
	}
	if ev.OccurredAt.Unix() != 1767268770 {
		t.Fatalf("expected occurred-at from payload, got %v", ev.OccurredAt)
	}
}

func TestStripe_RejectsTamperedBody(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ts := now.Unix()
	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"metadata":{"order_id":"ord-42"}}}}`)
	sig := signStripe("whsec_test", ts, body)

	tampered := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"metadata":{"order_id":"ord-999"}}}}`)
	gw := NewStripe(Config{Secret: "whsec_test", Now: func() time.Time { return now }})
	if _, err := gw.VerifyAndParse(stripeHeader(sig, ts), tampered); err == nil {
		t.Fatalf("expected tampered body to fail verification")
	}
}

func TestStripe_RejectsWrongSecret(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ts := now.Unix()
	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"metadata":{"order_id":"ord-42"}}}}`)

	gw := NewStripe(Config{Secret: "whsec_test", Now: func() time.Time { return now }})
	if _, err := gw.VerifyAndParse(stripeHeader(signStripe("whsec_other", ts, body), ts), body); err == nil {
		t.Fatalf("expected signature from wrong secret to fail")
	}
}

func TestStripe_RejectsMissingHeader(t *testing.T) {
	gw := NewStripe(Config{Secret: "whsec_test"})
	if _, err := gw.VerifyAndParse(http.Header{}, []byte(`{}`)); err == nil {
		t.Fatalf("expected missing signature header to fail")
	}
}

func TestStripe_RejectsTimestampOutsideTolerance(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ts := now.Add(-10 * time.Minute).Unix()
	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"metadata":{"order_id":"ord-42"}}}}`)

	gw := NewStripe(Config{Secret: "whsec_test", MaxSkew: 5 * time.Minute, Now: func() time.Time { return now }})
	if _, err := gw.VerifyAndParse(stripeHeader(signStripe("whsec_test", ts, body), ts), body); err == nil {
		t.Fatalf("expected stale timestamp to fail replay-window check")
	}
}

func TestStripe_AcceptsRotatedSecretSignature(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ts := now.Unix()
	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"client_reference_id":"ord-42"}}}`)

	// During secret rotation the vendor sends one v1 per active secret.
	h := http.Header{}
	h.Set("Stripe-Signature", fmt.Sprintf("t=%d,v1=%s,v1=%s",
		ts, signStripe("whsec_old", ts, body), signStripe("whsec_test", ts, body)))

	gw := NewStripe(Config{Secret: "whsec_test", Now: func() time.Time { return now }})
	ev, err := gw.VerifyAndParse(h, body)
	if err != nil {
		t.Fatalf("verify rotated signature: %v", err)
	}
	if ev.OrderRef != "ord-42" {
		t.Fatalf("expected client_reference_id fallback, got %q", ev.OrderRef)
	}
}

func TestStripe_UnmappedTypePassesThrough(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ts := now.Unix()
	body := []byte(`{"id":"evt_2","type":"customer.created","data":{"object":{}}}`)

	gw := NewStripe(Config{Secret: "whsec_test", Now: func() time.Time { return now }})
	ev, err := gw.VerifyAndParse(stripeHeader(signStripe("whsec_test", ts, body), ts), body)
	if err != nil {
		t.Fatalf("verify webhook: %v", err)
	}
	if ev.Type != "customer.created" {
		t.Fatalf("expected raw vendor type for unmapped event, got %q", ev.Type)
	}
	if ev.OrderRef != "" {
		t.Fatalf("unmapped event should not need an order ref, got %q", ev.OrderRef)
	}
}

func TestStripe_MappedTypeRequiresOrderRef(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ts := now.Unix()
	body := []byte(`{"id":"evt_3","type":"charge.refunded","data":{"object":{}}}`)

	gw := NewStripe(Config{Secret: "whsec_test", Now: func() time.Time { return now }})
	if _, err := gw.VerifyAndParse(stripeHeader(signStripe("whsec_test", ts, body), ts), body); err == nil {
		t.Fatalf("expected refund event without order reference to fail")
	}
}
