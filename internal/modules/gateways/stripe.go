package gateways

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const stripeSignatureHeader = "Stripe-Signature"

// stripeEventTypes maps the vendor webhook types we act on to canonical ones.
var stripeEventTypes = map[string]string{
	"checkout.session.completed":    EventCheckoutCompleted,
	"payment_intent.succeeded":      EventPaymentSucceeded,
	"payment_intent.payment_failed": EventPaymentFailed,
	"charge.refunded":               EventRefundIssued,
}

type Stripe struct {
	cfg Config
}

func NewStripe(cfg Config) *Stripe {
	if cfg.Gateway == "" {
		cfg.Gateway = "stripe"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Stripe{cfg: cfg}
}

func (s *Stripe) Name() string { return s.cfg.Gateway }

func (s *Stripe) VerifyAndParse(header http.Header, body []byte) (Event, error) {
	ts, candidates, err := parseStripeSignature(header.Get(stripeSignatureHeader))
	if err != nil {
		return Event{}, err
	}

	sum := hmacSHA256(s.cfg.Secret, []byte(strconv.FormatInt(ts, 10)), []byte("."), body)
	ok := false
	for _, c := range candidates {
		if hexEqual(c, sum) {
			ok = true
		}
	}
	if !ok {
		return Event{}, fmt.Errorf("stripe: signature mismatch: %w", ErrSignature)
	}

	if s.cfg.MaxSkew > 0 {
		age := s.cfg.Now().Sub(time.Unix(ts, 0))
		if age > s.cfg.MaxSkew || age < -s.cfg.MaxSkew {
			return Event{}, fmt.Errorf("stripe: timestamp outside tolerance: %w", ErrSignature)
		}
	}

	var p struct {
		ID      string `json:"id"`
		Type    string `json:"type"`
		Created int64  `json:"created"`
		Data    struct {
			Object struct {
				ClientReferenceID string            `json:"client_reference_id"`
				Metadata          map[string]string `json:"metadata"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return Event{}, fmt.Errorf("stripe: decode payload: %w", ErrPayload)
	}
	if p.ID == "" || p.Type == "" {
		return Event{}, fmt.Errorf("stripe: payload missing id or type: %w", ErrPayload)
	}

	ev := Event{ID: p.ID, Type: p.Type}
	if p.Created > 0 {
		ev.OccurredAt = time.Unix(p.Created, 0).UTC()
	}
	ev.OrderRef = p.Data.Object.Metadata["order_id"]
	if ev.OrderRef == "" {
		ev.OrderRef = p.Data.Object.ClientReferenceID
	}

	if canonical, known := stripeEventTypes[p.Type]; known {
		ev.Type = canonical
		if ev.OrderRef == "" {
			return Event{}, fmt.Errorf("stripe: %s event carries no order reference: %w", p.Type, ErrPayload)
		}
	}
	return ev, nil
}

// parseStripeSignature splits "t=<unix>,v1=<hex>[,v1=<hex>...]". Multiple v1
// entries appear while the vendor rolls endpoint secrets; any of them may
// match.
func parseStripeSignature(raw string) (int64, []string, error) {
	if raw == "" {
		return 0, nil, fmt.Errorf("stripe: missing %s header: %w", stripeSignatureHeader, ErrSignature)
	}
	var (
		ts   int64
		sigs []string
	)
	for _, part := range strings.Split(raw, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("stripe: bad timestamp %q: %w", v, ErrSignature)
			}
			ts = n
		case "v1":
			sigs = append(sigs, v)
		}
	}
	if ts == 0 || len(sigs) == 0 {
		return 0, nil, fmt.Errorf("stripe: header missing t or v1: %w", ErrSignature)
	}
	return ts, sigs, nil
}
