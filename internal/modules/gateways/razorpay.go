package gateways

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	razorpaySignatureHeader = "X-Razorpay-Signature"
	razorpayEventIDHeader   = "X-Razorpay-Event-Id"
)

var razorpayEventTypes = map[string]string{
	"payment.authorized": EventCheckoutCompleted,
	"payment.captured":   EventPaymentSucceeded,
	"payment.failed":     EventPaymentFailed,
	"refund.processed":   EventRefundIssued,
}

type Razorpay struct {
	cfg Config
}

func NewRazorpay(cfg Config) *Razorpay {
	if cfg.Gateway == "" {
		cfg.Gateway = "razorpay"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Razorpay{cfg: cfg}
}

func (r *Razorpay) Name() string { return r.cfg.Gateway }

// VerifyAndParse checks the hex HMAC of the raw body. Razorpay signs the
// body alone; the replay window, when configured, is enforced against the
// payload's created_at instead of a signed timestamp.
func (r *Razorpay) VerifyAndParse(header http.Header, body []byte) (Event, error) {
	sig := header.Get(razorpaySignatureHeader)
	if sig == "" {
		return Event{}, fmt.Errorf("razorpay: missing %s header: %w", razorpaySignatureHeader, ErrSignature)
	}
	if !hexEqual(sig, hmacSHA256(r.cfg.Secret, body)) {
		return Event{}, fmt.Errorf("razorpay: signature mismatch: %w", ErrSignature)
	}

	eventID := header.Get(razorpayEventIDHeader)
	if eventID == "" {
		return Event{}, fmt.Errorf("razorpay: missing %s header: %w", razorpayEventIDHeader, ErrPayload)
	}

	var p struct {
		Event     string `json:"event"`
		CreatedAt int64  `json:"created_at"`
		Payload   struct {
			Payment struct {
				Entity razorpayEntity `json:"entity"`
			} `json:"payment"`
			Order struct {
				Entity razorpayEntity `json:"entity"`
			} `json:"order"`
			Refund struct {
				Entity razorpayEntity `json:"entity"`
			} `json:"refund"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return Event{}, fmt.Errorf("razorpay: decode payload: %w", ErrPayload)
	}
	if p.Event == "" {
		return Event{}, fmt.Errorf("razorpay: payload missing event: %w", ErrPayload)
	}

	if r.cfg.MaxSkew > 0 && p.CreatedAt > 0 {
		age := r.cfg.Now().Sub(time.Unix(p.CreatedAt, 0))
		if age > r.cfg.MaxSkew || age < -r.cfg.MaxSkew {
			return Event{}, fmt.Errorf("razorpay: created_at outside tolerance: %w", ErrSignature)
		}
	}

	ev := Event{ID: eventID, Type: p.Event}
	if p.CreatedAt > 0 {
		ev.OccurredAt = time.Unix(p.CreatedAt, 0).UTC()
	}
	entities := []razorpayEntity{p.Payload.Payment.Entity, p.Payload.Order.Entity, p.Payload.Refund.Entity}
	for _, ent := range entities {
		if ref := ent.note("order_id"); ref != "" {
			ev.OrderRef = ref
			break
		}
	}
	if ev.OrderRef == "" {
		for _, ent := range entities {
			if ent.OrderID != "" {
				ev.OrderRef = ent.OrderID
				break
			}
		}
	}

	if canonical, known := razorpayEventTypes[p.Event]; known {
		ev.Type = canonical
		if ev.OrderRef == "" {
			return Event{}, fmt.Errorf("razorpay: %s event carries no order reference: %w", p.Event, ErrPayload)
		}
	}
	return ev, nil
}

type razorpayEntity struct {
	OrderID string          `json:"order_id"`
	Notes   json.RawMessage `json:"notes"`
}

// note reads a merchant value out of the entity's notes object. The vendor
// serializes empty notes as [], so the field cannot decode strictly into a
// map.
func (e razorpayEntity) note(key string) string {
	notes := bytes.TrimSpace(e.Notes)
	if len(notes) == 0 || notes[0] != '{' {
		return ""
	}
	var m map[string]string
	if err := json.Unmarshal(notes, &m); err != nil {
		return ""
	}
	return m[key]
}
