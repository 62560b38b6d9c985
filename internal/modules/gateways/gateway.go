package gateways

import (
	"net/http"
	"time"
)

// Canonical event types. Adapters map vendor-specific webhook types onto
// these; anything they do not recognize passes through untouched and the
// engine acknowledges it without applying a transition.
const (
	EventCheckoutCompleted = "checkout.completed"
	EventPaymentSucceeded  = "payment.succeeded"
	EventPaymentFailed     = "payment.failed"
	EventRefundIssued      = "refund.issued"
)

type Event struct {
	ID   string // gateway-assigned event id (dedupe key)
	Type string // canonical type, or the raw vendor type if unmapped

	OrderRef string // merchant order id the event applies to

	OccurredAt time.Time // from the payload, zero when absent
}

// Config is injected per gateway; no secrets are read from ambient state.
type Config struct {
	Gateway string
	Secret  string
	MaxSkew time.Duration // 0 disables the replay-window check

	Now func() time.Time // test hook
}

type Gateway interface {
	Name() string

	// VerifyAndParse authenticates the exact raw bytes against the signature
	// header and extracts the event. Any error short-circuits processing.
	VerifyAndParse(header http.Header, body []byte) (Event, error)
}
