package orders

import "github.com/SHIS22proxy/paygate/internal/modules/gateways"

// SupportedEvent reports whether an event type maps onto the state machine
// at all. The engine acknowledges unsupported types without touching any
// order.
func SupportedEvent(eventType string) bool {
	switch eventType {
	case gateways.EventCheckoutCompleted,
		gateways.EventPaymentSucceeded,
		gateways.EventPaymentFailed,
		gateways.EventRefundIssued:
		return true
	}
	return false
}

// nextStatus returns the status an event moves the order to. The allowed
// edges form a strict chain: created -> pending -> {paid, failed} and
// paid -> refunded. Everything else, including a replay of an earlier
// stage, is rejected rather than applied blindly.
func nextStatus(from, eventType string) (string, error) {
	switch eventType {
	case gateways.EventCheckoutCompleted:
		if from == StatusCreated {
			return StatusPending, nil
		}
		return "", ErrInvalidTransition
	case gateways.EventPaymentSucceeded:
		if from == StatusPending {
			return StatusPaid, nil
		}
		return "", ErrInvalidTransition
	case gateways.EventPaymentFailed:
		if from == StatusPending {
			return StatusFailed, nil
		}
		return "", ErrInvalidTransition
	case gateways.EventRefundIssued:
		if from == StatusPaid {
			return StatusRefunded, nil
		}
		return "", ErrInvalidTransition
	default:
		return "", ErrInvalidTransition
	}
}
