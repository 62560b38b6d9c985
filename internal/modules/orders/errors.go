package orders

import "errors"

var (
	ErrNotFound          = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrAlreadyExists     = errors.New("order already registered with different details")
	ErrInvalidInput      = errors.New("invalid order input")
)
