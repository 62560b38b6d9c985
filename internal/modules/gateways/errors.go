package gateways

import "errors"

var (
	ErrSignature = errors.New("webhook signature verification failed")
	ErrPayload   = errors.New("invalid webhook payload")
)
