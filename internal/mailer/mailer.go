package mailer

import "context"

type Service interface {
	Send(ctx context.Context, e Email) error
}

type Email struct {
	FromName string // optional display name
	From     string // required: "paygate@example.com"

	To []string

	Subject  string
	TextBody string

	Headers map[string]string // optional extra headers
}
