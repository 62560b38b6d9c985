package alerts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SHIS22proxy/paygate/internal/mailer"
)

// Notifier is told about data-integrity problems that nobody retries, so a
// human can chase them.
type Notifier interface {
	OrderNotFound(ctx context.Context, gateway, eventID, orderRef string)
}

// Mail delivers ops alerts through the configured mailer. Send failures are
// logged and swallowed: alerting must never change a delivery's outcome.
type Mail struct {
	mailer mailer.Service
	from   string
	to     []string
	logger *slog.Logger
}

func NewMail(m mailer.Service, from string, to []string) *Mail {
	return &Mail{mailer: m, from: from, to: to, logger: slog.Default()}
}

func (a *Mail) SetLogger(logger *slog.Logger) {
	a.logger = logger
}

func (a *Mail) OrderNotFound(ctx context.Context, gateway, eventID, orderRef string) {
	e := mailer.Email{
		FromName: "paygate",
		From:     a.from,
		To:       a.to,
		Subject:  fmt.Sprintf("[paygate] webhook for unknown order %s", orderRef),
		TextBody: fmt.Sprintf(
			"Gateway %s delivered event %s referencing order %q, which does not exist.\nThe delivery was not applied and will not be retried; reconcile the upstream data.\n",
			gateway, eventID, orderRef,
		),
	}
	if err := a.mailer.Send(ctx, e); err != nil {
		a.logger.ErrorContext(ctx, "order-not-found alert failed", "gateway", gateway, "event_id", eventID, "err", err)
	}
}
