package alerts

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/SHIS22proxy/paygate/internal/mailer"
)

func TestOrderNotFoundSendsEmail(t *testing.T) {
	mock := &mailer.Mock{}
	n := NewMail(mock, "paygate@example.com", []string{"ops@example.com"})

	n.OrderNotFound(context.Background(), "stripe", "evt_1", "ord_ghost")

	if len(mock.Sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(mock.Sent))
	}
	e := mock.Sent[0]
	if e.From != "paygate@example.com" || len(e.To) != 1 || e.To[0] != "ops@example.com" {
		t.Fatalf("addressing = %+v", e)
	}
	if !strings.Contains(e.Subject, "ord_ghost") {
		t.Fatalf("subject = %q", e.Subject)
	}
	if !strings.Contains(e.TextBody, "evt_1") || !strings.Contains(e.TextBody, "stripe") {
		t.Fatalf("body = %q", e.TextBody)
	}
}

func TestOrderNotFoundSwallowsSendFailure(t *testing.T) {
	mock := &mailer.Mock{Err: errors.New("smtp down")}
	n := NewMail(mock, "paygate@example.com", []string{"ops@example.com"})

	// must not panic or propagate
	n.OrderNotFound(context.Background(), "stripe", "evt_1", "ord_ghost")

	if len(mock.Sent) != 1 {
		t.Fatalf("sent = %d, want the failed attempt recorded", len(mock.Sent))
	}
}
