package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MailtrapMailer delivers through the Mailtrap send API. Handy in sandboxes
// where outbound SMTP is blocked.
type MailtrapMailer struct {
	APIURL   string // e.g. "https://send.api.mailtrap.io/api/send"
	APIToken string // Bearer token

	HTTPClient *http.Client
}

func NewMailtrapMailer(apiURL, apiToken string) *MailtrapMailer {
	return &MailtrapMailer{
		APIURL:     apiURL,
		APIToken:   apiToken,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type mailtrapPerson struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type mailtrapPayload struct {
	From     mailtrapPerson   `json:"from"`
	To       []mailtrapPerson `json:"to"`
	Subject  string           `json:"subject"`
	Text     string           `json:"text,omitempty"`
	Category string           `json:"category,omitempty"`
}

func (m *MailtrapMailer) Send(ctx context.Context, e Email) error {
	if m.APIURL == "" || m.APIToken == "" {
		return fmt.Errorf("mailtrap credentials not configured")
	}

	payload := mailtrapPayload{
		From:     mailtrapPerson{Email: e.From, Name: e.FromName},
		Subject:  e.Subject,
		Text:     e.TextBody,
		Category: "Alert",
	}
	for _, to := range e.To {
		payload.To = append(payload.To, mailtrapPerson{Email: to})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal mailtrap payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.APIURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.APIToken)

	client := m.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("mailtrap request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("mailtrap API returned %d: %s", resp.StatusCode, string(b))
	}
	return nil
}
