package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBuildMIMEMessage(t *testing.T) {
	msg, err := buildMIMEMessage(Email{
		From:     "paygate@example.com",
		FromName: "paygate",
		To:       []string{"ops@example.com"},
		Subject:  "webhook for unknown order",
		TextBody: "details here",
		Headers:  map[string]string{"X-Priority": "1"},
	}, "example.com")
	if err != nil {
		t.Fatalf("build message: %v", err)
	}

	header, body, found := strings.Cut(msg, "\r\n\r\n")
	if !found {
		t.Fatal("message has no header/body separator")
	}
	for _, want := range []string{
		"From: paygate <paygate@example.com>",
		"To: ops@example.com",
		"Subject: webhook for unknown order",
		"X-Priority: 1",
		"Content-Type: text/plain; charset=UTF-8",
	} {
		if !strings.Contains(header, want) {
			t.Fatalf("header missing %q:\n%s", want, header)
		}
	}
	if !strings.HasPrefix(body, "details here") {
		t.Fatalf("body = %q", body)
	}
}

func TestBuildMIMEMessageRejectsIncomplete(t *testing.T) {
	if _, err := buildMIMEMessage(Email{From: "a@b.c", Subject: "s", TextBody: "t"}, "b.c"); err == nil {
		t.Fatal("expected error without recipients")
	}
	if _, err := buildMIMEMessage(Email{From: "a@b.c", To: []string{"d@e.f"}, TextBody: "t"}, "b.c"); err == nil {
		t.Fatal("expected error without subject")
	}
}

func TestMailtrapSend(t *testing.T) {
	var (
		got  mailtrapPayload
		auth string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewMailtrapMailer(srv.URL, "tok_test")
	err := m.Send(context.Background(), Email{
		From:     "paygate@example.com",
		FromName: "paygate",
		To:       []string{"ops@example.com"},
		Subject:  "alert",
		TextBody: "body",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if auth != "Bearer tok_test" {
		t.Fatalf("authorization = %q, want bearer token", auth)
	}
	if len(got.To) != 1 || got.To[0].Email != "ops@example.com" || got.Subject != "alert" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestMailtrapSendAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	m := NewMailtrapMailer(srv.URL, "tok_bad")
	if err := m.Send(context.Background(), Email{From: "a@b.c", To: []string{"d@e.f"}, Subject: "s", TextBody: "t"}); err == nil {
		t.Fatal("expected error from non-2xx response")
	}
}
