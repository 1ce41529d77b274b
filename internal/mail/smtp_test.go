package mail

import (
	"context"
	"net/smtp"
	"strings"
	"testing"
)

func TestSMTPSenderBuildsMessage(t *testing.T) {
	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  []byte
	)

	sender, err := NewSMTPSender(SMTPConfig{
		Host:     "smtp.example.com",
		Port:     2525,
		Username: "buyer",
		Password: "secret",
		From:     "rfp@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sender.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotFrom = from
		gotTo = to
		gotMsg = msg
		return nil
	}

	msg := Message{To: "vendor@acme.com", Subject: "[RFP:1][VENDOR:2] Invitation", Body: "Hello"}
	if err := sender.Send(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAddr != "smtp.example.com:2525" {
		t.Fatalf("unexpected addr: %q", gotAddr)
	}
	if gotFrom != "rfp@example.com" {
		t.Fatalf("unexpected from: %q", gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "vendor@acme.com" {
		t.Fatalf("unexpected to: %v", gotTo)
	}

	payload := string(gotMsg)
	if !strings.Contains(payload, "Subject: [RFP:1][VENDOR:2] Invitation\r\n") {
		t.Fatalf("subject header missing: %q", payload)
	}
	if !strings.HasSuffix(payload, "\r\nHello") {
		t.Fatalf("body missing: %q", payload)
	}
}

func TestSMTPSenderRequiresHostAndFrom(t *testing.T) {
	if _, err := NewSMTPSender(SMTPConfig{From: "a@b.c"}); err == nil {
		t.Fatal("expected error for missing host")
	}
	if _, err := NewSMTPSender(SMTPConfig{Host: "h"}); err == nil {
		t.Fatal("expected error for missing from")
	}
}

func TestSMTPSenderDefaultsPort(t *testing.T) {
	sender, err := NewSMTPSender(SMTPConfig{Host: "h", From: "a@b.c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.cfg.Port != 587 {
		t.Fatalf("expected default port 587, got %d", sender.cfg.Port)
	}
}
