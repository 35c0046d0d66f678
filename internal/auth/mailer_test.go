package auth

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"
)

func TestMailerDevModeReturnsLink(t *testing.T) {
	m := NewMailer(Config{DevMode: true, BaseURL: "http://localhost:8080/"})
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("dev mode must not send mail")
		return nil
	}

	link, err := m.SendMagicLink("ada@example.com", "tok")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if link != "http://localhost:8080/auth/verify?token=tok" {
		t.Errorf("link = %q", link)
	}

	link, err = m.SendCLIMagicLink("ada@example.com", "tok")
	if err != nil {
		t.Fatalf("send cli: %v", err)
	}
	if link != "http://localhost:8080/cli/auth/verify?token=tok" {
		t.Errorf("cli link = %q", link)
	}
}

func TestMailerSendsMessage(t *testing.T) {
	m := NewMailer(Config{
		BaseURL:  "https://species.example.com",
		SMTPHost: "mail.example.com",
		SMTPPort: "587",
		SMTPFrom: "noreply@example.com",
	})

	var gotAddr string
	var gotTo []string
	var gotMsg string
	m.send = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	if _, err := m.SendMagicLink("ada@example.com", "tok"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotAddr != "mail.example.com:587" {
		t.Errorf("addr = %q", gotAddr)
	}
	if len(gotTo) != 1 || gotTo[0] != "ada@example.com" {
		t.Errorf("to = %v", gotTo)
	}
	if !strings.Contains(gotMsg, "Subject: Species Catalog login link\r\n") {
		t.Errorf("missing subject in %q", gotMsg)
	}
	if !strings.Contains(gotMsg, "https://species.example.com/auth/verify?token=tok") {
		t.Errorf("missing link in %q", gotMsg)
	}
}

func TestMailerSendError(t *testing.T) {
	m := NewMailer(Config{SMTPHost: "mail.example.com", SMTPPort: "25"})
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	if _, err := m.SendMagicLink("ada@example.com", "tok"); err == nil {
		t.Fatal("expected error")
	}
}
