// Package notify renders user-facing messages and delivers them through a
// Sender.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
)

// Email is a rendered message with both text and HTML bodies.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers rendered email.
type Sender interface {
	Send(ctx context.Context, msg Email) error
}

// LogSender writes messages to the structured log instead of sending them.
// It is used when no SMTP server is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Email) error {
	slog.Info("email (not sent, no smtp configured)", "to", msg.To, "subject", msg.Subject)
	slog.Debug("email body", "to", msg.To, "body", msg.TextBody)
	return nil
}

// SMTPSender delivers messages through an SMTP relay.
type SMTPSender struct {
	Addr     string // host:port
	From     string
	Username string
	Password string
}

func (s *SMTPSender) Send(ctx context.Context, msg Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := buildMIME(s.From, msg)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	var auth smtp.Auth
	if s.Username != "" {
		host := s.Addr
		if i := strings.LastIndex(host, ":"); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", s.Username, s.Password, host)
	}

	if err := smtp.SendMail(s.Addr, auth, s.From, []string{msg.To}, body); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

// headerValue flattens s onto one line so it cannot start a new header.
func headerValue(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return ' '
		}
		return r
	}, s)
}

// buildMIME renders msg as a multipart/alternative message.
func buildMIME(from string, msg Email) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	parts := []struct {
		contentType string
		content     string
	}{
		{"text/plain; charset=UTF-8", msg.TextBody},
		{"text/html; charset=UTF-8", msg.HTMLBody},
	}
	for _, p := range parts {
		if p.content == "" {
			continue
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {p.contentType}})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "From: %s\r\n", headerValue(from))
	fmt.Fprintf(&out, "To: %s\r\n", headerValue(msg.To))
	fmt.Fprintf(&out, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", headerValue(msg.Subject)))
	out.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&out, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())
	out.Write(body.Bytes())
	return out.Bytes(), nil
}
