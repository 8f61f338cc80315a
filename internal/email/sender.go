// Package email delivers lifecycle notices via SMTP.
package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/zapmanager/zapmanager/internal/domain"
	"github.com/zapmanager/zapmanager/internal/lifecycle"
	"golang.org/x/time/rate"
)

const dialTimeout = 10 * time.Second

// Sender implements lifecycle.Sender over SMTP. Transport settings come
// from the stored notification configuration, so a Sender is built per
// sweep rather than at startup.
type Sender struct {
	settings domain.SMTPSettings
	auth     smtp.Auth
	limiter  *rate.Limiter
}

// Factory returns a lifecycle.SenderFactory that throttles sends to
// ratePerSecond within a sweep.
func Factory(ratePerSecond float64) lifecycle.SenderFactory {
	return func(settings domain.SMTPSettings) lifecycle.Sender {
		return NewSender(settings, ratePerSecond)
	}
}

// NewSender creates an SMTP sender for the given settings.
func NewSender(settings domain.SMTPSettings, ratePerSecond float64) *Sender {
	if settings.Port == 0 {
		settings.Port = 587
	}
	if settings.FromAddress == "" {
		settings.FromAddress = settings.Username
	}

	var auth smtp.Auth
	if settings.Username != "" && settings.Password != "" {
		auth = smtp.PlainAuth("", settings.Username, settings.Password, settings.Host)
	}

	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}

	return &Sender{
		settings: settings,
		auth:     auth,
		limiter:  rate.NewLimiter(rate.Limit(ratePerSecond), 1),
	}
}

// Send delivers one message. It blocks on the rate limiter first so a
// large sweep cannot trip the provider's sending limits.
func (s *Sender) Send(ctx context.Context, msg lifecycle.Message) error {
	if s.settings.Host == "" {
		return errors.New("smtp host is not configured")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.settings.Host, s.settings.Port)
	tlsConfig := &tls.Config{
		ServerName: s.settings.Host,
		MinVersion: tls.VersionTLS12,
	}

	conn, err := s.dial(ctx, addr, tlsConfig)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	defer func() { _ = conn.Close() }()

	client, err := smtp.NewClient(conn, s.settings.Host)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	defer func() { _ = client.Close() }()

	// Implicit TLS connections are already encrypted; plain ones upgrade
	// via STARTTLS when the server offers it.
	if !s.settings.UseTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if s.auth != nil {
		if err := client.Auth(s.auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	from := extractEmail(s.settings.FromAddress)
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(buildMessage(s.settings.FromAddress, msg)); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	return client.Quit()
}

func (s *Sender) dial(ctx context.Context, addr string, tlsConfig *tls.Config) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: dialTimeout}

	if s.settings.UseTLS {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: tlsConfig}
		return tlsDialer.DialContext(ctx, "tcp", addr)
	}
	return dialer.DialContext(ctx, "tcp", addr)
}

// buildMessage constructs the RFC 5322 message with headers.
func buildMessage(from string, msg lifecycle.Message) []byte {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("From: %s\r\n", from))
	b.WriteString(fmt.Sprintf("To: %s\r\n", msg.To))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	return []byte(b.String())
}

// extractEmail extracts the address from formats like "Name <a@b.com>".
func extractEmail(address string) string {
	if idx := strings.Index(address, "<"); idx != -1 {
		end := strings.Index(address, ">")
		if end > idx {
			return address[idx+1 : end]
		}
	}
	return address
}

// IsRetryable reports whether a send error is worth retrying on a later
// sweep. Informational only: the sweeps retry naturally because a failed
// notice leaves no log row.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	// SMTP 4xx codes are temporary failures.
	errStr := err.Error()
	for _, code := range []string{"421", "450", "451", "452"} {
		if strings.Contains(errStr, code) {
			return true
		}
	}
	return false
}
