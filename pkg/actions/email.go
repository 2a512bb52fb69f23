package actions

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"sort"
	"strings"
	"time"
)

// EmailSettings configures the SMTP backend.
type EmailSettings struct {
	SMTPHost string
	Username string
	Password string
	From     string
	To       []string
	Timeout  time.Duration
}

// EMail sends alerts through an SMTP relay.
type EMail struct {
	settings EmailSettings
}

func NewEMail(settings EmailSettings) (*EMail, error) {
	if settings.SMTPHost == "" {
		return nil, errors.New("email action: smtp host is required")
	}
	if settings.From == "" || len(settings.To) == 0 {
		return nil, errors.New("email action: from and to are required")
	}
	if _, _, err := net.SplitHostPort(settings.SMTPHost); err != nil {
		settings.SMTPHost = net.JoinHostPort(settings.SMTPHost, "25")
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 10 * time.Second
	}
	return &EMail{settings: settings}, nil
}

func (e *EMail) Name() string        { return "E-Mail" }
func (e *EMail) Description() string { return "Sends e-mail alerts" }

func (e *EMail) Fire(ctx context.Context, alert Alert) error {
	host, _, _ := net.SplitHostPort(e.settings.SMTPHost)

	dialer := net.Dialer{Timeout: e.settings.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", e.settings.SMTPHost)
	if err != nil {
		return fmt.Errorf("dial smtp %s: %w", e.settings.SMTPHost, err)
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(e.settings.Timeout)
	}
	_ = conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if e.settings.Username != "" {
		if err := client.Auth(smtp.PlainAuth("", e.settings.Username, e.settings.Password, host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(e.settings.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	for _, rcpt := range e.settings.To {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp rcpt %s: %w", rcpt, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(e.message(alert)); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp data close: %w", err)
	}
	return client.Quit()
}

func (e *EMail) message(alert Alert) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", e.settings.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(e.settings.To, ", "))
	fmt.Fprintf(&b, "Subject: darkan alert: %s on %s\r\n", alert.TriggerName, alert.Hostname)
	fmt.Fprintf(&b, "Date: %s\r\n", alert.FiredAt.Format(time.RFC1123Z))
	b.WriteString("\r\nALERT!\r\n\r\n")
	fmt.Fprintf(&b, "Trigger:    %s (#%d)\r\n", alert.TriggerName, alert.TriggerID)
	if alert.Description != "" {
		fmt.Fprintf(&b, "            %s\r\n", alert.Description)
	}
	fmt.Fprintf(&b, "Host:       %s (#%d)\r\n", alert.Hostname, alert.HostID)
	fmt.Fprintf(&b, "Condition:  %s\r\n", alert.Expression)

	names := make([]string, 0, len(alert.Values))
	for name := range alert.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "  %s = %v\r\n", name, alert.Values[name])
	}
	return b.Bytes()
}
