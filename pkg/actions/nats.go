package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const defaultAlertSubject = "darkan.alerts"

// NATS publishes alerts as JSON on a subject.
type NATS struct {
	conn    *nats.Conn
	subject string
	timeout time.Duration
}

// NewNATS connects to url. The connection keeps retrying in the background
// when the server is not reachable yet.
func NewNATS(url, subject string) (*NATS, error) {
	if url == "" {
		return nil, errors.New("nats action: url is required")
	}
	if subject == "" {
		subject = defaultAlertSubject
	}
	conn, err := nats.Connect(url,
		nats.Name("darkan-server"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats action: connect %s: %w", url, err)
	}
	return &NATS{conn: conn, subject: subject, timeout: 5 * time.Second}, nil
}

func (n *NATS) Name() string        { return "NATS" }
func (n *NATS) Description() string { return "Publishes alerts to a NATS subject" }

func (n *NATS) Fire(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	if err := n.conn.Publish(n.subject, payload); err != nil {
		return fmt.Errorf("publish to %s: %w", n.subject, err)
	}

	flushCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	if err := n.conn.FlushWithContext(flushCtx); err != nil {
		return fmt.Errorf("flush to %s: %w", n.subject, err)
	}
	return nil
}

// Close drains pending alerts and closes the connection.
func (n *NATS) Close() error {
	return n.conn.Drain()
}
