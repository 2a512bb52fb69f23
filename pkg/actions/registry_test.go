package actions

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type recordingAction struct {
	name   string
	err    error
	alerts []Alert
}

func (r *recordingAction) Name() string        { return r.name }
func (r *recordingAction) Description() string { return "records " + r.name }
func (r *recordingAction) Fire(_ context.Context, alert Alert) error {
	r.alerts = append(r.alerts, alert)
	return r.err
}

func TestRegistryEnumeratesInOrder(t *testing.T) {
	reg, err := NewRegistry(zerolog.Nop(), &recordingAction{name: "b"}, &recordingAction{name: "a"}, NewLog(zerolog.Nop()))
	require.NoError(t, err)

	require.Equal(t, []Info{
		{Name: "b", Description: "records b"},
		{Name: "a", Description: "records a"},
		{Name: "Log", Description: "Writes alerts to the server log"},
	}, reg.Enumerate())
	require.True(t, reg.Has("a"))
	require.False(t, reg.Has("c"))
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	_, err := NewRegistry(zerolog.Nop(), &recordingAction{name: "a"}, &recordingAction{name: "a"})
	require.Error(t, err)
}

func TestRegistryFireSwallowsDeliveryErrors(t *testing.T) {
	failing := &recordingAction{name: "flaky", err: errors.New("network down")}
	reg, err := NewRegistry(zerolog.Nop(), failing)
	require.NoError(t, err)

	require.NoError(t, reg.Fire(context.Background(), "flaky", Alert{TriggerID: 1}))
	require.Len(t, failing.alerts, 1)

	err = reg.Fire(context.Background(), "missing", Alert{})
	require.ErrorIs(t, err, ErrUnknownAction)
}

func TestEMailRequiresSettings(t *testing.T) {
	_, err := NewEMail(EmailSettings{})
	require.Error(t, err)
	_, err = NewEMail(EmailSettings{SMTPHost: "localhost"})
	require.Error(t, err)

	mail, err := NewEMail(EmailSettings{SMTPHost: "localhost", From: "darkan@example.com", To: []string{"ops@example.com"}})
	require.NoError(t, err)
	require.Equal(t, "localhost:25", mail.settings.SMTPHost)
}

func TestEMailMessage(t *testing.T) {
	mail, err := NewEMail(EmailSettings{SMTPHost: "mail:2525", From: "darkan@example.com", To: []string{"a@example.com", "b@example.com"}})
	require.NoError(t, err)

	msg := string(mail.message(Alert{
		TriggerID:   3,
		TriggerName: "high load",
		HostID:      1,
		Hostname:    "web1",
		Expression:  "cpu.load > 0.9",
		Values:      map[string]any{"cpu.load": 0.92},
		FiredAt:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}))
	require.Contains(t, msg, "To: a@example.com, b@example.com\r\n")
	require.Contains(t, msg, "Subject: darkan alert: high load on web1\r\n")
	require.Contains(t, msg, "cpu.load = 0.92")
	require.True(t, strings.Contains(msg, "\r\n\r\nALERT!"))
}

func TestEMailDeliveryFailureIsSwallowedByRegistry(t *testing.T) {
	mail, err := NewEMail(EmailSettings{SMTPHost: "127.0.0.1:1", From: "a@example.com", To: []string{"b@example.com"}, Timeout: time.Second})
	require.NoError(t, err)
	require.Error(t, mail.Fire(context.Background(), Alert{}))

	reg, err := NewRegistry(zerolog.Nop(), mail)
	require.NoError(t, err)
	require.NoError(t, reg.Fire(context.Background(), "E-Mail", Alert{}))
}

func TestNATSPublishesAlert(t *testing.T) {
	srv := runNATSServer(t)

	sub, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	defer sub.Close()
	msgs := make(chan *nats.Msg, 1)
	_, err = sub.ChanSubscribe("ops.alerts", msgs)
	require.NoError(t, err)
	require.NoError(t, sub.Flush())

	action, err := NewNATS(srv.ClientURL(), "ops.alerts")
	require.NoError(t, err)
	defer action.Close()

	require.NoError(t, action.Fire(context.Background(), Alert{TriggerID: 9, Hostname: "web1"}))

	select {
	case msg := <-msgs:
		var got Alert
		require.NoError(t, json.Unmarshal(msg.Data, &got))
		require.Equal(t, uint(9), got.TriggerID)
		require.Equal(t, "web1", got.Hostname)
	case <-time.After(5 * time.Second):
		t.Fatal("alert not received")
	}
}

func TestNATSRequiresURL(t *testing.T) {
	_, err := NewNATS("", "")
	require.Error(t, err)
}

func runNATSServer(t *testing.T) *server.Server {
	t.Helper()

	srv, err := server.NewServer(&server.Options{Host: "127.0.0.1", Port: -1})
	require.NoError(t, err)
	go srv.Start()
	if !srv.ReadyForConnections(10 * time.Second) {
		srv.Shutdown()
		t.Fatalf("embedded NATS server not ready for connections")
	}
	t.Cleanup(srv.Shutdown)
	return srv
}
