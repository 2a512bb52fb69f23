package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// commandURL is a placeholder host; the transport always dials the socket.
const commandURL = "http://unix/v1/command"

// client posts commands to the admin endpoint over its unix socket.
type client struct {
	http *http.Client
}

func newClient(socket string, timeout time.Duration) *client {
	dialer := &net.Dialer{}
	return &client{
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					return dialer.DialContext(ctx, "unix", socket)
				},
			},
		},
	}
}

type envelope struct {
	Status    string `json:"status"`
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

// call runs command with args and decodes the OK reply into out.
func (c *client) call(ctx context.Context, command string, args []any, out any) error {
	if args == nil {
		args = []any{}
	}
	body, err := json.Marshal(map[string]any{"command": command, "args": args})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, commandURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	if env.Status != "OK" {
		if env.Error == "" {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return errors.New(env.Error)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
