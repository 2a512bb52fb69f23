// Package health probes the ingestion endpoint before an agent starts reporting.
package health

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type HealthStatus struct {
	ServerReachable bool      `json:"server_reachable"`
	TimeDrift       int       `json:"time_drift_seconds"`
	CheckedAt       time.Time `json:"checked_at"`
	Healthy         bool      `json:"healthy"`
	Issues          []string  `json:"issues,omitempty"`
}

// Check calls GET /v1/health on serverURL and compares the local clock with
// the reply's Date header.
func Check(ctx context.Context, client *http.Client, serverURL string, maxTimeDrift int) *HealthStatus {
	status := &HealthStatus{
		Healthy:   true,
		Issues:    []string{},
		CheckedAt: time.Now(),
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(serverURL, "/")+"/v1/health", nil)
	if err != nil {
		status.Healthy = false
		status.Issues = append(status.Issues, fmt.Sprintf("invalid server URL: %v", err))
		return status
	}
	resp, err := client.Do(req)
	if err != nil {
		status.Healthy = false
		status.Issues = append(status.Issues, fmt.Sprintf("cannot reach server: %v", err))
		return status
	}
	resp.Body.Close()

	status.ServerReachable = resp.StatusCode == http.StatusOK
	if !status.ServerReachable {
		status.Healthy = false
		status.Issues = append(status.Issues, fmt.Sprintf("server unhealthy: %d", resp.StatusCode))
	}

	drift := timeDrift(resp.Header.Get("Date"), status.CheckedAt)
	status.TimeDrift = drift
	if maxTimeDrift > 0 && drift > maxTimeDrift {
		status.Healthy = false
		status.Issues = append(status.Issues, fmt.Sprintf("time drift %ds exceeds max %ds", drift, maxTimeDrift))
	}

	return status
}

// timeDrift returns the absolute difference in seconds between the server's
// Date header and now, or 0 when the header is missing.
func timeDrift(header string, now time.Time) int {
	if header == "" {
		return 0
	}
	serverTime, err := http.ParseTime(header)
	if err != nil {
		return 0
	}
	d := now.Sub(serverTime)
	if d < 0 {
		d = -d
	}
	return int(d / time.Second)
}
