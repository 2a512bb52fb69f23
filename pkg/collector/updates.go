package collector

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/haasonsaas/darkan/pkg/ingest"
)

// UpdateStatus is the package-manager view of a host.
type UpdateStatus struct {
	Outstanding   int
	RebootPending bool
}

// collectUpdates asks apt for upgradable packages and checks the
// reboot-required marker. Hosts without apt report zero outstanding updates.
func collectUpdates(ctx context.Context) (*UpdateStatus, error) {
	status := &UpdateStatus{}

	if out, err := exec.CommandContext(ctx, "apt", "list", "--upgradable").Output(); err == nil {
		status.Outstanding = countUpgradable(string(out))
	}
	if _, err := os.Stat("/var/run/reboot-required"); err == nil {
		status.RebootPending = true
	}
	return status, ctx.Err()
}

// countUpgradable counts package lines in `apt list --upgradable` output,
// skipping the "Listing..." header and apt's CLI warnings.
func countUpgradable(out string) int {
	var n int
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Listing") || strings.HasPrefix(line, "WARNING") {
			continue
		}
		if strings.Contains(line, "/") {
			n++
		}
	}
	return n
}

func (c *Collector) probeUpdates(ctx context.Context) ([]ingest.Sample, error) {
	if c.sources.Updates == nil {
		return nil, nil
	}
	status, err := c.sources.Updates(ctx)
	if err != nil {
		return nil, err
	}
	reboot := int64(0)
	if status.RebootPending {
		reboot = 1
	}
	return []ingest.Sample{
		intSample("os", "updates_pending", int64(status.Outstanding)),
		intSample("os", "reboot_pending", reboot),
	}, nil
}
