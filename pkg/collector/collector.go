// Package collector samples local system metrics for the reporting agent.
package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/haasonsaas/darkan/pkg/ingest"
	"github.com/haasonsaas/darkan/pkg/store"
)

// Sources are the gopsutil calls the collector makes. Tests swap them out.
type Sources struct {
	LoadAvg       func(ctx context.Context) (*load.AvgStat, error)
	CPUPercent    func(ctx context.Context, interval time.Duration, percpu bool) ([]float64, error)
	CPUCount      func(ctx context.Context, logical bool) (int, error)
	VirtualMemory func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	DiskUsage     func(ctx context.Context, path string) (*disk.UsageStat, error)
	HostInfo      func(ctx context.Context) (*host.InfoStat, error)

	// Updates is optional; DefaultSources only sets it on linux.
	Updates func(ctx context.Context) (*UpdateStatus, error)
}

func DefaultSources() Sources {
	s := Sources{
		LoadAvg:       load.AvgWithContext,
		CPUPercent:    cpu.PercentWithContext,
		CPUCount:      cpu.CountsWithContext,
		VirtualMemory: mem.VirtualMemoryWithContext,
		DiskUsage:     disk.UsageWithContext,
		HostInfo:      host.InfoWithContext,
	}
	if runtime.GOOS == "linux" {
		s.Updates = collectUpdates
	}
	return s
}

// Result is one collection pass. Errors maps probe name to failure; a failed
// probe contributes no samples.
type Result struct {
	Samples     []ingest.Sample
	Errors      map[string]string
	CollectedAt time.Time
}

// Collector runs its probes in parallel with a shared timeout.
type Collector struct {
	sources Sources
	mounts  []string
	timeout time.Duration
}

func New(sources Sources, mounts []string, timeout time.Duration) *Collector {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Collector{sources: sources, mounts: mounts, timeout: timeout}
}

type probe struct {
	name string
	fn   func(context.Context) ([]ingest.Sample, error)
}

func (c *Collector) probes() []probe {
	return []probe{
		{"load", c.probeLoad},
		{"cpu", c.probeCPU},
		{"memory", c.probeMemory},
		{"disk", c.probeDisk},
		{"host", c.probeHost},
		{"updates", c.probeUpdates},
	}
}

// Collect samples every probe. Samples come back in probe order.
func (c *Collector) Collect(ctx context.Context) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	probes := c.probes()
	slots := make([][]ingest.Sample, len(probes))
	res := Result{Errors: make(map[string]string), CollectedAt: time.Now().UTC()}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for i, p := range probes {
		wg.Add(1)
		go func(i int, p probe) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					mu.Lock()
					res.Errors[p.name] = fmt.Sprintf("panic: %v", r)
					mu.Unlock()
				}
			}()
			samples, err := p.fn(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Errors[p.name] = err.Error()
			}
			slots[i] = samples
		}(i, p)
	}
	wg.Wait()

	for i, samples := range slots {
		for _, s := range samples {
			if len(s.Val) == 0 {
				res.Errors[probes[i].name] = fmt.Sprintf("unencodable value %s.%s", s.Key, s.Arg)
				continue
			}
			res.Samples = append(res.Samples, s)
		}
	}
	return res
}

func (c *Collector) probeLoad(ctx context.Context) ([]ingest.Sample, error) {
	avg, err := c.sources.LoadAvg(ctx)
	if err != nil {
		return nil, err
	}
	return []ingest.Sample{floatSample("cpu", "load", avg.Load1)}, nil
}

func (c *Collector) probeCPU(ctx context.Context) ([]ingest.Sample, error) {
	var out []ingest.Sample
	count, err := c.sources.CPUCount(ctx, true)
	if err != nil {
		return nil, err
	}
	out = append(out, intSample("cpu", "count", int64(count)))

	// A zero interval compares against the previous call, which is what a
	// periodic agent wants.
	percent, err := c.sources.CPUPercent(ctx, 0, false)
	if err != nil {
		return out, err
	}
	if len(percent) > 0 {
		out = append(out, floatSample("cpu", "percent", percent[0]))
	}
	return out, nil
}

func (c *Collector) probeMemory(ctx context.Context) ([]ingest.Sample, error) {
	vm, err := c.sources.VirtualMemory(ctx)
	if err != nil {
		return nil, err
	}
	return []ingest.Sample{floatSample("mem", "used_percent", vm.UsedPercent)}, nil
}

func (c *Collector) probeDisk(ctx context.Context) ([]ingest.Sample, error) {
	mounts := append([]string(nil), c.mounts...)
	sort.Strings(mounts)

	var (
		out      []ingest.Sample
		firstErr error
	)
	for _, mount := range mounts {
		usage, err := c.sources.DiskUsage(ctx, mount)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", mount, err)
			}
			continue
		}
		out = append(out, floatSample("disk", "used_percent["+mount+"]", usage.UsedPercent))
	}
	return out, firstErr
}

func (c *Collector) probeHost(ctx context.Context) ([]ingest.Sample, error) {
	info, err := c.sources.HostInfo(ctx)
	if err != nil {
		return nil, err
	}
	return []ingest.Sample{
		stringSample("host", "os", info.OS),
		intSample("host", "procs", int64(info.Procs)),
		intSample("host", "uptime", int64(info.Uptime)),
	}, nil
}

func floatSample(key, arg string, v float64) ingest.Sample {
	return sample(key, arg, store.KindFloat, v)
}

func intSample(key, arg string, v int64) ingest.Sample {
	return sample(key, arg, store.KindInteger, v)
}

func stringSample(key, arg, v string) ingest.Sample {
	return sample(key, arg, store.KindString, v)
}

func sample(key, arg string, kind store.ValueKind, v any) ingest.Sample {
	// NaN and Inf fail to encode and leave Val empty; Collect drops them.
	raw, err := json.Marshal(v)
	if err != nil {
		raw = nil
	}
	return ingest.Sample{Key: key, Arg: arg, Type: string(kind), Val: raw}
}
