package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/HerbHall/hostpulse/internal/provider"
)

// Compile-time interface check.
var _ provider.Provider = (*Provider)(nil)

// Provider is an in-memory provider.Provider with canned values. Fields may
// be changed between calls; all methods are safe for concurrent use.
type Provider struct {
	mu sync.Mutex

	CPU          float64
	PerCPU       []float64
	Logical      int
	Physical     int
	Processors   []provider.CPUInfo
	Memory       provider.Memory
	Mounts       []provider.Partition
	Usages       map[string]provider.Usage
	DiskCounters provider.DiskIO
	NetCounters  provider.NetIO
	Boot         time.Time
	Load         provider.LoadAvg

	// Errs maps a method name (e.g. "NetIOCounters") to the error it returns.
	Errs map[string]error
	// UsageErrs maps a mountpoint to the error Usage returns for it.
	UsageErrs map[string]error
	// OnCPUSample, when set, runs inside CPUPercent with the requested
	// interval. Tests use it to advance a clock or move counters.
	OnCPUSample func(interval time.Duration)

	calls map[string]int
}

// NewProvider returns a Provider describing a small four-thread Linux box.
// Override individual fields after creation, or pass options.
func NewProvider(opts ...func(*Provider)) *Provider {
	p := &Provider{
		CPU:      12.5,
		PerCPU:   []float64{10, 15, 12, 13},
		Logical:  4,
		Physical: 2,
		Processors: []provider.CPUInfo{
			{ModelName: "Intel(R) Core(TM) i7-8550U CPU @ 1.80GHz", PhysicalID: "0", CoreID: "0", Cores: 2},
		},
		Memory: provider.Memory{
			Total:     8 << 30,
			Available: 4 << 30,
			Used:      3 << 30,
			Free:      2 << 30,
			Buffers:   512 << 20,
			Cached:    1536 << 20,
		},
		Mounts: []provider.Partition{
			{Device: "/dev/sda1", Mountpoint: "/", Fstype: "ext4"},
		},
		Usages: map[string]provider.Usage{
			"/": {
				Path: "/", Fstype: "ext4",
				Total: 100 << 30, Used: 40 << 30, Free: 60 << 30, UsedPercent: 40,
				InodesTotal: 6_553_600, InodesUsed: 655_360, InodesFree: 5_898_240, InodesUsedPercent: 10,
			},
		},
		DiskCounters: provider.DiskIO{ReadBytes: 1 << 20, WriteBytes: 2 << 20},
		NetCounters:  provider.NetIO{BytesSent: 1 << 20, BytesRecv: 4 << 20, PacketsSent: 1000, PacketsRecv: 4000},
		Boot:         time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		Load:         provider.LoadAvg{One: 0.5, Five: 0.75, Fifteen: 1.0},
		Errs:         map[string]error{},
		UsageErrs:    map[string]error{},
		calls:        map[string]int{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithMount adds a mounted filesystem and its usage.
func WithMount(part provider.Partition, usage provider.Usage) func(*Provider) {
	return func(p *Provider) {
		p.Mounts = append(p.Mounts, part)
		p.Usages[part.Mountpoint] = usage
	}
}

// WithError makes the named method fail with err.
func WithError(method string, err error) func(*Provider) {
	return func(p *Provider) { p.Errs[method] = err }
}

// WithUsageError makes Usage fail for one mountpoint.
func WithUsageError(mountpoint string, err error) func(*Provider) {
	return func(p *Provider) { p.UsageErrs[mountpoint] = err }
}

// Calls reports how many times method was invoked.
func (p *Provider) Calls(method string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[method]
}

// SetNet replaces the network counters.
func (p *Provider) SetNet(n provider.NetIO) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.NetCounters = n
}

// SetDisk replaces the disk I/O counters.
func (p *Provider) SetDisk(d provider.DiskIO) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.DiskCounters = d
}

func (p *Provider) enter(method string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[method]++
	return p.Errs[method]
}

func (p *Provider) CPUPercent(ctx context.Context, interval time.Duration) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := p.enter("CPUPercent"); err != nil {
		return 0, err
	}
	if p.OnCPUSample != nil {
		p.OnCPUSample(interval)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.CPU, nil
}

func (p *Provider) PerCPUPercent(_ context.Context) ([]float64, error) {
	if err := p.enter("PerCPUPercent"); err != nil {
		return nil, err
	}
	out := make([]float64, len(p.PerCPU))
	copy(out, p.PerCPU)
	return out, nil
}

func (p *Provider) CPUCounts(_ context.Context, logical bool) (int, error) {
	if err := p.enter("CPUCounts"); err != nil {
		return 0, err
	}
	if logical {
		return p.Logical, nil
	}
	return p.Physical, nil
}

func (p *Provider) CPUInfo(_ context.Context) ([]provider.CPUInfo, error) {
	if err := p.enter("CPUInfo"); err != nil {
		return nil, err
	}
	return p.Processors, nil
}

func (p *Provider) VirtualMemory(_ context.Context) (provider.Memory, error) {
	if err := p.enter("VirtualMemory"); err != nil {
		return provider.Memory{}, err
	}
	return p.Memory, nil
}

func (p *Provider) Partitions(_ context.Context) ([]provider.Partition, error) {
	if err := p.enter("Partitions"); err != nil {
		return nil, err
	}
	return p.Mounts, nil
}

func (p *Provider) Usage(_ context.Context, path string) (provider.Usage, error) {
	if err := p.enter("Usage"); err != nil {
		return provider.Usage{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.UsageErrs[path]; err != nil {
		return provider.Usage{}, err
	}
	u, ok := p.Usages[path]
	if !ok {
		return provider.Usage{}, provider.ErrNoData
	}
	return u, nil
}

func (p *Provider) DiskIOCounters(_ context.Context) (provider.DiskIO, error) {
	if err := p.enter("DiskIOCounters"); err != nil {
		return provider.DiskIO{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.DiskCounters, nil
}

func (p *Provider) NetIOCounters(_ context.Context) (provider.NetIO, error) {
	if err := p.enter("NetIOCounters"); err != nil {
		return provider.NetIO{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.NetCounters, nil
}

func (p *Provider) BootTime(_ context.Context) (time.Time, error) {
	if err := p.enter("BootTime"); err != nil {
		return time.Time{}, err
	}
	return p.Boot, nil
}

func (p *Provider) LoadAverage(_ context.Context) (provider.LoadAvg, error) {
	if err := p.enter("LoadAverage"); err != nil {
		return provider.LoadAvg{}, err
	}
	return p.Load, nil
}
