// Package snapshot assembles a full host reading from the provider, the
// platform flavor and the rate adapters.
package snapshot

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/hostpulse/internal/platform"
	"github.com/HerbHall/hostpulse/internal/provider"
	"github.com/HerbHall/hostpulse/internal/rate"
	"github.com/HerbHall/hostpulse/internal/samplecache"
)

// DatetimeLayout formats Boot.Datetime.
const DatetimeLayout = "2006-01-02 15:04:05"

// Aggregator collects snapshots. It is safe for concurrent use; the rate
// adapters serialize their own cache updates.
type Aggregator struct {
	provider provider.Provider
	platform platform.Platform
	network  *rate.Network
	diskIO   *rate.DiskIO
	clock    samplecache.Clock
	metrics  *Metrics
	logger   *zap.Logger

	constOnce sync.Once
	constants platform.CPUConstants
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock overrides the time source used for rates and timestamps.
func WithClock(c samplecache.Clock) Option {
	return func(a *Aggregator) { a.clock = c }
}

// WithMetrics records collection timings and source failures.
func WithMetrics(m *Metrics) Option {
	return func(a *Aggregator) { a.metrics = m }
}

// New creates an Aggregator. cache holds the rate baselines and must outlive
// the Aggregator.
func New(p provider.Provider, plat platform.Platform, cache samplecache.Cache, logger *zap.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		provider: p,
		platform: plat,
		clock:    samplecache.SystemClock(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.network = rate.NewNetwork(cache, a.clock)
	a.diskIO = rate.NewDiskIO(cache, a.clock)
	return a
}

// Collect gathers a full snapshot. CPU utilization is sampled over interval,
// so the call blocks at least that long unless ctx is cancelled. Collect never
// fails: every source falls back to a zero value.
func (a *Aggregator) Collect(ctx context.Context, interval time.Duration) Snapshot {
	start := time.Now()
	defer func() { a.metrics.observeCollect(time.Since(start)) }()

	constants := a.CPUConstants(ctx)

	snap := Snapshot{
		CPU:     a.cpu(ctx, interval, constants),
		Load:    a.load(ctx, constants.Threads),
		Mem:     a.platform.Memory(ctx),
		Disk:    a.platform.Disks(ctx),
		Network: a.Network(ctx),
		IO:      a.IO(ctx),
		Boot:    a.boot(ctx),
	}
	snap.Time = epochSeconds(a.clock.Now())
	return snap
}

// Prime seeds the network and disk I/O baselines so the next Collect reports
// rates over its own sampling window. Disk I/O is sampled twice because its
// cold start stores no timestamp. The read rate of the following Collect
// still divides by one second, since its timestamp is the one the write pass
// stores moments earlier.
func (a *Aggregator) Prime(ctx context.Context) {
	a.Network(ctx)
	a.IO(ctx)
	a.IO(ctx)
}

// CPUConstants returns the CPU identity, computed on first use. The first
// caller's cancellation is ignored so a dropped request cannot cache a
// partial result.
func (a *Aggregator) CPUConstants(ctx context.Context) platform.CPUConstants {
	a.constOnce.Do(func() {
		a.constants = a.platform.CPUConstants(context.WithoutCancel(ctx))
		a.logger.Debug("cpu constants cached",
			zap.String("cpu_name", a.constants.Name),
			zap.Int("cpu_threads", a.constants.Threads),
		)
	})
	return a.constants
}

// Network samples the interface counters and returns throughput since the
// previous sample.
func (a *Aggregator) Network(ctx context.Context) rate.Throughput {
	c, err := a.provider.NetIOCounters(ctx)
	if err != nil {
		a.sourceFailed(SourceNetwork, err)
		c = provider.NetIO{}
	}
	return a.network.Sample(rate.NetCounters{
		BytesSent:   c.BytesSent,
		BytesRecv:   c.BytesRecv,
		PacketsSent: c.PacketsSent,
		PacketsRecv: c.PacketsRecv,
	})
}

// IO samples the disk counters and returns read/write rates. A failed read
// leaves the baselines untouched.
func (a *Aggregator) IO(ctx context.Context) rate.IORate {
	c, err := a.provider.DiskIOCounters(ctx)
	if err != nil {
		a.sourceFailed(SourceDiskIO, err)
		return rate.IORate{}
	}
	return a.diskIO.Sample(rate.DiskCounters{
		ReadBytes:  c.ReadBytes,
		WriteBytes: c.WriteBytes,
	})
}

// System describes the host without sampling anything.
func (a *Aggregator) System(ctx context.Context) System {
	return System{
		Platform: a.platform.Name(),
		Version:  a.platform.Version(),
		CPU:      a.CPUConstants(ctx),
	}
}

func (a *Aggregator) cpu(ctx context.Context, interval time.Duration, constants platform.CPUConstants) CPU {
	out := CPU{UsedList: []float64{}, CPUConstants: constants}

	used, err := a.provider.CPUPercent(ctx, interval)
	if err != nil {
		a.sourceFailed(SourceCPU, err)
	} else {
		out.Used = used
	}

	list, err := a.provider.PerCPUPercent(ctx)
	if err != nil {
		a.sourceFailed(SourcePerCPU, err)
	} else if list != nil {
		out.UsedList = list
	}
	return out
}

func (a *Aggregator) load(ctx context.Context, threads int) Load {
	ceiling := threads * 2
	out := Load{
		Max:   ceiling,
		Limit: ceiling,
		Safe:  float64(ceiling) * 0.75,
	}

	avg, err := a.provider.LoadAverage(ctx)
	if err != nil {
		a.sourceFailed(SourceLoad, err)
		return out
	}
	out.One, out.Five, out.Fifteen = avg.One, avg.Five, avg.Fifteen
	return out
}

func (a *Aggregator) boot(ctx context.Context) Boot {
	now := a.clock.Now()
	out := Boot{Datetime: now.Local().Format(DatetimeLayout)}

	bt, err := a.provider.BootTime(ctx)
	if err != nil {
		a.sourceFailed(SourceBoot, err)
		return out
	}
	out.Timestamp = epochSeconds(bt)
	out.Runtime = now.Sub(bt).Seconds()
	return out
}

func (a *Aggregator) sourceFailed(source string, err error) {
	a.metrics.sourceError(source)
	a.logger.Debug("source read failed, using fallback",
		zap.String("source", source),
		zap.Error(err),
	)
}

func epochSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}
