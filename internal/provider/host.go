package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
)

// Host reads metrics from the local machine through gopsutil.
type Host struct{}

// Compile-time guard.
var _ Provider = (*Host)(nil)

// NewHost returns a Provider for the local machine.
func NewHost() *Host {
	return &Host{}
}

func (h *Host) CPUPercent(ctx context.Context, interval time.Duration) (float64, error) {
	pct, err := cpu.PercentWithContext(ctx, interval, false)
	if err != nil {
		return 0, fmt.Errorf("cpu percent: %w", err)
	}
	if len(pct) == 0 {
		return 0, fmt.Errorf("cpu percent: %w", ErrNoData)
	}
	return pct[0], nil
}

func (h *Host) PerCPUPercent(ctx context.Context) ([]float64, error) {
	pct, err := cpu.PercentWithContext(ctx, 0, true)
	if err != nil {
		return nil, fmt.Errorf("per-cpu percent: %w", err)
	}
	return pct, nil
}

func (h *Host) CPUCounts(ctx context.Context, logical bool) (int, error) {
	n, err := cpu.CountsWithContext(ctx, logical)
	if err != nil {
		return 0, fmt.Errorf("cpu counts (logical=%t): %w", logical, err)
	}
	return n, nil
}

func (h *Host) CPUInfo(ctx context.Context) ([]CPUInfo, error) {
	stats, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("cpu info: %w", err)
	}
	out := make([]CPUInfo, 0, len(stats))
	for i := range stats {
		out = append(out, CPUInfo{
			ModelName:  stats[i].ModelName,
			PhysicalID: stats[i].PhysicalID,
			CoreID:     stats[i].CoreID,
			Cores:      stats[i].Cores,
		})
	}
	return out, nil
}

func (h *Host) VirtualMemory(ctx context.Context) (Memory, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Memory{}, fmt.Errorf("virtual memory: %w", err)
	}
	return Memory{
		Total:     vm.Total,
		Available: vm.Available,
		Used:      vm.Used,
		Free:      vm.Free,
		Buffers:   vm.Buffers,
		Cached:    vm.Cached,
	}, nil
}

func (h *Host) Partitions(ctx context.Context) ([]Partition, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("disk partitions: %w", err)
	}
	out := make([]Partition, 0, len(parts))
	for _, p := range parts {
		out = append(out, Partition{
			Device:     p.Device,
			Mountpoint: p.Mountpoint,
			Fstype:     p.Fstype,
		})
	}
	return out, nil
}

func (h *Host) Usage(ctx context.Context, path string) (Usage, error) {
	u, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return Usage{}, fmt.Errorf("disk usage %s: %w", path, err)
	}
	return Usage{
		Path:              u.Path,
		Fstype:            u.Fstype,
		Total:             u.Total,
		Used:              u.Used,
		Free:              u.Free,
		UsedPercent:       u.UsedPercent,
		InodesTotal:       u.InodesTotal,
		InodesUsed:        u.InodesUsed,
		InodesFree:        u.InodesFree,
		InodesUsedPercent: u.InodesUsedPercent,
	}, nil
}

func (h *Host) DiskIOCounters(ctx context.Context) (DiskIO, error) {
	counters, err := disk.IOCountersWithContext(ctx)
	if err != nil {
		return DiskIO{}, fmt.Errorf("disk io counters: %w", err)
	}
	if len(counters) == 0 {
		return DiskIO{}, fmt.Errorf("disk io counters: %w", ErrNoData)
	}
	var total DiskIO
	for _, c := range counters {
		total.ReadBytes += c.ReadBytes
		total.WriteBytes += c.WriteBytes
	}
	return total, nil
}

func (h *Host) NetIOCounters(ctx context.Context) (NetIO, error) {
	counters, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return NetIO{}, fmt.Errorf("net io counters: %w", err)
	}
	if len(counters) == 0 {
		return NetIO{}, fmt.Errorf("net io counters: %w", ErrNoData)
	}
	c := counters[0]
	return NetIO{
		BytesSent:   c.BytesSent,
		BytesRecv:   c.BytesRecv,
		PacketsSent: c.PacketsSent,
		PacketsRecv: c.PacketsRecv,
	}, nil
}

func (h *Host) BootTime(ctx context.Context) (time.Time, error) {
	secs, err := host.BootTimeWithContext(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("boot time: %w", err)
	}
	return time.Unix(int64(secs), 0), nil
}

func (h *Host) LoadAverage(ctx context.Context) (LoadAvg, error) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return LoadAvg{}, fmt.Errorf("load average: %w", err)
	}
	return LoadAvg{One: avg.Load1, Five: avg.Load5, Fifteen: avg.Load15}, nil
}
