// Package provider is the narrow boundary between HostPulse and the operating
// system. Everything above it works with the plain value types declared here.
package provider

import (
	"context"
	"errors"
	"time"
)

// ErrNoData is returned when the OS call succeeded but reported nothing.
var ErrNoData = errors.New("provider: no data")

// Provider exposes the raw OS metrics HostPulse consumes.
type Provider interface {
	// CPUPercent blocks for interval and returns overall utilization.
	CPUPercent(ctx context.Context, interval time.Duration) (float64, error)
	// PerCPUPercent returns per-logical-CPU utilization since the last call.
	PerCPUPercent(ctx context.Context) ([]float64, error)
	// CPUCounts returns the number of logical or physical cores.
	CPUCounts(ctx context.Context, logical bool) (int, error)
	// CPUInfo returns one entry per processor as reported by the OS.
	CPUInfo(ctx context.Context) ([]CPUInfo, error)
	VirtualMemory(ctx context.Context) (Memory, error)
	Partitions(ctx context.Context) ([]Partition, error)
	Usage(ctx context.Context, path string) (Usage, error)
	// DiskIOCounters sums read/write bytes across all block devices.
	DiskIOCounters(ctx context.Context) (DiskIO, error)
	// NetIOCounters sums bytes and packets across all interfaces.
	NetIOCounters(ctx context.Context) (NetIO, error)
	BootTime(ctx context.Context) (time.Time, error)
	LoadAverage(ctx context.Context) (LoadAvg, error)
}

// CPUInfo describes one processor entry.
type CPUInfo struct {
	ModelName  string
	PhysicalID string
	CoreID     string
	Cores      int32
}

// Memory holds virtual memory counters in bytes.
type Memory struct {
	Total     uint64
	Available uint64
	Used      uint64
	Free      uint64
	Buffers   uint64
	Cached    uint64
}

// Partition is a mounted filesystem.
type Partition struct {
	Device     string
	Mountpoint string
	Fstype     string
}

// Usage is the space and inode usage of one mountpoint.
type Usage struct {
	Path              string
	Fstype            string
	Total             uint64
	Used              uint64
	Free              uint64
	UsedPercent       float64
	InodesTotal       uint64
	InodesUsed        uint64
	InodesFree        uint64
	InodesUsedPercent float64
}

// DiskIO holds cumulative disk transfer counters.
type DiskIO struct {
	ReadBytes  uint64
	WriteBytes uint64
}

// NetIO holds cumulative network transfer counters.
type NetIO struct {
	BytesSent   uint64
	BytesRecv   uint64
	PacketsSent uint64
	PacketsRecv uint64
}

// LoadAvg holds the 1, 5 and 15 minute load averages.
type LoadAvg struct {
	One     float64
	Five    float64
	Fifteen float64
}
