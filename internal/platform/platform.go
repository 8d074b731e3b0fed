// Package platform formats the OS-dependent parts of a snapshot: CPU
// identity, memory, mounted disks and the OS version string. The flavor is
// chosen once at startup by Detect.
package platform

import (
	"context"

	"go.uber.org/zap"

	"github.com/HerbHall/hostpulse/internal/provider"
)

// Platform is implemented by Unix and Windows.
type Platform interface {
	// Name returns "unix" or "windows".
	Name() string
	// CPUConstants returns CPU identity and topology. Callers cache it.
	CPUConstants(ctx context.Context) CPUConstants
	// Memory returns memory usage in MB. Failures yield a zero value.
	Memory(ctx context.Context) Memory
	// Disks returns one record per reportable mount. Mounts that fail to
	// stat are skipped; a failed enumeration yields an empty slice.
	Disks(ctx context.Context) []Disk
	// Version returns a human-readable OS version string.
	Version() string
}

// CPUConstants is CPU identity that does not change while the process runs.
type CPUConstants struct {
	Count   int    `json:"cpu_count" yaml:"cpu_count"`
	Name    string `json:"cpu_name" yaml:"cpu_name"`
	Cores   int    `json:"cpu_core" yaml:"cpu_core"`
	Threads int    `json:"cpu_threads" yaml:"cpu_threads"`
}

// Memory is the mem section of a snapshot, sizes in MB. Buffers and Cached
// are only reported on Unix.
type Memory struct {
	Total       int64   `json:"memTotal" yaml:"memTotal"`
	Free        int64   `json:"memFree" yaml:"memFree"`
	Buffers     *int64  `json:"memBuffers,omitempty" yaml:"memBuffers,omitempty"`
	Cached      *int64  `json:"memCached,omitempty" yaml:"memCached,omitempty"`
	RealUsed    int64   `json:"memRealUsed" yaml:"memRealUsed"`
	UsedPercent float64 `json:"memUsedPercent" yaml:"memUsedPercent"`
}

// Detect returns the Platform matching the running OS.
func Detect(p provider.Provider, logger *zap.Logger) Platform {
	return newPlatform(p, logger)
}

const bytesPerMB = 1 << 20

func toMB(b uint64) int64 {
	return int64(b / bytesPerMB)
}

func percentOf(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}
