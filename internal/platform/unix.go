package platform

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/HerbHall/hostpulse/internal/provider"
)

// UnknownVersion is reported when no OS version source could be read.
const UnknownVersion = "unknown system version"

// minUnixDiskBytes hides mounts smaller than 1 GiB.
const minUnixDiskBytes = 1 << 30

// maxMountDepth hides deeply nested mounts (container overlays and the like).
const maxMountDepth = 10

var skippedMounts = map[string]bool{
	"/mnt/cdrom": true,
	"/boot":      true,
	"/boot/efi":  true,
	"/dev":       true,
	"/dev/shm":   true,
	"/run/lock":  true,
	"/run":       true,
	"/run/shm":   true,
	"/run/user":  true,
}

var skippedFstypes = map[string]bool{
	"tmpfs":    true,
	"devtmpfs": true,
}

// Unix formats snapshot sections for Linux and other Unix-like systems.
type Unix struct {
	provider provider.Provider
	logger   *zap.Logger

	readFile   func(name string) ([]byte, error)
	runCommand func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Compile-time guard.
var _ Platform = (*Unix)(nil)

// NewUnix returns the Unix platform flavor.
func NewUnix(p provider.Provider, logger *zap.Logger) *Unix {
	return &Unix{
		provider:   p,
		logger:     logger,
		readFile:   os.ReadFile,
		runCommand: runCommand,
	}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), "LANG=en_US.UTF-8", "LC_ALL=en_US.UTF-8")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", name, err)
	}
	return out, nil
}

func (u *Unix) Name() string { return "unix" }

func (u *Unix) CPUConstants(ctx context.Context) CPUConstants {
	var content string
	if data, err := u.readFile("/proc/cpuinfo"); err == nil {
		content = string(data)
	} else {
		u.logger.Debug("read cpuinfo failed", zap.Error(err))
	}

	info := parseCPUInfo(content)
	name := info.Model
	if name == "" {
		out, err := u.runCommand(ctx, "lscpu")
		if err != nil {
			u.logger.Debug("lscpu failed", zap.Error(err))
		} else {
			name = parseLscpuModel(string(out))
		}
	}

	return CPUConstants{
		Count:   info.Sockets,
		Name:    name,
		Cores:   cpuCount(ctx, u.provider, u.logger, false),
		Threads: cpuCount(ctx, u.provider, u.logger, true),
	}
}

func (u *Unix) Memory(ctx context.Context) Memory {
	vm, err := u.provider.VirtualMemory(ctx)
	if err != nil {
		u.logger.Debug("memory read failed", zap.Error(err))
		return Memory{}
	}

	total := toMB(vm.Total)
	free := toMB(vm.Free)
	buffers := toMB(vm.Buffers)
	cached := toMB(vm.Cached)
	realUsed := total - free - buffers - cached

	return Memory{
		Total:       total,
		Free:        free,
		Buffers:     &buffers,
		Cached:      &cached,
		RealUsed:    realUsed,
		UsedPercent: percentOf(float64(realUsed), float64(total)),
	}
}

func (u *Unix) Disks(ctx context.Context) []Disk {
	disks := []Disk{}

	parts, err := u.provider.Partitions(ctx)
	if err != nil {
		u.logger.Warn("disk enumeration failed", zap.Error(err))
		return disks
	}

	for _, p := range parts {
		if skipUnixMount(p) {
			continue
		}
		usage, err := u.provider.Usage(ctx, p.Mountpoint)
		if err != nil {
			u.logger.Debug("skipping mount",
				zap.String("mountpoint", p.Mountpoint),
				zap.Error(err),
			)
			continue
		}
		if usage.Total < minUnixDiskBytes {
			continue
		}

		disks = append(disks, Disk{
			Path: p.Mountpoint,
			Size: DiskSize{
				Total:   usage.Total,
				Used:    usage.Used,
				Free:    usage.Free,
				Percent: usage.UsedPercent,
				Human:   true,
			},
			Inodes: Inodes{
				Total:     usage.InodesTotal,
				Used:      usage.InodesUsed,
				Free:      usage.InodesFree,
				Percent:   usage.InodesUsedPercent,
				Supported: true,
			},
		})
	}
	return disks
}

func skipUnixMount(p provider.Partition) bool {
	if skippedFstypes[p.Fstype] || skippedMounts[p.Mountpoint] {
		return true
	}
	if strings.Contains(p.Mountpoint, "docker") {
		return true
	}
	return len(strings.Split(p.Mountpoint, "/")) > maxMountDepth
}

// Version reads /etc/redhat-release, falling back to the first line of
// /etc/issue.
func (u *Unix) Version() string {
	var version string
	if data, err := u.readFile("/etc/redhat-release"); err == nil && strings.TrimSpace(string(data)) != "" {
		version = strings.NewReplacer("release ", "", "Linux", "", "(Core)", "").Replace(string(data))
	} else if data, err := u.readFile("/etc/issue"); err == nil {
		first, _, _ := strings.Cut(strings.TrimSpace(string(data)), "\n")
		version = strings.NewReplacer(`\n`, "", `\l`, "").Replace(first)
	}

	version = strings.Join(strings.Fields(version), " ")
	if version == "" {
		return UnknownVersion
	}
	return fmt.Sprintf("%s (Go %s)", version, strings.TrimPrefix(runtime.Version(), "go"))
}

func cpuCount(ctx context.Context, p provider.Provider, logger *zap.Logger, logical bool) int {
	n, err := p.CPUCounts(ctx, logical)
	if err != nil {
		logger.Debug("cpu count failed", zap.Bool("logical", logical), zap.Error(err))
		return 0
	}
	return n
}
