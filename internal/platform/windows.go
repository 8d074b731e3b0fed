package platform

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/HerbHall/hostpulse/internal/provider"
)

// Windows formats snapshot sections for Windows hosts.
type Windows struct {
	provider provider.Provider
	logger   *zap.Logger

	getenv      func(key string) string
	readVersion func() (product, build string, err error)
}

// Compile-time guard.
var _ Platform = (*Windows)(nil)

// NewWindows returns the Windows platform flavor.
func NewWindows(p provider.Provider, logger *zap.Logger) *Windows {
	return &Windows{
		provider:    p,
		logger:      logger,
		getenv:      os.Getenv,
		readVersion: readWindowsVersion,
	}
}

func (w *Windows) Name() string { return "windows" }

func (w *Windows) CPUConstants(ctx context.Context) CPUConstants {
	c := CPUConstants{
		Cores:   cpuCount(ctx, w.provider, w.logger, false),
		Threads: cpuCount(ctx, w.provider, w.logger, true),
	}

	infos, err := w.provider.CPUInfo(ctx)
	if err != nil {
		w.logger.Debug("cpu info failed", zap.Error(err))
		return c
	}
	c.Count = len(infos)
	if len(infos) > 0 {
		c.Name = strings.TrimSpace(infos[0].ModelName)
	}
	return c
}

func (w *Windows) Memory(ctx context.Context) Memory {
	vm, err := w.provider.VirtualMemory(ctx)
	if err != nil {
		w.logger.Debug("memory read failed", zap.Error(err))
		return Memory{}
	}
	return Memory{
		Total:       toMB(vm.Total),
		Free:        toMB(vm.Free),
		RealUsed:    toMB(vm.Used),
		UsedPercent: percentOf(float64(vm.Used), float64(vm.Total)),
	}
}

func (w *Windows) Disks(ctx context.Context) []Disk {
	disks := []Disk{}

	parts, err := w.provider.Partitions(ctx)
	if err != nil {
		w.logger.Warn("disk enumeration failed", zap.Error(err))
		return disks
	}

	for _, p := range parts {
		usage, err := w.provider.Usage(ctx, p.Mountpoint)
		if err != nil {
			// Empty card readers and optical drives land here.
			w.logger.Debug("skipping drive",
				zap.String("mountpoint", p.Mountpoint),
				zap.Error(err),
			)
			continue
		}
		disks = append(disks, Disk{
			Path: strings.ReplaceAll(p.Mountpoint, `\`, "/"),
			Size: DiskSize{
				Total:   usage.Total,
				Used:    usage.Used,
				Free:    usage.Free,
				Percent: usage.UsedPercent,
			},
			FSType: p.Fstype,
		})
	}
	return disks
}

// Version reads the product name and build from the registry.
func (w *Windows) Version() string {
	product, build, err := w.readVersion()
	if err != nil {
		w.logger.Debug("windows version lookup failed", zap.Error(err))
		return UnknownVersion
	}

	bit := "x86"
	if w.getenv("PROGRAMFILES(X86)") != "" {
		bit = "x64"
	}
	return fmt.Sprintf("%s (build %s) %s (Go %s)",
		product, build, bit, strings.TrimPrefix(runtime.Version(), "go"))
}
