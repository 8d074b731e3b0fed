package provider

import (
	"context"
	"testing"
	"time"
)

func TestNewHost_ReturnsNonNil(t *testing.T) {
	if NewHost() == nil {
		t.Fatal("NewHost returned nil")
	}
}

func TestHost_VirtualMemory(t *testing.T) {
	h := NewHost()

	m, err := h.VirtualMemory(context.Background())
	if err != nil {
		t.Fatalf("VirtualMemory error: %v", err)
	}
	if m.Total == 0 {
		t.Error("expected positive total memory")
	}
	if m.Free > m.Total {
		t.Errorf("free memory (%d) exceeds total (%d)", m.Free, m.Total)
	}
}

func TestHost_CPUCounts(t *testing.T) {
	h := NewHost()

	n, err := h.CPUCounts(context.Background(), true)
	if err != nil {
		t.Fatalf("CPUCounts error: %v", err)
	}
	if n < 1 {
		t.Errorf("logical CPUs = %d, want >= 1", n)
	}
}

func TestHost_BootTimeInPast(t *testing.T) {
	h := NewHost()

	boot, err := h.BootTime(context.Background())
	if err != nil {
		t.Skipf("boot time unavailable: %v", err)
	}
	if !boot.Before(time.Now()) {
		t.Errorf("boot time %v is not in the past", boot)
	}
}

func TestHost_CPUPercentCancelledContext(t *testing.T) {
	h := NewHost()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Only ensure no panic; gopsutil may or may not observe cancellation
	// before its first read.
	_, _ = h.CPUPercent(ctx, 50*time.Millisecond)
}
