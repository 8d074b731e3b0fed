package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/HerbHall/hostpulse/internal/provider"
)

func TestLogger_NotNil(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestClock_Advance(t *testing.T) {
	c := NewClock()
	start := c.Now()
	c.Advance(5 * time.Minute)
	if got := c.Now().Sub(start); got != 5*time.Minute {
		t.Errorf("Advance: elapsed = %v, want 5m", got)
	}
}

func TestClock_Set(t *testing.T) {
	c := NewClock()
	target := time.Date(2030, 6, 15, 12, 0, 0, 0, time.UTC)
	c.Set(target)
	if !c.Now().Equal(target) {
		t.Errorf("Set: got %v, want %v", c.Now(), target)
	}
}

func TestClock_EpochSeconds(t *testing.T) {
	c := NewClock(time.Unix(1_700_000_000, 500_000_000))
	if got := c.EpochSeconds(); got != 1_700_000_000.5 {
		t.Errorf("EpochSeconds = %v, want 1700000000.5", got)
	}
}

func TestNewProvider_Defaults(t *testing.T) {
	p := NewProvider()
	ctx := context.Background()

	n, err := p.CPUCounts(ctx, true)
	if err != nil || n != 4 {
		t.Errorf("CPUCounts(logical) = %d, %v; want 4, nil", n, err)
	}
	u, err := p.Usage(ctx, "/")
	if err != nil {
		t.Fatalf("Usage(/): %v", err)
	}
	if u.Total == 0 {
		t.Error("expected non-zero default root usage")
	}
	if p.Calls("Usage") != 1 {
		t.Errorf("Calls(Usage) = %d, want 1", p.Calls("Usage"))
	}
}

func TestNewProvider_WithOptions(t *testing.T) {
	boom := errors.New("boom")
	p := NewProvider(
		WithError("NetIOCounters", boom),
		WithMount(provider.Partition{Mountpoint: "/data", Fstype: "xfs"}, provider.Usage{Total: 1}),
		WithUsageError("/", boom),
	)
	ctx := context.Background()

	if _, err := p.NetIOCounters(ctx); !errors.Is(err, boom) {
		t.Errorf("NetIOCounters error = %v, want boom", err)
	}
	if _, err := p.Usage(ctx, "/"); !errors.Is(err, boom) {
		t.Errorf("Usage(/) error = %v, want boom", err)
	}
	if _, err := p.Usage(ctx, "/data"); err != nil {
		t.Errorf("Usage(/data) error = %v, want nil", err)
	}
	if len(p.Mounts) != 2 {
		t.Errorf("len(Mounts) = %d, want 2", len(p.Mounts))
	}
}
