package rate

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HerbHall/hostpulse/internal/testutil"
)

func TestNetwork_ColdStart(t *testing.T) {
	clock := testutil.NewClock()
	c := newTestCache(clock)
	n := NewNetwork(c, clock)

	got := n.Sample(NetCounters{BytesSent: 5000, BytesRecv: 9000, PacketsSent: 12, PacketsRecv: 30})

	assert.Zero(t, got.Up)
	assert.Zero(t, got.Down)
	assert.Equal(t, uint64(5000), got.UpTotal)
	assert.Equal(t, uint64(9000), got.DownTotal)
	assert.Equal(t, uint64(12), got.UpPackets)
	assert.Equal(t, uint64(30), got.DownPackets)

	for _, key := range []string{KeyUp, KeyDown, KeyNetTime} {
		_, ok := c.Get(key)
		assert.True(t, ok, "cold start should seed %q", key)
	}
}

func TestNetwork_RoundTrip(t *testing.T) {
	clock := testutil.NewClock()
	c := newTestCache(clock)
	n := NewNetwork(c, clock)

	t0 := clock.Now()
	c.Set(KeyUp, uint64(1000))
	c.Set(KeyNetTime, epochSeconds(t0))
	clock.Advance(10 * time.Second)

	got := n.Sample(NetCounters{BytesSent: 11240})

	assert.InDelta(t, 1.00, got.Up, 1e-9)
	assert.Zero(t, got.Down, "down has no baseline")
}

func TestNetwork_RoundsToTwoDecimals(t *testing.T) {
	clock := testutil.NewClock()
	c := newTestCache(clock)
	n := NewNetwork(c, clock)

	n.Sample(NetCounters{BytesSent: 0, BytesRecv: 0})
	clock.Advance(3 * time.Second)
	got := n.Sample(NetCounters{BytesSent: 1000, BytesRecv: 2000})

	// 1000/1024/3 = 0.3255..., 2000/1024/3 = 0.6510...
	assert.Equal(t, 0.33, got.Up)
	assert.Equal(t, 0.65, got.Down)
}

func TestNetwork_ElapsedNotClamped(t *testing.T) {
	clock := testutil.NewClock()
	c := newTestCache(clock)
	n := NewNetwork(c, clock)

	n.Sample(NetCounters{BytesSent: 0})
	clock.Advance(100 * time.Millisecond)
	got := n.Sample(NetCounters{BytesSent: 1024})

	// 1 KB over 0.1s: the divisor is not floored at one second.
	assert.InDelta(t, 10.0, got.Up, 1e-3)
}

func TestNetwork_ZeroElapsedIsZero(t *testing.T) {
	clock := testutil.NewClock()
	c := newTestCache(clock)
	n := NewNetwork(c, clock)

	n.Sample(NetCounters{BytesSent: 0, BytesRecv: 0})
	got := n.Sample(NetCounters{BytesSent: 4096, BytesRecv: 4096})

	assert.Zero(t, got.Up)
	assert.Zero(t, got.Down)
}

func TestNetwork_CounterResetNeverNegative(t *testing.T) {
	clock := testutil.NewClock()
	c := newTestCache(clock)
	n := NewNetwork(c, clock)

	n.Sample(NetCounters{BytesSent: 1 << 30, BytesRecv: 1 << 30})
	clock.Advance(5 * time.Second)
	got := n.Sample(NetCounters{BytesSent: 10, BytesRecv: 10})

	assert.Zero(t, got.Up)
	assert.Zero(t, got.Down)

	clock.Advance(5 * time.Second)
	got = n.Sample(NetCounters{BytesSent: 5130, BytesRecv: 10})
	assert.InDelta(t, 1.0, got.Up, 1e-9, "baseline should follow the reset counter")
}

func TestNetwork_AlwaysRefreshesBaseline(t *testing.T) {
	clock := testutil.NewClock()
	c := newTestCache(clock)
	n := NewNetwork(c, clock)

	n.Sample(NetCounters{BytesSent: 1, BytesRecv: 2})
	clock.Advance(time.Minute)
	n.Sample(NetCounters{BytesSent: 100, BytesRecv: 200})

	up, _ := c.Get(KeyUp)
	down, _ := c.Get(KeyDown)
	ts, ok := c.Get(KeyNetTime)
	require.True(t, ok)
	assert.Equal(t, uint64(100), up)
	assert.Equal(t, uint64(200), down)
	assert.InDelta(t, epochSeconds(clock.Now()), ts, 1e-6)
}

func TestNetwork_ZeroFilledCountersDegrade(t *testing.T) {
	clock := testutil.NewClock()
	c := newTestCache(clock)
	n := NewNetwork(c, clock)

	n.Sample(NetCounters{BytesSent: 2048, BytesRecv: 2048})
	clock.Advance(time.Second)
	got := n.Sample(NetCounters{})

	assert.Equal(t, Throughput{}, got)
}

func TestNetwork_ConcurrentSamplers(t *testing.T) {
	clock := testutil.NewClock()
	c := newTestCache(clock)
	n := NewNetwork(c, clock)
	n.Sample(NetCounters{})

	var wg sync.WaitGroup
	for i := 1; i <= 16; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			got := n.Sample(NetCounters{BytesSent: v * 1024})
			if got.Up < 0 {
				t.Errorf("negative rate %v", got.Up)
			}
		}(uint64(i))
	}
	wg.Wait()
}
