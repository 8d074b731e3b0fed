package rate

import (
	"sync"

	"github.com/HerbHall/hostpulse/internal/samplecache"
)

// Cache keys owned by the network series.
const (
	KeyUp      = "up"
	KeyDown    = "down"
	KeyNetTime = "otime"
)

// NetCounters are the raw interface totals reported by the OS.
type NetCounters struct {
	BytesSent   uint64
	BytesRecv   uint64
	PacketsSent uint64
	PacketsRecv uint64
}

// Throughput is the network section of a snapshot.
type Throughput struct {
	Up          float64 `json:"up" yaml:"up"`
	Down        float64 `json:"down" yaml:"down"`
	UpTotal     uint64  `json:"upTotal" yaml:"upTotal"`
	DownTotal   uint64  `json:"downTotal" yaml:"downTotal"`
	UpPackets   uint64  `json:"upPackets" yaml:"upPackets"`
	DownPackets uint64  `json:"downPackets" yaml:"downPackets"`
}

// Network derives upload/download throughput in KB/s.
//
// Unlike EstimateRate, elapsed time is not floored: two polls a few
// milliseconds apart can report a large rate.
type Network struct {
	mu    sync.Mutex
	cache samplecache.Cache
	clock samplecache.Clock
}

// NewNetwork returns a Network adapter backed by cache.
func NewNetwork(cache samplecache.Cache, clock samplecache.Clock) *Network {
	if clock == nil {
		clock = samplecache.SystemClock()
	}
	return &Network{cache: cache, clock: clock}
}

// Sample records cur as the new baseline and returns the throughput since the
// previous sample. The first sample reports zero rates.
func (n *Network) Sample(cur NetCounters) Throughput {
	n.mu.Lock()
	defer n.mu.Unlock()

	nowSec := epochSeconds(n.clock.Now())

	out := Throughput{
		UpTotal:     cur.BytesSent,
		DownTotal:   cur.BytesRecv,
		UpPackets:   cur.PacketsSent,
		DownPackets: cur.PacketsRecv,
	}

	if prevTime, ok := timestampValue(n.cache.Get(KeyNetTime)); ok {
		elapsed := nowSec - prevTime
		out.Up = n.kbps(KeyUp, cur.BytesSent, elapsed)
		out.Down = n.kbps(KeyDown, cur.BytesRecv, elapsed)
	}

	n.cache.Set(KeyUp, cur.BytesSent)
	n.cache.Set(KeyDown, cur.BytesRecv)
	n.cache.Set(KeyNetTime, nowSec)

	return out
}

func (n *Network) kbps(key string, current uint64, elapsed float64) float64 {
	prev, ok := counterValue(n.cache.Get(key))
	if !ok || elapsed <= 0 || current <= prev {
		return 0
	}
	return round2(float64(current-prev) / 1024 / elapsed)
}
