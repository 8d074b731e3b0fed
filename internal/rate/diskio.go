package rate

import (
	"sync"

	"github.com/HerbHall/hostpulse/internal/samplecache"
)

// Cache keys owned by the disk I/O series.
const (
	KeyIORead  = "io_read"
	KeyIOWrite = "io_write"
	KeyIOTime  = "io_time"
)

// DiskCounters are the cumulative bytes read and written across all disks.
type DiskCounters struct {
	ReadBytes  uint64
	WriteBytes uint64
}

// IORate is the io section of a snapshot, in bytes per second.
type IORate struct {
	Read  int64 `json:"read" yaml:"read"`
	Write int64 `json:"write" yaml:"write"`
}

// DiskIO derives read/write throughput in bytes per second.
//
// Both directions share KeyIOTime. Write is computed first and read second,
// so the timestamp left in the cache is the one stored by the read pass, and
// the read pass measures against the timestamp the write pass just stored.
type DiskIO struct {
	mu    sync.Mutex
	cache samplecache.Cache
	clock samplecache.Clock
}

// NewDiskIO returns a DiskIO adapter backed by cache.
func NewDiskIO(cache samplecache.Cache, clock samplecache.Clock) *DiskIO {
	if clock == nil {
		clock = samplecache.SystemClock()
	}
	return &DiskIO{cache: cache, clock: clock}
}

// Sample records cur and returns the read/write rates since the last sample.
func (d *DiskIO) Sample(cur DiskCounters) IORate {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	write := EstimateRate(d.cache, KeyIOWrite, KeyIOTime, cur.WriteBytes, now)
	read := EstimateRate(d.cache, KeyIORead, KeyIOTime, cur.ReadBytes, now)

	return IORate{
		Read:  truncate(read),
		Write: truncate(write),
	}
}

// ReadRate runs only the read half of the series.
func (d *DiskIO) ReadRate(readBytes uint64) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return truncate(EstimateRate(d.cache, KeyIORead, KeyIOTime, readBytes, d.clock.Now()))
}

// WriteRate runs only the write half of the series.
func (d *DiskIO) WriteRate(writeBytes uint64) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return truncate(EstimateRate(d.cache, KeyIOWrite, KeyIOTime, writeBytes, d.clock.Now()))
}

func truncate(v float64) int64 {
	if v <= 0 {
		return 0
	}
	return int64(v)
}
