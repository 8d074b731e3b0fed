// Package rate turns monotonically increasing OS counters into per-second
// rates, using a samplecache.Cache to remember the previous sample of each
// series between polls.
package rate

import (
	"math"
	"time"

	"github.com/HerbHall/hostpulse/internal/samplecache"
)

// minElapsed is the divisor floor applied by EstimateRate, in seconds.
const minElapsed = 1.0

// EstimateRate returns the per-second increase of the counter stored under
// valueKey, using the timestamp stored under timeKey as the start of the
// interval. The first call for a key only records a baseline and returns 0.
// Elapsed time is floored at one second and decreasing counters yield 0.
// Both keys are refreshed on every non-cold call.
func EstimateRate(c samplecache.Cache, valueKey, timeKey string, current uint64, now time.Time) float64 {
	prev, ok := counterValue(c.Get(valueKey))
	if !ok {
		c.Set(valueKey, current)
		return 0
	}

	nowSec := epochSeconds(now)
	prevTime, ok := timestampValue(c.Get(timeKey))
	if !ok {
		prevTime = nowSec
	}

	elapsed := math.Max(nowSec-prevTime, minElapsed)

	var r float64
	if current > prev {
		r = float64(current-prev) / elapsed
	}

	c.Set(valueKey, current)
	c.Set(timeKey, nowSec)
	return r
}

// epochSeconds converts t to fractional Unix seconds.
func epochSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

func counterValue(v any, ok bool) (uint64, bool) {
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case uint64:
		return n, true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case float64:
		if n < 0 || math.IsNaN(n) {
			return 0, false
		}
		return uint64(n), true
	}
	return 0, false
}

func timestampValue(v any, ok bool) (float64, bool) {
	if !ok {
		return 0, false
	}
	switch ts := v.(type) {
	case float64:
		return ts, true
	case int64:
		return float64(ts), true
	case int:
		return float64(ts), true
	case time.Time:
		return epochSeconds(ts), true
	}
	return 0, false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
