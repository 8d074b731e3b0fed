package snapshot

import (
	"github.com/HerbHall/hostpulse/internal/platform"
	"github.com/HerbHall/hostpulse/internal/rate"
)

// Snapshot is one aggregated reading of the host.
type Snapshot struct {
	CPU     CPU             `json:"cpu" yaml:"cpu"`
	Load    Load            `json:"load" yaml:"load"`
	Mem     platform.Memory `json:"mem" yaml:"mem"`
	Disk    []platform.Disk `json:"disk" yaml:"disk"`
	Network rate.Throughput `json:"network" yaml:"network"`
	IO      rate.IORate     `json:"io" yaml:"io"`
	Boot    Boot            `json:"boot" yaml:"boot"`
	Time    float64         `json:"time" yaml:"time"`
}

// CPU is utilization plus the cached CPU identity.
type CPU struct {
	Used     float64   `json:"used" yaml:"used"`
	UsedList []float64 `json:"used_list" yaml:"used_list"`

	platform.CPUConstants `yaml:",inline"`
}

// Load is the load average with thresholds derived from the thread count.
type Load struct {
	One     float64 `json:"one" yaml:"one"`
	Five    float64 `json:"five" yaml:"five"`
	Fifteen float64 `json:"fifteen" yaml:"fifteen"`
	Max     int     `json:"max" yaml:"max"`
	Limit   int     `json:"limit" yaml:"limit"`
	Safe    float64 `json:"safe" yaml:"safe"`
}

// Boot describes uptime. Datetime is the local time of the reading, not of
// the boot.
type Boot struct {
	Timestamp float64 `json:"timestamp" yaml:"timestamp"`
	Runtime   float64 `json:"runtime" yaml:"runtime"`
	Datetime  string  `json:"datetime" yaml:"datetime"`
}

// System is the static description of the host.
type System struct {
	Platform string                `json:"platform" yaml:"platform"`
	Version  string                `json:"version" yaml:"version"`
	CPU      platform.CPUConstants `json:"cpu" yaml:"cpu"`
}
