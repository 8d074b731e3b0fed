package agent

import (
	"time"

	"github.com/google/uuid"
)

// Config holds the report loop configuration.
type Config struct {
	// ID identifies this host to brokers and discovery clients.
	ID string
	// ReportInterval is the time between published snapshots. Zero disables
	// reporting; the agent then only advertises itself.
	ReportInterval time.Duration
	// SampleInterval is the CPU sampling window of each report.
	SampleInterval time.Duration
}

// DefaultConfig returns the default agent configuration with a fresh ID.
func DefaultConfig() *Config {
	return &Config{
		ID:             uuid.NewString(),
		SampleInterval: time.Second,
	}
}
