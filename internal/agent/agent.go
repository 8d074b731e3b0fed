// Package agent runs the periodic report loop: it collects snapshots on a
// fixed interval and hands them to publishers such as an MQTT broker.
package agent

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/hostpulse/internal/snapshot"
	"github.com/HerbHall/hostpulse/internal/version"
)

// Collector produces snapshots. Implemented by snapshot.Aggregator.
type Collector interface {
	Collect(ctx context.Context, interval time.Duration) snapshot.Snapshot
}

// Publisher delivers a snapshot somewhere outside the process.
type Publisher interface {
	// Name identifies the publisher in logs.
	Name() string
	Publish(ctx context.Context, snap snapshot.Snapshot) error
	Close() error
}

// Announcer makes the agent discoverable on the local network.
type Announcer interface {
	Start() error
	Shutdown() error
}

// Agent is the HostPulse report loop.
type Agent struct {
	config     *Config
	collector  Collector
	publishers []Publisher
	announcer  Announcer
	logger     *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Option configures an Agent.
type Option func(*Agent)

// WithPublisher adds a snapshot destination.
func WithPublisher(p Publisher) Option {
	return func(a *Agent) { a.publishers = append(a.publishers, p) }
}

// WithAnnouncer advertises the agent while it runs.
func WithAnnouncer(an Announcer) Option {
	return func(a *Agent) { a.announcer = an }
}

// NewAgent creates a new agent instance.
func NewAgent(config *Config, c Collector, logger *zap.Logger, opts ...Option) *Agent {
	a := &Agent{
		config:    config,
		collector: c,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the agent and blocks until the context is cancelled. Publishers
// are closed on return.
func (a *Agent) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()
	defer cancel()
	defer a.closePublishers()

	a.logger.Info("agent starting",
		zap.String("agent_id", a.config.ID),
		zap.String("platform", version.Platform()),
		zap.Duration("report_interval", a.config.ReportInterval),
		zap.Int("publishers", len(a.publishers)),
	)

	if a.announcer != nil {
		if err := a.announcer.Start(); err != nil {
			a.logger.Warn("service announcement failed", zap.Error(err))
		} else {
			defer func() {
				if err := a.announcer.Shutdown(); err != nil {
					a.logger.Warn("stop service announcement", zap.Error(err))
				}
			}()
		}
	}

	if a.config.ReportInterval <= 0 || len(a.publishers) == 0 {
		a.logger.Info("periodic reporting disabled")
		<-ctx.Done()
		a.logger.Info("agent shutting down")
		return nil
	}

	ticker := time.NewTicker(a.config.ReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("agent shutting down")
			return nil
		case <-ticker.C:
			a.report(ctx)
		}
	}
}

// Stop signals the agent to shut down.
func (a *Agent) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}

// report collects one snapshot and fans it out. Publish failures are logged
// and do not stop the loop.
func (a *Agent) report(ctx context.Context) {
	snap := a.collector.Collect(ctx, a.config.SampleInterval)
	if ctx.Err() != nil {
		return
	}

	for _, p := range a.publishers {
		if err := p.Publish(ctx, snap); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			a.logger.Warn("publish failed",
				zap.String("publisher", p.Name()),
				zap.Error(err),
			)
			continue
		}
		a.logger.Debug("snapshot published", zap.String("publisher", p.Name()))
	}
}

func (a *Agent) closePublishers() {
	for _, p := range a.publishers {
		if err := p.Close(); err != nil {
			a.logger.Warn("close publisher", zap.String("publisher", p.Name()), zap.Error(err))
		}
	}
}
