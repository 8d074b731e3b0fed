package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/HerbHall/hostpulse/internal/agent"
	"github.com/HerbHall/hostpulse/internal/config"
	"github.com/HerbHall/hostpulse/internal/platform"
	"github.com/HerbHall/hostpulse/internal/provider"
	"github.com/HerbHall/hostpulse/internal/samplecache"
	"github.com/HerbHall/hostpulse/internal/server"
	"github.com/HerbHall/hostpulse/internal/snapshot"
	"github.com/HerbHall/hostpulse/internal/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "hostpulse:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to configuration file")
	once := flag.Bool("once", false, "print one snapshot and exit")
	format := flag.String("format", "json", "output format for -once: json or yaml")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		return nil
	}
	if *once && !validFormat(*format) {
		return fmt.Errorf("unknown format %q (want json or yaml)", *format)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	settings, err := cfg.Settings()
	if err != nil {
		return err
	}

	logger, err := newLogger(settings.Log.Level, settings.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if f := cfg.ConfigFileUsed(); f != "" {
		logger.Debug("configuration loaded", zap.String("file", f))
	}

	cache := samplecache.NewMemory(
		samplecache.WithDefaultTTL(settings.Collector.CacheTTL),
		samplecache.WithMaxEntries(settings.Collector.CacheMaxEntries),
	)
	host := provider.NewHost()
	plat := platform.Detect(host, logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	agg := snapshot.New(host, plat, cache, logger,
		snapshot.WithMetrics(snapshot.NewMetrics(reg, cache)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once {
		agg.Prime(ctx)
		snap := agg.Collect(ctx, settings.Collector.CPUInterval)
		return writeSnapshot(os.Stdout, snap, *format)
	}

	return serve(ctx, settings, agg, reg, logger)
}

func serve(ctx context.Context, s *config.Settings, agg *snapshot.Aggregator, reg *prometheus.Registry, logger *zap.Logger) error {
	srv := server.New(server.Config{
		Addr:            s.Server.Addr(),
		AgentID:         s.Agent.ID,
		DefaultInterval: s.Collector.CPUInterval,
		MaxInterval:     s.Collector.MaxInterval,
		RateLimit:       s.Server.RateLimit,
		RateBurst:       s.Server.RateBurst,
		Gatherer:        reg,
	}, agg, logger)

	var opts []agent.Option
	if s.MQTT.Enabled {
		pub, err := agent.NewMQTTPublisher(agent.MQTTConfig{
			Broker:   s.MQTT.Broker,
			Topic:    s.MQTT.Topic,
			ClientID: s.MQTT.ClientID,
			Username: s.MQTT.Username,
			Password: s.MQTT.Password,
			QoS:      byte(s.MQTT.QoS),
		}, logger)
		if err != nil {
			return err
		}
		opts = append(opts, agent.WithPublisher(pub))
	}
	if s.MDNS.Enabled {
		opts = append(opts, agent.WithAnnouncer(
			agent.NewMDNSAnnouncer(s.MDNS.Service, s.Server.Port, s.Agent.ID, logger),
		))
	}
	ag := agent.NewAgent(&agent.Config{
		ID:             s.Agent.ID,
		ReportInterval: s.Agent.ReportInterval,
		SampleInterval: s.Collector.CPUInterval,
	}, agg, logger, opts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error { return ag.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	logger.Info("HostPulse ready",
		zap.String("addr", s.Server.Addr()),
		zap.String("agent_id", s.Agent.ID),
		zap.String("version", version.Short()),
	)

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("HostPulse stopped")
	return nil
}
