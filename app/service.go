package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/trackdispatch/api/sections"
	_ "github.com/kilianp07/trackdispatch/app/plugins"
	"github.com/kilianp07/trackdispatch/config"
	"github.com/kilianp07/trackdispatch/core/dispatch"
	"github.com/kilianp07/trackdispatch/core/journal"
	coremetrics "github.com/kilianp07/trackdispatch/core/metrics"
	coremon "github.com/kilianp07/trackdispatch/core/monitoring"
	"github.com/kilianp07/trackdispatch/core/snapshot"
	"github.com/kilianp07/trackdispatch/core/topology"
	"github.com/kilianp07/trackdispatch/infra/logger"
	"github.com/kilianp07/trackdispatch/infra/metrics"
	"github.com/kilianp07/trackdispatch/infra/monitoring"
	"github.com/kilianp07/trackdispatch/infra/mqtt"
	"github.com/kilianp07/trackdispatch/internal/eventbus"
)

// Service wires the coordinator to its stores, the event consumers and the
// HTTP endpoints.
type Service struct {
	Coordinator *dispatch.Coordinator

	cfg      *config.Config
	log      logger.Logger
	bus      *eventbus.Bus
	store    snapshot.Store
	journal  journal.Store
	sink     coremetrics.MetricsSink
	mqtt     *mqtt.PahoClient
	api      *sections.Handler
	listener net.Listener
}

// New builds every component from the configuration. The coordinator loads
// the topology and restores the latest snapshot before New returns.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	if err := logger.Configure(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, err
	}
	s := &Service{cfg: cfg, log: logger.New("service"), bus: eventbus.New()}
	if err := s.build(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Service) build(ctx context.Context) error {
	mon, err := monitoring.NewSentryMonitor(s.cfg.Sentry)
	if err != nil {
		return fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	provider, err := topology.NewProvider(s.cfg.Topology)
	if err != nil {
		return fmt.Errorf("topology provider: %w", err)
	}
	if s.store, err = snapshot.NewStore(s.cfg.Snapshot.Store); err != nil {
		return fmt.Errorf("snapshot store: %w", err)
	}
	if s.journal, err = journal.Open(s.cfg.Journal.Options()); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	if s.sink, err = coremetrics.NewMetricsSink(s.cfg.Metrics.Sinks); err != nil {
		return fmt.Errorf("metrics sink: %w", err)
	}
	clk, err := s.cfg.Clock.New()
	if err != nil {
		return fmt.Errorf("clock: %w", err)
	}

	s.Coordinator, err = dispatch.NewCoordinator(ctx, dispatch.Deps{
		Provider:        provider,
		Store:           s.store,
		Clock:           clk,
		Logger:          logger.New("coordinator"),
		Metrics:         s.sink,
		Bus:             s.bus,
		Monitor:         mon,
		SnapshotTimeout: s.cfg.Snapshot.Timeout,
	})
	if err != nil {
		return fmt.Errorf("coordinator: %w", err)
	}

	if s.cfg.MQTT.Broker != "" {
		if s.mqtt, err = mqtt.NewPahoClient(s.cfg.MQTT); err != nil {
			return fmt.Errorf("mqtt client: %w", err)
		}
	}
	if !s.cfg.API.Disabled {
		s.api, err = sections.NewHandler(sections.Options{
			Coordinator: s.Coordinator,
			Journal:     s.journal,
			Bus:         s.bus,
			Token:       s.cfg.API.Token,
			Logger:      logger.New("api"),
			Replay:      s.cfg.API.Replay,
		})
		if err != nil {
			return err
		}
		if s.listener, err = net.Listen("tcp", s.cfg.API.Address); err != nil {
			return fmt.Errorf("api listen: %w", err)
		}
	}
	return nil
}

// APIAddr is the address the API listens on, or "" when it is disabled.
func (s *Service) APIAddr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run serves until ctx is canceled or a server fails.
func (s *Service) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	consumers := []<-chan struct{}{
		metrics.StartEventCollector(ctx, s.bus, s.sink),
		journal.StartRecorder(ctx, s.bus, s.journal, logger.New("journal")),
	}
	if s.mqtt != nil {
		consumers = append(consumers, mqtt.StartEventPublisher(ctx, s.bus, s.mqtt, s.cfg.MQTT.TopicPrefix, logger.New("mqtt")))
	}
	if s.api != nil {
		consumers = append(consumers, s.api.Run(ctx))
		srv := &http.Server{Handler: s.api, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			s.log.Infof("serving api on %s", s.listener.Addr())
			if err := srv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("api server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			s.api.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	if port := s.cfg.Metrics.PrometheusPort; port != "" {
		g.Go(func() error { return metrics.StartPromServer(ctx, port) })
	}

	err := g.Wait()
	for _, done := range consumers {
		<-done
	}
	return err
}

// Close writes a final snapshot and releases every resource.
func (s *Service) Close() {
	if s.Coordinator != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Snapshot.Timeout)
		if err := s.Coordinator.Close(ctx); err != nil {
			s.log.Errorf("final snapshot: %v", err)
		}
		cancel()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	for name, c := range map[string]interface{ Close() error }{"journal": s.journal, "snapshot store": s.store} {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			s.log.Errorf("close %s: %v", name, err)
		}
	}
	s.bus.Close()
	coremon.Flush(2 * time.Second)
}
