package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shini4i/darkwatt-daemon/internal/config"
	"github.com/shini4i/darkwatt-daemon/internal/dbus"
	"github.com/shini4i/darkwatt-daemon/internal/display"
	"github.com/shini4i/darkwatt-daemon/internal/estimate"
	"github.com/shini4i/darkwatt-daemon/internal/sample"
	"github.com/shini4i/darkwatt-daemon/internal/stats"
	"github.com/shini4i/darkwatt-daemon/internal/theme"
	"github.com/shini4i/darkwatt-daemon/internal/udev"
)

const (
	// statsFlushInterval is how often recorded samples are persisted.
	statsFlushInterval = 30 * time.Second

	// hotplugSettleDelay gives the kernel time to read the EDID of a new monitor.
	hotplugSettleDelay = 500 * time.Millisecond

	refreshRetries = 3
	refreshBackoff = 500 * time.Millisecond
)

func runServe(ctx context.Context, configPath string) error {
	log.Info().Str("config", configPath).Msg("Starting darkwattd")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	tracker, err := stats.Load(cfg.Stats.Path, stats.WithMaxRecords(cfg.Stats.MaxRecords))
	if err != nil {
		return err
	}
	log.Info().Str("path", cfg.Stats.Path).Int("records", len(tracker.Records())).Msg("Loaded statistics")

	manager, err := newDisplayManager(cfg)
	if err != nil {
		return err
	}
	if err := manager.Refresh(); err != nil {
		log.Warn().Err(err).Msg("Using fallback display geometry")
	}

	pipeline := newPipeline(cfg)
	server := dbus.NewServer(pipeline, tracker, manager,
		dbus.WithRateLimit(cfg.Server.RateLimit, cfg.Server.Burst),
		dbus.WithSampleInterval(cfg.Sampling.Interval.Duration),
		dbus.WithDetector(theme.NewDetector(pipeline.Luminance())),
	)
	saver := &statsSaver{tracker: tracker}
	server.SetSampleHandler(func(string, stats.Summary) { saver.MarkDirty() })
	manager.SetChangeHandler(func(info display.Info) { server.EmitDisplayChanged(info.Geometry) })

	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start D-Bus server: %w", err)
	}

	monitor := udev.NewMonitor(createHotplugHandler(manager))
	monitor.SetRecoveryHandler(createRecoveryHandler(manager))
	if err := monitor.Start(); err != nil {
		log.Error().Err(err).Msg("Failed to start udev monitor (hot-plug detection disabled)")
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		saver.Run(ctx, statsFlushInterval)
	}()
	go func() {
		defer wg.Done()
		err := config.Watch(ctx, configPath, func(cfg config.Config) {
			if err := applyConfig(cfg, manager, server); err != nil {
				log.Error().Err(err).Msg("Failed to apply config")
			}
		})
		if err != nil {
			log.Warn().Err(err).Msg("Config reload disabled")
		}
	}()

	log.Info().Msg("Daemon running, press Ctrl+C to stop")
	<-ctx.Done()

	log.Info().Msg("Shutting down...")
	if err := monitor.Stop(); err != nil {
		log.Error().Err(err).Msg("Failed to stop udev monitor")
	}
	if err := server.Stop(); err != nil {
		log.Error().Err(err).Msg("Failed to stop D-Bus server")
	}
	wg.Wait()

	log.Info().Msg("Daemon stopped")
	return nil
}

func newPipeline(cfg config.Config) *estimate.Pipeline {
	// #nosec G115 -- grid size is validated to be positive
	return estimate.New(estimate.WithSampler(sample.NewSampler(sample.WithGridSize(uint(cfg.Sampling.GridSize)))))
}

func newDisplayManager(cfg config.Config, opts ...display.ManagerOption) (*display.Manager, error) {
	tech, err := cfg.Display.Technology()
	if err != nil {
		return nil, err
	}
	opts = append([]display.ManagerOption{
		display.WithOverride(cfg.Display.Geometry()),
		display.WithConnector(cfg.Display.Connector),
		display.WithTech(tech),
	}, opts...)
	return display.NewManager(opts...), nil
}

// applyConfig applies the settings that can change without a restart.
func applyConfig(cfg config.Config, manager *display.Manager, server *dbus.Server) error {
	tech, err := cfg.Display.Technology()
	if err != nil {
		return err
	}
	manager.SetTech(tech)
	server.SetSampleInterval(cfg.Sampling.Interval.Duration)

	refreshMu.Lock()
	defer refreshMu.Unlock()
	if err := manager.SetOverride(cfg.Display.Geometry(), cfg.Display.Connector); err != nil {
		log.Warn().Err(err).Msg("Using fallback display geometry")
	}
	return nil
}

// statsSaver persists the tracker when samples were recorded since the last flush.
type statsSaver struct {
	tracker *stats.Tracker
	dirty   atomic.Bool
}

// MarkDirty schedules a save on the next flush.
func (s *statsSaver) MarkDirty() {
	s.dirty.Store(true)
}

// Flush saves the tracker if it changed.
func (s *statsSaver) Flush() {
	if !s.dirty.Swap(false) {
		return
	}
	if err := s.tracker.Save(); err != nil {
		s.dirty.Store(true)
		log.Error().Err(err).Msg("Failed to save statistics")
	}
}

// Run flushes every interval and once more when ctx is cancelled.
func (s *statsSaver) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Flush()
			return
		case <-ticker.C:
			s.Flush()
		}
	}
}

// refreshMu serializes display refresh operations to prevent race conditions
// between hotplug handlers, recovery handlers and config reloads.
var refreshMu sync.Mutex

// refreshWithRetry attempts a refresh with linear backoff.
// It retries up to maxRetries times with increasing delays between attempts.
func refreshWithRetry(refresh func() error, maxRetries int, backoff time.Duration) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * backoff
			log.Debug().
				Int("attempt", attempt).
				Dur("backoff", delay).
				Msg("Retrying display refresh")
			time.Sleep(delay)
		}

		if err := refresh(); err != nil {
			lastErr = err
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Int("maxRetries", maxRetries+1).
				Msg("Display refresh failed")
			continue
		}

		if attempt > 0 {
			log.Info().Int("attempts", attempt+1).Msg("Display refresh succeeded after retry")
		}
		return nil
	}
	return lastErr
}

// createHotplugHandler returns an event handler that re-probes the display.
// The manager emits DisplayChanged through its change handler.
func createHotplugHandler(manager *display.Manager) udev.EventHandler {
	return func(event udev.Event) {
		refreshMu.Lock()
		defer refreshMu.Unlock()

		// Connectors report connected before their EDID is readable
		if event.Type != udev.EventRemove {
			time.Sleep(hotplugSettleDelay)
		}

		if err := refreshWithRetry(manager.Refresh, refreshRetries, refreshBackoff); err != nil {
			log.Error().Err(err).Str("event", event.Type.String()).Msg("Failed to refresh display after hot-plug event (all retries exhausted)")
		}
	}
}

// createRecoveryHandler returns a handler for netlink buffer overflow recovery.
func createRecoveryHandler(manager *display.Manager) udev.RecoveryHandler {
	return func() {
		refreshMu.Lock()
		defer refreshMu.Unlock()

		log.Info().Msg("Performing recovery refresh after netlink buffer overflow")
		if err := refreshWithRetry(manager.Refresh, refreshRetries, refreshBackoff); err != nil {
			log.Error().Err(err).Msg("Recovery refresh failed (all retries exhausted)")
			return
		}
		log.Info().Str("source", string(manager.Info().Source)).Msg("Recovery refresh completed")
	}
}
