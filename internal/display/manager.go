// SPDX-License-Identifier: GPL-3.0-only

package display

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/shini4i/darkwatt-daemon/internal/energy"
)

// DefaultFallback is assumed when no size is configured or probed: a 1920x1080 screen at 96 DPI.
var DefaultFallback = FromPixels(1920, 1080, 1)

// ProbeFunc looks up the size of a connected display.
type ProbeFunc func(connector string) (Info, error)

// ChangeHandler is called after the current display changed.
type ChangeHandler func(info Info)

// Manager tracks the display savings are estimated for.
// All methods are thread-safe and can be called concurrently.
type Manager struct {
	mu        sync.RWMutex
	current   Info
	override  energy.Geometry
	fallback  energy.Geometry
	connector string
	tech      energy.Tech
	probe     ProbeFunc

	handlerMu sync.RWMutex // Protects onChange
	onChange  ChangeHandler
}

// ManagerOption is a functional option for configuring a Manager.
type ManagerOption func(*Manager)

// WithProbe sets a custom probe for testing.
func WithProbe(fn ProbeFunc) ManagerOption {
	return func(m *Manager) {
		m.probe = fn
	}
}

// WithOverride sets a configured size that takes precedence over probing.
func WithOverride(g energy.Geometry) ManagerOption {
	return func(m *Manager) {
		m.override = g
	}
}

// WithConnector restricts probing to one connector.
func WithConnector(name string) ManagerOption {
	return func(m *Manager) {
		m.connector = name
	}
}

// WithTech sets the panel technology of the display.
func WithTech(tech energy.Tech) ManagerOption {
	return func(m *Manager) {
		m.tech = tech
	}
}

// WithFallback sets the size used when probing fails.
func WithFallback(g energy.Geometry) ManagerOption {
	return func(m *Manager) {
		m.fallback = g
	}
}

// NewManager creates a display manager that probes sysfs by default.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		fallback: DefaultFallback,
		probe:    NewProber("").Probe,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.current = Info{Geometry: m.fallback, Source: SourceFallback}
	return m
}

// SetChangeHandler sets the callback invoked when Refresh changes the current display.
func (m *Manager) SetChangeHandler(handler ChangeHandler) {
	m.handlerMu.Lock()
	defer m.handlerMu.Unlock()
	m.onChange = handler
}

// SetOverride replaces the configured size and connector, then refreshes.
func (m *Manager) SetOverride(g energy.Geometry, connector string) error {
	m.mu.Lock()
	m.override = g
	m.connector = connector
	m.mu.Unlock()
	return m.Refresh()
}

// Refresh re-evaluates the current display: a configured size wins, then the
// probed EDID size, then the previously known size or fallback. The returned
// error reports a failed probe; the manager stays usable either way.
func (m *Manager) Refresh() error {
	m.mu.Lock()
	prev := m.current
	var probeErr error

	switch {
	case valid(m.override):
		m.current = Info{Connector: m.connector, Geometry: m.override, Source: SourceConfig}
	default:
		info, err := m.probe(m.connector)
		if err != nil {
			probeErr = fmt.Errorf("failed to probe display: %w", err)
			if prev.Source == SourceConfig {
				m.current = Info{Geometry: m.fallback, Source: SourceFallback}
			}
			break
		}
		m.current = info
	}
	current := m.current
	m.mu.Unlock()

	if current != prev {
		log.Info().
			Str("connector", current.Connector).
			Str("source", string(current.Source)).
			Float64("width", current.Geometry.WidthInches).
			Float64("height", current.Geometry.HeightInches).
			Msg("Display geometry changed")

		m.handlerMu.RLock()
		handler := m.onChange
		m.handlerMu.RUnlock()
		if handler != nil {
			handler(current)
		}
	}
	return probeErr
}

// SetTech replaces the panel technology of the display.
func (m *Manager) SetTech(tech energy.Tech) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tech = tech
}

// Tech returns the panel technology of the display.
func (m *Manager) Tech() energy.Tech {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tech
}

// Info returns the current display.
func (m *Manager) Info() Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Geometry returns the size of the current display.
func (m *Manager) Geometry() energy.Geometry {
	return m.Info().Geometry
}

func valid(g energy.Geometry) bool {
	return g.WidthInches > 0 && g.HeightInches > 0
}
