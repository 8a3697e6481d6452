// SPDX-License-Identifier: GPL-3.0-only

// Package dbus provides the D-Bus service for page brightness and dark-mode savings estimation.
package dbus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/shini4i/darkwatt-daemon/internal/energy"
	"github.com/shini4i/darkwatt-daemon/internal/pixel"
	"github.com/shini4i/darkwatt-daemon/internal/stats"
	"github.com/shini4i/darkwatt-daemon/internal/theme"
)

// ErrEmptyURL is returned when a sample is submitted without a page URL.
var ErrEmptyURL = errors.New("url cannot be empty")

// ErrRateLimitExceeded is returned when samples are submitted faster than the rate limit.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

const (
	// DefaultRateLimit is the maximum number of submitted samples per second.
	DefaultRateLimit = 5

	// DefaultRateBurst is the maximum burst size for submitted samples.
	DefaultRateBurst = 10

	// DefaultSampleInterval is the display time a submitted sample stands for.
	DefaultSampleInterval = time.Second
)

const (
	// ServiceName is the D-Bus service name.
	ServiceName = "io.github.shini4i.DarkWatt"

	// ObjectPath is the D-Bus object path.
	ObjectPath = "/io/github/shini4i/DarkWatt"

	// InterfaceName is the D-Bus interface name.
	InterfaceName = "io.github.shini4i.DarkWatt"
)

// IntrospectXML is the D-Bus introspection XML for the service.
const IntrospectXML = `
<node name="` + ObjectPath + `">
  <interface name="` + InterfaceName + `">
    <method name="RelativeLuminance">
      <arg name="pixels" type="ay" direction="in"/>
      <arg name="luminance" type="d" direction="out"/>
    </method>
    <method name="AbsoluteLuminance">
      <arg name="pixels" type="ay" direction="in"/>
      <arg name="nits" type="d" direction="out"/>
    </method>
    <method name="DarkMode">
      <arg name="pixels" type="ay" direction="in"/>
      <arg name="transformed" type="ay" direction="out"/>
    </method>
    <method name="EstimateSavedEnergy">
      <arg name="widthInches" type="d" direction="in"/>
      <arg name="heightInches" type="d" direction="in"/>
      <arg name="tech" type="s" direction="in"/>
      <arg name="hours" type="d" direction="in"/>
      <arg name="deltaNits" type="d" direction="in"/>
      <arg name="wattHours" type="d" direction="out"/>
    </method>
    <method name="AverageNitsFromDataURI">
      <arg name="uri" type="s" direction="in"/>
      <arg name="nits" type="d" direction="out"/>
    </method>
    <method name="EstimateSavedEnergyFromDataURI">
      <arg name="widthInches" type="d" direction="in"/>
      <arg name="heightInches" type="d" direction="in"/>
      <arg name="hours" type="d" direction="in"/>
      <arg name="tech" type="s" direction="in"/>
      <arg name="uri" type="s" direction="in"/>
      <arg name="milliwattHours" type="d" direction="out"/>
    </method>
    <method name="SubmitSample">
      <arg name="url" type="s" direction="in"/>
      <arg name="uri" type="s" direction="in"/>
      <arg name="nits" type="d" direction="out"/>
      <arg name="savedWattHours" type="d" direction="out"/>
      <arg name="theme" type="s" direction="out"/>
    </method>
    <method name="ClassifyPage">
      <arg name="background" type="s" direction="in"/>
      <arg name="colorScheme" type="s" direction="in"/>
      <arg name="theme" type="s" direction="out"/>
    </method>
    <method name="GetStats">
      <arg name="url" type="s" direction="in"/>
      <arg name="stats" type="(ddiddddd)" direction="out"/>
    </method>
    <method name="GetDisplay">
      <arg name="widthInches" type="d" direction="out"/>
      <arg name="heightInches" type="d" direction="out"/>
      <arg name="tech" type="s" direction="out"/>
    </method>
    <signal name="StatsChanged">
      <arg name="url" type="s"/>
    </signal>
    <signal name="DisplayChanged">
      <arg name="widthInches" type="d"/>
      <arg name="heightInches" type="d"/>
    </signal>
  </interface>
  ` + introspect.IntrospectDataString + `
</node>
`

// StatsInfo is the statistics snapshot returned via D-Bus.
// Serializes to D-Bus type (ddiddddd).
type StatsInfo struct {
	LatestNits       float64
	TodayAverageNits float64
	TrackedSites     int32
	CurrentSiteWh    float64
	TodayWh          float64
	WeekWh           float64
	TotalWh          float64
	WeekAverageNits  float64
}

// SampleHandler is called after a submitted sample has been recorded.
type SampleHandler func(url string, summary stats.Summary)

// Server implements the D-Bus service.
//
// Thread safety:
//   - The Analyzer, StatsStore and GeometrySource must be safe for concurrent use.
//   - The connMu mutex protects the D-Bus connection field for signal emission.
//   - The handlerMu mutex protects the sampleHandler field.
//   - The settingsMu mutex protects the sample interval, which is updated on config reload.
type Server struct {
	conn          *dbus.Conn
	connMu        sync.RWMutex // Protects conn field only
	analyzer      Analyzer
	stats         StatsStore
	display       GeometrySource
	detector      *theme.Detector
	rateLimiter   *rate.Limiter
	settingsMu    sync.RWMutex // Protects interval
	interval      time.Duration
	now           func() time.Time
	handlerMu     sync.RWMutex // Protects sampleHandler
	sampleHandler SampleHandler
}

// Option is a functional option for configuring a Server.
type Option func(*Server)

// WithRateLimit sets the sample submission rate limit.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		s.rateLimiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithSampleInterval sets the display time each submitted sample stands for.
func WithSampleInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithDetector sets the theme detector for submitted samples.
func WithDetector(d *theme.Detector) Option {
	return func(s *Server) {
		s.detector = d
	}
}

// WithClock sets a custom time source for testing.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// NewServer creates a new D-Bus server.
func NewServer(analyzer Analyzer, store StatsStore, display GeometrySource, opts ...Option) *Server {
	s := &Server{
		analyzer:    analyzer,
		stats:       store,
		display:     display,
		detector:    theme.NewDetector(nil),
		rateLimiter: rate.NewLimiter(DefaultRateLimit, DefaultRateBurst),
		interval:    DefaultSampleInterval,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start connects to the session bus and exports the service.
func (s *Server) Start() error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	// Ensure connection is closed if setup fails
	success := false
	defer func() {
		if !success {
			if closeErr := conn.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("Failed to close D-Bus connection during cleanup")
			}
		}
	}()

	err = conn.Export(s, ObjectPath, InterfaceName)
	if err != nil {
		return fmt.Errorf("failed to export server: %w", err)
	}

	err = conn.Export(introspect.Introspectable(IntrospectXML), ObjectPath, "org.freedesktop.DBus.Introspectable")
	if err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(ServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("name %s already taken", ServiceName)
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	success = true
	log.Info().Str("service", ServiceName).Msg("D-Bus service started")
	return nil
}

// Stop disconnects from the session bus.
func (s *Server) Stop() error {
	s.connMu.Lock()
	conn := s.conn
	s.conn = nil
	s.connMu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

// SetSampleHandler sets the callback invoked after each recorded sample.
// This is typically used to schedule persisting the statistics.
//
// This method is thread-safe and can be called at any time.
func (s *Server) SetSampleHandler(handler SampleHandler) {
	s.handlerMu.Lock()
	defer s.handlerMu.Unlock()
	s.sampleHandler = handler
}

// SetSampleInterval replaces the display time each submitted sample stands for.
func (s *Server) SetSampleInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	s.interval = d
}

func (s *Server) sampleHours() float64 {
	s.settingsMu.RLock()
	defer s.settingsMu.RUnlock()
	return s.interval.Hours()
}

// RelativeLuminance returns the relative luminance of an RGBA8 pixel buffer.
func (s *Server) RelativeLuminance(pixels []byte) (float64, *dbus.Error) {
	rel, err := s.analyzer.RelativeLuminance(pixel.Buffer(pixels))
	if err != nil {
		log.Debug().Err(err).Int("len", len(pixels)).Msg("Rejected pixel buffer")
		return 0, dbus.MakeFailedError(err)
	}
	return rel, nil
}

// AbsoluteLuminance returns the brightness of an RGBA8 pixel buffer in nits.
func (s *Server) AbsoluteLuminance(pixels []byte) (float64, *dbus.Error) {
	nits, err := s.analyzer.AbsoluteLuminance(pixel.Buffer(pixels))
	if err != nil {
		log.Debug().Err(err).Int("len", len(pixels)).Msg("Rejected pixel buffer")
		return 0, dbus.MakeFailedError(err)
	}
	return nits, nil
}

// DarkMode returns the dark-mode rendition of an RGBA8 pixel buffer.
func (s *Server) DarkMode(pixels []byte) ([]byte, *dbus.Error) {
	out, err := s.analyzer.DarkMode(pixel.Buffer(pixels))
	if err != nil {
		log.Debug().Err(err).Int("len", len(pixels)).Msg("Rejected pixel buffer")
		return nil, dbus.MakeFailedError(err)
	}
	return out, nil
}

// EstimateSavedEnergy returns the watt-hours saved on a display of the given size.
func (s *Server) EstimateSavedEnergy(width, height float64, tech string, hours, deltaNits float64) (float64, *dbus.Error) {
	t, err := energy.ParseTech(tech)
	if err != nil {
		return 0, dbus.MakeFailedError(err)
	}

	wh, err := s.analyzer.EnergySaved(energy.Geometry{WidthInches: width, HeightInches: height}, t, hours, deltaNits)
	if err != nil {
		return 0, dbus.MakeFailedError(err)
	}
	return wh, nil
}

// AverageNitsFromDataURI returns the brightness of an image, or 0 if it cannot be decoded.
func (s *Server) AverageNitsFromDataURI(uri string) (float64, *dbus.Error) {
	return s.analyzer.AverageNitsFromDataURI(uri), nil
}

// EstimateSavedEnergyFromDataURI returns the milliwatt-hours dark mode would save, or 0 on failure.
func (s *Server) EstimateSavedEnergyFromDataURI(width, height, hours float64, tech, uri string) (float64, *dbus.Error) {
	t, err := energy.ParseTech(tech)
	if err != nil {
		log.Warn().Err(err).Str("tech", tech).Msg("Substituting zero savings")
		return 0, nil
	}
	return s.analyzer.SavedEnergyMWhFromDataURI(energy.Geometry{WidthInches: width, HeightInches: height}, hours, t, uri), nil
}

// SubmitSample measures a captured page, records its brightness and the energy
// dark mode would have saved during one sample interval.
func (s *Server) SubmitSample(url, uri string) (float64, float64, string, *dbus.Error) {
	if !s.rateLimiter.Allow() {
		log.Warn().Msg("Rate limit exceeded for SubmitSample")
		return 0, 0, "", dbus.MakeFailedError(ErrRateLimitExceeded)
	}

	if url == "" {
		return 0, 0, "", dbus.MakeFailedError(ErrEmptyURL)
	}

	buf, err := s.analyzer.Sample(uri)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("Skipped sample")
		return 0, 0, "", dbus.MakeFailedError(err)
	}

	result, err := s.analyzer.Analyze(buf, s.display.Geometry(), s.display.Tech(), s.sampleHours())
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("Failed to analyze sample")
		return 0, 0, "", dbus.MakeFailedError(err)
	}

	pageTheme, err := s.detector.Buffer(buf)
	if err != nil {
		return 0, 0, "", dbus.MakeFailedError(err)
	}

	s.stats.RecordLuminance(result.BeforeNits, url)
	summary := s.stats.AddSavings(url, result.EnergyWh)

	log.Debug().
		Str("url", url).
		Float64("nits", result.BeforeNits).
		Float64("savedWh", result.EnergyWh).
		Str("theme", string(pageTheme)).
		Msg("Recorded sample")

	s.handlerMu.RLock()
	handler := s.sampleHandler
	s.handlerMu.RUnlock()
	if handler != nil {
		handler(url, summary)
	}

	s.emitStatsChanged(url)
	return result.BeforeNits, result.EnergyWh, string(pageTheme), nil
}

// ClassifyPage returns "dark" or "light" for a page from its computed CSS
// background colour and color-scheme value.
func (s *Server) ClassifyPage(background, colorScheme string) (string, *dbus.Error) {
	return string(theme.ClassifyPage(background, colorScheme)), nil
}

// GetStats returns the statistics snapshot, with per-site savings for url.
func (s *Server) GetStats(url string) (StatsInfo, *dbus.Error) {
	now := s.now()
	summary := s.stats.Summary(url)

	var latest float64
	if rec, ok := s.stats.Latest(); ok {
		latest = rec.Luminance
	}

	sites := s.stats.TrackedSites()
	// #nosec G115 -- site count is bounded by the record cap
	return StatsInfo{
		LatestNits:       latest,
		TodayAverageNits: s.stats.AverageForDate(now),
		TrackedSites:     int32(sites),
		CurrentSiteWh:    summary.CurrentSite,
		TodayWh:          summary.Today,
		WeekWh:           summary.Week,
		TotalWh:          summary.Total,
		WeekAverageNits:  s.stats.AverageBetween(now.AddDate(0, 0, -7), now),
	}, nil
}

// GetDisplay returns the size and technology of the display savings are estimated for.
func (s *Server) GetDisplay() (float64, float64, string, *dbus.Error) {
	g := s.display.Geometry()
	return g.WidthInches, g.HeightInches, s.display.Tech().String(), nil
}

// emitStatsChanged emits the StatsChanged signal.
func (s *Server) emitStatsChanged(url string) {
	s.connMu.RLock()
	conn := s.conn
	s.connMu.RUnlock()

	if conn == nil {
		return
	}

	err := conn.Emit(ObjectPath, InterfaceName+".StatsChanged", url)
	if err != nil {
		log.Error().Err(err).Msg("Failed to emit StatsChanged signal")
	}
}

// EmitDisplayChanged emits the DisplayChanged signal.
func (s *Server) EmitDisplayChanged(g energy.Geometry) {
	s.connMu.RLock()
	conn := s.conn
	s.connMu.RUnlock()

	if conn == nil {
		return
	}

	err := conn.Emit(ObjectPath, InterfaceName+".DisplayChanged", g.WidthInches, g.HeightInches)
	if err != nil {
		log.Error().Err(err).Msg("Failed to emit DisplayChanged signal")
	}
	log.Info().Float64("width", g.WidthInches).Float64("height", g.HeightInches).Msg("Display changed")
}
