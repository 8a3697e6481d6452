package dbus

//go:generate mockgen -source=interfaces.go -destination=mocks/interfaces_mock.go -package=mocks

import (
	"time"

	"github.com/shini4i/darkwatt-daemon/internal/energy"
	"github.com/shini4i/darkwatt-daemon/internal/estimate"
	"github.com/shini4i/darkwatt-daemon/internal/pixel"
	"github.com/shini4i/darkwatt-daemon/internal/stats"
)

// Analyzer measures pixel buffers and estimates savings.
// This allows for mocking in tests.
type Analyzer interface {
	// Sample decodes a data URI into an RGBA8 pixel buffer.
	Sample(uri string) (pixel.Buffer, error)

	// RelativeLuminance returns the relative luminance of buf in [0, 1].
	RelativeLuminance(buf pixel.Buffer) (float64, error)

	// AbsoluteLuminance returns the brightness of buf in nits.
	AbsoluteLuminance(buf pixel.Buffer) (float64, error)

	// DarkMode returns the dark-mode rendition of buf.
	DarkMode(buf pixel.Buffer) (pixel.Buffer, error)

	// EnergySaved returns the watt-hours saved by a brightness drop of deltaNits.
	EnergySaved(geom energy.Geometry, tech energy.Tech, hours, deltaNits float64) (float64, error)

	// Analyze measures buf before and after dark mode.
	Analyze(buf pixel.Buffer, geom energy.Geometry, tech energy.Tech, hours float64) (estimate.Result, error)

	// AverageNitsFromDataURI returns the brightness of an image, or 0 if it cannot be decoded.
	AverageNitsFromDataURI(uri string) float64

	// SavedEnergyMWhFromDataURI returns the milliwatt-hours dark mode would save, or 0 on failure.
	SavedEnergyMWhFromDataURI(geom energy.Geometry, hours float64, tech energy.Tech, uri string) float64
}

// StatsStore records samples and accumulated savings.
type StatsStore interface {
	RecordLuminance(nits float64, url string) stats.LuminanceRecord
	AddSavings(url string, wh float64) stats.Summary
	Summary(url string) stats.Summary
	Latest() (stats.LuminanceRecord, bool)
	AverageBetween(start, end time.Time) float64
	AverageForDate(day time.Time) float64
	TrackedSites() int
}

// GeometrySource reports the display savings are estimated for.
type GeometrySource interface {
	Geometry() energy.Geometry
	Tech() energy.Tech
}
