// SPDX-License-Identifier: GPL-3.0-only

// Package energy converts a drop in screen brightness into electrical power and
// energy saved on a physical display.
package energy

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// MetersPerInch converts display dimensions given in inches to meters.
const MetersPerInch = 0.0254

// ErrUnknownTech is returned for a display technology without an efficacy constant.
var ErrUnknownTech = errors.New("unknown display technology")

// Tech is the panel technology of a display.
type Tech int

const (
	// LCD is a backlit liquid-crystal panel.
	LCD Tech = iota
	// OLED is a self-emissive panel.
	OLED
)

// String returns the lowercase name of the technology.
func (t Tech) String() string {
	switch t {
	case LCD:
		return "lcd"
	case OLED:
		return "oled"
	default:
		return fmt.Sprintf("tech(%d)", int(t))
	}
}

// ParseTech parses a technology name, case-insensitively.
func ParseTech(s string) (Tech, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lcd":
		return LCD, nil
	case "oled":
		return OLED, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownTech, s)
	}
}

// DefaultEfficacy is the luminous efficacy in lumens per watt for each technology.
var DefaultEfficacy = map[Tech]float64{
	LCD:  6.0,
	OLED: 2.5,
}

// Geometry is the physical size of the visible panel area in inches.
type Geometry struct {
	WidthInches  float64
	HeightInches float64
}

// AreaMeters returns the panel area in square meters. Negative and non-finite
// dimensions are treated as zero.
func (g Geometry) AreaMeters() float64 {
	return nonNegative(nonNegative(g.WidthInches*MetersPerInch) * nonNegative(g.HeightInches*MetersPerInch))
}

// Estimator converts brightness deltas into power and energy.
type Estimator struct {
	efficacy map[Tech]float64
}

// Option is a functional option for configuring an Estimator.
type Option func(*Estimator)

// WithEfficacy overrides the luminous efficacy of one technology.
func WithEfficacy(tech Tech, lumensPerWatt float64) Option {
	return func(e *Estimator) {
		e.efficacy[tech] = lumensPerWatt
	}
}

// NewEstimator creates an Estimator with DefaultEfficacy.
func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{efficacy: make(map[Tech]float64, len(DefaultEfficacy))}
	for tech, v := range DefaultEfficacy {
		e.efficacy[tech] = v
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Efficacy returns the lumens per watt for tech.
func (e *Estimator) Efficacy(tech Tech) (float64, error) {
	v, ok := e.efficacy[tech]
	if !ok || v <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTech, tech)
	}
	return v, nil
}

// PowerSaved returns the power in watts no longer spent when the panel emits
// deltaNits less, treating it as a Lambertian emitter (flux = π·L·A).
func (e *Estimator) PowerSaved(g Geometry, tech Tech, deltaNits float64) (float64, error) {
	efficacy, err := e.Efficacy(tech)
	if err != nil {
		return 0, err
	}
	lumens := math.Pi * nonNegative(deltaNits) * g.AreaMeters()
	return nonNegative(lumens / efficacy), nil
}

// EnergySaved returns the energy in watt-hours saved over the given number of hours.
func (e *Estimator) EnergySaved(g Geometry, tech Tech, hours, deltaNits float64) (float64, error) {
	watts, err := e.PowerSaved(g, tech, deltaNits)
	if err != nil {
		return 0, err
	}
	return nonNegative(watts * nonNegative(hours)), nil
}

// Delta returns before-after, floored at zero so that a darker rendition is
// never modeled as increasing consumption.
func Delta(before, after float64) float64 {
	return nonNegative(before - after)
}

// ToMilliwattHours converts watt-hours to milliwatt-hours.
func ToMilliwattHours(wh float64) float64 {
	return wh * 1000
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
