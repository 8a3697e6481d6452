// SPDX-License-Identifier: GPL-3.0-only

// Package brightness estimates how bright a pixel buffer appears on screen,
// both as relative luminance and as absolute brightness in nits.
package brightness

import (
	"math"

	"github.com/shini4i/darkwatt-daemon/internal/pixel"
	"github.com/shini4i/darkwatt-daemon/internal/transfer"
)

// PeakLuminance is the reference peak brightness of a display in nits.
const PeakLuminance = 250.0

// Estimator computes relative and absolute luminance. It holds only immutable
// configuration and is safe for concurrent use.
type Estimator struct {
	weights pixel.Weights
	curve   transfer.Curve
	peak    float64
}

// Option is a functional option for configuring an Estimator.
type Option func(*Estimator)

// WithWeights sets the luma coefficients.
func WithWeights(w pixel.Weights) Option {
	return func(e *Estimator) {
		e.weights = w
	}
}

// WithCurve sets the transfer curve used to linearize the aggregate luminance.
func WithCurve(c transfer.Curve) Option {
	return func(e *Estimator) {
		e.curve = c
	}
}

// WithPeakLuminance sets the brightness in nits that relative luminance 1.0 maps to.
func WithPeakLuminance(nits float64) Option {
	return func(e *Estimator) {
		e.peak = nits
	}
}

// NewEstimator creates an Estimator with BT.709 weights, the sRGB curve and PeakLuminance.
func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{
		weights: pixel.BT709,
		curve:   transfer.SRGB,
		peak:    PeakLuminance,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Peak returns the configured peak luminance in nits.
func (e *Estimator) Peak() float64 {
	return e.peak
}

// Nits converts a relative luminance to absolute brightness.
// The aggregate is linearized as a single encoded value, after averaging.
func (e *Estimator) Nits(relative float64) float64 {
	return e.curve.ToLinear(clamp01(relative)) * e.peak
}

// BufferNits returns the absolute brightness of a pixel buffer.
func (e *Estimator) BufferNits(buf pixel.Buffer) (float64, error) {
	relative, err := e.Relative(buf)
	if err != nil {
		return 0, err
	}
	return e.Nits(relative), nil
}

// Percent converts a brightness in nits to a percentage (0-100) of the peak.
// Values outside the valid range are clamped before conversion.
func (e *Estimator) Percent(nits float64) uint8 {
	if e.peak <= 0 {
		return 0
	}
	return uint8(math.Round(clamp01(nits/e.peak) * 100))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
