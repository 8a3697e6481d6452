// SPDX-License-Identifier: GPL-3.0-only

// Package estimate ties the luminance, dark-mode and energy estimators into a
// single before/after pipeline.
package estimate

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/shini4i/darkwatt-daemon/internal/brightness"
	"github.com/shini4i/darkwatt-daemon/internal/darkmode"
	"github.com/shini4i/darkwatt-daemon/internal/energy"
	"github.com/shini4i/darkwatt-daemon/internal/pixel"
	"github.com/shini4i/darkwatt-daemon/internal/sample"
)

// Result is the outcome of analyzing one pixel buffer.
type Result struct {
	// Relative is the relative luminance of the original buffer.
	Relative float64
	// BeforeNits is the brightness of the original buffer.
	BeforeNits float64
	// AfterNits is the brightness of its dark-mode rendition.
	AfterNits float64
	// DeltaNits is BeforeNits-AfterNits, floored at zero.
	DeltaNits float64
	// PowerW is the power saved while the dark rendition is shown.
	PowerW float64
	// EnergyWh is PowerW accumulated over the requested hours.
	EnergyWh float64
}

// Pipeline runs the before/after estimation. It is safe for concurrent use.
type Pipeline struct {
	luminance *brightness.Estimator
	darkmode  *darkmode.Transformer
	energy    *energy.Estimator
	sampler   *sample.Sampler
	workers   int
}

// Option is a functional option for configuring a Pipeline.
type Option func(*Pipeline)

// WithLuminance sets the luminance estimator.
func WithLuminance(e *brightness.Estimator) Option {
	return func(p *Pipeline) {
		p.luminance = e
	}
}

// WithDarkMode sets the dark-mode transformer.
func WithDarkMode(t *darkmode.Transformer) Option {
	return func(p *Pipeline) {
		p.darkmode = t
	}
}

// WithEnergy sets the energy estimator.
func WithEnergy(e *energy.Estimator) Option {
	return func(p *Pipeline) {
		p.energy = e
	}
}

// WithSampler sets the image sampler used by the data URI entry points.
func WithSampler(s *sample.Sampler) Option {
	return func(p *Pipeline) {
		p.sampler = s
	}
}

// WithWorkers bounds the number of buffers analyzed concurrently by AnalyzeAll.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// New creates a Pipeline with default components.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		luminance: brightness.NewEstimator(),
		darkmode:  darkmode.NewTransformer(),
		energy:    energy.NewEstimator(),
		sampler:   sample.NewSampler(),
		workers:   runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Sampler returns the image sampler.
func (p *Pipeline) Sampler() *sample.Sampler {
	return p.sampler
}

// Sample decodes a data URI into the sampling grid.
func (p *Pipeline) Sample(uri string) (pixel.Buffer, error) {
	return p.sampler.FromDataURI(uri)
}

// Luminance returns the luminance estimator.
func (p *Pipeline) Luminance() *brightness.Estimator {
	return p.luminance
}

// RelativeLuminance returns the relative luminance of buf.
func (p *Pipeline) RelativeLuminance(buf pixel.Buffer) (float64, error) {
	return p.luminance.Relative(buf)
}

// AbsoluteLuminance returns the brightness of buf in nits.
func (p *Pipeline) AbsoluteLuminance(buf pixel.Buffer) (float64, error) {
	return p.luminance.BufferNits(buf)
}

// DarkMode returns the dark-mode rendition of buf.
func (p *Pipeline) DarkMode(buf pixel.Buffer) (pixel.Buffer, error) {
	return p.darkmode.Transform(buf)
}

// EnergySaved returns the watt-hours saved by a brightness drop of deltaNits.
func (p *Pipeline) EnergySaved(geom energy.Geometry, tech energy.Tech, hours, deltaNits float64) (float64, error) {
	return p.energy.EnergySaved(geom, tech, hours, deltaNits)
}

// Analyze measures buf before and after the dark-mode transform and estimates the energy saved.
func (p *Pipeline) Analyze(buf pixel.Buffer, geom energy.Geometry, tech energy.Tech, hours float64) (Result, error) {
	relative, err := p.luminance.Relative(buf)
	if err != nil {
		return Result{}, fmt.Errorf("failed to measure luminance: %w", err)
	}

	dark, err := p.darkmode.Transform(buf)
	if err != nil {
		return Result{}, fmt.Errorf("failed to apply dark mode: %w", err)
	}

	darkRelative, err := p.luminance.Relative(dark)
	if err != nil {
		return Result{}, fmt.Errorf("failed to measure dark-mode luminance: %w", err)
	}

	res := Result{
		Relative:   relative,
		BeforeNits: p.luminance.Nits(relative),
		AfterNits:  p.luminance.Nits(darkRelative),
	}
	res.DeltaNits = energy.Delta(res.BeforeNits, res.AfterNits)

	if res.PowerW, err = p.energy.PowerSaved(geom, tech, res.DeltaNits); err != nil {
		return Result{}, fmt.Errorf("failed to estimate power: %w", err)
	}
	if res.EnergyWh, err = p.energy.EnergySaved(geom, tech, hours, res.DeltaNits); err != nil {
		return Result{}, fmt.Errorf("failed to estimate energy: %w", err)
	}
	return res, nil
}

// AnalyzeDataURI decodes an image data URI and analyzes its sample grid.
func (p *Pipeline) AnalyzeDataURI(uri string, geom energy.Geometry, tech energy.Tech, hours float64) (Result, error) {
	buf, err := p.sampler.FromDataURI(uri)
	if err != nil {
		return Result{}, err
	}
	return p.Analyze(buf, geom, tech, hours)
}

// AnalyzeAll analyzes independent buffers in parallel. Results are returned in
// input order; the first failure cancels the remaining work.
func (p *Pipeline) AnalyzeAll(ctx context.Context, bufs []pixel.Buffer, geom energy.Geometry, tech energy.Tech, hours float64) ([]Result, error) {
	results := make([]Result, len(bufs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, buf := range bufs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := p.Analyze(buf, geom, tech, hours)
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
