// SPDX-License-Identifier: GPL-3.0-only

// Package darkmode renders a pixel buffer the way it would look in a dark color
// scheme, by inverting perceived brightness while keeping channel ratios.
package darkmode

import (
	"image"
	"image/draw"

	"github.com/shini4i/darkwatt-daemon/internal/pixel"
	"github.com/shini4i/darkwatt-daemon/internal/transfer"
)

const (
	// TransparencyThreshold is the normalized alpha below which a pixel is copied unchanged.
	TransparencyThreshold = 0.01

	// BlackThreshold is the linear luma below which a pixel becomes white.
	BlackThreshold = 0.05
)

// Transformer applies the dark-mode inversion. It holds only immutable
// configuration and is safe for concurrent use.
type Transformer struct {
	weights pixel.Weights
	curve   transfer.Curve
	decode  *[256]float64
}

// Option is a functional option for configuring a Transformer.
type Option func(*Transformer)

// WithWeights sets the luma coefficients used to measure linear brightness.
func WithWeights(w pixel.Weights) Option {
	return func(t *Transformer) {
		t.weights = w
	}
}

// WithCurve sets the transfer curve used to move between encoded and linear space.
func WithCurve(c transfer.Curve) Option {
	return func(t *Transformer) {
		t.curve = c
	}
}

// NewTransformer creates a Transformer with BT.709 weights and the sRGB curve.
func NewTransformer(opts ...Option) *Transformer {
	t := &Transformer{
		weights: pixel.BT709,
		curve:   transfer.SRGB,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.decode = t.curve.Table()
	return t
}

// Transform returns a new buffer of the same length holding the dark-mode rendition of buf.
func (t *Transformer) Transform(buf pixel.Buffer) (pixel.Buffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	out := make(pixel.Buffer, len(buf))
	for i, n := 0, buf.Pixels(); i < n; i++ {
		out.Set(i, t.Pixel(buf.At(i)))
	}
	return out, nil
}

// Pixel transforms a single pixel sample. Alpha is always preserved.
func (t *Transformer) Pixel(p pixel.RGBA) pixel.RGBA {
	if float64(p.A)/255 < TransparencyThreshold {
		return p
	}

	r := t.decode[p.R]
	g := t.decode[p.G]
	b := t.decode[p.B]

	luma := t.weights.Luma(r, g, b)
	if luma < BlackThreshold {
		r, g, b = 1, 1, 1
	} else {
		scale := 1.0
		if luma > 0 {
			scale = (1 - luma) / luma
		}
		r = clamp01(r * scale)
		g = clamp01(g * scale)
		b = clamp01(b * scale)
	}

	return pixel.RGBA{
		R: pixel.Clamp8(t.curve.ToEncoded(r)),
		G: pixel.Clamp8(t.curve.ToEncoded(g)),
		B: pixel.Clamp8(t.curve.ToEncoded(b)),
		A: p.A,
	}
}

// Image returns the dark-mode rendition of img as a straight-alpha image.
func (t *Transformer) Image(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Rect, img, b.Min, draw.Src)

	buf := pixel.Buffer(out.Pix)
	for i, n := 0, buf.Pixels(); i < n; i++ {
		buf.Set(i, t.Pixel(buf.At(i)))
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
