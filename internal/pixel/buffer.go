// SPDX-License-Identifier: GPL-3.0-only

// Package pixel provides the RGBA8 pixel buffer shared by the luminance,
// dark-mode and sampling packages.
package pixel

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"
)

// Channels is the number of bytes per pixel sample (R, G, B, A).
const Channels = 4

// ErrInvalidBufferLength is returned when a buffer length is not a multiple of Channels.
var ErrInvalidBufferLength = errors.New("invalid pixel buffer length")

// LengthError describes a buffer whose length is not a multiple of Channels.
// It matches ErrInvalidBufferLength with errors.Is.
type LengthError struct {
	Len int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("%s: %d bytes is not a multiple of %d", ErrInvalidBufferLength, e.Len, Channels)
}

// Unwrap returns ErrInvalidBufferLength.
func (e *LengthError) Unwrap() error {
	return ErrInvalidBufferLength
}

// RGBA is a single pixel sample with straight (non-premultiplied) alpha.
type RGBA struct {
	R, G, B, A uint8
}

// Normalized returns the channels scaled to [0,1].
func (p RGBA) Normalized() (r, g, b, a float64) {
	return float64(p.R) / 255, float64(p.G) / 255, float64(p.B) / 255, float64(p.A) / 255
}

// Buffer is an ordered sequence of RGBA8 pixel samples.
type Buffer []byte

// Validate reports a *LengthError if the buffer length is not a multiple of Channels.
func (b Buffer) Validate() error {
	if len(b)%Channels != 0 {
		return &LengthError{Len: len(b)}
	}
	return nil
}

// Pixels returns the number of pixel samples in the buffer.
func (b Buffer) Pixels() int {
	return len(b) / Channels
}

// At returns the i-th pixel sample. It panics if i is out of range.
func (b Buffer) At(i int) RGBA {
	o := i * Channels
	return RGBA{R: b[o], G: b[o+1], B: b[o+2], A: b[o+3]}
}

// Set stores p as the i-th pixel sample. It panics if i is out of range.
func (b Buffer) Set(i int, p RGBA) {
	o := i * Channels
	b[o], b[o+1], b[o+2], b[o+3] = p.R, p.G, p.B, p.A
}

// Fill returns a buffer of n copies of p.
func Fill(p RGBA, n int) Buffer {
	if n < 0 {
		n = 0
	}
	buf := make(Buffer, n*Channels)
	for i := 0; i < n; i++ {
		buf.Set(i, p)
	}
	return buf
}

// FromImage converts img into a straight-alpha buffer in row-major order.
func FromImage(img image.Image) Buffer {
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) || nrgba.Stride != nrgba.Rect.Dx()*Channels {
		b := img.Bounds()
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Rect, img, b.Min, draw.Src)
	}
	out := make(Buffer, len(nrgba.Pix))
	copy(out, nrgba.Pix)
	return out
}

// Image wraps the buffer as a width×height NRGBA image sharing the same memory.
func (b Buffer) Image(width, height int) (*image.NRGBA, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if width < 0 || height < 0 || width*height != b.Pixels() {
		return nil, fmt.Errorf("buffer of %d pixels does not fit %dx%d", b.Pixels(), width, height)
	}
	return &image.NRGBA{Pix: b, Stride: width * Channels, Rect: image.Rect(0, 0, width, height)}, nil
}

// Clamp8 converts a [0,1] value to an 8-bit channel, rounding to nearest
// and saturating outside the range. NaN maps to 0.
func Clamp8(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	s := math.Round(v * 255)
	if s <= 0 {
		return 0
	}
	if s >= 255 {
		return 255
	}
	return uint8(s)
}
