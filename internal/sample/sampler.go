package sample

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	// Registered decoders for captured screenshots.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/h2non/filetype"
	"github.com/nfnt/resize"

	"github.com/shini4i/darkwatt-daemon/internal/pixel"
)

// DefaultGridSize is the side length of the square sample grid.
const DefaultGridSize = 16

// maxPayloadSize bounds how much encoded image data is accepted.
const maxPayloadSize = 64 << 20 // 64 MB

// Sampler decodes images and downsamples them to a size×size grid.
type Sampler struct {
	size   uint
	interp resize.InterpolationFunction
}

// Option is a functional option for configuring a Sampler.
type Option func(*Sampler)

// WithGridSize sets the side length of the sample grid. Zero keeps the default.
func WithGridSize(size uint) Option {
	return func(s *Sampler) {
		if size > 0 {
			s.size = size
		}
	}
}

// WithInterpolation sets the resampling filter.
func WithInterpolation(interp resize.InterpolationFunction) Option {
	return func(s *Sampler) {
		s.interp = interp
	}
}

// NewSampler creates a Sampler producing a DefaultGridSize grid with bilinear resampling.
func NewSampler(opts ...Option) *Sampler {
	s := &Sampler{
		size:   DefaultGridSize,
		interp: resize.Bilinear,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GridSize returns the side length of the sample grid.
func (s *Sampler) GridSize() uint {
	return s.size
}

// FromDataURI decodes an image data URI into a sample buffer.
func (s *Sampler) FromDataURI(uri string) (pixel.Buffer, error) {
	_, data, err := ParseDataURI(uri)
	if err != nil {
		return nil, err
	}
	return s.FromBytes(data)
}

// FromReader decodes an encoded image read from r into a sample buffer.
func (s *Sampler) FromReader(r io.Reader) (pixel.Buffer, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxPayloadSize+1))
	if err != nil {
		return nil, &DecodeError{Op: "read image", Err: err}
	}
	return s.FromBytes(data)
}

// FromBytes decodes an encoded image into a sample buffer.
func (s *Sampler) FromBytes(data []byte) (pixel.Buffer, error) {
	img, err := s.Decode(data)
	if err != nil {
		return nil, err
	}
	return s.FromImage(img), nil
}

// Decode sniffs and decodes an encoded image without resampling it.
func (s *Sampler) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Op: "sniff image", Err: errors.New("empty payload")}
	}
	if len(data) > maxPayloadSize {
		return nil, &DecodeError{Op: "sniff image", Err: fmt.Errorf("payload exceeds %d bytes", maxPayloadSize)}
	}

	kind, err := filetype.Match(data)
	if err != nil {
		return nil, &DecodeError{Op: "sniff image", Err: err}
	}
	if kind == filetype.Unknown || !filetype.IsImage(data) {
		return nil, &DecodeError{Op: "sniff image", Err: fmt.Errorf("unsupported payload type %q", kind.MIME.Value)}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Op: "decode " + kind.Extension, Err: err}
	}
	return img, nil
}

// FromImage downsamples img to the sample grid as straight-alpha RGBA8.
func (s *Sampler) FromImage(img image.Image) pixel.Buffer {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return make(pixel.Buffer, 0)
	}
	if uint(b.Dx()) == s.size && uint(b.Dy()) == s.size {
		return pixel.FromImage(img)
	}
	return pixel.FromImage(resize.Resize(s.size, s.size, img, s.interp))
}
