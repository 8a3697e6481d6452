// SPDX-License-Identifier: GPL-3.0-only

// Package transfer implements the piecewise sRGB transfer function on normalized [0,1] values.
package transfer

import "math"

// Params defines one direction of a piecewise gamma curve.
//
// Decoding (encoded -> linear) is e/Slope below Cutoff and ((e+Offset)/Scale)^Gamma above it.
// Encoding (linear -> encoded) is y*Slope below Cutoff and Scale*y^(1/Gamma)-Offset above it.
type Params struct {
	Cutoff float64
	Slope  float64
	Offset float64
	Scale  float64
	Gamma  float64
}

// SRGBDecode holds the canonical sRGB constants for the encoded -> linear direction.
var SRGBDecode = Params{Cutoff: 0.04045, Slope: 12.92, Offset: 0.055, Scale: 1.055, Gamma: 2.4}

// Curve is a pair of parameter sets that are algebraic inverses of each other.
type Curve struct {
	Decode Params
	Encode Params
}

// SRGB is the standard sRGB curve.
var SRGB = NewCurve(SRGBDecode)

// NewCurve builds a Curve from the decode parameters. The encode cutoff is the
// decode cutoff mapped through the linear segment, so both pieces meet at the
// same point in either direction.
func NewCurve(decode Params) Curve {
	encode := decode
	encode.Cutoff = decode.Cutoff / decode.Slope
	return Curve{Decode: decode, Encode: encode}
}

// ToLinear converts an encoded value to linear light.
func (c Curve) ToLinear(e float64) float64 {
	p := c.Decode
	if e <= p.Cutoff {
		return e / p.Slope
	}
	return math.Pow((e+p.Offset)/p.Scale, p.Gamma)
}

// ToEncoded converts a linear value to its encoded form.
func (c Curve) ToEncoded(y float64) float64 {
	p := c.Encode
	if y <= p.Cutoff {
		return y * p.Slope
	}
	return p.Scale*math.Pow(y, 1/p.Gamma) - p.Offset
}

// Table returns ToLinear(i/255) for every 8-bit channel value i.
func (c Curve) Table() *[256]float64 {
	var t [256]float64
	for i := range t {
		t[i] = c.ToLinear(float64(i) / 255)
	}
	return &t
}
