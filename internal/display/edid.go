// SPDX-License-Identifier: GPL-3.0-only

// Package display determines the physical size of the panel that savings are estimated for.
package display

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/shini4i/darkwatt-daemon/internal/energy"
)

const (
	// CSSDPI is the nominal density of a CSS pixel.
	CSSDPI = 96

	// CentimetersPerInch converts EDID sizes to inches.
	CentimetersPerInch = 2.54

	// edidMinSize is the size of the EDID base block.
	edidMinSize = 128

	// edidWidthOffset and edidHeightOffset locate the maximum image size in centimeters.
	edidWidthOffset  = 21
	edidHeightOffset = 22
)

var edidHeader = []byte{0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00}

// ErrInvalidEDID is returned when EDID data is truncated or has a bad header.
var ErrInvalidEDID = errors.New("invalid EDID")

// ErrNoPhysicalSize is returned when the EDID does not declare a physical size (e.g., projectors).
var ErrNoPhysicalSize = errors.New("EDID does not declare a physical size")

// ParseEDIDSize returns the maximum image size declared in an EDID base block.
func ParseEDIDSize(edid []byte) (widthCM, heightCM int, err error) {
	if len(edid) < edidMinSize {
		return 0, 0, fmt.Errorf("%w: %d bytes", ErrInvalidEDID, len(edid))
	}
	if !bytes.Equal(edid[:len(edidHeader)], edidHeader) {
		return 0, 0, fmt.Errorf("%w: bad header", ErrInvalidEDID)
	}

	widthCM = int(edid[edidWidthOffset])
	heightCM = int(edid[edidHeightOffset])
	// Both zero means undefined; one zero encodes an aspect ratio instead of a size.
	if widthCM == 0 || heightCM == 0 {
		return 0, 0, ErrNoPhysicalSize
	}
	return widthCM, heightCM, nil
}

// FromCentimeters converts a size in centimeters to a Geometry.
func FromCentimeters(widthCM, heightCM int) energy.Geometry {
	return energy.Geometry{
		WidthInches:  float64(widthCM) / CentimetersPerInch,
		HeightInches: float64(heightCM) / CentimetersPerInch,
	}
}

// FromPixels estimates the physical size of a screen from its resolution,
// assuming scale device pixels per CSS pixel at CSSDPI.
func FromPixels(width, height int, scale float64) energy.Geometry {
	if scale <= 0 {
		scale = 1
	}
	return energy.Geometry{
		WidthInches:  float64(width) / scale / CSSDPI,
		HeightInches: float64(height) / scale / CSSDPI,
	}
}
