// Package theme classifies pages and CSS colours as dark or light.
package theme

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/shini4i/darkwatt-daemon/internal/brightness"
	"github.com/shini4i/darkwatt-daemon/internal/pixel"
	"github.com/shini4i/darkwatt-daemon/internal/transfer"
)

// DarkLuminanceThreshold is the linear relative luminance below which a colour or page is dark.
const DarkLuminanceThreshold = 0.2

// ErrNotAColor is returned for values that do not describe an opaque colour.
var ErrNotAColor = errors.New("not a color")

// Theme is the overall appearance of a page.
type Theme string

const (
	// Dark is a page with a dark background.
	Dark Theme = "dark"
	// Light is every other page.
	Light Theme = "light"
)

// Color is a parsed CSS colour with straight alpha in [0, 1].
type Color struct {
	colorful.Color
	Alpha float64
}

// ParseColor parses rgb(), rgba(), #rgb, #rrggbb and #rrggbbaa colours.
// "transparent" and anything else is rejected with ErrNotAColor.
func ParseColor(css string) (Color, error) {
	s := strings.ToLower(strings.TrimSpace(css))

	switch {
	case s == "" || s == "transparent":
		return Color{}, fmt.Errorf("%w: %q", ErrNotAColor, css)
	case strings.HasPrefix(s, "rgb(") || strings.HasPrefix(s, "rgba("):
		return parseRGBFunc(s)
	case strings.HasPrefix(s, "#"):
		return parseHex(s)
	default:
		return Color{}, fmt.Errorf("%w: %q", ErrNotAColor, css)
	}
}

func parseRGBFunc(s string) (Color, error) {
	open := strings.IndexByte(s, '(')
	if !strings.HasSuffix(s, ")") {
		return Color{}, fmt.Errorf("%w: unterminated %q", ErrNotAColor, s)
	}

	fields := strings.FieldsFunc(s[open+1:len(s)-1], func(r rune) bool {
		return r == ',' || r == ' ' || r == '/'
	})
	if len(fields) < 3 || len(fields) > 4 {
		return Color{}, fmt.Errorf("%w: %q", ErrNotAColor, s)
	}

	var ch [3]float64
	for i := range ch {
		v, err := parseChannel(fields[i])
		if err != nil {
			return Color{}, fmt.Errorf("%w: %q: %w", ErrNotAColor, s, err)
		}
		ch[i] = v
	}

	alpha := 1.0
	if len(fields) == 4 {
		v, err := parseAlpha(fields[3])
		if err != nil {
			return Color{}, fmt.Errorf("%w: %q: %w", ErrNotAColor, s, err)
		}
		alpha = v
	}

	return Color{Color: colorful.Color{R: ch[0], G: ch[1], B: ch[2]}, Alpha: alpha}, nil
}

// parseChannel reads an integer 0-255 or a percentage, normalized to [0, 1].
func parseChannel(f string) (float64, error) {
	if p, ok := strings.CutSuffix(f, "%"); ok {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, err
		}
		return clamp01(v / 100), nil
	}
	v, err := strconv.ParseFloat(f, 64)
	if err != nil {
		return 0, err
	}
	return clamp01(v / 255), nil
}

func parseAlpha(f string) (float64, error) {
	if p, ok := strings.CutSuffix(f, "%"); ok {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, err
		}
		return clamp01(v / 100), nil
	}
	v, err := strconv.ParseFloat(f, 64)
	if err != nil {
		return 0, err
	}
	return clamp01(v), nil
}

func parseHex(s string) (Color, error) {
	switch len(s) {
	case 4, 7, 9:
	default:
		return Color{}, fmt.Errorf("%w: %q", ErrNotAColor, s)
	}

	alpha := 1.0
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("%w: %q: %w", ErrNotAColor, s, err)
		}
		alpha = float64(a) / 255
		s = s[:7]
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %w", ErrNotAColor, err)
	}
	return Color{Color: c, Alpha: alpha}, nil
}

// RelativeLuminance returns the BT.709 luminance of c in linear light.
func RelativeLuminance(c Color) float64 {
	return pixel.BT709.Luma(
		transfer.SRGB.ToLinear(c.R),
		transfer.SRGB.ToLinear(c.G),
		transfer.SRGB.ToLinear(c.B),
	)
}

// IsDarkColor reports whether css parses to a colour darker than DarkLuminanceThreshold.
// Unparseable colours are not dark.
func IsDarkColor(css string) bool {
	c, err := ParseColor(css)
	if err != nil {
		return false
	}
	return RelativeLuminance(c) < DarkLuminanceThreshold
}

// ColorSchemeIsDark reports whether a CSS color-scheme value or meta content
// opts into dark only, e.g. "dark" but not "light dark".
func ColorSchemeIsDark(content string) bool {
	dark, light := false, false
	for _, tok := range strings.FieldsFunc(strings.ToLower(content), func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	}) {
		switch tok {
		case "dark":
			dark = true
		case "light":
			light = true
		}
	}
	return dark && !light
}

// ClassifyPage returns the theme of a page from its computed background colour
// and color-scheme value. A dark-only color-scheme wins over the background.
func ClassifyPage(background, colorScheme string) Theme {
	if ColorSchemeIsDark(colorScheme) || IsDarkColor(background) {
		return Dark
	}
	return Light
}

// Classify returns the theme of a page from its linear relative luminance.
func Classify(linear float64) Theme {
	if linear < DarkLuminanceThreshold {
		return Dark
	}
	return Light
}

// Detector classifies pixel buffers.
type Detector struct {
	luminance *brightness.Estimator
}

// NewDetector creates a Detector that measures buffers with est, or a default estimator if est is nil.
func NewDetector(est *brightness.Estimator) *Detector {
	if est == nil {
		est = brightness.NewEstimator()
	}
	return &Detector{luminance: est}
}

// Buffer returns the theme of an RGBA8 pixel buffer.
func (d *Detector) Buffer(buf pixel.Buffer) (Theme, error) {
	rel, err := d.luminance.Relative(buf)
	if err != nil {
		return "", err
	}
	return Classify(d.luminance.Nits(rel) / d.luminance.Peak()), nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
