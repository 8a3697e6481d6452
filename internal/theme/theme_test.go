package theme_test

import (
	"testing"

	"github.com/shini4i/darkwatt-daemon/internal/brightness"
	"github.com/shini4i/darkwatt-daemon/internal/pixel"
	"github.com/shini4i/darkwatt-daemon/internal/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		name    string
		css     string
		r, g, b float64
		alpha   float64
	}{
		{name: "short hex", css: "#fff", r: 1, g: 1, b: 1, alpha: 1},
		{name: "long hex", css: "#FF0000", r: 1, g: 0, b: 0, alpha: 1},
		{name: "hex with alpha", css: "#00ff0080", r: 0, g: 1, b: 0, alpha: 128.0 / 255},
		{name: "rgb", css: "rgb(255, 0, 255)", r: 1, g: 0, b: 1, alpha: 1},
		{name: "rgba", css: "rgba(0, 0, 255, 0.25)", r: 0, g: 0, b: 1, alpha: 0.25},
		{name: "space separated with slash alpha", css: "rgb(0 255 0 / 50%)", r: 0, g: 1, b: 0, alpha: 0.5},
		{name: "percent channels", css: "rgb(100%, 50%, 0%)", r: 1, g: 0.5, b: 0, alpha: 1},
		{name: "surrounding whitespace", css: "  rgb(0,0,0)  ", r: 0, g: 0, b: 0, alpha: 1},
		{name: "out of range channel is clamped", css: "rgb(300, 0, 0)", r: 1, g: 0, b: 0, alpha: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := theme.ParseColor(tt.css)
			require.NoError(t, err)
			assert.InDelta(t, tt.r, c.R, 1e-9)
			assert.InDelta(t, tt.g, c.G, 1e-9)
			assert.InDelta(t, tt.b, c.B, 1e-9)
			assert.InDelta(t, tt.alpha, c.Alpha, 1e-9)
		})
	}
}

func TestParseColor_Invalid(t *testing.T) {
	for _, css := range []string{
		"",
		"transparent",
		"red",
		"hsl(0, 0%, 0%)",
		"#12345",
		"#gggggg",
		"rgb(1, 2)",
		"rgb(1, 2, 3",
		"rgb(a, b, c)",
	} {
		t.Run(css, func(t *testing.T) {
			_, err := theme.ParseColor(css)
			assert.ErrorIs(t, err, theme.ErrNotAColor)
		})
	}
}

func TestIsDarkColor(t *testing.T) {
	tests := []struct {
		css  string
		dark bool
	}{
		{css: "#000", dark: true},
		{css: "#333333", dark: true},
		{css: "rgb(18, 18, 18)", dark: true},
		{css: "rgba(0, 0, 0, 0.5)", dark: true},
		{css: "rgb(255,255,255)", dark: false},
		{css: "#808080", dark: false},
		{css: "#ff0000", dark: false},
		{css: "transparent", dark: false},
		{css: "not a colour", dark: false},
	}

	for _, tt := range tests {
		t.Run(tt.css, func(t *testing.T) {
			assert.Equal(t, tt.dark, theme.IsDarkColor(tt.css))
		})
	}
}

func TestRelativeLuminance(t *testing.T) {
	white, err := theme.ParseColor("#fff")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, theme.RelativeLuminance(white), 1e-9)

	red, err := theme.ParseColor("#f00")
	require.NoError(t, err)
	assert.InDelta(t, 0.2126, theme.RelativeLuminance(red), 1e-9)
}

func TestColorSchemeIsDark(t *testing.T) {
	tests := []struct {
		content string
		dark    bool
	}{
		{content: "dark", dark: true},
		{content: " Dark ", dark: true},
		{content: "only dark", dark: true},
		{content: "light dark", dark: false},
		{content: "dark, light", dark: false},
		{content: "light", dark: false},
		{content: "normal", dark: false},
		{content: "", dark: false},
	}

	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			assert.Equal(t, tt.dark, theme.ColorSchemeIsDark(tt.content))
		})
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, theme.Dark, theme.Classify(0))
	assert.Equal(t, theme.Dark, theme.Classify(0.199))
	assert.Equal(t, theme.Light, theme.Classify(0.2))
	assert.Equal(t, theme.Light, theme.Classify(1))
}

func TestClassifyPage(t *testing.T) {
	tests := []struct {
		name        string
		background  string
		colorScheme string
		want        theme.Theme
	}{
		{name: "black hex", background: "#000", want: theme.Dark},
		{name: "white rgb", background: "rgb(255, 255, 255)", want: theme.Light},
		{name: "dark only scheme overrides light background", background: "#fff", colorScheme: "dark", want: theme.Dark},
		{name: "transparent without scheme", background: "transparent", want: theme.Light},
		{name: "garbage", background: "not-a-colour", colorScheme: "normal", want: theme.Light},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, theme.ClassifyPage(tt.background, tt.colorScheme))
		})
	}
}

func TestDetector_Buffer(t *testing.T) {
	d := theme.NewDetector(nil)

	got, err := d.Buffer(pixel.Fill(pixel.RGBA{R: 255, G: 255, B: 255, A: 255}, 16))
	require.NoError(t, err)
	assert.Equal(t, theme.Light, got)

	got, err = d.Buffer(pixel.Fill(pixel.RGBA{R: 30, G: 30, B: 30, A: 255}, 16))
	require.NoError(t, err)
	assert.Equal(t, theme.Dark, got)

	_, err = d.Buffer(pixel.Buffer{1, 2, 3})
	assert.ErrorIs(t, err, pixel.ErrInvalidBufferLength)
}

func TestDetector_CustomEstimator(t *testing.T) {
	// The classification is relative to the peak, so it does not depend on it
	d := theme.NewDetector(brightness.NewEstimator(brightness.WithPeakLuminance(1000)))

	got, err := d.Buffer(pixel.Fill(pixel.RGBA{R: 200, G: 200, B: 200, A: 255}, 4))
	require.NoError(t, err)
	assert.Equal(t, theme.Light, got)
}
