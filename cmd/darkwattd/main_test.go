// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shini4i/darkwatt-daemon/internal/config"
	"github.com/shini4i/darkwatt-daemon/internal/dbus"
	"github.com/shini4i/darkwatt-daemon/internal/display"
	"github.com/shini4i/darkwatt-daemon/internal/energy"
	"github.com/shini4i/darkwatt-daemon/internal/estimate"
	"github.com/shini4i/darkwatt-daemon/internal/stats"
)

func TestRefreshWithRetry(t *testing.T) {
	errProbe := errors.New("probe failed")

	tests := []struct {
		name      string
		failures  int
		retries   int
		wantErr   bool
		wantCalls int
	}{
		{name: "succeeds first time", failures: 0, retries: 3, wantCalls: 1},
		{name: "succeeds after retries", failures: 2, retries: 3, wantCalls: 3},
		{name: "all retries exhausted", failures: 10, retries: 2, wantErr: true, wantCalls: 3},
		{name: "no retries", failures: 1, retries: 0, wantErr: true, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			refresh := func() error {
				calls++
				if calls <= tt.failures {
					return errProbe
				}
				return nil
			}

			err := refreshWithRetry(refresh, tt.retries, time.Millisecond)
			if tt.wantErr {
				assert.ErrorIs(t, err, errProbe)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func noDisplay(string) (display.Info, error) {
	return display.Info{}, display.ErrNotFound
}

func TestNewDisplayManager(t *testing.T) {
	cfg := config.Default()
	cfg.Display.WidthInches = 20
	cfg.Display.HeightInches = 12
	cfg.Display.Tech = "oled"

	manager, err := newDisplayManager(cfg, display.WithProbe(noDisplay))
	require.NoError(t, err)
	require.NoError(t, manager.Refresh())

	assert.Equal(t, energy.Geometry{WidthInches: 20, HeightInches: 12}, manager.Geometry())
	assert.Equal(t, energy.OLED, manager.Tech())
	assert.Equal(t, display.SourceConfig, manager.Info().Source)

	cfg.Display.Tech = "crt"
	_, err = newDisplayManager(cfg)
	assert.ErrorIs(t, err, energy.ErrUnknownTech)
}

func TestApplyConfig(t *testing.T) {
	manager, err := newDisplayManager(config.Default(), display.WithProbe(noDisplay))
	require.NoError(t, err)
	server := dbus.NewServer(estimate.New(), stats.NewTracker(), manager)

	var changes []display.Info
	manager.SetChangeHandler(func(info display.Info) { changes = append(changes, info) })

	t.Run("applies size and tech", func(t *testing.T) {
		cfg := config.Default()
		cfg.Display.WidthInches = 23.5
		cfg.Display.HeightInches = 13.2
		cfg.Display.Tech = "OLED"

		require.NoError(t, applyConfig(cfg, manager, server))
		assert.Equal(t, energy.Geometry{WidthInches: 23.5, HeightInches: 13.2}, manager.Geometry())
		assert.Equal(t, energy.OLED, manager.Tech())
		require.Len(t, changes, 1)
		assert.Equal(t, display.SourceConfig, changes[0].Source)
	})

	t.Run("clearing the size reverts to fallback", func(t *testing.T) {
		require.NoError(t, applyConfig(config.Default(), manager, server))
		assert.Equal(t, display.DefaultFallback, manager.Geometry())
		assert.Equal(t, energy.LCD, manager.Tech())
	})

	t.Run("unknown tech is rejected", func(t *testing.T) {
		cfg := config.Default()
		cfg.Display.Tech = "plasma"

		err := applyConfig(cfg, manager, server)
		assert.ErrorIs(t, err, energy.ErrUnknownTech)
		assert.Equal(t, energy.LCD, manager.Tech())
	})
}

func TestStatsSaver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "stats.json")
	tracker := stats.NewTracker(stats.WithPath(path))
	saver := &statsSaver{tracker: tracker}

	saver.Flush()
	assert.NoFileExists(t, path, "clean tracker should not be written")

	tracker.RecordLuminance(120, "https://example.com")
	saver.MarkDirty()
	saver.Flush()
	require.FileExists(t, path)

	loaded, err := stats.Load(path)
	require.NoError(t, err)
	assert.Len(t, loaded.Records(), 1)
}

func TestStatsSaverRunFlushesOnShutdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	tracker := stats.NewTracker(stats.WithPath(path))
	saver := &statsSaver{tracker: tracker}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		saver.Run(ctx, time.Hour)
		close(done)
	}()

	tracker.AddSavings("https://example.com", 0.5)
	saver.MarkDirty()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("statsSaver.Run did not return after cancel")
	}
	assert.FileExists(t, path)
}

func writePNG(t *testing.T, path string, c color.Color) {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()

	level := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(level) })

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAnalyzeCommand(t *testing.T) {
	dir := t.TempDir()
	white := filepath.Join(dir, "white.png")
	black := filepath.Join(dir, "black.png")
	writePNG(t, white, color.White)
	writePNG(t, black, color.Black)
	previews := filepath.Join(dir, "previews")

	out, err := runRoot(t, "analyze",
		"--width", "20", "--height", "11.25",
		"--tech", "lcd", "--hours", "2",
		"--preview-dir", previews,
		white, black)
	require.NoError(t, err)

	assert.Contains(t, out, white+"\ttheme=light\tbefore=250.00 nits\tafter=0.00 nits")
	assert.Contains(t, out, black+"\ttheme=dark\tbefore=0.00 nits\tafter=250.00 nits\tsaved=0.0000 Wh")
	assert.Contains(t, out, "over 2 file(s)")

	assert.FileExists(t, filepath.Join(previews, "white.dark.png"))
	assert.FileExists(t, filepath.Join(previews, "black.dark.png"))

	f, err := os.Open(filepath.Join(previews, "white.dark.png"))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	img, err := png.Decode(f)
	require.NoError(t, err)
	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, [3]uint32{0, 0, 0}, [3]uint32{r, g, b}, "white should render black in dark mode")
}

func TestAnalyzeCommandErrors(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "page.png")
	writePNG(t, img, color.White)
	notImage := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notImage, []byte("plain text"), 0o600))

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "unknown tech", args: []string{"analyze", "--width", "20", "--height", "10", "--tech", "crt", img}, wantErr: "unknown display technology"},
		{name: "negative hours", args: []string{"analyze", "--width", "20", "--height", "10", "--hours", "-1", img}, wantErr: "must not be negative"},
		{name: "missing file", args: []string{"analyze", "--width", "20", "--height", "10", filepath.Join(dir, "missing.png")}, wantErr: "failed to read"},
		{name: "not an image", args: []string{"analyze", "--width", "20", "--height", "10", notImage}, wantErr: "notes.txt"},
		{name: "no arguments", args: []string{"analyze"}, wantErr: "requires at least 1 arg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runRoot(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPreviewPaths(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  []string
	}{
		{
			name:  "distinct names",
			paths: []string{"/tmp/shots/page.jpeg", "noext"},
			want:  []string{"page.dark.png", "noext.dark.png"},
		},
		{
			name:  "same base in different directories",
			paths: []string{"a/shot.png", "b/shot.png", "c/shot.webp"},
			want:  []string{"shot.dark.png", "shot-2.dark.png", "shot-3.dark.png"},
		},
		{
			name:  "suffix already taken by another input",
			paths: []string{"a/shot.png", "shot-2.png", "b/shot.png"},
			want:  []string{"shot.dark.png", "shot-2.dark.png", "shot-3.dark.png"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := make([]string, len(tt.want))
			for i, name := range tt.want {
				want[i] = filepath.Join("out", name)
			}
			assert.Equal(t, want, previewPaths("out", tt.paths))
		})
	}
}

func TestAnalyzeCommandDuplicateBaseNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "b"), 0o755))
	white := filepath.Join(dir, "a", "shot.png")
	black := filepath.Join(dir, "b", "shot.png")
	writePNG(t, white, color.White)
	writePNG(t, black, color.Black)
	previews := filepath.Join(dir, "previews")

	_, err := runRoot(t, "analyze", "--width", "20", "--height", "10", "--preview-dir", previews, white, black)
	require.NoError(t, err)

	entries, err := os.ReadDir(previews)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	firstPixel := func(name string) [3]uint32 {
		f, err := os.Open(filepath.Join(previews, name))
		require.NoError(t, err)
		defer func() { _ = f.Close() }()
		img, err := png.Decode(f)
		require.NoError(t, err)
		r, g, b, _ := img.At(0, 0).RGBA()
		return [3]uint32{r, g, b}
	}
	assert.Equal(t, [3]uint32{0, 0, 0}, firstPixel("shot.dark.png"), "white input renders black")
	assert.Equal(t, [3]uint32{0xffff, 0xffff, 0xffff}, firstPixel("shot-2.dark.png"), "black input renders white")
}

func TestSetupLogging(t *testing.T) {
	level := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(level) })

	var buf bytes.Buffer
	setupLogging(true, &buf)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	setupLogging(false, &buf)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
