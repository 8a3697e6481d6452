package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shini4i/darkwatt-daemon/internal/darkmode"
	"github.com/shini4i/darkwatt-daemon/internal/display"
	"github.com/shini4i/darkwatt-daemon/internal/energy"
	"github.com/shini4i/darkwatt-daemon/internal/estimate"
	"github.com/shini4i/darkwatt-daemon/internal/pixel"
	"github.com/shini4i/darkwatt-daemon/internal/sample"
	"github.com/shini4i/darkwatt-daemon/internal/theme"
)

type analyzeOptions struct {
	width      float64
	height     float64
	tech       string
	hours      float64
	previewDir string
	grid       uint
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze IMAGE...",
		Short: "Estimate dark mode savings for screenshots",
		Long: `Analyze measures the brightness of each screenshot, renders its dark-mode
equivalent and prints the energy that rendition would save. When no panel size
is given the connected display is probed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tech, err := energy.ParseTech(opts.tech)
			if err != nil {
				return err
			}
			if opts.hours < 0 {
				return fmt.Errorf("invalid --hours %v: must not be negative", opts.hours)
			}

			geom := energy.Geometry{WidthInches: opts.width, HeightInches: opts.height}
			if geom.WidthInches <= 0 || geom.HeightInches <= 0 {
				manager := display.NewManager()
				if err := manager.Refresh(); err != nil {
					log.Debug().Err(err).Msg("Display probe failed, using fallback geometry")
				}
				geom = manager.Geometry()
			}
			log.Debug().
				Float64("width", geom.WidthInches).
				Float64("height", geom.HeightInches).
				Str("tech", tech.String()).
				Msg("Analyzing screenshots")

			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), args, geom, tech, opts)
		},
	}

	cmd.Flags().Float64Var(&opts.width, "width", 0, "Panel width in inches (probed when 0)")
	cmd.Flags().Float64Var(&opts.height, "height", 0, "Panel height in inches (probed when 0)")
	cmd.Flags().StringVar(&opts.tech, "tech", energy.LCD.String(), "Panel technology (lcd or oled)")
	cmd.Flags().Float64Var(&opts.hours, "hours", 1, "Viewing time in hours")
	cmd.Flags().StringVar(&opts.previewDir, "preview-dir", "", "Write dark-mode previews to this directory")
	cmd.Flags().UintVar(&opts.grid, "grid", sample.DefaultGridSize, "Sample grid size in pixels per side")

	return cmd
}

// screenshot is a decoded input file.
type screenshot struct {
	path string
	img  image.Image
	buf  pixel.Buffer
}

func runAnalyze(ctx context.Context, out io.Writer, paths []string, geom energy.Geometry, tech energy.Tech, opts *analyzeOptions) error {
	sampler := sample.NewSampler(sample.WithGridSize(opts.grid))
	pipeline := estimate.New(estimate.WithSampler(sampler))
	detector := theme.NewDetector(pipeline.Luminance())

	shots := make([]screenshot, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			img, err := sampler.Decode(data)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			shots[i] = screenshot{path: path, img: img, buf: sampler.FromImage(img)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	bufs := make([]pixel.Buffer, len(shots))
	for i, s := range shots {
		bufs[i] = s.buf
	}
	results, err := pipeline.AnalyzeAll(ctx, bufs, geom, tech, opts.hours)
	if err != nil {
		return err
	}

	if opts.previewDir != "" {
		if err := writePreviews(opts.previewDir, shots); err != nil {
			return err
		}
	}

	var total float64
	for i, res := range results {
		th, err := detector.Buffer(shots[i].buf)
		if err != nil {
			return err
		}
		total += res.EnergyWh
		if _, err := fmt.Fprintf(out, "%s\ttheme=%s\tbefore=%.2f nits\tafter=%.2f nits\tsaved=%.4f Wh\n",
			shots[i].path, th, res.BeforeNits, res.AfterNits, res.EnergyWh); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(out, "total\tsaved=%.4f Wh over %d file(s)\n", total, len(results))
	return err
}

// previewPaths returns <dir>/<base>.dark.png for each path. Inputs sharing a
// base name get a numeric suffix so that no two previews share a file.
func previewPaths(dir string, paths []string) []string {
	used := make(map[string]bool, len(paths))
	targets := make([]string, len(paths))
	for i, path := range paths {
		base := filepath.Base(path)
		base = strings.TrimSuffix(base, filepath.Ext(base))

		name := base + ".dark.png"
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s-%d.dark.png", base, n)
		}
		used[name] = true
		targets[i] = filepath.Join(dir, name)
	}
	return targets
}

func writePreviews(dir string, shots []screenshot) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create preview directory: %w", err)
	}

	paths := make([]string, len(shots))
	for i, s := range shots {
		paths[i] = s.path
	}
	targets := previewPaths(dir, paths)

	transformer := darkmode.NewTransformer()
	var g errgroup.Group
	for i, s := range shots {
		target := targets[i]
		g.Go(func() error {
			f, err := os.Create(target) // #nosec G304 -- user-supplied output directory
			if err != nil {
				return fmt.Errorf("failed to create preview: %w", err)
			}
			if err := png.Encode(f, transformer.Image(s.img)); err != nil {
				_ = f.Close()
				return fmt.Errorf("failed to encode preview %s: %w", target, err)
			}
			log.Debug().Str("path", target).Msg("Wrote dark-mode preview")
			return f.Close()
		})
	}
	return g.Wait()
}
