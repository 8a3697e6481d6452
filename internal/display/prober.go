package display

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/shini4i/darkwatt-daemon/internal/energy"
)

// DefaultSysfsRoot is where DRM connectors are exposed.
const DefaultSysfsRoot = "/sys/class/drm"

// Source identifies where a Geometry came from.
type Source string

const (
	// SourceConfig is a size set explicitly in the configuration.
	SourceConfig Source = "config"
	// SourceEDID is a size read from the connector's EDID.
	SourceEDID Source = "edid"
	// SourceFallback is the size assumed when nothing else is available.
	SourceFallback Source = "fallback"
)

// ErrNotFound is returned when no connected display with a usable EDID exists.
var ErrNotFound = errors.New("no connected display found")

// Info describes the display savings are estimated for.
type Info struct {
	Connector string
	Geometry  energy.Geometry
	Source    Source
}

// Prober reads connector state and EDID from sysfs.
type Prober struct {
	root string
}

// NewProber creates a Prober rooted at root, or DefaultSysfsRoot if root is empty.
func NewProber(root string) *Prober {
	if root == "" {
		root = DefaultSysfsRoot
	}
	return &Prober{root: root}
}

// Probe returns the first connected connector with a physical size, or the
// named connector (e.g., "eDP-1") if connector is not empty.
func (p *Prober) Probe(connector string) (Info, error) {
	paths, err := filepath.Glob(filepath.Join(p.root, "card*-*"))
	if err != nil {
		return Info{}, fmt.Errorf("failed to list connectors: %w", err)
	}
	sort.Strings(paths)

	for _, path := range paths {
		// card0-eDP-1 -> eDP-1
		_, name, ok := strings.Cut(filepath.Base(path), "-")
		if !ok || (connector != "" && name != connector) {
			continue
		}

		status, err := os.ReadFile(filepath.Join(path, "status"))
		if err != nil || strings.TrimSpace(string(status)) != "connected" {
			continue
		}

		edid, err := os.ReadFile(filepath.Join(path, "edid"))
		if err != nil {
			log.Debug().Err(err).Str("connector", name).Msg("Failed to read EDID")
			continue
		}

		w, h, err := ParseEDIDSize(edid)
		if err != nil {
			log.Debug().Err(err).Str("connector", name).Msg("Skipping connector")
			continue
		}

		return Info{Connector: name, Geometry: FromCentimeters(w, h), Source: SourceEDID}, nil
	}

	if connector != "" {
		return Info{}, fmt.Errorf("%w: %s", ErrNotFound, connector)
	}
	return Info{}, ErrNotFound
}
