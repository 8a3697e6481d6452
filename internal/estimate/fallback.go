package estimate

import (
	"github.com/rs/zerolog/log"

	"github.com/shini4i/darkwatt-daemon/internal/energy"
)

// The methods below are the outer boundary of the pipeline: a malformed
// capture must not abort the caller's estimation flow, so failures are logged
// and reported as 0.

// AverageNitsFromDataURI returns the brightness of an image data URI, or 0 if it cannot be decoded.
func (p *Pipeline) AverageNitsFromDataURI(uri string) float64 {
	buf, err := p.sampler.FromDataURI(uri)
	if err != nil {
		log.Warn().Err(err).Msg("Skipped sample, using 0 nits")
		return 0
	}

	nits, err := p.luminance.BufferNits(buf)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to measure sample, using 0 nits")
		return 0
	}
	return nits
}

// SavedEnergyWhFromDataURI returns the watt-hours saved by showing the image
// in dark mode for the given hours, or 0 if the estimate fails.
func (p *Pipeline) SavedEnergyWhFromDataURI(geom energy.Geometry, hours float64, tech energy.Tech, uri string) float64 {
	res, err := p.AnalyzeDataURI(uri, geom, tech, hours)
	if err != nil {
		log.Warn().
			Err(err).
			Str("tech", tech.String()).
			Float64("hours", hours).
			Msg("Failed to estimate savings, using 0 Wh")
		return 0
	}
	return res.EnergyWh
}

// SavedEnergyMWhFromDataURI is SavedEnergyWhFromDataURI in milliwatt-hours.
func (p *Pipeline) SavedEnergyMWhFromDataURI(geom energy.Geometry, hours float64, tech energy.Tech, uri string) float64 {
	return energy.ToMilliwattHours(p.SavedEnergyWhFromDataURI(geom, hours, tech, uri))
}
