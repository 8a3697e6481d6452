package brightness

import "github.com/shini4i/darkwatt-daemon/internal/pixel"

// Relative returns the alpha-weighted relative luminance of buf in [0,1].
//
// Luma is computed from the gamma-encoded channels and each pixel contributes
// in proportion to its alpha. A buffer with no opaque coverage (including an
// empty one) has luminance 0.
func (e *Estimator) Relative(buf pixel.Buffer) (float64, error) {
	if err := buf.Validate(); err != nil {
		return 0, err
	}

	var weighted, coverage float64
	for i := 0; i < len(buf); i += pixel.Channels {
		r := float64(buf[i]) / 255
		g := float64(buf[i+1]) / 255
		b := float64(buf[i+2]) / 255
		a := float64(buf[i+3]) / 255

		weighted += e.weights.Luma(r, g, b) * a
		coverage += a
	}

	if coverage == 0 {
		return 0, nil
	}
	return weighted / coverage, nil
}
