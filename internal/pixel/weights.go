package pixel

// Weights are the per-channel luma coefficients. They are non-negative and sum to 1.
type Weights struct {
	R, G, B float64
}

// BT709 are the ITU-R BT.709 luma coefficients.
var BT709 = Weights{R: 0.2126, G: 0.7152, B: 0.0722}

// Luma returns the weighted sum of the three channels.
func (w Weights) Luma(r, g, b float64) float64 {
	return w.R*r + w.G*g + w.B*b
}
