package collision

// DetectorOption configures a Detector via NewDetector.
type DetectorOption func(*detector)

// WithMargin sets the stand-off distance. Negative values are ignored.
func WithMargin(margin float32) DetectorOption {
	return func(d *detector) {
		if margin >= 0 {
			d.margin = margin
		}
	}
}

// WithMinDistance sets the length below which a move counts as no movement.
func WithMinDistance(dist float32) DetectorOption {
	return func(d *detector) {
		if dist > 0 {
			d.minDistance = dist
		}
	}
}

// WithBackfaceCulling ignores triangles whose front face points away from the tested move.
// Moves hit both faces by default.
func WithBackfaceCulling(enabled bool) DetectorOption {
	return func(d *detector) {
		d.cullBack = enabled
	}
}
