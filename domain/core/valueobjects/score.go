package valueobjects

// Scores in this domain (edge strength, edge confidence, relevance) are
// bounded floats. Out-of-range values coming from the completion service are
// clamped, never rejected.

// ClampUnit clamps a float into the [0,1] range
func ClampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ClampRange clamps a float into [low, high]
func ClampRange(v, low, high float64) float64 {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
