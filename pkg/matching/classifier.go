package matching

// Thresholds contains the classification cutoffs. The defaults are the
// operationally tuned values carried over from the production tool; prefer
// configuring them over re-deriving "better" ones.
type Thresholds struct {
	High   float64 // Score at or above which a match is auto-selectable
	Low    float64 // Score below which a match is discarded
	Margin float64 // Max gap between two high scorers that still counts as ambiguous
}

// DefaultThresholds returns the default classification cutoffs
func DefaultThresholds() Thresholds {
	return Thresholds{
		High:   0.93,
		Low:    0.82,
		Margin: 0.05,
	}
}

// Classify converts a ranked option list into a status and selection.
// Options must be sorted by score descending.
//
// The three-tier policy biases toward review whenever confidence is not both
// high and unambiguous: a wrong headshot auto-attached to the wrong attorney
// costs far more than a human glance.
func Classify(options []ScoredOption, t Thresholds) (RowStatus, *ScoredOption) {
	if len(options) == 0 || options[0].Score < t.Low {
		return StatusUnmatched, nil
	}

	top := options[0]

	if top.Score >= t.High {
		// Two near-identical high-confidence matches are genuinely
		// ambiguous; do not auto-pick between them.
		if len(options) > 1 {
			second := options[1]
			if second.Score >= t.High && top.Score-second.Score <= t.Margin {
				return StatusReview, nil
			}
		}
		selected := top
		return StatusReady, &selected
	}

	// Between Low and High: informational top score, not auto-selected
	return StatusReview, nil
}
