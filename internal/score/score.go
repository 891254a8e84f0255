// Package score derives the 0-100 interactivity score from session metrics.
package score

import (
	"math"

	"github.com/edusense/edusense/internal/metrics"
)

// DefaultWastedPenalty is the reference weight applied to the wasted-time
// proportion. The reward side (interactive + Q&A share) is unweighted.
const DefaultWastedPenalty = 0.25

// Scorer computes the interactivity score. The formula rewards the share of
// session time spent in Interactive and Q&A, penalizes the Wasted share, and
// treats Teaching as neutral. It is monotonically non-decreasing in the
// reward categories and non-increasing in wasted time, with an all-wasted
// session scoring exactly 0.
type Scorer struct {
	WastedPenalty float64
}

func New() Scorer {
	return Scorer{WastedPenalty: DefaultWastedPenalty}
}

// Score maps metrics to [0, 100], rounded to two decimals so repeated runs on
// identical input are byte-identical.
func (s Scorer) Score(m metrics.Metrics) float64 {
	if m.DurationSec <= 0 {
		return 0
	}

	reward := (m.InteractiveSec + m.QnASec) / m.DurationSec
	penalty := s.WastedPenalty * (m.TimeWastedSec / m.DurationSec)

	raw := 100 * (reward - penalty)
	if raw < 0 {
		return 0
	}
	if raw > 100 {
		return 100
	}
	return math.Round(raw*100) / 100
}
