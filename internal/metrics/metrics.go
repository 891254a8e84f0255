// Package metrics reduces classified segments into per-category durations.
package metrics

import (
	"errors"
	"fmt"
	"math"

	"github.com/edusense/edusense/internal/classify"
)

// ReconcileTolerance is the maximum allowed drift, in seconds, between the
// summed segment durations and the session duration.
const ReconcileTolerance = 1.0

// ErrInconsistent means the segment durations do not reconcile with the total
// duration. That is a classifier defect, not a retryable runtime failure.
var ErrInconsistent = errors.New("metrics inconsistent")

// Metrics is the aggregate time breakdown of one session, in seconds.
type Metrics struct {
	DurationSec    float64 `json:"duration_sec"`
	TeachingSec    float64 `json:"teaching_sec"`
	QnASec         float64 `json:"qna_sec"`
	InteractiveSec float64 `json:"interactive_sec"`
	TimeWastedSec  float64 `json:"time_wasted_sec"`
}

// Aggregate sums segment durations per category. DurationSec is the session's
// total duration, which the segment partition must match within
// ReconcileTolerance.
func Aggregate(segments []classify.Segment, duration float64) (Metrics, error) {
	m := Metrics{DurationSec: round2(duration)}

	var covered float64
	for _, seg := range segments {
		d := seg.Duration()
		if d < 0 {
			return Metrics{}, fmt.Errorf("%w: negative segment [%f, %f)", ErrInconsistent, seg.Start, seg.End)
		}
		covered += d

		switch seg.Category {
		case classify.Teaching:
			m.TeachingSec += d
		case classify.Interactive:
			m.InteractiveSec += d
		case classify.QnA:
			m.QnASec += d
		case classify.Wasted:
			m.TimeWastedSec += d
		default:
			return Metrics{}, fmt.Errorf("%w: unknown category %v", ErrInconsistent, seg.Category)
		}
	}

	if math.Abs(covered-duration) > ReconcileTolerance {
		return Metrics{}, fmt.Errorf("%w: segments cover %.2fs of %.2fs", ErrInconsistent, covered, duration)
	}

	m.TeachingSec = round2(m.TeachingSec)
	m.InteractiveSec = round2(m.InteractiveSec)
	m.QnASec = round2(m.QnASec)
	m.TimeWastedSec = round2(m.TimeWastedSec)
	return m, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
