package classify

import (
	"strings"

	"github.com/edusense/edusense/internal/transcribe"
)

// Classification thresholds. Tunable policy, but fixed values keep repeated
// runs on identical input byte-identical.
const (
	questionDensityMin = 0.04
	shortTurnSec       = 10.0
	lectureSpanSec     = 25.0
	minWordRate        = 0.4
)

var interrogatives = map[string]struct{}{
	"what": {}, "why": {}, "how": {}, "who": {}, "when": {}, "where": {},
	"which": {}, "can": {}, "could": {}, "would": {}, "should": {}, "do": {},
	"does": {}, "did": {}, "is": {}, "are": {}, "kya": {}, "kyun": {},
	"kaise": {}, "kaun": {}, "kab": {}, "kahan": {},
}

var fillers = map[string]struct{}{
	"um": {}, "uh": {}, "hmm": {}, "okay": {}, "ok": {}, "so": {},
	"right": {}, "yeah": {}, "haan": {}, "achha": {}, "theek": {},
}

// Classifier assigns each utterance to exactly one category and produces an
// ordered segment sequence that partitions [0, duration]: uncovered gaps
// become Wasted segments and adjacent same-category spans are merged.
type Classifier struct{}

func New() *Classifier {
	return &Classifier{}
}

// Classify maps utterances onto a full partition of [0, duration]. The input
// must be time-ordered and non-overlapping; duration must be positive.
func (c *Classifier) Classify(utterances []transcribe.Utterance, duration float64) []Segment {
	if duration <= 0 {
		return nil
	}

	var segments []Segment
	cursor := 0.0

	for i, u := range utterances {
		start := clamp(u.Start, cursor, duration)
		end := clamp(u.End, start, duration)
		if end <= start {
			continue
		}

		if start > cursor {
			segments = appendSegment(segments, Segment{Start: cursor, End: start, Category: Wasted})
		}

		category := c.categorize(utterances, i)
		segments = appendSegment(segments, Segment{Start: start, End: end, Category: category})
		cursor = end
	}

	if cursor < duration {
		segments = appendSegment(segments, Segment{Start: cursor, End: duration, Category: Wasted})
	}

	return segments
}

// categorize scores one utterance against the linguistic and structural
// signals. Ties resolve in the fixed priority order QnA > Interactive >
// Teaching > Wasted.
func (c *Classifier) categorize(utterances []transcribe.Utterance, i int) Category {
	u := utterances[i]
	words := strings.Fields(u.Text)
	dur := u.Duration()

	if len(words) == 0 {
		return Wasted
	}

	var scores [4]float64

	questions := questionSignals(words)
	density := float64(questions) / float64(len(words))
	if density >= questionDensityMin || strings.Contains(u.Text, "?") {
		scores[QnA] = 1 + density
		if dur < shortTurnSec*2 {
			scores[QnA] += 0.5
		}
	}

	if alternates(utterances, i) && dur < shortTurnSec {
		scores[Interactive] = 1
	}

	if dur >= lectureSpanSec {
		scores[Teaching] = 1 + dur/lectureSpanSec/10
	} else {
		scores[Teaching] = 0.25
	}

	wordRate := float64(len(words)) / dur
	if wordRate < minWordRate || fillerRatio(words) > 0.6 {
		scores[Wasted] = 1.5
	}

	// Walk in priority order with strict improvement, so a tied score
	// resolves to the earlier, higher-priority category.
	best := QnA
	bestScore := -1.0
	for _, cat := range []Category{QnA, Interactive, Teaching, Wasted} {
		if scores[cat] > bestScore {
			best = cat
			bestScore = scores[cat]
		}
	}
	return best
}

func questionSignals(words []string) int {
	count := 0
	for _, w := range words {
		trimmed := strings.ToLower(strings.Trim(w, ".,!?;:"))
		if strings.HasSuffix(w, "?") {
			count++
			continue
		}
		if _, ok := interrogatives[trimmed]; ok {
			count++
		}
	}
	return count
}

func fillerRatio(words []string) float64 {
	count := 0
	for _, w := range words {
		trimmed := strings.ToLower(strings.Trim(w, ".,!?;:"))
		if _, ok := fillers[trimmed]; ok {
			count++
		}
	}
	return float64(count) / float64(len(words))
}

// alternates reports whether the utterance sits inside a run of short
// back-and-forth turns, the structural signal for Interactive time.
func alternates(utterances []transcribe.Utterance, i int) bool {
	u := utterances[i]
	if i > 0 && utterances[i-1].Turn != u.Turn && utterances[i-1].Duration() < shortTurnSec {
		return true
	}
	if i+1 < len(utterances) && utterances[i+1].Turn != u.Turn && utterances[i+1].Duration() < shortTurnSec {
		return true
	}
	return false
}

// appendSegment appends seg, merging it into the previous segment when both
// carry the same category.
func appendSegment(segments []Segment, seg Segment) []Segment {
	if n := len(segments); n > 0 && segments[n-1].Category == seg.Category && segments[n-1].End == seg.Start {
		segments[n-1].End = seg.End
		return segments
	}
	return append(segments, seg)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
