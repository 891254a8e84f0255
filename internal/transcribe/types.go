package transcribe

import "errors"

// ErrUnavailable is returned when the speech-to-text backend errors or times
// out. The orchestrator treats it as transient and retries with backoff.
var ErrUnavailable = errors.New("transcription unavailable")

// Word is a single recognized word with its timing and optional speaker tag.
type Word struct {
	Speaker        *int
	PunctuatedWord string
	Start          float64
	End            float64
	Confidence     float64
}

// Utterance is one contiguous transcribed speech span. Turn is a monotonically
// increasing speaker-turn id, not a stable speaker identity.
type Utterance struct {
	Turn  int     `json:"turn"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Duration returns the utterance length in seconds.
func (u Utterance) Duration() float64 {
	return u.End - u.Start
}
