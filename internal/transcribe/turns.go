package transcribe

import "strings"

// DefaultTurnGap is the silence gap, in seconds, that opens a new speaker turn
// when no diarization signal is available.
const DefaultTurnGap = 1.5

type turnState struct {
	lastEnd     float64
	lastSpeaker int
	turn        int
}

// AssignTurns folds recognized words into utterances. A new turn begins when
// the silence gap since the previous word exceeds gap seconds or when the
// diarized speaker changes. Turn ids increase monotonically from 0. Words with
// no speaker tag inherit the current turn's speaker.
func AssignTurns(words []Word, gap float64) []Utterance {
	if gap <= 0 {
		gap = DefaultTurnGap
	}
	if len(words) == 0 {
		return nil
	}

	state := turnState{lastEnd: words[0].Start, lastSpeaker: speakerOf(words[0], -1)}

	var utterances []Utterance
	current := Utterance{Turn: 0, Start: words[0].Start, End: words[0].Start}
	var text []string

	flush := func() {
		joined := strings.TrimSpace(strings.Join(text, " "))
		if joined != "" && current.End > current.Start {
			utterances = append(utterances, Utterance{
				Turn:  current.Turn,
				Start: current.Start,
				End:   current.End,
				Text:  joined,
			})
		}
		text = text[:0]
	}

	for _, w := range words {
		speaker := speakerOf(w, state.lastSpeaker)
		silence := w.Start - state.lastEnd

		if len(text) > 0 && (silence > gap || speaker != state.lastSpeaker) {
			flush()
			state.turn++
			current = Utterance{Turn: state.turn, Start: w.Start, End: w.Start}
		}
		if len(text) == 0 {
			current.Start = w.Start
		}

		text = append(text, w.PunctuatedWord)
		current.End = w.End
		state.lastEnd = w.End
		state.lastSpeaker = speaker
	}
	flush()

	return utterances
}

func speakerOf(w Word, fallback int) int {
	if w.Speaker == nil {
		return fallback
	}
	return *w.Speaker
}

// FullText joins utterance texts in order, separated by single spaces.
func FullText(utterances []Utterance) string {
	parts := make([]string, 0, len(utterances))
	for _, u := range utterances {
		if t := strings.TrimSpace(u.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
