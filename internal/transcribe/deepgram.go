package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	listenv1 "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	client "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"github.com/edusense/edusense/internal/audio"
)

// Deepgram transcribes complete recordings through the Deepgram prerecorded
// REST API and segments the result into speaker turns.
type Deepgram struct {
	model    string
	language string
	turnGap  float64

	request func(ctx context.Context, wav []byte) ([]Word, error)
}

// NewDeepgram builds a transcriber using apiKey. The turnGap is the silence
// gap in seconds that starts a new speaker turn; zero means the default.
func NewDeepgram(apiKey, model, language string, turnGap float64) *Deepgram {
	if strings.TrimSpace(model) == "" {
		model = "nova-2"
	}
	if strings.TrimSpace(language) == "" {
		language = "en-US"
	}

	rest := client.NewREST(apiKey, &interfaces.ClientOptions{})
	api := listenv1.New(rest)

	d := &Deepgram{model: model, language: language, turnGap: turnGap}
	d.request = func(ctx context.Context, wav []byte) ([]Word, error) {
		options := &interfaces.PreRecordedTranscriptionOptions{
			Model:       d.model,
			Language:    d.language,
			Diarize:     true,
			Punctuate:   true,
			SmartFormat: true,
		}

		resp, err := api.FromStream(ctx, bytes.NewReader(wav), options)
		if err != nil {
			return nil, err
		}

		if len(resp.Results.Channels) == 0 || len(resp.Results.Channels[0].Alternatives) == 0 {
			return nil, nil
		}

		alt := resp.Results.Channels[0].Alternatives[0]
		words := make([]Word, 0, len(alt.Words))
		for _, w := range alt.Words {
			word := w.PunctuatedWord
			if word == "" {
				word = w.Word
			}
			words = append(words, Word{
				Speaker:        w.Speaker,
				PunctuatedWord: word,
				Start:          w.Start,
				End:            w.End,
				Confidence:     w.Confidence,
			})
		}
		return words, nil
	}
	return d
}

// Transcribe sends the clip to Deepgram and returns turn-segmented
// utterances. A silent recording yields an empty slice, not an error. Any
// backend failure is reported as ErrUnavailable so the caller can retry.
func (d *Deepgram) Transcribe(ctx context.Context, clip audio.Clip) ([]Utterance, error) {
	if len(clip.PCM) == 0 {
		return nil, nil
	}

	words, err := d.request(ctx, audio.EncodeWAV(clip.PCM, clip.SampleRate))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return AssignTurns(words, d.turnGap), nil
}
