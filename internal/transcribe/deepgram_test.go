package transcribe

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/edusense/edusense/internal/audio"
)

func testClip(seconds float64) audio.Clip {
	samples := int(seconds * audio.CanonicalSampleRate)
	return audio.Clip{
		PCM:        make([]byte, samples*2),
		SampleRate: audio.CanonicalSampleRate,
		Duration:   seconds,
	}
}

func TestTranscribeEmptyClip(t *testing.T) {
	d := NewDeepgram("key", "", "", 0)
	d.request = func(ctx context.Context, wav []byte) ([]Word, error) {
		t.Fatal("request should not run for an empty clip")
		return nil, nil
	}

	utterances, err := d.Transcribe(context.Background(), audio.Clip{})
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if utterances != nil {
		t.Fatalf("expected nil utterances for empty clip, got %v", utterances)
	}
}

func TestTranscribeAssignsTurns(t *testing.T) {
	d := NewDeepgram("key", "nova-2", "en-US", 1.5)
	d.request = func(ctx context.Context, wav []byte) ([]Word, error) {
		if len(wav) == 0 {
			t.Fatal("expected encoded wav payload")
		}
		return []Word{
			word("Hello", 0.0, 0.5, 0),
			word("class.", 0.6, 1.0, 0),
			word("Present!", 1.2, 1.8, 1),
		}, nil
	}

	utterances, err := d.Transcribe(context.Background(), testClip(2.0))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if len(utterances) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(utterances))
	}
	if utterances[0].Text != "Hello class." {
		t.Fatalf("unexpected text %q", utterances[0].Text)
	}
}

func TestTranscribeBackendErrorIsUnavailable(t *testing.T) {
	d := NewDeepgram("key", "", "", 0)
	d.request = func(ctx context.Context, wav []byte) ([]Word, error) {
		return nil, fmt.Errorf("upstream 503")
	}

	_, err := d.Transcribe(context.Background(), testClip(1.0))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestTranscribeSilentRecording(t *testing.T) {
	d := NewDeepgram("key", "", "", 0)
	d.request = func(ctx context.Context, wav []byte) ([]Word, error) {
		return nil, nil
	}

	utterances, err := d.Transcribe(context.Background(), testClip(5.0))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if len(utterances) != 0 {
		t.Fatalf("expected no utterances for silence, got %d", len(utterances))
	}
}

func TestNewDeepgramDefaults(t *testing.T) {
	d := NewDeepgram("key", " ", "", 0)
	if d.model != "nova-2" {
		t.Fatalf("expected default model nova-2, got %q", d.model)
	}
	if d.language != "en-US" {
		t.Fatalf("expected default language en-US, got %q", d.language)
	}
}
