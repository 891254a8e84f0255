package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// tonePCM builds one second of mono s16le PCM at the canonical rate with a
// loud sine tone, padded with leadSec and tailSec of silence.
func tonePCM(leadSec, toneSec, tailSec float64) []byte {
	leadSamples := int(leadSec * CanonicalSampleRate)
	toneSamples := int(toneSec * CanonicalSampleRate)
	tailSamples := int(tailSec * CanonicalSampleRate)

	out := make([]byte, (leadSamples+toneSamples+tailSamples)*2)
	for i := 0; i < toneSamples; i++ {
		v := int16(10000 * math.Sin(2*math.Pi*440*float64(i)/CanonicalSampleRate))
		binary.LittleEndian.PutUint16(out[(leadSamples+i)*2:], uint16(v))
	}
	return out
}

func writeTempWAV(t *testing.T, pcm []byte, sampleRate int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(path, EncodeWAV(pcm, sampleRate), 0o644); err != nil {
		t.Fatalf("write wav failed: %v", err)
	}
	return path
}

func TestLoadComputesDuration(t *testing.T) {
	pcm := tonePCM(0, 2.0, 0)

	l := NewLoader()
	l.decode = func(ctx context.Context, path string) ([]byte, error) {
		return pcm, nil
	}

	clip, err := l.Load(context.Background(), writeTempWAV(t, pcm, CanonicalSampleRate))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if clip.SampleRate != CanonicalSampleRate {
		t.Fatalf("expected canonical sample rate, got %d", clip.SampleRate)
	}
	if math.Abs(clip.Duration-2.0) > 0.001 {
		t.Fatalf("expected duration 2.0, got %v", clip.Duration)
	}
}

func TestLoadSilenceMetadata(t *testing.T) {
	pcm := tonePCM(0.5, 1.0, 0.25)

	l := NewLoader()
	l.decode = func(ctx context.Context, path string) ([]byte, error) {
		return pcm, nil
	}

	clip, err := l.Load(context.Background(), writeTempWAV(t, pcm, CanonicalSampleRate))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if math.Abs(clip.LeadSilence-0.5) > 0.01 {
		t.Fatalf("expected lead silence ~0.5, got %v", clip.LeadSilence)
	}
	if math.Abs(clip.TailSilence-0.25) > 0.01 {
		t.Fatalf("expected tail silence ~0.25, got %v", clip.TailSilence)
	}
	if len(clip.PCM) != len(pcm) {
		t.Fatalf("expected PCM untrimmed, got %d of %d bytes", len(clip.PCM), len(pcm))
	}
}

func TestLoadFullySilentClip(t *testing.T) {
	pcm := tonePCM(3.0, 0, 0)

	l := NewLoader()
	l.decode = func(ctx context.Context, path string) ([]byte, error) {
		return pcm, nil
	}

	clip, err := l.Load(context.Background(), writeTempWAV(t, pcm, CanonicalSampleRate))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if math.Abs(clip.LeadSilence-3.0) > 0.01 {
		t.Fatalf("expected whole clip as lead silence, got %v", clip.LeadSilence)
	}
	if clip.TailSilence != 0 {
		t.Fatalf("expected zero tail silence for fully silent clip, got %v", clip.TailSilence)
	}
}

func TestLoadZeroSamplesIsCorrupt(t *testing.T) {
	l := NewLoader()
	l.decode = func(ctx context.Context, path string) ([]byte, error) {
		return nil, nil
	}

	_, err := l.Load(context.Background(), writeTempWAV(t, tonePCM(0, 0.1, 0), CanonicalSampleRate))
	if !errors.Is(err, ErrCorruptAudio) {
		t.Fatalf("expected ErrCorruptAudio, got %v", err)
	}
}

func TestLoadDecoderFailurePropagates(t *testing.T) {
	l := NewLoader()
	l.decode = func(ctx context.Context, path string) ([]byte, error) {
		return nil, fmt.Errorf("%w: nothing could read it", ErrUnsupportedFormat)
	}

	_, err := l.Load(context.Background(), writeTempWAV(t, tonePCM(0, 0.1, 0), CanonicalSampleRate))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	l := NewLoader()
	if _, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "nope.wav")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDefaultDecodeWAVFallback(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no shell available")
	}

	pcm := tonePCM(0, 0.5, 0)
	path := writeTempWAV(t, pcm, CanonicalSampleRate)

	// Even without ffmpeg on PATH the native WAV parser must handle this.
	l := NewLoader()
	clip, err := l.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if math.Abs(clip.Duration-0.5) > 0.01 {
		t.Fatalf("expected duration ~0.5, got %v", clip.Duration)
	}
}
