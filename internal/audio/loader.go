package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
)

// Errors reported by the loader. Both are fatal for an analysis run: the
// recording has to be re-uploaded, retrying cannot help.
var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrCorruptAudio      = errors.New("corrupt audio")
)

const (
	// CanonicalSampleRate is the sample rate every clip is normalized to.
	CanonicalSampleRate = 16000
	pcmChannels         = 1
	pcmBitDepth         = 16

	// silenceThreshold is the absolute int16 amplitude below which a sample
	// counts as silence for the lead/tail trim metadata.
	silenceThreshold = 330
)

// Clip is a decoded recording: canonical mono s16le PCM plus duration and
// silence-trim metadata. Clips are value types; the loader keeps no cache and
// a retried analysis decodes from scratch.
type Clip struct {
	PCM        []byte
	SampleRate int
	Duration   float64

	// LeadSilence and TailSilence are the seconds of near-silence at the
	// clip edges. They are metadata only; the PCM is not trimmed.
	LeadSilence float64
	TailSilence float64
}

// Loader decodes an audio file of unknown container/codec into a Clip.
// It shells out to ffmpeg and falls back to a native WAV parser, the same
// chain order used for every external binary dependency in this codebase.
type Loader struct {
	decode func(ctx context.Context, path string) ([]byte, error)
}

func NewLoader() *Loader {
	l := &Loader{}
	l.decode = l.defaultDecode
	return l
}

// Load decodes the file at path into canonical PCM and computes duration and
// silence metadata. It returns ErrUnsupportedFormat when no decoder accepts
// the input and ErrCorruptAudio when decoding yields no usable samples.
func (l *Loader) Load(ctx context.Context, path string) (Clip, error) {
	if _, err := os.Stat(path); err != nil {
		return Clip{}, fmt.Errorf("stat audio file: %w", err)
	}

	pcm, err := l.decode(ctx, path)
	if err != nil {
		return Clip{}, err
	}

	samples := len(pcm) / 2
	if samples == 0 {
		return Clip{}, fmt.Errorf("%w: decoded zero samples", ErrCorruptAudio)
	}

	duration := float64(samples) / float64(CanonicalSampleRate)
	if duration <= 0 {
		return Clip{}, fmt.Errorf("%w: non-positive duration", ErrCorruptAudio)
	}

	lead, tail := silenceEdges(pcm)
	return Clip{
		PCM:         pcm,
		SampleRate:  CanonicalSampleRate,
		Duration:    duration,
		LeadSilence: lead,
		TailSilence: tail,
	}, nil
}

func (l *Loader) defaultDecode(ctx context.Context, path string) ([]byte, error) {
	if pcm, err := decodeWithFFmpeg(ctx, path); err == nil {
		return pcm, nil
	}

	pcm, err := decodeWAV(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	return pcm, nil
}

func decodeWithFFmpeg(ctx context.Context, path string) ([]byte, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(
		ctx,
		"ffmpeg",
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ac", strconv.Itoa(pcmChannels),
		"-ar", strconv.Itoa(CanonicalSampleRate),
		"pipe:1",
	)
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// silenceEdges scans int16 samples from both ends and returns the seconds of
// leading and trailing near-silence. A fully silent clip reports its whole
// length as lead silence and zero tail.
func silenceEdges(pcm []byte) (lead, tail float64) {
	samples := len(pcm) / 2

	leadSamples := 0
	for i := 0; i < samples; i++ {
		if abs16(sampleAt(pcm, i)) >= silenceThreshold {
			break
		}
		leadSamples++
	}

	if leadSamples == samples {
		return float64(samples) / float64(CanonicalSampleRate), 0
	}

	tailSamples := 0
	for i := samples - 1; i >= 0; i-- {
		if abs16(sampleAt(pcm, i)) >= silenceThreshold {
			break
		}
		tailSamples++
	}

	return float64(leadSamples) / float64(CanonicalSampleRate),
		float64(tailSamples) / float64(CanonicalSampleRate)
}

func sampleAt(pcm []byte, i int) int16 {
	return int16(binary.LittleEndian.Uint16(pcm[i*2:]))
}

func abs16(v int16) int {
	if v == math.MinInt16 {
		return -math.MinInt16
	}
	if v < 0 {
		return int(-v)
	}
	return int(v)
}
