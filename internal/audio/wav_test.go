package audio

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func TestEncodeDecodeWAVRoundTrip(t *testing.T) {
	pcm := tonePCM(0, 0.5, 0)
	path := writeTempWAV(t, pcm, CanonicalSampleRate)

	decoded, err := decodeWAV(path)
	if err != nil {
		t.Fatalf("decodeWAV failed: %v", err)
	}
	if len(decoded) != len(pcm) {
		t.Fatalf("expected %d bytes, got %d", len(pcm), len(decoded))
	}
}

func TestEncodeWAVHeader(t *testing.T) {
	pcm := []byte{1, 0, 2, 0}
	wav := EncodeWAV(pcm, CanonicalSampleRate)

	if len(wav) != 44+len(pcm) {
		t.Fatalf("expected 44-byte header plus payload, got %d bytes", len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Fatalf("bad RIFF header: %q %q", wav[0:4], wav[8:12])
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != CanonicalSampleRate {
		t.Fatalf("expected sample rate %d in header, got %d", CanonicalSampleRate, rate)
	}
	if size := binary.LittleEndian.Uint32(wav[40:44]); int(size) != len(pcm) {
		t.Fatalf("expected data size %d, got %d", len(pcm), size)
	}
}

func TestDecodeWAVStereoDownmix(t *testing.T) {
	// Two stereo frames: (100, 300) and (-200, 400).
	pcm := make([]byte, 8)
	binary.LittleEndian.PutUint16(pcm[0:], uint16(int16(100)))
	binary.LittleEndian.PutUint16(pcm[2:], uint16(int16(300)))
	left2 := int16(-200)
	binary.LittleEndian.PutUint16(pcm[4:], uint16(left2))
	binary.LittleEndian.PutUint16(pcm[6:], uint16(int16(400)))

	mono := stereoToMono(pcm)
	if len(mono) != 4 {
		t.Fatalf("expected 2 mono samples, got %d bytes", len(mono))
	}
	if got := int16(binary.LittleEndian.Uint16(mono[0:])); got != 200 {
		t.Fatalf("expected first mixed sample 200, got %d", got)
	}
	if got := int16(binary.LittleEndian.Uint16(mono[2:])); got != 100 {
		t.Fatalf("expected second mixed sample 100, got %d", got)
	}
}

func TestDecodeWAVResamples(t *testing.T) {
	// One second at 8 kHz must come out as one second at the canonical rate.
	inSamples := 8000
	pcm := make([]byte, inSamples*2)
	for i := 0; i < inSamples; i++ {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(1000)))
	}
	path := writeTempWAV(t, pcm, 8000)

	decoded, err := decodeWAV(path)
	if err != nil {
		t.Fatalf("decodeWAV failed: %v", err)
	}
	if got := len(decoded) / 2; got != CanonicalSampleRate {
		t.Fatalf("expected %d samples after resample, got %d", CanonicalSampleRate, got)
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.bin")
	if err := os.WriteFile(path, []byte("definitely not audio data, just text"), 0o644); err != nil {
		t.Fatalf("write garbage failed: %v", err)
	}

	if _, err := decodeWAV(path); err == nil {
		t.Fatal("expected error for non-WAV input")
	}
}

func TestDecodeWAVRejectsNonPCMFormat(t *testing.T) {
	pcm := tonePCM(0, 0.1, 0)
	wav := EncodeWAV(pcm, CanonicalSampleRate)
	// Flip the format code to IEEE float.
	binary.LittleEndian.PutUint16(wav[20:], 3)

	path := filepath.Join(t.TempDir(), "float.wav")
	if err := os.WriteFile(path, wav, 0o644); err != nil {
		t.Fatalf("write wav failed: %v", err)
	}

	if _, err := decodeWAV(path); err == nil {
		t.Fatal("expected error for non-PCM format code")
	}
}

func TestResampleMono16Identity(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0}
	if got := resampleMono16(pcm, CanonicalSampleRate, CanonicalSampleRate); len(got) != len(pcm) {
		t.Fatalf("expected identity resample, got %d bytes", len(got))
	}
}
