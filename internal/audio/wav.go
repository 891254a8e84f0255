package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
)

// decodeWAV is the no-ffmpeg fallback: it parses a RIFF/WAVE file with 16-bit
// PCM samples, downmixes to mono, and resamples to the canonical rate.
func decodeWAV(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wav: %w", err)
	}

	if len(data) < 44 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE file")
	}

	var (
		sampleRate    int
		channels      int
		bitsPerSample int
		pcm           []byte
	)

	// Walk chunks; tolerate any chunk order.
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if body+chunkSize > len(data) {
			chunkSize = len(data) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, fmt.Errorf("short fmt chunk")
			}
			format := binary.LittleEndian.Uint16(data[body:])
			channels = int(binary.LittleEndian.Uint16(data[body+2:]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4:]))
			bitsPerSample = int(binary.LittleEndian.Uint16(data[body+14:]))
			if format != 1 {
				return nil, fmt.Errorf("unsupported wav format code %d", format)
			}
		case "data":
			pcm = data[body : body+chunkSize]
		}

		// Chunks are word-aligned.
		offset = body + chunkSize
		if chunkSize%2 == 1 {
			offset++
		}
	}

	if sampleRate == 0 || channels == 0 {
		return nil, fmt.Errorf("missing fmt chunk")
	}
	if bitsPerSample != pcmBitDepth {
		return nil, fmt.Errorf("unsupported bit depth %d", bitsPerSample)
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("missing data chunk")
	}

	if channels == 2 {
		pcm = stereoToMono(pcm)
	} else if channels != 1 {
		return nil, fmt.Errorf("unsupported channel count %d", channels)
	}

	if sampleRate != CanonicalSampleRate {
		pcm = resampleMono16(pcm, sampleRate, CanonicalSampleRate)
	}

	return pcm, nil
}

// EncodeWAV wraps canonical mono s16le PCM in a minimal WAV container so it
// can be handed to services that refuse headerless audio.
func EncodeWAV(pcm []byte, sampleRate int) []byte {
	if sampleRate <= 0 {
		sampleRate = CanonicalSampleRate
	}

	byteRate := sampleRate * pcmChannels * pcmBitDepth / 8
	blockAlign := pcmChannels * pcmBitDepth / 8

	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(pcmChannels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(pcmBitDepth))

	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}

func stereoToMono(pcm []byte) []byte {
	frames := len(pcm) / 4
	out := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		left := int16(binary.LittleEndian.Uint16(pcm[i*4:]))
		right := int16(binary.LittleEndian.Uint16(pcm[i*4+2:]))
		mixed := int16((int32(left) + int32(right)) / 2)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(mixed))
	}
	return out
}

// resampleMono16 is a nearest-sample resampler. Good enough for speech
// normalization; the decoder path through ffmpeg does proper filtering.
func resampleMono16(pcm []byte, from, to int) []byte {
	if from == to || from <= 0 || to <= 0 {
		return pcm
	}

	inSamples := len(pcm) / 2
	outSamples := int(int64(inSamples) * int64(to) / int64(from))
	out := make([]byte, outSamples*2)

	for i := 0; i < outSamples; i++ {
		src := int(int64(i) * int64(from) / int64(to))
		if src >= inSamples {
			src = inSamples - 1
		}
		copy(out[i*2:i*2+2], pcm[src*2:src*2+2])
	}
	return out
}
