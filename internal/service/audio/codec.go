// Package audio provides the PCM conversions used between the capture device,
// the live session wire format and the playback mixer.
package audio

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
)

// Sample rates used by the live voice pipeline.
const (
	InputSampleRate  = 16000
	OutputSampleRate = 24000

	// InputMIMEType is the mime type the live model expects for outbound frames.
	InputMIMEType = "audio/pcm;rate=16000"
)

// ErrDecode is returned for malformed inbound audio payloads.
var ErrDecode = errors.New("audio: malformed payload")

// Buffer is decoded, de-interleaved audio ready for playback.
type Buffer struct {
	SampleRate int
	Channels   int
	Data       [][]float32 // one slice per channel
}

// Frames returns the number of sample frames in the buffer.
func (b *Buffer) Frames() int {
	if b == nil || len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0])
}

// Duration returns the playback length in seconds.
func (b *Buffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// PCM16Bytes serializes samples as little-endian 16-bit PCM.
func PCM16Bytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// EncodeForTransport serializes samples into the text-safe wire encoding.
func EncodeForTransport(samples []int16) string {
	return base64.StdEncoding.EncodeToString(PCM16Bytes(samples))
}

// DecodeFromTransport is the inverse of EncodeForTransport.
func DecodeFromTransport(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return b, nil
}

// FloatToPCM16 scales samples by 32768 and truncates. Values outside [-1, 1)
// wrap the same way a 16-bit typed array store does.
func FloatToPCM16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		out[i] = int16(int32(s * 32768))
	}
	return out
}

// PCM16ToFloat converts little-endian 16-bit PCM bytes to normalized floats.
// A trailing odd byte is ignored.
func PCM16ToFloat(b []byte) []float32 {
	out := make([]float32, len(b)/2)
	for i := range out {
		out[i] = float32(int16(binary.LittleEndian.Uint16(b[i*2:]))) / 32768
	}
	return out
}

// DecodePCM16 de-interleaves 16-bit PCM into a playable buffer.
func DecodePCM16(b []byte, sampleRate, channels int) (*Buffer, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("%w: invalid channel count %d", ErrDecode, channels)
	}
	if len(b)%(2*channels) != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of %d-channel frames", ErrDecode, len(b), channels)
	}
	frames := len(b) / 2 / channels
	buf := &Buffer{
		SampleRate: sampleRate,
		Channels:   channels,
		Data:       make([][]float32, channels),
	}
	for ch := 0; ch < channels; ch++ {
		data := make([]float32, frames)
		for i := 0; i < frames; i++ {
			off := (i*channels + ch) * 2
			data[i] = float32(int16(binary.LittleEndian.Uint16(b[off:]))) / 32768
		}
		buf.Data[ch] = data
	}
	return buf, nil
}

// PutPCM16 writes samples into dst as clamped little-endian 16-bit PCM.
// dst must hold at least 2*len(samples) bytes.
func PutPCM16(dst []byte, samples []float32) {
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(int16(s*32767)))
	}
}
