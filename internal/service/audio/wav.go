package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// WAV header is 44 bytes for standard PCM files
const wavHeaderSize = 44

// WAVFormat describes the PCM layout of a WAV stream.
type WAVFormat struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// ReadWAVHeader validates a canonical 44-byte PCM header and leaves r
// positioned at the first sample.
func ReadWAVHeader(r io.Reader) (WAVFormat, error) {
	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return WAVFormat{}, fmt.Errorf("read wav header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return WAVFormat{}, errors.New("not a valid WAV file")
	}

	audioFormat := binary.LittleEndian.Uint16(header[20:22])
	if audioFormat != 1 { // PCM
		return WAVFormat{}, fmt.Errorf("only PCM format supported, got %d", audioFormat)
	}

	f := WAVFormat{
		Channels:      int(binary.LittleEndian.Uint16(header[22:24])),
		SampleRate:    int(binary.LittleEndian.Uint32(header[24:28])),
		BitsPerSample: int(binary.LittleEndian.Uint16(header[34:36])),
	}
	if f.BitsPerSample != 16 {
		return WAVFormat{}, fmt.Errorf("only 16-bit samples supported, got %d", f.BitsPerSample)
	}
	if f.Channels <= 0 || f.SampleRate <= 0 {
		return WAVFormat{}, fmt.Errorf("invalid wav format: %+v", f)
	}
	return f, nil
}

// WriteWAVHeader writes a canonical 16-bit PCM header for dataLen bytes of samples.
func WriteWAVHeader(w io.Writer, sampleRate, channels int, dataLen uint32) error {
	header := make([]byte, wavHeaderSize)
	blockAlign := channels * 2

	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 36+dataLen)
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1)
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], 16)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataLen)

	_, err := w.Write(header)
	return err
}
