package capture

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	resampling "github.com/tphakala/go-audio-resampling"

	"nirmana-assistant/internal/service/audio"
)

// WAVOptions configures a file-backed input device.
type WAVOptions struct {
	// Realtime paces delivery at the playback rate of the file.
	Realtime bool

	// TrailingSilence keeps the device producing silence after the file ends,
	// giving the remote voice activity detection time to close the turn.
	TrailingSilence time.Duration

	// ChunkSamples is the delivery granularity. Default 1024.
	ChunkSamples int
}

// WAVOpener returns an Opener that plays path as if it were a microphone.
func WAVOpener(path string, opts WAVOptions) Opener {
	return func(sampleRate, channels int) (Device, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return NewWAVDevice(f, sampleRate, opts)
	}
}

// NewWAVDevice reads a 16-bit PCM WAV stream fully, downmixes it to mono and
// resamples it to sampleRate.
func NewWAVDevice(r io.Reader, sampleRate int, opts WAVOptions) (Device, error) {
	format, err := audio.ReadWAVHeader(r)
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read wav data: %w", err)
	}

	samples := downmix(raw, format.Channels)
	if format.SampleRate != sampleRate {
		samples, err = resample(samples, format.SampleRate, sampleRate)
		if err != nil {
			return nil, err
		}
	}

	if opts.ChunkSamples <= 0 {
		opts.ChunkSamples = 1024
	}
	return &wavDevice{
		samples:    samples,
		sampleRate: sampleRate,
		opts:       opts,
		stop:       make(chan struct{}),
	}, nil
}

func downmix(raw []byte, channels int) []float64 {
	if channels <= 0 {
		channels = 1
	}
	frames := len(raw) / (2 * channels)
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			off := (i*channels + ch) * 2
			sum += float64(int16(binary.LittleEndian.Uint16(raw[off:]))) / 32768
		}
		out[i] = sum / float64(channels)
	}
	return out
}

func resample(in []float64, from, to int) ([]float64, error) {
	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(from),
		OutputRate: float64(to),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}
	out, err := rs.Process(in)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}
	return out, nil
}

type wavDevice struct {
	samples    []float64
	sampleRate int
	opts       WAVOptions

	once sync.Once
	stop chan struct{}
}

func (d *wavDevice) Start(onSamples func([]float32)) error {
	go d.run(onSamples)
	return nil
}

func (d *wavDevice) run(onSamples func([]float32)) {
	chunk := d.opts.ChunkSamples
	interval := time.Duration(chunk) * time.Second / time.Duration(d.sampleRate)
	var tick <-chan time.Time
	if d.opts.Realtime {
		t := time.NewTicker(interval)
		defer t.Stop()
		tick = t.C
	}

	silence := int(d.opts.TrailingSilence.Seconds() * float64(d.sampleRate))
	total := len(d.samples) + silence

	for pos := 0; pos < total; pos += chunk {
		if tick != nil {
			select {
			case <-tick:
			case <-d.stop:
				return
			}
		} else {
			select {
			case <-d.stop:
				return
			default:
			}
		}

		end := pos + chunk
		if end > total {
			end = total
		}
		out := make([]float32, end-pos)
		for i := range out {
			if pos+i < len(d.samples) {
				out[i] = float32(d.samples[pos+i])
			}
		}
		onSamples(out)
	}
}

func (d *wavDevice) Close() error {
	d.once.Do(func() { close(d.stop) })
	return nil
}
