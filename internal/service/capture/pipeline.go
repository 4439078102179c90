// Package capture turns microphone input into fixed-size 16 kHz PCM frames.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"nirmana-assistant/internal/observability/logging"
	"nirmana-assistant/internal/service/audio"
)

// FrameSize is the number of samples per emitted frame.
const FrameSize = 4096

// ErrCaptureUnavailable is returned when the input device cannot be opened.
var ErrCaptureUnavailable = errors.New("capture: microphone unavailable")

// Device is an opened audio input. Start delivers mono float samples in
// [-1, 1] on a device-owned goroutine until Close.
type Device interface {
	Start(onSamples func([]float32)) error
	Close() error
}

// Opener opens an input device at the requested format.
type Opener func(sampleRate, channels int) (Device, error)

// FrameFunc receives one capture frame.
type FrameFunc func(frame []int16)

// Pipeline acquires capture handles from an Opener.
type Pipeline struct {
	open       Opener
	sampleRate int
	frameSize  int
	log        zerolog.Logger
}

// NewPipeline creates a pipeline producing audio.InputSampleRate mono frames.
func NewPipeline(open Opener) *Pipeline {
	return &Pipeline{
		open:       open,
		sampleRate: audio.InputSampleRate,
		frameSize:  FrameSize,
		log:        logging.WithComponent("capture"),
	}
}

// Open acquires the input device. Failures wrap ErrCaptureUnavailable.
func (p *Pipeline) Open(ctx context.Context) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dev, err := p.open(p.sampleRate, 1)
	if err != nil {
		p.log.Warn().Err(err).Msg("Failed to open input device")
		return nil, fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}
	return &Handle{
		device: dev,
		framer: newFramer(p.frameSize),
		log:    p.log,
	}, nil
}

// Handle is an acquired capture device.
type Handle struct {
	device Device
	framer *framer
	log    zerolog.Logger

	mu      sync.Mutex
	onFrame FrameFunc
	started bool
	stopped bool
}

// Start begins delivering frames to onFrame. Frames are never delivered
// after Stop returns.
func (h *Handle) Start(onFrame FrameFunc) error {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return ErrCaptureUnavailable
	}
	if h.started {
		h.mu.Unlock()
		return nil
	}
	h.started = true
	h.onFrame = onFrame
	h.mu.Unlock()

	if err := h.device.Start(h.deliver); err != nil {
		return fmt.Errorf("%w: start: %v", ErrCaptureUnavailable, err)
	}
	return nil
}

func (h *Handle) deliver(samples []float32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped || h.onFrame == nil {
		return
	}
	h.framer.write(samples, func(frame []float32) {
		h.onFrame(audio.FloatToPCM16(frame))
	})
}

// Stop disconnects the callback and releases the device. Idempotent.
func (h *Handle) Stop() error {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return nil
	}
	h.stopped = true
	h.onFrame = nil
	h.mu.Unlock()

	if err := h.device.Close(); err != nil {
		h.log.Warn().Err(err).Msg("Error closing input device")
		return err
	}
	return nil
}

// framer accumulates arbitrary-length sample runs into fixed-size frames.
type framer struct {
	size int
	buf  []float32
}

func newFramer(size int) *framer {
	return &framer{size: size, buf: make([]float32, 0, size)}
}

func (f *framer) write(samples []float32, emit func([]float32)) {
	for len(samples) > 0 {
		n := f.size - len(f.buf)
		if n > len(samples) {
			n = len(samples)
		}
		f.buf = append(f.buf, samples[:n]...)
		samples = samples[n:]
		if len(f.buf) == f.size {
			emit(f.buf)
			f.buf = make([]float32, 0, f.size)
		}
	}
}
