package capture

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

// MalgoOpener opens the default system microphone through miniaudio.
func MalgoOpener(sampleRate, channels int) (Device, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}

	d := &malgoDevice{ctx: ctx, channels: channels}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = uint32(channels)
	cfg.SampleRate = uint32(sampleRate)
	cfg.PeriodSizeInMilliseconds = 20

	dev, err := malgo.InitDevice(ctx.Context, cfg, malgo.DeviceCallbacks{Data: d.onData})
	if err != nil {
		ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("init capture device: %w", err)
	}
	d.device = dev
	return d, nil
}

type malgoDevice struct {
	ctx      *malgo.AllocatedContext
	device   *malgo.Device
	channels int

	mu        sync.Mutex
	onSamples func([]float32)
	closed    bool
}

func (d *malgoDevice) Start(onSamples func([]float32)) error {
	d.mu.Lock()
	d.onSamples = onSamples
	d.mu.Unlock()
	return d.device.Start()
}

func (d *malgoDevice) onData(_, input []byte, frames uint32) {
	d.mu.Lock()
	cb := d.onSamples
	d.mu.Unlock()
	if cb == nil {
		return
	}

	out := make([]float32, frames)
	stride := 4 * d.channels
	for i := range out {
		off := i * stride
		if off+4 > len(input) {
			out = out[:i]
			break
		}
		// first channel only
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(input[off:]))
	}
	cb(out)
}

func (d *malgoDevice) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.onSamples = nil
	d.mu.Unlock()

	d.device.Stop()
	d.device.Uninit()
	d.ctx.Uninit()
	d.ctx.Free()
	return nil
}
