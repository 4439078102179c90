package playback

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"nirmana-assistant/internal/service/audio"
)

// MalgoSpeaker drives a Mixer from the default playback device.
type MalgoSpeaker struct {
	*Mixer

	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	scratch []float32

	closeOnce sync.Once
}

// OpenMalgoSpeaker opens the default speaker. Only mono is supported.
func OpenMalgoSpeaker(sampleRate, channels int) (Output, error) {
	if channels != 1 {
		return nil, fmt.Errorf("%w: %d channels requested, mono only", ErrPlaybackUnavailable, channels)
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: init audio context: %v", ErrPlaybackUnavailable, err)
	}

	s := &MalgoSpeaker{Mixer: NewMixer(sampleRate), ctx: ctx}

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatS16
	cfg.Playback.Channels = 1
	cfg.SampleRate = uint32(sampleRate)
	cfg.PeriodSizeInMilliseconds = 20

	dev, err := malgo.InitDevice(ctx.Context, cfg, malgo.DeviceCallbacks{Data: s.onData})
	if err != nil {
		ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("%w: init playback device: %v", ErrPlaybackUnavailable, err)
	}
	s.device = dev

	if err := dev.Start(); err != nil {
		dev.Uninit()
		ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("%w: start playback device: %v", ErrPlaybackUnavailable, err)
	}
	return s, nil
}

// onData runs on the device thread.
func (s *MalgoSpeaker) onData(output, _ []byte, frames uint32) {
	n := int(frames)
	if cap(s.scratch) < n {
		s.scratch = make([]float32, n)
	}
	buf := s.scratch[:n]
	s.Render(buf)
	audio.PutPCM16(output, buf)
}

// Close stops the device and silences the mixer. Idempotent.
func (s *MalgoSpeaker) Close() error {
	s.closeOnce.Do(func() {
		s.device.Stop()
		s.device.Uninit()
		s.ctx.Uninit()
		s.ctx.Free()
		s.Mixer.Close()
	})
	return nil
}
