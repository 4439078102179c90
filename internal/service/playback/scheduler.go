package playback

import (
	"math"
	"sync"

	"github.com/rs/zerolog"

	"nirmana-assistant/internal/observability/logging"
	"nirmana-assistant/internal/observability/metrics"
	"nirmana-assistant/internal/service/audio"
)

// Scheduled describes where a chunk landed on the output clock.
type Scheduled struct {
	StartAt  float64
	Duration float64
}

// Scheduler queues reply chunks back to back on an Output.
//
// Each chunk starts at max(cursor, now) and moves the cursor to its end, so
// chunks never overlap and never start in the past. InterruptAll stops
// everything in flight and resets the cursor.
type Scheduler struct {
	output     Output
	sampleRate int
	channels   int
	log        zerolog.Logger
	metrics    *metrics.Metrics

	mu       sync.Mutex
	cursor   float64
	inFlight map[Source]struct{}
}

// NewScheduler creates a scheduler decoding PCM at the given format.
func NewScheduler(output Output, sampleRate, channels int) *Scheduler {
	return &Scheduler{
		output:     output,
		sampleRate: sampleRate,
		channels:   channels,
		log:        logging.WithComponent("playback"),
		metrics:    metrics.DefaultMetrics,
		inFlight:   make(map[Source]struct{}),
	}
}

// Schedule decodes one chunk of 16-bit PCM and queues it after the previous
// one. Decode failures wrap audio.ErrDecode and schedule nothing.
func (s *Scheduler) Schedule(pcm []byte) (Scheduled, error) {
	buf, err := audio.DecodePCM16(pcm, s.sampleRate, s.channels)
	if err != nil {
		return Scheduled{}, err
	}

	s.mu.Lock()
	startAt := math.Max(s.cursor, s.output.Now())
	src := s.output.NewSource(buf)
	src.OnEnded(func() { s.remove(src) })
	src.Start(startAt)
	s.cursor = startAt + buf.Duration()
	s.inFlight[src] = struct{}{}
	n := len(s.inFlight)
	s.mu.Unlock()

	s.metrics.RecordAudioScheduled(buf.Duration())
	s.metrics.SetPlaybackInFlight(n)
	s.log.Trace().Float64("startAt", startAt).Float64("duration", buf.Duration()).Msg("Scheduled chunk")

	return Scheduled{StartAt: startAt, Duration: buf.Duration()}, nil
}

// InterruptAll stops every in-flight source and resets the cursor. It
// returns how many sources were stopped.
func (s *Scheduler) InterruptAll() int {
	s.mu.Lock()
	sources := make([]Source, 0, len(s.inFlight))
	for src := range s.inFlight {
		sources = append(sources, src)
	}
	s.inFlight = make(map[Source]struct{})
	s.cursor = 0
	s.mu.Unlock()

	for _, src := range sources {
		src.Stop()
	}
	s.metrics.SetPlaybackInFlight(0)
	if len(sources) > 0 {
		s.log.Debug().Int("stopped", len(sources)).Msg("Playback interrupted")
	}
	return len(sources)
}

// InFlight returns the number of scheduled, unfinished sources.
func (s *Scheduler) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inFlight)
}

// Cursor returns the end time of the last scheduled chunk.
func (s *Scheduler) Cursor() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

func (s *Scheduler) remove(src Source) {
	s.mu.Lock()
	delete(s.inFlight, src)
	n := len(s.inFlight)
	s.mu.Unlock()
	s.metrics.SetPlaybackInFlight(n)
}
