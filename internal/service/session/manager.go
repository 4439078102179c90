package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"nirmana-assistant/internal/events"
	"nirmana-assistant/internal/i18n"
	"nirmana-assistant/internal/models"
	"nirmana-assistant/internal/observability/logging"
	"nirmana-assistant/internal/observability/metrics"
	"nirmana-assistant/internal/service/audio"
	"nirmana-assistant/internal/service/capture"
	"nirmana-assistant/internal/service/conversation"
	"nirmana-assistant/internal/service/live"
	"nirmana-assistant/internal/service/playback"
)

// Dependencies are the collaborators a Manager drives.
type Dependencies struct {
	Capture      *capture.Pipeline
	Output       playback.OutputOpener
	Transport    live.Transport
	Conversation *conversation.Log
	IDs          *conversation.IDGenerator

	// Sink receives transcript deltas and appended messages. Optional.
	Sink events.Sink
}

// Config tunes the sessions a Manager opens.
type Config struct {
	Live           live.Config
	Language       i18n.Language
	ConnectTimeout time.Duration
}

// Manager runs at most one voice session at a time.
type Manager struct {
	deps    Dependencies
	live    live.Config
	timeout time.Duration
	log     zerolog.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	current *VoiceSession
	lang    i18n.Language
}

// NewManager creates a manager. Conversation and IDs default to fresh values.
func NewManager(deps Dependencies, cfg Config) *Manager {
	if deps.Conversation == nil {
		deps.Conversation = conversation.NewLog()
	}
	if deps.IDs == nil {
		deps.IDs = conversation.NewIDGenerator()
	}
	if cfg.Language == "" {
		cfg.Language = i18n.Default
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 15 * time.Second
	}
	return &Manager{
		deps:    deps,
		live:    cfg.Live,
		timeout: cfg.ConnectTimeout,
		log:     logging.WithComponent("voice"),
		metrics: metrics.DefaultMetrics,
		lang:    cfg.Language,
	}
}

// SetLanguage changes the language of user-visible error messages.
func (m *Manager) SetLanguage(lang i18n.Language) {
	m.mu.Lock()
	m.lang = lang
	m.mu.Unlock()
}

// State returns the current session's state, or StateIdle if there is none.
func (m *Manager) State() State {
	if s := m.Current(); s != nil {
		return s.State()
	}
	return StateIdle
}

// Listening reports whether a session is connecting or active.
func (m *Manager) Listening() bool {
	st := m.State()
	return st == StateConnecting || st == StateActive
}

// Current returns the most recent session, or nil.
func (m *Manager) Current() *VoiceSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// PendingTranscript returns the in-progress turn's accumulated deltas.
func (m *Manager) PendingTranscript() (input, output string) {
	if s := m.Current(); s != nil {
		return s.transcript.Pending()
	}
	return "", ""
}

// Start acquires the microphone, the speaker and the transport concurrently
// and begins dispatching events. On any failure everything already acquired
// is released, a bot error message is appended and the manager is left idle.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.current != nil && !m.current.State().CanStart() {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	vs := newVoiceSession(m.deps.IDs.Next("voice"))
	vs.setCancel(cancel)
	if err := vs.lifecycle.Connect(); err != nil {
		m.mu.Unlock()
		return err
	}
	m.current = vs
	m.mu.Unlock()

	vs.log.Info().Str("model", m.live.Model).Msg("Starting voice session")


	var (
		handle *capture.Handle
		out    playback.Output
		sess   live.Session
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h, err := m.deps.Capture.Open(gctx)
		if err != nil {
			return err
		}
		handle = h
		return nil
	})
	g.Go(func() error {
		o, err := m.deps.Output(audio.OutputSampleRate, 1)
		if err != nil {
			if !errors.Is(err, playback.ErrPlaybackUnavailable) {
				err = fmt.Errorf("%w: %v", playback.ErrPlaybackUnavailable, err)
			}
			return err
		}
		out = o
		return nil
	})
	g.Go(func() error {
		cfg := m.live
		cfg.SessionID = vs.ID()
		s, err := m.deps.Transport.Connect(gctx, cfg)
		if err != nil {
			return err
		}
		sess = s
		return nil
	})

	err := g.Wait()
	if err == nil {
		sched := playback.NewScheduler(out, audio.OutputSampleRate, 1)
		if !vs.attach(sess, handle, out, sched) {
			err = context.Canceled
		}
	}
	if err != nil {
		release(sess, handle, out)
		close(vs.acquired)
		stopped := !vs.lifecycle.Fail()
		if !stopped {
			m.metrics.RecordStartFailure(failureReason(err))
			vs.log.Error().Err(err).Msg("Failed to start voice session")
			m.appendBot(vs, messageFor(err))
		}
		close(vs.done)

		m.mu.Lock()
		if m.current == vs {
			m.current = nil
		}
		m.mu.Unlock()
		if stopped {
			return context.Canceled
		}
		return err
	}
	close(vs.acquired)

	m.metrics.RecordSessionStart()
	go m.dispatch(vs, sess)
	return nil
}

func release(sess live.Session, handle *capture.Handle, out playback.Output) {
	if sess != nil {
		sess.Close()
	}
	if handle != nil {
		handle.Stop()
	}
	if out != nil {
		out.Close()
	}
}

// Stop ends the current session. Calling it when nothing is running, or
// twice, is a no-op.
func (m *Manager) Stop() {
	vs := m.Current()
	if vs == nil {
		return
	}
	if err := vs.lifecycle.BeginClose(); err != nil {
		return
	}
	vs.log.Info().Msg("Stopping voice session")
	vs.abortAcquisition()
	vs.teardown()
	vs.lifecycle.Finish()
	m.metrics.RecordSessionEnd(StateClosed.String(), time.Since(vs.startedAt).Seconds())
}

// dispatch consumes the session's events in order until the stream ends,
// the session stops, or the remote fails to acknowledge setup in time.
func (m *Manager) dispatch(vs *VoiceSession, sess live.Session) {
	defer close(vs.done)

	setup := time.NewTimer(m.timeout)
	defer setup.Stop()
	awaitingSetup := setup.C
	events := sess.Events()

	for {
		var ev live.Event
		select {
		case <-awaitingSetup:
			m.fail(vs, fmt.Errorf("%w: setup not acknowledged within %s", live.ErrTransport, m.timeout))
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			ev = e
		}

		// Events still buffered after a stop or failure are dropped.
		st := vs.State()
		if st != StateConnecting && st != StateActive {
			return
		}

		switch ev.Kind {
		case live.EventOpened:
			if st == StateActive {
				continue
			}
			if !m.onOpened(vs) {
				return
			}
			awaitingSetup = nil

		case live.EventInputTranscript:
			vs.transcript.AppendInput(ev.Text)
			m.publishDelta(vs, models.DirectionInput, ev.Text)

		case live.EventOutputTranscript:
			vs.transcript.AppendOutput(ev.Text)
			m.publishDelta(vs, models.DirectionOutput, ev.Text)

		case live.EventAudio:
			sched := vs.playback()
			if sched == nil {
				continue
			}
			if _, err := sched.Schedule(ev.Audio); err != nil {
				m.fail(vs, err)
				return
			}

		case live.EventInterrupted:
			if sched := vs.playback(); sched != nil {
				n := sched.InterruptAll()
				m.metrics.RecordInterruption()
				vs.log.Debug().Int("stopped", n).Msg("Model interrupted, playback flushed")
			}

		case live.EventTurnComplete:
			m.completeTurn(vs)

		case live.EventError:
			m.fail(vs, ev.Err)
			return

		case live.EventClosed:
			m.remoteClosed(vs)
			return
		}
	}
}

// onOpened wires capture to the transport. It reports false when the
// session did not become active.
func (m *Manager) onOpened(vs *VoiceSession) bool {
	if err := vs.lifecycle.Open(); err != nil {
		vs.log.Debug().Err(err).Msg("Ignoring open on inactive session")
		return false
	}
	handle, sess := vs.input()
	if handle == nil || sess == nil {
		return false
	}

	err := handle.Start(func(frame []int16) {
		if err := sess.Send(frame); err != nil && !errors.Is(err, live.ErrSessionClosed) {
			vs.log.Warn().Err(err).Msg("Failed to send capture frame")
		}
	})
	if err != nil {
		m.fail(vs, err)
		return false
	}
	vs.log.Info().Msg("Voice session active")
	return true
}

// completeTurn flushes both transcripts into a user/bot message pair,
// appended together so no other message can land between them.
func (m *Manager) completeTurn(vs *VoiceSession) {
	in, out := vs.transcript.Flush()
	user := models.Message{ID: m.deps.IDs.Next("user"), Sender: models.SenderUser, Text: in}
	bot := models.Message{ID: m.deps.IDs.Next("bot"), Sender: models.SenderBot, Text: out}

	m.deps.Conversation.Append(user, bot)
	m.metrics.RecordTurnCompleted()
	m.metrics.RecordMessage(string(models.SenderUser), "voice")
	m.metrics.RecordMessage(string(models.SenderBot), "voice")
	m.publishMessage(vs, user)
	m.publishMessage(vs, bot)

	vs.log.Debug().Int("inputChars", len(in)).Int("outputChars", len(out)).Msg("Turn complete")
}

// fail moves the session to ERRORED, tears it down and tells the user.
// It does nothing if the session is already stopping.
func (m *Manager) fail(vs *VoiceSession, err error) {
	if !vs.lifecycle.Fail() {
		vs.log.Debug().Err(err).Msg("Ignoring error on stopping session")
		return
	}
	vs.log.Error().Err(err).Msg("Voice session failed")
	m.metrics.RecordVoiceError(failureReason(err))

	vs.teardown()
	m.metrics.RecordSessionEnd(StateErrored.String(), time.Since(vs.startedAt).Seconds())
	m.appendBot(vs, messageFor(err))
}

func (m *Manager) remoteClosed(vs *VoiceSession) {
	if err := vs.lifecycle.BeginClose(); err != nil {
		return
	}
	vs.log.Info().Msg("Live session closed by remote")
	vs.teardown()
	vs.lifecycle.Finish()
	m.metrics.RecordSessionEnd(StateClosed.String(), time.Since(vs.startedAt).Seconds())
}

func (m *Manager) appendBot(vs *VoiceSession, key i18n.Key) {
	m.mu.Lock()
	lang := m.lang
	m.mu.Unlock()

	msg := models.Message{
		ID:     m.deps.IDs.Next("error"),
		Sender: models.SenderBot,
		Text:   i18n.T(lang, key),
	}
	m.deps.Conversation.Append(msg)
	m.metrics.RecordMessage(string(models.SenderBot), "voice")
	m.publishMessage(vs, msg)
}

func (m *Manager) publishDelta(vs *VoiceSession, direction, text string) {
	if m.deps.Sink == nil {
		return
	}
	err := m.deps.Sink.PublishTranscript(context.Background(), models.TranscriptDelta{
		EventType: models.EventTranscriptDelta,
		SessionID: vs.ID(),
		Direction: direction,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		vs.log.Warn().Err(err).Str("direction", direction).Msg("Failed to publish transcript delta")
	}
}

func (m *Manager) publishMessage(vs *VoiceSession, msg models.Message) {
	if m.deps.Sink == nil {
		return
	}
	err := m.deps.Sink.PublishMessage(context.Background(), models.MessageAppended{
		EventType: models.EventMessageAppended,
		SessionID: vs.ID(),
		Origin:    "voice",
		Message:   msg,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		vs.log.Warn().Err(err).Str("messageId", msg.ID).Msg("Failed to publish message")
	}
}

// messageFor picks the user-visible message for a failure. Technical
// detail stays in the logs.
func messageFor(err error) i18n.Key {
	if errors.Is(err, capture.ErrCaptureUnavailable) {
		return i18n.MicrophoneError
	}
	return i18n.VoiceError
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, capture.ErrCaptureUnavailable):
		return "capture"
	case errors.Is(err, playback.ErrPlaybackUnavailable):
		return "playback"
	case errors.Is(err, audio.ErrDecode):
		return "decode"
	case errors.Is(err, live.ErrTransport):
		return "transport"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "other"
	}
}
