package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"nirmana-assistant/internal/i18n"
	"nirmana-assistant/internal/models"
	"nirmana-assistant/internal/service/capture"
	"nirmana-assistant/internal/service/conversation"
	"nirmana-assistant/internal/service/live"
	"nirmana-assistant/internal/service/live/mock"
	"nirmana-assistant/internal/service/playback"
)

// micDevice lets the test play samples into the capture pipeline.
type micDevice struct {
	mu       sync.Mutex
	push     func([]float32)
	closed   int
	startErr error
}

func (d *micDevice) Start(on func([]float32)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.startErr != nil {
		return d.startErr
	}
	d.push = on
	return nil
}

func (d *micDevice) Close() error {
	d.mu.Lock()
	d.closed++
	d.mu.Unlock()
	return nil
}

// speak waits for capture to be wired, then delivers whole frames.
func (d *micDevice) speak(t *testing.T, frames int) {
	t.Helper()
	var push func([]float32)
	waitFor(t, "capture start", func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		push = d.push
		return push != nil
	})
	push(make([]float32, frames*capture.FrameSize))
}

func (d *micDevice) closeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// recordingSink captures published events.
type recordingSink struct {
	mu       sync.Mutex
	deltas   []models.TranscriptDelta
	messages []models.MessageAppended
}

func (s *recordingSink) PublishTranscript(_ context.Context, ev models.TranscriptDelta) error {
	s.mu.Lock()
	s.deltas = append(s.deltas, ev)
	s.mu.Unlock()
	return nil
}

func (s *recordingSink) PublishMessage(_ context.Context, ev models.MessageAppended) error {
	s.mu.Lock()
	s.messages = append(s.messages, ev)
	s.mu.Unlock()
	return nil
}

type fixture struct {
	mic       *micDevice
	transport *mock.Transport
	convo     *conversation.Log
	sink      *recordingSink
	manager   *Manager
}

func newFixture(opts mock.Options, micErr error) *fixture {
	f := &fixture{
		mic:       &micDevice{},
		transport: mock.New(opts),
		convo:     conversation.NewLog(),
		sink:      &recordingSink{},
	}
	pipeline := capture.NewPipeline(func(int, int) (capture.Device, error) {
		if micErr != nil {
			return nil, micErr
		}
		return f.mic, nil
	})
	f.manager = NewManager(Dependencies{
		Capture: pipeline,
		Output: func(sampleRate, _ int) (playback.Output, error) {
			return playback.NewMixer(sampleRate), nil
		},
		Transport:    f.transport,
		Conversation: f.convo,
		Sink:         f.sink,
	}, Config{Live: live.Config{Model: "mock", InputTranscription: true, OutputTranscription: true}})
	return f
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (f *fixture) waitState(t *testing.T, want State) {
	t.Helper()
	waitFor(t, want.String(), func() bool { return f.manager.State() == want })
}

func assertReleased(t *testing.T, vs *VoiceSession) {
	t.Helper()
	tr, c, o := vs.Resources()
	if tr || c || o {
		t.Errorf("expected all resources released, got transport=%v capture=%v output=%v", tr, c, o)
	}
}

func TestStart_MicrophoneFailureLeavesIdle(t *testing.T) {
	f := newFixture(mock.Options{}, errors.New("permission denied"))

	err := f.manager.Start(context.Background())
	if !errors.Is(err, capture.ErrCaptureUnavailable) {
		t.Fatalf("expected ErrCaptureUnavailable, got %v", err)
	}
	if f.manager.State() != StateIdle {
		t.Errorf("expected StateIdle, got %v", f.manager.State())
	}
	if f.manager.Current() != nil || f.manager.Listening() {
		t.Error("expected no current session after failed start")
	}

	msgs := f.convo.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected one error message, got %d", len(msgs))
	}
	if msgs[0].Sender != models.SenderBot || msgs[0].Text != i18n.T(i18n.English, i18n.MicrophoneError) {
		t.Errorf("unexpected error message: %+v", msgs[0])
	}
}

func TestStart_TransportFailureReleasesMicrophone(t *testing.T) {
	f := newFixture(mock.Options{ConnectError: errors.New("unauthorized")}, nil)

	if err := f.manager.Start(context.Background()); err == nil {
		t.Fatal("expected start to fail")
	}
	if f.mic.closeCount() != 1 {
		t.Errorf("expected microphone released once, got %d", f.mic.closeCount())
	}
	if f.manager.State() != StateIdle {
		t.Errorf("expected StateIdle, got %v", f.manager.State())
	}
	msgs := f.convo.Messages()
	if len(msgs) != 1 || msgs[0].Text != i18n.T(i18n.English, i18n.VoiceError) {
		t.Errorf("expected one voice error message, got %+v", msgs)
	}
}

func TestStart_ErrorMessageFollowsLanguage(t *testing.T) {
	f := newFixture(mock.Options{}, errors.New("no device"))
	f.manager.SetLanguage(i18n.Kannada)

	f.manager.Start(context.Background())

	msgs := f.convo.Messages()
	if len(msgs) != 1 || msgs[0].Text != i18n.T(i18n.Kannada, i18n.MicrophoneError) {
		t.Errorf("expected Kannada microphone error, got %+v", msgs)
	}
}

func TestSession_TurnProducesMessagePair(t *testing.T) {
	f := newFixture(mock.Options{Turns: []mock.Turn{{
		AfterFrames: 1,
		Input:       []string{"Hel", "lo"},
		Output:      []string{"Hi ", "there"},
		AudioChunks: 2,
	}}}, nil)

	if err := f.manager.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.waitState(t, StateActive)
	if !f.manager.Listening() {
		t.Error("expected Listening while active")
	}
	vs := f.manager.Current()
	if tr, c, o := vs.Resources(); !tr || !c || !o {
		t.Fatalf("expected resources held while active: %v %v %v", tr, c, o)
	}

	f.mic.speak(t, 1)
	waitFor(t, "turn messages", func() bool { return f.convo.Len() == 2 })

	msgs := f.convo.Messages()
	if msgs[0].Sender != models.SenderUser || msgs[0].Text != "Hello" {
		t.Errorf("unexpected user message: %+v", msgs[0])
	}
	if msgs[1].Sender != models.SenderBot || msgs[1].Text != "Hi there" {
		t.Errorf("unexpected bot message: %+v", msgs[1])
	}
	if in, out := f.manager.PendingTranscript(); in != "" || out != "" {
		t.Errorf("expected transcripts reset, got %q / %q", in, out)
	}
	if n := vs.playback().InFlight(); n != 2 {
		t.Errorf("expected 2 chunks scheduled, got %d", n)
	}

	f.manager.Stop()
	if f.manager.State() != StateClosed {
		t.Errorf("expected StateClosed, got %v", f.manager.State())
	}
	assertReleased(t, vs)
	<-vs.Done()
}

func TestSession_StopIsIdempotent(t *testing.T) {
	f := newFixture(mock.Options{}, nil)

	f.manager.Stop() // nothing running

	f.manager.Start(context.Background())
	f.waitState(t, StateActive)

	f.manager.Stop()
	f.manager.Stop()

	if f.manager.State() != StateClosed {
		t.Errorf("expected StateClosed, got %v", f.manager.State())
	}
	if f.mic.closeCount() != 1 {
		t.Errorf("expected microphone closed once, got %d", f.mic.closeCount())
	}
	if f.manager.Listening() {
		t.Error("expected not listening after stop")
	}
	assertReleased(t, f.manager.Current())
}

func TestSession_InterruptFlushesPlayback(t *testing.T) {
	f := newFixture(mock.Options{Turns: []mock.Turn{{
		AfterFrames: 1,
		Output:      []string{"Long answer"},
		AudioChunks: 3,
		Interrupt:   true,
	}}}, nil)

	f.manager.Start(context.Background())
	f.waitState(t, StateActive)
	vs := f.manager.Current()

	f.mic.speak(t, 1)
	waitFor(t, "turn messages", func() bool { return f.convo.Len() == 2 })

	sched := vs.playback()
	if sched.InFlight() != 0 || sched.Cursor() != 0 {
		t.Errorf("expected playback flushed, in flight=%d cursor=%v", sched.InFlight(), sched.Cursor())
	}
	f.manager.Stop()
}

func TestSession_ErrorEventTearsDown(t *testing.T) {
	f := newFixture(mock.Options{Turns: []mock.Turn{{
		AfterFrames: 1,
		Fail:        errors.New("quota exceeded"),
	}}}, nil)

	f.manager.Start(context.Background())
	f.waitState(t, StateActive)
	vs := f.manager.Current()

	f.mic.speak(t, 1)
	f.waitState(t, StateErrored)
	<-vs.Done()

	assertReleased(t, vs)
	if f.manager.Listening() {
		t.Error("expected not listening after error")
	}
	msgs := f.convo.Messages()
	if len(msgs) != 1 || msgs[0].Text != i18n.T(i18n.English, i18n.VoiceError) {
		t.Errorf("expected one voice error message, got %+v", msgs)
	}

	// a fresh session can be started after an error
	if err := f.manager.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if f.manager.Current() == vs {
		t.Error("expected a new session")
	}
	f.manager.Stop()
}

func TestSession_MalformedAudioIsFatal(t *testing.T) {
	f := newFixture(mock.Options{Turns: []mock.Turn{{
		AfterFrames: 1,
		Audio:       [][]byte{{0x01, 0x02, 0x03}},
	}}}, nil)

	f.manager.Start(context.Background())
	f.waitState(t, StateActive)
	f.mic.speak(t, 1)

	f.waitState(t, StateErrored)
	assertReleased(t, f.manager.Current())
}

func TestSession_RemoteCloseEndsClosed(t *testing.T) {
	f := newFixture(mock.Options{Turns: []mock.Turn{}, CloseAtEnd: true}, nil)

	f.manager.Start(context.Background())
	f.waitState(t, StateClosed)

	vs := f.manager.Current()
	<-vs.Done()
	assertReleased(t, vs)
	if f.convo.Len() != 0 {
		t.Errorf("expected no messages on clean close, got %d", f.convo.Len())
	}
}

func TestStart_RejectsWhileRunning(t *testing.T) {
	f := newFixture(mock.Options{}, nil)

	f.manager.Start(context.Background())
	defer f.manager.Stop()

	if err := f.manager.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("expected ErrAlreadyRunning, got %v", err)
	}
	if f.transport.Sessions() != 1 {
		t.Errorf("expected a single transport session, got %d", f.transport.Sessions())
	}
}

func TestSession_PublishesToSink(t *testing.T) {
	f := newFixture(mock.Options{Turns: []mock.Turn{{
		AfterFrames: 1,
		Input:       []string{"Hel", "lo"},
		Output:      []string{"Hi"},
	}}}, nil)

	f.manager.Start(context.Background())
	f.waitState(t, StateActive)
	sessionID := f.manager.Current().ID()
	f.mic.speak(t, 1)
	waitFor(t, "turn messages", func() bool { return f.convo.Len() == 2 })
	f.manager.Stop()

	f.sink.mu.Lock()
	defer f.sink.mu.Unlock()
	if len(f.sink.deltas) != 3 {
		t.Errorf("expected 3 transcript deltas, got %d", len(f.sink.deltas))
	}
	if len(f.sink.messages) != 2 {
		t.Fatalf("expected 2 published messages, got %d", len(f.sink.messages))
	}
	for _, m := range f.sink.messages {
		if m.SessionID != sessionID || m.Origin != "voice" {
			t.Errorf("unexpected message envelope: %+v", m)
		}
	}
}

// scriptedTransport hands out one session preloaded with events. When
// blockConnect is set, Connect instead waits for its context to end.
type scriptedTransport struct {
	blockConnect bool
	events       []live.Event
	cfg          live.Config
}

func (tr *scriptedTransport) Connect(ctx context.Context, cfg live.Config) (live.Session, error) {
	tr.cfg = cfg
	if tr.blockConnect {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	s := &scriptedSession{events: make(chan live.Event, len(tr.events)+1)}
	for _, ev := range tr.events {
		s.events <- ev
	}
	return s, nil
}

type scriptedSession struct {
	events chan live.Event
}

func (s *scriptedSession) Send([]int16) error        { return nil }
func (s *scriptedSession) Events() <-chan live.Event { return s.events }
func (s *scriptedSession) Close() error              { return nil }

type scriptedFixture struct {
	mic     *micDevice
	opens   int
	mu      sync.Mutex
	convo   *conversation.Log
	manager *Manager
}

func newScriptedFixture(tr live.Transport, mic *micDevice, connectTimeout time.Duration) *scriptedFixture {
	f := &scriptedFixture{mic: mic, convo: conversation.NewLog()}
	pipeline := capture.NewPipeline(func(int, int) (capture.Device, error) {
		f.mu.Lock()
		f.opens++
		f.mu.Unlock()
		return mic, nil
	})
	f.manager = NewManager(Dependencies{
		Capture: pipeline,
		Output: func(sampleRate, _ int) (playback.Output, error) {
			return playback.NewMixer(sampleRate), nil
		},
		Transport:    tr,
		Conversation: f.convo,
	}, Config{Live: live.Config{Model: "scripted"}, ConnectTimeout: connectTimeout})
	return f
}

func (f *scriptedFixture) micOpens() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens
}

func TestStop_WhileConnectingReleasesMicrophone(t *testing.T) {
	f := newScriptedFixture(&scriptedTransport{blockConnect: true}, &micDevice{}, 10*time.Second)

	result := make(chan error, 1)
	begun := time.Now()
	go func() { result <- f.manager.Start(context.Background()) }()

	waitFor(t, "connecting with microphone open", func() bool {
		return f.manager.State() == StateConnecting && f.micOpens() == 1
	})

	f.manager.Stop()
	if f.mic.closeCount() != 1 {
		t.Errorf("expected microphone closed when Stop returns, got %d closes", f.mic.closeCount())
	}

	select {
	case err := <-result:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
	if elapsed := time.Since(begun); elapsed > 5*time.Second {
		t.Errorf("expected Start to unwind promptly, took %v", elapsed)
	}
	if f.manager.Listening() {
		t.Error("expected not listening after stop")
	}
	if f.convo.Len() != 0 {
		t.Errorf("expected no error message for a user stop, got %+v", f.convo.Messages())
	}
}

func TestSession_CaptureStartFailureIgnoresBufferedTurn(t *testing.T) {
	mic := &micDevice{startErr: errors.New("device busy")}
	f := newScriptedFixture(&scriptedTransport{events: []live.Event{
		{Kind: live.EventOpened},
		{Kind: live.EventInputTranscript, Text: "hello"},
		{Kind: live.EventOutputTranscript, Text: "hi"},
		{Kind: live.EventTurnComplete},
	}}, mic, time.Second)

	if err := f.manager.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	vs := f.manager.Current()
	<-vs.Done()

	if vs.State() != StateErrored {
		t.Errorf("expected StateErrored, got %v", vs.State())
	}
	assertReleased(t, vs)
	msgs := f.convo.Messages()
	if len(msgs) != 1 || msgs[0].Text != i18n.T(i18n.English, i18n.MicrophoneError) {
		t.Errorf("expected only the microphone error message, got %+v", msgs)
	}
}

func TestSession_MissingSetupAcknowledgementFails(t *testing.T) {
	f := newScriptedFixture(&scriptedTransport{}, &micDevice{}, 50*time.Millisecond)

	if err := f.manager.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	vs := f.manager.Current()
	f.waitState(t, StateErrored)
	<-vs.Done()

	assertReleased(t, vs)
	if f.mic.closeCount() != 1 {
		t.Errorf("expected microphone released, got %d closes", f.mic.closeCount())
	}
	msgs := f.convo.Messages()
	if len(msgs) != 1 || msgs[0].Text != i18n.T(i18n.English, i18n.VoiceError) {
		t.Errorf("expected one voice error message, got %+v", msgs)
	}
}

func (f *scriptedFixture) waitState(t *testing.T, want State) {
	t.Helper()
	waitFor(t, want.String(), func() bool { return f.manager.State() == want })
}

func TestStart_PassesSessionIDToTransport(t *testing.T) {
	tr := &scriptedTransport{events: []live.Event{{Kind: live.EventOpened}}}
	f := newScriptedFixture(tr, &micDevice{}, time.Second)

	if err := f.manager.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer f.manager.Stop()

	if tr.cfg.SessionID == "" || tr.cfg.SessionID != f.manager.Current().ID() {
		t.Errorf("expected session id %q, got %q", f.manager.Current().ID(), tr.cfg.SessionID)
	}
	if tr.cfg.Model != "scripted" {
		t.Errorf("expected model to pass through, got %q", tr.cfg.Model)
	}
}
