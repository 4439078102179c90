// Package wsproto implements live.Transport directly on the BidiGenerateContent
// websocket protocol, without the genai SDK.
package wsproto

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"nirmana-assistant/internal/observability/logging"
	"nirmana-assistant/internal/service/audio"
	"nirmana-assistant/internal/service/live"
)

// DefaultEndpoint is the public Gemini Live websocket endpoint.
const DefaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// Transport dials the live endpoint with gorilla/websocket.
type Transport struct {
	endpoint string
	apiKey   string
	dialer   *websocket.Dialer
}

// New creates a websocket transport. An empty endpoint selects DefaultEndpoint.
func New(endpoint, apiKey string) *Transport {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Transport{
		endpoint: endpoint,
		apiKey:   apiKey,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Connect dials, sends the setup message and starts the receive loop.
func (t *Transport) Connect(ctx context.Context, cfg live.Config) (live.Session, error) {
	u, err := url.Parse(t.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: endpoint: %v", live.ErrTransport, err)
	}
	if t.apiKey != "" {
		q := u.Query()
		q.Set("key", t.apiKey)
		u.RawQuery = q.Encode()
	}

	ws, _, err := t.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial: %v", live.ErrTransport, err)
	}

	if err := ws.WriteJSON(clientMessage{Setup: setupFor(cfg)}); err != nil {
		ws.Close()
		return nil, fmt.Errorf("%w: setup: %v", live.ErrTransport, err)
	}

	s := &Session{
		ws:     ws,
		stream: live.NewEventStream(64),
		log:    logging.WithTransport(cfg.SessionID, "websocket", cfg.Model),
	}
	s.outbox = live.NewOutbox(cfg.SendQueue, s.write, s.fail)
	go s.receive()
	return s, nil
}

func setupFor(cfg live.Config) *setup {
	model := cfg.Model
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	st := &setup{
		Model:            model,
		GenerationConfig: generationConfig{ResponseModalities: []string{"AUDIO"}},
	}
	if cfg.SystemInstruction != "" {
		st.SystemInstruction = &content{Parts: []part{{Text: cfg.SystemInstruction}}}
	}
	if cfg.InputTranscription {
		st.InputAudioTranscription = &struct{}{}
	}
	if cfg.OutputTranscription {
		st.OutputAudioTranscription = &struct{}{}
	}
	return st
}

// Session is a live session over a raw websocket.
type Session struct {
	ws        *websocket.Conn
	stream    *live.EventStream
	outbox    *live.Outbox
	log       zerolog.Logger
	closeOnce sync.Once
}

var _ live.Session = (*Session)(nil)

// Send enqueues one capture frame.
func (s *Session) Send(frame []int16) error {
	return s.outbox.Push(frame)
}

// Events returns the inbound event stream.
func (s *Session) Events() <-chan live.Event {
	return s.stream.Events()
}

// Close sends a close frame and drops the connection without waiting.
func (s *Session) Close() error {
	s.outbox.Close()
	s.stream.Stop()
	return s.shutdown()
}

func (s *Session) shutdown() error {
	var err error
	s.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		s.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		err = s.ws.Close()
	})
	return err
}

func (s *Session) write(frame []int16) error {
	return s.ws.WriteJSON(clientMessage{RealtimeInput: &realtimeInput{
		MediaChunks: []blob{{MIMEType: audio.InputMIMEType, Data: audio.EncodeForTransport(frame)}},
	}})
}

func (s *Session) fail(err error) {
	s.log.Error().Err(err).Msg("Realtime input failed, closing session")
	s.stream.Fail(fmt.Errorf("%w: send: %v", live.ErrTransport, err))
	s.shutdown()
}

func (s *Session) receive() {
	for {
		_, data, err := s.ws.ReadMessage()
		if err != nil {
			s.log.Debug().Err(err).Msg("Receive loop ended")
			s.stream.Finish(err)
			return
		}

		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.stream.Fail(fmt.Errorf("%w: %v", audio.ErrDecode, err))
			s.shutdown()
			s.stream.Finish(nil)
			return
		}
		if msg.GoAway != nil {
			s.log.Warn().Str("timeLeft", msg.GoAway.TimeLeft).Msg("Server announced disconnect")
		}

		events, err := translate(&msg)
		for _, ev := range events {
			if !s.stream.Emit(ev) {
				s.stream.Finish(nil)
				return
			}
		}
		if err != nil {
			s.stream.Fail(err)
			s.shutdown()
			s.stream.Finish(nil)
			return
		}
	}
}

// translate returns the events of one server message in delivery order. A
// malformed audio part stops translation; events before it are still returned.
func translate(msg *serverMessage) ([]live.Event, error) {
	var out []live.Event
	if msg.SetupComplete != nil {
		out = append(out, live.Event{Kind: live.EventOpened})
	}

	sc := msg.ServerContent
	if sc == nil {
		return out, nil
	}
	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		out = append(out, live.Event{Kind: live.EventInputTranscript, Text: sc.InputTranscription.Text})
	}
	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		out = append(out, live.Event{Kind: live.EventOutputTranscript, Text: sc.OutputTranscription.Text})
	}
	if sc.ModelTurn != nil {
		for _, p := range sc.ModelTurn.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			if !strings.HasPrefix(p.InlineData.MIMEType, "audio/") {
				continue
			}
			pcm, err := audio.DecodeFromTransport(p.InlineData.Data)
			if err != nil {
				return out, err
			}
			out = append(out, live.Event{Kind: live.EventAudio, Audio: pcm})
		}
	}
	if sc.Interrupted {
		out = append(out, live.Event{Kind: live.EventInterrupted})
	}
	if sc.TurnComplete {
		out = append(out, live.Event{Kind: live.EventTurnComplete})
	}
	return out, nil
}
