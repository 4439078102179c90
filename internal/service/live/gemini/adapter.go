// Package gemini provides a live.Transport backed by the Gemini Live API.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"nirmana-assistant/internal/observability/logging"
	"nirmana-assistant/internal/service/audio"
	"nirmana-assistant/internal/service/live"
)

// conn is the subset of *genai.Session the adapter drives.
type conn interface {
	SendRealtimeInput(input genai.LiveRealtimeInput) error
	Receive() (*genai.LiveServerMessage, error)
	Close() error
}

type dialFunc func(ctx context.Context, model string, cfg *genai.LiveConnectConfig) (conn, error)

// Transport implements live.Transport using google.golang.org/genai.
type Transport struct {
	dial dialFunc
}

// New creates a transport on an existing genai client.
func New(client *genai.Client) *Transport {
	return &Transport{
		dial: func(ctx context.Context, model string, cfg *genai.LiveConnectConfig) (conn, error) {
			s, err := client.Live.Connect(ctx, model, cfg)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
	}
}

// Connect opens a live session with audio responses and the requested
// transcriptions.
func (t *Transport) Connect(ctx context.Context, cfg live.Config) (live.Session, error) {
	c, err := t.dial(ctx, cfg.Model, connectConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("%w: connect %s: %v", live.ErrTransport, cfg.Model, err)
	}

	s := &Session{
		conn:   c,
		stream: live.NewEventStream(64),
		log:    logging.WithTransport(cfg.SessionID, "genai", cfg.Model),
	}
	s.outbox = live.NewOutbox(cfg.SendQueue, s.write, s.fail)
	go s.receive()
	return s, nil
}

func connectConfig(cfg live.Config) *genai.LiveConnectConfig {
	cc := &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
	}
	if cfg.SystemInstruction != "" {
		cc.SystemInstruction = genai.NewContentFromText(cfg.SystemInstruction, genai.RoleUser)
	}
	if cfg.InputTranscription {
		cc.InputAudioTranscription = &genai.AudioTranscriptionConfig{}
	}
	if cfg.OutputTranscription {
		cc.OutputAudioTranscription = &genai.AudioTranscriptionConfig{}
	}
	return cc
}

// Session is a live session on the Gemini Live API.
type Session struct {
	conn   conn
	stream *live.EventStream
	outbox *live.Outbox
	log    zerolog.Logger
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

// Close stops sending and tears down the connection.
func (s *Session) Close() error {
	s.outbox.Close()
	s.stream.Stop()
	return s.conn.Close()
}

func (s *Session) write(frame []int16) error {
	return s.conn.SendRealtimeInput(genai.LiveRealtimeInput{
		Media: &genai.Blob{
			Data:     audio.PCM16Bytes(frame),
			MIMEType: audio.InputMIMEType,
		},
	})
}

func (s *Session) fail(err error) {
	s.log.Error().Err(err).Msg("Realtime input failed, closing session")
	s.stream.Fail(fmt.Errorf("%w: send: %v", live.ErrTransport, err))
	s.conn.Close()
}

func (s *Session) receive() {
	for {
		msg, err := s.conn.Receive()
		if err != nil {
			s.log.Debug().Err(err).Msg("Receive loop ended")
			s.stream.Finish(err)
			return
		}
		for _, ev := range translate(msg) {
			if !s.stream.Emit(ev) {
				s.stream.Finish(nil)
				return
			}
		}
	}
}

// translate splits one server message into events in delivery order.
func translate(msg *genai.LiveServerMessage) []live.Event {
	if msg == nil {
		return nil
	}
	var out []live.Event
	if msg.SetupComplete != nil {
		out = append(out, live.Event{Kind: live.EventOpened})
	}

	sc := msg.ServerContent
	if sc == nil {
		return out
	}
	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		out = append(out, live.Event{Kind: live.EventInputTranscript, Text: sc.InputTranscription.Text})
	}
	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		out = append(out, live.Event{Kind: live.EventOutputTranscript, Text: sc.OutputTranscription.Text})
	}
	if sc.ModelTurn != nil {
		for _, p := range sc.ModelTurn.Parts {
			if p == nil || p.InlineData == nil || len(p.InlineData.Data) == 0 {
				continue
			}
			if !strings.HasPrefix(p.InlineData.MIMEType, "audio/") {
				continue
			}
			out = append(out, live.Event{Kind: live.EventAudio, Audio: p.InlineData.Data})
		}
	}
	if sc.Interrupted {
		out = append(out, live.Event{Kind: live.EventInterrupted})
	}
	if sc.TurnComplete {
		out = append(out, live.Event{Kind: live.EventTurnComplete})
	}
	return out
}
