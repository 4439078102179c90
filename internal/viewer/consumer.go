package viewer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"nirmana-assistant/internal/observability/logging"
)

// Reader is the part of *kafka.Reader the consumer needs.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// NewReader reads partition 0 of topic starting from lookback ago. It skips
// consumer groups so it works through a port-forward.
func NewReader(ctx context.Context, brokers []string, topic string, lookback time.Duration) *kafka.Reader {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   brokers,
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	if lookback > 0 {
		if err := r.SetOffsetAt(ctx, time.Now().Add(-lookback)); err != nil {
			log := logging.WithComponent("viewer")
			log.Warn().Err(err).Str("topic", topic).Msg("Could not seek, reading from start")
		}
	}
	return r
}

// Consume forwards every JSON message from r to hub until ctx is done.
// Read errors are retried after retryDelay.
func Consume(ctx context.Context, hub *Hub, topic string, r Reader, retryDelay time.Duration) {
	log := logging.WithComponent("viewer").With().Str("topic", topic).Logger()
	defer r.Close()

	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Msg("Kafka read error")
			select {
			case <-time.After(retryDelay):
				continue
			case <-ctx.Done():
				return
			}
		}
		if !json.Valid(msg.Value) {
			log.Warn().Int64("offset", msg.Offset).Msg("Skipping non-JSON message")
			continue
		}
		logEvent(log, msg.Value)
		hub.Publish(ctx, Envelope{Topic: topic, Event: json.RawMessage(msg.Value)})
	}
}

func logEvent(log zerolog.Logger, raw []byte) {
	var head struct {
		EventType string `json:"eventType"`
		SessionID string `json:"sessionId"`
	}
	_ = json.Unmarshal(raw, &head)
	log.Debug().Str("eventType", head.EventType).Str("sessionId", head.SessionID).Msg("Relaying event")
}
