// Package events provides event publishing functionality.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"nirmana-assistant/internal/models"
	"nirmana-assistant/internal/observability/metrics"
	"nirmana-assistant/internal/schema"
)

// Sink receives conversation events. Publisher is the Kafka-backed implementation.
type Sink interface {
	PublishTranscript(ctx context.Context, ev models.TranscriptDelta) error
	PublishMessage(ctx context.Context, ev models.MessageAppended) error
}

// Publisher publishes conversation events to separate Kafka topics.
type Publisher struct {
	writerTranscript *kafka.Writer
	writerMessage    *kafka.Writer
	principal        string
	topicTranscript  string
	topicMessage     string
	enabled          bool
	validator        *schema.Validator
	metrics          *metrics.Metrics
}

var _ Sink = (*Publisher)(nil)

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers         []string
	TopicTranscript string
	TopicMessage    string
	Principal       string
	Enabled         bool

	// Async makes writes fire-and-forget so a slow broker never stalls the
	// voice dispatch loop. Failures are logged and counted on completion.
	Async bool
}

// New creates a new Kafka event publisher with separate topics for transcript
// deltas and finalized conversation messages.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics
	v := schema.New()

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled:   false,
			validator: v,
			metrics:   m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:       cfg.Principal,
			topicTranscript: cfg.TopicTranscript,
			topicMessage:    cfg.TopicMessage,
			enabled:         false,
			validator:       v,
			metrics:         m,
		}
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	p := &Publisher{
		principal:       cfg.Principal,
		topicTranscript: cfg.TopicTranscript,
		topicMessage:    cfg.TopicMessage,
		enabled:         true,
		validator:       v,
		metrics:         m,
	}
	p.writerTranscript = p.newWriter(cfg, cfg.TopicTranscript, "transcript", transport)
	p.writerMessage = p.newWriter(cfg, cfg.TopicMessage, "message", transport)

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicTranscript", cfg.TopicTranscript).
		Str("topicMessage", cfg.TopicMessage).
		Str("principal", cfg.Principal).
		Bool("async", cfg.Async).
		Msg("Kafka publisher initialized")

	return p
}

func (p *Publisher) newWriter(cfg *Config, topic, eventType string, transport *kafka.Transport) *kafka.Writer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
		Async:        cfg.Async,
	}
	if cfg.Async {
		w.Completion = func(messages []kafka.Message, err error) {
			for range messages {
				p.metrics.RecordKafkaPublish(topic, eventType, err, 0)
			}
			if err != nil {
				log.Error().Err(err).Str("topic", topic).Int("messages", len(messages)).Msg("Async Kafka write failed")
			}
		}
	}
	return w
}

// PublishTranscript publishes a transcript delta to the transcript topic.
func (p *Publisher) PublishTranscript(ctx context.Context, ev models.TranscriptDelta) error {
	if err := p.validator.Validate(ev); err != nil {
		log.Warn().Err(err).Msg("Dropping invalid transcript event")
		return err
	}
	return p.publish(ctx, p.writerTranscript, p.topicTranscript, "transcript", ev.SessionID, ev)
}

// PublishMessage publishes a finalized conversation message to the message topic.
func (p *Publisher) PublishMessage(ctx context.Context, ev models.MessageAppended) error {
	if err := p.validator.Validate(ev); err != nil {
		log.Warn().Err(err).Msg("Dropping invalid message event")
		return err
	}
	key := ev.SessionID
	if key == "" {
		key = ev.Origin
	}
	return p.publish(ctx, p.writerMessage, p.topicMessage, "message", key, ev)
}

// publish is the internal method that writes to a specific Kafka writer.
func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	// If Kafka is disabled, just log
	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	if !writer.Async {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	}
	return nil
}

// Close flushes and closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerTranscript != nil {
		if e := p.writerTranscript.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing transcript writer")
			err = e
		}
	}
	if p.writerMessage != nil {
		if e := p.writerMessage.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing message writer")
			err = e
		}
	}
	return err
}
