package assistant

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"nirmana-assistant/internal/events"
	"nirmana-assistant/internal/i18n"
	"nirmana-assistant/internal/models"
	"nirmana-assistant/internal/observability/logging"
	"nirmana-assistant/internal/observability/metrics"
	"nirmana-assistant/internal/service/conversation"
	"nirmana-assistant/internal/storage"
)

// Generator is the model surface the chat flow depends on. *Service
// implements it.
type Generator interface {
	SendTextMessage(ctx context.Context, prompt string, lang i18n.Language) Reply
	GenerateImage(ctx context.Context, prompt string) *Image
	EditImage(ctx context.Context, data []byte, mimeType, prompt string) *Image
}

var _ Generator = (*Service)(nil)

// Chat drives the text conversation. It shares the conversation log with
// the voice pipeline.
type Chat struct {
	gen     Generator
	convo   *conversation.Log
	ids     *conversation.IDGenerator
	images  storage.FileStore
	sink    events.Sink
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewChat wires the chat flow. images and sink may be nil.
func NewChat(gen Generator, convo *conversation.Log, ids *conversation.IDGenerator, images storage.FileStore, sink events.Sink) *Chat {
	return &Chat{
		gen:     gen,
		convo:   convo,
		ids:     ids,
		images:  images,
		sink:    sink,
		log:     logging.WithComponent("chat"),
		metrics: metrics.DefaultMetrics,
	}
}

// Send appends the user's text, asks the model and appends the reply.
// The bot message is returned.
func (c *Chat) Send(ctx context.Context, text string, lang i18n.Language) models.Message {
	c.append(ctx, models.Message{ID: c.ids.Next("user"), Sender: models.SenderUser, Text: text})

	reply := c.gen.SendTextMessage(ctx, text, lang)
	bot := models.Message{
		ID:      c.ids.Next("bot"),
		Sender:  models.SenderBot,
		Text:    reply.Text,
		Sources: reply.Sources,
	}
	c.append(ctx, bot)
	return bot
}

// Generate creates an image from prompt and stores it. The returned image
// is nil on failure, in which case a localized error was appended instead.
func (c *Chat) Generate(ctx context.Context, prompt string, lang i18n.Language) (*Image, string) {
	c.append(ctx, models.Message{ID: c.ids.Next("user"), Sender: models.SenderUser, Text: prompt})
	img := c.gen.GenerateImage(ctx, prompt)
	return c.finishImage(ctx, img, lang, i18n.ImageGenError)
}

// Edit applies prompt to src and stores the result, like Generate.
func (c *Chat) Edit(ctx context.Context, src *Image, prompt string, lang i18n.Language) (*Image, string) {
	c.append(ctx, models.Message{ID: c.ids.Next("user"), Sender: models.SenderUser, Text: prompt})
	img := c.gen.EditImage(ctx, src.Data, src.MIMEType, prompt)
	return c.finishImage(ctx, img, lang, i18n.EditError)
}

func (c *Chat) finishImage(ctx context.Context, img *Image, lang i18n.Language, failKey i18n.Key) (*Image, string) {
	if img == nil {
		c.append(ctx, models.Message{ID: c.ids.Next("error"), Sender: models.SenderBot, Text: i18n.T(lang, failKey)})
		return nil, ""
	}

	location := ""
	if c.images != nil {
		key := fmt.Sprintf("images/%s/%s%s", time.Now().UTC().Format("2006-01-02"), uuid.NewString(), img.Extension())
		loc, err := c.images.Put(ctx, key, bytes.NewReader(img.Data), img.MIMEType)
		if err != nil {
			c.log.Error().Err(err).Str("key", key).Msg("Failed to store image")
		} else {
			location = loc
		}
	}

	text := i18n.T(lang, i18n.ImageSaved)
	if location != "" {
		text += " " + location
	}
	c.append(ctx, models.Message{ID: c.ids.Next("bot"), Sender: models.SenderBot, Text: text})
	return img, location
}

func (c *Chat) append(ctx context.Context, msg models.Message) {
	c.convo.Append(msg)
	c.metrics.RecordMessage(string(msg.Sender), "text")
	if c.sink == nil {
		return
	}
	err := c.sink.PublishMessage(ctx, models.MessageAppended{
		EventType: models.EventMessageAppended,
		Origin:    "text",
		Message:   msg,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		c.log.Warn().Err(err).Str("messageId", msg.ID).Msg("Failed to publish message")
	}
}
