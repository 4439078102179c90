// Package assistant wraps the text, image generation and image editing
// models. Failures never propagate to callers: text requests degrade to a
// localized apology and image requests to a nil result.
package assistant

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"nirmana-assistant/internal/i18n"
	"nirmana-assistant/internal/models"
	"nirmana-assistant/internal/observability/logging"
	"nirmana-assistant/internal/observability/metrics"
)

// Models is the subset of *genai.Models the service calls.
type Models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// Config selects models and request behaviour.
type Config struct {
	ChatModel  string
	ImageModel string
	EditModel  string

	// SearchGrounding attaches the Google Search tool to text requests and
	// returns the cited pages as sources.
	SearchGrounding bool

	Timeout time.Duration
}

// DefaultConfig returns the models used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		ChatModel:  "gemini-2.5-flash",
		ImageModel: "imagen-4.0-generate-001",
		EditModel:  "gemini-2.5-flash-image",
		Timeout:    60 * time.Second,
	}
}

// Reply is the outcome of a text request.
type Reply struct {
	Text    string
	Sources []models.Source
}

// Image is a generated or edited picture.
type Image struct {
	Data     []byte
	MIMEType string
}

// DataURL renders the image as an inline data URL.
func (i *Image) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", i.MIMEType, base64.StdEncoding.EncodeToString(i.Data))
}

// Extension returns a file extension matching the MIME type.
func (i *Image) Extension() string {
	switch i.MIMEType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

var errNoContent = errors.New("assistant: empty response")

// Service calls the generative models.
type Service struct {
	models  Models
	cfg     Config
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// New creates a service. Zero config fields take DefaultConfig values.
func New(m Models, cfg Config) *Service {
	def := DefaultConfig()
	if cfg.ChatModel == "" {
		cfg.ChatModel = def.ChatModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = def.ImageModel
	}
	if cfg.EditModel == "" {
		cfg.EditModel = def.EditModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Service{
		models:  m,
		cfg:     cfg,
		log:     logging.WithComponent("assistant"),
		metrics: metrics.DefaultMetrics,
	}
}

// SendTextMessage asks the chat model. It always returns a displayable reply.
func (s *Service) SendTextMessage(ctx context.Context, prompt string, lang i18n.Language) Reply {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	instruction := systemInstruction
	if lang == i18n.Kannada {
		instruction += kannadaDirective
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(instruction)}},
	}
	if s.cfg.SearchGrounding {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	resp, err := s.models.GenerateContent(ctx, s.cfg.ChatModel, genai.Text(prompt), cfg)
	var reply Reply
	if err == nil {
		reply, err = replyFrom(resp)
	}
	s.metrics.RecordAssistantRequest("text", err == nil, time.Since(start).Seconds())
	if err != nil {
		s.log.Error().Err(err).Str("model", s.cfg.ChatModel).Msg("Text request failed")
		return Reply{Text: i18n.T(lang, i18n.TextError)}
	}
	return reply
}

func replyFrom(resp *genai.GenerateContentResponse) (Reply, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return Reply{}, errNoContent
	}
	c := resp.Candidates[0]
	var sb strings.Builder
	if c.Content != nil {
		for _, p := range c.Content.Parts {
			if p != nil && p.Text != "" {
				sb.WriteString(p.Text)
			}
		}
	}
	if sb.Len() == 0 {
		return Reply{}, errNoContent
	}
	return Reply{Text: sb.String(), Sources: sourcesFrom(c.GroundingMetadata)}, nil
}

func sourcesFrom(gm *genai.GroundingMetadata) []models.Source {
	if gm == nil {
		return nil
	}
	var out []models.Source
	seen := make(map[string]bool)
	for _, ch := range gm.GroundingChunks {
		if ch == nil || ch.Web == nil || ch.Web.URI == "" || seen[ch.Web.URI] {
			continue
		}
		seen[ch.Web.URI] = true
		out = append(out, models.Source{URI: ch.Web.URI, Title: ch.Web.Title})
	}
	return out
}

// GenerateImage renders one square JPEG for prompt, or nil on failure.
func (s *Service) GenerateImage(ctx context.Context, prompt string) *Image {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	resp, err := s.models.GenerateImages(ctx, s.cfg.ImageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: "image/jpeg",
		AspectRatio:    "1:1",
	})
	var img *Image
	if err == nil {
		img, err = imageFrom(resp)
	}
	s.metrics.RecordAssistantRequest("image", err == nil, time.Since(start).Seconds())
	if err != nil {
		s.log.Error().Err(err).Str("model", s.cfg.ImageModel).Msg("Image generation failed")
		return nil
	}
	return img
}

func imageFrom(resp *genai.GenerateImagesResponse) (*Image, error) {
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return nil, errNoContent
	}
	gi := resp.GeneratedImages[0]
	if gi == nil || gi.Image == nil || len(gi.Image.ImageBytes) == 0 {
		return nil, errNoContent
	}
	mime := gi.Image.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	return &Image{Data: gi.Image.ImageBytes, MIMEType: mime}, nil
}

// EditImage applies prompt to an existing picture, or returns nil on failure.
func (s *Service) EditImage(ctx context.Context, data []byte, mimeType, prompt string) *Image {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			genai.NewPartFromBytes(data, mimeType),
			genai.NewPartFromText(prompt),
		},
	}}
	resp, err := s.models.GenerateContent(ctx, s.cfg.EditModel, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityImage)},
	})
	var img *Image
	if err == nil {
		img, err = inlineImageFrom(resp)
	}
	s.metrics.RecordAssistantRequest("edit", err == nil, time.Since(start).Seconds())
	if err != nil {
		s.log.Error().Err(err).Str("model", s.cfg.EditModel).Msg("Image edit failed")
		return nil
	}
	return img
}

func inlineImageFrom(resp *genai.GenerateContentResponse) (*Image, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errNoContent
	}
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && p.InlineData != nil && len(p.InlineData.Data) > 0 {
			return &Image{Data: p.InlineData.Data, MIMEType: p.InlineData.MIMEType}, nil
		}
	}
	return nil, errNoContent
}
