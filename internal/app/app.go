// Package app wires the assistant's services together.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"nirmana-assistant/internal/config"
	"nirmana-assistant/internal/events"
	"nirmana-assistant/internal/i18n"
	"nirmana-assistant/internal/models"
	"nirmana-assistant/internal/observability/logging"
	"nirmana-assistant/internal/service/assistant"
	"nirmana-assistant/internal/service/capture"
	"nirmana-assistant/internal/service/conversation"
	"nirmana-assistant/internal/service/live"
	"nirmana-assistant/internal/service/live/gemini"
	"nirmana-assistant/internal/service/live/mock"
	"nirmana-assistant/internal/service/live/wsproto"
	"nirmana-assistant/internal/service/playback"
	"nirmana-assistant/internal/service/prefs"
	"nirmana-assistant/internal/service/session"
	"nirmana-assistant/internal/storage"
)

// ErrMissingAPIKey is returned when a Gemini-backed component is configured
// without credentials.
var ErrMissingAPIKey = errors.New("app: GEMINI_API_KEY (or API_KEY) is required")

// Options override the defaults New derives from configuration.
type Options struct {
	Models        assistant.Models
	Transport     live.Transport
	CaptureOpener capture.Opener
	OutputOpener  playback.OutputOpener
	Images        storage.FileStore
	Sink          events.Sink

	// PrefsInMemory keeps preferences for the process lifetime only.
	PrefsInMemory bool

	// SkipLogging leaves the global logger untouched.
	SkipLogging bool
}

// Application holds process-wide state.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config

	Prefs        *prefs.Store
	Conversation *conversation.Log
	IDs          *conversation.IDGenerator
	Assistant    *assistant.Service
	Chat         *assistant.Chat
	Voice        *session.Manager
	Images       storage.FileStore

	publisher *events.Publisher

	mu      sync.RWMutex
	lang    i18n.Language
	running bool
}

// New constructs every service from cfg. Components named in opts replace
// their configured counterparts.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Application, error) {
	if !opts.SkipLogging {
		logging.Init(logging.Config{
			Level:  cfg.Observability.LogLevel,
			Format: cfg.Observability.LogFormat,
		})
	}
	a := &Application{
		Cfg:    cfg,
		Logger: logging.WithComponent("application"),
		IDs:    conversation.NewIDGenerator(),
	}

	var err error
	if opts.PrefsInMemory {
		a.Prefs, err = prefs.Open(prefs.Options{InMemory: true})
	} else {
		a.Prefs, err = prefs.Open(prefs.Options{Dir: cfg.Prefs.Dir})
	}
	if err != nil {
		return nil, err
	}
	if a.lang, err = a.Prefs.Language(); err != nil {
		a.Prefs.Close()
		return nil, err
	}

	if err := a.build(ctx, opts); err != nil {
		a.Prefs.Close()
		if a.publisher != nil {
			a.publisher.Close()
		}
		return nil, err
	}

	a.Logger.Info().
		Str("language", string(a.lang)).
		Str("voiceTransport", cfg.Voice.Transport).
		Msg("Nirmana assistant application created")
	return a, nil
}

func (a *Application) build(ctx context.Context, opts Options) error {
	cfg := a.Cfg

	var client *genai.Client
	genaiClient := func() (*genai.Client, error) {
		if client != nil {
			return client, nil
		}
		if cfg.Gemini.APIKey == "" {
			return nil, ErrMissingAPIKey
		}
		c, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.Gemini.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("app: genai client: %w", err)
		}
		client = c
		return c, nil
	}

	modelsAPI := opts.Models
	if modelsAPI == nil {
		c, err := genaiClient()
		switch {
		case errors.Is(err, ErrMissingAPIKey):
			a.Logger.Warn().Msg("No Gemini API key, text and image requests will fail")
			modelsAPI = offlineModels{}
		case err != nil:
			return err
		default:
			modelsAPI = c.Models
		}
	}

	transport := opts.Transport
	if transport == nil {
		var err error
		transport, err = newTransport(cfg.Voice, cfg.Gemini.APIKey, genaiClient)
		if err != nil {
			return err
		}
	}

	sink := opts.Sink
	if sink == nil {
		a.publisher = events.New(&events.Config{
			Enabled:         cfg.Kafka.Enabled,
			Brokers:         cfg.Kafka.Brokers,
			TopicTranscript: cfg.Kafka.TopicTranscript,
			TopicMessage:    cfg.Kafka.TopicMessage,
			Principal:       cfg.Kafka.Principal,
			Async:           cfg.Kafka.Async,
		})
		sink = a.publisher
	}

	a.Images = opts.Images
	if a.Images == nil {
		var err error
		if a.Images, err = newImageStore(cfg.Images); err != nil {
			return err
		}
	}

	policy, err := live.ParseQueuePolicy(cfg.Voice.QueuePolicy)
	if err != nil {
		return err
	}

	captureOpener := opts.CaptureOpener
	if captureOpener == nil {
		captureOpener = capture.MalgoOpener
	}
	outputOpener := opts.OutputOpener
	if outputOpener == nil {
		outputOpener = playback.OpenMalgoSpeaker
	}

	a.Conversation = conversation.NewLog(models.Message{
		ID:     "initial",
		Sender: models.SenderBot,
		Text:   i18n.T(a.lang, i18n.InitialBotMessage),
	})

	a.Assistant = assistant.New(modelsAPI, assistant.Config{
		ChatModel:       cfg.Gemini.ChatModel,
		ImageModel:      cfg.Gemini.ImageModel,
		EditModel:       cfg.Gemini.EditModel,
		SearchGrounding: cfg.Gemini.SearchGrounding,
		Timeout:         cfg.Gemini.RequestTimeout,
	})
	a.Chat = assistant.NewChat(a.Assistant, a.Conversation, a.IDs, a.Images, sink)

	a.Voice = session.NewManager(session.Dependencies{
		Capture:      capture.NewPipeline(captureOpener),
		Output:       outputOpener,
		Transport:    transport,
		Conversation: a.Conversation,
		IDs:          a.IDs,
		Sink:         sink,
	}, session.Config{
		Live: live.Config{
			Model:               cfg.Gemini.LiveModel,
			InputTranscription:  cfg.Voice.InputTranscription,
			OutputTranscription: cfg.Voice.OutputTranscription,
			SendQueue:           live.QueueConfig{Size: cfg.Voice.QueueSize, Policy: policy},
		},
		Language:       a.lang,
		ConnectTimeout: cfg.Voice.ConnectTimeout,
	})
	return nil
}

func newTransport(cfg config.VoiceConfig, apiKey string, client func() (*genai.Client, error)) (live.Transport, error) {
	switch cfg.Transport {
	case "genai", "":
		c, err := client()
		if err != nil {
			return nil, err
		}
		return gemini.New(c), nil
	case "websocket":
		if apiKey == "" {
			return nil, ErrMissingAPIKey
		}
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = wsproto.DefaultEndpoint
		}
		return wsproto.New(endpoint, apiKey), nil
	case "mock":
		return mock.New(mock.Options{}), nil
	default:
		return nil, fmt.Errorf("app: unknown voice transport %q", cfg.Transport)
	}
}

func newImageStore(cfg config.ImagesConfig) (storage.FileStore, error) {
	switch cfg.Backend {
	case "local", "":
		return storage.NewLocal(cfg.Dir)
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, errors.New("app: IMAGES_S3_BUCKET is required for the s3 backend")
		}
		client := storage.NewS3Client(storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PathStyle: cfg.S3PathStyle,
		})
		return storage.NewS3(client, cfg.S3Bucket, cfg.S3Prefix), nil
	default:
		return nil, fmt.Errorf("app: unknown image backend %q", cfg.Backend)
	}
}

// Language returns the active UI language.
func (a *Application) Language() i18n.Language {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lang
}

// SetLanguage persists lang and applies it to the voice pipeline.
func (a *Application) SetLanguage(lang i18n.Language) error {
	if err := a.Prefs.SetLanguage(lang); err != nil {
		return err
	}
	a.mu.Lock()
	a.lang = lang
	a.mu.Unlock()
	a.Voice.SetLanguage(lang)
	return nil
}

// Ready reports whether Start has run and Shutdown has not.
func (a *Application) Ready() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

// Start marks the application as serving.
func (a *Application) Start() error {
	a.mu.Lock()
	a.StartupTime = time.Now().UTC()
	a.running = true
	a.mu.Unlock()

	a.Logger.Info().
		Time("startupTime", a.StartupTime).
		Msg("Nirmana assistant starting")
	return nil
}

// Shutdown stops any voice session and releases storage and brokers.
func (a *Application) Shutdown() {
	a.mu.Lock()
	a.running = false
	a.mu.Unlock()

	a.Logger.Info().Msg("Nirmana assistant shutting down")
	a.Voice.Stop()
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing publisher")
		}
	}
	if err := a.Prefs.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Error closing preference store")
	}
}

// offlineModels answers every request with ErrMissingAPIKey so the chat
// degrades to its apology instead of refusing to start.
type offlineModels struct{}

func (offlineModels) GenerateContent(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return nil, ErrMissingAPIKey
}

func (offlineModels) GenerateImages(context.Context, string, string, *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	return nil, ErrMissingAPIKey
}
