// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Service       ServiceConfig
	Gemini        GeminiConfig
	Voice         VoiceConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
	Prefs         PrefsConfig
	Images        ImagesConfig
}

type ServiceConfig struct {
	Principal string
}

type GeminiConfig struct {
	APIKey          string
	ChatModel       string
	ImageModel      string
	EditModel       string
	LiveModel       string
	SearchGrounding bool
	RequestTimeout  time.Duration
}

// VoiceConfig selects the live transport and tunes the session pipeline.
type VoiceConfig struct {
	Transport           string // genai, websocket, mock
	Endpoint            string // websocket transport only
	QueueSize           int
	QueuePolicy         string // drop-oldest, block
	ConnectTimeout      time.Duration
	InputTranscription  bool
	OutputTranscription bool
}

type KafkaConfig struct {
	Enabled         bool
	Brokers         []string
	TopicTranscript string
	TopicMessage    string
	Principal       string
	Async           bool
}

type ObservabilityConfig struct {
	LogLevel    string
	LogFormat   string
	MetricsAddr string // empty disables the HTTP server
}

type PrefsConfig struct {
	Dir string
}

// ImagesConfig chooses where generated images are stored.
type ImagesConfig struct {
	Backend string // local, s3
	Dir     string

	S3Bucket    string
	S3Prefix    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3PathStyle bool
}

// LoadDotEnv merges KEY=VALUE files into the environment without overriding
// variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func Load() *Config {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-nirmana-assistant")
	home := dataHome()

	return &Config{
		Service: ServiceConfig{
			Principal: principal,
		},
		Gemini: GeminiConfig{
			APIKey:          firstEnv("GEMINI_API_KEY", "API_KEY"),
			ChatModel:       envOrDefault("GEMINI_CHAT_MODEL", "gemini-2.5-flash"),
			ImageModel:      envOrDefault("GEMINI_IMAGE_MODEL", "imagen-4.0-generate-001"),
			EditModel:       envOrDefault("GEMINI_EDIT_MODEL", "gemini-2.5-flash-image"),
			LiveModel:       envOrDefault("GEMINI_LIVE_MODEL", "gemini-2.5-flash-native-audio-preview-09-2025"),
			SearchGrounding: envOrDefaultBool("GEMINI_SEARCH_GROUNDING", false),
			RequestTimeout:  envOrDefaultDuration("GEMINI_REQUEST_TIMEOUT", 60*time.Second),
		},
		Voice: VoiceConfig{
			Transport:           envOrDefault("VOICE_TRANSPORT", "genai"),
			Endpoint:            os.Getenv("VOICE_ENDPOINT"),
			QueueSize:           envOrDefaultInt("VOICE_QUEUE_SIZE", 16),
			QueuePolicy:         envOrDefault("VOICE_QUEUE_POLICY", "drop-oldest"),
			ConnectTimeout:      envOrDefaultDuration("VOICE_CONNECT_TIMEOUT", 15*time.Second),
			InputTranscription:  envOrDefaultBool("VOICE_INPUT_TRANSCRIPTION", true),
			OutputTranscription: envOrDefaultBool("VOICE_OUTPUT_TRANSCRIPTION", true),
		},
		Kafka: KafkaConfig{
			Enabled:         envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:         envList("KAFKA_BROKERS"),
			TopicTranscript: envOrDefault("KAFKA_TOPIC_TRANSCRIPT", "assistant.transcript.delta"),
			TopicMessage:    envOrDefault("KAFKA_TOPIC_MESSAGE", "assistant.conversation.message"),
			Principal:       envOrDefault("KAFKA_PRINCIPAL", principal),
			Async:           envOrDefaultBool("KAFKA_ASYNC", true),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			LogFormat:   envOrDefault("LOG_FORMAT", "console"),
			MetricsAddr: os.Getenv("METRICS_ADDR"),
		},
		Prefs: PrefsConfig{
			Dir: envOrDefault("PREFS_DIR", home+"/prefs"),
		},
		Images: ImagesConfig{
			Backend:     envOrDefault("IMAGES_BACKEND", "local"),
			Dir:         envOrDefault("IMAGES_DIR", home+"/images"),
			S3Bucket:    os.Getenv("IMAGES_S3_BUCKET"),
			S3Prefix:    os.Getenv("IMAGES_S3_PREFIX"),
			S3Region:    envOrDefault("IMAGES_S3_REGION", "us-east-1"),
			S3Endpoint:  os.Getenv("IMAGES_S3_ENDPOINT"),
			S3AccessKey: os.Getenv("IMAGES_S3_ACCESS_KEY"),
			S3SecretKey: os.Getenv("IMAGES_S3_SECRET_KEY"),
			S3PathStyle: envOrDefaultBool("IMAGES_S3_PATH_STYLE", false),
		},
	}
}

func dataHome() string {
	if v := os.Getenv("NIRMANA_HOME"); v != "" {
		return strings.TrimRight(v, "/")
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/nirmana"
	}
	return ".nirmana"
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
