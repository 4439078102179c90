package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var configEnv = []string{
	"SERVICE_PRINCIPAL", "LOG_LEVEL", "LOG_FORMAT", "METRICS_ADDR", "NIRMANA_HOME",
	"GEMINI_API_KEY", "API_KEY", "GEMINI_CHAT_MODEL", "GEMINI_LIVE_MODEL", "GEMINI_SEARCH_GROUNDING",
	"GEMINI_REQUEST_TIMEOUT",
	"VOICE_TRANSPORT", "VOICE_ENDPOINT", "VOICE_QUEUE_SIZE", "VOICE_QUEUE_POLICY", "VOICE_CONNECT_TIMEOUT",
	"VOICE_INPUT_TRANSCRIPTION", "VOICE_OUTPUT_TRANSCRIPTION",
	"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_PRINCIPAL", "KAFKA_ASYNC",
	"PREFS_DIR", "IMAGES_BACKEND", "IMAGES_DIR", "IMAGES_S3_BUCKET", "IMAGES_S3_PATH_STYLE",
}

// clearEnv unsets every variable Load reads and restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnv {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("NIRMANA_HOME", "/tmp/nirmana")

	cfg := Load()

	if cfg.Service.Principal != "svc-nirmana-assistant" {
		t.Errorf("expected default principal, got %s", cfg.Service.Principal)
	}
	if cfg.Gemini.ChatModel != "gemini-2.5-flash" {
		t.Errorf("expected default chat model, got %s", cfg.Gemini.ChatModel)
	}
	if cfg.Gemini.LiveModel != "gemini-2.5-flash-native-audio-preview-09-2025" {
		t.Errorf("expected default live model, got %s", cfg.Gemini.LiveModel)
	}
	if cfg.Voice.Transport != "genai" {
		t.Errorf("expected genai transport, got %s", cfg.Voice.Transport)
	}
	if cfg.Voice.QueueSize != 16 || cfg.Voice.QueuePolicy != "drop-oldest" {
		t.Errorf("unexpected queue defaults %d %s", cfg.Voice.QueueSize, cfg.Voice.QueuePolicy)
	}
	if cfg.Voice.ConnectTimeout != 15*time.Second {
		t.Errorf("expected 15s connect timeout, got %v", cfg.Voice.ConnectTimeout)
	}
	if !cfg.Voice.InputTranscription || !cfg.Voice.OutputTranscription {
		t.Error("expected transcription enabled by default")
	}
	if cfg.Kafka.Enabled || cfg.Kafka.Brokers != nil {
		t.Error("expected Kafka disabled with no brokers")
	}
	if cfg.Observability.LogLevel != "info" || cfg.Observability.MetricsAddr != "" {
		t.Errorf("unexpected observability defaults %+v", cfg.Observability)
	}
	if cfg.Prefs.Dir != "/tmp/nirmana/prefs" || cfg.Images.Dir != "/tmp/nirmana/images" {
		t.Errorf("unexpected data dirs %s %s", cfg.Prefs.Dir, cfg.Images.Dir)
	}
	if cfg.Images.Backend != "local" {
		t.Errorf("expected local image backend, got %s", cfg.Images.Backend)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVICE_PRINCIPAL", "custom")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("GEMINI_API_KEY", "key-1")
	t.Setenv("GEMINI_SEARCH_GROUNDING", "true")
	t.Setenv("VOICE_TRANSPORT", "websocket")
	t.Setenv("VOICE_QUEUE_SIZE", "4")
	t.Setenv("VOICE_QUEUE_POLICY", "block")
	t.Setenv("VOICE_CONNECT_TIMEOUT", "3s")
	t.Setenv("KAFKA_ENABLED", "1")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,,")
	t.Setenv("IMAGES_BACKEND", "s3")
	t.Setenv("IMAGES_S3_BUCKET", "pics")
	t.Setenv("IMAGES_S3_PATH_STYLE", "true")

	cfg := Load()

	if cfg.Service.Principal != "custom" || cfg.Kafka.Principal != "custom" {
		t.Errorf("expected custom principal everywhere, got %s %s", cfg.Service.Principal, cfg.Kafka.Principal)
	}
	if cfg.Gemini.APIKey != "key-1" || !cfg.Gemini.SearchGrounding {
		t.Errorf("unexpected gemini config %+v", cfg.Gemini)
	}
	if cfg.Voice.Transport != "websocket" || cfg.Voice.QueueSize != 4 || cfg.Voice.QueuePolicy != "block" {
		t.Errorf("unexpected voice config %+v", cfg.Voice)
	}
	if cfg.Voice.ConnectTimeout != 3*time.Second {
		t.Errorf("expected 3s, got %v", cfg.Voice.ConnectTimeout)
	}
	if !cfg.Kafka.Enabled || len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b:9092" {
		t.Errorf("unexpected kafka config %+v", cfg.Kafka)
	}
	if cfg.Images.Backend != "s3" || cfg.Images.S3Bucket != "pics" || !cfg.Images.S3PathStyle {
		t.Errorf("unexpected images config %+v", cfg.Images)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("expected debug, got %s", cfg.Observability.LogLevel)
	}
}

func TestLoad_APIKeyFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_KEY", "legacy")

	if got := Load().Gemini.APIKey; got != "legacy" {
		t.Errorf("expected API_KEY fallback, got %q", got)
	}
}

func TestLoad_InvalidValues_FallbackToDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("VOICE_QUEUE_SIZE", "many")
	t.Setenv("VOICE_CONNECT_TIMEOUT", "soon")
	t.Setenv("VOICE_INPUT_TRANSCRIPTION", "maybe")

	cfg := Load()

	if cfg.Voice.QueueSize != 16 {
		t.Errorf("expected default queue size, got %d", cfg.Voice.QueueSize)
	}
	if cfg.Voice.ConnectTimeout != 15*time.Second {
		t.Errorf("expected default timeout, got %v", cfg.Voice.ConnectTimeout)
	}
	if !cfg.Voice.InputTranscription {
		t.Error("expected default transcription flag")
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "warn")

	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("GEMINI_CHAT_MODEL=gemini-test\nLOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("GEMINI_CHAT_MODEL") })

	if err := LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := Load()
	if cfg.Gemini.ChatModel != "gemini-test" {
		t.Errorf("expected model from file, got %s", cfg.Gemini.ChatModel)
	}
	if cfg.Observability.LogLevel != "warn" {
		t.Errorf("expected existing env to win, got %s", cfg.Observability.LogLevel)
	}
}

func TestEnvOrDefaultBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		def      bool
		expected bool
	}{
		{"true string", "true", false, true},
		{"false string", "false", true, false},
		{"1", "1", false, true},
		{"0", "0", true, false},
		{"TRUE uppercase", "TRUE", false, true},
		{"invalid", "invalid", true, true},
		{"empty", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_BOOL_VAR"
			t.Setenv(key, tt.envValue)

			got := envOrDefaultBool(key, tt.def)
			if got != tt.expected {
				t.Errorf("envOrDefaultBool(%s, %v) = %v, want %v", tt.envValue, tt.def, got, tt.expected)
			}
		})
	}
}

func TestEnvList(t *testing.T) {
	t.Setenv("TEST_LIST", " a ,b,, c")
	got := envList("TEST_LIST")
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("unexpected list %v", got)
	}
}
