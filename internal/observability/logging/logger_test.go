package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestWithTransport_TagsLiveContext(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	log := WithTransport("voice-1", "websocket", "gemini-live")
	log.Info().Msg("connected")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	want := map[string]string{
		"component": "live",
		"sessionId": "voice-1",
		"transport": "websocket",
		"model":     "gemini-live",
		"message":   "connected",
	}
	for k, v := range want {
		if line[k] != v {
			t.Errorf("field %s: expected %q, got %v", k, v, line[k])
		}
	}
}

func TestInit_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "chatty", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("expected info level, got %v", zerolog.GlobalLevel())
	}
	log := WithComponent("test")
	log.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected debug suppressed, got %q", buf.String())
	}
}
