package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nirmana-assistant/internal/app"
	"nirmana-assistant/internal/i18n"
	"nirmana-assistant/internal/models"
	"nirmana-assistant/internal/observability"
	"nirmana-assistant/internal/observability/metrics"
)

// NewRouter serves health, metrics and read-mostly views of the running
// assistant.
func NewRouter(application *app.Application) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(metrics.DefaultMetrics))
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())

	h := &handlers{app: application}
	r.Route("/v1", func(r chi.Router) {
		r.Get("/liveness", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		r.Get("/readiness", func(w http.ResponseWriter, _ *http.Request) {
			if !application.Ready() {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("not ready"))
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
		})
		r.Get("/conversation", h.conversation)
		r.Get("/voice", h.voice)
		r.Get("/suggestions", h.suggestions)
		r.Post("/chat", h.chat)
	})

	return r
}

type handlers struct {
	app *app.Application
}

type conversationResponse struct {
	Language i18n.Language    `json:"language"`
	Messages []models.Message `json:"messages"`
}

func (h *handlers) conversation(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, conversationResponse{
		Language: h.app.Language(),
		Messages: h.app.Conversation.Messages(),
	})
}

type voiceResponse struct {
	State         string `json:"state"`
	Listening     bool   `json:"listening"`
	SessionID     string `json:"sessionId,omitempty"`
	PendingInput  string `json:"pendingInput,omitempty"`
	PendingOutput string `json:"pendingOutput,omitempty"`
}

func (h *handlers) voice(w http.ResponseWriter, _ *http.Request) {
	v := h.app.Voice
	resp := voiceResponse{
		State:     v.State().String(),
		Listening: v.Listening(),
	}
	if cur := v.Current(); cur != nil {
		resp.SessionID = cur.ID()
	}
	resp.PendingInput, resp.PendingOutput = v.PendingTranscript()
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) suggestions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, i18n.Suggestions(h.app.Language()))
}

type chatRequest struct {
	Text string `json:"text"`
}

func (h *handlers) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text is required"})
		return
	}
	writeJSON(w, http.StatusOK, h.app.Chat.Send(r.Context(), text, h.app.Language()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
