// Command viewer shows live conversation events in a browser. It consumes
// the transcript and message topics from Kafka and relays them over
// websocket.
package main

import (
	"context"
	"embed"
	"errors"
	"flag"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"nirmana-assistant/internal/config"
	"nirmana-assistant/internal/observability/logging"
	"nirmana-assistant/internal/viewer"
)

//go:embed static/*
var staticFiles embed.FS

func main() {
	_ = config.LoadDotEnv()
	cfg := config.Load()

	addr := flag.String("addr", ":8081", "HTTP listen address")
	brokers := flag.String("brokers", strings.Join(cfg.Kafka.Brokers, ","), "Kafka brokers (comma-separated)")
	topicTranscript := flag.String("topic-transcript", cfg.Kafka.TopicTranscript, "Transcript delta topic")
	topicMessage := flag.String("topic-message", cfg.Kafka.TopicMessage, "Conversation message topic")
	lookback := flag.Duration("lookback", time.Hour, "Replay events newer than this")
	flag.Parse()

	logging.Init(logging.Config{Level: cfg.Observability.LogLevel, Format: cfg.Observability.LogFormat})

	if *brokers == "" {
		*brokers = "localhost:9092"
	}
	brokerList := strings.Split(*brokers, ",")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := viewer.NewHub()
	go hub.Run(ctx)

	for _, topic := range []string{*topicTranscript, *topicMessage} {
		r := viewer.NewReader(ctx, brokerList, topic, *lookback)
		go viewer.Consume(ctx, hub, topic, r, time.Second)
	}

	staticFS, _ := fs.Sub(staticFiles, "static")
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/ws", hub.Handler())
	r.Handle("/*", http.FileServer(http.FS(staticFS)))

	srv := &http.Server{Addr: *addr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().
		Str("addr", *addr).
		Strs("brokers", brokerList).
		Str("topicTranscript", *topicTranscript).
		Str("topicMessage", *topicMessage).
		Msg("Conversation viewer starting")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server error")
	}
}
