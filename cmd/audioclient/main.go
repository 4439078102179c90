// Command audioclient plays a WAV file into a voice session as if it were
// the microphone and records the spoken reply to another WAV file.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"nirmana-assistant/internal/app"
	"nirmana-assistant/internal/config"
	"nirmana-assistant/internal/models"
	"nirmana-assistant/internal/service/audio"
	"nirmana-assistant/internal/service/capture"
	"nirmana-assistant/internal/service/playback"
)

func main() {
	_ = config.LoadDotEnv()
	cfg := config.Load()

	audioFile := flag.String("audio", "testdata/question-16khz.wav", "Path to a 16-bit PCM WAV file")
	outFile := flag.String("out", "reply.wav", "Where to write the reply audio")
	transport := flag.String("transport", cfg.Voice.Transport, "Live transport: genai, websocket or mock")
	turns := flag.Int("turns", 1, "Stop after this many bot replies")
	timeout := flag.Duration("timeout", 60*time.Second, "Give up after this long")
	realtime := flag.Bool("realtime", true, "Pace the input at its natural rate")
	silence := flag.Duration("silence", 2*time.Second, "Silence appended after the file")
	flag.Parse()

	cfg.Voice.Transport = *transport

	out, err := os.Create(*outFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create %s: %v\n", *outFile, err)
		os.Exit(1)
	}
	defer out.Close()
	// Placeholder header, rewritten with the real length at the end.
	if err := audio.WriteWAVHeader(out, audio.OutputSampleRate, 1, 0); err != nil {
		log.Fatal().Err(err).Msg("Failed to write WAV header")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.Options{
		CaptureOpener: capture.WAVOpener(*audioFile, capture.WAVOptions{
			Realtime:        *realtime,
			TrailingSilence: *silence,
		}),
		OutputOpener:  playback.PacedWriterOpener(out),
		PrefsInMemory: true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}
	_ = a.Start()
	defer a.Shutdown()

	replies := make(chan models.Message, 16)
	a.Conversation.Subscribe(func(m models.Message) {
		if m.Sender == models.SenderBot {
			select {
			case replies <- m:
			default:
			}
		}
	})

	if err := a.Voice.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start voice session")
	}
	done := a.Voice.Current().Done()

	deadline := time.After(*timeout)
	for seen := 0; seen < *turns; {
		select {
		case m := <-replies:
			seen++
			log.Info().Str("id", m.ID).Str("text", m.Text).Msg("Bot reply")
		case <-done:
			log.Info().Str("state", a.Voice.State().String()).Msg("Session ended")
			seen = *turns
		case <-deadline:
			log.Warn().Dur("timeout", *timeout).Msg("Timed out waiting for replies")
			seen = *turns
		case <-ctx.Done():
			seen = *turns
		}
	}
	a.Voice.Stop()

	if err := finalize(out); err != nil {
		log.Fatal().Err(err).Msg("Failed to finalize WAV")
	}
	for _, m := range a.Conversation.Messages() {
		fmt.Printf("%-5s %s\n", m.Sender, m.Text)
	}
	log.Info().Str("file", *outFile).Msg("Reply audio written")
}

// finalize rewrites the header with the data length now known.
func finalize(f *os.File) error {
	end, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	return audio.WriteWAVHeader(f, audio.OutputSampleRate, 1, uint32(end-44))
}
