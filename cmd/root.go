package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"nirmana-assistant/internal/app"
	"nirmana-assistant/internal/config"
	apphttp "nirmana-assistant/internal/http"
	"nirmana-assistant/internal/observability"
	"nirmana-assistant/internal/observability/logging"
	"nirmana-assistant/internal/service/prefs"
)

var (
	envFile     string
	transport   string
	logLevel    string
	metricsAddr string
)

var rootCmd = &cobra.Command{
	Use:           "nirmana",
	Short:         "Karnataka industry assistant",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file to load")
	rootCmd.PersistentFlags().StringVar(&transport, "transport", "", "live transport: genai, websocket or mock")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve metrics and status on this address")

	rootCmd.AddCommand(chatCmd, voiceCmd, imageCmd, prefsCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig applies the dotenv file and the global flag overrides.
func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}
	cfg := config.Load()
	if transport != "" {
		cfg.Voice.Transport = transport
	}
	if logLevel != "" {
		cfg.Observability.LogLevel = logLevel
	}
	if metricsAddr != "" {
		cfg.Observability.MetricsAddr = metricsAddr
	}
	return cfg, nil
}

// session is a running application plus its optional status server.
type session struct {
	app    *app.Application
	server *observability.Server
}

func startApp(ctx context.Context, opts app.Options) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}
	s := &session{app: a}
	if cfg.Observability.MetricsAddr != "" {
		s.server = observability.NewServer(cfg.Observability.MetricsAddr, apphttp.NewRouter(a))
		if err := s.server.Start(); err != nil {
			a.Shutdown()
			return nil, err
		}
	}
	if err := a.Start(); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

func (s *session) close() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_ = s.server.Shutdown(ctx)
		cancel()
	}
	s.app.Shutdown()
}

// openPrefs opens only the preference store, for commands that need nothing
// else.
func openPrefs() (*prefs.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{Level: cfg.Observability.LogLevel, Format: cfg.Observability.LogFormat})
	return prefs.Open(prefs.Options{Dir: cfg.Prefs.Dir})
}
