package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"nirmana-assistant/internal/app"
	"nirmana-assistant/internal/i18n"
	"nirmana-assistant/internal/models"
)

var voiceCmd = &cobra.Command{
	Use:   "voice",
	Short: "Talk to Nirmana until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := startApp(ctx, app.Options{})
		if err != nil {
			return err
		}
		defer s.close()

		a := s.app
		theme, _ := a.Prefs.Theme()
		st := newStyles(theme)
		out := cmd.OutOrStdout()
		a.Conversation.Subscribe(func(m models.Message) {
			fmt.Fprintln(out, st.message(m))
		})

		fmt.Fprintln(out, st.header(a.Language()))
		if err := a.Voice.Start(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, st.Help.Render(i18n.T(a.Language(), i18n.Listening)))

		select {
		case <-ctx.Done():
			a.Voice.Stop()
		case <-a.Voice.Current().Done():
		}
		fmt.Fprintln(out, st.Help.Render(i18n.T(a.Language(), i18n.StoppedListening)))
		return nil
	},
}
