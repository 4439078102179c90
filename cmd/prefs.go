package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"nirmana-assistant/internal/i18n"
	"nirmana-assistant/internal/service/prefs"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change stored preferences",
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored preferences",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openPrefs()
		if err != nil {
			return err
		}
		defer store.Close()

		theme, err := store.Theme()
		if err != nil {
			return err
		}
		lang, err := store.Language()
		if err != nil {
			return err
		}
		seen, err := store.WelcomeSeen()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "theme\t%s\n", theme)
		fmt.Fprintf(w, "language\t%s\n", lang)
		fmt.Fprintf(w, "welcome-seen\t%t\n", seen)
		return w.Flush()
	},
}

var prefsSetCmd = &cobra.Command{
	Use:       "set <theme|language> <value>",
	Short:     "Change a preference",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"theme", "language"},
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openPrefs()
		if err != nil {
			return err
		}
		defer store.Close()

		switch args[0] {
		case "theme":
			t, err := prefs.ParseTheme(args[1])
			if err != nil {
				return err
			}
			return store.SetTheme(t)
		case "language", "lang":
			lang, err := i18n.ParseLanguage(args[1])
			if err != nil {
				return err
			}
			return store.SetLanguage(lang)
		default:
			return fmt.Errorf("unknown preference %q (want theme or language)", args[0])
		}
	},
}

func init() {
	prefsCmd.AddCommand(prefsShowCmd, prefsSetCmd)
}
