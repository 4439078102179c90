package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"nirmana-assistant/internal/app"
	"nirmana-assistant/internal/i18n"
	"nirmana-assistant/internal/models"
	"nirmana-assistant/internal/service/assistant"
	"nirmana-assistant/internal/service/prefs"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat (type /help for commands)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		s, err := startApp(ctx, app.Options{})
		if err != nil {
			return err
		}
		defer s.close()

		r := newREPL(s.app, cmd.InOrStdin(), cmd.OutOrStdout())
		return r.run(ctx)
	},
}

const replHelp = `Commands:
  /voice                  start or stop talking to Nirmana
  /image <prompt>         generate an image
  /edit <file> <prompt>   edit an image file
  /suggest [n]            list hub suggestions, or ask suggestion n
  /lang en|kn             switch language
  /theme light|dark       switch colors
  /history                show the whole conversation
  /quit                   leave`

type repl struct {
	app *app.Application
	in  io.Reader
	out io.Writer

	mu     sync.Mutex
	styles styles
}

func newREPL(a *app.Application, in io.Reader, out io.Writer) *repl {
	theme, _ := a.Prefs.Theme()
	r := &repl{app: a, in: in, out: out, styles: newStyles(theme)}
	a.Conversation.Subscribe(func(m models.Message) {
		r.println(r.currentStyles().message(m))
	})
	return r
}

func (r *repl) currentStyles() styles {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.styles
}

func (r *repl) println(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, s)
}

func (r *repl) run(ctx context.Context) error {
	st := r.currentStyles()
	lang := r.app.Language()

	if seen, _ := r.app.Prefs.WelcomeSeen(); !seen {
		r.println(st.welcome(lang))
		if err := r.app.Prefs.MarkWelcomeSeen(); err != nil {
			r.app.Logger.Warn().Err(err).Msg("Failed to store welcome flag")
		}
	}
	r.println(st.header(lang))
	r.println(st.Help.Render(i18n.T(lang, i18n.ChatHomeTitle) + "  (/help)"))
	for _, m := range r.app.Conversation.Messages() {
		r.println(st.message(m))
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r.in)
		sc.Buffer(make([]byte, 64<<10), 1<<20)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := r.handle(ctx, strings.TrimSpace(line)); quit {
				return nil
			}
		}
	}
}

// handle runs one input line and reports whether the user asked to quit.
func (r *repl) handle(ctx context.Context, line string) bool {
	if line == "" {
		return false
	}
	lang := r.app.Language()
	if !strings.HasPrefix(line, "/") {
		if r.busyListening(lang) {
			return false
		}
		r.app.Chat.Send(ctx, line, lang)
		return false
	}

	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		r.println(r.currentStyles().Help.Render(replHelp))
	case "/voice":
		r.toggleVoice(ctx)
	case "/image":
		if rest == "" {
			r.println("usage: /image <prompt>")
			return false
		}
		r.println(r.currentStyles().Help.Render(i18n.T(lang, i18n.GeneratingMessage)))
		r.app.Chat.Generate(ctx, rest, lang)
	case "/edit":
		path, prompt, _ := strings.Cut(rest, " ")
		if path == "" || strings.TrimSpace(prompt) == "" {
			r.println("usage: /edit <file> <prompt>")
			return false
		}
		src, err := readImage(path)
		if err != nil {
			r.println(r.currentStyles().Error.Render(err.Error()))
			return false
		}
		r.println(r.currentStyles().Help.Render(i18n.T(lang, i18n.GeneratingMessage)))
		r.app.Chat.Edit(ctx, src, strings.TrimSpace(prompt), lang)
	case "/suggest":
		r.suggest(ctx, rest, lang)
	case "/lang":
		next, err := i18n.ParseLanguage(rest)
		if err == nil {
			err = r.app.SetLanguage(next)
		}
		if err != nil {
			r.println(r.currentStyles().Error.Render(err.Error()))
			return false
		}
		r.println(r.currentStyles().header(next))
	case "/theme":
		theme, err := prefs.ParseTheme(rest)
		if err == nil {
			err = r.app.Prefs.SetTheme(theme)
		}
		if err != nil {
			r.println(r.currentStyles().Error.Render(err.Error()))
			return false
		}
		r.mu.Lock()
		r.styles = newStyles(theme)
		r.mu.Unlock()
		r.println(r.currentStyles().header(lang))
	case "/history":
		st := r.currentStyles()
		for _, m := range r.app.Conversation.Messages() {
			r.println(st.message(m))
		}
	default:
		r.println(fmt.Sprintf("unknown command %s, try /help", cmd))
	}
	return false
}

func (r *repl) toggleVoice(ctx context.Context) {
	lang := r.app.Language()
	if r.app.Voice.Listening() {
		r.app.Voice.Stop()
		r.println(r.currentStyles().Help.Render(i18n.T(lang, i18n.StoppedListening)))
		return
	}
	if err := r.app.Voice.Start(ctx); err != nil {
		// The localized failure has already been appended to the conversation.
		return
	}
	r.println(r.currentStyles().Help.Render(i18n.T(lang, i18n.Listening)))
}

// busyListening reports whether a voice session owns the conversation.
// Typed questions wait until it ends.
func (r *repl) busyListening(lang i18n.Language) bool {
	if !r.app.Voice.Listening() {
		return false
	}
	r.println(r.currentStyles().Help.Render(i18n.T(lang, i18n.Listening) + "  (/voice to stop)"))
	return true
}

func (r *repl) suggest(ctx context.Context, arg string, lang i18n.Language) {
	list := i18n.Suggestions(lang)
	if arg == "" {
		r.println(r.currentStyles().suggestions(lang))
		return
	}
	if r.busyListening(lang) {
		return
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(list) {
		r.println(fmt.Sprintf("pick a suggestion between 1 and %d", len(list)))
		return
	}
	r.app.Chat.Send(ctx, list[n-1].Query, lang)
}

func readImage(path string) (*assistant.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return nil, fmt.Errorf("%s is not an image (%s)", path, mime)
	}
	return &assistant.Image{Data: data, MIMEType: mime}, nil
}
