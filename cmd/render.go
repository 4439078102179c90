package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"nirmana-assistant/internal/i18n"
	"nirmana-assistant/internal/models"
	"nirmana-assistant/internal/service/prefs"
)

type palette struct {
	Primary lipgloss.Color
	User    lipgloss.Color
	Bot     lipgloss.Color
	Dim     lipgloss.Color
	Error   lipgloss.Color
}

var palettes = map[prefs.Theme]palette{
	prefs.ThemeDark: {
		Primary: lipgloss.Color("#60a5fa"),
		User:    lipgloss.Color("#93c5fd"),
		Bot:     lipgloss.Color("#e5e7eb"),
		Dim:     lipgloss.Color("#6e7681"),
		Error:   lipgloss.Color("#f87171"),
	},
	prefs.ThemeLight: {
		Primary: lipgloss.Color("#1d4ed8"),
		User:    lipgloss.Color("#1e40af"),
		Bot:     lipgloss.Color("#111827"),
		Dim:     lipgloss.Color("#6b7280"),
		Error:   lipgloss.Color("#b91c1c"),
	},
}

type styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	User   lipgloss.Style
	Bot    lipgloss.Style
	Help   lipgloss.Style
	Error  lipgloss.Style
	Border lipgloss.Style
}

func newStyles(theme prefs.Theme) styles {
	p, ok := palettes[theme]
	if !ok {
		p = palettes[prefs.DefaultTheme]
	}
	return styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(p.Primary),
		Label:  lipgloss.NewStyle().Bold(true).Foreground(p.Primary),
		User:   lipgloss.NewStyle().Foreground(p.User),
		Bot:    lipgloss.NewStyle().Foreground(p.Bot),
		Help:   lipgloss.NewStyle().Foreground(p.Dim),
		Error:  lipgloss.NewStyle().Foreground(p.Error),
		Border: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.Primary).Padding(0, 1),
	}
}

func (s styles) welcome(lang i18n.Language) string {
	lines := []string{
		s.Title.Render(i18n.T(lang, i18n.WelcomeTitle)),
		i18n.T(lang, i18n.WelcomeSubtitle),
		"",
		"• " + i18n.T(lang, i18n.KnowledgeSupport),
		"• " + i18n.T(lang, i18n.IdeaCreation),
		"• " + i18n.T(lang, i18n.BusinessAssistance),
	}
	return s.Border.Render(strings.Join(lines, "\n"))
}

func (s styles) header(lang i18n.Language) string {
	return s.Title.Render("Nirmana") + " " + s.Help.Render(i18n.T(lang, i18n.HeaderSubtitle))
}

func (s styles) message(m models.Message) string {
	var b strings.Builder
	switch {
	case m.Sender == models.SenderUser:
		b.WriteString(s.Label.Render("you ▸ "))
		b.WriteString(s.User.Render(m.Text))
	case strings.HasPrefix(m.ID, "error-"):
		b.WriteString(s.Label.Render("nirmana ▸ "))
		b.WriteString(s.Error.Render(m.Text))
	default:
		b.WriteString(s.Label.Render("nirmana ▸ "))
		b.WriteString(s.Bot.Render(m.Text))
	}
	for i, src := range m.Sources {
		title := src.Title
		if title == "" {
			title = src.URI
		}
		b.WriteString("\n")
		b.WriteString(s.Help.Render(fmt.Sprintf("  [%d] %s  %s", i+1, title, src.URI)))
	}
	return b.String()
}

func (s styles) suggestions(lang i18n.Language) string {
	lines := []string{s.Label.Render(i18n.T(lang, i18n.ExploreHubs))}
	for i, sg := range i18n.Suggestions(lang) {
		lines = append(lines, fmt.Sprintf("  %d. %s %s", i+1, sg.Name, s.Help.Render("- "+sg.Query)))
	}
	return strings.Join(lines, "\n")
}
