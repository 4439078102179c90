package prefs

import (
	"errors"
	"testing"

	"nirmana-assistant/internal/i18n"
)

func openMem(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{InMemory: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_Defaults(t *testing.T) {
	s := openMem(t)

	theme, err := s.Theme()
	if err != nil || theme != ThemeDark {
		t.Errorf("expected dark default, got %v %v", theme, err)
	}
	lang, err := s.Language()
	if err != nil || lang != i18n.English {
		t.Errorf("expected en default, got %v %v", lang, err)
	}
	seen, err := s.WelcomeSeen()
	if err != nil || seen {
		t.Errorf("expected welcome unseen, got %v %v", seen, err)
	}
}

func TestStore_SetAndGet(t *testing.T) {
	s := openMem(t)

	if err := s.SetTheme(ThemeLight); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetLanguage(i18n.Kannada); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.MarkWelcomeSeen(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if theme, _ := s.Theme(); theme != ThemeLight {
		t.Errorf("expected light, got %s", theme)
	}
	if lang, _ := s.Language(); lang != i18n.Kannada {
		t.Errorf("expected kn, got %s", lang)
	}
	if seen, _ := s.WelcomeSeen(); !seen {
		t.Error("expected welcome seen")
	}
}

func TestStore_RejectsInvalidValues(t *testing.T) {
	s := openMem(t)

	if err := s.SetTheme("sepia"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue for theme, got %v", err)
	}
	if err := s.SetLanguage("fr"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue for language, got %v", err)
	}
	if lang, _ := s.Language(); lang != i18n.English {
		t.Errorf("expected rejected value not stored, got %s", lang)
	}
}

func TestStore_IgnoresCorruptValues(t *testing.T) {
	s := openMem(t)
	if err := s.set(keyTheme, "neon"); err != nil {
		t.Fatal(err)
	}
	if err := s.set(keyLanguage, "xx"); err != nil {
		t.Fatal(err)
	}

	if theme, err := s.Theme(); err != nil || theme != DefaultTheme {
		t.Errorf("expected default theme, got %v %v", theme, err)
	}
	if lang, err := s.Language(); err != nil || lang != i18n.Default {
		t.Errorf("expected default language, got %v %v", lang, err)
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(Options{Dir: dir})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SetLanguage(i18n.Kannada); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(Options{Dir: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if lang, _ := s.Language(); lang != i18n.Kannada {
		t.Errorf("expected kn after reopen, got %s", lang)
	}
}

func TestOpen_RequiresDir(t *testing.T) {
	if _, err := Open(Options{}); err == nil {
		t.Error("expected error without dir")
	}
}

func TestParseTheme(t *testing.T) {
	tests := []struct {
		in      string
		want    Theme
		wantErr bool
	}{
		{"dark", ThemeDark, false},
		{" Light ", ThemeLight, false},
		{"", "", true},
		{"blue", "", true},
	}
	for _, tt := range tests {
		got, err := ParseTheme(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseTheme(%q) = %v, %v", tt.in, got, err)
		}
	}
}
