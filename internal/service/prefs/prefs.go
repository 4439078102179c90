// Package prefs persists the user's display preferences between runs.
package prefs

import (
	"errors"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"nirmana-assistant/internal/i18n"
	"nirmana-assistant/internal/observability/logging"
)

// Theme is the terminal color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"

	DefaultTheme = ThemeDark
)

// ErrInvalidValue is returned when a preference is set to an unsupported value.
var ErrInvalidValue = errors.New("prefs: invalid value")

// ParseTheme accepts "light" or "dark".
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark:
		return t, nil
	}
	return "", fmt.Errorf("%w: theme %q", ErrInvalidValue, s)
}

var (
	keyTheme       = []byte("prefs/theme")
	keyLanguage    = []byte("prefs/language")
	keyWelcomeSeen = []byte("prefs/welcome-seen")
)

// Options configures the store.
type Options struct {
	Dir string

	// InMemory skips disk persistence.
	InMemory bool
}

// Store is a badger-backed preference store.
type Store struct {
	db  *badger.DB
	log zerolog.Logger
}

// Open opens or creates the store.
func Open(opts Options) (*Store, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("prefs: Dir is required unless InMemory")
	}
	log := logging.WithComponent("prefs")
	dbOpts := badger.DefaultOptions(opts.Dir).
		WithLogger(badgerLogger{log: log})
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("prefs: open: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(key []byte) (string, bool, error) {
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(val), true, nil
}

func (s *Store) set(key []byte, val string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, []byte(val))
	})
}

// Theme returns the stored theme, or DefaultTheme. A corrupt stored value
// is logged and ignored.
func (s *Store) Theme() (Theme, error) {
	v, ok, err := s.get(keyTheme)
	if err != nil || !ok {
		return DefaultTheme, err
	}
	t, err := ParseTheme(v)
	if err != nil {
		s.log.Warn().Str("value", v).Msg("Ignoring stored theme")
		return DefaultTheme, nil
	}
	return t, nil
}

func (s *Store) SetTheme(t Theme) error {
	if _, err := ParseTheme(string(t)); err != nil {
		return err
	}
	return s.set(keyTheme, string(t))
}

// Language returns the stored language, or i18n.Default.
func (s *Store) Language() (i18n.Language, error) {
	v, ok, err := s.get(keyLanguage)
	if err != nil || !ok {
		return i18n.Default, err
	}
	lang, err := i18n.ParseLanguage(v)
	if err != nil {
		s.log.Warn().Str("value", v).Msg("Ignoring stored language")
		return i18n.Default, nil
	}
	return lang, nil
}

// SetLanguage stores lang. Only supported languages are accepted.
func (s *Store) SetLanguage(lang i18n.Language) error {
	if _, err := i18n.ParseLanguage(string(lang)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return s.set(keyLanguage, string(lang))
}

func (s *Store) WelcomeSeen() (bool, error) {
	v, ok, err := s.get(keyWelcomeSeen)
	return ok && v == "true", err
}

func (s *Store) MarkWelcomeSeen() error {
	return s.set(keyWelcomeSeen, "true")
}

// badgerLogger routes badger's internal logging into zerolog. Info and
// debug chatter is demoted to debug.
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(f string, args ...any)   { l.log.Error().Msgf(strings.TrimSpace(f), args...) }
func (l badgerLogger) Warningf(f string, args ...any) { l.log.Warn().Msgf(strings.TrimSpace(f), args...) }
func (l badgerLogger) Infof(f string, args ...any)    { l.log.Debug().Msgf(strings.TrimSpace(f), args...) }
func (l badgerLogger) Debugf(f string, args ...any)   { l.log.Debug().Msgf(strings.TrimSpace(f), args...) }
