package userconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// DefaultConfig is written and returned when no config file can be opened.
const DefaultConfig = "{}"

var ErrInvalidEncoding = errors.New("config is not valid UTF-8")

// PathResolver supplies the locations the store reads and writes.
type PathResolver interface {
	Config() string
	LegacyConfig() string
	LegacyConfigBackup() string
}

// Store reads and writes the front-end configuration blob.
// The blob is opaque to the host; it is persisted as a JSON string literal.
type Store struct {
	paths  PathResolver
	logger zerolog.Logger
	mu     sync.Mutex
}

// NewStore creates a config store over the given paths.
func NewStore(paths PathResolver, logger zerolog.Logger) *Store {
	return &Store{
		paths:  paths,
		logger: logger.With().Str("component", "userconfig").Logger(),
	}
}

// Load returns the contents of the config file verbatim. If the file cannot
// be opened the default blob is written to the config path and returned.
func (s *Store) Load() (string, error) {
	return s.loadFrom(s.paths.Config())
}

// LoadLegacy reads the legacy config file. On a miss the default is written
// to the current config path, not the legacy one.
func (s *Store) LoadLegacy() (string, error) {
	return s.loadFrom(s.paths.LegacyConfig())
}

// Save replaces the config file with the JSON string encoding of blob.
func (s *Store) Save(blob string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(blob)
}

// HasLegacy reports whether a legacy config file is present.
func (s *Store) HasLegacy() bool {
	_, err := os.Stat(s.paths.LegacyConfig())
	return err == nil
}

// CompleteLegacyMigrate moves the legacy file aside. A second call after
// success fails because the legacy file no longer exists.
func (s *Store) CompleteLegacyMigrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	legacy := s.paths.LegacyConfig()
	backup := s.paths.LegacyConfigBackup()

	if err := os.Rename(legacy, backup); err != nil {
		return fmt.Errorf("legacy config could not be moved: %w", err)
	}

	s.logger.Info().Str("from", legacy).Str("to", backup).Msg("legacy config migrated")
	return nil
}

func (s *Store) loadFrom(path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		s.logger.Debug().Err(err).Str("path", path).Msg("config not readable, writing default")
		if err := s.write(DefaultConfig); err != nil {
			return "", err
		}
		return DefaultConfig, nil
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("config should be readable: %w", err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s: %w", path, ErrInvalidEncoding)
	}

	return string(data), nil
}

func (s *Store) write(blob string) error {
	path := s.paths.Config()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config directory should be writable: %w", err)
	}

	encoded, err := encodeString(blob)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("config should be writable: %w", err)
	}

	return nil
}

// encodeString renders s as a JSON string literal without HTML escaping,
// matching what the front-end has always found on disk.
func encodeString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
