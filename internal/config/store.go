package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// ProfileStore holds the active ProfileMap. Readers always see a complete map;
// Reload swaps in a new one atomically or keeps the old one on error.
type ProfileStore struct {
	path        string
	logger      zerolog.Logger
	current     atomic.Pointer[ProfileMap]
	reloadMu    sync.Mutex
	fingerprint string
}

// NewProfileStore loads path and returns a store serving it. A load failure is fatal to the caller.
func NewProfileStore(path string, logger zerolog.Logger) (*ProfileStore, error) {
	s, warnings, err := OpenProfileStore(path)
	if err != nil {
		return nil, err
	}
	s.SetLogger(logger)
	s.logWarnings(warnings)
	return s, nil
}

// OpenProfileStore loads path without logging and returns the load warnings,
// for callers whose logger depends on the map itself. Call SetLogger before
// the first Reload.
func OpenProfileStore(path string) (*ProfileStore, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read profile file: %w", err)
	}
	pm, warnings, err := ParseProfileMap(data, filepath.Ext(path))
	if err != nil {
		return nil, nil, err
	}

	s := &ProfileStore{path: path, logger: zerolog.Nop(), fingerprint: Fingerprint(data)}
	s.current.Store(pm)
	return s, warnings, nil
}

// SetLogger replaces the reload logger. It is not safe to call concurrently with Reload.
func (s *ProfileStore) SetLogger(logger zerolog.Logger) {
	s.logger = logger
}

// NewStaticProfileStore serves a fixed map. Reload always fails.
func NewStaticProfileStore(pm *ProfileMap) *ProfileStore {
	s := &ProfileStore{logger: zerolog.Nop()}
	s.current.Store(pm)
	return s
}

// Current returns the active map.
func (s *ProfileStore) Current() *ProfileMap {
	return s.current.Load()
}

// Path returns the file backing the store, or "" for static stores.
func (s *ProfileStore) Path() string {
	return s.path
}

// Reload re-reads the profile file. changed is false when the content is byte-identical.
func (s *ProfileStore) Reload() (changed bool, err error) {
	if s.path == "" {
		return false, errors.New("profile store has no backing file")
	}

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return false, fmt.Errorf("read profile file: %w", err)
	}
	fingerprint := Fingerprint(data)
	if fingerprint == s.fingerprint {
		return false, nil
	}

	pm, warnings, err := ParseProfileMap(data, filepath.Ext(s.path))
	if err != nil {
		return false, err
	}
	s.logWarnings(warnings)

	s.current.Store(pm)
	s.fingerprint = fingerprint
	s.logger.Info().
		Str("path", s.path).
		Int("ssid_mappings", len(pm.SSIDToProfile)).
		Str("fingerprint", fingerprint[:12]).
		Msg("profile map reloaded")
	return true, nil
}

func (s *ProfileStore) logWarnings(warnings []string) {
	for _, w := range warnings {
		s.logger.Warn().Str("path", s.path).Msg(w)
	}
}

// Fingerprint computes a SHA-256 hash for the given file bytes.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
