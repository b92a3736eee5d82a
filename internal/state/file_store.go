package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nholik/netloc-sentinel/internal/transition"
	"github.com/rs/zerolog"
)

// FileStore persists state as JSON on disk.
type FileStore struct {
	path   string
	logger zerolog.Logger
	mu     sync.Mutex
}

// NewFileStore returns a JSON-backed state store.
func NewFileStore(path string, logger zerolog.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger,
	}
}

// Path returns the state file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads state from disk. Missing or corrupt files return an empty state with a warning.
func (s *FileStore) Load(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug().Str("path", s.path).Msg("state file missing, starting fresh")
			return State{}, nil
		}
		return State{}, fmt.Errorf("read state %s: %w", s.path, err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		s.logger.Warn().Str("path", s.path).Err(err).Msg("state file corrupt, starting fresh")
		return State{}, nil
	}
	return st, nil
}

// Update loads the state, applies fn and saves the result under one lock.
func (s *FileStore) Update(ctx context.Context, fn func(*State)) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.Load(ctx)
	if err != nil {
		return State{}, err
	}
	fn(&st)
	if err := s.Save(ctx, st); err != nil {
		return State{}, err
	}
	return st, nil
}

// Save writes state to disk atomically through a temp file and rename.
func (s *FileStore) Save(ctx context.Context, st State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if st.Recent == nil {
		st.Recent = []transition.Transition{}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, ".netloc-state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	cleanup := func() {
		_ = os.Remove(tempFile.Name())
	}

	encoder := json.NewEncoder(tempFile)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(st); err != nil {
		_ = tempFile.Close()
		cleanup()
		return fmt.Errorf("encode state: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		cleanup()
		return err
	}
	if err := tempFile.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tempFile.Name(), s.path); err != nil {
		cleanup()
		return fmt.Errorf("replace state: %w", err)
	}

	if dirHandle, err := os.Open(dir); err == nil {
		_ = dirHandle.Sync()
		_ = dirHandle.Close()
	}
	return nil
}
