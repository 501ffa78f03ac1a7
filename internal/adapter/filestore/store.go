// Package filestore keeps configuration documents as JSON files in a
// directory, one file per document.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pscheid92/themebridge/internal/domain"
)

const fileExt = ".json"

var ErrInvalidName = errors.New("invalid config name")

// Store implements domain.ConfigStore.
type Store struct {
	dir string
	mu  sync.Mutex
}

var _ domain.ConfigStore = (*Store)(nil)

// New creates dir if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Load(_ context.Context, name string) ([]byte, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", name, err)
	}
	return data, nil
}

// Store writes the document atomically: readers see either the old or the
// new file, never a partial one.
func (s *Store) Store(_ context.Context, name string, data []byte) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "."+name+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write config %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close config %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace config %s: %w", name, err)
	}
	return nil
}

func (s *Store) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.dir, name+fileExt), nil
}
