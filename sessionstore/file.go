package sessionstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStorage persists the session record as a file on disk. It is the
// default backend for interactive use.
type FileStorage struct {
	mu   sync.Mutex
	path string
}

// NewFileStorage creates a file-backed storage at the given path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Load implements Storage.
func (f *FileStorage) Load(_ context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	return data, nil
}

// Save implements Storage. The record is written to a temporary file and
// renamed into place so a crash cannot leave a torn session on disk.
func (f *FileStorage) Save(_ context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// Clear implements Storage.
func (f *FileStorage) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
