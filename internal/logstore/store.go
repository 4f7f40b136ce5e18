package logstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Fercho9134/SO1-S12025-202200349/internal/model"
)

const DefaultPath = "/logs/logs.json"

// ErrNotFound is returned by All when nothing has been stored yet.
var ErrNotFound = errors.New("no logs found")

// AppendResult reports the size of the appended batch and of the whole store after it.
type AppendResult struct {
	Received int `json:"received"`
	Total    int `json:"total_logs"`
}

type Store interface {
	Append(ctx context.Context, batch []model.LogEntry) (AppendResult, error)
	All(ctx context.Context) ([]model.LogEntry, error)
}

// FileStore keeps every log entry in a single JSON array file.
// Each append rewrites the whole file through a temp file and a rename;
// the mutex serializes the read-modify-write so no append is lost.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultPath
	}
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Append(ctx context.Context, batch []model.LogEntry) (AppendResult, error) {
	if err := ctx.Err(); err != nil {
		return AppendResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.loadLocked()
	if err != nil {
		return AppendResult{}, err
	}

	existing = append(existing, batch...)

	if err := s.saveLocked(existing); err != nil {
		return AppendResult{}, err
	}

	return AppendResult{Received: len(batch), Total: len(existing)}, nil
}

func (s *FileStore) All(ctx context.Context) ([]model.LogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	return entries, nil
}

// Count returns the number of persisted entries; zero when the file is absent.
func (s *FileStore) Count(ctx context.Context) (int, error) {
	entries, err := s.All(ctx)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	return len(entries), err
}

func (s *FileStore) loadLocked() ([]model.LogEntry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []model.LogEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []model.LogEntry{}, nil
	}

	entries := []model.LogEntry{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode log file: %w", err)
	}
	return entries, nil
}

func (s *FileStore) saveLocked(entries []model.LogEntry) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode logs: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write logs: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync logs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace log file: %w", err)
	}
	return nil
}
