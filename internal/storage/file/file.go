package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Fercho9134/SO1-S12025-202200349/internal/model"
)

const DefaultPath = "weather_reports.json"

type FileConfig struct {
	Path string `yaml:"path"`
}

// FileStorage buffers reports in memory and writes them as a single
// pretty-printed JSON array when closed.
type FileStorage struct {
	path    string
	mu      sync.Mutex
	reports []model.Report
}

func NewFileStorage(cfg FileConfig) *FileStorage {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}

	return &FileStorage{
		path:    path,
		reports: make([]model.Report, 0),
	}
}

func (fs *FileStorage) Path() string {
	return fs.path
}

func (fs *FileStorage) Store(ctx context.Context, report model.Report) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.reports = append(fs.reports, report)
	return nil
}

func (fs *FileStorage) StoreBatch(ctx context.Context, reports []model.Report) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.reports = append(fs.reports, reports...)
	return nil
}

func (fs *FileStorage) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return WriteReports(fs.path, fs.reports)
}

// WriteReports writes reports to path as an indented JSON array,
// creating the parent directory when it does not exist.
func WriteReports(path string, reports []model.Report) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if reports == nil {
		reports = []model.Report{}
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(reports); err != nil {
		return fmt.Errorf("failed to encode reports: %w", err)
	}

	return f.Close()
}

// Load reads a reports file produced by WriteReports.
func Load(path string) ([]model.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var reports []model.Report
	if err := json.Unmarshal(data, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return reports, nil
}
