package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"simrun/internal/domain"
)

// Save writes the run summary to the configured results file
func (s *JSONStorage) Save(summary *domain.RunSummary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	path := s.cfg.GetResultsPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	// Readers never see a partially written summary
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

// Load reads the last run summary. A missing file wraps domain.ErrNotFound.
func (s *JSONStorage) Load() (*domain.RunSummary, error) {
	path := s.cfg.GetResultsPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no previous run at %s: %w", path, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("read results file: %w", err)
	}
	var summary domain.RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("parse results: %w: %v", domain.ErrMalformed, err)
	}
	return &summary, nil
}

// SetResolved marks a test of the last run as looked at and persists it
func (s *JSONStorage) SetResolved(summary *domain.RunSummary, name string, resolved bool) error {
	for i := range summary.Tests {
		if summary.Tests[i].Name == name {
			summary.Tests[i].Resolved = resolved
			return s.Save(summary)
		}
	}
	return fmt.Errorf("test %s: %w", name, domain.ErrNotFound)
}
