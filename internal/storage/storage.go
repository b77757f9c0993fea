package storage

import (
	"simrun/internal/config"
	"simrun/internal/domain"
)

// Storage persists and loads run summaries (e.g. for the failures viewer
// and `run --failed`)
type Storage interface {
	Save(summary *domain.RunSummary) error
	Load() (*domain.RunSummary, error)
}

// JSONStorage stores the last run summary in a JSON file under the output dir
type JSONStorage struct {
	cfg *config.Config
}

// NewJSONStorage returns a Storage that reads/writes the config's results path
func NewJSONStorage(cfg *config.Config) *JSONStorage {
	return &JSONStorage{cfg: cfg}
}
