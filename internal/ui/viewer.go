package ui

import "simrun/internal/domain"

// Viewer displays the tests of a run in an interactive TUI
type Viewer interface {
	View(summary *domain.RunSummary) error
}
