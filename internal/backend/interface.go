// Package backend selects the summary export target for worker binaries.
package backend

import (
	"caja/internal/sheets"
)

// CleanupFunc releases backend resources at shutdown.
type CleanupFunc func() error

// Result contains the summary writer and an optional cleanup function.
type Result struct {
	Writer  sheets.SummaryWriter
	Cleanup CleanupFunc
}

// Type identifies a summary export backend.
type Type string

const (
	// MemoryBackend keeps summaries in process memory, for development and
	// tests.
	MemoryBackend Type = "memory"
	// SheetsBackend appends summaries to a Google Sheets spreadsheet.
	SheetsBackend Type = "sheets"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SheetsBackend:
		return true
	default:
		return false
	}
}
