package backend

import (
	"context"
	"fmt"
	"log/slog"

	"caja/internal/config"
	gsheet "caja/internal/sheets/google"
	"caja/internal/sheets/memory"
)

// NewSummaryWriter builds the summary writer named by the configuration.
// Credentials for the sheets backend come from the environment, which
// config.Validate has already checked.
func NewSummaryWriter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	t := Type(cfg.SummaryBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid summary backend: %s", cfg.SummaryBackend)
	}

	switch t {
	case SheetsBackend:
		cli, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		logger.Info("Initialized Google Sheets summary backend",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet_name", cfg.GoogleSheetName)
		return &Result{Writer: cli}, nil

	default:
		store := memory.New()
		logger.Info("Initialized in-memory summary backend")
		return &Result{Writer: store}, nil
	}
}
