package sheets

import (
	"context"

	"caja/internal/core"
)

// Ports for outbound adapters.
type (
	// SummaryWriter appends one closed-day summary row to the export target.
	SummaryWriter interface {
		AppendSummary(ctx context.Context, s core.DaySummary) (rowRef string, err error)
	}
)
