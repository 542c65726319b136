// Package worker exports closed register days to the summary backend.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"caja/internal/amqp"
	"caja/internal/core"
	"caja/internal/sheets"
	"caja/internal/storage"
)

// DayReader is the slice of storage the worker reads a closed day from.
type DayReader interface {
	GetDay(ctx context.Context, fecha string) (*storage.DayRecord, error)
	IncomeTotals(ctx context.Context, fecha string) (core.IncomeTotals, error)
	Balance(ctx context.Context, fecha string) (core.Money, error)
	ListEgresos(ctx context.Context, fecha string) ([]storage.EgresoRecord, error)
}

// CloseWorker consumes register events and exports a day summary whenever a
// register closes. Expense and income events are acknowledged without work;
// they exist for other consumers.
type CloseWorker struct {
	storage DayReader
	writer  sheets.SummaryWriter
}

func NewCloseWorker(storage DayReader, writer sheets.SummaryWriter) *CloseWorker {
	return &CloseWorker{storage: storage, writer: writer}
}

// HandleEvent processes a single register event from AMQP. Returning an error
// requeues the delivery, so only retryable failures propagate.
func (w *CloseWorker) HandleEvent(ctx context.Context, msg *amqp.RegisterEventMessage) error {
	if msg.Tipo != amqp.EventCajaCerrada {
		slog.DebugContext(ctx, "Skipping non-close event", "tipo", msg.Tipo, "fecha", msg.Fecha)
		return nil
	}
	return w.ExportDay(ctx, msg.Fecha)
}

// ExportDay builds the summary for a closed date from storage and appends it
// to the export target.
func (w *CloseWorker) ExportDay(ctx context.Context, fecha string) error {
	day, err := w.storage.GetDay(ctx, fecha)
	if err != nil {
		return fmt.Errorf("load register day: %w", err)
	}
	if day == nil {
		// The close event references a day we have no row for; requeueing
		// will not fix that.
		slog.WarnContext(ctx, "Close event for unknown day, dropping", "fecha", fecha)
		return nil
	}
	if day.Estado != core.StatusClosed {
		slog.WarnContext(ctx, "Close event for a day that is not closed, dropping",
			"fecha", fecha, "estado", string(day.Estado))
		return nil
	}

	totals, err := w.storage.IncomeTotals(ctx, fecha)
	if err != nil {
		return fmt.Errorf("load income totals: %w", err)
	}
	balance, err := w.storage.Balance(ctx, fecha)
	if err != nil {
		return fmt.Errorf("load balance: %w", err)
	}
	egresos, err := w.storage.ListEgresos(ctx, fecha)
	if err != nil {
		return fmt.Errorf("load egresos: %w", err)
	}
	var egresosTotal int64
	for _, e := range egresos {
		egresosTotal += e.MontoCents
	}

	summary := core.DaySummary{
		Fecha:     fecha,
		Balance:   balance,
		Ingresos:  totals,
		Egresos:   core.Money{Cents: egresosTotal},
		CerradaEn: day.CerradaEn,
	}

	ref, err := w.writer.AppendSummary(ctx, summary)
	if err != nil {
		return fmt.Errorf("append summary: %w", err)
	}

	slog.InfoContext(ctx, "Exported day summary",
		"fecha", fecha,
		"balance_cents", balance.Cents,
		"row_ref", ref)
	return nil
}
