package register

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"caja/internal/api"
	"caja/internal/core"
	"caja/internal/log"
)

// Submitter is the slice of the backend client the recorders mutate through.
type Submitter interface {
	RegistrarEgreso(ctx context.Context, req api.RegistrarEgresoRequest) error
	RegistrarPedidosYa(ctx context.Context, req api.RegistrarPYRequest) error
	Cierre(ctx context.Context, fecha string) (api.CierreResponse, error)
	Balance(ctx context.Context, fecha string) (api.BalanceResponse, error)
}

// ErrBusy is returned when a recorder action is invoked while its own
// previous request is still in flight. Each action has its own guard; the
// three recorders are deliberately not serialized against each other — the
// backend is the sole arbiter of cross-action races.
var ErrBusy = errors.New("request already in flight")

// Notifier stands in for the toast surface: one success or error line per
// completed action.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// CloseResult reports the outcome of a successful close.
type CloseResult struct {
	Day     core.RegisterDay
	Balance core.Money
	// BalanceFromClose is true when the close response itself carried the
	// final balance and no extra balance query was made.
	BalanceFromClose bool
}

// Recorder runs the three mutating workflows. Every action re-validates the
// gate against a freshly forced cache refresh before submitting: a stale
// decision is never trusted because another session may have closed the
// register in the interim.
type Recorder struct {
	cache   *StatusCache
	gate    Gate
	backend Submitter
	notify  Notifier
	logger  *log.Logger

	expenseBusy atomic.Bool
	incomeBusy  atomic.Bool
	closeBusy   atomic.Bool
}

func NewRecorder(cache *StatusCache, gate Gate, backend Submitter, notify Notifier, logger *log.Logger) *Recorder {
	return &Recorder{
		cache:   cache,
		gate:    gate,
		backend: backend,
		notify:  notify,
		logger:  logger.WithComponent(log.ComponentRecorder),
	}
}

// rejectionMessage maps a gate error to the operator-facing message.
func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, ErrFutureDate):
		return "No podés operar una fecha futura."
	case errors.Is(err, ErrNotToday):
		return "Solo podés operar la caja del día de hoy."
	case errors.Is(err, ErrRegisterClosed):
		return "La caja de hoy está cerrada."
	case errors.Is(err, ErrStatusUnknown):
		return "No se pudo verificar el estado de la caja."
	default:
		return err.Error()
	}
}

// authorize force-refreshes the snapshot for date and re-runs the gate.
func (r *Recorder) authorize(ctx context.Context, date string) error {
	day := r.cache.GetStatus(ctx, date, true)
	return r.gate.Authorize(date, day.Status)
}

// RecordExpense runs the expense workflow for the given entry. On success
// the cache is force-refreshed; on any failure the cache and the caller's
// form state are left untouched so the operator can retry.
func (r *Recorder) RecordExpense(ctx context.Context, entry core.ExpenseEntry) error {
	if !r.expenseBusy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer r.expenseBusy.Store(false)

	if err := r.authorize(ctx, entry.Date); err != nil {
		r.notify.Error(rejectionMessage(err))
		return err
	}
	if err := entry.Validate(); err != nil {
		r.notify.Error(validationMessage(err))
		return err
	}

	err := r.backend.RegistrarEgreso(ctx, api.RegistrarEgresoRequest{
		Descripcion: entry.Description,
		Monto:       entry.Amount.Pesos(),
		Fecha:       entry.Date,
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "Expense submit failed", "fecha", entry.Date, "error", err)
		r.notify.Error("No se pudo registrar el egreso")
		return err
	}

	r.cache.GetStatus(ctx, entry.Date, true)
	r.logger.InfoContext(ctx, "Expense recorded",
		"fecha", entry.Date, "amount_cents", entry.Amount.Cents)
	r.notify.Success("Egreso registrado")
	return nil
}

// RecordDeliveryIncome runs the delivery-platform income workflow.
func (r *Recorder) RecordDeliveryIncome(ctx context.Context, entry core.DeliveryIncomeEntry) error {
	if !r.incomeBusy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer r.incomeBusy.Store(false)

	if err := r.authorize(ctx, entry.Date); err != nil {
		r.notify.Error(rejectionMessage(err))
		return err
	}
	if err := entry.Validate(); err != nil {
		r.notify.Error(validationMessage(err))
		return err
	}

	err := r.backend.RegistrarPedidosYa(ctx, api.RegistrarPYRequest{
		Fecha: entry.Date,
		Monto: entry.Amount.Pesos(),
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "Delivery income submit failed", "fecha", entry.Date, "error", err)
		r.notify.Error("No se pudo registrar PedidosYa")
		return err
	}

	r.cache.GetStatus(ctx, entry.Date, true)
	r.logger.InfoContext(ctx, "Delivery income recorded",
		"fecha", entry.Date, "amount_cents", entry.Amount.Cents)
	r.notify.Success("PedidosYa registrado")
	return nil
}

// CloseRegister finalizes today's register. When the close response carries
// the status and final balance they are cached and displayed as-is; the
// client never recomputes the balance from raw entries, so an absent
// balanceFinal triggers one extra query to the balance endpoint instead.
func (r *Recorder) CloseRegister(ctx context.Context, date string) (CloseResult, error) {
	if !r.closeBusy.CompareAndSwap(false, true) {
		return CloseResult{}, ErrBusy
	}
	defer r.closeBusy.Store(false)

	if err := r.authorize(ctx, date); err != nil {
		r.notify.Error(rejectionMessage(err))
		return CloseResult{}, err
	}

	resp, err := r.backend.Cierre(ctx, date)
	if err != nil {
		r.logger.ErrorContext(ctx, "Close failed", "fecha", date, "error", err)
		r.notify.Error("No se pudo cerrar la caja")
		return CloseResult{}, err
	}

	var result CloseResult
	if st := core.StatusFromWire(resp.Estado); st != core.StatusUnknown {
		result.Day = core.RegisterDay{Date: date, Status: st, ClosedAt: resp.ClosedAt()}
		r.cache.Put(date, result.Day)
	} else {
		result.Day = r.cache.GetStatus(ctx, date, true)
	}

	if resp.BalanceFinal != nil {
		result.Balance = core.Money{Cents: core.CentsFromFloat(*resp.BalanceFinal)}
		result.BalanceFromClose = true
	} else {
		bal, err := r.backend.Balance(ctx, date)
		if err != nil {
			r.logger.WarnContext(ctx, "Balance query after close failed", "fecha", date, "error", err)
		} else {
			result.Balance = core.Money{Cents: core.CentsFromFloat(bal.Value())}
		}
	}

	r.logger.InfoContext(ctx, "Register closed",
		"fecha", date, "balance_cents", result.Balance.Cents, "closed_at", closedAtArg(result.Day.ClosedAt))
	r.notify.Success("Caja cerrada")
	return result, nil
}

func closedAtArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

// validationMessage maps a field validation error to the operator message.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyDescription):
		return "Completá la descripción del egreso"
	case errors.Is(err, core.ErrInvalidAmount):
		return "El monto debe ser mayor a cero"
	case errors.Is(err, core.ErrMissingDate), errors.Is(err, core.ErrInvalidDate):
		return "Seleccioná una fecha válida"
	default:
		return "Datos no válidos"
	}
}
