package register

import (
	"context"
	"strings"
	"sync"

	"caja/internal/api"
	"caja/internal/core"
	"caja/internal/log"
)

// BackendClient is everything the session needs from the backend: status
// queries for the cache, mutations for the recorders and the day view load.
// *api.Client satisfies it.
type BackendClient interface {
	StatusFetcher
	Submitter
	LoadDayView(ctx context.Context, fecha string) api.DayView
}

// View renders the register screen: the gate state of the viewed date, the
// day's figures and the balance banner. Implementations must not reach back
// into the session.
type View interface {
	RenderGate(date string, d Decision)
	RenderDay(v api.DayView)
	RenderBalance(date string, m core.Money)
}

// Session is one register view over one backend: cache, gate, recorders and
// the date the operator is looking at. State lives here rather than in
// package globals so several sessions (e.g. multi-store) can coexist.
type Session struct {
	backend BackendClient
	cache   *StatusCache
	gate    Gate
	rec     *Recorder
	notify  Notifier
	view    View
	logger  *log.Logger

	mu         sync.Mutex
	viewedDate string
}

func NewSession(backend BackendClient, gate Gate, notify Notifier, view View, logger *log.Logger) *Session {
	cache := NewStatusCache(backend)
	return &Session{
		backend: backend,
		cache:   cache,
		gate:    gate,
		rec:     NewRecorder(cache, gate, backend, notify, logger),
		notify:  notify,
		view:    view,
		logger:  logger.WithComponent(log.ComponentSession),
	}
}

// Cache exposes the session's status cache.
func (s *Session) Cache() *StatusCache { return s.cache }

// CurrentDate is the date under operation: the viewed date, defaulting to
// today.
func (s *Session) CurrentDate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.viewedDate != "" {
		return s.viewedDate
	}
	return core.TodayIn(s.gate.now())
}

// Start loads today's register.
func (s *Session) Start(ctx context.Context) error {
	return s.ViewDate(ctx, core.TodayIn(s.gate.now()))
}

// ViewDate switches the session to a date: force-refreshes its status,
// re-evaluates the gate and renders the day's figures. Future dates are not
// browsable; the gate is still rendered so the controls show why.
func (s *Session) ViewDate(ctx context.Context, date string) error {
	date = strings.TrimSpace(date)
	if date == "" {
		s.notify.Error("Seleccioná una fecha para buscar la caja.")
		return core.ErrMissingDate
	}
	normalized, err := core.ParseDate(date)
	if err != nil {
		s.notify.Error("Seleccioná una fecha válida")
		return err
	}
	date = normalized

	if core.IsFutureIn(date, s.gate.now()) {
		s.notify.Error("No podés buscar una fecha futura.")
		s.view.RenderGate(date, s.gate.Evaluate(date, core.StatusUnknown))
		return ErrFutureDate
	}

	s.mu.Lock()
	s.viewedDate = date
	s.mu.Unlock()

	day := s.cache.GetStatus(ctx, date, true)
	s.view.RenderGate(date, s.gate.Evaluate(date, day.Status))

	dayView := s.backend.LoadDayView(ctx, date)
	// Estado piggybacked on the ingresos payload refreshes the cache for
	// free, like the meta fallback would.
	if st := core.StatusFromWire(dayView.Estado); st != core.StatusUnknown && st != day.Status {
		s.cache.Put(date, core.RegisterDay{Date: date, Status: st})
		s.view.RenderGate(date, s.gate.Evaluate(date, st))
	}
	s.view.RenderDay(dayView)
	return nil
}

// renderAfterMutation re-renders the gate and figures from fresh state.
func (s *Session) renderAfterMutation(ctx context.Context, date string) {
	day, ok := s.cache.Peek(date)
	if !ok {
		day = s.cache.GetStatus(ctx, date, false)
	}
	s.view.RenderGate(date, s.gate.Evaluate(date, day.Status))
	s.view.RenderDay(s.backend.LoadDayView(ctx, date))
}

// RecordExpense parses the form fields and runs the expense workflow on the
// currently viewed date. Field errors reject locally before any network
// call.
func (s *Session) RecordExpense(ctx context.Context, description, amount string) error {
	date := s.CurrentDate()

	cents, err := core.ParseDecimalToCents(amount)
	if err != nil {
		s.notify.Error("Completá todos los datos del egreso")
		return err
	}
	entry := core.ExpenseEntry{
		Date:        date,
		Description: strings.TrimSpace(description),
		Amount:      core.Money{Cents: cents},
	}
	if err := s.rec.RecordExpense(ctx, entry); err != nil {
		return err
	}
	s.renderAfterMutation(ctx, date)
	return nil
}

// RecordDeliveryIncome records delivery-platform income. The entry date
// defaults to the viewed date but may be overridden, matching the original
// form's separate date field; the gate still only admits today.
func (s *Session) RecordDeliveryIncome(ctx context.Context, date, amount string) error {
	if strings.TrimSpace(date) == "" {
		date = s.CurrentDate()
	}
	cents, err := core.ParseDecimalToCents(amount)
	if err != nil {
		s.notify.Error("Completá la fecha y el monto")
		return err
	}
	entry := core.DeliveryIncomeEntry{
		Date:   strings.TrimSpace(date),
		Amount: core.Money{Cents: cents},
	}
	if err := s.rec.RecordDeliveryIncome(ctx, entry); err != nil {
		return err
	}
	s.renderAfterMutation(ctx, entry.Date)
	return nil
}

// CloseRegister finalizes the viewed date. The balance shown comes from the
// close response when present; no extra balance query is made in that case.
func (s *Session) CloseRegister(ctx context.Context) error {
	date := s.CurrentDate()

	res, err := s.rec.CloseRegister(ctx, date)
	if err != nil {
		return err
	}
	s.view.RenderBalance(date, res.Balance)
	day, ok := s.cache.Peek(date)
	if !ok {
		day = res.Day
	}
	s.view.RenderGate(date, s.gate.Evaluate(date, day.Status))
	return nil
}
