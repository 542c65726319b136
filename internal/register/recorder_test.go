package register

import (
	"context"
	"errors"
	"testing"
	"time"

	"caja/internal/api"
	"caja/internal/core"
)

func newTestRecorder(backend *fakeBackend, policy UnknownPolicy) (*Recorder, *StatusCache, *fakeNotifier) {
	cache := NewStatusCache(backend)
	notify := &fakeNotifier{}
	rec := NewRecorder(cache, testGate(policy), backend, notify, testLogger())
	return rec, cache, notify
}

func expenseFor(date string) core.ExpenseEntry {
	return core.ExpenseEntry{Date: date, Description: "hielo", Amount: core.Money{Cents: 1500}}
}

func TestRecordExpenseOnUnknownStatus(t *testing.T) {
	// Today with no reportable status: the permissive default treats the
	// register as operable.
	backend := newFakeBackend()
	backend.metaErr = errors.New("no status endpoint")
	backend.ingresosErr = errors.New("boom")
	rec, _, notify := newTestRecorder(backend, UnknownOperable)

	if err := rec.RecordExpense(context.Background(), expenseFor(today)); err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
	if backend.callCount("registrar") != 1 {
		t.Fatal("expense was not submitted")
	}
	if notify.lastSuccess() != "Egreso registrado" {
		t.Fatalf("missing success toast, got %q", notify.lastSuccess())
	}
}

func TestRecordExpenseRejectedWhenClosed(t *testing.T) {
	backend := newFakeBackend()
	backend.meta = api.MetaResponse{Estado: "CERRADA"}
	rec, _, notify := newTestRecorder(backend, UnknownOperable)

	err := rec.RecordExpense(context.Background(), expenseFor(today))
	if !errors.Is(err, ErrRegisterClosed) {
		t.Fatalf("expected ErrRegisterClosed, got %v", err)
	}
	if backend.callCount("registrar") != 0 {
		t.Fatal("rejected expense still hit the expense endpoint")
	}
	if notify.lastError() != "La caja de hoy está cerrada." {
		t.Fatalf("wrong rejection message: %q", notify.lastError())
	}
}

func TestCloseRejectedForPastDate(t *testing.T) {
	// Yesterday was never closed; closing it is still rejected locally.
	backend := newFakeBackend()
	backend.meta = api.MetaResponse{Estado: "ABIERTA"}
	rec, _, notify := newTestRecorder(backend, UnknownOperable)

	_, err := rec.CloseRegister(context.Background(), yesterday)
	if !errors.Is(err, ErrNotToday) {
		t.Fatalf("expected ErrNotToday, got %v", err)
	}
	if backend.callCount("cierre") != 0 {
		t.Fatal("rejected close still hit the backend")
	}
	if notify.lastError() != "Solo podés operar la caja del día de hoy." {
		t.Fatalf("wrong rejection message: %q", notify.lastError())
	}
}

func TestCloseRejectedForFutureDate(t *testing.T) {
	backend := newFakeBackend()
	rec, _, notify := newTestRecorder(backend, UnknownOperable)

	_, err := rec.CloseRegister(context.Background(), tomorrow)
	if !errors.Is(err, ErrFutureDate) {
		t.Fatalf("expected ErrFutureDate, got %v", err)
	}
	if backend.callCount("cierre") != 0 || backend.callCount("meta") != 1 {
		t.Fatalf("unexpected backend traffic: cierre=%d meta=%d",
			backend.callCount("cierre"), backend.callCount("meta"))
	}
	if notify.lastError() != "No podés operar una fecha futura." {
		t.Fatalf("wrong rejection message: %q", notify.lastError())
	}
}

func TestCloseUsesBalanceFromResponse(t *testing.T) {
	balanceFinal := 1530.50
	backend := newFakeBackend()
	backend.meta = api.MetaResponse{Estado: "ABIERTA"}
	backend.cierre = api.CierreResponse{Estado: "CERRADA", BalanceFinal: &balanceFinal}
	rec, cache, _ := newTestRecorder(backend, UnknownOperable)

	res, err := rec.CloseRegister(context.Background(), today)
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if !res.BalanceFromClose || res.Balance.Cents != 153050 {
		t.Fatalf("balance = %d (fromClose=%v), want 153050 from the close response",
			res.Balance.Cents, res.BalanceFromClose)
	}
	if backend.callCount("balance") != 0 {
		t.Fatal("close response carried the balance but the balance endpoint was still queried")
	}

	// The close response estado is cached: a plain getStatus serves CLOSED
	// without touching the network.
	metaCalls := backend.callCount("meta")
	day := cache.GetStatus(context.Background(), today, false)
	if day.Status != core.StatusClosed {
		t.Fatalf("expected closed from cache, got %q", day.Status)
	}
	if backend.callCount("meta") != metaCalls {
		t.Fatal("getStatus after close hit the network without force")
	}
}

func TestCloseWithoutBalanceQueriesEndpoint(t *testing.T) {
	bal := 980.0
	backend := newFakeBackend()
	backend.meta = api.MetaResponse{Estado: "ABIERTA"}
	backend.cierre = api.CierreResponse{Estado: "CERRADA"}
	backend.balance = api.BalanceResponse{Balance: &bal}
	rec, _, _ := newTestRecorder(backend, UnknownOperable)

	res, err := rec.CloseRegister(context.Background(), today)
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if res.BalanceFromClose {
		t.Fatal("balance reported as coming from the close response")
	}
	if res.Balance.Cents != 98000 {
		t.Fatalf("balance = %d, want 98000 from the balance endpoint", res.Balance.Cents)
	}
	if backend.callCount("balance") != 1 {
		t.Fatalf("balance endpoint calls = %d, want 1", backend.callCount("balance"))
	}
}

func TestCloseWithoutEstadoForcesRefresh(t *testing.T) {
	bal := 100.0
	backend := newFakeBackend()
	backend.meta = api.MetaResponse{Estado: "ABIERTA"}
	backend.cierre = api.CierreResponse{}
	backend.balance = api.BalanceResponse{Balance: &bal}
	rec, _, _ := newTestRecorder(backend, UnknownOperable)

	res, err := rec.CloseRegister(context.Background(), today)
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	// The snapshot comes from the forced refresh, not from the empty close
	// response: one meta call for the gate re-check plus one afterwards.
	if res.Day.Status != core.StatusOpen {
		t.Fatalf("expected refreshed status, got %q", res.Day.Status)
	}
	if got := backend.callCount("meta"); got != 2 {
		t.Fatalf("meta calls = %d, want 2", got)
	}
}

func TestRecordExpenseBackendFailureLeavesCacheIntact(t *testing.T) {
	backend := newFakeBackend()
	backend.meta = api.MetaResponse{Estado: "ABIERTA"}
	backend.registrarErr = &api.StatusError{Code: 500, Path: "/api/caja/registrar"}
	rec, cache, notify := newTestRecorder(backend, UnknownOperable)

	err := rec.RecordExpense(context.Background(), expenseFor(today))
	var stErr *api.StatusError
	if !errors.As(err, &stErr) || stErr.Code != 500 {
		t.Fatalf("expected 500 StatusError, got %v", err)
	}
	if notify.lastError() != "No se pudo registrar el egreso" {
		t.Fatalf("missing error toast, got %q", notify.lastError())
	}
	// The snapshot refreshed before the submit is untouched by the failure:
	// still open, and no extra refresh was issued.
	if day, _ := cache.Peek(today); day.Status != core.StatusOpen {
		t.Fatalf("cache mutated on failure: %q", day.Status)
	}
	if backend.callCount("meta") != 1 {
		t.Fatalf("meta calls = %d, want only the pre-submit refresh", backend.callCount("meta"))
	}
}

func TestRecordExpenseValidationBeforeNetwork(t *testing.T) {
	backend := newFakeBackend()
	backend.meta = api.MetaResponse{Estado: "ABIERTA"}
	rec, _, notify := newTestRecorder(backend, UnknownOperable)

	entry := core.ExpenseEntry{Date: today, Description: "  ", Amount: core.Money{Cents: 500}}
	if err := rec.RecordExpense(context.Background(), entry); !errors.Is(err, core.ErrEmptyDescription) {
		t.Fatalf("expected ErrEmptyDescription, got %v", err)
	}
	if backend.callCount("registrar") != 0 {
		t.Fatal("invalid entry reached the backend")
	}
	if notify.lastError() != "Completá la descripción del egreso" {
		t.Fatalf("wrong field message: %q", notify.lastError())
	}
}

func TestRecordDeliveryIncome(t *testing.T) {
	backend := newFakeBackend()
	backend.meta = api.MetaResponse{Estado: "ABIERTA"}
	rec, _, notify := newTestRecorder(backend, UnknownOperable)

	entry := core.DeliveryIncomeEntry{Date: today, Amount: core.Money{Cents: 250000}}
	if err := rec.RecordDeliveryIncome(context.Background(), entry); err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
	if backend.callCount("registrar-py") != 1 {
		t.Fatal("income was not submitted")
	}
	if notify.lastSuccess() != "PedidosYa registrado" {
		t.Fatalf("missing success toast, got %q", notify.lastSuccess())
	}
}

func TestRecorderInFlightGuard(t *testing.T) {
	backend := newFakeBackend()
	backend.meta = api.MetaResponse{Estado: "ABIERTA"}
	gate := make(chan struct{})
	backend.metaGate = gate
	rec, _, _ := newTestRecorder(backend, UnknownOperable)

	done := make(chan error, 1)
	go func() {
		done <- rec.RecordExpense(context.Background(), expenseFor(today))
	}()

	// Wait for the first invocation to be stuck in its status refresh, then
	// click again.
	for backend.callCount("meta") == 0 {
		time.Sleep(time.Millisecond)
	}
	if err := rec.RecordExpense(context.Background(), expenseFor(today)); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy for the duplicate click, got %v", err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("first invocation failed: %v", err)
	}
	if backend.callCount("registrar") != 1 {
		t.Fatalf("registrar calls = %d, want 1", backend.callCount("registrar"))
	}
}
