package register

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"caja/internal/api"
	"caja/internal/core"
	"caja/internal/log"
)

// fixedNow anchors every test to a known local date.
var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.Local)

const (
	today     = "2026-03-14"
	yesterday = "2026-03-13"
	tomorrow  = "2026-03-15"
)

func testClock() time.Time { return fixedNow }

func testGate(policy UnknownPolicy) Gate {
	return Gate{Policy: policy, Now: testClock}
}

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

// fakeBackend implements BackendClient with per-endpoint canned responses
// and call counters.
type fakeBackend struct {
	mu sync.Mutex

	meta    api.MetaResponse
	metaErr error

	ingresos    api.IngresosResponse
	ingresosErr error

	egresos    []api.EgresoItem
	egresosErr error

	balance    api.BalanceResponse
	balanceErr error

	cierre    api.CierreResponse
	cierreErr error

	registrarErr error
	pyErr        error

	calls map[string]int

	// When set, Meta blocks until the channel is closed. Used to simulate a
	// slow in-flight status request.
	metaGate chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{calls: make(map[string]int)}
}

func (f *fakeBackend) count(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeBackend) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) Meta(ctx context.Context, fecha string) (api.MetaResponse, error) {
	f.count("meta")
	f.mu.Lock()
	gate := f.metaGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.meta, f.metaErr
}

func (f *fakeBackend) Ingresos(ctx context.Context, fecha string) (api.IngresosResponse, error) {
	f.count("ingresos")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ingresos, f.ingresosErr
}

func (f *fakeBackend) Egresos(ctx context.Context, fecha string) ([]api.EgresoItem, error) {
	f.count("egresos")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.egresos, f.egresosErr
}

func (f *fakeBackend) Balance(ctx context.Context, fecha string) (api.BalanceResponse, error) {
	f.count("balance")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balance, f.balanceErr
}

func (f *fakeBackend) RegistrarEgreso(ctx context.Context, req api.RegistrarEgresoRequest) error {
	f.count("registrar")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registrarErr
}

func (f *fakeBackend) RegistrarPedidosYa(ctx context.Context, req api.RegistrarPYRequest) error {
	f.count("registrar-py")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pyErr
}

func (f *fakeBackend) Cierre(ctx context.Context, fecha string) (api.CierreResponse, error) {
	f.count("cierre")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cierre, f.cierreErr
}

func (f *fakeBackend) LoadDayView(ctx context.Context, fecha string) api.DayView {
	f.count("dayview")
	view := api.DayView{Fecha: fecha}
	if in, err := f.Ingresos(ctx, fecha); err == nil {
		view.Ingresos = core.IncomeTotals{Total: core.Money{Cents: core.CentsFromFloat(in.IngresosTotales)}}
		view.Estado = in.Estado
	} else {
		view.IngresosErr = err
	}
	if bal, err := f.Balance(ctx, fecha); err == nil {
		view.Balance = core.Money{Cents: core.CentsFromFloat(bal.Value())}
	} else {
		view.BalanceErr = err
	}
	return view
}

// fakeNotifier records toast messages.
type fakeNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *fakeNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, msg)
}

func (n *fakeNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func (n *fakeNotifier) lastError() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.errors) == 0 {
		return ""
	}
	return n.errors[len(n.errors)-1]
}

func (n *fakeNotifier) lastSuccess() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.successes) == 0 {
		return ""
	}
	return n.successes[len(n.successes)-1]
}

// fakeView records render calls.
type fakeView struct {
	mu        sync.Mutex
	gates     []Decision
	gateDates []string
	days      []api.DayView
	balances  []core.Money
}

func (v *fakeView) RenderGate(date string, d Decision) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gateDates = append(v.gateDates, date)
	v.gates = append(v.gates, d)
}

func (v *fakeView) RenderDay(day api.DayView) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.days = append(v.days, day)
}

func (v *fakeView) RenderBalance(date string, m core.Money) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.balances = append(v.balances, m)
}

func (v *fakeView) lastGate() (string, Decision) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.gates) == 0 {
		return "", Decision{}
	}
	return v.gateDates[len(v.gateDates)-1], v.gates[len(v.gates)-1]
}
