package register

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrUnknownCommand is returned when no handler is bound for a command.
var ErrUnknownCommand = errors.New("unknown command")

// HandlerFunc handles one dispatched command with its raw arguments.
type HandlerFunc func(ctx context.Context, args []string) error

// Dispatcher routes named commands to registered handlers. It decouples the
// workflow from any particular surface: the terminal client drives it today,
// and the register logic stays testable without one.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]HandlerFunc)}
}

// Handle binds a handler to a command name, replacing any previous binding.
func (d *Dispatcher) Handle(name string, h HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = h
}

// Commands lists the bound command names.
func (d *Dispatcher) Commands() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	return names
}

// Dispatch invokes the handler bound to name.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args []string) error {
	d.mu.RLock()
	h, ok := d.handlers[name]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return h(ctx, args)
}

// Register command names.
const (
	CmdViewDate      = "ver"
	CmdRecordExpense = "egreso"
	CmdRecordIncome  = "pedidosya"
	CmdCloseRegister = "cierre"
)

// BindCommands wires the session's operations onto a dispatcher:
//
//	ver [fecha]                 — switch the viewed date (default today)
//	egreso <monto> <descripción...>
//	pedidosya <monto> [fecha]
//	cierre                      — close the viewed date's register
func (s *Session) BindCommands(d *Dispatcher) {
	d.Handle(CmdViewDate, func(ctx context.Context, args []string) error {
		if len(args) == 0 {
			return s.Start(ctx)
		}
		return s.ViewDate(ctx, args[0])
	})
	d.Handle(CmdRecordExpense, func(ctx context.Context, args []string) error {
		if len(args) < 2 {
			s.notify.Error("Completá todos los datos del egreso")
			return errors.New("usage: egreso <monto> <descripción>")
		}
		return s.RecordExpense(ctx, strings.Join(args[1:], " "), args[0])
	})
	d.Handle(CmdRecordIncome, func(ctx context.Context, args []string) error {
		if len(args) == 0 {
			s.notify.Error("Completá la fecha y el monto")
			return errors.New("usage: pedidosya <monto> [fecha]")
		}
		date := ""
		if len(args) > 1 {
			date = args[1]
		}
		return s.RecordDeliveryIncome(ctx, date, args[0])
	})
	d.Handle(CmdCloseRegister, func(ctx context.Context, args []string) error {
		return s.CloseRegister(ctx)
	})
}
