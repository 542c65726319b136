// caja is the terminal register client for operators: it shows one day's
// figures and records egresos, PedidosYa income and the daily close against
// the cajad backend.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"caja/internal/api"
	"caja/internal/cli"
	"caja/internal/core"
	"caja/internal/log"
	"caja/internal/register"
)

func main() {
	cli.LoadEnvFile()

	applog := log.New(log.DefaultConfig())
	log.SetDefault(applog)

	cfg := cli.LoadAndValidateConfig(applog.Logger)

	policy, err := register.ParseUnknownPolicy(cfg.UnknownStatusPolicy)
	if err != nil {
		applog.Error("Invalid unknown-status policy", "error", err, "policy", cfg.UnknownStatusPolicy)
		os.Exit(1)
	}

	client := api.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout)
	gate := register.Gate{Policy: policy}
	out := bufio.NewWriter(os.Stdout)
	term := &terminal{out: out}

	session := register.NewSession(client, gate, term, term, applog)
	dispatcher := register.NewDispatcher()
	session.BindCommands(dispatcher)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := session.Start(ctx); err != nil {
		applog.Warn("Could not load today's register", "error", err)
	}
	term.flush()

	printHelp(out)
	_ = out.Flush()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(out, "caja> ")
		_ = out.Flush()
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			break
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		name, args := fields[0], fields[1:]

		switch name {
		case "salir", "exit":
			fmt.Fprintln(out, "Hasta luego.")
			_ = out.Flush()
			return
		case "ayuda", "help":
			printHelp(out)
			_ = out.Flush()
			continue
		}

		if err := dispatcher.Dispatch(ctx, name, args); err != nil {
			if errors.Is(err, register.ErrUnknownCommand) {
				known := dispatcher.Commands()
				sort.Strings(known)
				fmt.Fprintf(out, "Comando desconocido: %s (disponibles: %s)\n", name, strings.Join(known, ", "))
				printHelp(out)
			}
			// Workflow errors were already surfaced through the notifier.
		}
		term.flush()
	}

	if err := scanner.Err(); err != nil {
		applog.Error("Input error", "error", err)
		os.Exit(1)
	}
}

func printHelp(out *bufio.Writer) {
	fmt.Fprintln(out, "Comandos:")
	fmt.Fprintln(out, "  ver [fecha]                    mostrar la caja de una fecha (YYYY-MM-DD)")
	fmt.Fprintln(out, "  egreso <monto> <descripción>   registrar un egreso de hoy")
	fmt.Fprintln(out, "  pedidosya <monto> [fecha]      registrar ingreso de PedidosYa")
	fmt.Fprintln(out, "  cierre                         cerrar la caja del día")
	fmt.Fprintln(out, "  salir")
}

// terminal renders the register screen and notifications to stdout. It
// implements both register.View and register.Notifier.
type terminal struct {
	out *bufio.Writer
}

func (t *terminal) flush() { _ = t.out.Flush() }

func (t *terminal) Success(msg string) {
	fmt.Fprintf(t.out, "✓ %s\n", msg)
}

func (t *terminal) Error(msg string) {
	fmt.Fprintf(t.out, "✗ %s\n", msg)
}

func (t *terminal) RenderGate(date string, d register.Decision) {
	actions := make([]string, 0, 3)
	if d.CanRecordExpense {
		actions = append(actions, "egreso")
	}
	if d.CanRecordIncome {
		actions = append(actions, "pedidosya")
	}
	if d.CanClose {
		actions = append(actions, "cierre")
	}
	if len(actions) == 0 {
		fmt.Fprintf(t.out, "\nCaja %s — %s (solo lectura)\n", core.FormatVisual(date), d.Label)
		return
	}
	fmt.Fprintf(t.out, "\nCaja %s — %s [%s]\n", core.FormatVisual(date), d.Label, strings.Join(actions, ", "))
}

func (t *terminal) RenderDay(v api.DayView) {
	if v.IngresosErr != nil {
		fmt.Fprintln(t.out, "Ingresos: no disponibles")
	} else {
		fmt.Fprintf(t.out, "Ingresos: %s (efectivo %s, transferencia %s, mermas %s)\n",
			core.FormatPesos(v.Ingresos.Total.Cents),
			core.FormatPesos(v.Ingresos.Cash.Cents),
			core.FormatPesos(v.Ingresos.Transfer.Cents),
			core.FormatPesos(v.Ingresos.Shrinkage.Cents))
	}

	if v.EgresosErr != nil {
		fmt.Fprintln(t.out, "Egresos: no disponibles")
	} else if len(v.Egresos) == 0 {
		fmt.Fprintln(t.out, "Egresos: ninguno")
	} else {
		fmt.Fprintln(t.out, "Egresos:")
		for _, e := range v.Egresos {
			fmt.Fprintf(t.out, "  %s  %-10s %s\n", e.Time, core.FormatPesos(e.Amount.Cents), e.Description)
		}
	}

	if v.BalanceErr != nil {
		fmt.Fprintln(t.out, "Balance: no disponible")
	} else {
		fmt.Fprintf(t.out, "Balance: %s\n", core.FormatPesos(v.Balance.Cents))
	}
}

func (t *terminal) RenderBalance(date string, m core.Money) {
	fmt.Fprintf(t.out, "Balance final de %s: %s\n", core.FormatVisual(date), core.FormatPesos(m.Cents))
}
