// Package storage persists register days, expenses and income in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"caja/internal/core"

	_ "modernc.org/sqlite"
)

// Sentinel errors for the day lifecycle. Handlers map these to HTTP codes.
var (
	ErrDayClosed  = errors.New("register day is closed")
	ErrDayNotOpen = errors.New("register day was never opened")
)

// Income methods as stored in the ingresos.metodo column.
const (
	MethodCash      = "efectivo"
	MethodTransfer  = "transferencia"
	MethodShrinkage = "merma"
)

// DayRecord is one row of register_days.
type DayRecord struct {
	Fecha     string
	Estado    core.Status
	CerradaEn *time.Time
}

// EgresoRecord is one row of egresos.
type EgresoRecord struct {
	ID          int64
	Fecha       string
	Descripcion string
	MontoCents  int64
	Hora        string
}

// IngresoRecord is one row of ingresos.
type IngresoRecord struct {
	ID         int64
	Fecha      string
	Origen     string
	Metodo     string
	MontoCents int64
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// GetDay returns the register day row for a date. A date with no row is a day
// that was never opened: (nil, nil).
func (r *SQLiteRepository) GetDay(ctx context.Context, fecha string) (*DayRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT fecha, estado, cerrada_en FROM register_days WHERE fecha = ?`, fecha)

	var rec DayRecord
	var estado string
	var cerradaEn sql.NullTime
	if err := row.Scan(&rec.Fecha, &estado, &cerradaEn); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get register day: %w", err)
	}
	rec.Estado = core.StatusFromWire(estado)
	if cerradaEn.Valid {
		t := cerradaEn.Time
		rec.CerradaEn = &t
	}
	return &rec, nil
}

// OpenDay creates the register day row if it does not exist. Re-opening a
// closed day is not supported; an existing row is left untouched.
func (r *SQLiteRepository) OpenDay(ctx context.Context, fecha string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO register_days (fecha, estado) VALUES (?, 'ABIERTA')
		 ON CONFLICT (fecha) DO NOTHING`, fecha)
	if err != nil {
		return fmt.Errorf("open register day: %w", err)
	}
	return nil
}

// requireOpen opens the day on first use and fails if it is already closed.
func (r *SQLiteRepository) requireOpen(ctx context.Context, fecha string) error {
	if err := r.OpenDay(ctx, fecha); err != nil {
		return err
	}
	day, err := r.GetDay(ctx, fecha)
	if err != nil {
		return err
	}
	if day != nil && day.Estado == core.StatusClosed {
		return ErrDayClosed
	}
	return nil
}

// CreateEgreso records an expense against an open day.
func (r *SQLiteRepository) CreateEgreso(ctx context.Context, fecha, descripcion string, montoCents int64, hora string) (int64, error) {
	if err := r.requireOpen(ctx, fecha); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO egresos (fecha, descripcion, monto_cents, hora) VALUES (?, ?, ?, ?)`,
		fecha, descripcion, montoCents, hora)
	if err != nil {
		return 0, fmt.Errorf("create egreso: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("egreso insert id: %w", err)
	}
	return id, nil
}

// ListEgresos returns a date's expenses in insertion order.
func (r *SQLiteRepository) ListEgresos(ctx context.Context, fecha string) ([]EgresoRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, fecha, descripcion, monto_cents, hora FROM egresos WHERE fecha = ? ORDER BY id`, fecha)
	if err != nil {
		return nil, fmt.Errorf("list egresos: %w", err)
	}
	defer rows.Close()

	var out []EgresoRecord
	for rows.Next() {
		var e EgresoRecord
		if err := rows.Scan(&e.ID, &e.Fecha, &e.Descripcion, &e.MontoCents, &e.Hora); err != nil {
			return nil, fmt.Errorf("scan egreso: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list egresos: %w", err)
	}
	return out, nil
}

// CreateIngreso records income against an open day.
func (r *SQLiteRepository) CreateIngreso(ctx context.Context, fecha, origen, metodo string, montoCents int64) (int64, error) {
	if err := r.requireOpen(ctx, fecha); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO ingresos (fecha, origen, metodo, monto_cents) VALUES (?, ?, ?, ?)`,
		fecha, origen, metodo, montoCents)
	if err != nil {
		return 0, fmt.Errorf("create ingreso: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("ingreso insert id: %w", err)
	}
	return id, nil
}

// IncomeTotals aggregates a date's income by method. Shrinkage counts toward
// its own bucket, not the total.
func (r *SQLiteRepository) IncomeTotals(ctx context.Context, fecha string) (core.IncomeTotals, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT metodo, COALESCE(SUM(monto_cents), 0) FROM ingresos WHERE fecha = ? GROUP BY metodo`, fecha)
	if err != nil {
		return core.IncomeTotals{}, fmt.Errorf("income totals: %w", err)
	}
	defer rows.Close()

	var totals core.IncomeTotals
	for rows.Next() {
		var metodo string
		var cents int64
		if err := rows.Scan(&metodo, &cents); err != nil {
			return core.IncomeTotals{}, fmt.Errorf("scan income total: %w", err)
		}
		switch metodo {
		case MethodCash:
			totals.Cash = core.Money{Cents: cents}
			totals.Total.Cents += cents
		case MethodTransfer:
			totals.Transfer = core.Money{Cents: cents}
			totals.Total.Cents += cents
		case MethodShrinkage:
			totals.Shrinkage = core.Money{Cents: cents}
		}
	}
	if err := rows.Err(); err != nil {
		return core.IncomeTotals{}, fmt.Errorf("income totals: %w", err)
	}
	return totals, nil
}

// Balance is income minus expenses and shrinkage for a date.
func (r *SQLiteRepository) Balance(ctx context.Context, fecha string) (core.Money, error) {
	totals, err := r.IncomeTotals(ctx, fecha)
	if err != nil {
		return core.Money{}, err
	}
	var egresos int64
	err = r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(monto_cents), 0) FROM egresos WHERE fecha = ?`, fecha).Scan(&egresos)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum egresos: %w", err)
	}
	return core.Money{Cents: totals.Total.Cents - totals.Shrinkage.Cents - egresos}, nil
}

// CloseDay marks a date's register as closed and returns the final snapshot.
// Closing an already closed day fails with ErrDayClosed so the caller can
// report the conflict instead of silently re-stamping the close time.
func (r *SQLiteRepository) CloseDay(ctx context.Context, fecha string, closedAt time.Time) (*DayRecord, error) {
	if err := r.OpenDay(ctx, fecha); err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE register_days SET estado = 'CERRADA', cerrada_en = ?
		 WHERE fecha = ? AND estado = 'ABIERTA'`, closedAt, fecha)
	if err != nil {
		return nil, fmt.Errorf("close register day: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("close register day: %w", err)
	}
	if affected == 0 {
		return nil, ErrDayClosed
	}

	day, err := r.GetDay(ctx, fecha)
	if err != nil {
		return nil, err
	}
	if day == nil {
		return nil, ErrDayNotOpen
	}
	return day, nil
}
