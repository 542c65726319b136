package core

import (
	"errors"
	"strings"
	"time"
)

// Status is the reconciliation state of one register day as reported by the
// backend. Wire values are Spanish ("ABIERTA"/"CERRADA"); an absent or
// unreadable status maps to StatusUnknown.
type Status string

const (
	StatusOpen    Status = "ABIERTA"
	StatusClosed  Status = "CERRADA"
	StatusUnknown Status = ""
)

// StatusFromWire maps a backend estado field to a Status. Anything that is
// not a recognized value degrades to StatusUnknown rather than failing.
func StatusFromWire(estado string) Status {
	switch strings.ToUpper(strings.TrimSpace(estado)) {
	case string(StatusOpen):
		return StatusOpen
	case string(StatusClosed):
		return StatusClosed
	default:
		return StatusUnknown
	}
}

// RegisterDay is the client-side snapshot of one calendar date's register.
// It is a read-through copy of backend state, never authoritative.
type RegisterDay struct {
	Date     string
	Status   Status
	ClosedAt *time.Time
}

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrMissingDate      = errors.New("missing date")
)

// ExpenseEntry is an egreso as entered by the operator, validated locally
// before it is sent to the backend.
type ExpenseEntry struct {
	Date        string
	Description string
	Amount      Money
}

func (e ExpenseEntry) Validate() error {
	if e.Date == "" {
		return ErrMissingDate
	}
	if _, err := ParseDate(e.Date); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return e.Amount.Validate()
}

// DeliveryIncomeEntry is income settled through an external delivery
// platform, entered manually because the platform settles out-of-band.
type DeliveryIncomeEntry struct {
	Date   string
	Amount Money
}

func (e DeliveryIncomeEntry) Validate() error {
	if e.Date == "" {
		return ErrMissingDate
	}
	if _, err := ParseDate(e.Date); err != nil {
		return err
	}
	return e.Amount.Validate()
}

// ExpenseLine is one recorded egreso as listed by the backend.
type ExpenseLine struct {
	Description string
	Amount      Money
	Time        string
}

// IncomeTotals aggregates a date's ingresos as reported by the backend.
type IncomeTotals struct {
	Total     Money
	Cash      Money
	Transfer  Money
	Shrinkage Money
}
