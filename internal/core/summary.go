package core

import "time"

// DaySummary is the end-of-day snapshot exported after a register closes.
type DaySummary struct {
	Fecha     string
	Balance   Money
	Ingresos  IncomeTotals
	Egresos   Money
	CerradaEn *time.Time
}

func (s DaySummary) Validate() error {
	if s.Fecha == "" {
		return ErrMissingDate
	}
	if _, err := ParseDate(s.Fecha); err != nil {
		return err
	}
	return nil
}
