package api

import "time"

// Wire DTOs for the caja backend. Field names follow the backend's JSON
// contract; several fields have a legacy spelling (cerradoEn,
// ingresosTransferencias, mermas) that older backend builds still emit, so
// both are decoded and coalesced by accessor methods.

// MetaResponse is the payload of GET /api/caja/meta.
type MetaResponse struct {
	Estado    string     `json:"estado"`
	CerradaEn *time.Time `json:"cerradaEn"`
	CerradoEn *time.Time `json:"cerradoEn"`
}

// ClosedAt coalesces the current and legacy closed-at field names.
func (m MetaResponse) ClosedAt() *time.Time {
	if m.CerradaEn != nil {
		return m.CerradaEn
	}
	return m.CerradoEn
}

// IngresosResponse is the payload of GET /api/caja/ingresos. The backend may
// embed the register estado here as a fallback for clients that cannot reach
// the meta endpoint.
type IngresosResponse struct {
	IngresosTotales        float64    `json:"ingresosTotales"`
	IngresosEfectivo       float64    `json:"ingresosEfectivo"`
	IngresosTransferencia  float64    `json:"ingresosTransferencia"`
	IngresosTransferencias float64    `json:"ingresosTransferencias"`
	TotalMermas            float64    `json:"totalMermas"`
	Mermas                 float64    `json:"mermas"`
	Estado                 string     `json:"estado,omitempty"`
	CerradaEn              *time.Time `json:"cerradaEn,omitempty"`
	CerradoEn              *time.Time `json:"cerradoEn,omitempty"`
}

// Transferencia coalesces the singular and legacy plural field names.
func (r IngresosResponse) Transferencia() float64 {
	if r.IngresosTransferencia != 0 {
		return r.IngresosTransferencia
	}
	return r.IngresosTransferencias
}

// Shrinkage coalesces the current and legacy mermas field names.
func (r IngresosResponse) Shrinkage() float64 {
	if r.TotalMermas != 0 {
		return r.TotalMermas
	}
	return r.Mermas
}

// ClosedAt coalesces the current and legacy closed-at field names.
func (r IngresosResponse) ClosedAt() *time.Time {
	if r.CerradaEn != nil {
		return r.CerradaEn
	}
	return r.CerradoEn
}

// EgresoItem is one element of the GET /api/caja/egresos listing.
type EgresoItem struct {
	Descripcion string  `json:"descripcion"`
	Monto       float64 `json:"monto"`
	Hora        string  `json:"hora"`
}

// BalanceResponse is the payload of GET /api/caja/balance.
type BalanceResponse struct {
	Balance      *float64 `json:"balance"`
	BalanceFinal *float64 `json:"balanceFinal"`
}

// Value coalesces the two balance field names, zero when neither is set.
func (r BalanceResponse) Value() float64 {
	if r.Balance != nil {
		return *r.Balance
	}
	if r.BalanceFinal != nil {
		return *r.BalanceFinal
	}
	return 0
}

// RegistrarEgresoRequest is the body of POST /api/caja/registrar.
type RegistrarEgresoRequest struct {
	Descripcion string  `json:"descripcion"`
	Monto       float64 `json:"monto"`
	Fecha       string  `json:"fecha"`
}

// RegistrarPYRequest is the body of POST /api/caja/registrar-py.
type RegistrarPYRequest struct {
	Fecha string  `json:"fecha"`
	Monto float64 `json:"monto"`
}

// CierreResponse is the payload of POST /api/caja/cierre. Every field is
// optional; when balanceFinal is absent the client re-queries the balance
// endpoint rather than computing it locally.
type CierreResponse struct {
	Estado       string     `json:"estado"`
	CerradaEn    *time.Time `json:"cerradaEn"`
	CerradoEn    *time.Time `json:"cerradoEn"`
	BalanceFinal *float64   `json:"balanceFinal"`
}

// ClosedAt coalesces the current and legacy closed-at field names.
func (r CierreResponse) ClosedAt() *time.Time {
	if r.CerradaEn != nil {
		return r.CerradaEn
	}
	return r.CerradoEn
}
