package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"caja/internal/amqp"
	"caja/internal/core"
	"caja/internal/storage"
)

// metaPayload is the GET /api/caja/meta response. Estado is null for a date
// that has no row yet; clients fall back to the ingresos endpoint and then to
// UNKNOWN.
type metaPayload struct {
	Estado    *string    `json:"estado"`
	CerradaEn *time.Time `json:"cerradaEn"`
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	fecha, err := parseFecha(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fecha")
		return
	}

	day, err := s.repo.GetDay(r.Context(), fecha)
	if err != nil {
		slog.ErrorContext(r.Context(), "Meta lookup failed", "fecha", fecha, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	payload := metaPayload{}
	if day != nil {
		estado := string(day.Estado)
		payload.Estado = &estado
		payload.CerradaEn = day.CerradaEn
	}
	writeJSON(w, http.StatusOK, payload)
}

// ingresosPayload is the GET /api/caja/ingresos response. It piggybacks the
// register estado so clients can refresh day state without a second request.
type ingresosPayload struct {
	IngresosTotales       float64    `json:"ingresosTotales"`
	IngresosEfectivo      float64    `json:"ingresosEfectivo"`
	IngresosTransferencia float64    `json:"ingresosTransferencia"`
	TotalMermas           float64    `json:"totalMermas"`
	Estado                string     `json:"estado,omitempty"`
	CerradaEn             *time.Time `json:"cerradaEn,omitempty"`
}

func (s *Server) handleIngresos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	fecha, err := parseFecha(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fecha")
		return
	}

	totals, ok := s.ingresosCache.Get(fecha)
	if !ok {
		totals, err = s.repo.IncomeTotals(r.Context(), fecha)
		if err != nil {
			slog.ErrorContext(r.Context(), "Income totals failed", "fecha", fecha, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		s.ingresosCache.Set(fecha, totals)
	}

	payload := ingresosPayload{
		IngresosTotales:       totals.Total.Pesos(),
		IngresosEfectivo:      totals.Cash.Pesos(),
		IngresosTransferencia: totals.Transfer.Pesos(),
		TotalMermas:           totals.Shrinkage.Pesos(),
	}
	if day, err := s.repo.GetDay(r.Context(), fecha); err == nil && day != nil {
		payload.Estado = string(day.Estado)
		payload.CerradaEn = day.CerradaEn
	}
	writeJSON(w, http.StatusOK, payload)
}

type egresoPayload struct {
	Descripcion string  `json:"descripcion"`
	Monto       float64 `json:"monto"`
	Hora        string  `json:"hora"`
}

func (s *Server) handleEgresos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	fecha, err := parseFecha(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fecha")
		return
	}

	items, err := s.repo.ListEgresos(r.Context(), fecha)
	if err != nil {
		slog.ErrorContext(r.Context(), "Egreso listing failed", "fecha", fecha, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	payload := make([]egresoPayload, 0, len(items))
	for _, e := range items {
		payload = append(payload, egresoPayload{
			Descripcion: e.Descripcion,
			Monto:       core.Money{Cents: e.MontoCents}.Pesos(),
			Hora:        e.Hora,
		})
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	fecha, err := parseFecha(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fecha")
		return
	}

	balance, ok := s.balanceCache.Get(fecha)
	if !ok {
		balance, err = s.repo.Balance(r.Context(), fecha)
		if err != nil {
			slog.ErrorContext(r.Context(), "Balance query failed", "fecha", fecha, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		s.balanceCache.Set(fecha, balance)
	}
	writeJSON(w, http.StatusOK, map[string]float64{"balance": balance.Pesos()})
}

type registrarEgresoBody struct {
	Descripcion string  `json:"descripcion"`
	Monto       float64 `json:"monto"`
	Fecha       string  `json:"fecha"`
}

func (s *Server) handleRegistrarEgreso(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body registrarEgresoBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	fecha, ok := s.admitMutationDate(w, r, body.Fecha)
	if !ok {
		return
	}

	entry := core.ExpenseEntry{
		Date:        fecha,
		Description: sanitizeInput(body.Descripcion),
		Amount:      core.Money{Cents: core.CentsFromFloat(body.Monto)},
	}
	if err := entry.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	hora := s.now().Format("15:04")
	id, err := s.repo.CreateEgreso(r.Context(), fecha, entry.Description, entry.Amount.Cents, hora)
	if err != nil {
		s.writeMutationError(w, r, "egreso", fecha, err)
		return
	}

	s.invalidateDay(fecha)
	s.publishEvent(r.Context(), amqp.EventEgresoRegistrado, fecha, entry.Amount.Cents)

	slog.InfoContext(r.Context(), "Egreso registered",
		"fecha", fecha, "egreso_id", id, "monto_cents", entry.Amount.Cents)
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

type registrarPYBody struct {
	Fecha string  `json:"fecha"`
	Monto float64 `json:"monto"`
}

func (s *Server) handleRegistrarPY(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body registrarPYBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	fecha, ok := s.admitMutationDate(w, r, body.Fecha)
	if !ok {
		return
	}

	entry := core.DeliveryIncomeEntry{
		Date:   fecha,
		Amount: core.Money{Cents: core.CentsFromFloat(body.Monto)},
	}
	if err := entry.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	// Platform settlements arrive by bank transfer, never cash.
	id, err := s.repo.CreateIngreso(r.Context(), fecha, "pedidosya", storage.MethodTransfer, entry.Amount.Cents)
	if err != nil {
		s.writeMutationError(w, r, "ingreso PY", fecha, err)
		return
	}

	s.invalidateDay(fecha)
	s.publishEvent(r.Context(), amqp.EventIngresoPY, fecha, entry.Amount.Cents)

	slog.InfoContext(r.Context(), "Delivery income registered",
		"fecha", fecha, "ingreso_id", id, "monto_cents", entry.Amount.Cents)
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

// cierrePayload is the POST /api/caja/cierre response. balanceFinal is
// included so clients do not need a follow-up balance query; it is omitted
// when the post-close balance read fails, and clients then query the balance
// endpoint themselves.
type cierrePayload struct {
	Estado       string     `json:"estado"`
	CerradaEn    *time.Time `json:"cerradaEn"`
	BalanceFinal *float64   `json:"balanceFinal,omitempty"`
}

func (s *Server) handleCierre(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	raw, err := parseFecha(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fecha")
		return
	}
	fecha, ok := s.admitMutationDate(w, r, raw)
	if !ok {
		return
	}

	day, err := s.repo.CloseDay(r.Context(), fecha, s.now())
	if err != nil {
		s.writeMutationError(w, r, "cierre", fecha, err)
		return
	}

	s.invalidateDay(fecha)

	// The balance is read only after the close lands: once the day is
	// CERRADA no further mutations are accepted, so a write racing the close
	// is either included here or rejected.
	payload := cierrePayload{Estado: string(day.Estado), CerradaEn: day.CerradaEn}
	var balanceCents int64
	if balance, err := s.repo.Balance(r.Context(), fecha); err != nil {
		slog.WarnContext(r.Context(), "Balance query after close failed", "fecha", fecha, "error", err)
	} else {
		pesos := balance.Pesos()
		payload.BalanceFinal = &pesos
		balanceCents = balance.Cents
	}

	s.publishEvent(r.Context(), amqp.EventCajaCerrada, fecha, balanceCents)

	slog.InfoContext(r.Context(), "Register closed",
		"fecha", fecha, "balance_cents", balanceCents)
	writeJSON(w, http.StatusOK, payload)
}

// admitMutationDate validates the date of a mutation and enforces the
// today-only rule server side, independent of client gating. An empty date
// defaults to today.
func (s *Server) admitMutationDate(w http.ResponseWriter, r *http.Request, raw string) (string, bool) {
	now := s.now()
	if raw == "" {
		return core.TodayIn(now), true
	}
	fecha, err := core.ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fecha")
		return "", false
	}
	if !core.IsTodayIn(fecha, now) {
		slog.WarnContext(r.Context(), "Mutation rejected for non-today date",
			"fecha", fecha, "url", r.URL.Path)
		writeError(w, http.StatusConflict, "solo se puede operar la caja del día de hoy")
		return "", false
	}
	return fecha, true
}

func (s *Server) writeMutationError(w http.ResponseWriter, r *http.Request, op, fecha string, err error) {
	if errors.Is(err, storage.ErrDayClosed) {
		writeError(w, http.StatusConflict, "la caja ya está cerrada")
		return
	}
	slog.ErrorContext(r.Context(), "Mutation failed", "op", op, "fecha", fecha, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
