// Package api implements the HTTP client for the caja backend REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"caja/internal/core"
)

// StatusError reports a non-2xx backend response. Transport failures surface
// as plain wrapped errors; StatusError lets callers tell the two apart.
type StatusError struct {
	Code int
	Path string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d for %s", e.Code, e.Path)
}

// Client talks to the caja backend. All requests are JSON over HTTP with
// fecha passed as a YYYY-MM-DD query parameter or body field.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the given base URL (e.g. "http://pos:8081").
// A zero timeout disables the per-request deadline.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) get(ctx context.Context, path, fecha string, out any) error {
	u := c.baseURL + path
	if fecha != "" {
		u += "?fecha=" + url.QueryEscape(fecha)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	return c.do(req, path, out)
}

func (c *Client) post(ctx context.Context, path, fecha string, body, out any) error {
	u := c.baseURL + path
	if fecha != "" {
		u += "?fecha=" + url.QueryEscape(fecha)
	}
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request %s: %w", path, err)
		}
		payload = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, payload)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Path: path}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response %s: %w", path, err)
	}
	return nil
}

// Meta fetches the register status for a date.
func (c *Client) Meta(ctx context.Context, fecha string) (MetaResponse, error) {
	var out MetaResponse
	err := c.get(ctx, "/api/caja/meta", fecha, &out)
	return out, err
}

// Ingresos fetches the income totals for a date.
func (c *Client) Ingresos(ctx context.Context, fecha string) (IngresosResponse, error) {
	var out IngresosResponse
	err := c.get(ctx, "/api/caja/ingresos", fecha, &out)
	return out, err
}

// Egresos fetches the expense listing for a date.
func (c *Client) Egresos(ctx context.Context, fecha string) ([]EgresoItem, error) {
	var out []EgresoItem
	err := c.get(ctx, "/api/caja/egresos", fecha, &out)
	return out, err
}

// Balance fetches the running balance for a date.
func (c *Client) Balance(ctx context.Context, fecha string) (BalanceResponse, error) {
	var out BalanceResponse
	err := c.get(ctx, "/api/caja/balance", fecha, &out)
	return out, err
}

// RegistrarEgreso records an expense.
func (c *Client) RegistrarEgreso(ctx context.Context, req RegistrarEgresoRequest) error {
	return c.post(ctx, "/api/caja/registrar", "", req, nil)
}

// RegistrarPedidosYa records delivery-platform income.
func (c *Client) RegistrarPedidosYa(ctx context.Context, req RegistrarPYRequest) error {
	return c.post(ctx, "/api/caja/registrar-py", "", req, nil)
}

// Cierre closes the register for a date.
func (c *Client) Cierre(ctx context.Context, fecha string) (CierreResponse, error) {
	var out CierreResponse
	err := c.post(ctx, "/api/caja/cierre", fecha, nil, &out)
	return out, err
}

// DayView is everything the register screen shows for one date. Sections
// that failed to load keep their zero value and record their error so one
// broken endpoint does not blank the whole view.
type DayView struct {
	Fecha    string
	Ingresos core.IncomeTotals
	Egresos  []core.ExpenseLine
	Balance  core.Money

	IngresosErr error
	EgresosErr  error
	BalanceErr  error

	// Estado carried piggyback on the ingresos payload, when present.
	Estado string
}

// LoadDayView fetches ingresos, egresos and balance concurrently.
func (c *Client) LoadDayView(ctx context.Context, fecha string) DayView {
	view := DayView{Fecha: fecha}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		in, err := c.Ingresos(gctx, fecha)
		if err != nil {
			view.IngresosErr = err
			return nil
		}
		view.Ingresos = core.IncomeTotals{
			Total:     core.Money{Cents: core.CentsFromFloat(in.IngresosTotales)},
			Cash:      core.Money{Cents: core.CentsFromFloat(in.IngresosEfectivo)},
			Transfer:  core.Money{Cents: core.CentsFromFloat(in.Transferencia())},
			Shrinkage: core.Money{Cents: core.CentsFromFloat(in.Shrinkage())},
		}
		view.Estado = in.Estado
		return nil
	})
	g.Go(func() error {
		items, err := c.Egresos(gctx, fecha)
		if err != nil {
			view.EgresosErr = err
			return nil
		}
		view.Egresos = make([]core.ExpenseLine, len(items))
		for i, it := range items {
			view.Egresos[i] = core.ExpenseLine{
				Description: it.Descripcion,
				Amount:      core.Money{Cents: core.CentsFromFloat(it.Monto)},
				Time:        it.Hora,
			}
		}
		return nil
	})
	g.Go(func() error {
		bal, err := c.Balance(gctx, fecha)
		if err != nil {
			view.BalanceErr = err
			return nil
		}
		view.Balance = core.Money{Cents: core.CentsFromFloat(bal.Value())}
		return nil
	})
	_ = g.Wait()

	return view
}
