// Package http serves the caja backend REST API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"caja/internal/amqp"
	"caja/internal/cache"
	"caja/internal/core"
	"caja/internal/middleware/ratelimit"
	"caja/internal/middleware/security"
	"caja/internal/middleware/trace"
	"caja/internal/storage"
)

// Repository is the slice of storage the API serves from.
// *storage.SQLiteRepository satisfies it.
type Repository interface {
	GetDay(ctx context.Context, fecha string) (*storage.DayRecord, error)
	CreateEgreso(ctx context.Context, fecha, descripcion string, montoCents int64, hora string) (int64, error)
	ListEgresos(ctx context.Context, fecha string) ([]storage.EgresoRecord, error)
	CreateIngreso(ctx context.Context, fecha, origen, metodo string, montoCents int64) (int64, error)
	IncomeTotals(ctx context.Context, fecha string) (core.IncomeTotals, error)
	Balance(ctx context.Context, fecha string) (core.Money, error)
	CloseDay(ctx context.Context, fecha string, closedAt time.Time) (*storage.DayRecord, error)
}

// EventPublisher publishes register events after successful mutations. A nil
// publisher disables events; mutations never fail because the broker is down.
type EventPublisher interface {
	PublishRegisterEvent(ctx context.Context, msg *amqp.RegisterEventMessage) error
}

type Server struct {
	http.Server
	repo     Repository
	events   EventPublisher
	limiter  *ratelimit.Limiter
	detector *security.Detector

	// Read-endpoint caches keyed by fecha, invalidated on every mutation.
	ingresosCache *cache.LRUCache[core.IncomeTotals]
	balanceCache  *cache.LRUCache[core.Money]
	cacheManager  *cache.Manager

	// now is swappable in tests; mutations only admit today's date.
	now func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures the API routes, returning a ready-to-run http.Server.
func NewServer(addr string, repo Repository, events EventPublisher) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		repo:          repo,
		events:        events,
		limiter:       ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:      security.NewDetector(),
		ingresosCache: cache.NewLRUCache[core.IncomeTotals](100, time.Minute),
		balanceCache:  cache.NewLRUCache[core.Money](100, time.Minute),
		cacheManager:  cache.NewManager(),
		now:           time.Now,
	}

	s.cacheManager.Register(s.ingresosCache)
	s.cacheManager.Register(s.balanceCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(s.detector.ExtractClientIP)

	// Reads are cheap and cached; only mutations go through the limiter.
	read := func(h http.HandlerFunc) http.Handler {
		return tracer.Middleware(headers.Middleware(s.withDetection(h)))
	}
	mutate := func(h http.HandlerFunc) http.Handler {
		limited := s.limiter.Middleware(s.detector.ExtractClientIP, nil)(h)
		return tracer.Middleware(headers.Middleware(s.withDetection(limited)))
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.Handle("/api/caja/meta", read(s.handleMeta))
	mux.Handle("/api/caja/ingresos", read(s.handleIngresos))
	mux.Handle("/api/caja/egresos", read(s.handleEgresos))
	mux.Handle("/api/caja/balance", read(s.handleBalance))
	mux.Handle("/api/caja/registrar", mutate(s.handleRegistrarEgreso))
	mux.Handle("/api/caja/registrar-py", mutate(s.handleRegistrarPY))
	mux.Handle("/api/caja/cierre", mutate(s.handleCierre))

	return s
}

// withDetection logs requests that match known probe patterns. They are not
// rejected; the register API runs on a trusted network and false positives
// would lock out operators.
func (s *Server) withDetection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			slog.WarnContext(r.Context(), "Suspicious request detected",
				"request_id", trace.GetRequestID(r.Context()),
				"client_ip", s.detector.ExtractClientIP(r),
				"method", r.Method,
				"url", r.URL.Path)
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) invalidateDay(fecha string) {
	s.ingresosCache.Delete(fecha)
	s.balanceCache.Delete(fecha)
}

// publishEvent fires a register event without failing the request.
func (s *Server) publishEvent(ctx context.Context, tipo, fecha string, montoCents int64) {
	if s.events == nil {
		return
	}
	msg := amqp.NewRegisterEventMessage(tipo, fecha, montoCents)
	if err := s.events.PublishRegisterEvent(ctx, msg); err != nil {
		slog.WarnContext(ctx, "Event publish failed", "tipo", tipo, "fecha", fecha, "error", err)
	}
}
