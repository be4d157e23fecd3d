package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"cashflow/internal/core"
	"cashflow/internal/ledger"
	applog "cashflow/internal/log"
	"cashflow/internal/middleware/ratelimit"
	"cashflow/internal/middleware/security"
	"cashflow/internal/middleware/trace"
)

// LedgerService is the facade the API exposes. *ledger.Service implements it.
type LedgerService interface {
	SetInitialBalance(ctx context.Context, amount decimal.Decimal) (core.CashFlowBalance, error)
	GetBalance(ctx context.Context) (core.CashFlowBalance, error)
	RecalculateBalance(ctx context.Context) (core.CashFlowBalance, error)
	SaveIncomeEntry(ctx context.Context, draft core.IncomeDraft) (core.IncomeEntry, error)
	GetIncomeEntries(ctx context.Context, f *core.Filter) ([]core.IncomeEntry, error)
	GetIncomeEntry(ctx context.Context, id string) (core.IncomeEntry, error)
	UpdateIncomeEntry(ctx context.Context, id string, u core.IncomeUpdate) (core.IncomeEntry, error)
	DeleteIncomeEntry(ctx context.Context, id string) error
	GetMonthlySummary(ctx context.Context, year, month int) (core.CashFlowSummary, error)
	GetYearlySummary(ctx context.Context, year int) (core.CashFlowSummary, error)
}

var _ LedgerService = (*ledger.Service)(nil)

// Options tunes the server. Zero values are usable.
type Options struct {
	RateLimitRPM   int
	RequestTimeout time.Duration
	Logger         *applog.Logger
}

type Server struct {
	http.Server
	ledger   LedgerService
	logger   *applog.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, svc LedgerService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.ForComponent(applog.ComponentHTTP)
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	s := &Server{
		ledger:   svc,
		logger:   logger,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitRPM}),
		detector: security.NewDetector(logger),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, logger)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(timeout),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(s.tracer.Middleware)
	r.Use(s.detector.Middleware)
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusNotFound, CodeNotFound, "Route not found", "").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Method not allowed", "").Write(w)
	})

	r.Get("/healthz", handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			s.logger.WarnContext(r.Context(), "Rate limit exceeded",
				applog.FieldClientIP, s.detector.ExtractClientIP(r),
				applog.FieldPath, r.URL.Path)
			ErrorResponse(http.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded. Please try again later.", "").Write(w)
		}))

		r.Route("/balance", func(r chi.Router) {
			r.Get("/", s.handleGetBalance)
			r.Post("/initial", s.handleSetInitialBalance)
			r.Post("/recalculate", s.handleRecalculateBalance)
		})

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", s.handleListEntries)
			r.Post("/", s.handleCreateEntry)
			r.Get("/{id}", s.handleGetEntry)
			r.Patch("/{id}", s.handleUpdateEntry)
			r.Delete("/{id}", s.handleDeleteEntry)
		})

		r.Get("/summary/{year}", s.handleSummary)
		r.Get("/summary/{year}/{month}", s.handleSummary)
	})

	return r
}

// Shutdown gracefully shuts down the server. It is safe to call twice.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}
