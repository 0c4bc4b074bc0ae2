// Package http exposes the carteira JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"carteira/internal/core"
	applog "carteira/internal/log"
	"carteira/internal/middleware/ratelimit"
	"carteira/internal/middleware/security"
	"carteira/internal/middleware/trace"
	"carteira/internal/services"
	"carteira/internal/storage"
)

// Store is the persistence the handlers use directly. *storage.SQLiteRepository
// implements it.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, name, email, password string) (core.User, error)
	Authenticate(ctx context.Context, email, password string) (core.User, error)
	ListFamilyMembers(ctx context.Context, familyID int64) ([]core.User, error)
	MoveToFamily(ctx context.Context, userID, familyID int64) error

	CreateSession(ctx context.Context, userID int64, ttl time.Duration) (storage.Session, error)
	SessionUser(ctx context.Context, token string, now time.Time) (core.User, error)
	DeleteSession(ctx context.Context, token string) error

	ListFamilyTransactions(ctx context.Context, familyID int64, from, to core.Date) ([]core.Transaction, error)

	CreateSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error)
	ListFamilySubscriptions(ctx context.Context, familyID int64) ([]core.Subscription, error)
	DeactivateSubscription(ctx context.Context, familyID, id int64) error

	GetProfile(ctx context.Context, userID int64) (core.FinancialProfile, error)
	SaveProfile(ctx context.Context, p core.FinancialProfile) error

	CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
	ListFamilyGoals(ctx context.Context, familyID int64) ([]core.Goal, error)
}

// Sizer reports how many entries a cache holds.
type Sizer interface {
	Size() int
}

// Deps are the collaborators of the server.
type Deps struct {
	Store        Store
	Transactions *services.TransactionService
	Dashboard    *services.DashboardService
	SummaryCache Sizer // optional, reported by /readyz and /metrics
	Logger       *applog.Logger
	SessionTTL   time.Duration
	Development  bool
	RateLimit    ratelimit.Config
}

type Server struct {
	http.Server

	store        Store
	transactions *services.TransactionService
	dashboard    *services.DashboardService
	summaryCache Sizer
	logger       *applog.Logger
	sessionTTL   time.Duration
	development  bool

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	started  time.Time
	now      func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures the routes, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = applog.New(applog.DefaultConfig())
	}
	if deps.SessionTTL <= 0 {
		deps.SessionTTL = 30 * 24 * time.Hour
	}

	s := &Server{
		store:        deps.Store,
		transactions: deps.Transactions,
		dashboard:    deps.Dashboard,
		summaryCache: deps.SummaryCache,
		logger:       deps.Logger.WithComponent(applog.ComponentHTTP),
		sessionTTL:   deps.SessionTTL,
		development:  deps.Development,
		limiter:      ratelimit.NewLimiter(deps.RateLimit),
		detector:     security.NewDetector(),
		started:      time.Now(),
		now:          time.Now,
	}
	s.tracer = trace.NewMiddleware(s.logger, s.detector.ExtractClientIP)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(s.tracer.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", s.metricsHandler())

	r.Route("/api", func(r chi.Router) {
		r.Use(security.NoStore)
		r.Use(s.limitMutations)

		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)

			r.Get("/auth/me", s.handleMe)

			r.Get("/family/members", s.handleListMembers)
			r.Post("/family/members", s.handleAddMember)

			r.Get("/transactions", s.handleListTransactions)
			r.Post("/transactions", s.handleCreateTransaction)
			r.Delete("/transactions/{id}", s.handleDeleteTransaction)

			r.Get("/subscriptions", s.handleListSubscriptions)
			r.Post("/subscriptions", s.handleCreateSubscription)
			r.Post("/subscriptions/{id}/deactivate", s.handleDeactivateSubscription)

			r.Get("/profile", s.handleGetProfile)
			r.Put("/profile", s.handlePutProfile)

			r.Get("/goals", s.handleListGoals)
			r.Post("/goals", s.handleCreateGoal)

			r.Get("/dashboard/summary", s.handleDashboardSummary)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "Rota não encontrada")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Método não permitido")
	})

	return r
}

// limitMutations applies the rate limiter to every non-GET API request.
func (s *Server) limitMutations(next http.Handler) http.Handler {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			"client_ip", s.detector.ExtractClientIP(r), "method", r.Method, "path", r.URL.Path)
		writeError(w, http.StatusTooManyRequests, "rate_limited", "Muitas requisições. Tente novamente em instantes.")
	})(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})
}

// Shutdown stops background routines and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": "down"})
		return
	}

	body := map[string]any{"status": "ready", "database": "up"}
	if s.summaryCache != nil {
		body["summaryCacheEntries"] = s.summaryCache.Size()
	}
	writeJSON(w, http.StatusOK, body)
}
