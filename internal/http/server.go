package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"fintrack/internal/log"
	"fintrack/internal/middleware/cors"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles the application services the handlers call into.
type Services struct {
	Transactions *services.TransactionService
	Reports      *services.ReportService
	Auth         *services.AuthService
	Health       Pinger
}

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigins     []string
	RateLimitPerMinute int
	SecureCookies      bool
	Logger             *log.Logger
}

type Server struct {
	http.Server

	transactions *services.TransactionService
	reports      *services.ReportService
	auth         *services.AuthService
	health       Pinger

	limiter  *ratelimit.Limiter
	trace    *trace.Middleware
	detector *security.Detector

	secureCookies bool
	startTime     time.Time
	logger        *log.Logger
	shutdownOnce  sync.Once
}

// NewServer builds the API server. Routes are registered on a gorilla/mux
// router wrapped by the cross-cutting middleware chain.
func NewServer(addr string, svc Services, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	rl := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		rl.RequestsPerMinute = opts.RateLimitPerMinute
	}

	detector := security.NewDetector()
	s := &Server{
		transactions:  svc.Transactions,
		reports:       svc.Reports,
		auth:          svc.Auth,
		health:        svc.Health,
		limiter:       ratelimit.NewLimiter(rl),
		trace:         trace.NewMiddleware(logger, detector.ExtractClientIP),
		detector:      detector,
		secureCookies: opts.SecureCookies,
		startTime:     time.Now(),
		logger:        logger,
	}

	router := mux.NewRouter()
	s.routes(router)

	var handler http.Handler = router
	handler = s.limiter.Middleware(detector.ExtractClientIP, ratelimit.MutatingOnly, func(w http.ResponseWriter, r *http.Request) {
		TooManyRequestsError().Write(w)
	})(handler)
	handler = detector.Middleware(handler)
	handler = s.trace.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = cors.Middleware(cors.DefaultConfig(opts.AllowedOrigins))(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
		ErrorLog:          slog.NewLogLogger(slog.Default().Handler(), slog.LevelError),
	}
	return s
}

func (s *Server) routes(r *mux.Router) {
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/signup", s.handleSignup).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", s.requireAuth(s.handleLogout)).Methods(http.MethodPost)

	api.HandleFunc("/profile", s.requireAuth(s.handleGetProfile)).Methods(http.MethodGet)
	api.HandleFunc("/profile", s.requireAuth(s.handleUpdateProfile)).Methods(http.MethodPut)
	api.HandleFunc("/profile/password", s.requireAuth(s.handleChangePassword)).Methods(http.MethodPut)

	api.HandleFunc("/dashboard", s.requireAuth(s.handleDashboard)).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/initial-balance", s.requireAuth(s.handleSetInitialBalance)).Methods(http.MethodPost)

	// reports must be registered before the {id} routes
	api.HandleFunc("/transactions/reports", s.requireAuth(s.handleReports)).Methods(http.MethodGet)
	api.HandleFunc("/transactions", s.requireAuth(s.handleListTransactions)).Methods(http.MethodGet)
	api.HandleFunc("/transactions", s.requireAuth(s.handleCreateTransaction)).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id:[0-9]+}", s.requireAuth(s.handleGetTransaction)).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{id:[0-9]+}", s.requireAuth(s.handleUpdateTransaction)).Methods(http.MethodPut)
	api.HandleFunc("/transactions/{id:[0-9]+}", s.requireAuth(s.handleDeleteTransaction)).Methods(http.MethodDelete)

	api.HandleFunc("/categories", s.requireAuth(s.handleListCategories)).Methods(http.MethodGet)

	// subrouters resolve their own mismatches, so both levels need the JSON handlers
	for _, router := range []*mux.Router{r, api} {
		router.NotFoundHandler = http.HandlerFunc(handleRouteNotFound)
		router.MethodNotAllowedHandler = http.HandlerFunc(handleMethodNotAllowed)
	}
}

func handleRouteNotFound(w http.ResponseWriter, r *http.Request) {
	NotFoundError("Route not found").Write(w)
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	MethodNotAllowedError().Write(w)
}

// Shutdown gracefully shuts down the server and stops background routines
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.logger.Info("Shutting down HTTP server")
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
