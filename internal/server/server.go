package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"virtual-bank/internal/config"
	"virtual-bank/internal/handler"
	"virtual-bank/internal/ledger"
	"virtual-bank/internal/observability"
	"virtual-bank/internal/repository"
	"virtual-bank/internal/service"
)

// Server represents the HTTP server
type Server struct {
	router *mux.Router
	server *http.Server
	store  *repository.Store
	logger *zap.Logger
	port   string
}

// NewServer opens the configured store and wires the router on top of it.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	metrics := observability.NewMetrics()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize store (Unit of Work)
	store, err := repository.Open(ctx, cfg, metrics, logger)
	if err != nil {
		return nil, err
	}

	env := ledger.DefaultEnv()
	env.Currency = cfg.DefaultCurrency
	env.Limits.MaxDeposit = cfg.MaxDepositAmount

	return &Server{
		router: NewRouter(store, env, cfg.DailyLimitPolicy, metrics, logger),
		store:  store,
		logger: logger,
	}, nil
}

// NewRouter builds the services and handlers over store and registers the
// routes.
func NewRouter(store *repository.Store, env ledger.Env, dailyLimitPolicy string, metrics *observability.Metrics, logger *zap.Logger) *mux.Router {
	// Initialize services
	accountService := service.NewAccountService(store, env, metrics, logger)
	transactionService := service.NewTransactionService(store, env, dailyLimitPolicy, metrics, logger)
	planningService := service.NewPlanningService(store, env, metrics, logger)

	// Initialize handlers
	accountHandler := handler.NewAccountHandler(accountService)
	transactionHandler := handler.NewTransactionHandler(transactionService)
	planningHandler := handler.NewPlanningHandler(planningService)

	router := mux.NewRouter()
	router.Use(observability.TracingMiddleware)
	router.Use(loggingMiddleware(logger))

	users := router.PathPrefix("/users/{user_id}").Subrouter()

	// Account routes
	users.HandleFunc("/accounts", accountHandler.CreateAccount).Methods("POST")
	users.HandleFunc("/accounts", accountHandler.ListAccounts).Methods("GET")
	users.HandleFunc("/accounts/{account_id}", accountHandler.GetAccount).Methods("GET")
	users.HandleFunc("/accounts/{account_id}/statement", accountHandler.Statement).Methods("GET")
	users.HandleFunc("/accounts/{account_id}/summary", accountHandler.Summary).Methods("GET")
	users.HandleFunc("/accounts/{account_id}/daily-limit", accountHandler.DailyLimit).Methods("GET")
	users.HandleFunc("/accounts/{account_id}/close", accountHandler.CloseAccount).Methods("POST")
	users.HandleFunc("/accounts/{account_id}/freeze", accountHandler.FreezeAccount).Methods("POST")
	users.HandleFunc("/accounts/{account_id}/unfreeze", accountHandler.UnfreezeAccount).Methods("POST")
	users.HandleFunc("/audit", accountHandler.Audit).Methods("GET")

	// Transaction routes
	users.HandleFunc("/accounts/{account_id}/deposit", transactionHandler.Deposit).Methods("POST")
	users.HandleFunc("/accounts/{account_id}/withdraw", transactionHandler.Withdraw).Methods("POST")
	users.HandleFunc("/accounts/{account_id}/interest", transactionHandler.ApplyInterest).Methods("POST")
	users.HandleFunc("/transfers", transactionHandler.Transfer).Methods("POST")
	users.HandleFunc("/interest", transactionHandler.ApplyMonthlyInterest).Methods("POST")

	// Planning routes
	users.HandleFunc("/entries", planningHandler.CreateEntry).Methods("POST")
	users.HandleFunc("/entries", planningHandler.ListEntries).Methods("GET")
	users.HandleFunc("/goals", planningHandler.CreateGoal).Methods("POST")
	users.HandleFunc("/goals", planningHandler.ListGoals).Methods("GET")
	users.HandleFunc("/goals/progress", planningHandler.AllGoalsProgress).Methods("GET")
	users.HandleFunc("/goals/{goal_id}/contribute", planningHandler.Contribute).Methods("POST")
	users.HandleFunc("/goals/{goal_id}/progress", planningHandler.GoalProgress).Methods("GET")
	users.HandleFunc("/goals/{goal_id}/projection", planningHandler.GoalProjection).Methods("GET")
	users.HandleFunc("/goals/{goal_id}/scenarios", planningHandler.GoalScenarios).Methods("GET")
	users.HandleFunc("/budgets", planningHandler.SetBudgets).Methods("PUT")
	users.HandleFunc("/budgets", planningHandler.ListBudgets).Methods("GET")
	users.HandleFunc("/budgets/status", planningHandler.BudgetStatus).Methods("GET")
	users.HandleFunc("/budgets/alerts", planningHandler.BudgetAlerts).Methods("GET")
	users.HandleFunc("/budgets/alerts/history", planningHandler.AlertHistory).Methods("GET")
	users.HandleFunc("/velocity", planningHandler.Velocity).Methods("GET")
	users.HandleFunc("/insights", planningHandler.Insights).Methods("GET")

	router.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})).Methods("GET")

	// Health check
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := store.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": "storage unavailable"})
			return
		}

		json.NewEncoder(w).Encode(map[string]string{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}).Methods("GET")

	return router
}

// loggingMiddleware logs every request; 4xx at Warn, 5xx at Error.
func loggingMiddleware(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Create response wrapper to capture status code
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.statusCode),
				zap.Duration("duration", time.Since(start)),
				zap.String("user_agent", r.UserAgent()),
			}
			switch {
			case ww.statusCode >= 500:
				logger.Error("request completed", fields...)
			case ww.statusCode >= 400:
				logger.Warn("request completed", fields...)
			default:
				logger.Info("request completed", fields...)
			}
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server on the specified port
func (s *Server) Start(port string) (string, error) {
	// Create listener first to get actual port
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return "", err
	}

	// Get the actual port being used
	addr := listener.Addr().(*net.TCPAddr)
	s.port = strconv.Itoa(addr.Port)

	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server", zap.String("port", s.port))

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Server failed to start", zap.Error(err))
		}
	}()

	return s.port, nil
}

// Stop gracefully shuts down the server and closes the store.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	if s.store != nil {
		if closeErr := s.store.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	s.logger.Sync()
	return err
}

// GetPort returns the port the server is listening on
func (s *Server) GetPort() string {
	return s.port
}

// GetBaseURL returns the base URL for the server
func (s *Server) GetBaseURL() string {
	return "http://localhost:" + s.port
}

// GetRouter returns the router for testing purposes
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// StartServer starts the server with the given configuration
func StartServer(cfg *config.Config) (*Server, string, error) {
	var logger *zap.Logger
	if cfg.ServerPort == "0" {
		// Test environment
		logger = zap.NewNop()
	} else {
		logger = observability.NewLogger(cfg.LogLevel)
	}

	server, err := NewServer(cfg, logger)
	if err != nil {
		return nil, "", err
	}

	// Start the server and get the actual port
	port, err := server.Start(cfg.ServerPort)
	if err != nil {
		server.store.Close()
		return nil, "", err
	}

	return server, port, nil
}
