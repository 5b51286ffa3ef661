package backoffice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"backoffice/internal/backoffice/handlers"
	"backoffice/internal/backoffice/middleware"
	"backoffice/pkg/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Config struct {
	ServerAddress   string
	ShutdownTimeout time.Duration
}

type Services struct {
	Registration handlers.RegistrationService
	Login        handlers.AuthorizationService
	Withdrawals  WithdrawalsService
	Works        WorksService
}

// WithdrawalsService is everything the withdrawal endpoints consume.
type WithdrawalsService interface {
	handlers.WithdrawalCreationService
	handlers.WithdrawalsGettingService
	handlers.DecisionService
	handlers.WithdrawalsBulkService
}

type WorksService interface {
	handlers.WorkCreationService
	handlers.WorkStatusService
	handlers.WorkDeletionService
}

type Server struct {
	logger     *logging.ZapLogger
	httpServer *http.Server
	cfg        Config
}

func NewServer(
	cfg Config,
	tokenAuth *jwtauth.JWTAuth,
	services Services,
	logger *logging.ZapLogger,
) *Server {
	srv := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: createMux(tokenAuth, services, logger),
	}

	return &Server{
		cfg:        cfg,
		logger:     logger,
		httpServer: srv,
	}
}

func (s *Server) Run() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server ListenAndServe failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func createMux(
	tokenAuth *jwtauth.JWTAuth,
	services Services,
	logger *logging.ZapLogger,
) *chi.Mux {
	registrationHandler := handlers.NewRegisterHandler(services.Registration, logger)
	authorizationHandler := handlers.NewAuthorizationHandler(services.Login, logger)
	workCreationHandler := handlers.NewWorkCreationHandler(services.Works, logger)
	workStatusHandler := handlers.NewWorkStatusHandler(services.Works, logger)
	workDeletionHandler := handlers.NewWorkDeletionHandler(services.Works, logger)
	withdrawalCreationHandler := handlers.NewWithdrawalCreationHandler(services.Withdrawals, logger)
	withdrawalsGettingHandler := handlers.NewWithdrawalsGettingHandler(services.Withdrawals, logger)
	withdrawalDecisionHandler := handlers.NewWithdrawalDecisionHandler(services.Withdrawals, logger)
	withdrawalActionHandler := handlers.NewWithdrawalActionHandler(services.Withdrawals, logger)
	withdrawalsBulkHandler := handlers.NewWithdrawalsBulkHandler(services.Withdrawals, logger)

	router := chi.NewRouter()

	router.Use(middleware.NewLoggerContext().CreateHandler)
	router.Use(middleware.NewMetrics().CreateHandler)
	router.Use(middleware.NewPanicRecover(logger).CreateHandler)
	router.Use(cors.Handler(cors.Options{
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api", func(router chi.Router) {
		router.Post("/register", registrationHandler.ServeHTTP)
		router.Post("/login", authorizationHandler.ServeHTTP)

		router.Group(func(router chi.Router) {
			router.Use(jwtauth.Verifier(tokenAuth))
			router.Use(jwtauth.Authenticator(tokenAuth))

			router.Post("/works", workCreationHandler.ServeHTTP)
			router.Patch("/works/{id}", workStatusHandler.ServeHTTP)
			router.Delete("/works/{id}", workDeletionHandler.ServeHTTP)

			router.Post("/withdrawals", withdrawalCreationHandler.ServeHTTP)
			router.Get("/withdrawals", withdrawalsGettingHandler.ServeHTTP)
			router.Patch("/withdrawals/{id}", withdrawalDecisionHandler.ServeHTTP)
			router.Post("/withdrawals/{id}/action", withdrawalActionHandler.ServeHTTP)
			router.Post("/withdrawals:bulk", withdrawalsBulkHandler.ServeHTTP)
		})
	})

	return router
}
