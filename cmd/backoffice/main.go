package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"backoffice/cmd/backoffice/config"
	"backoffice/internal/backoffice"
	"backoffice/internal/backoffice/data/database"
	"backoffice/internal/backoffice/data/dbrepository"
	"backoffice/internal/backoffice/notify"
	"backoffice/internal/backoffice/service"
	"backoffice/pkg/jwtfactory"
	"backoffice/pkg/logging"
	"backoffice/pkg/pgxstorage"

	"github.com/go-chi/jwtauth/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewZapLogger(zapcore.DebugLevel)
	if err != nil {
		log.Fatal(err)
	}

	dbFactory := database.NewPgxDatabaseFactory(cfg.DB)
	storage, err := pgxstorage.New(dbFactory)
	if err != nil {
		log.Fatal(err)
	}
	repository := dbrepository.New(storage, logger)
	transactionManager := pgxstorage.NewTransactionsManager(storage)

	tokenAuth := jwtauth.New(cfg.JWTConfig.Algorithm, []byte(cfg.JWTConfig.Secret), nil)
	tokenFactory := jwtfactory.New(tokenAuth, cfg.JWTConfig.ExpirationTime)

	notifyClient := notify.NewClient(cfg.Notify, logger)
	dispatcher := notify.NewDispatcher(cfg.Dispatcher, notifyClient, logger)

	permissions := service.DefaultPermissions()
	registrationService := service.NewRegistration(repository, transactionManager, tokenFactory)
	loginService := service.NewLogin(repository, tokenFactory)
	withdrawalsService := service.NewWithdrawals(transactionManager, repository, permissions, dispatcher, logger)
	worksService := service.NewWorks(transactionManager, repository, dispatcher)

	server := backoffice.NewServer(
		cfg.Server,
		tokenAuth,
		backoffice.Services{
			Registration: registrationService,
			Login:        loginService,
			Withdrawals:  withdrawalsService,
			Works:        worksService,
		},
		logger,
	)

	rootCtx, cancelCtx := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
		syscall.SIGABRT,
	)
	defer cancelCtx()

	if err := run(rootCtx, cfg, server, dispatcher, logger); err != nil {
		logger.ErrorCtx(rootCtx, "Server shutdown with error", zap.Error(err))
	} else {
		logger.InfoCtx(rootCtx, "Server shutdown gracefully")
	}
}

func run(
	rootCtx context.Context,
	cfg *config.Config,
	server *backoffice.Server,
	dispatcher *notify.Dispatcher,
	logger *logging.ZapLogger,
) error {
	g, ctx := errgroup.WithContext(rootCtx)

	context.AfterFunc(ctx, func() {
		ctx, cancelCtx := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancelCtx()

		<-ctx.Done()
		log.Fatal("failed to gracefully shutdown the server")
	})

	g.Go(func() error {
		if err := server.Run(); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		dispatcher.Run(ctx)
		return nil
	})

	g.Go(func() error {
		defer logger.InfoCtx(ctx, "Shutting down server")
		<-ctx.Done()
		if err := server.Shutdown(); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("goroutine error occured: %w", err)
	}

	return nil
}
