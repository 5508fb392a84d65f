// Command hr-server starts the Honey Rae service desk HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/honeyrae/internal/cache"
	"github.com/and161185/honeyrae/internal/config"
	"github.com/and161185/honeyrae/internal/events"
	"github.com/and161185/honeyrae/internal/migrate"
	"github.com/and161185/honeyrae/internal/repository/postgres"
	httpserver "github.com/and161185/honeyrae/internal/server/http"
	"github.com/and161185/honeyrae/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and serves HTTP until signalled.
func main() {
	cfg, err := config.Load(os.Args[1:], ".env")
	if err != nil {
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(2)
	}

	logger, _ := zap.NewProduction()
	if cfg.Dev {
		logger, _ = zap.NewDevelopment()
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ver, err := migrate.Up(ctx, cfg.DSN, logger)
	if err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}
	logger.Info("schema ready", zap.Int64("version", ver))

	db, err := postgres.New(ctx, cfg.DSN)
	if err != nil {
		logger.Fatal("postgres pool", zap.Error(err))
	}
	defer db.Close()

	// Optional token cache
	rdb := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		logger.Info("token cache enabled", zap.String("redis", cfg.RedisAddr))
	} else if cfg.RedisAddr != "" {
		logger.Warn("token cache disabled: redis unreachable", zap.String("redis", cfg.RedisAddr))
	}
	tokenCache := cache.NewTokenCache(rdb, cfg.TokenCacheTTL)

	// Optional event publisher
	var pub events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		amqpPub := events.NewAMQPPublisher(cfg.AMQPURL, cfg.EventsQueue, logger)
		defer func() { _ = amqpPub.Close() }()
		pub = amqpPub
	}

	// Repositories
	principalRepo := postgres.NewPrincipalRepo(db)
	tokenRepo := postgres.NewTokenRepo(db)
	customerRepo := postgres.NewCustomerRepo(db)
	employeeRepo := postgres.NewEmployeeRepo(db)
	ticketRepo := postgres.NewTicketRepo(db)

	// Services
	authSvc := service.NewAuthService(principalRepo, tokenRepo, tokenCache, service.AuthOptions{
		TokenGrace:          cfg.TokenGrace,
		AllowEmployeeSignup: cfg.AllowEmployeeSignup,
	})
	customerSvc := service.NewCustomerService(customerRepo)
	employeeSvc := service.NewEmployeeService(employeeRepo)
	ticketSvc := service.NewTicketService(ticketRepo, pub, time.Now)

	app := httpserver.New(authSvc, customerSvc, employeeSvc, ticketSvc, logger, httpserver.Options{
		RequestTimeout: cfg.RequestTimeout,
		Ping:           db.Ping,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			logger.Warn("graceful shutdown timed out", zap.Error(err))
			_ = srv.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
