package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/farmops/identity-service/internal/api/http"
	"github.com/farmops/identity-service/internal/api/http/handlers"
	"github.com/farmops/identity-service/internal/auth"
	"github.com/farmops/identity-service/internal/config"
	"github.com/farmops/identity-service/internal/events"
	"github.com/farmops/identity-service/internal/lockout"
	"github.com/farmops/identity-service/internal/observability"
	"github.com/farmops/identity-service/internal/persistence"
	"github.com/farmops/identity-service/internal/repository"
	"github.com/farmops/identity-service/internal/service"
	"github.com/farmops/identity-service/internal/session"
	"github.com/farmops/identity-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	staffRepo := repository.NewStaffRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)
	businessRepo := repository.NewBusinessCustomerRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	ledger := lockout.NewLedger(redis.Client, lockout.Config{
		Threshold:  cfg.Lockout.Threshold,
		Window:     cfg.Lockout.Window(),
		CounterTTL: cfg.Lockout.CounterTTL(),
	})

	provider := session.NewHTTPProvider(session.HTTPConfig{
		BaseURL:    cfg.SessionProvider.BaseURL,
		ServiceKey: cfg.SessionProvider.ServiceKey,
		Timeout:    cfg.SessionProvider.Timeout(),
	}, logger)

	verifier := service.NewVerifierService(service.VerifierDependencies{
		StaffRepo:    staffRepo,
		CustomerRepo: customerRepo,
		RoleRepo:     roleRepo,
		Ledger:       ledger,
		Dispatcher:   dispatcher,
		Metrics:      metrics,
		Logger:       logger,
	})
	reconciler := service.NewReconcilerService(provider, cfg.SessionProvider.AddressDomain, logger)
	lifecycle := service.NewLifecycleService(service.LifecycleDependencies{
		StaffRepo:    staffRepo,
		CustomerRepo: customerRepo,
		RoleRepo:     roleRepo,
		BusinessRepo: businessRepo,
		Provider:     provider,
		Ledger:       ledger,
		Verifier:     verifier,
		Dispatcher:   dispatcher,
		Logger:       logger,
		BcryptCost:   cfg.Auth.BcryptCost,
		AddrDomain:   cfg.SessionProvider.AddressDomain,
	})
	registration := service.NewRegistrationService(service.RegistrationDependencies{
		StaffRepo:    staffRepo,
		CustomerRepo: customerRepo,
		BusinessRepo: businessRepo,
		Dispatcher:   dispatcher,
		Logger:       logger,
		BcryptCost:   cfg.Auth.BcryptCost,
	})

	auditService := service.NewAuditService(dispatcher, logger, cfg.Audit)
	worker.StartAuditWorker(auditService)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokenManager, staffRepo, customerRepo, roleRepo)
	gate := auth.NewGate()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	authHandler := handlers.NewAuthHandler(verifier, reconciler, lifecycle, registration, tokenManager)
	adminHandler := handlers.NewAdminHandler(lifecycle)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Auth:           authHandler,
		Admin:          adminHandler,
		AuthMiddleware: authMiddleware,
		Gate:           gate,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
