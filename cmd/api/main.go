package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/storefront-auth/internal/api/http"
	"github.com/spec-kit/storefront-auth/internal/api/http/handlers"
	"github.com/spec-kit/storefront-auth/internal/auth"
	"github.com/spec-kit/storefront-auth/internal/config"
	"github.com/spec-kit/storefront-auth/internal/events"
	"github.com/spec-kit/storefront-auth/internal/observability"
	"github.com/spec-kit/storefront-auth/internal/persistence"
	"github.com/spec-kit/storefront-auth/internal/repository"
	"github.com/spec-kit/storefront-auth/internal/service"
	"github.com/spec-kit/storefront-auth/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// covers missing signing secrets; the process must not come up
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

	sessions, err := auth.NewSessionManager(
		cfg.Auth.CustomerSessionSecret,
		cfg.Auth.AdminSessionSecret,
		cfg.Auth.SessionTTL(),
		cfg.App.Production(),
	)
	if err != nil {
		logger.Fatal("failed to init session manager", zap.Error(err))
	}

	resets, err := auth.NewResetTokenManager(cfg.Auth.ResetTokenSecret, cfg.Auth.ResetTokenTTL())
	if err != nil {
		logger.Fatal("failed to init reset token manager", zap.Error(err))
	}

	pool := pg.PoolHandle()
	customerRepo := repository.NewCustomerRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	consumptionStore := repository.NewResetConsumptionStore(redis.Client)

	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		CustomerRepo:     customerRepo,
		AdminRepo:        adminRepo,
		ConsumptionStore: consumptionStore,
		Sessions:         sessions,
		Resets:           resets,
		Dispatcher:       dispatcher,
		Logger:           logger,
	})
	authMiddleware := auth.NewMiddleware(sessions, customerRepo, adminRepo)

	mailerService := service.NewMailerService(dispatcher, nil, logger, cfg.App, cfg.Mail)
	worker.StartMailerWorker(mailerService)

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Customers:      handlers.NewCustomersHandler(authService),
		Admin:          handlers.NewAdminHandler(authService),
		PasswordReset:  handlers.NewPasswordResetHandler(authService, logger),
		AuthMiddleware: authMiddleware,
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
