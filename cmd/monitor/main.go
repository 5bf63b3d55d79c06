package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/sla-monitor/internal/api/http"
	"github.com/spec-kit/sla-monitor/internal/api/http/handlers"
	"github.com/spec-kit/sla-monitor/internal/auth"
	"github.com/spec-kit/sla-monitor/internal/config"
	"github.com/spec-kit/sla-monitor/internal/notification"
	"github.com/spec-kit/sla-monitor/internal/notification/channels"
	"github.com/spec-kit/sla-monitor/internal/observability"
	"github.com/spec-kit/sla-monitor/internal/persistence"
	"github.com/spec-kit/sla-monitor/internal/repository"
	"github.com/spec-kit/sla-monitor/internal/scanner"
	"github.com/spec-kit/sla-monitor/internal/scheduler"
	"github.com/spec-kit/sla-monitor/internal/service"
	"github.com/spec-kit/sla-monitor/internal/sla"
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

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	prefRepo := repository.NewPreferenceRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	policies := sla.NewPolicyTable(cfg.SLA)
	detector := sla.NewDetector(cfg.SLA.WarningRatio)
	slaClock := sla.NewClock(policies)
	slaService := service.NewTicketSlaService(ticketRepo, slaClock, nil, logger)

	prefResolver := notification.NewPreferenceResolver(prefRepo, logger)
	recipientResolver := notification.NewRecipientResolver(userRepo, logger)
	dispatcher := notification.NewDispatcher(
		[]notification.Sender{
			channels.NewEmailSender(cfg.Notification, logger),
			channels.NewChatWebhookSender(cfg.Notification, logger),
			channels.NewInAppStore(redis.Client, cfg.Notification, logger),
		},
		prefResolver,
		cfg.Notification.ChannelTimeout(),
		logger,
		metrics,
	)

	slaScanner := scanner.NewScanner(ticketRepo, detector, recipientResolver, dispatcher, nil, logger, metrics)
	runtime := scheduler.New("sla-compliance-scan", cfg.SLA.ScanInterval(), slaScanner, nil, logger, metrics)
	runtime.Start()

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokenManager)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, runtime),
		Sla:            handlers.NewSlaHandler(runtime, metrics),
		TicketSla:      handlers.NewTicketSlaHandler(slaService),
		Preferences:    handlers.NewPreferencesHandler(prefResolver, prefRepo),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.SLA.StopGrace())
	defer stopCancel()
	if err := runtime.Stop(stopCtx); err != nil {
		logger.Error("scheduler shutdown incomplete", zap.Error(err))
	}

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
