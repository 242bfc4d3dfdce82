package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"opsdesk/internal/auth"
	"opsdesk/internal/cache"
	"opsdesk/internal/config"
	"opsdesk/internal/database"
	"opsdesk/internal/database/migration"
	handlers "opsdesk/internal/http/handler"
	"opsdesk/internal/http/middleware"
	"opsdesk/internal/logger"
	"opsdesk/internal/notify"
	"opsdesk/internal/otel"
	"opsdesk/internal/repository/postgres"
	"opsdesk/internal/service"
	"opsdesk/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// @title Opsdesk API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := cfg.Location()

	log, err := logger.New(cfg.LogLevel, loc)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, logger.Component(log, "tracing"))
	if err != nil {
		log.Fatal("tracing_init_failed", zap.Error(err))
	}

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(ctx, cfg.Database, logger.Component(log, "database"))
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(ctx, cfg.MinIO, logger.Component(log, "storage"))
	if err != nil {
		log.Fatal("failed to initialize object storage", zap.Error(err))
	}

	analyticsCache, closeCache := cache.FromConfig(ctx, cfg.Redis, logger.Component(log, "cache"))
	defer closeCache()

	mailer := notify.NewMailer(newSender(cfg.Mail, log), log)

	leavePolicy, err := config.LoadLeavePolicy(cfg.LeavePolicyFile)
	if err != nil {
		log.Fatal("failed to load leave policy", zap.Error(err))
	}

	tokens, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatal("failed to configure tokens", zap.Error(err))
	}

	deps := newDeps(db, objStore, analyticsCache, mailer, leavePolicy, tokens, cfg, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatal("failed to register metrics", zap.Error(err))
	}
	deps.Metrics = reg

	limiter := middleware.NewLimiterStore(cfg.Auth.LoginRPS, cfg.Auth.LoginBurst)
	limiter.StartJanitor(ctx)
	deps.LoginLimiter = limiter

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    int(service.MaxPolicySize) + 1<<20,
	})

	// Register global middleware
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(metrics.Handler())

	handlers.RegisterRoutes(app, deps)

	addr := ":" + cfg.Port
	listenErr := make(chan error, 1)
	go func() {
		log.Info("server_starting", zap.String("addr", addr))
		listenErr <- app.Listen(addr)
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			log.Error("failed to start server", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("server_stopping")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("server_shutdown_failed", zap.Error(err))
	}
	mailer.Close()
	if err := shutdownTracing(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Error("tracing_shutdown_failed", zap.Error(err))
	}
}

func newDeps(
	db *sql.DB,
	objStore storage.Storage,
	c cache.Cache,
	notifier notify.Notifier,
	leavePolicy config.LeavePolicy,
	tokens *auth.Issuer,
	cfg *config.AppConfig,
	log *zap.Logger,
) handlers.Deps {
	loc := cfg.Location()
	userRepo := postgres.NewUserPostgres(db)
	projectRepo := postgres.NewProjectPostgres(db)
	timeLogRepo := postgres.NewTimeLogPostgres(db)
	leaveRepo := postgres.NewLeavePostgres(db)
	policyRepo := postgres.NewPolicyPostgres(db)

	svcLog := logger.Component(log, "service")
	return handlers.Deps{
		DB:        db,
		Storage:   objStore,
		Auth:      service.NewAuthService(userRepo, tokens),
		Users:     service.NewUserService(userRepo, c, svcLog),
		Projects:  service.NewProjectService(projectRepo, timeLogRepo, c, svcLog),
		TimeLogs:  service.NewTimeLogService(timeLogRepo, projectRepo, c, svcLog, loc),
		Leaves:    service.NewLeaveService(leaveRepo, userRepo, notifier, c, leavePolicy, svcLog, loc),
		Policies:  service.NewPolicyService(objStore, policyRepo),
		Analytics: service.NewAnalyticsService(projectRepo, timeLogRepo, userRepo, leaveRepo, c, cfg.Redis.TTL, svcLog, loc),
	}
}

func newSender(cfg config.MailConfig, log *zap.Logger) notify.Sender {
	if !cfg.Enabled || cfg.SendgridAPIKey == "" {
		return notify.NewLogSender(logger.Component(log, "mail"))
	}
	return notify.NewSendGrid(cfg.SendgridAPIKey, cfg.FromName, cfg.FromAddress)
}
