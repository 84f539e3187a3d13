package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/backoffice-backend/api/middleware"
	"github.com/angelmondragon/backoffice-backend/api/routes"
	"github.com/angelmondragon/backoffice-backend/internal/auth"
	"github.com/angelmondragon/backoffice-backend/internal/configurations"
	"github.com/angelmondragon/backoffice-backend/internal/orders"
	"github.com/angelmondragon/backoffice-backend/internal/products"
	"github.com/angelmondragon/backoffice-backend/internal/quotes"
	"github.com/angelmondragon/backoffice-backend/internal/receipts"
	"github.com/angelmondragon/backoffice-backend/internal/reports"
	"github.com/angelmondragon/backoffice-backend/internal/sequence"
	"github.com/angelmondragon/backoffice-backend/internal/uploads"
	"github.com/angelmondragon/backoffice-backend/internal/users"
	"github.com/angelmondragon/backoffice-backend/pkg/auth/session"
	"github.com/angelmondragon/backoffice-backend/pkg/cache"
	"github.com/angelmondragon/backoffice-backend/pkg/config"
	"github.com/angelmondragon/backoffice-backend/pkg/db"
	"github.com/angelmondragon/backoffice-backend/pkg/logger"
	"github.com/angelmondragon/backoffice-backend/pkg/metrics"
	"github.com/angelmondragon/backoffice-backend/pkg/migrate"
	"github.com/angelmondragon/backoffice-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("run dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	handler, err := buildHandler(ctx, cfg, logg, dbClient, redisClient)
	if err != nil {
		return err
	}

	addr := ":" + listenPort(cfg)
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown api server: %w", err)
	}
	return nil
}

func buildHandler(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (http.Handler, error) {
	conn := dbClient.DB()

	var store cache.Store
	if cfg.Cache.UsesRedis() {
		redisStore, err := cache.NewRedis(redisClient, cfg.Cache.ConfigTTL)
		if err != nil {
			return nil, fmt.Errorf("create redis cache: %w", err)
		}
		store = redisStore
	} else {
		store = cache.NewMemory(cfg.Cache.ConfigTTL)
	}

	configService, err := configurations.NewService(configurations.NewRepository(conn), store, logg)
	if err != nil {
		return nil, fmt.Errorf("create configurations service: %w", err)
	}
	if err := configService.SeedDefaults(ctx); err != nil {
		return nil, fmt.Errorf("seed default configurations: %w", err)
	}

	userRepo := users.NewRepository(conn)
	userService, err := users.NewService(userRepo, cfg.Password, logg)
	if err != nil {
		return nil, fmt.Errorf("create users service: %w", err)
	}
	created, err := userService.EnsureBootstrapAdmin(ctx, cfg.Bootstrap)
	if err != nil {
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		logg.Info(ctx, "bootstrap administrator created")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	documents := metrics.NewDocumentMetrics(registry)
	numbers := sequence.NewGenerator()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return nil, fmt.Errorf("create session manager: %w", err)
	}
	rateLimitStore, err := middleware.NewRateLimitStore(redisClient.Raw())
	if err != nil {
		return nil, err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return nil, fmt.Errorf("create auth service: %w", err)
	}

	productRepo := products.NewRepository(conn)
	productService, err := products.NewService(productRepo, dbClient)
	if err != nil {
		return nil, fmt.Errorf("create products service: %w", err)
	}

	orderRepo := orders.NewRepository(conn)
	orderService, err := orders.NewService(orderRepo, dbClient, productRepo, numbers, configService, documents)
	if err != nil {
		return nil, fmt.Errorf("create orders service: %w", err)
	}

	quoteService, err := quotes.NewService(quotes.NewRepository(conn), orderRepo, productRepo, dbClient, numbers, configService, documents)
	if err != nil {
		return nil, fmt.Errorf("create quotes service: %w", err)
	}

	receiptService, err := receipts.NewService(receipts.NewRepository(conn), dbClient, numbers, configService, documents)
	if err != nil {
		return nil, fmt.Errorf("create receipts service: %w", err)
	}

	reportService, err := reports.NewService(reports.NewRepository(conn), time.Now)
	if err != nil {
		return nil, fmt.Errorf("create reports service: %w", err)
	}

	logoService, err := uploads.NewLogoService(cfg.Uploads, configService)
	if err != nil {
		return nil, fmt.Errorf("create logo service: %w", err)
	}

	return routes.NewRouter(cfg, logg, routes.Dependencies{
		DB:             dbClient,
		Redis:          redisClient,
		Sessions:       sessionManager,
		LoginLimiter:   redisClient,
		RateLimitStore: rateLimitStore,
		Idempotency:    redisClient,
		HTTPMetrics:    metrics.NewHTTPMetrics(registry),
		Gatherer:       registry,
		Auth:           authService,
		Users:          userService,
		Products:       productService,
		Quotes:         quoteService,
		Orders:         orderService,
		Receipts:       receiptService,
		Configurations: configService,
		Logos:          logoService,
		Reports:        reportService,
	})
}

func listenPort(cfg *config.Config) string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return cfg.App.Port
}
