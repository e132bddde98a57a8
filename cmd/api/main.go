package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skillswap/skillswap-api/config"
	"github.com/skillswap/skillswap-api/internal/cache"
	"github.com/skillswap/skillswap-api/internal/database/memory"
	"github.com/skillswap/skillswap-api/internal/database/postgres"
	"github.com/skillswap/skillswap-api/internal/handlers"
	"github.com/skillswap/skillswap-api/internal/middleware"
	"github.com/skillswap/skillswap-api/internal/notify"
	"github.com/skillswap/skillswap-api/internal/repository"
	"github.com/skillswap/skillswap-api/internal/services"
	"github.com/skillswap/skillswap-api/pkg/archive"
	"github.com/skillswap/skillswap-api/pkg/db"
	"github.com/skillswap/skillswap-api/pkg/httpclient"
	"github.com/skillswap/skillswap-api/pkg/jwt"
	"github.com/skillswap/skillswap-api/pkg/logger"
	"github.com/skillswap/skillswap-api/pkg/meeting"
	"github.com/skillswap/skillswap-api/pkg/metrics"
	"github.com/skillswap/skillswap-api/pkg/profiling"
	"github.com/skillswap/skillswap-api/pkg/tracing"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// openStore returns the persistence backend and a cleanup func
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	if cfg.Database.WorkOffline {
		logger.Warn("DB_WORK_OFFLINE is set - using the in-memory store, data is lost on restart")
		return memory.New(), func() {}, nil
	}

	pool, err := db.NewPool(ctx, db.PoolConfig{
		URL:      cfg.Database.URL,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return nil, nil, err
	}

	client := postgres.NewClient(pool)
	return client, client.Close, nil
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: cfg.Observability.ServiceName,
		MaxSizeMB:   cfg.Logging.MaxSizeMB,
		MaxBackups:  cfg.Logging.MaxBackups,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting SkillSwap API",
		zap.String("version", cfg.Observability.ServiceVersion),
		zap.String("environment", cfg.Server.AppEnv),
	)

	serviceInfo := tracing.ServiceInfo{
		Name:        cfg.Observability.ServiceName,
		Namespace:   cfg.Observability.ServiceNamespace,
		Version:     cfg.Observability.ServiceVersion,
		InstanceID:  cfg.Observability.ServiceInstanceID,
		Environment: cfg.Server.AppEnv,
	}

	// Initialize distributed tracing
	tracerShutdown, err := tracing.InitTracer(serviceInfo, cfg.Observability.CollectorEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	stopProfiler, err := profiling.InitProfiler(cfg.Profiling, profiling.Target{
		Service:     serviceInfo.Name,
		Namespace:   serviceInfo.Namespace,
		Version:     serviceInfo.Version,
		InstanceID:  serviceInfo.InstanceID,
		Environment: serviceInfo.Environment,
	})
	if err != nil {
		logger.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer stopProfiler()

	// Start infrastructure metrics collection
	metrics.RecordInfrastructureMetrics()

	// Background work (rate limiter cleanup) stops with this context
	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	// NOTE: migrations run separately via the migrate command
	store, closeStore, err := openStore(appCtx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database connection pool", zap.Error(err))
	}
	defer closeStore()

	skillCache := cache.NewSkillCache(store.ListSkills, time.Duration(cfg.Cache.SkillTTLSeconds)*time.Second)
	dispatcher := notify.NewDispatcher(store, cfg.Notifications.WebhookURL, httpclient.NewStandardClient(10*time.Second))
	meetings := meeting.NewGenerator(cfg.Exchange.MeetingBaseURL)

	var exchangeOpts []services.ExchangeOption
	if cfg.Archive.Enabled() {
		archiver, archiveErr := archive.NewClient(archive.Config{
			AccessKeyID:     cfg.Archive.AccessKeyID,
			SecretAccessKey: cfg.Archive.SecretAccessKey,
			BucketName:      cfg.Archive.BucketName,
			Endpoint:        cfg.Archive.Endpoint,
			Region:          cfg.Archive.Region,
		})
		if archiveErr != nil {
			logger.Fatal("Failed to initialize exchange archive client", zap.Error(archiveErr))
		}
		exchangeOpts = append(exchangeOpts, services.WithArchiver(archiver))
	} else {
		logger.Info("Exchange archiving disabled: ARCHIVE_S3_* not configured")
	}

	// Initialize services
	skillService := services.NewSkillService(store, skillCache)
	gamificationService := services.NewGamificationService(store, store, dispatcher)
	exchangeService := services.NewExchangeService(store, store, skillService, gamificationService, dispatcher, meetings, cfg, exchangeOpts...)
	reviewService := services.NewReviewService(store, gamificationService, dispatcher)
	accountService := services.NewAccountService(store, store)

	routes := &handlers.Router{
		Exchanges: handlers.NewExchangeHandler(exchangeService),
		Reviews:   handlers.NewReviewHandler(reviewService),
		Skills:    handlers.NewSkillHandler(skillService),
		Accounts:  handlers.NewAccountHandler(accountService),
		Health:    handlers.NewHealthHandler(store.Ping),
	}

	tokenManager := jwt.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.SessionTTLHours)

	// Set up Gin router
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName))
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	allowedOrigins := cfg.Server.AllowedOrigins
	if cfg.IsDevelopment() {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:  allowedOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.InternalAPITokenHeader, "traceparent", "tracestate"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	generalRateLimiter := middleware.NewRateLimiter(appCtx, 50, 100) // 50 req/sec, burst of 100
	writeRateLimiter := middleware.NewRateLimiter(appCtx, 2, 10)     // 2 req/sec, burst of 10

	api := router.Group("/api")
	api.GET("/metrics", generalRateLimiter.Middleware(), gin.WrapH(promhttp.Handler()))

	routes.Register(api, handlers.RouteMiddleware{
		Session:   middleware.UserSessionMiddleware(tokenManager),
		Internal:  middleware.InternalAPIAuthMiddleware(cfg.Auth.InternalAPIToken),
		Limit:     generalRateLimiter.Middleware(),
		Writes:    writeRateLimiter.Middleware(),
		BodyLimit: middleware.BodySizeLimitMiddleware(64 * 1024),
	})

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Let in-flight notifications and archive uploads finish
	exchangeService.Wait()
	dispatcher.Wait()

	logger.Info("Server exited")
}
