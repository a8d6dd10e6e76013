package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/shopfront/backend/docs"
	adminapp "github.com/shopfront/backend/internal/application/admin"
	cartapp "github.com/shopfront/backend/internal/application/cart"
	catalogapp "github.com/shopfront/backend/internal/application/catalog"
	eventapp "github.com/shopfront/backend/internal/application/event"
	identityapp "github.com/shopfront/backend/internal/application/identity"
	messagingapp "github.com/shopfront/backend/internal/application/messaging"
	notificationapp "github.com/shopfront/backend/internal/application/notification"
	orderapp "github.com/shopfront/backend/internal/application/order"
	wishlistapp "github.com/shopfront/backend/internal/application/wishlist"
	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/auth"
	"github.com/shopfront/backend/internal/infrastructure/cache"
	"github.com/shopfront/backend/internal/infrastructure/config"
	"github.com/shopfront/backend/internal/infrastructure/event"
	"github.com/shopfront/backend/internal/infrastructure/logger"
	"github.com/shopfront/backend/internal/infrastructure/mail"
	"github.com/shopfront/backend/internal/infrastructure/metrics"
	"github.com/shopfront/backend/internal/infrastructure/payment"
	"github.com/shopfront/backend/internal/infrastructure/persistence"
	"github.com/shopfront/backend/internal/infrastructure/printing"
	"github.com/shopfront/backend/internal/infrastructure/realtime"
	"github.com/shopfront/backend/internal/infrastructure/scheduler"
	"github.com/shopfront/backend/internal/infrastructure/storage"
	"github.com/shopfront/backend/internal/infrastructure/telemetry"
	"github.com/shopfront/backend/internal/interfaces/http/handler"
	"github.com/shopfront/backend/internal/interfaces/http/middleware"
	"github.com/shopfront/backend/internal/interfaces/http/router"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Shopfront API
//	@version		1.0
//	@description	Online shop backend: catalog, cart, checkout, orders, messaging and administration.

//	@contact.name	API Support
//	@contact.url	https://github.com/shopfront/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()

	// OTEL log export is set up before the logger so the bridge core can be attached
	var extraCores []zapcore.Core
	var loggerProvider *telemetry.LoggerProvider
	if cfg.Telemetry.LogsEnabled {
		bootstrap, _ := zap.NewProduction()
		loggerProvider, err = telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
			Enabled:           true,
			CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
			ServiceName:       cfg.Telemetry.ServiceName,
			Insecure:          cfg.Telemetry.Insecure,
		}, bootstrap)
		if err != nil {
			panic("Failed to initialize log exporter: " + err.Error())
		}
		extraCores = append(extraCores, telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			LoggerProvider: loggerProvider,
			Level:          logger.ParseLevel(cfg.Log.Level),
		}))
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}, extraCores...)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting shop backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Tracing, OTEL metrics and continuous profiling
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		log.Warn("Continuous profiling unavailable", zap.Error(err))
	}
	if cfg.Telemetry.ProfilingEnabled && cfg.Telemetry.Enabled {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Span profiles unavailable", zap.Error(err))
		}
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if profiler != nil {
			_ = profiler.Stop()
		}
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
		if loggerProvider != nil {
			_ = loggerProvider.Shutdown(shutdownCtx)
		}
	}()

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)

	// Initialize database connection
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", db.Driver))

	// SQLite has no migration files; the schema comes from the models
	if db.Driver == "sqlite" {
		if err := persistence.AutoMigrate(db.DB); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}

	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:          cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:       cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh:  cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:         db.Driver,
		WithoutVariables: !cfg.Telemetry.DBLogFullSQL,
	}, log).RegisterOtelGorm(db.DB); err != nil {
		log.Warn("Database tracing unavailable", zap.Error(err))
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DBMetricsConfig{
		Enabled:            meterProvider.IsEnabled(),
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
		PoolStatsInterval:  15 * time.Second,
	}, log)
	if err != nil {
		log.Warn("Database metrics unavailable", zap.Error(err))
	}
	if dbMetrics != nil {
		defer dbMetrics.Stop()
	}

	// Redis backs the token blacklist and idempotency keys; in-memory outside production
	cacheBackend, err := cache.Open(ctx, cfg.Redis, cfg.App.IsProduction(), log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := cacheBackend.Close(); err != nil {
			log.Error("Error closing cache", zap.Error(err))
		}
	}()
	var blacklist auth.TokenBlacklist
	if cacheBackend.Client != nil {
		blacklist = auth.NewRedisTokenBlacklist(cacheBackend.Client)
	} else {
		blacklist = auth.NewInMemoryTokenBlacklist()
	}
	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	reviewRepo := persistence.NewGormReviewRepository(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	conversationRepo := persistence.NewGormConversationRepository(db.DB)
	notificationRepo := persistence.NewGormNotificationRepository(db.DB)
	wishlistRepo := persistence.NewGormWishlistRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Domain events are written to the outbox inside each business transaction
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)
	scope := persistence.NewGormTransactionScope(db.DB, event.NewOutboxPublisher(eventSerializer))

	// Object storage for product images
	var images catalogapp.ImageStorage
	if cfg.Storage.Enabled {
		s3, err := storage.NewS3ImageStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if cfg.Storage.AutoCreate {
			if err := s3.EnsureBucket(ctx); err != nil {
				log.Fatal("Failed to prepare storage bucket", zap.Error(err))
			}
		}
		images = s3
		log.Info("Object storage enabled", zap.String("bucket", s3.Bucket()))
	}

	// Websocket hub for live notifications
	hub := realtime.NewHub(realtime.HubConfig{AllowedOrigins: cfg.HTTP.CORSAllowOrigins}, log)
	defer hub.Close()

	mailer, err := mail.New(cfg.Mail, log)
	if err != nil {
		log.Fatal("Failed to initialize mailer", zap.Error(err))
	}

	// Initialize application services
	pricing := order.PricingPolicy{
		FreeShippingThreshold: cfg.Shop.FreeShippingThreshold,
		FlatShippingFee:       cfg.Shop.FlatShippingFee,
		TaxRate:               cfg.Shop.TaxRate,
	}
	authService := identityapp.NewAuthService(scope, userRepo, jwtService, blacklist, identityapp.AuthServiceConfig{
		MaxLoginAttempts: cfg.Shop.MaxLoginAttempts,
		LockDuration:     cfg.Shop.LockoutDuration,
	}, log)
	userService := identityapp.NewUserService(scope, userRepo, blacklist, cfg.JWT.RefreshTokenExpiration, log)
	categoryService := catalogapp.NewCategoryService(categoryRepo, log)
	productService := catalogapp.NewProductService(scope, productRepo, categoryRepo, images, catalogapp.ProductServiceConfig{
		FeaturedLimit: cfg.Shop.FeaturedLimit,
		RelatedLimit:  cfg.Shop.RelatedLimit,
	}, log)
	reviewService := catalogapp.NewReviewService(scope, reviewRepo, productRepo, userRepo, orderRepo, log)
	cartService := cartapp.NewCartService(cartRepo, productRepo, pricing, log)
	orderService := orderapp.NewOrderService(scope, orderRepo, cartRepo, cacheBackend.Idempotency, orderapp.OrderServiceConfig{
		Pricing:         pricing,
		KeyTTL:          cfg.Shop.OrderKeyTTL,
		PendingTTL:      cfg.Shop.PendingOrderTTL,
		ExpireBatchSize: 100,
	}, log)
	conversationService := messagingapp.NewConversationService(scope, conversationRepo, log)
	notificationService := notificationapp.NewService(notificationRepo, userRepo, hub, notificationapp.ServiceConfig{
		BatchSize: cfg.Shop.BroadcastBatchSize,
		Retention: cfg.Shop.NotificationRetention,
	}, log)
	wishlistService := wishlistapp.NewService(wishlistRepo, productRepo, cartService, log)
	dashboardService := adminapp.NewDashboardService(userRepo, productRepo, orderRepo, log)
	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	// Business metrics go to both Prometheus and OTEL
	promRegistry := metrics.NewPrometheusRegistry(metrics.DefaultPrometheusConfig())
	recorders := orderapp.Recorders{promRegistry}
	if meterProvider.IsEnabled() {
		businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:         meterProvider.Meter("shopfront/business"),
			Logger:        log,
			StockProvider: productRepo,
		})
		if err != nil {
			log.Warn("Business metrics unavailable", zap.Error(err))
		} else {
			businessMetrics.StartPeriodicCollection(ctx, time.Minute)
			defer businessMetrics.Stop()
			recorders = append(recorders, businessMetrics)
		}
	}
	orderService.SetBusinessMetrics(recorders)

	// PDF invoices through headless Chrome
	if cfg.Invoice.Enabled {
		chrome := printing.NewChromedpRenderer(&printing.ChromedpConfig{
			DefaultTimeout: cfg.Invoice.Timeout,
			RemoteURL:      cfg.Invoice.RemoteURL,
			NoSandbox:      true,
			Logger:         log,
		})
		defer func() {
			_ = chrome.Close()
		}()
		orderService.SetInvoiceRenderer(printing.NewInvoiceRenderer(printing.InvoiceConfig{
			StoreName:      cfg.App.Name,
			Currency:       cfg.Shop.Currency,
			Timeout:        cfg.Invoice.Timeout,
			MaxConcurrency: cfg.Invoice.MaxConcurrency,
		}, chrome, log))
	}

	// Card payments are confirmed against Stripe
	if cfg.Payment.StripeEnabled {
		verifier, err := payment.NewStripeVerifier(payment.StripeConfig{
			SecretKey:  cfg.Payment.StripeSecretKey,
			IsTestMode: cfg.Payment.StripeTestMode,
			Currency:   cfg.Shop.Currency,
		}, log)
		if err != nil {
			log.Fatal("Failed to configure Stripe", zap.Error(err))
		}
		orderService.SetPaymentVerifier(verifier)
		log.Info("Stripe payment verification enabled", zap.Bool("test_mode", cfg.Payment.StripeTestMode))
	}

	// Event bus: notification handlers run at most once per event
	eventBus := event.NewInMemoryEventBus(log)
	idempotencyMetrics := &event.IdempotencyMetrics{}
	idempotent := func(h shared.EventHandler) shared.EventHandler {
		return event.NewIdempotentHandler(h, cacheBackend.Idempotency, log,
			event.WithIdempotencyConfig(shared.IdempotencyConfig{TTL: cfg.Event.IdempotencyTTL, Enabled: true}),
			event.WithIdempotencyMetrics(idempotencyMetrics),
		)
	}
	eventBus.Subscribe(idempotent(notificationapp.NewCustomerOrderHandler(notificationService, log)))
	eventBus.Subscribe(idempotent(notificationapp.NewAdminAlertHandler(notificationService, log)))
	eventBus.Subscribe(idempotent(notificationapp.NewMessageHandler(notificationService, userRepo, hub, log)))
	eventBus.Subscribe(idempotent(notificationapp.NewEmailHandler(mailer, userRepo, notificationapp.Templates{
		ShopName:    cfg.App.Name,
		FrontendURL: cfg.Shop.FrontendURL,
		Currency:    cfg.Shop.Currency,
	}, log)))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// The outbox processor relays committed events to the bus
	if cfg.Event.ProcessorEnabled {
		outboxConfig := event.OutboxProcessorConfig{
			BatchSize:        cfg.Event.BatchSize,
			PollInterval:     cfg.Event.PollInterval,
			MaxRetries:       cfg.Event.MaxRetries,
			CleanupEnabled:   cfg.Event.CleanupEnabled,
			CleanupRetention: cfg.Event.CleanupRetention,
			CleanupInterval:  time.Hour,
			ClaimTimeout:     cfg.Event.ClaimTimeout,
		}
		outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, outboxConfig, log)
		outboxProcessor.SetObserver(promRegistry)
		if err := outboxProcessor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", outboxConfig.BatchSize),
			zap.Duration("poll_interval", outboxConfig.PollInterval),
		)
	}

	// Maintenance jobs
	if cfg.Scheduler.Enabled {
		jobs := scheduler.NewScheduler(scheduler.Config{JobTimeout: cfg.Scheduler.JobTimeout, Location: time.UTC}, log)
		for _, job := range scheduler.MaintenanceJobs(scheduler.Specs{
			ExpireOrders:       cfg.Scheduler.ExpireOrdersSpec,
			PurgeNotifications: cfg.Scheduler.PurgeNotificationSpec,
			OutboxReport:       cfg.Scheduler.OutboxReportSpec,
		}, orderService, notificationService, outboxService, log) {
			if err := jobs.Register(job); err != nil {
				log.Fatal("Failed to register scheduled job", zap.String("job", job.Name), zap.Error(err))
			}
		}
		jobs.Start(ctx)
		defer func() {
			if err := jobs.Stop(context.Background()); err != nil {
				log.Error("Error stopping scheduler", zap.Error(err))
			}
		}()
	}

	// Initialize HTTP handlers
	var sockets handler.SocketServer = hub
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version).
		AddCheck("database", func(context.Context) error { return db.Ping() })
	if cacheBackend.Client != nil {
		systemHandler.AddCheck("redis", func(ctx context.Context) error {
			return cacheBackend.Client.Ping(ctx).Err()
		})
	}
	handlers := router.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		Category:     handler.NewCategoryHandler(categoryService),
		Product:      handler.NewProductHandler(productService),
		Review:       handler.NewReviewHandler(reviewService),
		Cart:         handler.NewCartHandler(cartService),
		Order:        handler.NewOrderHandler(orderService),
		Conversation: handler.NewConversationHandler(conversationService),
		Notification: handler.NewNotificationHandler(notificationService, sockets),
		Wishlist:     handler.NewWishlistHandler(wishlistService),
		User:         handler.NewUserHandler(userService),
		Admin:        handler.NewAdminHandler(dashboardService, notificationService),
		Outbox:       handler.NewOutboxHandler(outboxService),
		System:       systemHandler,
	}

	// Set Gin mode based on environment
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Tracing - Server span per request
	// 4. Logger - Log requests
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. Timeout - Bound handler time
	// 9. Metrics and profiling labels
	// 10. RateLimit - Apply rate limiting (if enabled)
	probePaths := []string{"/health", "/metrics"}
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
		SkipPaths:   probePaths,
	}))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Idempotent-Replayed"}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimitWithUploads(cfg.HTTP.MaxBodySize, cfg.HTTP.MaxUploadSize))
	engine.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))
	engine.Use(middleware.PrometheusMetrics(promRegistry))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		Enabled:       meterProvider.IsEnabled(),
	}))
	if cfg.Telemetry.ProfilingEnabled {
		profiling := middleware.DefaultProfilingConfig()
		profiling.SkipPaths = probePaths
		engine.Use(middleware.ProfilingWithConfig(profiling))
	}
	engine.Use(middleware.SpanErrorMarker())

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer rateLimiter.Stop()
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}
	authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
	defer authLimiter.Stop()
	orderLimiter := middleware.NewRateLimiter(cfg.HTTP.OrderRateLimitRequests, cfg.HTTP.OrderRateLimitWindow)
	defer orderLimiter.Stop()

	jwtMiddleware := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:      jwtService,
		TokenBlacklist:  blacklist,
		QueryTokenPaths: []string{"/api/v1/ws"},
		Logger:          log,
	})

	// Probes and scrapes (outside API versioning)
	engine.GET("/health", systemHandler.Health)
	engine.GET("/metrics", gin.WrapH(promRegistry.Handler()))

	// Swagger documentation endpoint
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.App.IsProduction(),
		}, jwtMiddleware),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	// Setup API routes
	router.Mount(router.NewRouter(engine, router.WithAPIVersion("v1")), handlers, router.Guards{
		Auth:           jwtMiddleware,
		OptionalAuth:   middleware.OptionalJWTAuthMiddleware(jwtService),
		Admin:          middleware.RequireAdmin(),
		AuthRateLimit:  middleware.RateLimit(authLimiter),
		OrderRateLimit: middleware.RateLimit(orderLimiter),
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
