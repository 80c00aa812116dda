package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	disciplinaryapp "github.com/disciplinario/backend/internal/application/disciplinary"
	identityapp "github.com/disciplinario/backend/internal/application/identity"
	printingapp "github.com/disciplinario/backend/internal/application/printing"
	printingdomain "github.com/disciplinario/backend/internal/domain/printing"
	"github.com/disciplinario/backend/internal/infrastructure/auth"
	"github.com/disciplinario/backend/internal/infrastructure/cache"
	"github.com/disciplinario/backend/internal/infrastructure/config"
	"github.com/disciplinario/backend/internal/infrastructure/event"
	"github.com/disciplinario/backend/internal/infrastructure/logger"
	"github.com/disciplinario/backend/internal/infrastructure/migration"
	"github.com/disciplinario/backend/internal/infrastructure/persistence"
	"github.com/disciplinario/backend/internal/infrastructure/printing"
	"github.com/disciplinario/backend/internal/infrastructure/storage"
	"github.com/disciplinario/backend/internal/infrastructure/telemetry"
	"github.com/disciplinario/backend/internal/interfaces/http/handler"
	"github.com/disciplinario/backend/internal/interfaces/http/middleware"
	"github.com/disciplinario/backend/internal/interfaces/http/router"
	"github.com/disciplinario/backend/migrations"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log, logProvider, err := newLogger(ctx, cfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting disciplinary request backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("port", cfg.App.Port),
		zap.String("database", cfg.Database.Driver),
		zap.String("storage", cfg.Storage.Backend),
	)

	obs, err := setupObservability(ctx, cfg, logProvider, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbSystem := "postgresql"
	if cfg.Database.Driver == persistence.DriverSQLite {
		dbSystem = "sqlite"
	}
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        dbSystem,
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}

	if err := migrateSchema(cfg, db, log); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}

	// Repositories
	requestRepo := persistence.NewGormRequestRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)

	// Blob storage
	engine := newEngine(cfg, log)
	blobStore, closeBlobs, err := newBlobStore(ctx, cfg, engine, log)
	if err != nil {
		log.Fatal("Failed to initialize attachment storage", zap.Error(err))
	}
	defer closeBlobs()

	// Domain events
	eventBus := event.NewInMemoryEventBus(log)
	if cfg.Event.AuditLog {
		audit := event.NewAuditLogHandler(log)
		eventBus.Subscribe(audit, audit.EventTypes()...)
	}
	var forwarder *event.KafkaForwarder
	if cfg.Event.KafkaEnabled {
		serializer := event.NewEventSerializer()
		event.RegisterDisciplinaryEvents(serializer)
		forwarder, err = event.NewKafkaForwarder(event.KafkaConfig{
			Brokers:  cfg.Event.KafkaBrokers,
			Topic:    cfg.Event.KafkaTopic,
			ClientID: cfg.Event.KafkaClientID,
		}, serializer, log)
		if err != nil {
			log.Fatal("Failed to connect to Kafka", zap.Error(err))
		}
		eventBus.Subscribe(forwarder, forwarder.EventTypes()...)
		log.Info("Kafka event forwarding enabled",
			zap.Strings("brokers", cfg.Event.KafkaBrokers),
			zap.String("topic", cfg.Event.KafkaTopic),
		)
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Application services
	requestService := disciplinaryapp.NewRequestService(disciplinaryapp.ServiceConfig{
		Repository:        requestRepo,
		BlobStore:         blobStore,
		EventPublisher:    eventBus,
		Logger:            log,
		UploadConcurrency: cfg.Storage.UploadConcurrency,
	})

	redisClient := newRedisClient(ctx, cfg, log)
	var (
		blacklist   auth.TokenBlacklist
		idempotency middleware.IdempotencyStore
	)
	if redisClient != nil {
		defer func() {
			_ = redisClient.Close()
		}()
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
		idempotency = cache.NewRedisIdempotencyStore(redisClient, "")
	} else {
		memKeys := cache.NewInMemoryIdempotencyStore()
		defer func() {
			_ = memKeys.Close()
		}()
		blacklist = auth.NewInMemoryTokenBlacklist()
		idempotency = memKeys
	}

	jwtService := auth.NewJWTService(cfg.JWT)
	roleResolver := identityapp.NewRoleResolver(userRepo, cfg.Roles.Overrides, log)
	authService := identityapp.NewAuthService(userRepo, roleResolver, jwtService, blacklist,
		identityapp.AuthServiceConfig{
			MaxLoginAttempts: cfg.JWT.MaxLoginAttempts,
			LockDuration:     cfg.JWT.LockDuration,
		}, log)

	// Preview/export pipeline
	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		log.Warn("Unknown timezone, printing dates in UTC",
			zap.String("timezone", cfg.App.Timezone), zap.Error(err))
		loc = time.UTC
	}
	geometry, err := printingdomain.NewPageGeometry(
		printingdomain.PaperSize(strings.ToUpper(cfg.Printing.PaperSize)),
		printingdomain.Orientation(strings.ToUpper(cfg.Printing.Orientation)),
		cfg.Printing.MarginMM,
	)
	if err != nil {
		log.Fatal("Invalid page geometry", zap.Error(err))
	}

	renderer := printing.NewTemplateEngine(printing.WithLocation(loc), printing.WithPageGeometry(geometry))
	rasterizer := printing.NewChromedpRasterizer(&printing.ChromedpConfig{
		Timeout:   cfg.Printing.RenderTimeout,
		RemoteURL: cfg.Printing.ChromeURL,
		NoSandbox: cfg.Printing.NoSandbox,
		Logger:    log,
	})
	defer func() {
		_ = rasterizer.Close()
	}()
	exporter := printing.NewPDFExporter(&printing.PDFExporterConfig{
		Geometry:    geometry,
		JPEGQuality: cfg.Printing.JPEGQuality,
		Creator:     cfg.App.Name,
		Logger:      log,
	})
	rasterOptions := printing.RasterOptions{
		Scale:      cfg.Printing.Scale,
		Background: cfg.Printing.Background,
		Selector:   printing.DefaultRasterSelector,
		MaxWidth:   cfg.Printing.MaxWidthPx,
		Geometry:   geometry,
	}

	pipelineMetrics := telemetry.NewPipelineMetrics()
	sessions := printingapp.NewSessionRegistry(func() *printingapp.ExportController {
		return printingapp.NewExportController(printingapp.ControllerDeps{
			Records:       printingapp.NewRecordSet(requestRepo, log),
			Renderer:      renderer,
			Rasterizer:    rasterizer,
			Exporter:      exporter,
			RasterOptions: rasterOptions,
			Observer:      pipelineMetrics,
			Logger:        log,
		})
	}, cfg.Session.TTL, log)
	eventBus.Subscribe(sessions)
	if err := pipelineMetrics.RegisterSessionGauge(sessions.Len); err != nil {
		log.Warn("Failed to register session gauge", zap.Error(err))
	}
	if dbStats, err := db.StatsCollector(); err != nil {
		log.Warn("Database pool metrics unavailable", zap.Error(err))
	} else if err := pipelineMetrics.Registry().Register(dbStats); err != nil {
		log.Warn("Failed to register database pool metrics", zap.Error(err))
	}
	go sessions.Run(ctx, cfg.Session.SweepInterval)

	// HTTP middleware
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log, "/health", "/metrics"))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		Enabled: obs.meter.IsEnabled(),
		Meter:   obs.meter.Meter("http.server"),
		Logger:  log,
	}))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFromHTTP(cfg.HTTP)))
	engine.Use(middleware.Secure())
	engine.Use(middleware.Timeout(cfg.HTTP.WriteTimeout))
	engine.Use(middleware.BodyLimitWithOverrides(cfg.HTTP.MaxBodySize, map[string]int64{
		handler.UploadRoute: cfg.HTTP.MaxUploadSize,
	}))
	engine.Use(middleware.OptionalJWTAuthMiddleware(jwtService, blacklist))
	engine.Use(middleware.ResolveRole(roleResolver))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.Profiling(cfg.Profiling.Enabled, "/health", "/metrics"))

	var loginLimit, submitLimit gin.HandlerFunc
	if cfg.HTTP.RateLimitEnabled {
		loginLimiter := middleware.NewRateLimiter(cfg.HTTP.LoginRateLimit, cfg.HTTP.RateLimitWindow)
		defer loginLimiter.Stop()
		submitLimiter := middleware.NewRateLimiter(cfg.HTTP.SubmitRateLimit, cfg.HTTP.RateLimitWindow)
		defer submitLimiter.Stop()

		loginLimit = middleware.RateLimit(loginLimiter)
		submitLimit = middleware.RateLimit(submitLimiter)
		log.Info("Rate limiting enabled",
			zap.Int("login_limit", cfg.HTTP.LoginRateLimit),
			zap.Int("submit_limit", cfg.HTTP.SubmitRateLimit),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Routes
	checks := map[string]handler.Pinger{
		"database": handler.PingerFunc(db.Ping),
	}
	if redisClient != nil {
		checks["redis"] = handler.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, checks)
	engine.GET("/health", systemHandler.Health)
	if cfg.Telemetry.PrometheusEnabled {
		engine.GET("/metrics", gin.WrapH(pipelineMetrics.Handler()))
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(
		handler.AuthRoutes(handler.NewAuthHandler(authService), loginLimit),
		handler.RequestRoutes(handler.NewRequestHandler(requestService),
			submitLimit, middleware.Idempotency(idempotency, cfg.HTTP.IdempotencyTTL)),
		handler.ExportRoutes(handler.NewExportHandler(sessions)),
		handler.ReportRoutes(handler.NewReportHandler(requestService, loc)),
		handler.SystemRoutes(systemHandler),
	)
	r.Setup()

	for _, route := range r.Routes() {
		log.Debug("Route registered",
			zap.String("group", route.Group),
			zap.String("method", route.Method),
			zap.String("path", route.Path),
		)
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	cancel()

	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus stop failed", zap.Error(err))
	}
	if forwarder != nil {
		if err := forwarder.Close(shutdownCtx); err != nil {
			log.Warn("Kafka forwarder close failed", zap.Error(err))
		}
	}
	obs.shutdown(shutdownCtx)

	log.Info("Server exited gracefully")
}

// newEngine creates the gin engine with the process-wide settings applied
func newEngine(cfg *config.Config, log *zap.Logger) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Failed to set trusted proxies", zap.Error(err))
	}
	engine.MaxMultipartMemory = cfg.HTTP.MaxUploadSize
	return engine
}

// migrateSchema applies the embedded SQL migrations on PostgreSQL and falls
// back to gorm auto-migration for SQLite
func migrateSchema(cfg *config.Config, db *persistence.Database, log *zap.Logger) error {
	if cfg.Database.Driver == persistence.DriverSQLite {
		return persistence.AutoMigrate(db.DB)
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.NewEmbedded(sqlDB, migrations.FS, log)
	if err != nil {
		return err
	}
	return m.Up()
}

// newBlobStore selects the attachment storage backend. The filesystem backend
// is also served by the engine under its public base URL.
func newBlobStore(ctx context.Context, cfg *config.Config, engine *gin.Engine, log *zap.Logger) (disciplinaryapp.BlobStore, func(), error) {
	if cfg.Storage.Backend == "filesystem" {
		fs, err := storage.NewFilesystemBlobStore(cfg.Storage.Directory, cfg.Storage.PublicBaseURL, log)
		if err != nil {
			return nil, nil, err
		}
		if strings.HasPrefix(cfg.Storage.PublicBaseURL, "/") {
			engine.Static(cfg.Storage.PublicBaseURL, fs.Dir())
		}
		log.Info("Attachments stored on local filesystem", zap.String("dir", fs.Dir()))
		return fs, func() { _ = fs.Close() }, nil
	}

	s3Store, err := storage.NewS3BlobStore(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}
	if err := s3Store.EnsureBucket(ctx); err != nil {
		return nil, nil, err
	}
	log.Info("Attachments stored in S3", zap.String("bucket", s3Store.GetBucket()))
	return s3Store, func() {}, nil
}

// newRedisClient connects to Redis when enabled. Nil means token revocations
// and idempotency keys are kept in process memory.
func newRedisClient(ctx context.Context, cfg *config.Config, log *zap.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		log.Warn("Redis disabled, token revocations and idempotency keys are kept in memory")
		return nil
	}

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, token revocations and idempotency keys are kept in memory", zap.Error(err))
		return nil
	}
	log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	return client
}
