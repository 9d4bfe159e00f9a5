// Package main provides the entry point of the issue composer API
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirphl/issue-composer/app/handlers"
	"github.com/amirphl/issue-composer/app/router"
	"github.com/amirphl/issue-composer/app/services"
	"github.com/amirphl/issue-composer/blocks"
	businessflow "github.com/amirphl/issue-composer/business_flow"
	"github.com/amirphl/issue-composer/config"
	"github.com/amirphl/issue-composer/logging"
	"github.com/amirphl/issue-composer/migrations"
	"github.com/amirphl/issue-composer/renderer"
	"github.com/amirphl/issue-composer/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	logger    *zap.Logger
	stopFuncs []func()
}

func main() {
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	undo := zap.RedirectStdLog(logger)
	defer undo()

	logger.Info("Starting issue composer",
		zap.String("environment", cfg.Deployment.Environment),
		zap.String("version", cfg.Deployment.Version),
		zap.String("commit", cfg.Deployment.CommitHash),
		zap.String("build_time", cfg.Deployment.BuildTime),
	)

	app, err := initializeApplication(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}
	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := app.router.Start(address); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-sigChan
	logger.Info("Shutting down gracefully")

	for _, fn := range app.stopFuncs {
		fn()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := app.router.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	logger.Info("Server stopped")
}

// initializeDatabase opens the gorm connection and configures the pool
func initializeDatabase(cfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	dbLogger := gormlogger.Default.LogMode(gormlogger.Warn)
	if cfg.SlowQueryLog {
		dbLogger = gormlogger.New(zap.NewStdLog(logger.Named("gorm")), gormlogger.Config{
			SlowThreshold:             cfg.SlowQueryTime,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
	)
	return db, nil
}

// initializeCache returns nil when the cache is disabled
func initializeCache(cfg config.CacheConfig, logger *zap.Logger) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis connection established", zap.Int("db", cfg.RedisDB))
	return rc, nil
}

// startCacheHealthMonitor pings redis periodically; the returned func stops it
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration, logger *zap.Logger) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					logger.Warn("Redis healthcheck failed", zap.Error(err))
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeTracker picks the outbound link wrapper for live renders; nil leaves links untouched
func initializeTracker(cfg config.TrackingConfig, links repository.ShortLinkRepository) renderer.TrackingURLBuilder {
	switch cfg.Mode {
	case config.TrackingModeUTM:
		return services.NewUTMTrackingBuilder(cfg.UTMSource, cfg.UTMMedium)
	case config.TrackingModeShortLink:
		return services.NewShortLinkTrackingBuilder(links, cfg.ShortLinkDomain,
			services.NewUTMTrackingBuilder(cfg.UTMSource, cfg.UTMMedium))
	default:
		return nil
	}
}

// initializeArchive returns nil when archiving is disabled
func initializeArchive(cfg config.ArchiveConfig) (businessflow.ArchiveStorage, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	archiveCfg := services.ArchiveConfig{
		Endpoint:  cfg.Endpoint,
		Region:    cfg.Region,
		Bucket:    cfg.Bucket,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Prefix:    cfg.Prefix,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := services.NewS3Client(ctx, archiveCfg)
	if err != nil {
		return nil, err
	}
	return services.NewS3ArchiveStorage(client, archiveCfg), nil
}

// initializeGenerator returns nil when generation is disabled
func initializeGenerator(cfg config.GenerationConfig) (services.TextGenerator, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	return services.NewTextGenerator(services.TextGeneratorConfig{
		Provider:  cfg.Provider,
		APIKey:    cfg.APIKey,
		Endpoint:  cfg.Endpoint,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
	})
}

// initializeApplication wires repositories, selectors, renderers, flows and handlers
func initializeApplication(cfg *config.ProductionConfig, logger *zap.Logger) (*Application, error) {
	var stopFuncs []func()

	if cfg.Database.RunMigrations {
		if err := migrations.Up(cfg.Database.URL()); err != nil {
			return nil, err
		}
		logger.Info("Database migrations applied")
	}

	db, err := initializeDatabase(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	rc, err := initializeCache(cfg.Cache, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	if rc != nil {
		stopFuncs = append(stopFuncs, startCacheHealthMonitor(context.Background(), rc, 30*time.Second, logger))
		stopFuncs = append(stopFuncs, func() { _ = rc.Close() })
	}

	// Repositories
	tx := repository.NewTransactor(db)
	issueRepo := repository.NewIssueRepository(db)
	selectionRepo := repository.NewIssueModuleSelectionRepository(db)
	adModules := repository.NewAdModuleRepository(db)
	pollModules := repository.NewPollModuleRepository(db)
	promptModules := repository.NewPromptModuleRepository(db)
	feedbackModules := repository.NewFeedbackModuleRepository(db)
	textBoxModules := repository.NewTextBoxModuleRepository(db)
	textBoxContents := repository.NewTextBoxContentRepository(db)
	styleRepo := repository.NewPublicationStyleRepository(db)
	shortLinks := repository.NewShortLinkRepository(db)
	shortLinkClicks := repository.NewShortLinkClickRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Family sources, in composition order
	sources := []businessflow.FamilySource{
		businessflow.NewTextBoxSource(textBoxModules, textBoxContents),
		businessflow.NewPromptSource(promptModules, repository.NewPromptIdeaRepository(db)),
		businessflow.NewPollSource(pollModules, repository.NewPollRepository(db)),
		businessflow.NewAdSource(adModules, repository.NewAdRepository(db)),
		businessflow.NewFeedbackSource(feedbackModules),
	}
	selectionFlows := make([]businessflow.SelectionFlow, 0, len(sources))
	for _, source := range sources {
		selectionFlows = append(selectionFlows, businessflow.NewSelectionFlow(
			source, issueRepo, selectionRepo, tx, nil, logger,
		))
	}

	// Rendering
	defaultStyles := blocks.StyleOptions{
		PrimaryColor:   cfg.Rendering.PrimaryColor,
		SecondaryColor: cfg.Rendering.SecondaryColor,
		HeadingFont:    cfg.Rendering.HeadingFont,
		BodyFont:       cfg.Rendering.BodyFont,
	}
	styles := services.NewStyleProvider(styleRepo, rc, cfg.Cache.RedisPrefix, cfg.Cache.DefaultTTL, defaultStyles, logger)
	renderers := renderer.NewSet(renderer.Options{
		Registry:      blocks.NewRegistry(logger),
		Styles:        styles,
		Tracker:       initializeTracker(cfg.Tracking, shortLinks),
		DefaultStyles: defaultStyles,
		Logger:        logger,
	})

	archive, err := initializeArchive(cfg.Archive)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize archive storage: %w", err)
	}
	generator, err := initializeGenerator(cfg.Generation)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize text generator: %w", err)
	}

	// Business flows
	composition := businessflow.NewIssueCompositionFlow(
		sources, issueRepo, selectionRepo, renderers, cfg.Tracking.ResponseBaseURL, logger,
	)
	sendFlow := businessflow.NewIssueSendFlow(issueRepo, selectionFlows, composition, tx, businessflow.SendFlowOptions{
		Redis:      rc,
		LockPrefix: cfg.Cache.RedisPrefix,
		LockTTL:    cfg.Cache.SendLockTTL,
		Archive:    archive,
		Audit:      auditRepo,
		Styles:     styles,
	}, logger)
	editorFlow := businessflow.NewIssueEditorFlow(issueRepo, selectionFlows, auditRepo, logger)
	textBoxFlow := businessflow.NewTextBoxFlow(issueRepo, textBoxModules, textBoxContents, selectionRepo, generator, auditRepo, logger)
	visitFlow := businessflow.NewShortLinkVisitFlow(shortLinks, shortLinkClicks, tx, logger)
	moduleFlow := businessflow.NewModuleConfigFlow(sources, auditRepo, logger)

	// Handlers
	issueHandler := handlers.NewIssueHandler(editorFlow, composition, sendFlow, textBoxFlow, logger)
	moduleHandler := handlers.NewModuleHandler(moduleFlow, logger)
	shortLinkHandler := handlers.NewShortLinkHandler(visitFlow, logger)

	checks := map[string]router.HealthChecker{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if rc != nil {
		checks["redis"] = func(ctx context.Context) error {
			return rc.Ping(ctx).Err()
		}
	}

	r := router.NewFiberRouter(cfg, router.Handlers{
		Issue:     issueHandler,
		Module:    moduleHandler,
		ShortLink: shortLinkHandler,
	}, checks, logger)

	return &Application{
		router:    r,
		config:    cfg,
		logger:    logger,
		stopFuncs: stopFuncs,
	}, nil
}
