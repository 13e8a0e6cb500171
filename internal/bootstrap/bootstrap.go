package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/mood-builder/internal/config"
	"github.com/kirillkom/mood-builder/internal/core/domain"
	"github.com/kirillkom/mood-builder/internal/core/ports"
	"github.com/kirillkom/mood-builder/internal/core/usecase"
	"github.com/kirillkom/mood-builder/internal/infrastructure/auth"
	"github.com/kirillkom/mood-builder/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/mood-builder/internal/infrastructure/extractor/pdfinfo"
	"github.com/kirillkom/mood-builder/internal/infrastructure/llm/solar"
	"github.com/kirillkom/mood-builder/internal/infrastructure/ocr/upstage"
	"github.com/kirillkom/mood-builder/internal/infrastructure/queue/nats"
	"github.com/kirillkom/mood-builder/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/mood-builder/internal/infrastructure/resilience"
	"github.com/kirillkom/mood-builder/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/mood-builder/internal/observability/metrics"
)

type Options struct {
	// Service labels pipeline metrics; it is usually "api", "worker" or "cli".
	Service string
	// Registerer receives pipeline metrics. Nil disables them.
	Registerer prometheus.Registerer
	Logger     *slog.Logger
}

type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Principal domain.Principal

	Bus          *nats.Bus
	DocumentRepo ports.DocumentRepository
	Storage      *localfs.Storage

	Documents *usecase.IngestDocumentUseCase
	Watcher   *usecase.StatusWatcher
	Journal   *usecase.JournalUseCase
	Insights  *usecase.InsightsUseCase
	Auth      *auth.Service

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, options Options) (*App, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	location, err := time.LoadLocation(cfg.InsightsTimezone)
	if err != nil {
		return nil, fmt.Errorf("load insights timezone: %w", err)
	}
	vocabulary := domain.DefaultVocabulary()
	if cfg.VocabularyPath != "" {
		vocabulary, err = domain.LoadVocabulary(cfg.VocabularyPath)
		if err != nil {
			return nil, fmt.Errorf("load vocabulary: %w", err)
		}
	}

	db, err := openMigrated(ctx, cfg)
	if err != nil {
		return nil, err
	}
	documentRepo := postgres.NewDocumentRepository(db)
	entryRepo := postgres.NewEntryRepository(db)
	taxonomyRepo := postgres.NewTaxonomyRepository(db)
	userRepo := postgres.NewUserRepository(db)

	storage, err := localfs.New(cfg.StoragePath, cfg.PublicBaseURL)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(ResilienceConfig(cfg)).WithLogger(logger)
	providerTimeout := time.Duration(cfg.ProviderTimeoutSeconds) * time.Second
	ocr := upstage.New(upstage.Config{
		BaseURL: cfg.UpstageBaseURL,
		APIKey:  cfg.UpstageAPIKey,
		Model:   cfg.UpstageOCRModel,
		Timeout: providerTimeout,
	}, executor)
	analyzerClient := solar.New(solar.Config{
		BaseURL:          cfg.UpstageBaseURL,
		APIKey:           cfg.UpstageAPIKey,
		Model:            cfg.SolarModel,
		Timeout:          providerTimeout,
		StructuredOutput: cfg.SolarStructuredOutput,
		Vocabulary:       vocabulary,
	}, executor)

	var observer ports.PipelineObserver
	if options.Registerer != nil {
		observer = metrics.NewPipelineMetrics(options.Registerer, options.Service)
	}

	ingestOptions := usecase.IngestOptions{
		PageCounter: pdfinfo.NewCounter(),
		Observer:    observer,
		Logger:      logger,
	}
	var (
		bus      *nats.Bus
		notifier ports.StatusNotifier
	)
	if cfg.AsyncIngestEnabled() {
		bus, err = nats.New(cfg.NATSURL, nats.Options{
			IngestSubject:       cfg.NATSSubject,
			StatusSubjectPrefix: cfg.NATSStatusSubjectPrefix,
			ConnectTimeout:      time.Duration(cfg.NATSConnectTimeoutMS) * time.Millisecond,
			ReconnectWait:       time.Duration(cfg.NATSReconnectWaitMS) * time.Millisecond,
			MaxReconnects:       cfg.NATSMaxReconnects,
			ResilienceExecutor:  executor,
			Logger:              logger,
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init message bus: %w", err)
		}
		ingestOptions.Queue = bus
		ingestOptions.Notifier = bus
		notifier = bus
	}

	principal := Principal(cfg)
	var authService *auth.Service
	if cfg.AuthEnabled() {
		authService = auth.New(auth.Config{
			Secret:       cfg.AuthJWTSecret,
			TokenTTL:     time.Duration(cfg.AuthTokenTTLHours) * time.Hour,
			PasswordHash: cfg.AuthPasswordHash,
			Principal:    principal,
		})
	}

	analyzer := usecase.NewAnalyzeMoodUseCase(analyzerClient, observer, logger)
	saver := usecase.NewSaveEntryUseCase(userRepo, entryRepo, taxonomyRepo, observer, logger)

	app := &App{
		Config:       cfg,
		Logger:       logger,
		Principal:    principal,
		Bus:          bus,
		DocumentRepo: documentRepo,
		Storage:      storage,
		Documents:    usecase.NewIngestDocumentUseCase(documentRepo, storage, ocr, ingestOptions),
		Watcher:      usecase.NewStatusWatcher(documentRepo, notifier, time.Duration(cfg.WatchPollIntervalMS)*time.Millisecond, logger),
		Journal:      usecase.NewJournalUseCase(analyzer, saver, documentRepo, entryRepo, taxonomyRepo),
		Insights:     usecase.NewInsightsUseCase(entryRepo, taxonomyRepo, xlsx.New(), location),
		Auth:         authService,
		closeFn: func() {
			if bus != nil {
				bus.Close()
			}
			_ = db.Close()
		},
	}
	return app, nil
}

// Migrate opens the database and applies the schema without building the app.
func Migrate(ctx context.Context, cfg config.Config) error {
	db, err := openMigrated(ctx, cfg)
	if err != nil {
		return err
	}
	return db.Close()
}

// ResilienceConfig translates retry and breaker settings for provider calls.
func ResilienceConfig(cfg config.Config) resilience.Config {
	return resilience.Config{
		Retry: resilience.RetryPolicy{
			MaxAttempts:    cfg.RetryMaxAttempts,
			InitialBackoff: time.Duration(cfg.RetryInitialBackoffMS) * time.Millisecond,
			MaxBackoff:     time.Duration(cfg.RetryMaxBackoffMS) * time.Millisecond,
			Multiplier:     cfg.RetryMultiplier,
		},
		Breaker: resilience.BreakerPolicy{
			Enabled:          cfg.BreakerEnabled,
			MinRequests:      uint32(max(cfg.BreakerMinRequests, 0)),
			FailureRatio:     cfg.BreakerFailureRatio,
			OpenTimeout:      time.Duration(cfg.BreakerOpenTimeoutMS) * time.Millisecond,
			HalfOpenMaxCalls: uint32(max(cfg.BreakerHalfOpenMaxCalls, 0)),
		},
	}
}

// Principal is the journal owner every request acts as when auth is disabled,
// and the only account that can log in when it is enabled.
func Principal(cfg config.Config) domain.Principal {
	if cfg.DemoUserID == "" {
		return domain.DemoPrincipal()
	}
	return domain.Principal{UserID: cfg.DemoUserID, Email: cfg.DemoUserEmail, FullName: cfg.DemoUserName}
}

func openMigrated(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
