package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/joseph-ayodele/statement-insights/constants"
	"github.com/joseph-ayodele/statement-insights/internal/common"
	"github.com/joseph-ayodele/statement-insights/internal/llm"
	"github.com/joseph-ayodele/statement-insights/internal/llm/command"
	"github.com/joseph-ayodele/statement-insights/internal/llm/gemini"
	"github.com/joseph-ayodele/statement-insights/internal/metrics"
	"github.com/joseph-ayodele/statement-insights/internal/pipeline"
	repo "github.com/joseph-ayodele/statement-insights/internal/repository"
	"github.com/joseph-ayodele/statement-insights/internal/storage"
	"github.com/joseph-ayodele/statement-insights/internal/workspace"
)

// App is the wired pipeline shared by the CLI and the daemon.
type App struct {
	Config     *common.Config
	Logger     *slog.Logger
	DB         *repo.DB
	Jobs       repo.JobRepository
	Workspaces *workspace.Manager
	Registry   *prometheus.Registry
	Metrics    *metrics.Pipeline
	Gemini     *gemini.Client // nil unless MODEL_PROVIDER=gemini
	Processor  *pipeline.Processor
}

func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger}

	db, err := repo.Open(ctx, repo.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open job ledger: %w", err)
	}
	a.DB = db
	if err := repo.HealthCheck(ctx, db, 5*time.Second, logger); err != nil {
		a.Close()
		return nil, err
	}
	if err := repo.Migrate(ctx, db); err != nil {
		a.Close()
		return nil, fmt.Errorf("migrate job ledger: %w", err)
	}
	a.Jobs = repo.NewJobRepository(db, logger)

	a.Workspaces, err = workspace.NewManager(cfg.Pipeline.WorkDir, cfg.Pipeline.ArtifactDir, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metrics.NewPipeline(a.Registry)

	adapters, gc, err := BuildAdapters(cfg.Model, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Gemini = gc

	opts := []pipeline.Option{
		pipeline.WithJobRepository(a.Jobs),
		pipeline.WithMetrics(a.Metrics),
		pipeline.WithModelTimeout(cfg.Pipeline.ModelTimeout),
		pipeline.WithMaxUploadSize(cfg.Pipeline.MaxUploadSize),
		pipeline.WithKeepWorkspace(cfg.Pipeline.KeepWorkspace),
	}
	if cfg.Storage.S3Bucket != "" {
		mirror, err := storage.NewS3Mirror(ctx, storage.S3Config{
			Bucket:    cfg.Storage.S3Bucket,
			Prefix:    cfg.Storage.S3Prefix,
			Region:    cfg.Storage.S3Region,
			Endpoint:  cfg.Storage.S3Endpoint,
			AccessKey: cfg.Storage.S3AccessKey,
			SecretKey: cfg.Storage.S3SecretKey,
		}, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		opts = append(opts, pipeline.WithArtifactMirror(mirror))
	}
	a.Processor = pipeline.NewProcessor(logger, a.Workspaces, adapters, llm.NewDecoder(logger), opts...)
	logger.Info("app.ready",
		"provider", cfg.Model.Provider,
		"db_driver", cfg.Database.Driver,
		"work_dir", cfg.Pipeline.WorkDir,
		"artifact_dir", cfg.Pipeline.ArtifactDir,
		"s3_mirror", cfg.Storage.S3Bucket != "",
	)
	return a, nil
}

// BuildAdapters returns one adapter per document type for the configured provider.
// The Gemini client is returned as well so callers can reach ExtractTransactions.
func BuildAdapters(cfg common.ModelConfig, logger *slog.Logger) (map[constants.DocumentType]llm.Adapter, *gemini.Client, error) {
	var (
		adapter llm.Adapter
		gc      *gemini.Client
	)
	switch cfg.Provider {
	case "gemini":
		gc = gemini.NewClient(gemini.Config{
			APIKey:          cfg.APIKey,
			BaseURL:         cfg.BaseURL,
			Model:           cfg.Model,
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxOutputTokens,
			Timeout:         cfg.HTTPTimeout,
		}, logger)
		adapter = gc
	case "command":
		ca, err := command.New(cfg.Command, command.ExecRunner(), logger)
		if err != nil {
			return nil, nil, err
		}
		adapter = ca
	default:
		return nil, nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unknown model provider %q", cfg.Provider), common.ErrInvalidInput)
	}
	return map[constants.DocumentType]llm.Adapter{
		constants.Statement:      adapter,
		constants.DrivingLicense: adapter,
		constants.Passport:       adapter,
	}, gc, nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close(a.Logger)
		a.DB = nil
	}
}
