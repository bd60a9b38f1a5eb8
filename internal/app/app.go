package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"ParcelScanner/internal/config"
	"ParcelScanner/internal/domain"
	"ParcelScanner/internal/infrastructure/remote"
	"ParcelScanner/internal/infrastructure/storage"
	"ParcelScanner/internal/jurisdiction"
	"ParcelScanner/internal/logging"
	"ParcelScanner/internal/ports"
	"ParcelScanner/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	closers  []io.Closer
}

// New validates every jurisdiction config and builds a runnable application.
// Configuration errors fail fast here; no partial processing starts.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	configs := make([]jurisdiction.Config, 0, len(cfg.Jurisdictions))
	for _, jc := range cfg.Jurisdictions {
		validated, err := jurisdiction.FromConfig(jc)
		if err != nil {
			return nil, fmt.Errorf("load jurisdiction configs: %w", err)
		}
		configs = append(configs, validated)
	}
	resolver := jurisdiction.NewResolver(configs)

	states, err := storage.OpenStateStore(cfg.State.Path)
	if err != nil {
		return nil, err
	}

	app := &Application{cfg: cfg, closers: []io.Closer{states}}

	var leads ports.LeadRepository
	if cfg.Database.DSN != "" {
		db, err := storage.OpenPostgres(cfg.Database.DSN)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.closers = append(app.closers, db)
		leads = storage.NewPostgresLeadRepository(db)
	} else {
		baseLogger.Warn("no database dsn configured, leads will not be persisted")
		leads = storage.NewPostgresLeadRepository(nil)
	}

	lookup := remote.NewClient(
		&http.Client{Timeout: time.Duration(cfg.Remote.TimeoutSeconds) * time.Second},
		rate.NewLimiter(rate.Limit(cfg.Remote.CallsPerSecond), 1),
		remote.RetryPolicy{
			MaxAttempts: cfg.Remote.MaxAttempts,
			BaseDelay:   time.Duration(cfg.Remote.BaseDelayMillis) * time.Millisecond,
			MaxDelay:    time.Duration(cfg.Remote.MaxDelayMillis) * time.Millisecond,
		},
		remote.DefaultRegistry(),
		baseLogger.With("component", "remote"),
	)

	app.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Resolver: resolver,
		Lookup:   lookup,
		Leads:    leads,
		States:   states,
		Logger:   baseLogger.With("component", "pipeline"),
	})
	return app, nil
}

// ProcessExtract runs the extract-ingestion path for one jurisdiction.
func (a *Application) ProcessExtract(ctx context.Context, jurisdictionID, path string) (domain.RunSummary, error) {
	return a.pipeline.ProcessExtract(ctx, jurisdictionID, path)
}

// EnrichPermits runs the permit cross-reference path.
func (a *Application) EnrichPermits(ctx context.Context, permits []domain.Permit) (domain.RunSummary, error) {
	return a.pipeline.EnrichPermits(ctx, permits)
}

// Close releases every held resource.
func (a *Application) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
}
