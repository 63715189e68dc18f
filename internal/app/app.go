package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"LeadScout/internal/config"
	"LeadScout/internal/domain"
	"LeadScout/internal/infrastructure/embedding"
	"LeadScout/internal/infrastructure/llm"
	"LeadScout/internal/infrastructure/ml"
	"LeadScout/internal/infrastructure/parser"
	"LeadScout/internal/infrastructure/scheduler"
	"LeadScout/internal/infrastructure/storage"
	"LeadScout/internal/infrastructure/telegram"
	"LeadScout/internal/infrastructure/vector"
	"LeadScout/internal/infrastructure/webhook"
	"LeadScout/internal/logging"
	"LeadScout/internal/metrics"
	"LeadScout/internal/ports"
	"LeadScout/internal/scanner"
	"LeadScout/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	log      *slog.Logger
	registry *prometheus.Registry
	store    ports.LeadStore
	sessions map[string]*usecase.Session
	closers  []func(context.Context) error
}

// ScanOptions selects what a one-off scan covers. Empty fields mean "everything configured".
type ScanOptions struct {
	Target      string
	Companies   []string
	Lookback    domain.Lookback
	AutoApprove bool
}

// TargetRun is the result of scanning one target.
type TargetRun struct {
	Target   string
	Report   usecase.ScanReport
	Results  []usecase.Result
	Pending  []domain.Lead
	ScanErr  error
	Approved int
}

// New connects every backing service and builds one review session per target.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	a := &Application{
		cfg:      cfg,
		log:      baseLogger,
		registry: prometheus.NewRegistry(),
		sessions: make(map[string]*usecase.Session, len(cfg.Targets)),
	}

	if err := a.wire(ctx); err != nil {
		_ = a.Close(context.WithoutCancel(ctx))
		return nil, err
	}
	return a, nil
}

func (a *Application) wire(ctx context.Context) error {
	cfg := a.cfg
	rec := metrics.New(a.registry)

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	a.store = store

	index, err := a.openIndex(ctx)
	if err != nil {
		return err
	}

	embedder, err := newEmbedder(cfg.Embedding)
	if err != nil {
		return err
	}

	sender, err := newSender(cfg.Notifications)
	if err != nil {
		a.log.Warn("notifications disabled", "error", err)
	}

	gen := llm.NewChatGPTClient(cfg.ChatGPT)

	retry := parser.RetryPolicy{MaxRetries: cfg.Pipeline.FetchRetries, Delay: cfg.Pipeline.FetchRetryDelay}
	registry := scanner.NewRegistry(
		parser.NewGoogleNewsScanner(nil, retry),
		parser.NewHTMLScanner(nil, retry),
	)
	source := parser.NewStrategySource(registry, cfg.Sources, cfg.Pipeline.MaxEntriesPerCompany,
		a.log.With("component", "source"))

	thresholds := usecase.Thresholds{
		Ingest:          cfg.Pipeline.IngestRelevanceThreshold,
		Commit:          cfg.Pipeline.CommitRelevanceThreshold,
		RejectNoneValue: cfg.Pipeline.RejectNoneValue,
	}
	dimension := cfg.Embedding.Dimension

	for _, tc := range cfg.Targets {
		target := toTarget(tc)
		log := a.log.With("target", target.Key)

		pipeline := usecase.NewPipeline(usecase.PipelineDeps{
			Target:      target,
			Normalizer:  usecase.NewNormalizer(gen, cfg.Pipeline.SummaryMaxChars, log.With("component", "normalizer")),
			Relevance:   usecase.NewRelevanceEvaluator(gen, target, log.With("component", "relevance")),
			Value:       usecase.NewValueEvaluator(gen, target, log.With("component", "value")),
			Detector:    usecase.NewDetector(store, index, embedder, cfg.Pipeline.SimilarityThreshold, dimension, log.With("component", "detector")),
			Coordinator: usecase.NewCoordinator(store, index, embedder, dimension, rec, log.With("component", "commit")),
			Notifier:    usecase.NewNotifier(gen, sender, rec, log.With("component", "notifier")),
			Thresholds:  thresholds,
			Metrics:     rec,
			Logger:      log.With("component", "pipeline"),
		})

		a.sessions[strings.ToLower(target.Key)] = usecase.NewSession(usecase.SessionDeps{
			Pipeline:      pipeline,
			Source:        source,
			Store:         store,
			ItemDelay:     cfg.Pipeline.ItemDelay,
			MaxConcurrent: cfg.Pipeline.MaxConcurrentCompanies,
			Logger:        log.With("component", "session"),
		})
	}
	return nil
}

func (a *Application) openStore(ctx context.Context) (ports.LeadStore, error) {
	dsc := a.cfg.DocumentStore

	switch dsc.Driver {
	case config.DriverPostgres:
		db, err := sql.Open("postgres", dsc.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })

		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		repo := storage.NewPostgresRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return repo, nil

	default:
		client, err := storage.ConnectMongo(ctx, dsc.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Disconnect)

		repo := storage.NewMongoRepository(client.Database(dsc.Database).Collection(dsc.Collection))
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	}
}

func (a *Application) openIndex(ctx context.Context) (*vector.QdrantIndex, error) {
	client, err := vector.NewQdrantClient(a.cfg.VectorIndex)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })

	index := vector.NewQdrantIndex(client, a.cfg.VectorIndex.Collection, a.cfg.Embedding.Dimension)
	if err := index.EnsureCollection(ctx); err != nil {
		return nil, err
	}
	return index, nil
}

func newEmbedder(cfg config.EmbeddingConfig) (ports.Embedder, error) {
	var inner ports.Embedder
	switch cfg.Provider {
	case config.EmbeddingHTTP:
		inner = ml.NewClient(cfg.Endpoint, cfg.APIKey, cfg.Timeout)
	default:
		client, err := embedding.NewOpenAI(cfg)
		if err != nil {
			return nil, err
		}
		inner = client
	}
	return embedding.NewCached(inner, cfg.Dimension, cfg.CacheSize)
}

func newSender(cfg config.NotificationConfig) (ports.Sender, error) {
	switch cfg.Channel {
	case config.ChannelTelegram:
		if cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == "" {
			return nil, errors.New("telegram bot token and chat id are required")
		}
		return telegram.NewSender(cfg.Telegram.BotToken, cfg.Telegram.ChatID), nil
	default:
		if cfg.Webhook.URL == "" {
			return nil, errors.New("webhook url is not configured")
		}
		return webhook.NewSender(cfg.Webhook.URL, cfg.Webhook.Timeout), nil
	}
}

func toTarget(tc config.TargetConfig) domain.Target {
	return domain.Target{
		Key:         tc.Key,
		Name:        tc.Name,
		Description: tc.Description,
		Companies:   append([]string(nil), tc.Companies...),
	}
}

// Scan runs the first pass for the selected targets and, with AutoApprove, the final pass for everything queued.
func (a *Application) Scan(ctx context.Context, opts ScanOptions) ([]TargetRun, error) {
	targets, err := a.selectTargets(opts.Target)
	if err != nil {
		return nil, err
	}

	runs := make([]TargetRun, 0, len(targets))
	for _, tc := range targets {
		companies, err := selectCompanies(tc, opts.Companies)
		if err != nil {
			return runs, err
		}

		session := a.sessions[strings.ToLower(tc.Key)]
		run := TargetRun{Target: tc.Key}
		run.Report, run.ScanErr = session.Scan(ctx, companies, opts.Lookback)
		if run.ScanErr != nil && ctx.Err() != nil {
			return append(runs, run), ctx.Err()
		}

		if opts.AutoApprove {
			run.Results, err = session.ApproveAll(ctx)
			if err != nil {
				return append(runs, run), err
			}
			for _, res := range run.Results {
				if res.Outcome == domain.OutcomeCommitted {
					run.Approved++
				}
			}
		}
		run.Pending = session.Pending()
		runs = append(runs, run)
	}
	return runs, nil
}

func (a *Application) selectTargets(key string) ([]config.TargetConfig, error) {
	if key == "" {
		return a.cfg.Targets, nil
	}
	tc, ok := a.cfg.Target(key)
	if !ok {
		return nil, fmt.Errorf("unknown target %q", key)
	}
	return []config.TargetConfig{tc}, nil
}

func selectCompanies(tc config.TargetConfig, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return tc.Companies, nil
	}

	target := toTarget(tc)
	for _, company := range requested {
		if !target.Tracks(company) {
			return nil, fmt.Errorf("%w: %s is not tracked by %s", domain.ErrUnknownCompany, company, tc.Key)
		}
	}
	return requested, nil
}

// Serve runs scheduled scans with auto-approval for every target until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	lookback, err := domain.ParseLookback(a.cfg.Pipeline.DefaultLookback)
	if err != nil {
		return fmt.Errorf("pipeline.defaultLookback: %w", err)
	}

	driver := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location(),
		a.log.With("component", "cron"))
	sched := usecase.NewScheduler(driver, func(ctx context.Context, trigger time.Time) error {
		runs, err := a.Scan(ctx, ScanOptions{Lookback: lookback, AutoApprove: true})
		for _, run := range runs {
			a.log.Info("target run", "target", run.Target, "queued", run.Report.Queued,
				"committed", run.Approved, "pending", len(run.Pending))
		}
		return err
	}, a.log.With("component", "scheduler"))

	var srv *http.Server
	if listen := a.cfg.Metrics.Listen; listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(a.registry))
		srv = &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		go func() {
			a.log.Info("metrics endpoint listening", "addr", listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error("metrics endpoint stopped", "error", err)
			}
		}()
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.log.Info("scheduler started", "cron", a.cfg.Scheduler.CronExpression, "timezone", a.cfg.Scheduler.Location().String())

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	var errs []error
	if err := sched.Stop(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("stop scheduler: %w", err))
	}
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("stop metrics endpoint: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Recent returns the most recently committed leads.
func (a *Application) Recent(ctx context.Context, limit int) ([]domain.Lead, error) {
	if limit <= 0 {
		limit = 10
	}
	return a.store.FindRecent(ctx, limit)
}

// Close releases every connection opened by New, in reverse order.
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
