// Package app is the composition root: it builds every long-lived service
// from a config.Config and hands out the pieces the commands need.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/JakeFAU/webapi-explorer/internal/api"
	"github.com/JakeFAU/webapi-explorer/internal/clock/system"
	"github.com/JakeFAU/webapi-explorer/internal/config"
	"github.com/JakeFAU/webapi-explorer/internal/dispatcher"
	"github.com/JakeFAU/webapi-explorer/internal/explorer"
	collyfetcher "github.com/JakeFAU/webapi-explorer/internal/fetcher/colly"
	"github.com/JakeFAU/webapi-explorer/internal/id/uuid"
	"github.com/JakeFAU/webapi-explorer/internal/metrics"
	"github.com/JakeFAU/webapi-explorer/internal/policy/ratelimit"
	"github.com/JakeFAU/webapi-explorer/internal/progress"
	"github.com/JakeFAU/webapi-explorer/internal/progress/sinks"
	queueMemory "github.com/JakeFAU/webapi-explorer/internal/queue/memory"
	"github.com/JakeFAU/webapi-explorer/internal/randsrc"
	"github.com/JakeFAU/webapi-explorer/internal/resolver"
	"github.com/JakeFAU/webapi-explorer/internal/scrape"
	"github.com/JakeFAU/webapi-explorer/internal/source"
	"github.com/JakeFAU/webapi-explorer/internal/source/bugtracker"
	"github.com/JakeFAU/webapi-explorer/internal/source/github"
	"github.com/JakeFAU/webapi-explorer/internal/source/mdn"
	storeMemory "github.com/JakeFAU/webapi-explorer/internal/storage/memory"
	"github.com/JakeFAU/webapi-explorer/internal/worker"
)

// App holds the shared, long-lived services for the application.
type App struct {
	cfg        config.Config
	logger     *zap.Logger
	hub        *progress.Hub
	explorer   *explorer.Explorer
	queue      *queueMemory.Queue
	dispatcher *dispatcher.Dispatcher
	server     *api.Server
}

// Option customizes New.
type Option func(*options)

type options struct {
	httpClient *http.Client
	registerer prometheus.Registerer
	sinks      []progress.Sink
}

// WithHTTPClient sets the client used by the structured API sources.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

// WithRegisterer registers progress collectors somewhere other than the
// default Prometheus registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithSinks adds progress sinks next to the configured ones.
func WithSinks(extra ...progress.Sink) Option {
	return func(o *options) { o.sinks = append(o.sinks, extra...) }
}

// New wires all services described by cfg. It fails fast on any service that
// cannot be built.
func New(cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := options{registerer: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(&o)
	}
	metrics.Init()

	hub, err := buildHub(cfg, logger, o)
	if err != nil {
		return nil, err
	}
	var emitter progress.Emitter = progress.NopEmitter{}
	if hub != nil {
		emitter = hub
	}

	clock := system.New()
	resolvers := buildResolvers(cfg, clock, logger, o.httpClient)
	exp := explorer.New(resolvers,
		explorer.WithEmitter(emitter),
		explorer.WithClock(clock),
		explorer.WithLogger(logger),
		explorer.WithConfig(explorer.Config{StepDelay: cfg.StepDelay()}),
	)

	runStore := storeMemory.NewRunStore(clock)
	queue := queueMemory.NewQueue(cfg.Runs.QueueDepth)
	registry := worker.NewRegistry()
	workers := make([]*worker.Worker, 0, cfg.Runs.Concurrency)
	for i := 0; i < cfg.Runs.Concurrency; i++ {
		workers = append(workers, worker.New(queue, runStore, exp, registry, clock,
			logger.Named("worker").With(zap.Int("worker", i))))
	}
	dispatch := dispatcher.New(queue, workers, registry)
	server := api.NewServer(exp, runStore, dispatch, uuid.New(), clock, cfg, logger)

	logger.Info("application services initialized",
		zap.Bool("use_scraping", cfg.Fallback.UseScraping),
		zap.Bool("progress", hub != nil),
		zap.Int("workers", len(workers)),
	)
	return &App{
		cfg:        cfg,
		logger:     logger,
		hub:        hub,
		explorer:   exp,
		queue:      queue,
		dispatcher: dispatch,
		server:     server,
	}, nil
}

func buildHub(cfg config.Config, logger *zap.Logger, o options) (*progress.Hub, error) {
	if !cfg.Progress.Enabled {
		return nil, nil
	}
	promSink, err := sinks.NewPrometheusSink(o.registerer)
	if err != nil {
		return nil, fmt.Errorf("init progress metrics sink: %w", err)
	}
	all := []progress.Sink{promSink}
	if cfg.Progress.LogEvents {
		all = append(all, sinks.NewLogSink(logger.Named("progress")))
	}
	all = append(all, o.sinks...)
	return progress.NewHub(progress.Config{Logger: logger.Named("progress")}, all...), nil
}

func buildResolvers(cfg config.Config, clock explorer.Clock, logger *zap.Logger, httpClient *http.Client) *resolver.Set {
	var waiter source.Waiter
	if cfg.GitHub.RequestsPerSecond > 0 {
		waiter = ratelimit.New(ratelimit.Config{RPS: cfg.GitHub.RequestsPerSecond, Burst: cfg.GitHub.Burst})
	}
	docs := mdn.New(mdn.Config{
		BaseURL: cfg.MDN.BaseURL,
		SiteURL: cfg.MDN.SiteURL,
		Timeout: cfg.MDNTimeout(),
	}, httpClient, logger)
	gh := github.New(github.Config{
		BaseURL: cfg.GitHub.BaseURL,
		Token:   cfg.GitHub.Token,
		Timeout: cfg.GitHubTimeout(),
	}, httpClient, waiter, logger)
	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:     cfg.Scraping.UserAgent,
		RespectRobots: cfg.Scraping.RespectRobots,
		Timeout:       cfg.ScrapeTimeout(),
	}, logger)
	scraper := scrape.New(fetcher, scrape.Config{
		DocSiteURL:    cfg.MDN.SiteURL,
		GitHubSiteURL: cfg.GitHub.SiteURL,
		IssueRepo:     cfg.GitHub.IssueRepo,
		ExplainerOrg:  cfg.GitHub.ExplainerOrg,
		MaxResults:    cfg.GitHub.MaxResults,
		Timeout:       cfg.ScrapeTimeout(),
	}, clock, logger)

	return resolver.New(resolver.Deps{
		Docs:    docs,
		Issues:  gh,
		Repos:   gh,
		Scraper: scraper,
		Bugs:    bugtracker.Stub{},
		Rand:    randsrc.New(cfg.Explorer.Seed),
	}, resolver.Config{
		Locale:        cfg.MDN.Locale,
		Category:      cfg.MDN.Category,
		DocSiteURL:    cfg.MDN.SiteURL,
		GitHubSiteURL: cfg.GitHub.SiteURL,
		ExplainerOrg:  cfg.GitHub.ExplainerOrg,
		IssueRepo:     cfg.GitHub.IssueRepo,
		MaxResults:    cfg.GitHub.MaxResults,
		UseScraping:   cfg.Fallback.UseScraping,
	}, logger)
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Explorer returns the exploration orchestrator.
func (a *App) Explorer() *explorer.Explorer {
	return a.explorer
}

// Handler returns the HTTP API.
func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

// RunWorkers runs the asynchronous worker pool until ctx ends.
func (a *App) RunWorkers(ctx context.Context) {
	a.dispatcher.Run(ctx)
}

// Close stops accepting runs and flushes progress sinks.
func (a *App) Close(ctx context.Context) error {
	a.logger.Info("shutting down application services")
	a.queue.Close()
	var errs []error
	if a.hub != nil {
		if err := a.hub.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close progress hub: %w", err))
		}
	}
	return errors.Join(errs...)
}
