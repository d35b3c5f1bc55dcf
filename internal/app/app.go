package app

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"NewsCourier/internal/config"
	"NewsCourier/internal/infrastructure/line"
	"NewsCourier/internal/infrastructure/scheduler"
	"NewsCourier/internal/infrastructure/source"
	"NewsCourier/internal/infrastructure/storage"
	"NewsCourier/internal/infrastructure/weather"
	"NewsCourier/internal/infrastructure/webhook"
	"NewsCourier/internal/logging"
	"NewsCourier/internal/usecase"
	"NewsCourier/pkg/httpretry"
)

// Application wires config to adapters and use cases. One instance per
// process; each job invocation gets its own crawler so the recency cutoff is
// fixed per run.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	db     *sql.DB

	retry    *httpretry.Client
	list     *source.ListClient
	registry *usecase.CategoryRegistry
	articles *storage.ArticleRepository
	broker   *usecase.Broker
}

// New opens the store and builds the component graph.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Application, error) {
	db, err := storage.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	retry := httpretry.New(
		&http.Client{Timeout: 15 * time.Second},
		logging.Component(logger, "http"),
		httpretry.WithUserAgent(cfg.Source.UserAgent),
	)

	menu := source.NewMenuScraper(cfg.Source.BaseURL+cfg.Source.MenuPath, retry)
	categories := storage.NewCategoryRepository(db)
	registry := usecase.NewCategoryRegistry(menu, categories, logging.Component(logger, "registry"))

	articles := storage.NewArticleRepository(db)
	broker := usecase.NewBroker(usecase.BrokerDeps{
		Subscriptions: storage.NewSubscriptionRepository(db),
		Articles:      articles,
		Users:         storage.NewUserRepository(db),
		Weather:       weather.NewOWMClient(cfg.Weather.BaseURL, cfg.Weather.APIKey),
		Push:          line.NewClient(cfg.Notifications.Line.PushURL, cfg.Notifications.Line.ChannelToken),
		Registry:      registry,
		NewsLimit:     cfg.Notifications.Line.NewsLimit,
		Logger:        logging.Component(logger, "broker"),
	})

	return &Application{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		retry:    retry,
		list:     source.NewListClient(cfg.Source.ListEndpoint, cfg.Source.BaseURL, retry),
		registry: registry,
		articles: articles,
		broker:   broker,
	}, nil
}

// Close releases the store connection.
func (a *Application) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

// Registry exposes the category registry to commands.
func (a *Application) Registry() *usecase.CategoryRegistry {
	return a.registry
}

// Broker exposes the notification broker to commands and the webhook.
func (a *Application) Broker() *usecase.Broker {
	return a.broker
}

// NewCrawler builds a crawler whose cutoff is fixed at call time.
func (a *Application) NewCrawler() *source.Crawler {
	return source.NewCrawler(
		a.list,
		a.retry.Get,
		a.registry,
		logging.Component(a.logger, "crawler"),
		source.WithPageSize(a.cfg.Source.PageSize),
		source.WithWindow(a.cfg.Source.Window()),
		source.WithLocation(a.cfg.Scheduler.Location()),
	)
}

// RunETL executes one crawl+transform+load pass over the categories.
func (a *Application) RunETL(ctx context.Context, categoryKeys []string) usecase.Summary {
	if len(categoryKeys) == 0 {
		categoryKeys = a.cfg.ETL.Categories
	}

	etl := usecase.NewETL(
		a.NewCrawler(),
		a.articles,
		a.cfg.ETL.BatchSize,
		logging.Component(a.logger, "etl"),
	)
	return etl.Run(ctx, categoryKeys)
}

// RunNotifications executes the selected fan-out passes.
func (a *Application) RunNotifications(ctx context.Context, sendWeather, sendNews bool) error {
	if sendWeather {
		if err := a.broker.SendWeatherNotifications(ctx); err != nil {
			return err
		}
	}
	if sendNews {
		if err := a.broker.SendNewsNotifications(ctx); err != nil {
			return err
		}
	}
	return nil
}

// RunScheduler registers the crawl and notify jobs and blocks until the
// process receives an interrupt.
func (a *Application) RunScheduler(ctx context.Context) error {
	cronSched := scheduler.NewCronScheduler(a.cfg.Scheduler.Location(), logging.Component(a.logger, "scheduler"))

	err := cronSched.AddJob("crawl", a.cfg.Scheduler.CrawlCron, func(jobCtx context.Context) {
		a.RunETL(jobCtx, nil)
	})
	if err != nil {
		return err
	}

	err = cronSched.AddJob("notify", a.cfg.Scheduler.NotifyCron, func(jobCtx context.Context) {
		if err := a.RunNotifications(jobCtx, a.cfg.Weather.APIKey != "", true); err != nil {
			a.logger.Error("notification job failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	cronSched.Start()
	a.logger.Info("scheduler started",
		"crawl", a.cfg.Scheduler.CrawlCron, "notify", a.cfg.Scheduler.NotifyCron)

	waitForSignal(ctx)

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return cronSched.Stop(stopCtx)
}

// RunWebhook serves the LINE event listener until interrupted.
func (a *Application) RunWebhook(ctx context.Context) error {
	register := func(regCtx context.Context, lineUserID string) (string, error) {
		user, err := a.broker.HandleRegistration(regCtx, lineUserID)
		if err != nil {
			return "", err
		}
		return user.DisplayName, nil
	}

	server := webhook.NewServer(
		register,
		line.NewClient(a.cfg.Notifications.Line.PushURL, a.cfg.Notifications.Line.ChannelToken),
		a.cfg.Notifications.Line.ChannelSecret,
		logging.Component(a.logger, "webhook"),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(a.cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-signalChan(ctx):
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(stopCtx)
}

func waitForSignal(ctx context.Context) {
	<-signalChan(ctx)
}

// signalChan closes on SIGINT/SIGTERM or parent-context cancellation.
func signalChan(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sig)
		select {
		case <-sig:
		case <-ctx.Done():
		}
		close(done)
	}()
	return done
}
