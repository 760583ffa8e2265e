package container

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"animal-watch-bot/config"
	app "animal-watch-bot/internal/application"
	"animal-watch-bot/internal/domain/port"
	"animal-watch-bot/internal/infrastructure/catalog"
	"animal-watch-bot/internal/infrastructure/logging"
	"animal-watch-bot/internal/infrastructure/storage"
	"animal-watch-bot/internal/infrastructure/stream"
	"animal-watch-bot/internal/infrastructure/vision"
)

type Container struct {
	Catalog  *catalog.Catalog
	Registry *app.StreamRegistry
	Monitors *app.MonitorService
	Watch    *app.WatchService
	Alerts   port.AlertRepository

	closers []func()
}

// New собирает сервисы приложения. Redis и Postgres подключаются, только если заданы в конфиге.
func New(ctx context.Context, cfg *config.Config, notifier port.Notifier, log zerolog.Logger) (*Container, error) {
	c := &Container{}
	ok := false
	defer func() {
		if !ok {
			c.Close()
		}
	}()

	cat, err := catalog.Load(cfg.AnimalsFile)
	if err != nil {
		return nil, err
	}
	c.Catalog = cat

	subs, limiter, err := c.subscriptions(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	if c.Alerts, err = c.alerts(ctx, cfg, log); err != nil {
		return nil, err
	}

	detector, err := c.detector(cfg)
	if err != nil {
		return nil, err
	}

	highlighter, err := vision.NewFrameHighlighter(cfg.ColorExpected, cfg.ColorUnexpected)
	if err != nil {
		return nil, err
	}

	opener, err := newOpener(cfg, log)
	if err != nil {
		return nil, err
	}

	c.Registry = app.NewStreamRegistry(cat, opener, logging.Component(log, "registry"))
	c.Monitors = app.NewMonitorService(cat, detector, highlighter, notifier, subs, c.Alerts,
		app.MonitorConfig{
			Interval:    cfg.MonitorInterval,
			ReadTimeout: cfg.MonitorReadTimeout,
			MaxFailures: cfg.MonitorMaxFailures,
		},
		logging.Component(log, "monitor"))
	c.Watch = app.NewWatchService(cat, subs, c.Registry, c.Monitors, detector, highlighter, limiter,
		logging.Component(log, "watch"))

	ok = true
	return c, nil
}

func (c *Container) subscriptions(ctx context.Context, cfg *config.Config, log zerolog.Logger) (port.SubscriptionRepository, port.RateLimiter, error) {
	if cfg.RedisAddr == "" {
		log.Info().Msg("subscriptions: in-memory store, /now is not rate limited")
		return storage.NewMemorySubscriptionRepository(), nil, nil
	}

	cli, err := storage.NewRedisClient(ctx, storage.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, nil, err
	}
	c.closers = append(c.closers, func() { _ = cli.Close() })
	log.Info().Str("addr", cfg.RedisAddr).Msg("subscriptions: redis store")

	var limiter port.RateLimiter
	if cfg.NowRateLimit > 0 {
		limiter = storage.NewRedisRateLimiter(cli, cfg.NowRateLimit, cfg.NowRateWindow)
	}
	return storage.NewRedisSubscriptionRepository(cli), limiter, nil
}

func (c *Container) alerts(ctx context.Context, cfg *config.Config, log zerolog.Logger) (port.AlertRepository, error) {
	if cfg.DatabaseURL == "" {
		return storage.NewMemoryAlertRepository(0), nil
	}

	pool, err := storage.NewPgxPool(ctx, cfg.DatabaseURL, 4)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, pool.Close)

	repo, err := storage.NewPostgresAlertRepository(ctx, pool)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("alerts: postgres store")
	return repo, nil
}

func (c *Container) detector(cfg *config.Config) (port.ObjectDetector, error) {
	switch cfg.DetectorBackend {
	case "dnn":
		d, err := vision.NewDNNDetector(cfg.DetectorModel, cfg.DetectorConfig, cfg.DetectorLabels, cfg.DetectorThreshold)
		if err != nil {
			return nil, fmt.Errorf("dnn detector: %w", err)
		}
		c.closers = append(c.closers, func() { _ = d.Close() })
		return d, nil
	default:
		return vision.NewHTTPDetector(cfg.DetectorURL, cfg.DetectorThreshold), nil
	}
}

func newOpener(cfg *config.Config, log zerolog.Logger) (port.StreamOpener, error) {
	resolver := stream.Resolver{YtDlpPath: cfg.YtDlpPath}
	switch cfg.StreamBackend {
	case "gocv":
		o, err := stream.NewGoCVOpener(resolver)
		if err != nil {
			return nil, fmt.Errorf("gocv capture: %w", err)
		}
		return o, nil
	default:
		return stream.NewFFmpegOpener(cfg.FFmpegPath, resolver, logging.Component(log, "ffmpeg")), nil
	}
}

// Close останавливает наблюдение и освобождает подключения.
func (c *Container) Close() {
	if c.Watch != nil {
		c.Watch.Shutdown()
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
