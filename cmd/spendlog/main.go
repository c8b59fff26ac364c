package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"spendlog/internal/amqp"
	"spendlog/internal/backend"
	"spendlog/internal/cli"
	apphttp "spendlog/internal/http"
	applog "spendlog/internal/log"
	"spendlog/internal/rates"
	"spendlog/internal/spot"
	"spendlog/internal/store"
)

const (
	shutdownTimeout = 30 * time.Second
	dialAttempts    = 5
	publishBuffer   = 64
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	startCtx, cancelStart := context.WithTimeout(context.Background(), time.Minute)
	defer cancelStart()

	res := cli.OpenBackend(startCtx, logger, cfg)
	logger.Info("Storage backend ready", applog.FieldBackend, res.Type)

	expenses := store.New(res.Store,
		store.WithKey(cfg.StorageKey),
		store.WithLogger(logger.WithComponent(applog.ComponentStore)))
	if err := expenses.Load(startCtx); err != nil {
		if errors.Is(err, store.ErrCorruptSnapshot) {
			logger.Warn("Stored expenses were unreadable, starting empty",
				applog.FieldError, err.Error(), applog.FieldErrorType, applog.ErrorTypeSchema)
		} else {
			logger.Error("Failed to load expenses, starting empty",
				applog.FieldError, err.Error(), applog.FieldErrorType, applog.ErrorTypeStorage)
		}
	}

	var (
		feed      *amqp.Client
		publisher *amqp.Publisher
	)
	if cfg.FeedEnabled() {
		feedLogger := logger.WithComponent(applog.ComponentAMQP)
		client, err := amqp.NewClient(startCtx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, dialAttempts, feedLogger)
		if err != nil {
			// the tracker works without the feed
			logger.Error("Change feed disabled: cannot reach broker",
				applog.FieldError, err.Error(), applog.FieldErrorType, applog.ErrorTypeNetwork)
		} else {
			feed = client
			publisher = amqp.NewPublisher(feed, publishBuffer, feedLogger)
			expenses.Subscribe(publisher)
			logger.Info("Change feed enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("Change feed disabled - no AMQP_URL provided")
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	converter := rates.NewConverter(rates.NewClient(cfg.RatesBaseURL, cfg.RatesAppID, httpClient))
	lookup := spot.NewLookup(spot.NewClient(cfg.SpotBaseURL, httpClient), expenses)

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Store:              expenses,
		Converter:          converter,
		Lookup:             lookup,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Ready: func(ctx context.Context) error {
			_, _, err := res.Store.Get(ctx, cfg.StorageKey)
			return err
		},
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", applog.FieldError, err.Error())
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, nil)

	logger.Info("Starting spendlog server",
		"port", cfg.Port, applog.FieldBackend, res.Type, "expenses", expenses.Len())

	var publish func(context.Context) error
	if publisher != nil {
		publish = publisher.Run
	}
	err = serve(ctx,
		func(ctx context.Context) error { return srv.Run(ctx, shutdownTimeout) },
		publish,
		func() { closeAll(logger, feed, res) })
	if err != nil {
		logger.Error("Server error", applog.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

// serve runs the server and the change publisher until ctx ends or the
// server fails. The publisher is stopped once the server has drained and
// release runs after both have returned.
func serve(ctx context.Context, server, publish func(context.Context) error, release func()) error {
	pubCtx, stopPublisher := context.WithCancel(context.Background())
	defer stopPublisher()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stopPublisher()
		return server(gctx)
	})
	if publish != nil {
		g.Go(func() error {
			return publish(pubCtx)
		})
	}
	err := g.Wait()
	release()
	return err
}

// closeAll releases the broker connection and the storage backend. It runs
// once no handler or publisher can use them.
func closeAll(logger *applog.Logger, feed *amqp.Client, res *backend.BackendResult) {
	if feed != nil {
		if err := feed.Close(); err != nil {
			logger.Warn("Failed to close AMQP connection", applog.FieldError, err.Error())
		}
	}
	if err := res.Close(); err != nil {
		logger.Warn("Failed to close storage backend", applog.FieldError, err.Error())
	}
}
