// Command scened consumes scene build requests from Kafka, builds each scene
// and stores its document in MinIO. Build transitions are logged, counted,
// recorded in Postgres and published on NATS when those are configured.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"rando/internal/app"
	"rando/internal/config"
	"rando/internal/env"
	"rando/internal/events"
	"rando/internal/keys"
	"rando/internal/logging"
	"rando/internal/metrics"
	"rando/internal/models"
	"rando/internal/render"
	"rando/internal/scene"
	"rando/internal/service"
	"rando/internal/storage"
	"rando/pkg/graceful"
	"rando/pkg/kafkaclient"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := env.LoadEnv(); err != nil {
		slog.Error("load .env", "error", err)
		return 1
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		return 1
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if !cfg.Minio.Enabled() {
		logger.Error("scened needs minio.endpoint and minio.bucket to store scene documents")
		return 1
	}

	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	sources, err := app.NewSources(ctx, cfg, logger)
	if err != nil {
		logger.Error("set up sources", "error", err)
		return 1
	}
	defer sources.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	observers := []scene.Observer{scene.LogObserver(logger), metrics.New(reg)}

	if cfg.Database.Host != "" {
		pool, err := storage.NewPool(ctx, cfg.Database.DSN())
		if err != nil {
			logger.Error("connect database", "error", err)
			return 1
		}
		defer pool.Close()
		history := storage.NewBuildHistory(pool, logger)
		if err := history.EnsureSchema(ctx); err != nil {
			logger.Error("prepare build history", "error", err)
			return 1
		}
		observers = append(observers, history)
	}

	if cfg.NATS.URL != "" {
		conn, err := events.Connect(cfg.NATS.URL)
		if err != nil {
			logger.Error("connect nats", "error", err)
			return 1
		}
		defer func() { _ = conn.Drain() }()
		observers = append(observers, events.NewPublisher(conn, cfg.NATS.SubjectPrefix, logger))
	}

	srv := &http.Server{
		Addr:              cfg.Metrics.Addr,
		Handler:           metricsMux(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("serving metrics", "addr", cfg.Metrics.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
			cancel()
		}
	}()

	logger.Info("connecting to kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic, "group_id", cfg.Kafka.GroupID)
	consumer := kafkaclient.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, logger)
	consumer.StartConsuming(ctx)

	w := &worker{
		fetcher:   sources.Fetcher,
		sink:      sources.Store,
		settings:  cfg.Render,
		observers: observers,
		logger:    logger,
	}
	handled := service.NewBuildRequestIterator(consumer.NewIterator(), logger).Each(ctx, w.handle)

	consumer.Stop()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)

	logger.Info("scened stopped", "handled", handled)
	return 0
}

func metricsMux(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// worker builds the scene of one request and stores its document.
type worker struct {
	fetcher   scene.Fetcher
	sink      render.Sink
	settings  render.Settings
	observers []scene.Observer
	logger    *slog.Logger
}

func (w *worker) handle(ctx context.Context, d service.Delivery[models.BuildRequest]) error {
	req := d.Data
	logger := w.logger.With("build_id", req.ID, "offset", d.Message.Offset)

	opts, err := scene.OptionsFromRequest(req)
	if err != nil {
		logger.Error("rejecting build request", "error", err)
		return err
	}

	doc, err := app.BuildDocument(ctx, opts, w.fetcher, w.settings, w.observers...)
	if err != nil {
		return err
	}

	key := keys.Scene(req)
	if err := doc.Save(ctx, w.sink, key); err != nil {
		return err
	}
	logger.Info("scene stored", "key", key)
	return nil
}
