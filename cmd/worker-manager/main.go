package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"worker-discovery/internal/common/camunda"
	"worker-discovery/internal/common/config"
	"worker-discovery/internal/common/database"
	"worker-discovery/internal/common/logger"
	"worker-discovery/internal/common/metrics"
	"worker-discovery/internal/common/observability"
	"worker-discovery/internal/common/validation"
	"worker-discovery/internal/discovery/eligibility"
	"worker-discovery/internal/discovery/ranking"
	"worker-discovery/internal/discovery/weights"
	"worker-discovery/pkg/registry"

	fw "worker-discovery/internal/workers/discovery/filter-eligible-workers"
	rw "worker-discovery/internal/workers/discovery/rank-eligible-workers"
	rs "worker-discovery/internal/workers/discovery/resolve-worker-status"
	sw "worker-discovery/internal/workers/discovery/search-workers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "console")
		boot.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{"app": cfg.App.Name})

	zapLog.Info("starting worker manager", zap.String("environment", cfg.App.Environment))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	obs := observability.New(cfg.App.Name, log)

	reg, err := loadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("activity registry invalid", zap.Error(err))
	}
	validator := validation.NewValidator(reg)

	engineCfg, err := cfg.Ranking.ToEngineConfig()
	if err != nil {
		zapLog.Fatal("ranking config invalid", zap.Error(err))
	}
	holder, err := ranking.NewHolder(engineCfg)
	if err != nil {
		zapLog.Fatal("ranking config invalid", zap.Error(err))
	}
	metrics.SetActiveVersion("", holder.Version())

	// --- Zeebe ---
	zeebeClient, err := camunda.Connect(ctx, camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: cfg.Camunda.Insecure,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	}, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("zeebe client connected", zap.String("gateway", cfg.Camunda.BrokerAddress))

	// --- Versioned weights ---
	var readiness []func(context.Context) error
	readiness = append(readiness, func(ctx context.Context) error {
		return camunda.HealthCheck(ctx, zeebeClient, 2*time.Second)
	})

	if cfg.Ranking.WeightsSource == config.WeightsSourceStore {
		pg, rdb := connectStores(ctx, cfg, log, zapLog)
		defer pg.Close()
		defer rdb.Close()
		readiness = append(readiness, pg.Ping, rdb.Ping)

		provider := weights.NewProvider(
			weights.NewPostgresStore(pg.DB),
			rdb.Client,
			holder,
			config.GetDuration(cfg.Ranking.WeightsRefreshInterval),
			config.GetDuration(cfg.Ranking.WeightsCacheTTL),
			log,
		)
		go provider.Start(ctx)
	}
	zapLog.Info("ranking weights ready",
		zap.String("source", cfg.Ranking.WeightsSource),
		zap.String("version", holder.Version()),
	)

	// --- Workers ---
	processor := eligibility.NewProcessor()
	engine := ranking.NewEngine(holder)
	var workers []worker.JobWorker

	open := func(taskType string, handler camunda.JobHandler) {
		wcfg := config.GetWorkerConfig(cfg, taskType)
		if !wcfg.Enabled {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			return
		}
		workers = append(workers, camunda.Open(zeebeClient, taskType, camunda.WorkerOptions{
			MaxJobsActive:  wcfg.MaxJobsActive,
			Timeout:        config.GetDuration(wcfg.Timeout),
			RequestTimeout: config.GetDuration(cfg.Camunda.RequestTimeout),
		}, handler, log))
	}

	{
		c := rs.LoadConfig()
		c.Timeout = jobTimeout(cfg, reg, rs.TaskType, c.Timeout)
		open(rs.TaskType, rs.NewHandler(c, validator, obs, log))
	}
	{
		c := fw.LoadConfig()
		c.Timeout = jobTimeout(cfg, reg, fw.TaskType, c.Timeout)
		open(fw.TaskType, fw.NewHandler(c, processor, validator, obs, log))
	}
	{
		c := rw.LoadConfig()
		c.Timeout = jobTimeout(cfg, reg, rw.TaskType, c.Timeout)
		if wcfg, ok := cfg.Workers[rw.TaskType]; ok {
			c.MaxResults = wcfg.MaxItems
		}
		open(rw.TaskType, rw.NewHandler(c, engine, validator, obs, log))
	}
	{
		c := sw.LoadConfig()
		c.Timeout = jobTimeout(cfg, reg, sw.TaskType, c.Timeout)
		c.MaxItems = config.GetWorkerConfig(cfg, sw.TaskType).MaxItems
		if c.DefaultPageSize > c.MaxItems {
			c.DefaultPageSize = c.MaxItems
		}
		open(sw.TaskType, sw.NewHandler(c, processor, engine, validator, obs, log))
	}
	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	server := &http.Server{
		Addr:              cfg.Metrics.Address,
		Handler:           newMux(holder, readiness),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("health/metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("health/metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("shutdown signal received, stopping workers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Close()
	}
	for _, w := range workers {
		w.AwaitClose()
	}
	stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("error stopping health server", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("error stopping metrics provider", zap.Error(err))
	}
	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("error closing zeebe client", zap.Error(err))
	}
	zapLog.Info("worker manager stopped")
}

// loadRegistry prefers the file at path and falls back to the built-in registry.
func loadRegistry(path string) (*registry.ActivityRegistry, error) {
	if _, err := os.Stat(path); err == nil {
		return registry.LoadRegistry(path)
	}
	return registry.Default()
}

// jobTimeout takes the configured worker timeout, then the registry timeout, then def.
func jobTimeout(cfg *config.Config, reg *registry.ActivityRegistry, taskType string, def time.Duration) time.Duration {
	if wcfg, ok := cfg.Workers[taskType]; ok && wcfg.Timeout > 0 {
		return config.GetDuration(wcfg.Timeout)
	}
	if activity, err := reg.Lookup(taskType); err == nil {
		return activity.TimeoutDuration(def)
	}
	return def
}

func connectStores(ctx context.Context, cfg *config.Config, log logger.Logger, zapLog *zap.Logger) (*database.PostgresClient, *database.RedisClient) {
	retry := camunda.RetryConfig{MaxAttempts: 15, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second}

	var pg *database.PostgresClient
	err := camunda.RetryWithBackoff(ctx, retry, log, "postgres connection", func(ctx context.Context) error {
		client, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := client.Ping(ctx); err != nil {
			client.Close()
			return err
		}
		pg = client
		return nil
	})
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("weight store schema setup failed", zap.Error(err))
	}
	zapLog.Info("postgres connected")

	var rdb *database.RedisClient
	err = camunda.RetryWithBackoff(ctx, retry, log, "redis connection", func(ctx context.Context) error {
		client, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		if err := client.Ping(ctx); err != nil {
			client.Close()
			return err
		}
		rdb = client
		return nil
	})
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	zapLog.Info("redis connected")
	return pg, rdb
}

func newMux(holder *ranking.Holder, readiness []func(context.Context) error) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":         "healthy",
			"weightsVersion": holder.Version(),
			"time":           time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		for _, check := range readiness {
			if err := check(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
