package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cbrates/internal/adapters"
	"cbrates/internal/adapters/cache"
	"cbrates/internal/adapters/httpclient"
	"cbrates/internal/adapters/postgres"
	"cbrates/internal/adapters/redislock"
	"cbrates/internal/api"
	"cbrates/internal/config"
	"cbrates/internal/metrics"
	"cbrates/internal/platform/db"
	httpserver "cbrates/internal/platform/http"
	"cbrates/internal/rate"
	"cbrates/internal/rate/handler"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Run wires the application components, initializes the rate snapshot and
// starts HTTP server and scheduler.
func Run() error {
	appCfg, err := config.Init()
	if err != nil {
		return err
	}
	// Logger
	logrus.SetOutput(os.Stdout)
	if parsedLvl, parseErr := logrus.ParseLevel(appCfg.Logging.Level); parseErr != nil {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(parsedLvl)
	}
	logrus.Info("✅ Config initialization successful")

	// Root context bound to OS signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bounded context for startup operations (DB connect, migrations)
	startupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// DB pool
	pool, err := db.CreatePoolAndPing(startupCtx, appCfg.DbServer)
	if err != nil {
		logrus.WithError(err).Error("Error connecting to db")
		return err
	}
	defer pool.Close()
	logrus.Info("✅ Postgres connection successful")

	if appCfg.DbServer.Migrate {
		if err = db.Migrate(startupCtx, appCfg.DbServer.GetConnectionStr()); err != nil {
			logrus.WithError(err).Error("Failed to apply migrations")
			return err
		}
		logrus.Info("✅ Migrations applied")
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	syncMetrics := metrics.NewSyncMetrics(registry)

	// Base HTTP client (configurable timeout)
	httpTimeout := time.Duration(appCfg.HTTPClient.TimeoutSeconds) * time.Second
	if httpTimeout <= 0 {
		httpTimeout = 10 * time.Second
	}
	baseHTTPClient := &http.Client{Timeout: httpTimeout}

	// Rate source and store
	rateSource := httpclient.NewCBRClient(baseHTTPClient, appCfg.RateSource.URL)
	var rateStore adapters.RateStore = postgres.NewRateStore(pool)
	if appCfg.Cache.Enabled {
		cachedStore, cacheErr := cache.NewRateStore(rateStore, appCfg.Cache.MaxItems, time.Duration(appCfg.Cache.TTLSeconds)*time.Second)
		if cacheErr != nil {
			logrus.WithError(cacheErr).Error("Failed to create rate cache")
			return cacheErr
		}
		defer cachedStore.Close()
		rateStore = cachedStore
		logrus.Info("✅ Rate cache enabled")
	}

	engine := rate.NewEngine(rateSource, rateStore, syncMetrics, time.Duration(appCfg.Sync.FetchTimeoutSeconds)*time.Second)

	// Initial snapshot. A failure here is not fatal: lookups serve whatever the store holds
	// and the next scheduled refresh tries again.
	if res, initErr := engine.Initialize(ctx); initErr != nil {
		logrus.WithError(initErr).Error("Rate snapshot initialization failed")
	} else {
		logrus.Infof("✅ Rate snapshot initialized (%s, %d rates fetched)", res.Operation, res.Fetched)
	}

	// Job lock
	var locker adapters.JobLocker = adapters.NoopLocker{}
	if appCfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     appCfg.Redis.Addr,
			Password: appCfg.Redis.Pass,
			DB:       appCfg.Redis.DB,
		})
		defer func() { _ = redisClient.Close() }()
		if pingErr := redisClient.Ping(startupCtx).Err(); pingErr != nil {
			logrus.WithError(pingErr).Error("Error connecting to redis")
			return pingErr
		}
		locker = redislock.NewLocker(redisClient, time.Duration(appCfg.Scheduler.LockTTLSeconds)*time.Second)
		logrus.Info("✅ Redis job lock enabled")
	}

	scheduler := rate.NewScheduler(
		engine,
		locker,
		syncMetrics,
		appCfg.Scheduler.RefreshCron,
		time.Duration(appCfg.Scheduler.JobTimeoutSeconds)*time.Second,
	)
	// Ensure scheduler stops before DB pool closes
	defer func() {
		if shutDownErr := scheduler.Shutdown(); shutDownErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", shutDownErr)
		}
	}()
	// Start scheduler tied to root context
	if startErr := scheduler.Start(ctx); startErr != nil {
		logrus.WithError(startErr).Error("Failed to start scheduler")
		return startErr
	}
	logrus.Info("✅ Scheduler activation successful")

	// Handlers and router
	rateHandler := handler.NewRateHandler(rate.NewValidator(), engine)
	router := api.NewRouter(rateHandler, registry, appCfg.HTTPServer.AllowedOrigins)

	logrus.Info("Starting http server")
	// Block until context is canceled, then perform graceful shutdown.
	if serverErr := httpserver.Start(ctx, appCfg.HTTPServer, router); serverErr != nil {
		// Cancel the root context to stop scheduler and other in-flight work
		stop()
		logrus.Errorf("HTTP server error: %v", serverErr)
		return serverErr
	}
	return nil
}
