// Command crawler is NewsLook's entry point: it wires the HTTP client,
// extractor registry, ingestion pipeline, storage, crawler manager,
// scheduler, lineage monitor, and control/query facade into one running
// process and serves the HTTP/JSON API described in spec §6.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"newslook/internal/config"
	"newslook/internal/domain/entity"
	"newslook/internal/facade"
	newslookhttp "newslook/internal/handler/http"
	"newslook/internal/handler/http/middleware"
	"newslook/internal/handler/http/requestid"
	"newslook/internal/infra/adapter/persistence/sqlite"
	"newslook/internal/infra/db"
	"newslook/internal/infra/extractor"
	"newslook/internal/infra/httpclient"
	"newslook/internal/infra/worker"
	"newslook/internal/observability/logging"
	"newslook/internal/observability/monitor"
	"newslook/internal/observability/tracing"
	"newslook/internal/scheduler"
	"newslook/internal/usecase/ingest"
	pkgconfig "newslook/pkg/config"
	"newslook/pkg/ratelimit"
	"newslook/pkg/security/csp"
)

func waitForMigrations(logger *slog.Logger, writer *sql.DB) {
	const probe = "SELECT 1 FROM news LIMIT 1"
	for i := 0; i < 10; i++ {
		if _, err := writer.Exec(probe); err == nil {
			return
		}
		logger.Info("waiting for migrations, retrying in 3s", slog.Int("attempt", i+1))
		time.Sleep(3 * time.Second)
	}
	logger.Error("migrations did not complete in time")
	os.Exit(3)
}

func initLogger(level string) *slog.Logger {
	logger := logging.NewLoggerWithLevel(level)
	slog.SetDefault(logger)
	return logger
}

func initDatabase(ctx context.Context, logger *slog.Logger, cfg config.AppConfig) *db.DB {
	database, err := db.Open(ctx, db.DefaultConfig(cfg.DatabasePath))
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(3)
	}
	if err := db.MigrateUp(database.Writer); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(3)
	}
	waitForMigrations(logger, database.Writer)
	return database
}

// sourceConfigs returns the built-in source configs with cfg's
// per-source enable overrides applied.
func sourceConfigs(cfg config.AppConfig) []entity.SourceConfig {
	configs := extractor.DefaultSourceConfigs()
	for i, sc := range configs {
		if override, ok := cfg.Sources[string(sc.Source)]; ok {
			configs[i].Active = override.Enabled
		}
	}
	return configs
}

// buildAPIMiddleware assembles the control API's outer defenses: CORS
// for cross-origin callers, an IP rate limiter backed by a circuit
// breaker (fail-open if the store misbehaves), a body-size cap, a
// request ID on every response, and a strict CSP header since the API
// never serves browser-renderable content. Returns the wrapping
// function plus the rate limit store so main can start its periodic
// cleanup goroutine.
func buildAPIMiddleware(cfg config.AppConfig, logger *slog.Logger) (func(http.Handler) http.Handler, *ratelimit.InMemoryRateLimitStore, time.Duration) {
	rlCfg, _ := pkgconfig.LoadRateLimitConfig()
	metrics := ratelimit.NewPrometheusMetrics()
	store := ratelimit.NewInMemoryRateLimitStore(ratelimit.InMemoryStoreConfig{MaxKeys: rlCfg.MaxActiveKeys})
	algorithm := ratelimit.NewSlidingWindowAlgorithm(nil)
	breaker := ratelimit.NewCircuitBreaker(ratelimit.CircuitBreakerConfig{
		FailureThreshold: rlCfg.CircuitBreakerFailureThreshold,
		RecoveryTimeout:  rlCfg.CircuitBreakerResetTimeout,
	})

	var ipLimiter func(http.Handler) http.Handler
	if rlCfg.Enabled {
		limiter := middleware.NewIPRateLimiter(
			middleware.IPRateLimiterConfig{Limit: rlCfg.DefaultIPLimit, Window: rlCfg.DefaultIPWindow, Enabled: true},
			&middleware.RemoteAddrExtractor{},
			store,
			algorithm,
			metrics,
			breaker,
		)
		ipLimiter = limiter.Middleware()
	} else {
		logger.Warn("IP rate limiting is disabled for the control API")
		ipLimiter = func(next http.Handler) http.Handler { return next }
	}

	cspCfg, _ := pkgconfig.LoadCSPConfig()
	cspMiddleware := func(next http.Handler) http.Handler { return next }
	if cspCfg.Enabled {
		cspMW := middleware.NewCSPMiddleware(middleware.CSPMiddlewareConfig{
			Enabled:       true,
			DefaultPolicy: csp.StrictPolicy(),
			ReportOnly:    cspCfg.ReportOnly,
		})
		cspMiddleware = cspMW.Middleware()
	}

	corsConfig := middleware.CORSConfig{
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           86400,
		Validator:        middleware.NewWhitelistValidator(cfg.AllowedOrigins),
		Logger:           &middleware.SlogAdapter{Logger: logger},
	}

	return func(next http.Handler) http.Handler {
		h := next
		h = cspMiddleware(h)
		h = newslookhttp.LimitRequestBody(1 << 20)(h)
		h = newslookhttp.Logging(logger)(h)
		h = newslookhttp.Recover(logger)(h)
		h = ipLimiter(h)
		h = requestid.Middleware(h)
		h = tracing.Middleware(h)
		h = middleware.CORS(corsConfig)(h)
		return h
	}, store, rlCfg.DefaultIPWindow
}

func startScheduler(sched *scheduler.Scheduler, cfg config.AppConfig, logger *slog.Logger) {
	for _, sc := range cfg.Schedules {
		entry := scheduler.Entry{
			Name:     sc.Name,
			CronExpr: sc.CronExpr,
			Source:   entity.Source(sc.Source),
			Enabled:  sc.Enabled,
		}
		if !entry.Enabled {
			continue
		}
		if err := sched.Add(entry); err != nil {
			logger.Error("failed to register schedule entry", slog.String("name", entry.Name), slog.Any("error", err))
		}
	}
	sched.Start()
}

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	addr := flag.String("addr", ":8080", "HTTP API listen address")
	flag.Parse()

	appCfg, err := config.LoadAppConfig(*configPath)
	if err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(2)
	}

	logger := initLogger(appCfg.LogLevel)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	database := initDatabase(ctx, logger, appCfg)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	storage := sqlite.NewNewsRepo(database.Writer, database.Reader)

	mon := monitor.New()

	httpCfg := httpclient.DefaultConfig()
	httpCfg.ProxyURL = appCfg.ProxyURL
	if len(appCfg.UAPool) > 0 {
		httpCfg.UserAgents = appCfg.UAPool
	}
	baseClient := httpclient.New(httpCfg, mon)
	limitedFetcher := worker.NewRateLimitedFetcher(baseClient, appCfg.GlobalQPS, int(appCfg.GlobalQPS)+1)

	configs := sourceConfigs(appCfg)
	registry := extractor.BuildFromConfigs(configs, limitedFetcher, mon)
	ingestSvc := ingest.NewService(storage, mon)

	managerMetrics := worker.NewManagerMetrics()
	managerCfg := worker.LoadConfigFromEnv(logger, managerMetrics)
	manager := worker.NewManager(registry, ingestSvc, configs, *managerCfg, managerMetrics, logger)

	sched := scheduler.New(manager, nil, logger)
	startScheduler(sched, appCfg, logger)
	defer sched.Stop(context.Background())

	fac := facade.New(storage, manager, sched, mon)

	healthServer := worker.NewHealthServer(":"+strconv.Itoa(appCfg.HealthPort), logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	healthServer.SetReady(true)

	router := newslookhttp.NewRouter(&newslookhttp.NewsHandler{Facade: fac, Logger: logger})
	apiMiddleware, rlStore, rlWindow := buildAPIMiddleware(appCfg, logger)
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	cleanupCfg := newslookhttp.LoadCleanupConfigFromEnv()
	go newslookhttp.StartRateLimitCleanup(cleanupCtx, rlStore, cleanupCfg.Interval, rlWindow, "ip")

	apiServer := &http.Server{
		Addr:         *addr,
		Handler:      apiMiddleware(router),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		logger.Info("api server starting", slog.String("addr", *addr))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server failed", slog.Any("error", err))
		}
	}()

	logger.Info("newslook crawler started", slog.String("db_path", appCfg.DatabasePath))

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("api server shutdown failed", slog.Any("error", err))
	}
	manager.StopAll()
}
