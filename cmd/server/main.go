package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"market-pulse/internal/config"
	"market-pulse/internal/handler"
	"market-pulse/internal/job"
	"market-pulse/internal/logger"
	"market-pulse/internal/metrics"
	"market-pulse/internal/provider"
	"market-pulse/internal/pubsub"
	"market-pulse/internal/service"
	"market-pulse/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	_ "market-pulse/docs"
)

var (
	loadEnvFunc              = godotenv.Load
	newLoggerFunc            = logger.New
	loadConfigFunc           = config.Load
	initTracerFunc           = tracing.InitTracer
	initRedisFunc            = pubsub.InitRedis
	newCoinGeckoProviderFunc = func(tracer trace.Tracer, cfg *config.Config) service.MarketDataProvider {
		return provider.NewCoinGeckoProvider(tracer, cfg.CoinGeckoBaseURL, time.Duration(cfg.HTTPTimeoutSecs)*time.Second)
	}
	newDefiLlamaProviderFunc = func(tracer trace.Tracer, cfg *config.Config) service.TVLProvider {
		return provider.NewDefiLlamaProvider(tracer, cfg.DefiLlamaBaseURL, time.Duration(cfg.HTTPTimeoutSecs)*time.Second)
	}
	newFearGreedProviderFunc = func(tracer trace.Tracer, cfg *config.Config) service.SentimentProvider {
		return provider.NewFearGreedProvider(tracer, cfg.FearGreedBaseURL, time.Duration(cfg.HTTPTimeoutSecs)*time.Second)
	}
	newRefreshJobFunc      = job.NewRefreshJob
	startJobFunc           = func(j *job.RefreshJob, ctx context.Context) { go j.Start(ctx) }
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Market Pulse API
// @version         1.0
// @description     Crypto market dashboard: market stats, DeFi TVL, Fear & Greed, trending tokens and top projects.

// @host      localhost:8080
// @BasePath  /
func main() {
	_ = loadEnvFunc()

	zl, err := newLoggerFunc(os.Getenv("LOG_LEVEL"))
	if err != nil {
		panic(err)
	}
	defer func() { _ = zl.Sync() }()
	undo := zap.ReplaceGlobals(zl)
	defer undo()
	log := zl.Sugar()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalw("failed to initialize tracer", "err", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Warnw("error shutting down tracer provider", "err", err)
		}
	}()

	var recorder *metrics.Recorder
	var registry *prometheus.Registry
	if cfg.MetricsEnabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder = metrics.NewRecorder(registry)
	}

	// Redis is optional; without it dashboards are only served over HTTP.
	var publisher service.Publisher
	redisClient, err := initRedisFunc(ctx, cfg.RedisURL)
	switch {
	case errors.Is(err, pubsub.ErrDisabled):
	case err != nil:
		log.Warnw("redis unavailable, dashboard publishing disabled", "err", err)
	default:
		defer redisClient.Close()
		rp := pubsub.NewRedisPublisher(tracer, redisClient, cfg.RedisChannel)
		publisher = rp
		log.Infow("publishing dashboards to redis", "channel", rp.Channel())
	}

	fetchers := service.NewFetchers(tracer, log.Named("fetchers"), recorder,
		newCoinGeckoProviderFunc(tracer, cfg),
		newDefiLlamaProviderFunc(tracer, cfg),
		newFearGreedProviderFunc(tracer, cfg),
		service.FetcherConfig{
			Timeout:        time.Duration(cfg.HTTPTimeoutSecs) * time.Second,
			FearGreedLimit: cfg.FearGreedLimit,
		},
	)
	aggregator := service.NewAggregator(tracer, log.Named("aggregator"), fetchers)
	store := service.NewStore(tracer, log.Named("store"), aggregator, publisher, recorder)

	// Background refresh, stopped by ctx cancel
	refreshJob := newRefreshJobFunc(tracer, log.Named("refresh-job"), store, cfg.RefreshIntervalSecs)
	startJobFunc(refreshJob, ctx)

	h := newHandlerFunc(tracer, store)

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName))
	r.Use(handler.CORS(cfg.CORSAllowedOrigins))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: r,
	}

	go func() {
		log.Infow("http server listening", "addr", srv.Addr)
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalw("listen failed", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}

	log.Info("Server exiting")
}
