package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/cache"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/events"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/gateway"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/httpserver"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/repo"
	"github.com/Divyesh-Chauhan/pulsepr-backend/internal/service"
	"github.com/Divyesh-Chauhan/pulsepr-backend/pkg/config"
	"github.com/Divyesh-Chauhan/pulsepr-backend/pkg/db"
	"github.com/Divyesh-Chauhan/pulsepr-backend/pkg/logging"
	"github.com/Divyesh-Chauhan/pulsepr-backend/pkg/metrics"
	loggingmw "github.com/Divyesh-Chauhan/pulsepr-backend/pkg/middleware/logging"
)

func main() {
	cfg := config.Load()

	logger := logging.New(os.Stdout, logging.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: cfg.ServiceName,
	})
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("config_invalid", "error", err)
		os.Exit(1)
	}

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		logger.Error("db_init_error", "error", err)
		os.Exit(1)
	}

	if cfg.MigrationsDir != "" {
		err = db.Migrate(cfg.DatabaseURL, cfg.MigrationsDir)
	} else {
		err = repo.AutoMigrate(gdb)
	}
	if err != nil {
		logger.Error("db_migrate_error", "error", err)
		os.Exit(1)
	}

	store := &repo.GormRepo{DB: gdb}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	serverMetrics := metrics.NewServerMetrics(reg, cfg.ServiceName)
	checkoutMetrics := metrics.NewCheckoutMetrics(reg)

	var (
		cartCache   service.CartCache
		cachePinger httpserver.Pinger
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		c := cache.NewCartCache(redisClient, cfg.CartCacheTTL)
		cartCache, cachePinger = c, c
		logger.Info("cart_cache_enabled", "addr", cfg.RedisAddr)
	}

	relayCtx, stopRelay := context.WithCancel(context.Background())
	relayDone := make(chan struct{})
	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers)
		relay := &events.Relay{
			Store:     store,
			Publisher: producer,
			Interval:  cfg.OutboxPollInterval,
			BatchSize: 100,
			Logger:    logger.With("component", "outbox_relay"),
		}
		go func() {
			defer close(relayDone)
			relay.Run(relayCtx)
		}()
		logger.Info("outbox_relay_started", "brokers", cfg.KafkaBrokers, "topic", cfg.OrderEventsTopic)
	} else {
		close(relayDone)
		logger.Warn("outbox_relay_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	gw := gateway.NewClient(gateway.Config{
		BaseURL:   cfg.RazorpayBaseURL,
		KeyID:     cfg.RazorpayKeyID,
		KeySecret: cfg.RazorpayKeySecret,
		Timeout:   cfg.GatewayTimeout,
	})

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-CSRF-Token"},
		ExposeHeaders:    []string{"X-CSRF-Token", echo.HeaderXRequestID},
	}))
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(serverMetrics.Middleware())

	httpserver.Register(e, &httpserver.Deps{
		PaymentHandler: &httpserver.PaymentHTTP{
			Payments: &service.PaymentService{Products: store, Gateway: gw},
			Checkout: &service.CheckoutService{
				Repo:        store,
				KeySecret:   cfg.RazorpayKeySecret,
				EventsTopic: cfg.OrderEventsTopic,
				Cache:       cartCache,
				Metrics:     checkoutMetrics,
			},
		},
		CartHandler:    &httpserver.CartHTTP{Svc: &service.CartService{Repo: store, Cache: cartCache}},
		CatalogHandler: &httpserver.CatalogHTTP{Svc: &service.CatalogService{Repo: store, Cache: cartCache}},
		OrderHandler:   &httpserver.OrderHTTP{Svc: &service.OrderService{Repo: store}},
		OfferHandler:   &httpserver.OfferHTTP{Svc: &service.OfferService{Repo: store, Cache: cartCache}},
		DesignHandler:  &httpserver.DesignHTTP{Svc: &service.DesignService{Repo: store}},
		JWTSecret:      cfg.JWTSecret,
		DB:             gdb,
		Cache:          cachePinger,
		Gatherer:       reg,
		RateLimitRPS:   float64(cfg.RateLimitRPS),
		RateLimitBurst: cfg.RateLimitBurst,
		AllowedOrigins: cfg.AllowedOrigins,
		SecureCookies:  cfg.SecureCookies,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Info("http_server_starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 2)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting_down")

	go func() {
		<-quit
		logger.Warn("force_exit")
		os.Exit(1)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http_shutdown_error", "error", err)
	}

	stopRelay()
	<-relayDone
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka_close_error", "error", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("redis_close_error", "error", err)
		}
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close_error", "error", err)
	}

	logger.Info("shutdown_complete")
}
