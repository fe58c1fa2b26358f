package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Definkle/skinet-cart/internal/cart"
	"github.com/Definkle/skinet-cart/internal/catalog"
	"github.com/Definkle/skinet-cart/internal/gateway"
	"github.com/Definkle/skinet-cart/internal/httpapi"
	"github.com/Definkle/skinet-cart/internal/idstore"
	"github.com/Definkle/skinet-cart/internal/poller"
)

type Config struct {
	HTTPPort        string
	CartGatewayURL  string
	RedisAddr       string
	RedisPassword   string
	KafkaBrokers    string
	CatalogDBPath   string
	MigrationsPath  string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	Debounce        time.Duration
	SessionTTL      time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		CartGatewayURL:  getEnv("CART_GATEWAY_URL", "http://localhost:5000"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:    getEnv("KAFKA_BROKERS", ""),
		CatalogDBPath:   getEnv("CATALOG_DB_PATH", "catalog.db"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "internal/catalog/migrations"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Debounce:        cart.DefaultDebounce,
		SessionTTL:      30 * time.Minute,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Catalog (read-only product and delivery-method data)
	cat, err := catalog.NewRepository(cfg.CatalogDBPath)
	if err != nil {
		logger.Fatal("failed to open catalog", zap.Error(err))
	}
	defer cat.Close()
	if err := cat.RunMigrations(cfg.MigrationsPath); err != nil {
		logger.Fatal("failed to run catalog migrations", zap.Error(err))
	}
	logger.Info("catalog ready", zap.String("path", cfg.CatalogDBPath))

	// Redis holds the durable cart-id key per session
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("redis connection failed", zap.Error(err))
	}
	logger.Info("redis ping succeeded", zap.String("addr", cfg.RedisAddr))

	// Remote cart gateway (the backend that owns cart persistence)
	gw := gateway.NewHTTPGateway(cfg.CartGatewayURL, nil)
	reporter := cart.NewZapReporter(logger)

	sessions := httpapi.NewSessions(func(sessionID string) *cart.Engine {
		return cart.NewEngine(gw, idstore.NewRedisStore(redisClient, sessionID), cat, reporter, cfg.Debounce)
	})

	router := httpapi.NewRouter(
		httpapi.NewCartHandler(sessions, cat, cfg.RequestTimeout),
		httpapi.NewProductHandler(cat, cfg.RequestTimeout),
		cfg.RequestTimeout,
	)

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	// Idle engines are swept out; their stored cart id survives and the
	// next request rebuilds the session.
	go sessions.RunEviction(bgCtx, 5*time.Minute, cfg.SessionTTL)

	// Checkout-completed consumer is optional; without brokers carts are
	// only cleared through the HTTP API.
	if cfg.KafkaBrokers != "" {
		p := poller.NewPoller(sessions, logger, strings.Split(cfg.KafkaBrokers, ",")...)
		defer p.Close()
		go p.Run(bgCtx)
		logger.Info("checkout poller started", zap.String("brokers", cfg.KafkaBrokers))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("cart service starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	bgCancel()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	// Flush pending cart syncs before exiting.
	sessions.CloseAll()
	logger.Info("server exited")
}
