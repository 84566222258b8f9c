package main

import (
	"context"
	"errors"
	"log"
	"net"
	nethttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sakashimaa/storefront/pkg/config"
	"github.com/sakashimaa/storefront/pkg/db"
	kafka2 "github.com/sakashimaa/storefront/pkg/kafka"
	"github.com/sakashimaa/storefront/pkg/mylogger"
	outbox "github.com/sakashimaa/storefront/pkg/outbox/repository"
	"github.com/sakashimaa/storefront/pkg/outbox/worker"
	"github.com/sakashimaa/storefront/pkg/utils"
	"github.com/sakashimaa/storefront/services/storefront/internal/auth"
	"github.com/sakashimaa/storefront/services/storefront/internal/cart"
	"github.com/sakashimaa/storefront/services/storefront/internal/client"
	"github.com/sakashimaa/storefront/services/storefront/internal/metrics"
	"github.com/sakashimaa/storefront/services/storefront/internal/repository"
	"github.com/sakashimaa/storefront/services/storefront/internal/service"
	"github.com/sakashimaa/storefront/services/storefront/internal/session"
	"github.com/sakashimaa/storefront/services/storefront/internal/transport/grpc"
	"github.com/sakashimaa/storefront/services/storefront/internal/transport/http"
	"github.com/sakashimaa/storefront/services/storefront/internal/transport/http/handler"
	"github.com/sakashimaa/storefront/services/storefront/internal/transport/http/middleware"
	"github.com/sakashimaa/storefront/services/storefront/internal/transport/kafka"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not found: %v\n", err)
	}

	cfg := config.MustLoad()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.LoggerConfig())
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	tp, err := utils.InitTracer(ctx, utils.TracerConfig{
		ServiceName: "storefront-service",
		Endpoint:    cfg.Tracing.Endpoint,
		Env:         cfg.Env,
	})
	if err != nil {
		log.Fatalf("Failed to init tracer: %v", err)
	}

	policy, err := cart.ParseFallbackPolicy(cfg.Cart.FallbackPolicy)
	if err != nil {
		log.Fatalf("Invalid cart config: %v", err)
	}

	tokens, err := auth.NewTokenValidator(cfg.Auth.AccessSecret)
	if err != nil {
		log.Fatalf("Invalid auth config: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("Error closing redis: %v\n", err)
		}
	}()

	var pool *pgxpool.Pool
	var localStore repository.LocalCartRepository

	switch cfg.LocalStore.Driver {
	case "postgres":
		pool, err = db.NewPostgresDB(ctx, cfg.Postgres.URL, logger)
		if err != nil {
			log.Fatalf("Error creating postgres pool: %v", err)
		}
		localStore = repository.NewPostgresLocalStore(pool, logger)
	case "memory":
		localStore = repository.NewMemoryLocalStore()
	default:
		localStore = repository.NewRedisLocalStore(rdb, cfg.LocalStore.TTL, logger)
	}

	backend := client.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, "storefront-backend", logger)
	catalog := service.NewCachedCatalog(client.NewCatalog(backend), rdb, cfg.Cache.ProductTTL, logger)

	reg := metrics.NewRegistry()
	grpc_prometheus.EnableHandlingTimeHistogram()

	deps := cart.Deps{
		Local:   localStore,
		Remote:  client.NewRemoteCart(backend),
		Catalog: catalog,
		Orders:  client.NewOrderSubmitter(backend),
		Metrics: metrics.New(reg),
		Logger:  logger,
	}

	var producer kafka2.Producer
	if cfg.Kafka.Enabled {
		producer, err = kafka2.NewProducer(cfg.Kafka.Brokers, logger)
		if err != nil {
			log.Fatalf("Error creating kafka producer: %v", err)
		}

		if pool != nil {
			outboxRepo := outbox.NewOutboxRepository(logger)
			deps.Events = service.NewOutboxPublisher(pool, outboxRepo, cfg.Kafka.CartTopic)

			processor := worker.NewOutboxProcessor(pool, outboxRepo, producer, logger, cfg.Outbox.BatchSize, cfg.Outbox.Interval)
			go processor.Start(ctx)
		} else {
			deps.Events = kafka.NewPublisher(producer, cfg.Kafka.CartTopic)
		}
	}

	manager := session.NewManager(deps, session.Config{
		KeyPrefix:     cfg.LocalStore.KeyPrefix,
		IdleTTL:       cfg.Session.IdleTTL,
		SweepInterval: cfg.Session.SweepInterval,
		Cart: cart.Options{
			Pricing: cart.Pricing{
				TaxRate:               cfg.Pricing.TaxRate,
				FlatShipping:          cfg.Pricing.FlatShipping,
				FreeShippingThreshold: cfg.Pricing.FreeShippingThreshold,
			},
			Policy:        policy,
			RemoteTimeout: cfg.Cart.RemoteOpTimeout,
		},
	}, logger)

	go manager.Run(ctx)

	if cfg.Kafka.Enabled {
		consumer := kafka.NewConsumer(manager, logger)
		go func() {
			if err := consumer.Start(ctx, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.UserTopic); err != nil {
				mylogger.Error(ctx, logger, "Kafka consumer stopped", zap.Error(err))
			}
		}()
	}

	app := fiber.New()

	app.Use(otelfiber.Middleware())

	app.Use(limiter.New(limiter.Config{
		Max:        cfg.Limiter.Max,
		Expiration: cfg.Limiter.Expiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Try again later.",
			})
		},
	}))

	handlers := &http.Handlers{
		Cart:    handler.NewCartHandler(cfg.HTTP.Timeout, logger),
		Catalog: handler.NewCatalogHandler(catalog, cfg.HTTP.Timeout, logger),
	}

	http.RegisterRoutes(app, handlers, middleware.NewSessionMiddleware(manager, tokens, logger))

	healthServer := grpc.NewHealthServer(logger)
	lis, err := net.Listen("tcp", cfg.GRPC.Port)
	if err != nil {
		log.Fatalf("Error listening on %s: %v", cfg.GRPC.Port, err)
	}

	go func() {
		if err := healthServer.Serve(lis); err != nil {
			log.Printf("Error serving gRPC: %v\n", err)
		}
	}()

	mux := nethttp.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	metricsServer := &nethttp.Server{
		Addr:              cfg.Metrics.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Println("Metrics server listening on: " + cfg.Metrics.Port)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Printf("Metrics serving failed: %v\n", err)
		}
	}()

	go func() {
		log.Println("HTTP Service listening on: " + cfg.HTTP.Port)
		if err := app.Listen(cfg.HTTP.Port); err != nil {
			log.Fatalf("Error listening on HTTP port %v: %v\n", cfg.HTTP.Port, err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mylogger.Info(shutdownCtx, logger, "Shutting down storefront server")

	healthServer.Stop()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Error shutting down HTTP app", zap.Error(err))
	}

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Error shutting down metrics server", zap.Error(err))
	}

	manager.Close(shutdownCtx)

	if producer != nil {
		if err := producer.Close(); err != nil {
			mylogger.Warn(shutdownCtx, logger, "Error closing kafka producer", zap.Error(err))
		}
	}

	if pool != nil {
		pool.Close()
	}

	if err := tp.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down telemetry", zap.Error(err))
	} else {
		mylogger.Info(shutdownCtx, logger, "Storefront stopped")
	}
}
