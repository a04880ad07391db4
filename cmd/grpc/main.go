package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-order-service/config"
	"github.com/fekuna/omnipos-order-service/internal/maintenance"
	"github.com/fekuna/omnipos-order-service/internal/notification"
	"github.com/fekuna/omnipos-order-service/internal/pkg/broker"
	"github.com/fekuna/omnipos-order-service/internal/pkg/cache"
	"github.com/fekuna/omnipos-order-service/internal/pkg/i18n"
	"github.com/fekuna/omnipos-order-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-order-service/internal/pkg/middleware"
	"github.com/fekuna/omnipos-order-service/internal/pkg/postgres"
	"github.com/fekuna/omnipos-order-service/internal/pkg/search"
	"github.com/fekuna/omnipos-order-service/internal/pkg/tracing"
	"github.com/fekuna/omnipos-order-service/internal/store"
	"github.com/fekuna/omnipos-order-service/internal/store/memory"
	pgstore "github.com/fekuna/omnipos-order-service/internal/store/postgres"
	"github.com/fekuna/omnipos-order-service/migrations"

	invH "github.com/fekuna/omnipos-order-service/internal/inventory/handler"
	invListenerPkg "github.com/fekuna/omnipos-order-service/internal/inventory/listener"
	"github.com/fekuna/omnipos-order-service/internal/inventory/stock"
	invUCPkg "github.com/fekuna/omnipos-order-service/internal/inventory/usecase"

	orderH "github.com/fekuna/omnipos-order-service/internal/order/handler"
	orderUCPkg "github.com/fekuna/omnipos-order-service/internal/order/usecase"

	payH "github.com/fekuna/omnipos-order-service/internal/payment/handler"
	"github.com/fekuna/omnipos-order-service/internal/payment/provider"
	"github.com/fekuna/omnipos-order-service/internal/payment/settlement"
	payUCPkg "github.com/fekuna/omnipos-order-service/internal/payment/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	// 1. Load configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	i18n.Init()
	if path := os.Getenv("I18N_EXTRA_LOCALE"); path != "" {
		if err := i18n.Load(path); err != nil {
			log.Printf("Failed to load extra locale %s: %v", path, err)
		}
	}

	// 2. Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}
	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Tracing
	shutdownTracing, err := tracing.Setup(ctx, &tracing.Config{
		Enabled:        cfg.Tracing.Enabled,
		Endpoint:       cfg.Tracing.Endpoint,
		URLPath:        cfg.Tracing.URLPath,
		Insecure:       cfg.Tracing.Insecure,
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: os.Getenv("SERVICE_VERSION"),
		SampleRatio:    cfg.Tracing.SampleRatio,
	})
	if err != nil {
		appLogger.Fatal("Could not set up tracing", zap.Error(err))
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		if err := shutdownTracing(sctx); err != nil {
			appLogger.Warn("Tracing shutdown failed", zap.Error(err))
		}
	}()

	// 4. Unit of work
	var st store.Manager
	switch cfg.Server.StoreDriver {
	case "memory":
		appLogger.Warn("Using in-memory store; data is lost on restart")
		st = memory.New()
	default:
		pgCfg := &postgres.Config{
			Host:            cfg.Postgres.Host,
			Port:            cfg.Postgres.Port,
			User:            cfg.Postgres.User,
			Password:        cfg.Postgres.Password,
			DBName:          cfg.Postgres.DBName,
			SSLMode:         cfg.Postgres.SSLMode,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
			ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
		}
		if cfg.Server.RunMigrations {
			if err := postgres.Migrate(pgCfg, migrations.FS); err != nil {
				appLogger.Fatal("Could not run migrations", zap.Error(err))
			}
			appLogger.Info("Database migrations applied")
		}
		db, err := postgres.NewPostgres(pgCfg)
		if err != nil {
			appLogger.Fatal("Could not connect to database", zap.Error(err))
		}
		defer db.Close()
		appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))
		st = pgstore.New(db)
	}

	// 5. Redis
	var redisClient *cache.RedisClient
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Redis (item cache and sweep lock disabled)", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// 6. Elasticsearch
	var esClient *search.Client
	if cfg.Elastic.Enabled {
		esClient, err = search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Elasticsearch (search falls back to the database)", zap.Error(err))
			esClient = nil
		} else {
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 7. Kafka
	var notifier notification.Notifier
	var kafkaConsumer *broker.KafkaConsumer
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		notifier = notification.NewKafkaNotifier(producer, notification.Topics{
			Notifications: cfg.Kafka.NotificationsTopic,
			Events:        cfg.Kafka.EventsTopic,
		}, appLogger)

		kafkaConsumer = broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.StockTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer kafkaConsumer.Close()
		appLogger.Info("Connected to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("stock_topic", cfg.Kafka.StockTopic))
	} else {
		notifier = notification.NewLogNotifier(appLogger)
	}

	// 8. Payment provider
	paymentProvider, err := provider.New(&provider.Config{
		Default:              cfg.Payment.DefaultProvider,
		PaystackSecretKey:    cfg.Payment.PaystackSecretKey,
		PaystackPublicKey:    cfg.Payment.PaystackPublicKey,
		FlutterwaveSecretKey: cfg.Payment.FlutterwaveSecretKey,
		FlutterwavePublicKey: cfg.Payment.FlutterwavePublicKey,
		ManualBankName:       cfg.Payment.ManualBankName,
		ManualAccountNumber:  cfg.Payment.ManualAccountNumber,
		ManualAccountName:    cfg.Payment.ManualAccountName,
	}, appLogger)
	if err != nil {
		appLogger.Warn("Payment provider not configured (bank transfers disabled)", zap.Error(err))
	} else if !paymentProvider.IsAvailable() {
		appLogger.Warn("Payment provider missing configuration",
			zap.String("provider", paymentProvider.Name()),
			zap.Strings("requires", paymentProvider.ConfigRequirements()),
		)
	}
	gateway := provider.NewGateway(paymentProvider)

	// 9. UseCases
	ledger := stock.NewLedger(appLogger)
	engine := settlement.NewEngine(appLogger)
	itemSync := invUCPkg.NewItemSync(redisClient, esClient, appLogger)

	invUC := invUCPkg.NewInventoryUseCase(st, ledger, itemSync, redisClient, esClient, appLogger)
	orderUC := orderUCPkg.NewOrderUseCase(st, ledger, engine, gateway, itemSync, notifier, orderUCPkg.Settings{
		Currency:          cfg.Business.Currency,
		InvoiceDueDays:    cfg.Business.InvoiceDueDays,
		BankDetailsExpiry: cfg.Payment.BankDetailsExpiry,
	}, appLogger)
	payUC := payUCPkg.NewPaymentUseCase(st, engine, gateway, notifier, cfg.Payment.BankDetailsExpiry, appLogger)

	// 10. Background workers
	if kafkaConsumer != nil {
		invListener := invListenerPkg.NewInventoryListener(kafkaConsumer, invUC, appLogger)
		go invListener.Start(ctx)
	}
	if cfg.Maintenance.Enabled {
		var locker maintenance.Locker
		if redisClient != nil {
			locker = redisClient
		}
		sweeper := maintenance.NewSweeper(st, invUC, payUC, locker, maintenance.Config{
			Interval: cfg.Maintenance.SweepInterval,
			LockTTL:  cfg.Maintenance.LockTTL,
		}, appLogger)
		go sweeper.Start(ctx)
	}

	// 11. gRPC server
	port := cfg.Server.GRPCPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	lis, err := net.Listen("tcp", port)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.RecoveryInterceptor(appLogger),
			middleware.ContextInterceptor(),
			middleware.TenantInterceptor("/grpc.health.v1.Health/Check", "/grpc.health.v1.Health/Watch"),
			middleware.ErrorInterceptor(appLogger),
		),
	)

	invH.NewInventoryHandler(invUC, appLogger).Service().Register(grpcServer)
	orderH.NewOrderHandler(orderUC, appLogger).Service().Register(grpcServer)
	payH.NewPaymentHandler(payUC, appLogger).Service().Register(grpcServer)

	healthServer := health.NewServer()
	for _, name := range []string{invH.ServiceName, orderH.ServiceName, payH.ServiceName} {
		healthServer.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
	}
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	appLogger.Info("Starting gRPC server", zap.String("port", port), zap.String("store", cfg.Server.StoreDriver))

	// Graceful shutdown
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()
	cancel()
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}
