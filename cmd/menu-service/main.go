package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fjod/go_cart/menu/internal/cache"
	"github.com/fjod/go_cart/menu/internal/catalog"
	"github.com/fjod/go_cart/menu/internal/config"
	"github.com/fjod/go_cart/menu/internal/consumer"
	h "github.com/fjod/go_cart/menu/internal/http"
	"github.com/fjod/go_cart/menu/internal/identity"
	"github.com/fjod/go_cart/menu/internal/kitchen"
	"github.com/fjod/go_cart/menu/internal/kv"
	"github.com/fjod/go_cart/menu/internal/publisher"
	"github.com/fjod/go_cart/menu/internal/repository"
	"github.com/fjod/go_cart/menu/internal/service"
	"github.com/fjod/go_cart/menu/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("service_stopped_with_error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("service_stopped")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := service.NewMetrics(reg)

	store, closeStore, err := openCartStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	closers = append(closers, closeStore)

	cat, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	closers = append(closers, func() { _ = cat.Close() })
	log.Info("catalog_ready", zap.String("path", cfg.CatalogDBPath))

	var (
		kitchenSvc *kitchen.Service
		submitter  service.OrderSubmitter
	)
	if cfg.LocalKitchen() {
		orders, closeOrders, err := openOrders(ctx, cfg, log)
		if err != nil {
			return err
		}
		closers = append(closers, closeOrders)
		kitchenSvc = kitchen.NewService(orders, log.Named("kitchen"))
	}

	switch cfg.KitchenMode {
	case config.KitchenLocal:
		submitter = kitchenSvc
	case config.KitchenHTTP:
		submitter = kitchen.NewClient(cfg.KitchenURL, cfg.KitchenTimeout, log.Named("kitchen-client"))
		log.Info("kitchen_remote", zap.String("url", cfg.KitchenURL))
	case config.KitchenKafka:
		p := publisher.NewKafkaSubmitter(cfg.KafkaTopic, cfg.KafkaBrokers...)
		closers = append(closers, func() { _ = p.Close() })
		submitter = p
		log.Info("kitchen_kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	var auth h.Authenticator
	if cfg.StaffFile != "" {
		dir, err := identity.LoadDirectory(cfg.StaffFile, cfg.SessionTTL)
		if err != nil {
			return err
		}
		auth = dir
		log.Info("staff_directory_loaded", zap.String("path", cfg.StaffFile))
	}

	terminals := service.NewTerminals(service.TerminalConfig{
		Store:     store,
		Submitter: submitter,
		Checkout: service.CheckoutOptions{
			SubmitTimeout:       cfg.SubmitTimeout,
			ResetTableOnSuccess: cfg.ResetTableOnSubmit,
			Tables:              cat,
		},
		MaxTerminals:    cfg.MaxTerminals,
		MaxLineQuantity: cfg.MaxLineQuantity,
		Logger:          log,
		Metrics:         metrics,
	})

	routerCfg := h.RouterConfig{
		Terminals:      terminals,
		Catalog:        cat,
		Auth:           auth,
		Gatherer:       reg,
		Logger:         log,
		RequestTimeout: cfg.RequestTimeout,
	}
	if kitchenSvc != nil {
		routerCfg.Kitchen = kitchenSvc
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      http.MaxBytesHandler(h.NewRouter(routerCfg), cfg.MaxRequestBodySize),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http_server_start", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if cfg.KitchenConsumer && kitchenSvc != nil {
		c := consumer.NewKitchenConsumer(kitchenSvc, cfg.KafkaTopic, cfg.KafkaGroupID, log.Named("kitchen-consumer"), cfg.KafkaBrokers...)
		g.Go(func() error {
			defer c.Close()
			log.Info("kitchen_consumer_start", zap.String("topic", cfg.KafkaTopic), zap.String("group", cfg.KafkaGroupID))
			return c.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("http_server_shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openCartStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (kv.Store, func(), error) {
	switch cfg.CartStorage {
	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis connection failed: %w", err)
		}
		log.Info("cart_storage_ready", zap.String("backend", "redis"), zap.String("addr", cfg.RedisAddr))
		return cache.NewRedisStore(client, cfg.CartTTL), func() { _ = client.Close() }, nil

	case config.StorageMongo:
		store, err := repository.OpenMongoStore(ctx, repository.MongoOptions{
			URI:            cfg.MongoURI,
			Database:       cfg.MongoDBName,
			AppName:        cfg.ServiceName,
			MaxPoolSize:    uint64(cfg.MongoMaxPool),
			MinPoolSize:    uint64(cfg.MongoMinPool),
			ConnectTimeout: cfg.MongoTimeout,
			SnapshotTTL:    cfg.CartTTL,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info("cart_storage_ready",
			zap.String("backend", "mongo"),
			zap.String("db", cfg.MongoDBName),
			zap.Int("max_pool", cfg.MongoMaxPool))
		return store, func() { _ = store.Close(context.Background()) }, nil

	default:
		log.Warn("cart_storage_ready", zap.String("backend", "memory"), zap.String("note", "carts are lost on restart"))
		return kv.NewMemory(), func() {}, nil
	}
}

func openCatalog(cfg *config.Config) (*catalog.Repository, error) {
	if cfg.CatalogDBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.CatalogDBPath), 0o755); err != nil {
			return nil, fmt.Errorf("create catalog dir: %w", err)
		}
	}
	cat, err := catalog.NewRepository(cfg.CatalogDBPath)
	if err != nil {
		return nil, err
	}
	if err := cat.RunMigrations(); err != nil {
		_ = cat.Close()
		return nil, err
	}
	return cat, nil
}

func openOrders(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.OrderRepository, func(), error) {
	if cfg.OrderStore != config.OrdersPostgres {
		log.Info("order_store_ready", zap.String("backend", "memory"))
		return repository.NewMemoryOrders(), func() {}, nil
	}

	orders, err := repository.NewPostgresOrders(ctx, &repository.Credentials{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := orders.RunMigrations(); err != nil {
		_ = orders.Close()
		return nil, nil, err
	}
	log.Info("order_store_ready", zap.String("backend", "postgres"), zap.String("host", cfg.DBHost))
	return orders, func() { _ = orders.Close() }, nil
}
