package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"ucm/internal/audit"
	audithandler "ucm/internal/audit/handler"
	"ucm/internal/catalog"
	cataloghandler "ucm/internal/catalog/handler"
	"ucm/internal/consent"
	consenthandler "ucm/internal/consent/handler"
	"ucm/internal/platform/config"
	"ucm/internal/platform/database"
	"ucm/internal/platform/health"
	"ucm/internal/platform/httpserver"
	"ucm/internal/platform/kafka/producer"
	"ucm/internal/platform/logger"
	"ucm/internal/platform/metrics"
	"ucm/internal/platform/middleware/privacyheaders"
	"ucm/internal/platform/redis"
	"ucm/internal/region"
	"ucm/internal/runtime"
	runtimehandler "ucm/internal/runtime/handler"
	httptransport "ucm/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing consent engine",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"postgres", cfg.DatabaseURL != "",
		"redis", cfg.RedisURL != "",
		"kafka", cfg.KafkaBrokers != "",
	)

	m := metrics.New()

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	pool, err := database.New(dbCfg)
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis init failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Stores: PostgreSQL when configured, in-memory otherwise.
	var (
		vendorStore  catalog.VendorStore
		auditStore   audit.Store
		consentStore consent.Store
	)
	if pool != nil {
		vendorStore = catalog.NewPostgresVendorStore(pool.DB())
		auditStore = audit.NewPostgres(pool.DB())
		consentStore = consent.NewPostgresStore(pool.DB())
	} else {
		memVendors := catalog.NewInMemoryVendorStore()
		if err := memVendors.Seed(ctx); err != nil {
			log.Error("vendor seed failed", "error", err)
			os.Exit(1)
		}
		memAudit := audit.NewInMemoryStore()
		vendorStore = memVendors
		auditStore = memAudit
		consentStore = consent.NewInMemoryStore(memAudit)
	}

	cat := catalog.New(vendorStore, log, m)
	if err := cat.Refresh(ctx); err != nil {
		// Serve anyway: the runtime endpoint answers 503 until the
		// refresher lands a snapshot.
		log.Error("initial catalog load failed", "error", err)
	}

	publisherOpts := []audit.PublisherOption{
		audit.WithAsyncBuffer(1024),
		audit.WithMetrics(m),
	}
	var kafkaProducer *producer.Producer
	if cfg.KafkaBrokers != "" {
		producerCfg := producer.DefaultConfig()
		producerCfg.Brokers = cfg.KafkaBrokers
		kafkaProducer, err = producer.New(producerCfg, log)
		if err != nil {
			log.Error("kafka producer init failed", "error", err)
			os.Exit(1)
		}
		publisherOpts = append(publisherOpts, audit.WithSink(audit.NewKafkaSink(kafkaProducer, cfg.AuditTopic, log)))
	}
	publisher := audit.NewPublisher(auditStore, log, publisherOpts...)

	resolver := runtime.NewResolver(cat, m)

	var deduper consent.Deduper
	if redisClient != nil {
		deduper = consent.NewRedisDeduper(redisClient)
	} else {
		deduper = consent.NewInMemoryDeduper()
	}
	consentService := consent.NewService(
		consentStore,
		resolver,
		deduper,
		consent.NewReceiptSigner(cfg.ReceiptSigningKey),
		cfg.ConsentDedupeWindow,
		log,
		m,
	)

	healthHandler := health.New(cfg.Environment)
	healthHandler.RegisterCheck("catalog", func() error {
		_, err := cat.Lookup(region.US)
		return err
	})
	if pool != nil {
		healthHandler.RegisterCheck("postgres", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(checkCtx)
		})
	}
	if redisClient != nil {
		healthHandler.RegisterCheck("redis", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Health(checkCtx)
		})
	}

	var observer *privacyheaders.Observer
	if cfg.PrivacyLogging {
		observer = privacyheaders.NewObserver(publisher, log)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Runtime:         runtimehandler.New(resolver, log),
		Consent:         consenthandler.New(consentService, log),
		Audit:           audithandler.New(publisher, log),
		Vendors:         cataloghandler.New(vendorStore, cat, log),
		Health:          healthHandler,
		Metrics:         m,
		Logger:          log,
		AdminKey:        cfg.AdminKey,
		PrivacyObserver: observer,
	})
	srv := httpserver.New(cfg.Addr, router)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		err := cat.RunRefresher(groupCtx, cfg.CatalogRefreshInterval)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
	}

	publisher.Close()
	if kafkaProducer != nil {
		kafkaProducer.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if pool != nil {
		_ = pool.Close()
	}
	log.Info("server stopped")
}
