// Command server runs the POS sale-session service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/apiclient"
	"github.com/Minhquanzz1002/cinema-web-sub001/internal/config"
	"github.com/Minhquanzz1002/cinema-web-sub001/internal/database"
	"github.com/Minhquanzz1002/cinema-web-sub001/internal/handler"
	"github.com/Minhquanzz1002/cinema-web-sub001/internal/logger"
	"github.com/Minhquanzz1002/cinema-web-sub001/internal/middleware"
	"github.com/Minhquanzz1002/cinema-web-sub001/internal/queue"
	"github.com/Minhquanzz1002/cinema-web-sub001/internal/repository"
	"github.com/Minhquanzz1002/cinema-web-sub001/internal/router"
	"github.com/Minhquanzz1002/cinema-web-sub001/internal/sale"
	"github.com/Minhquanzz1002/cinema-web-sub001/internal/service"
	"github.com/Minhquanzz1002/cinema-web-sub001/internal/telemetry"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.IsDev())
	shutdownTracing := telemetry.Setup("pos-sale-service", log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("mysql connect failed")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.WithError(err).Fatal("mysql migrate failed")
	}

	rdb, err := config.NewRedisClient(config.LoadRedisOptions())
	if err != nil {
		log.WithError(err).Warn("redis unavailable: snapshots, rate limiting and catalog cache disabled")
	} else {
		defer rdb.Close()
	}

	api := apiclient.New(cfg.CinemaAPIURL, cfg.CinemaAPIToken, cfg.APITimeout)
	receipts := repository.NewReceiptRepo(db)
	incidents := repository.NewIncidentRepo(db)
	publisher := service.NewQueuePublisher(cfg.AMQPURL, log)
	recorder := service.NewSaleRecorder(receipts, incidents, publisher, log)

	saleCfg := config.LoadSaleConfig()
	// interfaces stay untyped nil without Redis so the consumers can tell
	var (
		snapshots sale.SnapshotStore
		scripter  redis.Scripter
	)
	health := &handler.HealthHandler{Deps: map[string]handler.Pinger{"mysql": db}}
	if rdb != nil {
		snapshots = repository.NewSessionSnapshotRepo(rdb, saleCfg.SnapshotPrefix, saleCfg.SnapshotTTL)
		scripter = rdb
		health.Deps["redis"] = handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	manager := sale.NewManager(api, recorder, snapshots, saleCfg, clockwork.NewRealClock(), log)

	consumer := queue.NewConsumer(cfg.AMQPURL, cfg.LogDir, log)
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("queue consumer stopped")
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RequestID(), echomw.Recover(), middleware.RequestLog(log))

	router.RegisterRoutes(e, health)
	router.RegisterPOS(e, router.POS{
		Sales:     &handler.SaleHandler{Sessions: manager, Catalog: api, Log: log},
		Catalog:   &handler.CatalogHandler{Catalog: api, Log: log},
		Receipts:  &handler.ReceiptHandler{Receipts: receipts, Log: log},
		JWTSecret: cfg.JWTSecret,
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), scripter, log),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	})
	router.RegisterOps(e, &handler.IncidentHandler{Incidents: incidents, Log: log}, cfg.JWTSecret)

	go func() {
		addr := ":" + cfg.Port
		log.WithField("addr", addr).WithField("env", cfg.Env).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	// sessions stay in Redis and resume on the next start
	manager.Shutdown()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.WithError(err).Warn("tracing shutdown")
	}
}
