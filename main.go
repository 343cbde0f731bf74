package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"food-delivery-api/audit"
	"food-delivery-api/config"
	"food-delivery-api/handlers"
	"food-delivery-api/metrics"
	"food-delivery-api/middleware"
	"food-delivery-api/repository"
	"food-delivery-api/routes"
	"food-delivery-api/statemachine"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

const (
	envFilePath     = ".env"
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := godotenv.Load(envFilePath); err != nil {
		logrus.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	gin.SetMode(cfg.GinMode)

	logger := config.NewLogger(cfg.Log, os.Stdout)

	db, err := config.OpenDB(cfg.DBPath, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to open database")
	}
	if err := config.SeedAdmin(context.Background(), db, cfg.Admin, logger); err != nil {
		logger.WithError(err).Fatal("failed to seed admin account")
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(promRegistry)

	orders := repository.NewOrderRepository(db)
	tokens := middleware.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Expiry)

	registry, err := routes.NewRegistry()
	if err != nil {
		logger.WithError(err).Fatal("invalid permission table")
	}

	h := handlers.New(handlers.Deps{
		Orders:         orders,
		Restaurants:    repository.NewRestaurantRepository(db),
		Users:          repository.NewUserRepository(db),
		Invoices:       repository.NewInvoiceRepository(db),
		Machine:        statemachine.New(orders, statemachine.WithObserver(m)),
		Tokens:         tokens,
		Permissions:    registry,
		CommissionRate: cfg.CommissionRate,
		Log:            logger,
	})

	authLimiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go authLimiter.Run(sweepCtx, cfg.RateLimit.IdleTTL/2, cfg.RateLimit.IdleTTL, logger)

	router, err := routes.NewRouter(h, routes.Options{
		Registry:    registry,
		Audit:       audit.NewLogSink(logger, m),
		Tokens:      tokens,
		AuthLimiter: authLimiter,
		Metrics:     m,
		Gatherer:    promRegistry,
		Log:         logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("refusing to start")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
