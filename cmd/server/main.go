package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"repuestos/internal/commons"
	"repuestos/internal/equivalence"
	"repuestos/internal/infrastructure/logger"
	"repuestos/internal/infrastructure/metrics"
	"repuestos/internal/infrastructure/mysql"
	"repuestos/internal/infrastructure/tracing"
	"repuestos/internal/movement"
	"repuestos/internal/product"
	"repuestos/internal/server"
)

var version = "dev"

func main() {
	cfg, err := commons.LoadConfig("internal/config/config.yaml")
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log, "repuestos")
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx := context.Background()

	tp, err := tracing.Init(ctx, cfg.Tracing, version)
	if err != nil {
		zapLogger.Fatal("initializing tracing", zap.Error(err))
	}

	db, err := mysql.NewConnection(ctx, cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	if cfg.Database.AutoMigrate {
		if err := mysql.Migrate(ctx, db); err != nil {
			zapLogger.Fatal("running migrations", zap.Error(err))
		}
		zapLogger.Info("schema up to date")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, cfg.Database.Name),
	)
	m := metrics.New(reg)

	movementModule := movement.NewModule(db, cfg, m, zapLogger)
	productCtrl := product.NewModule(db, cfg, movementModule.Ledger, m, zapLogger)
	equivalenceCtrl := equivalence.NewModule(db, cfg, m, zapLogger)

	router := server.NewRouter(
		server.Controllers{
			Products:     productCtrl,
			Movements:    movementModule.Controller,
			Equivalences: equivalenceCtrl,
		},
		server.RouterOptions{
			DB:       db,
			Metrics:  m,
			Gatherer: reg,
			CORS:     cfg.CORS,
			Logger:   zapLogger,
		},
	)

	srv := server.New(cfg.Server, router, zapLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server shutdown failed", zap.Error(err))
	}

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	if err := tracing.Shutdown(flushCtx, tp); err != nil {
		zapLogger.Warn("flushing traces", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}
