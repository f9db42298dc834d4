package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"seat-monitor/internal/config"
	httpapi "seat-monitor/internal/http"
	"seat-monitor/internal/logger"
	"seat-monitor/internal/service"

	"go.uber.org/zap"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Logger
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "seat-monitor")
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Monitor service (store, engine, consumers, notifiers)
	monitor, err := service.NewMonitorService(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to create monitor service", zap.Error(err))
	}
	if err := monitor.Start(ctx); err != nil {
		log.Fatal("Failed to start monitor service", zap.Error(err))
	}

	// 4. HTTP + WebSocket
	router := httpapi.NewRouter(log)
	router.RegisterMonitorRoutes(httpapi.NewMonitorHandler(monitor.Engine(), monitor.Backend(), log))
	router.RegisterSocketRoutes(httpapi.NewSocketHandler(monitor.Engine(), cfg.Monitor.SubscriberBuffer, log))
	srv := service.NewServer(cfg.Server.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// 5. Wait for a signal or a listener failure
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server error", zap.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", zap.Error(err))
	}
	if err := monitor.Stop(shutdownCtx); err != nil {
		log.Warn("Monitor shutdown incomplete", zap.Error(err))
	}
	cancel()

	log.Info("Seat monitor stopped")
}
