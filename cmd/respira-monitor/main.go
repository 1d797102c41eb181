package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"respira-monitor/internal/api"
	"respira-monitor/internal/cache"
	"respira-monitor/internal/config"
	"respira-monitor/internal/database"
	"respira-monitor/internal/logger"
	"respira-monitor/internal/notifier"
	"respira-monitor/internal/repository"
	"respira-monitor/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting respira-monitor",
		zap.String("http_addr", cfg.HTTP.Addr),
		zap.String("mqtt_broker", cfg.MQTT.Broker),
		zap.String("telemetry_topic", cfg.Telemetry.Topic),
	)

	// PostgreSQL
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	// Redis
	redisClient := cache.NewRedisClient(&cfg.Redis)
	defer redisClient.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := cache.Ping(ctx, redisClient); err != nil {
		zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	cancel()

	// 仓库
	doctorRepo := repository.NewDoctorRepository(db, zapLogger)
	patientRepo := repository.NewPatientRepository(db, zapLogger)
	familyRepo := repository.NewFamilyRepository(db, zapLogger)
	deviceRepo := repository.NewDeviceRepository(db, zapLogger)
	sessionRepo := repository.NewSessionRepository(db, zapLogger)

	// 监测服务：MQTT 传输 + 会话存储 + 可选临床推送
	transport := service.NewMQTTTransport(
		cfg,
		deviceRepo,
		cache.NewRedisKVStore(redisClient),
		cache.NewRedisStreamPublisher(redisClient),
		zapLogger,
	)

	var summarySink service.SummarySink
	if cfg.Clinical.Enabled {
		summarySink = notifier.NewClinicalNotifier(cfg, zapLogger)
		zapLogger.Info("Clinical summary push enabled", zap.String("endpoint", cfg.Clinical.Endpoint))
	}

	monitor := service.NewMonitor(cfg, transport, sessionRepo, summarySink, zapLogger)

	// HTTP
	router := api.NewRouter(api.Handlers{
		Monitor: api.NewMonitorHandler(monitor, zapLogger),
		Live:    api.NewLiveHandler(monitor, zapLogger),
		Doctor:  api.NewDoctorHandler(doctorRepo, zapLogger),
		Patient: api.NewPatientHandler(patientRepo, zapLogger),
		Family:  api.NewFamilyHandler(familyRepo, zapLogger),
		Device:  api.NewDeviceHandler(deviceRepo, zapLogger),
		Session: api.NewSessionHandler(sessionRepo, zapLogger),
		Health:  api.NewHealthHandler(db, redisClient, zapLogger),
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // WebSocket 推送不设写超时
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zapLogger.Info("HTTP server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// 等待退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	zapLogger.Info("Received signal, shutting down", zap.String("signal", sig.String()))

	// 先结束监测会话（断开代理、关闭会话行、推送汇总），再停 HTTP
	if err := monitor.Stop(); err != nil {
		zapLogger.Warn("Error stopping monitor during shutdown", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	zapLogger.Info("Shutdown complete")
}
