package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/STTM-NSU/financeel/internal/app"
	"github.com/STTM-NSU/financeel/internal/config"
	"github.com/STTM-NSU/financeel/internal/logger"
	"github.com/STTM-NSU/financeel/internal/scheduler"
	"github.com/STTM-NSU/financeel/internal/server"
	"github.com/joho/godotenv"
)

const (
	_cfgFilePath     = "./configs/financeel.yaml"
	_shutdownTimeout = 10 * time.Second
)

func main() {
	cfgPath := flag.String("config", _cfgFilePath, "path to the config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("can't detect .env file")
	}

	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("%s: can't load cfg", err)
	}

	zapLogger, loggerSync, err := logger.NewZapLogger(logger.ParseLevel(cfg.LogLevel))
	if err != nil {
		log.Fatalf("%s: can't init logger", err)
	}
	defer loggerSync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatalf("%s: can't init app", err)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), _shutdownTimeout)
		defer closeCancel()
		if err := a.Close(closeCtx); err != nil {
			zapLogger.Errorf("%s: can't close app", err)
		}
	}()

	sched := scheduler.New(ctx, zapLogger)
	refreshJob := scheduler.NewRefreshJob(a.Tracker)
	if cfg.Refresh.Schedule != "" {
		if err := sched.AddJob(cfg.Refresh.Schedule, refreshJob); err != nil {
			zapLogger.Fatalf("%s: can't schedule refresh", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Refresh.OnStartup {
		go sched.RunNow(refreshJob)
	}

	handler := server.NewHandler(a.Tracker, a.Display, zapLogger)
	httpServer := server.NewHTTPServer(ctx, cfg.Server.Port, server.NewRouter(handler, cfg.Server.CORSOrigins, zapLogger), zapLogger)

	if err := httpServer.Run(ctx); err != nil {
		zapLogger.Errorf("%s: http server stopped", err)
	}

	zapLogger.Infoln("start graceful shutdown")
}
