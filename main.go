package main

import (
	"context"
	"net/http"
	"time"

	"github.com/yumyai/calypso/internal/config"
	"github.com/yumyai/calypso/logger"
	covdb "github.com/yumyai/calypso/pkg/db"
	"github.com/yumyai/calypso/pkg/handler"
	"github.com/yumyai/calypso/pkg/middle"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const VERSION = "0.1.0"

func main() {

	// Establish logger
	if err := logger.InitLogger(zapcore.InfoLevel); err != nil {
		panic(err)
	}
	defer logger.Sync() // Make sure that the buffered is flushed.

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}
	level, _ := logger.ParseLevel(cfg.LogLevel)
	if level != zapcore.InfoLevel {
		if err := logger.InitLogger(level); err != nil {
			panic(err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := covdb.Open(ctx, cfg.DBPath)
	cancel()
	if err != nil {
		logger.Fatal("Cannot open database", zap.String("DB_LOC", cfg.DBPath), zap.Error(err))
	}
	defer db.Close()

	app := &handler.AppContext{
		DB:         db,
		Analyses:   handler.NewAnalysisJobManager(),
		ExportDir:  cfg.ExportDir,
		Thresholds: cfg.Thresholds,
		Engine:     cfg.Engine,
		Workers:    cfg.FetchWorkers,
		PageSize:   cfg.PageSize,
	}

	logger.Info("Start:", zap.String("Version", VERSION))
	logger.Info("Open database on", zap.String("DB_LOC", cfg.DBPath))

	httpLog := logger.Named("http")
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           middle.Chain(NewRouter(app), middle.RequestIDMiddleware(httpLog), middle.LoggingMiddleware(httpLog)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting", zap.String("addr", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("Error starting server:", zap.String("error message", err.Error()))
	}
}
