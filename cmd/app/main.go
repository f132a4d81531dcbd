package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"SessionEdge/internal/di"
	"SessionEdge/internal/domain/models"
	"SessionEdge/pkg/config"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	mode := flag.String("mode", "run", "run | serve | ideas")
	var req models.TradeIdeasRequest
	flag.Float64Var(&req.Open, "open", 0, "first bar open (ideas mode)")
	flag.Float64Var(&req.High, "high", 0, "first bar high (ideas mode)")
	flag.Float64Var(&req.Low, "low", 0, "first bar low (ideas mode)")
	flag.Float64Var(&req.Close, "close", 0, "first bar close (ideas mode)")
	flag.Float64Var(&req.PrevClose, "prev-close", 0, "previous session close (ideas mode)")
	flag.Float64Var(&req.MA, "ma", 0, "trend moving average, 0 to skip (ideas mode)")
	flag.Float64Var(&req.ATR, "atr", 0, "average true range, 0 for the configured default (ideas mode)")
	flag.Parse()

	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("env file: %v", err)
	}

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	// Wire DI: Initialize all dependencies
	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	var runErr error
	switch *mode {
	case "run":
		var dir string
		if dir, runErr = app.RunBatch(ctx); runErr == nil {
			fmt.Println(dir)
		}
	case "serve":
		runErr = app.Serve(ctx)
	case "ideas":
		runErr = app.Ideas(ctx, req, os.Stdout)
	default:
		runErr = fmt.Errorf("unknown mode %q", *mode)
	}

	stop()
	if err := app.Close(); err != nil {
		log.Printf("close: %v", err)
	}
	cleanup()

	if runErr != nil {
		log.Printf("app error: %v", runErr)
		os.Exit(1)
	}
}
