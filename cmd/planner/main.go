package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"local-path-planner/path_plan"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}

	var configPath string
	var liveAddr string
	var outputAddr string
	var logLevel string
	flag.StringVar(&configPath, "config", getEnv("PLANNER_CONFIG", ""), "Path to JSON or YAML config; defaults are used when empty.")
	flag.StringVar(&liveAddr, "live-addr", os.Getenv("PLANNER_LIVE_ADDR"), "Override snapshot UDP listen addr (host:port).")
	flag.StringVar(&outputAddr, "output-addr", os.Getenv("PLANNER_OUTPUT_ADDR"), "Override path output UDP addr (host:port).")
	flag.StringVar(&logLevel, "log-level", os.Getenv("PLANNER_LOG_LEVEL"), "Override log level (debug, info, warn, error).")
	flag.Parse()

	cfg := path_plan.DefaultAppConfig()
	if configPath != "" {
		loaded, err := path_plan.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("load config %q: %v", configPath, err)
		}
		cfg = loaded
	}

	if liveAddr != "" {
		cfg.Live.UDPAddr = liveAddr
	}
	if outputAddr != "" {
		cfg.Output.UDPAddr = outputAddr
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger, err := path_plan.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := path_plan.RunLive(ctx, cfg, logger); err != nil {
		logger.Fatal("planner stopped", zap.Error(err))
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
