package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"robot-pick-system/internal/common/config"
	"robot-pick-system/internal/common/logger"
	"robot-pick-system/internal/microservices/control"
	"robot-pick-system/internal/microservices/notificator"
)

func main() {
	mode := flag.String("mode", "control-service", "control-service | status-subscriber")
	cfgPath := flag.String("config", "", "path to YAML config (default: config.yaml if present)")
	port := flag.Int("port", 0, "control-service: http port, overrides the config file")
	flag.Parse()

	path := *cfgPath
	if path == "" {
		// no file found keeps the defaults
		path, _ = config.FindConfig()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := logger.Init(cfg.Log); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	lg := logger.New("bootstrap")
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch *mode {
	case "control-service":
		if err := control.Run(ctx, cfg); err != nil {
			lg.Error("fatal", err, map[string]any{"mode": *mode})
			os.Exit(1)
		}
	case "status-subscriber":
		if !cfg.Rabbit.Enabled() {
			fmt.Fprintln(os.Stderr, "status-subscriber needs rabbitmq.host in the config")
			os.Exit(2)
		}
		lg.Info("service_started", map[string]any{"service": "status-subscriber", "exchange": cfg.Rabbit.Exchange})
		if err := notificator.Start(ctx, cfg.Rabbit); err != nil {
			lg.Error("fatal", err, map[string]any{"mode": *mode})
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, "--mode must be control-service | status-subscriber")
		os.Exit(2)
	}
}
