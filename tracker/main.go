package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	cfg := DefaultConfig()
	switch len(os.Args) {
	case 1:
		// all defaults
	case 2:
		// A bare port keeps the original invocation working; anything
		// else is a config file path.
		if port, convErr := strconv.Atoi(os.Args[1]); convErr == nil {
			cfg.ListenAddr = fmt.Sprintf(":%d", port)
		} else {
			cfg, err = LoadConfig(os.Args[1])
			if err != nil {
				log.Fatalw("config load failed", "err", err)
			}
		}
	default:
		fmt.Println("Usage: tracker [config_file | port]")
		os.Exit(1)
	}

	creds, err := LoadCredentials(cfg.CredentialsFile)
	if err != nil {
		log.Fatalw("credentials load failed", "err", err)
	}
	log.Infow("credentials loaded", "users", len(creds), "file", cfg.CredentialsFile)

	reg := NewRegistry(creds)
	srv, err := NewServer(cfg.ListenAddr, reg, cfg.Workers, log)
	if err != nil {
		log.Fatalw("tracker start failed", "err", err)
	}

	go srv.RunReaper(time.Duration(cfg.ReaperInterval), time.Duration(cfg.HeartbeatTimeout))
	go srv.Serve()
	log.Infow("tracker running", "addr", srv.Addr().String(), "workers", cfg.Workers)

	if cfg.AdminAddr != "" {
		admin := StartAdmin(cfg.AdminAddr, reg, log)
		defer admin.Close()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("tracker stopping")
	srv.Close()
}
