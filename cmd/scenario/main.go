// Package main provides a CLI for running Lua scenario scripts.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	scenariocmd "github.com/harrowgate/momentum-engine/internal/cmd/scenario"
	"github.com/harrowgate/momentum-engine/internal/platform/config"
	"github.com/harrowgate/momentum-engine/internal/platform/otel"
)

func main() {
	logger := log.New(os.Stderr, "[scenario] ", log.LstdFlags)

	// Optional .env for local runs.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Printf("load .env: %v", err)
	}

	cfg, err := scenariocmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := otel.Setup(ctx, "momentum-engine-scenario")
	if err != nil {
		logger.Printf("otel setup: %v", err)
	} else {
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Printf("otel shutdown: %v", err)
			}
		}()
	}

	if err := scenariocmd.Run(ctx, cfg, os.Stderr); err != nil {
		config.Exitf("Error: %v", err)
	}
}
