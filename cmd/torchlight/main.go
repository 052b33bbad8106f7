package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/torchlight/internal/combat/projection"
	"github.com/louisbranch/torchlight/internal/combat/service"
	"github.com/louisbranch/torchlight/internal/mcp"
	"github.com/louisbranch/torchlight/internal/platform/config"
	"github.com/louisbranch/torchlight/internal/platform/otel"
	"github.com/louisbranch/torchlight/internal/storage/sqlite"
)

// appConfig is the process configuration loaded from the environment.
type appConfig struct {
	DBPath string `env:"TORCHLIGHT_DB_PATH" envDefault:"torchlight.db"`
}

// main starts the MCP server on stdio over a SQLite-backed combat engine.
func main() {
	log.SetPrefix("[torchlight] ")

	var cfg appConfig
	if err := config.ParseEnv(&cfg); err != nil {
		config.Exitf("parse config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Setup(ctx, "torchlight")
	if err != nil {
		config.Exitf("setup tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("shutdown tracing: %v", err)
		}
	}()

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		config.Exitf("open storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close storage: %v", err)
		}
	}()

	server, err := mcp.New(mcp.Dependencies{
		Combat:     service.New(store),
		Projection: projection.New(store),
		Opponents:  store,
	})
	if err != nil {
		config.Exitf("configure MCP server: %v", err)
	}

	log.Printf("serving MCP on stdio db=%s", cfg.DBPath)
	if err := server.Serve(); err != nil {
		config.Exitf("serve MCP: %v", err)
	}
}
