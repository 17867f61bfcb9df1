// Copyright MeiGen Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/leseb/meigen-gw/pkg/adapters/http"
	"github.com/leseb/meigen-gw/pkg/core/config"
	"github.com/leseb/meigen-gw/pkg/core/services"
	"github.com/leseb/meigen-gw/pkg/gallery"
	_ "github.com/leseb/meigen-gw/pkg/imagegen/openai"
	"github.com/leseb/meigen-gw/pkg/library"
	"github.com/leseb/meigen-gw/pkg/library/memory"
	_ "github.com/leseb/meigen-gw/pkg/library/sqldb"
	"github.com/leseb/meigen-gw/pkg/mcp"
	"github.com/leseb/meigen-gw/pkg/observability/logging"
	"github.com/leseb/meigen-gw/pkg/provider"
	"github.com/leseb/meigen-gw/pkg/websearch"
)

var (
	// Version is set via ldflags during build
	Version   = "dev"
	BuildTime = "unknown"
)

// importer is implemented by library backends that can be loaded from a
// JSON export.
type importer interface {
	Import(ctx context.Context, entries []library.Entry) error
}

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	port := flag.Int("port", 0, "HTTP port to listen on (overrides config)")
	stdio := flag.Bool("stdio", false, "Serve MCP tools over stdin/stdout instead of HTTP")
	importPath := flag.String("import", "", "Load a JSON prompt library export into the sqlite/postgres library before serving")
	version := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	// Print version
	if *version {
		fmt.Printf("MeiGen Gateway Server\nVersion: %s\nBuild Time: %s\n", Version, BuildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Override port if specified
	if *port != 0 {
		cfg.Server.Port = *port
	}

	// stdout belongs to the MCP transport in stdio mode
	logOutput := os.Stdout
	if *stdio {
		logOutput = os.Stderr
	}
	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: logOutput,
	})
	logger.Info("Starting MeiGen Gateway Server",
		"version", Version,
		"build_time", BuildTime)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize prompt library
	lib, err := library.Backends.New(ctx, cfg.Library.Type, provider.Params{
		"path": cfg.Library.Path,
		"dsn":  cfg.Library.DSN,
	})
	if err != nil {
		logger.Error("Failed to initialize prompt library", "error", err, "type", cfg.Library.Type)
		os.Exit(1)
	}
	defer lib.Close()
	logger.Info("Initialized prompt library", "type", cfg.Library.Type)

	if *importPath != "" {
		if err := importLibrary(ctx, lib, *importPath); err != nil {
			logger.Error("Failed to import prompt library", "error", err, "path", *importPath)
			os.Exit(1)
		}
		logger.Info("Imported prompt library", "path", *importPath)
	}

	// Initialize services
	remote := websearch.NewClient(cfg.MeiGen.BaseURL, logger)
	images := services.NewImageService(services.ImageServiceOptions{
		Config:  cfg,
		Gallery: gallery.New(remote, lib, logger),
		Logger:  logger,
	})
	def, ok := images.GetDefaultProvider()
	logger.Info("Initialized image service",
		"providers", images.ListAvailableProviders(),
		"default_provider", def,
		"has_provider", ok)

	tools := mcp.NewServer(images, Version, logger)

	if *stdio {
		if err := tools.RunStdio(ctx); err != nil && ctx.Err() == nil {
			logger.Error("MCP stdio server error", "error", err)
			os.Exit(1)
		}
		logger.Info("MCP stdio session ended")
		return
	}

	// Initialize HTTP adapter
	handler := httpAdapter.New(images, logger)
	handler.Mount("/mcp", tools.HTTPHandler())
	logger.Info("Initialized HTTP adapter")

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	logger.Info("Shutdown signal received")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}

func importLibrary(ctx context.Context, lib library.Library, path string) error {
	imp, ok := lib.(importer)
	if !ok {
		return errors.New("library backend does not support import; use library.path with the memory backend")
	}
	entries, err := memory.ReadFile(path)
	if err != nil {
		return err
	}
	return imp.Import(ctx, entries)
}
