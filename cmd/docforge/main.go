package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/docforge/docpipe"
)

func main() {
	logLevel := env("LOG_LEVEL", "info")

	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	// Stdout carries the MCP protocol, logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := docpipe.Config{Logger: logger}
	if path := os.Getenv("CONFIG"); path != "" {
		loaded, err := docpipe.LoadConfig(path)
		if err != nil {
			slog.Error("config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
		cfg.Logger = logger
	}
	if cfg.EventDB == "" {
		cfg.EventDB = env("EVENT_DB", "")
	}

	pipe, err := docpipe.New(cfg)
	if err != nil {
		slog.Error("pipeline", "error", err)
		os.Exit(1)
	}
	defer pipe.Close()

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "docforge",
		Version: "1.0.0",
	}, nil)
	pipe.RegisterMCP(srv)

	slog.Info("docforge starting", "transport", "stdio")
	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		slog.Error("server", "error", err)
		os.Exit(1)
	}
	slog.Info("docforge stopped")
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
