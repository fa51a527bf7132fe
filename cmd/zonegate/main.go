package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urbanmesh/zonegate/internal/config"
	"github.com/urbanmesh/zonegate/internal/evaluate"
	"github.com/urbanmesh/zonegate/internal/ingest"
	"github.com/urbanmesh/zonegate/internal/logger"
	"github.com/urbanmesh/zonegate/internal/mcp"
	"github.com/urbanmesh/zonegate/internal/store"
	"github.com/urbanmesh/zonegate/internal/tools"
	"github.com/urbanmesh/zonegate/internal/tools/compliance"
	"github.com/urbanmesh/zonegate/internal/tools/projects"
	"github.com/urbanmesh/zonegate/internal/tools/rules"
	"github.com/urbanmesh/zonegate/internal/watcher"
	"github.com/urbanmesh/zonegate/pkg/version"
)

func main() {
	cfg := config.Load()

	// stdout carries the MCP stream, so all logging goes to stderr.
	logger.Init(logger.Config{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: "text",
		Output: os.Stderr,
	})

	log := logger.ForComponent("main")
	log.Info("starting zonegate", "version", version.Version)

	if err := cfg.EnsureDirectories(); err != nil {
		log.Error("failed to ensure directories", "error", err)
		os.Exit(1)
	}

	st, err := store.New(cfg.DatabasePath)
	if err != nil {
		log.Error("failed to open store", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	worker := ingest.NewWorker(ingest.NewIngestor(st), cfg.Ingest)
	worker.Start()
	defer worker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Watcher.Enabled && len(cfg.WatchDirs) > 0 {
		w, err := watcher.New(cfg.Watcher, worker)
		if err != nil {
			log.Error("failed to create watcher", "error", err)
			os.Exit(1)
		}

		if err := w.Start(ctx); err != nil {
			log.Error("failed to start watcher", "error", err)
			os.Exit(1)
		}
		defer w.Stop()

		for _, dir := range cfg.WatchDirs {
			if err := w.AddRoot(dir); err != nil {
				log.Warn("failed to watch drop folder", "path", dir, "error", err)
			}
		}
	}

	registry := tools.NewRegistry()
	evaluator := evaluate.New(cfg.EvalTolerance)

	var toolSet []tools.Tool
	toolSet = append(toolSet, rules.GetTools(st)...)
	toolSet = append(toolSet, projects.GetTools(st)...)
	toolSet = append(toolSet, compliance.GetTools(st, evaluator)...)
	toolSet = append(toolSet, tools.NewHealthTool(st))

	for _, tool := range toolSet {
		if err := registry.Register(tool); err != nil {
			log.Error("failed to register tool", "tool", tool.Name(), "error", err)
			os.Exit(1)
		}
	}
	log.Info("tools registered", "count", len(registry.Names()))

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutdown signal received")
		cancel()
	}()

	server := mcp.NewServer(registry)
	if err := server.Serve(ctx); err != nil && err != context.Canceled {
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	log.Info("zonegate stopped")
}
