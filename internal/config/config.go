package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urbanmesh/zonegate/internal/evaluate"
	"github.com/urbanmesh/zonegate/internal/ingest"
	"github.com/urbanmesh/zonegate/internal/watcher"
)

// Config is assembled from built-in defaults overridden by ZONEGATE_*
// environment variables. There is no config file; the server is meant
// to be spawned by an MCP client with env as the only channel.
type Config struct {
	DataDir       string
	DatabasePath  string
	LogLevel      string
	EvalTolerance float64
	WatchDirs     []string
	Ingest        ingest.WorkerConfig
	Watcher       watcher.Config
}

func Load() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".zonegate")

	if v := os.Getenv("ZONEGATE_DATA_DIR"); v != "" {
		dataDir = v
	}

	cfg := &Config{
		DataDir:       dataDir,
		DatabasePath:  filepath.Join(dataDir, "zonegate.db"),
		LogLevel:      "info",
		EvalTolerance: evaluate.DefaultTolerance,
		Ingest:        ingest.DefaultWorkerConfig(),
		Watcher:       watcher.DefaultConfig(),
	}

	if v := os.Getenv("ZONEGATE_DB_PATH"); v != "" {
		cfg.DatabasePath = v
	}

	if v := os.Getenv("ZONEGATE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if v := os.Getenv("ZONEGATE_EVAL_TOLERANCE"); v != "" {
		if tol, err := strconv.ParseFloat(v, 64); err == nil && tol > 0 {
			cfg.EvalTolerance = tol
		}
	}

	if v := os.Getenv("ZONEGATE_WATCH_DIRS"); v != "" {
		for _, dir := range strings.Split(v, string(os.PathListSeparator)) {
			dir = strings.TrimSpace(dir)
			if dir != "" {
				cfg.WatchDirs = append(cfg.WatchDirs, dir)
			}
		}
	}

	return cfg
}

func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.DataDir, 0700); err != nil {
		return err
	}
	return os.MkdirAll(filepath.Dir(c.DatabasePath), 0700)
}
