package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urbanmesh/zonegate/internal/config"
	"github.com/urbanmesh/zonegate/internal/ingest"
	"github.com/urbanmesh/zonegate/internal/logger"
	"github.com/urbanmesh/zonegate/internal/store"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <path> <jurisdiction>\n\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "Ingest a zoning regulation document into the local rule store.")
	fmt.Fprintln(os.Stderr, "The document is segmented into clauses, each clause classified")
	fmt.Fprintln(os.Stderr, "into a rule category, and the results persisted for evaluation.")
	os.Exit(2)
}

func main() {
	if len(os.Args) != 3 {
		usage()
	}

	path := os.Args[1]
	jurisdiction := os.Args[2]

	cfg := config.Load()

	logger.Init(logger.Config{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: "text",
		Output: os.Stderr,
	})

	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	st, err := store.New(cfg.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	result, err := ingest.NewIngestor(st).IngestFile(path, jurisdiction)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(out))
}
