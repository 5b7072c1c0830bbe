// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ManuGH/foodscan/internal/config"
	"github.com/ManuGH/foodscan/internal/daemon"
	"github.com/ManuGH/foodscan/internal/history"
	historypg "github.com/ManuGH/foodscan/internal/history/pg"
	"github.com/ManuGH/foodscan/internal/persistence/sqlite"
)

// runExportCLI writes the scan history as CSV.
func runExportCLI(args []string) int {
	fs := flag.NewFlagSet("foodscan export", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "path to config file (YAML)")
	out := fs.String("out", "history.csv", "output file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error:\n  %v\n", err)
		return 1
	}

	n, err := exportHistory(context.Background(), cfg, *out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		return 1
	}
	fmt.Printf("exported %d entries to %s\n", n, *out)
	return 0
}

func exportHistory(ctx context.Context, cfg config.AppConfig, path string) (int, error) {
	var store history.Store
	if cfg.History.Backend == "postgres" {
		pg, err := historypg.Open(ctx, historypg.Config{URL: cfg.History.PostgresDSN}, nil)
		if err != nil {
			return 0, err
		}
		defer pg.Close()
		store = pg
	} else {
		db, err := sqlite.Open(ctx, daemon.DatabasePath(cfg), sqlite.DefaultConfig())
		if err != nil {
			return 0, err
		}
		defer func() { _ = db.Close() }()
		store = history.NewSQLiteStore(db)
	}
	return history.NewRecorder(store, cfg.History.Backend).Export(ctx, path)
}
