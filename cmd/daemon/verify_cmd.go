// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ManuGH/foodscan/internal/daemon"
	"github.com/ManuGH/foodscan/internal/persistence/sqlite"
)

// runVerifyCLI checks the SQLite database for corruption.
func runVerifyCLI(args []string) int {
	fs := flag.NewFlagSet("foodscan verify", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "path to config file (YAML)")
	mode := fs.String("mode", "quick", "check mode: quick or full")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error:\n  %v\n", err)
		return 1
	}

	ctx := context.Background()
	path := daemon.DatabasePath(cfg)
	db, err := sqlite.Open(ctx, path, sqlite.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Open %s: %v\n", path, err)
		return 1
	}
	defer func() { _ = db.Close() }()

	problems, err := sqlite.VerifyIntegrity(ctx, db, *mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Integrity check failed: %v\n", err)
		return 1
	}
	if len(problems) > 0 {
		fmt.Fprintf(os.Stderr, "%s is corrupt:\n", path)
		for _, p := range problems {
			fmt.Fprintf(os.Stderr, "  %s\n", p)
		}
		return 1
	}
	fmt.Printf("%s: ok (%s, schema v%d)\n", path, *mode, sqlite.SchemaVersion())
	return 0
}
