// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/ManuGH/foodscan/internal/daemon"
	"github.com/ManuGH/foodscan/internal/offapi"
	"github.com/ManuGH/foodscan/internal/taxonomy"
)

// runTaxonomyCLI refreshes the taxonomy store. The store is locked by a
// running daemon, which refreshes on its own schedule.
func runTaxonomyCLI(args []string) int {
	if len(args) == 0 || args[0] != "refresh" {
		fmt.Fprintln(os.Stderr, "Usage: foodscan taxonomy refresh [--config file] [--kind name]")
		return 2
	}
	fs := flag.NewFlagSet("foodscan taxonomy refresh", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "path to config file (YAML)")
	kindName := fs.String("kind", "", "refresh a single taxonomy")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error:\n  %v\n", err)
		return 1
	}

	store, err := taxonomy.Open(daemon.TaxonomyPath(cfg), false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Open taxonomy store: %v\n", err)
		return 1
	}
	defer func() { _ = store.Close() }()

	syncer := taxonomy.NewSyncer(store, offapi.New(daemon.UpstreamOptions(cfg)), cfg.Flavor, cfg.Taxonomy.Concurrency)
	ctx := context.Background()

	if *kindName != "" {
		kind, err := taxonomy.ParseKind(*kindName)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		res, err := syncer.SyncKind(ctx, kind)
		fmt.Printf("%s\t%s\n", kind, res)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Refresh failed: %v\n", err)
			return 1
		}
		return 0
	}

	report, err := syncer.Sync(ctx)
	kinds := make([]string, 0, len(report))
	for k := range report {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Printf("%s\t%s\n", k, report[taxonomy.Kind(k)])
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Refresh incomplete: %v\n", err)
		return 1
	}
	return 0
}
