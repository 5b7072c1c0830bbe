// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ManuGH/foodscan/internal/config"
	"github.com/ManuGH/foodscan/internal/daemon"
	"github.com/ManuGH/foodscan/internal/offapi"
	"github.com/ManuGH/foodscan/internal/validate"
)

// productSource is satisfied by *offapi.Client.
type productSource interface {
	ProductFor(ctx context.Context, code, purpose string) (*offapi.ProductState, error)
}

func runLookupCLI(args []string) int {
	fs := flag.NewFlagSet("foodscan lookup", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "path to config file (YAML)")
	asJSON := fs.Bool("json", false, "print the product as JSON")
	timeout := fs.Duration("timeout", 15*time.Second, "lookup timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: foodscan lookup [--config file] [--json] <barcode>")
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error:\n  %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	return lookup(ctx, os.Stdout, offapi.New(daemon.UpstreamOptions(cfg)), cfg, fs.Arg(0), *asJSON)
}

func lookup(ctx context.Context, out io.Writer, src productSource, cfg config.AppConfig, code string, asJSON bool) int {
	if err := validate.Barcode(code, cfg.Scan.StrictBarcodes); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", code, err)
		return 2
	}

	st, err := src.ProductFor(ctx, code, offapi.PurposeScan)
	switch {
	case errors.Is(err, offapi.ErrCanceled):
		fmt.Fprintln(os.Stderr, "lookup cancelled")
		return 1
	case err != nil && offapi.IsNetwork(err):
		fmt.Fprintf(os.Stderr, "Open Food Facts unreachable: %v\n", err)
		return 3
	case err != nil:
		fmt.Fprintf(os.Stderr, "lookup failed: %v\n", err)
		return 1
	case !st.Found():
		fmt.Fprintf(os.Stderr, "%s: product not found\n", code)
		return 4
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(st.Product); err != nil {
			return 1
		}
		return 0
	}
	p := st.Product
	fmt.Fprintf(out, "%s\t%s\n", p.Code, p.ProductName)
	if p.Brands != "" {
		fmt.Fprintf(out, "brands:\t%s\n", p.Brands)
	}
	if p.Quantity != "" {
		fmt.Fprintf(out, "quantity:\t%s\n", p.Quantity)
	}
	if p.NutriscoreGrade != "" {
		fmt.Fprintf(out, "nutri-score:\t%s\n", p.NutriscoreGrade)
	}
	if p.NovaGroup > 0 {
		fmt.Fprintf(out, "nova:\t%d\n", p.NovaGroup)
	}
	return 0
}
