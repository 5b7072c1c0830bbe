// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package scan

import (
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// The scanning core is driven through the api package, never the reverse.
func TestNoTransportImports(t *testing.T) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports}
	pkgs, err := packages.Load(cfg,
		"github.com/ManuGH/foodscan/internal/scan",
		"github.com/ManuGH/foodscan/internal/workflow",
		"github.com/ManuGH/foodscan/internal/camera",
		"github.com/ManuGH/foodscan/internal/bus",
	)
	if err != nil {
		t.Fatalf("failed to load packages: %v", err)
	}
	if len(pkgs) != 4 {
		t.Fatalf("loaded %d packages, want 4", len(pkgs))
	}

	forbidden := []string{
		"net/http",
		"github.com/go-chi/chi",
		"github.com/ManuGH/foodscan/internal/api",
		"github.com/ManuGH/foodscan/internal/daemon",
	}
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			t.Fatalf("load %s: %v", pkg.PkgPath, pkg.Errors[0])
		}
		for imp := range pkg.Imports {
			for _, pattern := range forbidden {
				if strings.HasPrefix(imp, pattern) {
					t.Errorf("%s imports %s", pkg.PkgPath, imp)
				}
			}
		}
	}
}
