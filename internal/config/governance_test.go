// Copyright (c) 2025 ManuGH

package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Promoting a field to hot reload needs the daemon to apply it; extend both
// this list and the daemon's reload handler together.
var approvedHotFields = []string{
	"camera.autofocus",
	"camera.beep",
	"camera.facing",
	"camera.flash",
	"log.level",
	"scan.auto_resume",
	"scan.hint_timeout",
	"scan.language",
	"scan.strict_barcodes",
	"server.rate_limit",
	"taxonomy.refresh_interval",
}

func TestHotReloadAllowlist(t *testing.T) {
	if diff := cmp.Diff(approvedHotFields, HotFields()); diff != "" {
		t.Errorf("hot-reloadable fields changed (-approved +tagged):\n%s", diff)
	}
}

func TestDiff_HotOnlyChangeNeedsNoRestart(t *testing.T) {
	old := Defaults()
	next := old
	next.Scan.HintTimeout = 30 * old.Scan.HintTimeout / 15
	next.Log.Level = "debug"

	s := Diff(old, next)
	if s.RestartRequired {
		t.Fatalf("restart required for hot fields: %v", s.ChangedFields)
	}
	next.Cache.Backend = "redis"
	if !Diff(old, next).RestartRequired {
		t.Fatal("cache backend change must require a restart")
	}
}
