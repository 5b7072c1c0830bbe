// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/foodscan/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockChecker struct {
	name   string
	status Status
}

func (m *mockChecker) Name() string { return m.name }

func (m *mockChecker) Check(context.Context) CheckResult {
	return CheckResult{Status: m.status}
}

func TestManager_Health(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(&mockChecker{name: "healthy", status: StatusHealthy})
	m.RegisterChecker(&mockChecker{name: "degraded", status: StatusDegraded})

	resp := m.Health(context.Background(), false)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "v1.0.0", resp.Version)
	assert.Nil(t, resp.Checks)

	resp = m.Health(context.Background(), true)
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Len(t, resp.Checks, 2)
}

func TestManager_Ready(t *testing.T) {
	tests := []struct {
		name      string
		checkers  []Checker
		wantReady bool
		want      Status
	}{
		{"none", nil, true, StatusHealthy},
		{"degraded is ready", []Checker{&mockChecker{"a", StatusHealthy}, &mockChecker{"b", StatusDegraded}}, true, StatusDegraded},
		{"unhealthy", []Checker{&mockChecker{"a", StatusDegraded}, &mockChecker{"b", StatusUnhealthy}}, false, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager("test")
			for _, c := range tt.checkers {
				m.RegisterChecker(c)
			}
			resp := m.Ready(context.Background())
			assert.Equal(t, tt.wantReady, resp.Ready)
			assert.Equal(t, tt.want, resp.Status)
		})
	}
}

func TestManager_ServeReady(t *testing.T) {
	m := NewManager("test")
	m.RegisterChecker(NewPingChecker("sqlite", func(context.Context) error { return errors.New("database is closed") }, false))

	rec := httptest.NewRecorder()
	m.ServeReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ReadinessResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Ready)
	assert.Equal(t, "database is closed", resp.Checks["sqlite"].Error)

	rec = httptest.NewRecorder()
	m.ServeHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPingChecker(t *testing.T) {
	boom := func(context.Context) error { return errors.New("connection refused") }

	assert.Equal(t, StatusUnhealthy, NewPingChecker("pg", boom, false).Check(context.Background()).Status)
	assert.Equal(t, StatusDegraded, NewPingChecker("redis", boom, true).Check(context.Background()).Status)
	assert.Equal(t, StatusHealthy, NewPingChecker("redis", nil, true).Check(context.Background()).Status)
	assert.Equal(t, StatusHealthy, NewPingChecker("pg", func(context.Context) error { return nil }, false).Check(context.Background()).Status)
}

func TestLastRunChecker(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		at   time.Time
		err  string
		want Status
	}{
		{"never ran", time.Time{}, "", StatusHealthy},
		{"recent", now.Add(-time.Minute), "", StatusHealthy},
		{"stale", now.Add(-72 * time.Hour), "", StatusDegraded},
		{"failed", now, "labels: timeout", StatusDegraded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewLastRunChecker("taxonomy", 48*time.Hour, func() (time.Time, string) { return tt.at, tt.err })
			assert.Equal(t, "taxonomy", c.Name())
			assert.Equal(t, tt.want, c.Check(context.Background()).Status)
		})
	}
}

func TestPerformStartupChecks(t *testing.T) {
	cfg := config.Defaults()
	cfg.DataDir = filepath.Join(t.TempDir(), "nested", "data")
	require.NoError(t, PerformStartupChecks(context.Background(), cfg))
	info, err := os.Stat(cfg.DataDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	cfg.Server.ListenAddr = "localhost"
	require.Error(t, PerformStartupChecks(context.Background(), cfg))

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	cfg = config.Defaults()
	cfg.DataDir = file
	require.Error(t, PerformStartupChecks(context.Background(), cfg))
}
