// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsOnly(t *testing.T) {
	dir := t.TempDir()
	cfg, err := NewLoader("", "1.2.3").WithEnv(map[string]string{
		"FOODSCAN_DATA_DIR": dir,
	}).Load()
	require.NoError(t, err)

	assert.Equal(t, "off", cfg.Flavor)
	assert.Equal(t, 15*time.Second, cfg.Scan.HintTimeout)
	assert.Equal(t, "foodscan/1.2.3", cfg.API.UserAgent)
	assert.Equal(t, filepath.Join(dir, "taxonomy"), cfg.Taxonomy.Path)
	assert.Equal(t, "1.2.3", cfg.Version)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
data_dir: `+dir+`
flavor: obf
scan:
  hint_timeout: 20s
  language: fr
api:
  base_url: https://world.openbeautyfacts.org/
cache:
  backend: none
`)
	cfg, err := NewLoader(path, "dev").WithEnv(map[string]string{
		"FOODSCAN_HINT_TIMEOUT":    "30s",
		"FOODSCAN_STRICT_BARCODES": "yes",
		"FOODSCAN_CORS_ORIGINS":    "https://a.example, https://b.example",
	}).Load()
	require.NoError(t, err)

	assert.Equal(t, "obf", cfg.Flavor, "file overrides default")
	assert.Equal(t, 30*time.Second, cfg.Scan.HintTimeout, "env overrides file")
	assert.Equal(t, "fr", cfg.Scan.Language)
	assert.True(t, cfg.Scan.StrictBarcodes)
	assert.Equal(t, "https://world.openbeautyfacts.org", cfg.API.BaseURL, "trailing slash normalised")
	assert.Equal(t, "none", cfg.Cache.Backend)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout, "untouched default survives")
}

func TestLoad_InvalidEnvKeepsValue(t *testing.T) {
	dir := t.TempDir()
	cfg, err := NewLoader("", "").WithEnv(map[string]string{
		"FOODSCAN_DATA_DIR":     dir,
		"FOODSCAN_HINT_TIMEOUT": "soon",
		"FOODSCAN_RATE_LIMIT":   "many",
	}).Load()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.Scan.HintTimeout)
	assert.Equal(t, 300, cfg.Server.RateLimit)
}

func TestLoad_StrictUnknownField(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "data_dir: "+dir+"\nscan:\n  hint_timout: 5s\n")
	_, err := NewLoader(path, "").WithEnv(nil).Load()
	require.ErrorIs(t, err, ErrUnknownConfigField)
}

func TestLoad_MultipleDocuments(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "flavor: off\n---\nflavor: obf\n")
	_, err := NewLoader(path, "").WithEnv(nil).Load()
	require.ErrorIs(t, err, ErrMultipleDocuments)
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "config.toml"), "").WithEnv(nil).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only YAML supported")
}

func TestLoad_ValidationErrors(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]map[string]string{
		"flavor":          {"FOODSCAN_FLAVOR": "xyz"},
		"redis required":  {"FOODSCAN_CACHE_BACKEND": "redis"},
		"bad url":         {"FOODSCAN_API_BASE_URL": "ftp://example.org"},
		"hint too short":  {"FOODSCAN_HINT_TIMEOUT": "10ms"},
		"kafka brokers":   {"FOODSCAN_KAFKA_ENABLED": "true"},
		"kafka url style": {"FOODSCAN_KAFKA_ENABLED": "true", "FOODSCAN_KAFKA_BROKERS": "kafka://b1:9092"},
		"language":        {"FOODSCAN_LANGUAGE": "not a tag!"},
		"postgres dsn":    {"FOODSCAN_HISTORY_BACKEND": "postgres"},
		"same addr":       {"FOODSCAN_METRICS_ADDR": ":8080"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			env["FOODSCAN_DATA_DIR"] = dir
			_, err := NewLoader("", "").WithEnv(env).Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config validation failed")
		})
	}
}

func TestValidate_SemanticRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		field  string
	}{
		{"blank session", func(c *AppConfig) { c.Scan.Session = "  " }, "scan.session"},
		{"listen without port", func(c *AppConfig) { c.Server.ListenAddr = "localhost" }, "server.listen_addr"},
		{"listen port zero", func(c *AppConfig) { c.Server.ListenAddr = ":0" }, "server.listen_addr"},
		{"metrics port range", func(c *AppConfig) { c.Server.MetricsAddr = ":70000" }, "server.metrics_addr"},
		{"redis db", func(c *AppConfig) {
			c.Cache.Backend = "redis"
			c.Cache.RedisAddr = "localhost:6379"
			c.Cache.RedisDB = 16
		}, "cache.redis_db"},
		{"dsn scheme", func(c *AppConfig) {
			c.History.Backend = "postgres"
			c.History.PostgresDSN = "mysql://scan:secret@db/foodscan"
		}, "history.postgres_dsn"},
		{"blank kafka topic", func(c *AppConfig) {
			c.History.Kafka = KafkaConfig{Enabled: true, Brokers: []string{"b1:9092"}, Topic: " "}
		}, "history.kafka.topic"},
		{"kafka broker port", func(c *AppConfig) {
			c.History.Kafka = KafkaConfig{Enabled: true, Brokers: []string{"b1:kafka"}, Topic: "scans"}
		}, "history.kafka.brokers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.DataDir = t.TempDir()
			tt.mutate(&cfg)
			err := Validate(&cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}

	t.Run("keyword dsn", func(t *testing.T) {
		cfg := Defaults()
		cfg.DataDir = t.TempDir()
		cfg.History.Backend = "postgres"
		cfg.History.PostgresDSN = "host=db user=scan dbname=foodscan sslmode=disable"
		assert.NoError(t, Validate(&cfg))
	})
}

func TestUnknownEnvKeys(t *testing.T) {
	l := NewLoader("", "").WithEnv(map[string]string{
		"FOODSCAN_HINT_TIMEOUT": "5s",
		"FOODSCAN_HINT_TIMOUT":  "5s",
		"HOME":                  "/root",
	})
	assert.Equal(t, []string{"FOODSCAN_HINT_TIMOUT"}, l.UnknownEnvKeys())
}

func TestDiff(t *testing.T) {
	a := Defaults()
	b := Defaults()
	assert.Empty(t, Diff(a, b).ChangedFields)

	b.Scan.HintTimeout = time.Minute
	b.Log.Level = "debug"
	s := Diff(a, b)
	if diff := cmp.Diff([]string{"log.level", "scan.hint_timeout"}, s.ChangedFields); diff != "" {
		t.Fatalf("changed fields mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, s.RestartRequired)

	b.Server.ListenAddr = ":9999"
	assert.True(t, Diff(a, b).RestartRequired)

	b = Defaults()
	b.Server.CORSOrigins = []string{"*"}
	assert.Equal(t, []string{"server.cors_origins"}, Diff(a, b).ChangedFields)
}

func TestAppConfig_StringHidesSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Cache.RedisPassword = "hunter2"
	cfg.History.PostgresDSN = "postgres://u:secret@db/foodscan"
	s := cfg.String()
	assert.NotContains(t, s, "hunter2")
	assert.NotContains(t, s, "secret")
}
