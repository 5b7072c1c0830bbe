// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/foodscan/internal/log"
	"github.com/rs/zerolog"
)

// EnvPrefix is shared by every environment override.
const EnvPrefix = "FOODSCAN_"

// envBinding maps one environment key onto a config field.
type envBinding struct {
	key   string
	apply func(l *Loader, cfg *AppConfig, raw string)
}

func str(fn func(*AppConfig) *string) func(*Loader, *AppConfig, string) {
	return func(_ *Loader, cfg *AppConfig, raw string) { *fn(cfg) = raw }
}

func boolean(fn func(*AppConfig) *bool) func(*Loader, *AppConfig, string) {
	return func(l *Loader, cfg *AppConfig, raw string) {
		if b, ok := l.parseBool(raw); ok {
			*fn(cfg) = b
		}
	}
}

func integer(fn func(*AppConfig) *int) func(*Loader, *AppConfig, string) {
	return func(l *Loader, cfg *AppConfig, raw string) {
		if i, err := strconv.Atoi(raw); err == nil {
			*fn(cfg) = i
			return
		}
		l.invalid(raw, "integer")
	}
}

func float(fn func(*AppConfig) *float64) func(*Loader, *AppConfig, string) {
	return func(l *Loader, cfg *AppConfig, raw string) {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			*fn(cfg) = f
			return
		}
		l.invalid(raw, "float")
	}
}

func duration(fn func(*AppConfig) *time.Duration) func(*Loader, *AppConfig, string) {
	return func(l *Loader, cfg *AppConfig, raw string) {
		if d, err := time.ParseDuration(raw); err == nil {
			*fn(cfg) = d
			return
		}
		l.invalid(raw, "duration")
	}
}

func list(fn func(*AppConfig) *[]string) func(*Loader, *AppConfig, string) {
	return func(_ *Loader, cfg *AppConfig, raw string) { *fn(cfg) = parseCommaSeparated(raw) }
}

var envBindings = []envBinding{
	{"FOODSCAN_DATA_DIR", str(func(c *AppConfig) *string { return &c.DataDir })},
	{"FOODSCAN_FLAVOR", str(func(c *AppConfig) *string { return &c.Flavor })},
	{"FOODSCAN_LOG_LEVEL", str(func(c *AppConfig) *string { return &c.Log.Level })},
	{"FOODSCAN_LOG_SERVICE", str(func(c *AppConfig) *string { return &c.Log.Service })},

	{"FOODSCAN_API_BASE_URL", str(func(c *AppConfig) *string { return &c.API.BaseURL })},
	{"FOODSCAN_API_STATIC_URL", str(func(c *AppConfig) *string { return &c.API.StaticURL })},
	{"FOODSCAN_API_USER_AGENT", str(func(c *AppConfig) *string { return &c.API.UserAgent })},
	{"FOODSCAN_API_TIMEOUT", duration(func(c *AppConfig) *time.Duration { return &c.API.Timeout })},
	{"FOODSCAN_API_TAXONOMY_RETRIES", integer(func(c *AppConfig) *int { return &c.API.TaxonomyRetries })},
	{"FOODSCAN_API_RATE_LIMIT", float(func(c *AppConfig) *float64 { return &c.API.RateLimit })},
	{"FOODSCAN_API_SEARCH_RATE_LIMIT", float(func(c *AppConfig) *float64 { return &c.API.SearchRateLimit })},

	{"FOODSCAN_LISTEN_ADDR", str(func(c *AppConfig) *string { return &c.Server.ListenAddr })},
	{"FOODSCAN_METRICS_ADDR", str(func(c *AppConfig) *string { return &c.Server.MetricsAddr })},
	{"FOODSCAN_CORS_ORIGINS", list(func(c *AppConfig) *[]string { return &c.Server.CORSOrigins })},
	{"FOODSCAN_RATE_LIMIT", integer(func(c *AppConfig) *int { return &c.Server.RateLimit })},

	{"FOODSCAN_SCAN_SESSION", str(func(c *AppConfig) *string { return &c.Scan.Session })},
	{"FOODSCAN_HINT_TIMEOUT", duration(func(c *AppConfig) *time.Duration { return &c.Scan.HintTimeout })},
	{"FOODSCAN_AUTO_RESUME", duration(func(c *AppConfig) *time.Duration { return &c.Scan.AutoResume })},
	{"FOODSCAN_STRICT_BARCODES", boolean(func(c *AppConfig) *bool { return &c.Scan.StrictBarcodes })},
	{"FOODSCAN_LANGUAGE", str(func(c *AppConfig) *string { return &c.Scan.Language })},

	{"FOODSCAN_CAMERA_SOURCE", str(func(c *AppConfig) *string { return &c.Camera.Source })},
	{"FOODSCAN_CAMERA_FACING", str(func(c *AppConfig) *string { return &c.Camera.Facing })},
	{"FOODSCAN_CAMERA_BEEP", boolean(func(c *AppConfig) *bool { return &c.Camera.Beep })},

	{"FOODSCAN_TAXONOMY_PATH", str(func(c *AppConfig) *string { return &c.Taxonomy.Path })},
	{"FOODSCAN_TAXONOMY_REFRESH", duration(func(c *AppConfig) *time.Duration { return &c.Taxonomy.RefreshInterval })},

	{"FOODSCAN_CACHE_BACKEND", str(func(c *AppConfig) *string { return &c.Cache.Backend })},
	{"FOODSCAN_CACHE_TTL", duration(func(c *AppConfig) *time.Duration { return &c.Cache.TTL })},
	{"FOODSCAN_REDIS_ADDR", str(func(c *AppConfig) *string { return &c.Cache.RedisAddr })},
	{"FOODSCAN_REDIS_PASSWORD", str(func(c *AppConfig) *string { return &c.Cache.RedisPassword })},

	{"FOODSCAN_HISTORY_BACKEND", str(func(c *AppConfig) *string { return &c.History.Backend })},
	{"FOODSCAN_POSTGRES_DSN", str(func(c *AppConfig) *string { return &c.History.PostgresDSN })},
	{"FOODSCAN_KAFKA_ENABLED", boolean(func(c *AppConfig) *bool { return &c.History.Kafka.Enabled })},
	{"FOODSCAN_KAFKA_BROKERS", list(func(c *AppConfig) *[]string { return &c.History.Kafka.Brokers })},
	{"FOODSCAN_KAFKA_TOPIC", str(func(c *AppConfig) *string { return &c.History.Kafka.Topic })},

	{"FOODSCAN_TELEMETRY_ENABLED", boolean(func(c *AppConfig) *bool { return &c.Telemetry.Enabled })},
	{"FOODSCAN_OTLP_EXPORTER", str(func(c *AppConfig) *string { return &c.Telemetry.ExporterType })},
	{"FOODSCAN_OTLP_ENDPOINT", str(func(c *AppConfig) *string { return &c.Telemetry.Endpoint })},
	{"FOODSCAN_TRACE_SAMPLING", float(func(c *AppConfig) *float64 { return &c.Telemetry.SamplingRate })},
}

// KnownEnvKeys lists every environment key the loader reads.
func KnownEnvKeys() []string {
	keys := make([]string, 0, len(envBindings)+1)
	for _, b := range envBindings {
		keys = append(keys, b.key)
	}
	keys = append(keys, EnvConfigPath)
	sort.Strings(keys)
	return keys
}

// mergeEnvConfig applies environment overrides. Empty values are ignored and
// unparsable values keep the current setting with a warning.
func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	for _, b := range envBindings {
		raw, ok := l.envLookup(b.key)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		l.currentKey = b.key
		b.apply(l, cfg, strings.TrimSpace(raw))
		l.logSource(b.key, raw)
	}
	l.currentKey = ""
}

func (l *Loader) parseBool(raw string) (bool, bool) {
	switch strings.ToLower(raw) {
	case "true", "1", "yes":
		return true, true
	case "false", "0", "no":
		return false, true
	}
	l.invalid(raw, "boolean")
	return false, false
}

func (l *Loader) invalid(raw, kind string) {
	l.logger().Warn().
		Str("key", l.currentKey).
		Str("value", raw).
		Str("kind", kind).
		Msg("invalid value in environment variable, keeping current value")
}

func (l *Loader) logSource(key, raw string) {
	ev := l.logger().Debug().Str("key", key).Str("source", "environment")
	if isSecuritySensitiveEnvKey(key) {
		ev = ev.Bool("sensitive", true)
	} else {
		ev = ev.Str("value", raw)
	}
	ev.Msg("using environment variable")
}

func (l *Loader) logger() *zerolog.Logger {
	lg := log.WithComponent("config")
	return &lg
}

var securitySensitiveEnvTokens = []string{"PASS", "PASSWORD", "DSN", "TOKEN", "CORS"}

func isSecuritySensitiveEnvKey(key string) bool {
	upper := strings.ToUpper(strings.TrimSpace(key))
	for _, token := range securitySensitiveEnvTokens {
		if strings.Contains(upper, token) {
			return true
		}
	}
	return false
}

// UnknownEnvKeys returns FOODSCAN_* keys present in the environment that no
// binding reads (dead flags or typos). They are logged as warnings.
func (l *Loader) UnknownEnvKeys() []string {
	known := make(map[string]struct{}, len(envBindings))
	for _, key := range KnownEnvKeys() {
		known[key] = struct{}{}
	}
	unknown := make([]string, 0)
	for _, pair := range l.environ() {
		key := strings.SplitN(pair, "=", 2)[0]
		if !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		if _, ok := known[key]; ok {
			continue
		}
		unknown = append(unknown, key)
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		l.logger().Warn().Str("key", key).Msg("unknown FOODSCAN env key detected (dead flag or typo)")
	}
	return unknown
}

func parseCommaSeparated(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
