// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config provides configuration management for foodscan.
//
// Precedence is ENV > file > defaults. Fields tagged `reload:"hot"` are applied
// by a running daemon on reload; any other change requires a restart.
package config

import (
	"fmt"
	"time"
)

// AppConfig is the effective, validated configuration.
type AppConfig struct {
	Version string `yaml:"-"`

	DataDir string `yaml:"data_dir" validate:"required"`
	// Flavor selects the product database: off (food), obf (beauty),
	// opff (pet food) or opf (products).
	Flavor string `yaml:"flavor" validate:"oneof=off obf opff opf"`

	Log       LogConfig       `yaml:"log"`
	API       APIConfig       `yaml:"api"`
	Server    ServerConfig    `yaml:"server"`
	Scan      ScanConfig      `yaml:"scan"`
	Camera    CameraConfig    `yaml:"camera"`
	Taxonomy  TaxonomyConfig  `yaml:"taxonomy"`
	Cache     CacheConfig     `yaml:"cache"`
	History   HistoryConfig   `yaml:"history"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type LogConfig struct {
	Level   string `yaml:"level" validate:"oneof=trace debug info warn error" reload:"hot"`
	Service string `yaml:"service"`
}

// APIConfig configures the Open Food Facts client.
type APIConfig struct {
	BaseURL          string        `yaml:"base_url"`
	StaticURL        string        `yaml:"static_url"`
	UserAgent        string        `yaml:"user_agent"`
	Timeout          time.Duration `yaml:"timeout" validate:"min=0"`
	TaxonomyRetries  int           `yaml:"taxonomy_retries" validate:"min=0,max=10"`
	RateLimit        float64       `yaml:"rate_limit" validate:"min=0"` // product requests per second
	RateLimitBurst   int           `yaml:"rate_limit_burst" validate:"min=0"`
	SearchRateLimit  float64       `yaml:"search_rate_limit" validate:"min=0"`
	BreakerThreshold int           `yaml:"breaker_threshold" validate:"min=0"`
	BreakerReset     time.Duration `yaml:"breaker_reset" validate:"min=0"`
}

type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr" validate:"required"`
	MetricsAddr     string        `yaml:"metrics_addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	// RateLimit is the per-client request budget per minute; 0 disables it.
	RateLimit int `yaml:"rate_limit" validate:"min=0" reload:"hot"`
}

type ScanConfig struct {
	Session string `yaml:"session" validate:"required,max=64"`
	// HintTimeout is how long the scanner may sit idle before suggesting
	// manual barcode entry.
	HintTimeout time.Duration `yaml:"hint_timeout" reload:"hot"`
	// AutoResume returns the workflow to detecting this long after a lookup
	// resolved. 0 leaves the workflow where the lookup left it.
	AutoResume     time.Duration `yaml:"auto_resume" validate:"min=0" reload:"hot"`
	StrictBarcodes bool          `yaml:"strict_barcodes" reload:"hot"`
	Language       string        `yaml:"language" validate:"required" reload:"hot"`
}

// CameraConfig selects the frame source and the preference defaults used
// until the user changes them.
type CameraConfig struct {
	Source    string `yaml:"source" validate:"oneof=none stdin api"`
	Format    string `yaml:"format"`
	Facing    string `yaml:"facing" validate:"oneof=back front" reload:"hot"`
	Flash     bool   `yaml:"flash" reload:"hot"`
	AutoFocus bool   `yaml:"autofocus" reload:"hot"`
	Beep      bool   `yaml:"beep" reload:"hot"`
}

type TaxonomyConfig struct {
	Path            string        `yaml:"path"`
	InMemory        bool          `yaml:"in_memory"`
	RefreshInterval time.Duration `yaml:"refresh_interval" validate:"min=0" reload:"hot"`
	Concurrency     int           `yaml:"concurrency" validate:"min=1,max=16"`
}

type CacheConfig struct {
	Backend       string        `yaml:"backend" validate:"oneof=none memory redis"`
	TTL           time.Duration `yaml:"ttl" validate:"min=0"`
	RedisAddr     string        `yaml:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db" validate:"min=0"`
}

type HistoryConfig struct {
	Backend     string      `yaml:"backend" validate:"oneof=sqlite postgres"`
	PostgresDSN string      `yaml:"postgres_dsn" validate:"required_if=Backend postgres"`
	Limit       int         `yaml:"limit" validate:"min=1"`
	Kafka       KafkaConfig `yaml:"kafka"`
}

type KafkaConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Brokers  []string `yaml:"brokers" validate:"required_if=Enabled true"`
	Topic    string   `yaml:"topic" validate:"required_if=Enabled true"`
	ClientID string   `yaml:"client_id"`
}

type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ExporterType string  `yaml:"exporter" validate:"oneof=grpc http"`
	Endpoint     string  `yaml:"endpoint" validate:"required_if=Enabled true"`
	SamplingRate float64 `yaml:"sampling_rate" validate:"min=0,max=1"`
	Environment  string  `yaml:"environment"`
}

// Defaults returns the configuration used when neither file nor ENV set a value.
func Defaults() AppConfig {
	return AppConfig{
		DataDir: "./data",
		Flavor:  "off",
		Log:     LogConfig{Level: "info", Service: "foodscan"},
		API: APIConfig{
			BaseURL:          "https://world.openfoodfacts.org",
			StaticURL:        "https://static.openfoodfacts.org",
			Timeout:          10 * time.Second,
			TaxonomyRetries:  2,
			RateLimit:        100.0 / 60.0,
			RateLimitBurst:   10,
			SearchRateLimit:  10.0 / 60.0,
			BreakerThreshold: 5,
			BreakerReset:     30 * time.Second,
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			MetricsAddr:     ":9090",
			ReadTimeout:     10 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateLimit:       300,
		},
		Scan: ScanConfig{
			Session:     "default",
			HintTimeout: 15 * time.Second,
			Language:    "en",
		},
		Camera: CameraConfig{
			Source:    "api",
			Format:    "ean13",
			Facing:    "back",
			AutoFocus: true,
			Beep:      true,
		},
		Taxonomy: TaxonomyConfig{
			RefreshInterval: 24 * time.Hour,
			Concurrency:     4,
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     10 * time.Minute,
		},
		History: HistoryConfig{
			Backend: "sqlite",
			Limit:   500,
			Kafka:   KafkaConfig{Topic: "foodscan.scans", ClientID: "foodscan"},
		},
		Telemetry: TelemetryConfig{
			ExporterType: "grpc",
			SamplingRate: 1.0,
			Environment:  "production",
		},
	}
}

// String renders the configuration without secrets.
func (c AppConfig) String() string {
	redis := c.Cache.RedisAddr
	if c.Cache.RedisPassword != "" {
		redis += " (auth)"
	}
	dsn := ""
	if c.History.PostgresDSN != "" {
		dsn = "***"
	}
	return fmt.Sprintf("AppConfig{flavor=%s data_dir=%s listen=%s api=%s cache=%s redis=%s history=%s dsn=%s session=%s}",
		c.Flavor, c.DataDir, c.Server.ListenAddr, c.API.BaseURL, c.Cache.Backend, redis,
		c.History.Backend, dsn, c.Scan.Session)
}
