// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	platformnet "github.com/ManuGH/foodscan/internal/platform/net"
	"github.com/ManuGH/foodscan/internal/validate"
	"golang.org/x/text/language"
)

// Validate checks struct tags and the semantic rules tags cannot express.
// Base URLs are normalised in place (ASCII host, no trailing slash).
func Validate(cfg *AppConfig) error {
	v := validate.New()
	v.Merge("config", validate.Struct(cfg))

	for _, u := range []struct {
		field string
		value *string
	}{
		{"api.base_url", &cfg.API.BaseURL},
		{"api.static_url", &cfg.API.StaticURL},
	} {
		v.URL(u.field, *u.value)
		if norm, err := platformnet.NormalizeBaseURL(*u.value); err == nil {
			*u.value = norm
		}
	}

	v.Directory("data_dir", cfg.DataDir, false)

	if cfg.Scan.HintTimeout != 0 {
		v.DurationRange("scan.hint_timeout", cfg.Scan.HintTimeout, time.Second, 10*time.Minute)
	}
	if _, err := language.Parse(cfg.Scan.Language); err != nil {
		v.AddError("scan.language", "must be a BCP 47 language tag", cfg.Scan.Language)
	}

	v.NotEmpty("scan.session", cfg.Scan.Session)

	checkHostPort(v, "server.listen_addr", cfg.Server.ListenAddr)
	if cfg.Server.MetricsAddr != "" {
		checkHostPort(v, "server.metrics_addr", cfg.Server.MetricsAddr)
	}
	if cfg.Server.MetricsAddr != "" && cfg.Server.MetricsAddr == cfg.Server.ListenAddr {
		v.AddError("server.metrics_addr", "must differ from server.listen_addr", cfg.Server.MetricsAddr)
	}
	for _, origin := range cfg.Server.CORSOrigins {
		if origin == "*" {
			continue
		}
		if _, err := platformnet.NormalizeBaseURL(origin); err != nil {
			v.AddError("server.cors_origins", "must be * or an http(s) origin", origin)
		}
	}

	if cfg.Cache.Backend == "redis" {
		v.Range("cache.redis_db", cfg.Cache.RedisDB, 0, maxRedisDB)
	}

	// keyword/value DSNs ("host=... user=...") carry no scheme
	if dsn := cfg.History.PostgresDSN; cfg.History.Backend == "postgres" && strings.Contains(dsn, "://") {
		if u, err := url.Parse(dsn); err != nil {
			v.AddError("history.postgres_dsn", "invalid URL", "***")
		} else {
			v.OneOf("history.postgres_dsn", u.Scheme, []string{"postgres", "postgresql"})
		}
	}

	if cfg.History.Kafka.Enabled {
		v.NotEmpty("history.kafka.topic", cfg.History.Kafka.Topic)
		for _, b := range cfg.History.Kafka.Brokers {
			checkHostPort(v, "history.kafka.brokers", b)
		}
	}

	return v.Err()
}

// maxRedisDB is the highest index of a stock redis server (16 databases).
const maxRedisDB = 15

// checkHostPort requires host:port with a usable port.
func checkHostPort(v *validate.Validator, field, addr string) {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		v.AddError(field, "must be host:port", addr)
		return
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		v.AddError(field, "port must be numeric", addr)
		return
	}
	v.Range(field, n, 1, 65535)
}
