// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/ManuGH/foodscan/internal/config"
	"github.com/ManuGH/foodscan/internal/daemon"
	xglog "github.com/ManuGH/foodscan/internal/log"
	buildinfo "github.com/ManuGH/foodscan/internal/version"
)

var version = buildinfo.Version

var dsnPassword = regexp.MustCompile(`(?i)(password\s*=\s*)('[^']*'|\S+)`)

// maskURL removes user info from a URL string for safe logging. Keyword/value
// postgres DSNs keep their keys and lose the password value.
func maskURL(rawURL string) string {
	if rawURL != "" && !strings.Contains(rawURL, "://") && strings.Contains(rawURL, "=") {
		return dsnPassword.ReplaceAllString(rawURL, "${1}"+redacted)
	}
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url-redacted"
	}
	parsedURL.User = nil
	return parsedURL.String()
}

var subcommands = map[string]func(args []string) int{
	"config":      runConfigCLI,
	"lookup":      runLookupCLI,
	"export":      runExportCLI,
	"taxonomy":    runTaxonomyCLI,
	"verify":      runVerifyCLI,
	"healthcheck": runHealthcheckCLI,
	"version": func([]string) int {
		fmt.Println(buildinfo.String())
		return 0
	},
}

func main() {
	if len(os.Args) > 1 {
		if run, ok := subcommands[os.Args[1]]; ok {
			os.Exit(run(os.Args[2:]))
		}
	}
	os.Exit(runServe(os.Args[1:]))
}

func runServe(args []string) int {
	fs := flag.NewFlagSet("foodscan", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	showVersion := fs.Bool("version", false, "print version and exit")
	configPath := fs.String("config", "", "path to config file (YAML)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Println(buildinfo.String())
		return 0
	}

	// Safe defaults until the configuration is loaded.
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: "foodscan",
		Version: version,
	})
	logger := xglog.WithComponent("daemon")

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, a ...any) {
		logger.Debug().Msgf(format, a...)
	})); err != nil {
		logger.Warn().Err(err).Msg("failed to set GOMAXPROCS")
	}

	effectiveConfigPath := strings.TrimSpace(*configPath)
	if effectiveConfigPath == "" {
		effectiveConfigPath = resolveDefaultConfigPath()
	}

	loader := config.NewLoader(effectiveConfigPath, version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "config.load_failed").
			Str("config_path", effectiveConfigPath).
			Msg("failed to load configuration")
		return 1
	}

	xglog.Reset(xglog.Config{
		Level:   cfg.Log.Level,
		Service: cfg.Log.Service,
		Version: cfg.Version,
	})
	logger = xglog.WithComponent("daemon")

	source := "env+defaults"
	if effectiveConfigPath != "" {
		source = "file"
	}
	ev := logger.Info().
		Str(xglog.FieldEvent, "config.loaded").
		Str("source", source).
		Str("path", effectiveConfigPath).
		Str(xglog.FieldBaseURL, maskURL(cfg.API.BaseURL))
	if cfg.History.PostgresDSN != "" {
		ev = ev.Str("history_dsn", maskURL(cfg.History.PostgresDSN))
	}
	ev.Msg("loaded configuration")

	ctx, stop := daemon.WaitForShutdown()
	defer stop()

	holder := config.NewHolder(cfg, loader)
	if err := daemon.Run(ctx, holder, daemon.Options{Stdin: os.Stdin}); err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "daemon.failed").Msg("daemon stopped with error")
		return 1
	}
	logger.Info().Msg("foodscan stopped")
	return 0
}

// resolveDefaultConfigPath returns ${FOODSCAN_DATA_DIR}/config.yaml when it exists.
func resolveDefaultConfigPath() string {
	dataDir := strings.TrimSpace(os.Getenv(config.EnvPrefix + "DATA_DIR"))
	if dataDir == "" {
		dataDir = config.Defaults().DataDir
	}
	autoPath := filepath.Join(dataDir, "config.yaml")
	if _, err := os.Stat(autoPath); err == nil {
		return autoPath
	}
	return ""
}

// loadConfig loads the configuration for one-shot subcommands.
func loadConfig(path string) (config.AppConfig, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = resolveDefaultConfigPath()
	}
	return config.NewLoader(path, version).Load()
}
