// Package main implements the genetrap-config CLI, which loads the gene-trap
// filter configuration the same way the filter job does and prints it.
//
// Usage:
//
//	go run ./cmd/genetrap-config
//	go run ./cmd/genetrap-config --config=/etc/genetrap/site.config --json
//	go run ./cmd/genetrap-config --set FILTER_MODE=full --key FILTER_MODE
//	go run ./cmd/genetrap-config --explain
//
// Layers are selected by the loader environment variables (CONFIG,
// CONFIG_S3_URL, CONFIG_DATABASE_URL, CONFIG_SSM_PREFIX). Flags add files and
// overrides on top of them.
//
// Exit codes: 0 success, 1 missing keys, 2 configuration unavailable or
// usage error.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"genetrapfilter/internal/config"
	"genetrapfilter/internal/genetrap"
)

const (
	exitOK          = 0
	exitMissing     = 1
	exitUnavailable = 2
)

// pairList collects repeated --set KEY=VALUE flags.
type pairList []string

func (p *pairList) String() string { return strings.Join(*p, ",") }

func (p *pairList) Set(v string) error {
	*p = append(*p, v)
	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := loggerFromEnv(os.Stderr)
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr, config.Dependencies{Logger: logger}))
}

// run is main without the process globals so it can be tested.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, deps config.Dependencies) int {
	fs := flag.NewFlagSet("genetrap-config", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		files   pairList
		sets    pairList
		keyFlag = fs.String("key", "", "Print only this key (one of "+strings.Join(genetrap.Keys(), ", ")+")")
		asJSON  = fs.Bool("json", false, "Print the settings as JSON")
		explain = fs.Bool("explain", false, "Show which layer supplies each key")
		showVer = fs.Bool("version", false, "Print build information and exit")
	)
	fs.Var(&files, "config", "Config file (KEY=VALUE); repeatable, first wins")
	fs.Var(&sets, "set", "Override as KEY=VALUE; repeatable, highest priority")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: genetrap-config [flags]\n\n")
		fmt.Fprintf(stderr, "Load and print the GenBank gene-trap filter configuration.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return exitUnavailable
	}

	if *showVer {
		info := config.NewBuildInfo()
		fmt.Fprintf(stdout, "genetrap-config %s (commit %s, built %s)\n", info.Version, info.Commit, info.BuildTime)
		return exitOK
	}

	overrides, err := config.ParseArgs(sets)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUnavailable
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fc, m, err := genetrap.LoadFilterConfig(ctx, deps,
		config.WithFiles(files...),
		config.WithOverrides(overrides),
	)
	if err != nil {
		logger.Error("configuration unavailable", "error", err)
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUnavailable
	}

	if *keyFlag != "" {
		v, err := fc.Lookup(*keyFlag)
		if err != nil {
			return reportLookupError(stderr, logger, err)
		}
		fmt.Fprintln(stdout, v)
		return exitOK
	}

	if *explain {
		return printExplain(stdout, fc, m)
	}

	settings, err := fc.Settings()
	if err != nil {
		return reportLookupError(stderr, logger, err)
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(settings); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return exitUnavailable
		}
		return exitOK
	}

	fmt.Fprintf(stdout, "%s=%s\n", genetrap.KeyMapCollectionName, settings.MapCollectionName)
	fmt.Fprintf(stdout, "%s=%s\n", genetrap.KeyNewOutputFileName, settings.NewOutputFileName)
	fmt.Fprintf(stdout, "%s=%s\n", genetrap.KeyAllOutputFileName, settings.AllOutputFileName)
	fmt.Fprintf(stdout, "%s=%s\n", genetrap.KeyFilterMode, settings.FilterMode)
	return exitOK
}

// printExplain lists each key with its value and origin layer. Missing keys
// are shown rather than aborting so every gap is visible at once.
func printExplain(stdout io.Writer, fc *genetrap.FilterConfig, m *config.Manager) int {
	fmt.Fprintf(stdout, "layers: %s\n", strings.Join(m.Layers(), " > "))
	code := exitOK
	for _, key := range genetrap.Keys() {
		v, err := fc.Lookup(key)
		if err != nil {
			fmt.Fprintf(stdout, "%-22s <missing>\n", key)
			code = exitMissing
			continue
		}
		origin, _ := m.Source().Origin(key)
		fmt.Fprintf(stdout, "%-22s %-10s %q\n", key, origin, v)
	}
	return code
}

func reportLookupError(stderr io.Writer, logger *slog.Logger, err error) int {
	if config.IsMissing(err) {
		missing := config.MissingKeys(err)
		logger.Error("configuration keys missing", "keys", missing)
		fmt.Fprintf(stderr, "error: missing configuration: %s\n", strings.Join(missing, ", "))
		return exitMissing
	}
	var cfgErr *config.ConfigError
	if errors.As(err, &cfgErr) {
		fmt.Fprintf(stderr, "error: %v\n", cfgErr)
		return exitUnavailable
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	return exitUnavailable
}

// loggerFromEnv loads .env, without overriding the environment, and builds
// the logger at LOG_LEVEL.
func loggerFromEnv(w io.Writer) *slog.Logger {
	_ = godotenv.Load()
	return newLogger(os.Getenv("LOG_LEVEL"), w)
}

// newLogger creates a structured slog.Logger configured for the given log level.
func newLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: lvl,
	})
	return slog.New(handler)
}
