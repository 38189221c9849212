// Command htmldammit decodes HTML and XML documents from URLs or files to
// UTF-8 text, resolving their character encoding the way a browser would.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"

	"github.com/taleinat/htmldammit/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// run parses args into a Config, executes it and returns the exit code.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("htmldammit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: htmldammit [flags] <url-or-file>...")
		fs.PrintDefaults()
	}

	var (
		cfg         app.Config
		configPath  string
		envFile     string
		showVersion bool
	)
	fs.StringVar(&cfg.OutputPath, "output", "", "Write decoded output to this file instead of stdout")
	fs.StringVar(&cfg.Mode, "mode", app.DefaultMode, "Output mode: html (decoded markup) or text (readable text)")
	fs.StringVar(&cfg.SmartQuotes, "smart-quotes", app.DefaultSmartQuotes, "Windows smart punctuation rewrite: auto, html, xml, ascii or none")
	fs.StringVar(&cfg.ContentType, "content-type", "", "Content-Type header to assume for file inputs (default: guessed from the extension)")
	fs.StringVar(&cfg.UserAgent, "ua", app.DefaultUserAgent, "User-Agent for HTTP requests")
	fs.DurationVar(&cfg.Timeout, "timeout", app.DefaultTimeout, "Per-request timeout")
	fs.IntVar(&cfg.MaxAttempts, "attempts", app.DefaultAttempts, "Attempts per URL, including the first")
	fs.IntVar(&cfg.Concurrency, "concurrency", app.DefaultConcurrency, "Inputs decoded and requests in flight at once")
	fs.IntVar(&cfg.MaxRedirects, "max-redirects", app.DefaultRedirects, "Redirects followed per URL")
	fs.Int64Var(&cfg.MaxBodyBytes, "max-body", 0, "Maximum response body size in bytes; 0 disables")
	fs.BoolVar(&cfg.AnyContentType, "any-content-type", false, "Accept responses that are neither HTML nor XML")
	fs.StringVar(&cfg.CacheDir, "cache.dir", "", "HTTP cache directory; empty disables caching")
	fs.DurationVar(&cfg.CacheMaxAge, "cache.maxAge", 0, "Purge cache entries older than this before the run; 0 disables")
	fs.BoolVar(&cfg.CacheClear, "cache.clear", false, "Clear the cache directory before the run")
	fs.BoolVar(&cfg.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.Int64Var(&cfg.CacheMaxBytes, "cache.maxBytes", 0, "Evict least recently used cache entries above this many body bytes; 0 disables")
	fs.IntVar(&cfg.CacheMaxEntries, "cache.maxEntries", 0, "Evict least recently used cache entries above this count; 0 disables")
	fs.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")
	fs.StringVar(&cfg.LogFile, "log.file", "", "Also write JSON logs to this file, rotated by size")
	fs.IntVar(&cfg.LogMaxSizeMB, "log.maxSizeMB", app.DefaultLogMaxSize, "Rotate the log file at this size in megabytes")
	fs.IntVar(&cfg.LogMaxBackups, "log.maxBackups", 0, "Rotated log files to keep; 0 keeps all")
	fs.StringVar(&configPath, "config", "", "YAML or JSON config file")
	fs.StringVar(&envFile, "env", ".env", "dotenv file loaded before reading HTMLDAMMIT_* variables")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if showVersion {
		fmt.Fprintln(stderr, app.VersionString())
		return 0
	}
	cfg.Inputs = fs.Args()

	if err := app.LoadEnvFiles(envFile); err != nil {
		fmt.Fprintf(stderr, "load env: %v\n", err)
		return 1
	}
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			fmt.Fprintf(stderr, "load config: %v\n", err)
			return 1
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvToConfig(&cfg)

	closer := app.SetupLogging(cfg, stderr)
	defer closer.Close()

	if err := app.ValidateConfig(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		if errors.Is(err, app.ErrNoInputs) {
			fs.Usage()
		}
		return 1
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("init failed")
		return 1
	}
	runErr := a.Run(ctx)
	if err := a.Close(); err != nil {
		log.Warn().Err(err).Msg("cache maintenance failed")
	}
	if runErr != nil {
		log.Error().Err(runErr).Msg("run failed")
		return 1
	}
	return 0
}
