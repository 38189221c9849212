package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/taleinat/htmldammit"
	"github.com/taleinat/htmldammit/internal/cache"
	"github.com/taleinat/htmldammit/internal/contenttype"
	"github.com/taleinat/htmldammit/internal/dammit"
	"github.com/taleinat/htmldammit/internal/extract"
	"github.com/taleinat/htmldammit/internal/fetch"
)

// ErrAllInputsFailed is returned by Run when no input could be decoded.
var ErrAllInputsFailed = errors.New("every input failed")

type App struct {
	cfg         Config
	smartQuotes htmldammit.SmartQuotes
	fetcher     *fetch.Client
	httpCache   *cache.HTTPCache
}

// Document is one decoded input.
type Document struct {
	Source   string
	Encoding string
	Output   string
}

func New(ctx context.Context, cfg Config) (*App, error) {
	if cfg.SmartQuotes == "" {
		cfg.SmartQuotes = DefaultSmartQuotes
	}
	if cfg.Mode == "" {
		cfg.Mode = DefaultMode
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	sq, err := dammit.ParseSmartQuotes(cfg.SmartQuotes)
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, smartQuotes: sq}

	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err != nil {
				log.Warn().Err(err).Msg("cache purge failed")
			} else if n > 0 {
				log.Debug().Int("removed", n).Msg("purged stale cache entries")
			}
		}
		a.httpCache = &cache.HTTPCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}

	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	a.fetcher = &fetch.Client{
		HTTPClient:        newHTTPClient(cfg.Timeout),
		UserAgent:         cfg.UserAgent,
		MaxAttempts:       attempts,
		PerRequestTimeout: cfg.Timeout,
		Cache:             a.httpCache,
		BypassCache:       cfg.CacheClear,
		AnyContentType:    cfg.AnyContentType,
		MaxBodyBytes:      cfg.MaxBodyBytes,
		RedirectMaxHops:   cfg.MaxRedirects,
		MaxConcurrent:     a.concurrency(),
	}
	return a, nil
}

// Close enforces the cache size limits.
func (a *App) Close() error {
	if a.httpCache == nil || (a.cfg.CacheMaxBytes == 0 && a.cfg.CacheMaxEntries == 0) {
		return nil
	}
	n, err := cache.EnforceLimits(a.cfg.CacheDir, a.cfg.CacheMaxBytes, a.cfg.CacheMaxEntries)
	if err != nil {
		return fmt.Errorf("enforce cache limits: %w", err)
	}
	if n > 0 {
		log.Debug().Int("evicted", n).Msg("cache limits enforced")
	}
	return nil
}

// Run decodes every input and writes the results to the configured output,
// stdout by default, in input order. Up to Concurrency inputs are processed
// at once. Failed inputs are logged and skipped.
func (a *App) Run(ctx context.Context) error {
	var w io.Writer = os.Stdout
	if a.cfg.OutputPath != "" && a.cfg.OutputPath != "-" {
		f, err := os.Create(a.cfg.OutputPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	results := make([]*Document, len(a.cfg.Inputs))
	sem := make(chan struct{}, a.concurrency())
	var wg sync.WaitGroup
	for i, in := range a.cfg.Inputs {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case sem <- struct{}{}:
		}
		i, in := i, in // per-iteration copies; go directive is 1.21 (pre-1.22 loop semantics)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			doc, err := a.Process(ctx, in)
			if err != nil {
				log.Error().Err(err).Str("input", in).Msg("decode failed")
				return
			}
			log.Info().Str("input", in).Str("encoding", doc.Encoding).Msg("decoded")
			results[i] = &doc
		}()
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	ok := 0
	for _, doc := range results {
		if doc == nil {
			continue
		}
		if _, err := io.WriteString(bw, doc.Output); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		if len(doc.Output) == 0 || doc.Output[len(doc.Output)-1] != '\n' {
			_ = bw.WriteByte('\n')
		}
		ok++
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if ok == 0 {
		return ErrAllInputsFailed
	}
	return nil
}

func (a *App) concurrency() int {
	if a.cfg.Concurrency > 0 {
		return a.cfg.Concurrency
	}
	return DefaultConcurrency
}

// Process reads one input and decodes it according to the configured mode.
func (a *App) Process(ctx context.Context, input string) (Document, error) {
	raw, headers, err := a.read(ctx, input)
	if err != nil {
		return Document{}, err
	}
	if a.cfg.Mode == ModeText {
		d, err := extract.FromHTML(raw, headers)
		if err != nil {
			return Document{}, err
		}
		out := d.Text
		if d.Title != "" {
			out = d.Title + "\n\n" + out
		}
		return Document{Source: input, Encoding: d.Encoding, Output: out}, nil
	}
	res := htmldammit.Resolve(raw, headers, htmldammit.WithSmartQuotes(a.smartQuotes))
	return Document{Source: input, Encoding: res.Encoding, Output: res.Text}, nil
}

func (a *App) read(ctx context.Context, input string) ([]byte, htmldammit.Headers, error) {
	if fetch.IsURL(input) {
		resp, err := a.fetcher.Get(ctx, input)
		if err != nil {
			return nil, nil, fmt.Errorf("fetch: %w", err)
		}
		if resp.FromCache {
			log.Debug().Str("url", input).Msg("served from cache")
		}
		return resp.Body, contenttype.MultiMap(resp.Header), nil
	}
	raw, err := os.ReadFile(input)
	if err != nil {
		return nil, nil, fmt.Errorf("read input: %w", err)
	}
	ct := a.cfg.ContentType
	if ct == "" {
		ct = fileContentType(input)
	}
	if ct == "" {
		return raw, nil, nil
	}
	return raw, contenttype.Map{contenttype.HeaderName: ct}, nil
}

// fileContentType guesses a header for a file from its extension, keeping
// only HTML and XML types.
func fileContentType(path string) string {
	ct := contenttype.Parse(mime.TypeByExtension(filepath.Ext(path)))
	if ct.IsHTML() || ct.IsXML() {
		return ct.MIMEType()
	}
	return ""
}
