// Package fetch retrieves documents over HTTP for decoding. It returns the
// raw body together with the complete response headers, because the body
// cannot be decoded correctly without them.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/taleinat/htmldammit/internal/cache"
	"github.com/taleinat/htmldammit/internal/contenttype"
)

// ErrServer marks 5xx responses; they are retried.
var ErrServer = errors.New("server error")

// Response is a fetched document.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
	// FromCache is set when Body was served from the cache after a 304.
	FromCache bool
}

// Client wraps http.Client and provides timeouts and limited retry on transient errors.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each request.
	PerRequestTimeout time.Duration
	// Optional on-disk cache for GET bodies and headers.
	Cache *cache.HTTPCache
	// If true, skip conditional requests but still save the latest response.
	BypassCache bool
	// AnyContentType disables the HTML/XML content type gate. Responses
	// without a Content-Type header always pass the gate.
	AnyContentType bool
	// MaxBodyBytes caps the body size. Zero means unlimited.
	MaxBodyBytes int64

	// RedirectMaxHops caps how many redirects are followed. Zero means default (5).
	RedirectMaxHops int
	// MaxConcurrent limits concurrent in-flight requests per client instance.
	// Zero means unlimited.
	MaxConcurrent int

	limiter     chan struct{}
	limiterOnce sync.Once
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach our redirect policy without mutating caller's client
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirectFunc()}
}

// Get issues a GET with context, user-agent, and bounded retry for transient errors.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	var cond http.Header
	if c.Cache != nil && !c.BypassCache {
		if meta, err := c.Cache.LoadMeta(ctx, rawURL); err == nil && meta != nil {
			cond = http.Header{}
			if meta.ETag != "" {
				cond.Set("If-None-Match", meta.ETag)
			}
			if meta.LastModified != "" {
				cond.Set("If-Modified-Since", meta.LastModified)
			}
		}
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		resp, err := c.tryOnce(ctx, rawURL, cond)
		if err == nil {
			return c.finish(ctx, resp)
		}
		lastErr = err
		if !isTransient(err) || i == attempts-1 {
			break
		}
		log.Debug().Err(err).Str("url", rawURL).Int("attempt", i+1).Msg("retrying fetch")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * 200 * time.Millisecond):
		}
	}
	return nil, lastErr
}

func (c *Client) finish(ctx context.Context, resp *Response) (*Response, error) {
	if c.Cache == nil {
		return resp, nil
	}
	if resp.StatusCode == http.StatusNotModified {
		meta, err := c.Cache.LoadMeta(ctx, resp.URL)
		if err != nil {
			return nil, fmt.Errorf("cache meta after 304: %w", err)
		}
		body, err := c.Cache.LoadBody(ctx, resp.URL)
		if err != nil {
			return nil, fmt.Errorf("cache body after 304: %w", err)
		}
		return &Response{URL: resp.URL, StatusCode: http.StatusOK, Header: meta.Header, Body: body, FromCache: true}, nil
	}
	if err := c.Cache.Save(ctx, resp.URL, resp.Header, resp.Body); err != nil {
		log.Warn().Err(err).Str("url", resp.URL).Msg("cache save failed")
	}
	return resp, nil
}

func (c *Client) tryOnce(ctx context.Context, rawURL string, cond http.Header) (*Response, error) {
	c.acquire()
	defer c.release()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	// Reject non-HTTP(S) schemes early
	if !isHTTPScheme(req.URL) {
		return nil, fmt.Errorf("unsupported URL scheme: %q", req.URL.String())
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	for k, vs := range cond {
		req.Header[k] = vs
	}

	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(req.Context(), c.PerRequestTimeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 && resp.StatusCode <= 599 {
		return nil, fmt.Errorf("%w: %d", ErrServer, resp.StatusCode)
	}
	if resp.StatusCode == http.StatusNotModified {
		return &Response{URL: rawURL, StatusCode: resp.StatusCode, Header: resp.Header}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	if !c.AnyContentType && !isAllowedContentType(resp.Header) {
		return nil, fmt.Errorf("unsupported content type: %s", resp.Header.Get("Content-Type"))
	}

	var r io.Reader = resp.Body
	if c.MaxBodyBytes > 0 {
		r = io.LimitReader(resp.Body, c.MaxBodyBytes+1)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if c.MaxBodyBytes > 0 && int64(len(b)) > c.MaxBodyBytes {
		return nil, fmt.Errorf("body exceeds %d bytes", c.MaxBodyBytes)
	}
	return &Response{URL: rawURL, StatusCode: resp.StatusCode, Header: resp.Header, Body: b}, nil
}

func isTransient(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrServer)
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		// via holds the original request plus every redirect followed so far.
		if len(via) > max {
			return errors.New("too many redirects")
		}
		// Only allow http/https during redirects
		if !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

// IsURL reports whether s is an absolute http or https URL.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && isHTTPScheme(u) && u.Host != ""
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isAllowedContentType(h http.Header) bool {
	v, ok := contenttype.GetContentType(contenttype.MultiMap(h))
	if !ok || strings.TrimSpace(v) == "" {
		return true
	}
	ct := contenttype.Parse(v)
	return ct.IsHTML() || ct.IsXML()
}

func (c *Client) acquire() {
	if c.MaxConcurrent <= 0 {
		return
	}
	c.limiterOnce.Do(func() {
		c.limiter = make(chan struct{}, c.MaxConcurrent)
	})
	c.limiter <- struct{}{}
}

func (c *Client) release() {
	if c.MaxConcurrent <= 0 || c.limiter == nil {
		return
	}
	select {
	case <-c.limiter:
	default:
	}
}
