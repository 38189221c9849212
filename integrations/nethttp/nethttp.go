// Package nethttp decodes net/http responses with htmldammit.
package nethttp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/taleinat/htmldammit"
	"github.com/taleinat/htmldammit/internal/contenttype"
)

// OriginalCharsetHeader carries the encoding a Transport decoded a body from.
const OriginalCharsetHeader = "X-Original-Charset"

// Headers adapts an http.Header.
func Headers(h http.Header) htmldammit.Headers {
	return htmldammit.HeaderMultiMap(h)
}

// GetResponseHTML reads the rest of resp.Body and decodes it using the
// response headers. It does not close the body.
func GetResponseHTML(resp *http.Response) (string, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return htmldammit.Decode(body, Headers(resp.Header)), nil
}

// HTMLResponse is an HTML response whose body can be read as text.
type HTMLResponse struct {
	*http.Response
}

// WrapIfHTML returns an HTMLResponse when resp declares an HTML content type.
func WrapIfHTML(resp *http.Response) (*HTMLResponse, bool) {
	if resp == nil || !isHTML(resp.Header) {
		return nil, false
	}
	return &HTMLResponse{Response: resp}, true
}

// ReadHTML decodes the unread part of the body. The body is consumed, so a
// second call returns an empty string.
func (r *HTMLResponse) ReadHTML() (string, error) {
	return GetResponseHTML(r.Response)
}

func isHTML(h http.Header) bool {
	v, ok := contenttype.GetContentType(Headers(h))
	return ok && contenttype.Parse(v).IsHTML()
}

type streamingKey struct{}

// WithStreaming marks requests made with ctx as streaming; Transport passes
// their responses through untouched.
func WithStreaming(ctx context.Context) context.Context {
	return context.WithValue(ctx, streamingKey{}, true)
}

func isStreaming(ctx context.Context) bool {
	v, _ := ctx.Value(streamingKey{}).(bool)
	return v
}

// Transport decodes HTML response bodies to UTF-8 as they arrive. The body is
// replaced by the decoded text, the Content-Type charset becomes utf-8 and
// the original encoding is recorded in OriginalCharsetHeader. Bodies that are
// still content-encoded (gzip requested explicitly by the caller) are passed
// through untouched.
type Transport struct {
	// Base performs the request. Nil means http.DefaultTransport.
	Base http.RoundTripper
	// MaxBodyBytes leaves responses with a larger declared Content-Length
	// alone. Zero means no limit.
	MaxBodyBytes int64
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base().RoundTrip(req)
	if err != nil || isStreaming(req.Context()) || !isHTML(resp.Header) || isCompressed(resp) {
		return resp, err
	}
	if t.MaxBodyBytes > 0 && resp.ContentLength > t.MaxBodyBytes {
		return resp, nil
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	res := htmldammit.Resolve(body, Headers(resp.Header))
	ct, _ := contenttype.GetContentType(Headers(resp.Header))
	resp.Header.Set("Content-Type", contenttype.Parse(ct).MIMEType()+"; charset=utf-8")
	resp.Header.Set(OriginalCharsetHeader, res.Encoding)
	resp.Header.Set("Content-Length", strconv.Itoa(len(res.Text)))
	resp.ContentLength = int64(len(res.Text))
	resp.Body = io.NopCloser(strings.NewReader(res.Text))

	log.Debug().Str("url", req.URL.String()).Str("encoding", res.Encoding).Msg("decoded html response")
	return resp, nil
}

// isCompressed reports whether the body still carries a content coding,
// which happens when the caller asked for one with Accept-Encoding.
func isCompressed(resp *http.Response) bool {
	ce := strings.TrimSpace(resp.Header.Get("Content-Encoding"))
	return ce != "" && !strings.EqualFold(ce, "identity") && !resp.Uncompressed
}

// NewClient returns a copy of base (or a new client when base is nil) whose
// transport decodes HTML responses.
func NewClient(base *http.Client) *http.Client {
	c := &http.Client{}
	if base != nil {
		*c = *base
	}
	c.Transport = &Transport{Base: c.Transport}
	return c
}
