// Package fasthttp decodes github.com/valyala/fasthttp responses with htmldammit.
package fasthttp

import (
	"fmt"

	"github.com/valyala/fasthttp"

	"github.com/taleinat/htmldammit"
)

type responseHeaders struct {
	h *fasthttp.ResponseHeader
}

// Headers adapts a fasthttp response header. fasthttp normalises header
// names on storage and lookup, so the adapter declares case folding.
//
// fasthttp reports "text/plain; charset=utf-8" as the Content-Type of
// responses that did not set one, unless SetNoDefaultContentType was used.
func Headers(h *fasthttp.ResponseHeader) htmldammit.Headers {
	return responseHeaders{h: h}
}

func (r responseHeaders) Get(name string) (string, bool) {
	v := r.h.Peek(name)
	if v == nil {
		return "", false
	}
	return string(v), true
}

func (r responseHeaders) Keys() []string {
	var keys []string
	r.h.VisitAll(func(k, _ []byte) {
		keys = append(keys, string(k))
	})
	return keys
}

func (r responseHeaders) FoldsCase() bool { return true }

// GetResponseHTML decodes the (uncompressed) body of resp using its headers.
func GetResponseHTML(resp *fasthttp.Response) (string, error) {
	body, err := resp.BodyUncompressed()
	if err != nil {
		return "", fmt.Errorf("uncompress body: %w", err)
	}
	return htmldammit.Decode(body, Headers(&resp.Header)), nil
}

// Resolve is GetResponseHTML returning the full resolution result.
func Resolve(resp *fasthttp.Response, opts ...htmldammit.Option) (*htmldammit.Result, error) {
	body, err := resp.BodyUncompressed()
	if err != nil {
		return nil, fmt.Errorf("uncompress body: %w", err)
	}
	return htmldammit.Resolve(body, Headers(&resp.Header), opts...), nil
}
