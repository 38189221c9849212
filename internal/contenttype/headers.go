package contenttype

import (
	"net/http"
	"net/textproto"
	"sort"
	"strings"
)

// HeaderName is the header GetContentType looks for.
const HeaderName = "content-type"

// Headers is the part of a header collection the extractor needs. Get is a
// direct lookup and may or may not ignore case; Keys lists the stored names.
type Headers interface {
	Get(name string) (string, bool)
	Keys() []string
}

// CaseFolder is implemented by collections whose Get already ignores case.
// GetContentType skips the key scan for them.
type CaseFolder interface {
	FoldsCase() bool
}

// GetContentType returns the Content-Type value from h regardless of how the
// key was cased when it was stored. A nil h or a missing header yields false.
func GetContentType(h Headers) (string, bool) {
	if h == nil {
		return "", false
	}
	if v, ok := h.Get(HeaderName); ok {
		return v, true
	}
	if f, ok := h.(CaseFolder); ok && f.FoldsCase() {
		return "", false
	}
	for _, k := range h.Keys() {
		if strings.EqualFold(k, HeaderName) {
			return h.Get(k)
		}
	}
	return "", false
}

// Map adapts a plain string map. Lookups are case-sensitive.
type Map map[string]string

func (m Map) Get(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MultiMap adapts multi-valued header maps such as http.Header and
// textproto.MIMEHeader. Get returns the first value stored under the exact key;
// keys set without canonicalisation are still found through the key scan.
type MultiMap map[string][]string

func (m MultiMap) Get(name string) (string, bool) {
	vs, ok := m[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

func (m MultiMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Adapter converts a caller-specific header value into Headers. It returns
// false when it does not recognise v.
type Adapter func(v any) (Headers, bool)

// Adapt converts v into Headers. Headers values pass through; string maps,
// http.Header and textproto.MIMEHeader are handled directly; anything else is
// offered to extra in order. Unrecognised values yield nil, which extracts as
// "no Content-Type".
func Adapt(v any, extra ...Adapter) Headers {
	switch h := v.(type) {
	case nil:
		return nil
	case Headers:
		return h
	case map[string]string:
		return Map(h)
	case map[string][]string:
		return MultiMap(h)
	case http.Header:
		return MultiMap(h)
	case textproto.MIMEHeader:
		return MultiMap(h)
	}
	for _, a := range extra {
		if a == nil {
			continue
		}
		if h, ok := a(v); ok {
			return h
		}
	}
	return nil
}
