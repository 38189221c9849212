// Package contenttype inspects HTTP Content-Type values and locates them in
// header collections whose key casing is not known in advance.
package contenttype

import (
	"regexp"
	"strings"
)

const (
	htmlType  = "text/html"
	xhtmlType = "application/xhtml+xml"
)

var xmlTypes = []string{xhtmlType, "text/xml", "application/xml"}

var charsetRe = regexp.MustCompile(`(?i)charset=([^;]+)`)

// Header keeps the value of a Content-Type header and answers questions about it.
// The zero value describes an unknown type.
type Header struct {
	value string
	mime  string
}

// Parse wraps a raw Content-Type value such as "text/html; charset=utf-8".
// It never fails; values that are not MIME types classify as neither HTML nor XML.
func Parse(value string) Header {
	mime, _, _ := strings.Cut(value, ";")
	return Header{
		value: value,
		mime:  strings.ToLower(strings.TrimSpace(mime)),
	}
}

// Value returns the raw header value.
func (h Header) Value() string { return h.value }

// MIMEType returns the lower-cased type/subtype token.
func (h Header) MIMEType() string { return h.mime }

// IsHTML reports whether the header says the content is HTML.
func (h Header) IsHTML() bool {
	return strings.HasPrefix(h.mime, htmlType)
}

// IsXML reports whether the header says the content is XML, including XHTML and
// vendor types such as application/atom+xml.
func (h Header) IsXML() bool {
	for _, t := range xmlTypes {
		if strings.HasPrefix(h.mime, t) {
			return true
		}
	}
	return strings.HasPrefix(h.mime, "application/") && strings.HasSuffix(h.mime, "+xml")
}

// Charset returns the charset parameter, wherever it appears among the
// parameters. The second result is false when there is none.
func (h Header) Charset() (string, bool) {
	m := charsetRe.FindStringSubmatch(h.value)
	if m == nil {
		return "", false
	}
	cs := strings.TrimSpace(m[1])
	if cs == "" {
		return "", false
	}
	return cs, true
}

// String returns the raw header value.
func (h Header) String() string { return h.value }
