package dammit

import (
	"regexp"
	"strings"
)

const xmlSearchLimit = 1024

var (
	xmlEncodingRe = regexp.MustCompile(`(?i)<\?xml[^>]*?\sencoding\s*=\s*["']([a-z0-9._:-]+)["']`)
	metaCharsetRe = regexp.MustCompile(`(?i)<\s*meta[^>]+?charset\s*=\s*["']?\s*([a-z0-9._:-]+)`)
)

// FindDeclaredEncoding looks for an encoding declared inside the document: an
// XML declaration first, then (for HTML, or whenever entire is set) a <meta>
// charset. Without entire only the leading part of the document is searched,
// the way a browser prescan would. The result is lower-cased, or empty.
//
// A UTF-16 or UTF-32 label found this way is reported as utf-8: markup that
// can be read as ASCII is not in either of those encodings.
func FindDeclaredEncoding(b []byte, isHTML, entire bool) string {
	xmlEnd, htmlEnd := len(b), len(b)
	if !entire {
		xmlEnd = min(len(b), xmlSearchLimit)
		htmlEnd = min(len(b), max(2048, len(b)/20))
	}
	var label string
	if m := xmlEncodingRe.FindSubmatch(b[:xmlEnd]); m != nil {
		label = string(m[1])
	} else if isHTML || entire {
		if m := metaCharsetRe.FindSubmatch(b[:htmlEnd]); m != nil {
			label = string(m[1])
		}
	}
	label = strings.ToLower(label)
	if strings.HasPrefix(label, "utf-16") || strings.HasPrefix(label, "utf-32") {
		return "utf-8"
	}
	return label
}
