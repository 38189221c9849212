// Package dammit turns bytes of unknown encoding into text. It tries a list of
// candidate encodings in order and keeps the first one that decodes cleanly,
// falling back on a byte-order mark, an in-document declaration, statistical
// detection and finally utf-8 and windows-1252.
package dammit

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode/utf32"
)

const fallbackEncoding = "windows-1252"

// common spellings that neither the WHATWG nor the IANA registry carry
var labelAliases = map[string]string{
	"latin-1": "latin1",
	"latin_1": "latin1",
	"utf_8":   "utf-8",
	"utf_16":  "utf-16",
}

var utf32Encodings = map[string]encoding.Encoding{
	"utf-32":   utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM),
	"utf-32le": utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM),
	"utf-32be": utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM),
}

// Lookup resolves an encoding label to an encoding and its canonical
// lower-case name. WHATWG labels win over IANA ones, so "iso-8859-1" resolves
// to windows-1252 the way browsers treat it. Unknown labels return nil.
func Lookup(label string) (encoding.Encoding, string) {
	// Header parameters may arrive quoted: charset="utf-8".
	label = strings.ToLower(strings.Trim(label, "\"' \t"))
	if label == "" {
		return nil, ""
	}
	if alias, ok := labelAliases[label]; ok {
		label = alias
	}
	if e, ok := utf32Encodings[label]; ok {
		return e, label
	}
	if e, name := charset.Lookup(label); e != nil {
		return e, name
	}
	e, err := ianaindex.IANA.Encoding(label)
	if err != nil || e == nil {
		return nil, ""
	}
	name, err := ianaindex.IANA.Name(e)
	if err != nil {
		name = label
	}
	return e, strings.ToLower(name)
}

// Options controls a decode.
type Options struct {
	// IsHTML selects the HTML flavour of declaration search and detection.
	IsHTML bool
	// Overrides are tried before anything the decoder finds itself.
	Overrides []string
	// SmartQuotes is applied when a windows-1252 style encoding is tried.
	// SmartQuotesAuto behaves like SmartQuotesNone here.
	SmartQuotes SmartQuotes
}

// Dammit is the outcome of a decode.
type Dammit struct {
	// Markup is the input with any byte-order mark removed.
	Markup []byte
	// Unicode is the decoded text.
	Unicode string
	// OriginalEncoding is the canonical name of the encoding that produced Unicode.
	OriginalEncoding string

	SniffedEncoding  string
	DeclaredEncoding string
	DetectedEncoding string

	// Tried lists every encoding attempted, in order, by canonical name.
	Tried []string

	opts  Options
	tried map[string]bool
}

// New decodes markup. It never fails: when no candidate decodes cleanly the
// text is produced from windows-1252 with replacement characters.
func New(markup []byte, opts Options) *Dammit {
	d := &Dammit{opts: opts, tried: make(map[string]bool)}
	d.Markup, d.SniffedEncoding = StripBOM(markup)

	for _, label := range opts.Overrides {
		if d.try(label) {
			return d
		}
	}
	if d.try(d.SniffedEncoding) {
		return d
	}
	d.DeclaredEncoding = FindDeclaredEncoding(d.Markup, opts.IsHTML, false)
	if d.try(d.DeclaredEncoding) {
		return d
	}
	d.DetectedEncoding = Detect(d.Markup, opts.IsHTML)
	if d.try(d.DetectedEncoding) {
		return d
	}
	if d.try("utf-8") || d.try(fallbackEncoding) {
		return d
	}

	out, _ := charmap.Windows1252.NewDecoder().Bytes(d.Markup)
	d.Unicode = strings.ToValidUTF8(string(out), "�")
	d.OriginalEncoding = fallbackEncoding
	log.Debug().Strs("tried", d.Tried).Msg("no encoding decoded cleanly; using replacement")
	return d
}

func (d *Dammit) try(label string) bool {
	enc, name := Lookup(label)
	if enc == nil || d.tried[name] {
		return false
	}
	d.tried[name] = true
	d.Tried = append(d.Tried, name)

	markup := d.Markup
	if smartQuoteEncodings[name] {
		markup = replaceSmartQuotes(markup, d.opts.SmartQuotes)
	}
	text, ok := decodeClean(enc, name, markup)
	if !ok {
		return false
	}
	d.Unicode = text
	d.OriginalEncoding = name
	return true
}

// decodeClean reports false when b is not valid in the encoding, which for
// x/text decoders shows up as replacement characters in the output.
func decodeClean(enc encoding.Encoding, name string, b []byte) (string, bool) {
	if name == "utf-8" {
		if !utf8.Valid(b) {
			return "", false
		}
		return string(b), true
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil || bytes.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return string(out), true
}
