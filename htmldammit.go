package htmldammit

import (
	"github.com/rs/zerolog/log"

	"github.com/taleinat/htmldammit/internal/contenttype"
	"github.com/taleinat/htmldammit/internal/dammit"
)

// Headers is a header collection of unknown key casing. See HeaderMap and
// HeaderMultiMap for ready-made adapters.
type Headers = contenttype.Headers

// HeaderMap adapts map[string]string headers.
type HeaderMap = contenttype.Map

// HeaderMultiMap adapts http.Header, textproto.MIMEHeader and other
// map[string][]string headers.
type HeaderMultiMap = contenttype.MultiMap

// HeaderAdapter converts a caller-specific header value for DecodeAny.
type HeaderAdapter = contenttype.Adapter

// SmartQuotes selects how windows-1252 smart punctuation is rewritten.
type SmartQuotes = dammit.SmartQuotes

// Smart quote targets. SmartQuotesAuto picks HTML entities for HTML, XML
// character references for XML and ASCII otherwise; SmartQuotesNone leaves
// the bytes to the decoder.
const (
	SmartQuotesAuto  = dammit.SmartQuotesAuto
	SmartQuotesHTML  = dammit.SmartQuotesHTML
	SmartQuotesXML   = dammit.SmartQuotesXML
	SmartQuotesASCII = dammit.SmartQuotesASCII
	SmartQuotesNone  = dammit.SmartQuotesNone
)

// Result describes a resolved and decoded document.
type Result struct {
	// Text is the decoded document.
	Text string
	// Encoding is the canonical name of the encoding that produced Text.
	Encoding string
	// Markup is the input without its byte-order mark. Parse these bytes,
	// not the original input, when re-parsing with Encoding.
	Markup []byte

	IsHTML bool
	IsXML  bool

	// Candidates are the encodings handed to the decoder before its own
	// detection: byte-order mark, in-document declaration, header charset.
	Candidates []string
	// Tried lists every encoding the decoder attempted.
	Tried []string
	// SmartQuotes is the resolved smart-quotes target.
	SmartQuotes SmartQuotes
}

type options struct {
	smartQuotes SmartQuotes
}

// Option configures Resolve.
type Option func(*options)

// WithSmartQuotes sets the smart-quotes target. The default, SmartQuotesAuto,
// resolves to SmartQuotesHTML for HTML content types, SmartQuotesXML for XML
// ones and SmartQuotesASCII otherwise, including when there is no
// Content-Type header at all.
func WithSmartQuotes(sq SmartQuotes) Option {
	return func(o *options) { o.smartQuotes = sq }
}

// Resolve works out the encoding of raw and decodes it. headers may be nil.
// It never fails; undecodable input still produces best-effort text.
func Resolve(raw []byte, headers Headers, opts ...Option) *Result {
	o := options{smartQuotes: SmartQuotesAuto}
	for _, opt := range opts {
		opt(&o)
	}

	var ct contenttype.Header
	headerCharset := ""
	if v, ok := contenttype.GetContentType(headers); ok {
		ct = contenttype.Parse(v)
		headerCharset, _ = ct.Charset()
	}
	isHTML, isXML := ct.IsHTML(), ct.IsXML()

	markup, bomEncoding := dammit.StripBOM(raw)
	candidates := make([]string, 0, 3)
	for _, c := range []string{
		bomEncoding,
		dammit.FindDeclaredEncoding(markup, isHTML, true),
		headerCharset,
	} {
		if c != "" {
			candidates = append(candidates, c)
		}
	}

	sq := resolveSmartQuotes(o.smartQuotes, isHTML, isXML)
	d := dammit.New(markup, dammit.Options{
		IsHTML:      isHTML,
		Overrides:   candidates,
		SmartQuotes: sq,
	})
	log.Debug().
		Str("content_type", ct.Value()).
		Strs("candidates", candidates).
		Strs("tried", d.Tried).
		Str("encoding", d.OriginalEncoding).
		Msg("resolved document encoding")

	return &Result{
		Text:        d.Unicode,
		Encoding:    d.OriginalEncoding,
		Markup:      d.Markup,
		IsHTML:      isHTML,
		IsXML:       isXML,
		Candidates:  candidates,
		Tried:       d.Tried,
		SmartQuotes: sq,
	}
}

func resolveSmartQuotes(sq SmartQuotes, isHTML, isXML bool) SmartQuotes {
	if sq != SmartQuotesAuto {
		return sq
	}
	switch {
	case isHTML:
		return SmartQuotesHTML
	case isXML:
		return SmartQuotesXML
	}
	return SmartQuotesASCII
}

// Decode returns raw decoded to text. headers may be nil.
func Decode(raw []byte, headers Headers, opts ...Option) string {
	return Resolve(raw, headers, opts...).Text
}

// DecodeAny is Decode for header values that are not Headers yet, such as
// http.Header or map[string]string. Types the built-in conversions do not
// know are offered to adapters; if none accepts them the headers are ignored.
func DecodeAny(raw []byte, headers any, adapters ...HeaderAdapter) string {
	return Decode(raw, contenttype.Adapt(headers, adapters...))
}

// ContentType returns the Content-Type value in headers regardless of the
// casing used for its key.
func ContentType(headers Headers) (string, bool) {
	return contenttype.GetContentType(headers)
}
