package htmldammit

import (
	"net/http"
	"strings"
	"testing"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/taleinat/htmldammit/internal/dammit"
)

// testEncodings mirrors what a server is likely to send. utf-16 carries a
// byte-order mark, as most UTF-16 encoders write one.
var testEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"utf-8", unicode.UTF8},
	{"utf-16", unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)},
	{"iso-8859-1", charmap.ISO8859_1},
	{"windows-1252", charmap.Windows1252},
}

// latinText is representable in every test encoding and has no bytes in the
// 0x80-0x9F range of windows-1252.
const latinText = "áéíóú ñ ü ß ½ © « » ¿"

func mustEncode(t *testing.T, enc encoding.Encoding, s string) []byte {
	t.Helper()
	b, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		t.Fatalf("encode %q: %v", s, err)
	}
	return b
}

func fill(template string, pairs ...string) string {
	return strings.NewReplacer(pairs...).Replace(template)
}

func TestDecode_JustASCII(t *testing.T) {
	doc := "<html>\n    <body>\n        <p>Hello ASCII!</p>\n    </body>\n</html>\n"
	for _, te := range testEncodings {
		got := Decode(mustEncode(t, te.enc, doc), nil)
		if got != doc {
			t.Fatalf("%s: got %q", te.name, got)
		}
	}
}

func TestDecode_HeaderEncoding(t *testing.T) {
	doc := "<html>\n    <body>\n        <p>á</p>\n    </body>\n</html>\n"
	for _, te := range testEncodings {
		h := HeaderMap{"Content-Type": "text/html; charset=" + te.name}
		got := Decode(mustEncode(t, te.enc, doc), h)
		if got != doc {
			t.Fatalf("%s: got %q", te.name, got)
		}
	}
}

func TestDecode_MetaHTTPEquiv(t *testing.T) {
	tmpl := `<html>
    <head>
        <meta http-equiv="Content-Type" content="text/html; charset="{charset}">
    </head>
    <body>
        <p>{content}</p>
    </body>
</html>
`
	for _, te := range testEncodings {
		doc := fill(tmpl, "{charset}", te.name, "{content}", latinText)
		got := Decode(mustEncode(t, te.enc, doc), HeaderMap{"Content-Type": "text/html"})
		if got != doc {
			t.Fatalf("%s: got %q", te.name, got)
		}
	}
}

func TestDecode_XMLDeclaration(t *testing.T) {
	tmpl := `<?xml version="1.0" encoding="{charset}"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN"
  "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">

<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="en" lang="en">
    <head>
        <title>Half</title>
    </head>
    <body>
        <p>` + "½" + `</p>
    </body>
</html>
`
	for _, te := range testEncodings {
		doc := fill(tmpl, "{charset}", te.name)
		got := Decode(mustEncode(t, te.enc, doc), nil)
		if got != doc {
			t.Fatalf("%s: got %q", te.name, got)
		}
	}
}

func TestDecode_DocumentDeclarationBeatsHeader(t *testing.T) {
	tmpl := `<html>
<head>
    <title>Half</title>
    <meta http-equiv="Content-Type" content="text/html; charset="{charset}">
</head>
<body>
    <p>{content}</p>
</body>
</html>
`
	headerCharsets := []string{"utf-8", "utf-16", "latin-1", "windows-1252", ""}
	for _, te := range testEncodings {
		doc := fill(tmpl, "{charset}", te.name, "{content}", latinText)
		raw := mustEncode(t, te.enc, doc)
		for _, hc := range headerCharsets {
			ct := "text/html"
			if hc != "" {
				ct += "; charset=" + hc
			}
			res := Resolve(raw, HeaderMultiMap(http.Header{"Content-Type": {ct}}))
			if res.Text != doc {
				t.Fatalf("encoding=%s header=%q: got %q via %s", te.name, hc, res.Text, res.Encoding)
			}
		}
	}
}

func TestDecode_SmartPunctuationWithoutRewrite(t *testing.T) {
	doc := `<meta charset="windows-1252"><p>“quoted” — 5€ … ‰</p>`
	raw := mustEncode(t, charmap.Windows1252, doc)
	got := Decode(raw, HeaderMap{"Content-Type": "text/html; charset=utf-8"}, WithSmartQuotes(SmartQuotesNone))
	if got != doc {
		t.Fatalf("got %q", got)
	}
}

func TestDecode_SmartPunctuationRewrite(t *testing.T) {
	raw := mustEncode(t, charmap.Windows1252, `<meta charset="windows-1252"><p>“q”</p>`)
	cases := []struct {
		contentType string
		want        string
	}{
		{"text/html", `<p>&ldquo;q&rdquo;</p>`},
		{"application/xhtml+xml", `<p>&#x201C;q&#x201D;</p>`},
		{"text/plain", `<p>"q"</p>`},
	}
	for _, tc := range cases {
		got := Decode(raw, HeaderMap{"Content-Type": tc.contentType})
		if !strings.HasSuffix(got, tc.want) {
			t.Fatalf("%s: got %q want suffix %q", tc.contentType, got, tc.want)
		}
	}
	// no Content-Type at all also resolves to ascii
	if got := Decode(raw, nil); !strings.HasSuffix(got, `<p>"q"</p>`) {
		t.Fatalf("no header: got %q", got)
	}
}

func TestResolve_NoHeader(t *testing.T) {
	raw := []byte("BLA")
	res := Resolve(raw, HeaderMap{})
	if res.Text != "BLA" {
		t.Fatalf("got %q", res.Text)
	}
	if res.IsHTML || res.IsXML {
		t.Fatalf("no header must not classify as HTML or XML")
	}
	if len(res.Candidates) != 0 {
		t.Fatalf("expected no candidates, got %v", res.Candidates)
	}
	if res.SmartQuotes != SmartQuotesASCII {
		t.Fatalf("expected ascii smart quotes, got %q", res.SmartQuotes)
	}
	enc, _ := dammit.Lookup(res.Encoding)
	if enc == nil {
		t.Fatalf("unknown encoding %q", res.Encoding)
	}
	if string(mustEncode(t, enc, res.Text)) != "BLA" {
		t.Fatalf("text does not re-encode to the input")
	}
}

func TestResolve_HeaderClassification(t *testing.T) {
	cases := []struct {
		contentType string
		isHTML      bool
		isXML       bool
		sq          SmartQuotes
	}{
		{"text/html", true, false, SmartQuotesHTML},
		{"application/xhtml+xml", false, true, SmartQuotesXML},
		{"text/plain", false, false, SmartQuotesASCII},
	}
	for _, tc := range cases {
		res := Resolve([]byte("BLA"), HeaderMap{"Content-Type": tc.contentType})
		if res.IsHTML != tc.isHTML || res.IsXML != tc.isXML {
			t.Fatalf("%s: html=%v xml=%v", tc.contentType, res.IsHTML, res.IsXML)
		}
		if len(res.Candidates) != 0 {
			t.Fatalf("%s: unexpected candidates %v", tc.contentType, res.Candidates)
		}
		if res.SmartQuotes != tc.sq {
			t.Fatalf("%s: smart quotes %q want %q", tc.contentType, res.SmartQuotes, tc.sq)
		}
	}
}

func TestResolve_HeaderCharsetCandidate(t *testing.T) {
	for _, te := range testEncodings {
		res := Resolve([]byte("BLA"), HeaderMap{"content-type": "text/html; charset=" + te.name})
		if len(res.Candidates) != 1 || res.Candidates[0] != te.name {
			t.Fatalf("%s: candidates %v", te.name, res.Candidates)
		}
		if !res.IsHTML || res.SmartQuotes != SmartQuotesHTML {
			t.Fatalf("%s: html=%v sq=%q", te.name, res.IsHTML, res.SmartQuotes)
		}
	}
}

func TestResolve_QuotedHeaderCharset(t *testing.T) {
	// "Привет" in KOI8-R; chardet alone would not settle on koi8-r.
	raw := mustEncode(t, charmap.KOI8R, "<p>Привет</p>")
	res := Resolve(raw, HeaderMap{"Content-Type": `text/html; charset="koi8-r"`})
	if res.Encoding != "koi8-r" {
		t.Fatalf("quoted charset ignored: encoding %q tried %v", res.Encoding, res.Tried)
	}
	if res.Text != "<p>Привет</p>" {
		t.Fatalf("unexpected text %q", res.Text)
	}
}

func TestResolve_CandidateOrder(t *testing.T) {
	doc := "\xEF\xBB\xBF<meta charset=\"windows-1252\"><p>x</p>"
	res := Resolve([]byte(doc), HeaderMap{"Content-Type": "text/html; charset=koi8-r"})
	want := []string{"utf-8", "windows-1252", "koi8-r"}
	if strings.Join(res.Candidates, ",") != strings.Join(want, ",") {
		t.Fatalf("candidates %v want %v", res.Candidates, want)
	}
	if res.Encoding != "utf-8" {
		t.Fatalf("BOM encoding should win, got %q", res.Encoding)
	}
	if strings.HasPrefix(string(res.Markup), "\xEF\xBB\xBF") {
		t.Fatalf("BOM must be stripped from markup")
	}
}

func TestResolve_ExplicitSmartQuotes(t *testing.T) {
	res := Resolve([]byte("x"), HeaderMap{"Content-Type": "text/html"}, WithSmartQuotes(SmartQuotesXML))
	if res.SmartQuotes != SmartQuotesXML {
		t.Fatalf("explicit target overridden: %q", res.SmartQuotes)
	}
}

func TestDecodeAny(t *testing.T) {
	raw := mustEncode(t, charmap.Windows1252, "<p>é</p>")
	for _, h := range []any{
		map[string]string{"CONTENT-TYPE": "text/html; charset=windows-1252"},
		http.Header{"Content-Type": {"text/html; charset=windows-1252"}},
	} {
		if got := DecodeAny(raw, h); got != "<p>é</p>" {
			t.Fatalf("%T: got %q", h, got)
		}
	}
	if got := DecodeAny([]byte("<p>ok</p>"), struct{}{}); got != "<p>ok</p>" {
		t.Fatalf("unknown headers: got %q", got)
	}
}

func TestContentType(t *testing.T) {
	if v, ok := ContentType(HeaderMap{"cOnTeNt-TyPe": "text/html"}); !ok || v != "text/html" {
		t.Fatalf("got (%q,%v)", v, ok)
	}
	if _, ok := ContentType(nil); ok {
		t.Fatalf("nil headers must miss")
	}
}
