package dammit

import "fmt"

// SmartQuotes selects how Microsoft "smart" punctuation in the 0x80-0x9F
// range of windows-1252 style documents is rewritten before decoding.
type SmartQuotes string

const (
	// SmartQuotesNone leaves the bytes to the decoder.
	SmartQuotesNone SmartQuotes = ""
	// SmartQuotesAuto is resolved by the caller from the content type.
	SmartQuotesAuto  SmartQuotes = "auto"
	SmartQuotesHTML  SmartQuotes = "html"
	SmartQuotesXML   SmartQuotes = "xml"
	SmartQuotesASCII SmartQuotes = "ascii"
)

// ParseSmartQuotes maps a user supplied name onto a SmartQuotes value. "none"
// and the empty string both mean SmartQuotesNone.
func ParseSmartQuotes(s string) (SmartQuotes, error) {
	switch SmartQuotes(s) {
	case SmartQuotesAuto, SmartQuotesHTML, SmartQuotesXML, SmartQuotesASCII:
		return SmartQuotes(s), nil
	case SmartQuotesNone, "none":
		return SmartQuotesNone, nil
	}
	return SmartQuotesNone, fmt.Errorf("unknown smart quotes target %q", s)
}

// encodings whose 0x80-0x9F range is rewritten
var smartQuoteEncodings = map[string]bool{
	"windows-1252": true,
	"iso-8859-1":   true,
	"iso-8859-2":   true,
}

type msChar struct {
	entity string // HTML entity name; empty when the byte is undefined
	code   rune
	ascii  string
}

var msChars = [32]msChar{
	{"euro", 0x20AC, "EUR"},
	{"", ' ', " "},
	{"sbquo", 0x201A, ","},
	{"fnof", 0x0192, "f"},
	{"bdquo", 0x201E, ",,"},
	{"hellip", 0x2026, "..."},
	{"dagger", 0x2020, "+"},
	{"Dagger", 0x2021, "++"},
	{"circ", 0x02C6, "^"},
	{"permil", 0x2030, "%"},
	{"Scaron", 0x0160, "S"},
	{"lsaquo", 0x2039, "<"},
	{"OElig", 0x0152, "OE"},
	{"", '?', "?"},
	{"Zcaron", 0x017D, "Z"},
	{"", '?', "?"},
	{"", '?', "?"},
	{"lsquo", 0x2018, "'"},
	{"rsquo", 0x2019, "'"},
	{"ldquo", 0x201C, `"`},
	{"rdquo", 0x201D, `"`},
	{"bull", 0x2022, "*"},
	{"ndash", 0x2013, "-"},
	{"mdash", 0x2014, "--"},
	{"tilde", 0x02DC, "~"},
	{"trade", 0x2122, "(TM)"},
	{"scaron", 0x0161, "s"},
	{"rsaquo", 0x203A, ">"},
	{"oelig", 0x0153, "oe"},
	{"", '?', "?"},
	{"zcaron", 0x017E, "z"},
	{"Yuml", 0x0178, "Y"},
}

func (c msChar) replacement(to SmartQuotes) string {
	switch to {
	case SmartQuotesASCII:
		return c.ascii
	case SmartQuotesHTML:
		if c.entity != "" {
			return "&" + c.entity + ";"
		}
	case SmartQuotesXML:
		if c.entity != "" {
			return fmt.Sprintf("&#x%X;", c.code)
		}
	}
	return string(c.code)
}

// replaceSmartQuotes rewrites every byte in 0x80-0x9F according to to. Input
// without such bytes is returned as is.
func replaceSmartQuotes(b []byte, to SmartQuotes) []byte {
	if to == SmartQuotesNone || to == SmartQuotesAuto {
		return b
	}
	first := -1
	for i, c := range b {
		if c >= 0x80 && c <= 0x9F {
			first = i
			break
		}
	}
	if first < 0 {
		return b
	}
	out := make([]byte, 0, len(b)+16)
	out = append(out, b[:first]...)
	for _, c := range b[first:] {
		if c >= 0x80 && c <= 0x9F {
			out = append(out, msChars[c-0x80].replacement(to)...)
			continue
		}
		out = append(out, c)
	}
	return out
}
