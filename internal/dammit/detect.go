package dammit

import (
	"strings"

	"github.com/saintfish/chardet"
)

// chardet reports a few names that are not registered labels.
var detectorAliases = map[string]string{
	"gb-18030":     "gb18030",
	"iso-8859-8-i": "iso-8859-8",
	"ibm420_ltr":   "",
	"ibm420_rtl":   "",
	"ibm424_ltr":   "",
	"ibm424_rtl":   "",
}

// Detect guesses the encoding of b statistically. HTML input is run through the
// detector variant that ignores markup. An empty result means no guess.
func Detect(b []byte, isHTML bool) string {
	if len(b) == 0 {
		return ""
	}
	d := chardet.NewTextDetector()
	if isHTML {
		d = chardet.NewHtmlDetector()
	}
	res, err := d.DetectBest(b)
	if err != nil || res == nil {
		return ""
	}
	name := strings.ToLower(res.Charset)
	if alias, ok := detectorAliases[name]; ok {
		return alias
	}
	return name
}
