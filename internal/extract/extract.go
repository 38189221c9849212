// Package extract turns a decoded document tree into readable text for the
// CLI's text output mode.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/taleinat/htmldammit"
)

// Document is the readable content of a page.
type Document struct {
	Title string
	Text  string
	// Encoding is the encoding the raw bytes were decoded with. Empty when
	// the document came from an already parsed tree.
	Encoding string
}

// Elements whose text never counts as content.
const skipSelector = "script, style, noscript, nav, footer, aside, iframe, template"

// Attribute markers of cookie and consent banners.
var bannerMarkers = []string{"cookie", "consent", "gdpr"}

// FromHTML decodes raw markup using the encoding resolution rules and
// extracts its readable text.
func FromHTML(raw []byte, headers htmldammit.Headers) (Document, error) {
	node, res, err := htmldammit.ParseTree(htmldammit.TreeHTMLNoScript, raw, headers)
	if err != nil {
		return Document{}, fmt.Errorf("build tree: %w", err)
	}
	doc := FromNode(node)
	doc.Encoding = res.Encoding
	return doc, nil
}

// FromNode extracts text from the first <main>, then <article>, then <body>.
// Headings, paragraphs, and list items become separate lines; pre blocks keep
// their line breaks.
func FromNode(n *html.Node) Document {
	if n == nil {
		return Document{}
	}
	sel := goquery.NewDocumentFromNode(n).Selection
	title := strings.TrimSpace(sel.Find("head title").First().Text())

	var root *goquery.Selection
	for _, tag := range []string{"main", "article", "body"} {
		if s := sel.Find(tag).First(); s.Length() > 0 {
			root = s
			break
		}
	}
	if root == nil {
		return Document{Title: title}
	}
	var b strings.Builder
	for _, c := range root.Nodes {
		collectText(&b, c, false)
	}
	return Document{Title: title, Text: normalizeWhitespace(b.String())}
}

func collectText(b *strings.Builder, n *html.Node, inPre bool) {
	if n.Type == html.ElementNode {
		if skipped(n) {
			return
		}
		switch n.Data {
		case "pre":
			inPre = true
			b.WriteString("\n")
		case "br", "hr":
			b.WriteString("\n")
		case "p", "div", "h1", "h2", "h3", "h4", "h5", "h6", "li", "ul", "ol", "tr", "blockquote":
			b.WriteString("\n")
		}
	}
	if n.Type == html.TextNode {
		if inPre {
			// Newlines inside pre survive normalization as a marker.
			b.WriteString(strings.ReplaceAll(n.Data, "\n", preBreak))
		} else {
			b.WriteString(n.Data)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c, inPre)
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote":
			b.WriteString("\n\n")
		case "li", "tr", "div", "pre":
			b.WriteString("\n")
		}
	}
}

const preBreak = "\x00"

func skipped(n *html.Node) bool {
	if goquery.NewDocumentFromNode(n).Is(skipSelector) {
		return true
	}
	for _, attr := range n.Attr {
		key := strings.ToLower(attr.Key)
		if key != "id" && key != "class" && key != "role" && key != "aria-label" && !strings.HasPrefix(key, "data-") {
			continue
		}
		val := strings.ToLower(attr.Val)
		for _, m := range bannerMarkers {
			if strings.Contains(val, m) {
				return true
			}
		}
	}
	return false
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			// Keep at most one consecutive blank
			if len(out) == 0 || out[len(out)-1] == "" {
				continue
			}
			out = append(out, "")
			continue
		}
		out = append(out, line)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.ReplaceAll(strings.Join(out, "\n"), preBreak, "\n")
}
