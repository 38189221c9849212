package htmldammit

import (
	"bytes"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/taleinat/htmldammit/internal/dammit"
	"github.com/taleinat/htmldammit/internal/tree"
)

// ErrFeatureUnavailable is returned by the tree-building functions when the
// requested builder is not installed or could not be constructed.
var ErrFeatureUnavailable = tree.ErrUnavailable

// TreeBuilder parses UTF-8 markup into a document tree.
type TreeBuilder = tree.Builder

// Names of the built-in tree builders.
const (
	TreeHTML         = tree.HTML
	TreeHTMLNoScript = tree.HTMLNoScript
)

var builders = tree.Default()

// RegisterTreeBuilder makes a builder available to MakeTree under name. The
// constructor runs on first use; if it fails, every later MakeTree call for
// name returns ErrFeatureUnavailable without running it again.
func RegisterTreeBuilder(name string, construct func() (TreeBuilder, error)) {
	builders.Register(name, tree.Constructor(construct))
}

// MakeTree resolves the encoding of raw and parses it with the named builder.
// The BOM-stripped bytes are parsed through a decoder for the resolved
// encoding, so no smart-quote rewriting applies to the tree.
func MakeTree(name string, raw []byte, headers Headers) (*html.Node, error) {
	doc, _, err := ParseTree(name, raw, headers)
	return doc, err
}

// ParseTree is MakeTree that also returns the resolution the tree was parsed
// with, for callers that need the encoding without resolving twice.
func ParseTree(name string, raw []byte, headers Headers) (*html.Node, *Result, error) {
	b, err := builders.Get(name)
	if err != nil {
		return nil, nil, err
	}
	res := Resolve(raw, headers)
	enc, _ := dammit.Lookup(res.Encoding)
	if enc == nil {
		return nil, res, fmt.Errorf("no decoder for encoding %q", res.Encoding)
	}
	doc, err := b.Build(enc.NewDecoder().Reader(bytes.NewReader(res.Markup)))
	if err != nil {
		return nil, res, fmt.Errorf("parse %s: %w", name, err)
	}
	return doc, res, nil
}

// MakeNode parses raw with golang.org/x/net/html after resolving its encoding.
func MakeNode(raw []byte, headers Headers) (*html.Node, error) {
	return MakeTree(TreeHTML, raw, headers)
}

// MakeDocument parses raw into a goquery document. baseURL, when not empty,
// becomes the document URL used to resolve relative links.
func MakeDocument(raw []byte, headers Headers, baseURL string) (*goquery.Document, error) {
	var u *url.URL
	if baseURL != "" {
		var err error
		if u, err = url.Parse(baseURL); err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
	}
	node, err := MakeNode(raw, headers)
	if err != nil {
		return nil, err
	}
	doc := goquery.NewDocumentFromNode(node)
	doc.Url = u
	return doc, nil
}
