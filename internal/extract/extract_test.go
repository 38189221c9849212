package extract

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/taleinat/htmldammit"
)

func parse(t *testing.T, s string) *html.Node {
	t.Helper()
	n, err := html.Parse(strings.NewReader(s))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return n
}

func TestFromNode_PrefersMainOverBody(t *testing.T) {
	page := `<!doctype html>
    <html>
      <head><title>Test Page</title></head>
      <body>
        <nav>Nav should be ignored</nav>
        <main>
          <h1>Main Heading</h1>
          <p>This is the main content paragraph.</p>
        </main>
        <footer>Footer text</footer>
      </body>
    </html>`

	doc := FromNode(parse(t, page))
	if doc.Title != "Test Page" {
		t.Fatalf("expected title 'Test Page', got %q", doc.Title)
	}
	if doc.Text != "Main Heading\n\nThis is the main content paragraph." {
		t.Fatalf("unexpected text: %q", doc.Text)
	}
}

func TestFromNode_FallbackToBody(t *testing.T) {
	page := `<html><head><title>No Main</title></head>
      <body><nav>menu</nav><h2>Body Heading</h2><p>Body paragraph</p><footer>f</footer></body></html>`

	doc := FromNode(parse(t, page))
	if doc.Title != "No Main" {
		t.Fatalf("expected title 'No Main', got %q", doc.Title)
	}
	if doc.Text != "Body Heading\n\nBody paragraph" {
		t.Fatalf("unexpected text: %q", doc.Text)
	}
}

func TestFromNode_PreservesCodeAndListItems(t *testing.T) {
	page := "<html><body><article><h3>Examples</h3><ul><li>First item</li><li>Second   item</li></ul>" +
		"<pre><code>print(\"hello\")\nprint(\"world\")</code></pre></article></body></html>"

	doc := FromNode(parse(t, page))
	for _, want := range []string{"First item", "Second item", "print(\"hello\")\nprint(\"world\")"} {
		if !strings.Contains(doc.Text, want) {
			t.Fatalf("expected %q in %q", want, doc.Text)
		}
	}
}

func TestFromNode_SkipsConsentBanners(t *testing.T) {
	page := `<html><body><div id="cookie-banner">We use cookies</div><div class="x" data-role="gdpr-box">Accept</div><p>Real</p></body></html>`
	doc := FromNode(parse(t, page))
	if doc.Text != "Real" {
		t.Fatalf("unexpected text: %q", doc.Text)
	}
}

func TestFromNode_Nil(t *testing.T) {
	if doc := FromNode(nil); doc != (Document{}) {
		t.Fatalf("expected empty document, got %+v", doc)
	}
}

func TestFromHTML_DecodesDeclaredEncoding(t *testing.T) {
	// "Привет" in KOI8-R.
	raw := []byte("<html><head><meta charset=\"koi8-r\"><title>t</title></head><body><p>\xf0\xd2\xc9\xd7\xc5\xd4</p></body></html>")
	doc, err := FromHTML(raw, htmldammit.HeaderMap{"Content-Type": "text/html; charset=utf-8"})
	if err != nil {
		t.Fatalf("FromHTML: %v", err)
	}
	if doc.Encoding != "koi8-r" {
		t.Fatalf("expected koi8-r, got %q", doc.Encoding)
	}
	if doc.Text != "Привет" {
		t.Fatalf("unexpected text: %q", doc.Text)
	}
}

func TestFromHTML_HeaderCharset(t *testing.T) {
	raw := []byte("<p>caf\xe9</p>")
	doc, err := FromHTML(raw, htmldammit.HeaderMap{"Content-Type": "text/html; charset=iso-8859-1"})
	if err != nil {
		t.Fatalf("FromHTML: %v", err)
	}
	if doc.Text != "café" {
		t.Fatalf("unexpected text: %q", doc.Text)
	}
}
