package fasthttp

import (
	"testing"

	"github.com/valyala/fasthttp"
	"golang.org/x/text/encoding/charmap"

	"github.com/taleinat/htmldammit"
)

func TestHeaders_Lookup(t *testing.T) {
	var resp fasthttp.Response
	resp.Header.Set("content-type", "text/html; charset=koi8-r")
	resp.Header.Set("X-Custom", "1")

	v, ok := htmldammit.ContentType(Headers(&resp.Header))
	if !ok || v != "text/html; charset=koi8-r" {
		t.Fatalf("got (%q,%v)", v, ok)
	}
	found := false
	for _, k := range Headers(&resp.Header).Keys() {
		if k == "X-Custom" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected X-Custom among keys")
	}
}

func TestGetResponseHTML(t *testing.T) {
	raw, err := charmap.KOI8R.NewEncoder().Bytes([]byte("<p>Привет</p>"))
	if err != nil {
		t.Fatal(err)
	}
	var resp fasthttp.Response
	resp.Header.SetContentType("text/html; charset=koi8-r")
	resp.SetBody(raw)

	got, err := GetResponseHTML(&resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "<p>Привет</p>" {
		t.Fatalf("got %q", got)
	}

	res, err := Resolve(&resp)
	if err != nil {
		t.Fatal(err)
	}
	if res.Encoding != "koi8-r" || !res.IsHTML {
		t.Fatalf("encoding %q html=%v", res.Encoding, res.IsHTML)
	}
}

func TestGetResponseHTML_MetaBeatsHeader(t *testing.T) {
	html := `<meta charset="windows-1252"><p>café</p>`
	raw, err := charmap.Windows1252.NewEncoder().Bytes([]byte(html))
	if err != nil {
		t.Fatal(err)
	}
	var resp fasthttp.Response
	resp.Header.SetContentType("text/html; charset=utf-8")
	resp.SetBody(raw)

	got, err := GetResponseHTML(&resp)
	if err != nil {
		t.Fatal(err)
	}
	if got != html {
		t.Fatalf("got %q", got)
	}
}
