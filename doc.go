// Package htmldammit decodes HTML and XHTML fetched from the web into text.
//
// The encoding is taken, in order of preference, from a byte-order mark, from
// a declaration inside the document (<meta charset>, <meta http-equiv> or an
// XML declaration), from the charset of the HTTP Content-Type header, and
// finally from statistical detection. Declarations inside the document win
// over the header because servers are more often misconfigured than pages.
//
// Pass the response headers whenever they are available:
//
//	text := htmldammit.Decode(body, htmldammit.HeaderMap{"Content-Type": ct})
//
// When the document is going to be parsed, prefer MakeNode or MakeDocument:
// they parse the original bytes with the resolved encoding instead of
// re-parsing decoded text.
package htmldammit
