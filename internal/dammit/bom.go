package dammit

import "bytes"

var boms = []struct {
	mark     []byte
	encoding string
}{
	// UTF-32 marks first: FF FE 00 00 also starts with the UTF-16LE mark.
	{[]byte{0xFF, 0xFE, 0x00, 0x00}, "utf-32le"},
	{[]byte{0x00, 0x00, 0xFE, 0xFF}, "utf-32be"},
	{[]byte{0xEF, 0xBB, 0xBF}, "utf-8"},
	{[]byte{0xFF, 0xFE}, "utf-16le"},
	{[]byte{0xFE, 0xFF}, "utf-16be"},
}

// StripBOM removes a leading byte-order mark and returns the encoding it
// implies. Without a mark b is returned unchanged with an empty encoding.
func StripBOM(b []byte) ([]byte, string) {
	for _, bom := range boms {
		if bytes.HasPrefix(b, bom.mark) {
			return b[len(bom.mark):], bom.encoding
		}
	}
	return b, ""
}
