package fetch

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// The CIRJE pages mix encodings: some are UTF-8, the older workshop pages
// are EUC-JP or Shift_JIS with no reliable Content-Type charset.
var fallbackEncodings = []encoding.Encoding{
	japanese.EUCJP,
	japanese.ShiftJIS,
}

// DecodeBody converts a page body to UTF-8, trying UTF-8, EUC-JP and
// Shift_JIS in that order. If nothing decodes cleanly the original bytes
// are returned untouched.
func DecodeBody(body []byte) []byte {
	if utf8.Valid(body) {
		return body
	}
	for _, enc := range fallbackEncodings {
		out, _, err := transform.Bytes(enc.NewDecoder(), body)
		if err != nil {
			continue
		}
		// The decoders substitute U+FFFD instead of failing; treat any
		// replacement rune as a wrong-encoding signal.
		if !bytes.ContainsRune(out, utf8.RuneError) {
			return out
		}
	}
	return body
}
