// Package textenc normalizes playlist text of unknown encoding to UTF-8.
// Real-world M3U files mix UTF-8 with legacy single-byte encodings, often
// within one file; channel and group names must come out as valid UTF-8.
package textenc

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

// ToUTF8 returns s unchanged when it is already valid UTF-8. Otherwise the
// encoding is sniffed and the string decoded to UTF-8; bytes that survive
// neither step are dropped rather than rendered as replacement runes.
func ToUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	enc, _, _ := charset.DetermineEncoding([]byte(s), "")
	if enc != nil {
		out, _, err := transform.String(enc.NewDecoder(), s)
		if err == nil && utf8.ValidString(out) {
			return out
		}
	}
	return strings.ToValidUTF8(s, "")
}
