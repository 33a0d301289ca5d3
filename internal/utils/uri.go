package utils

import "strings"

const upperHex = "0123456789ABCDEF"

// EncodeURIComponent percent-encodes every byte except the unreserved set
// A-Z a-z 0-9 - _ . ! ~ * ' ( ), which is what proxy endpoints expect for an
// embedded target address. url.QueryEscape differs on spaces and on !*'().
func EncodeURIComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if keepUnescaped(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&15])
	}
	return b.String()
}

func keepUnescaped(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
