// Package fileuri implements a reversible file:// URI codec for
// absolute POSIX paths, per-byte percent-encoded outside the unreserved
// set.
package fileuri

import (
	"strings"
)

const scheme = "file://"

// isUnreserved reports whether b may appear unescaped in a file URI.
func isUnreserved(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z':
		return true
	case b >= 'a' && b <= 'z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b == '-' || b == '.' || b == '_' || b == '~' || b == '/':
		return true
	}
	return false
}

const upperHex = "0123456789ABCDEF"

// PathToFileURI prefixes p with "file://" and percent-encodes every
// byte not in the unreserved set {ALPHA, DIGIT, '-', '.', '_', '~', '/'}.
// Encoded triplets use uppercase hex digits.
func PathToFileURI(p string) string {
	var b strings.Builder
	b.WriteString(scheme)
	for i := 0; i < len(p); i++ {
		c := p[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0xF])
	}
	return b.String()
}

// FileURIToPath strips a "file://" prefix and percent-decodes the rest.
// If u does not begin with "file://", it is returned unchanged.
// Malformed "%XY" triplets (non-hex digits, or a trailing "%" / "%X"
// with no room for a second digit) are copied through literally.
func FileURIToPath(u string) string {
	if !strings.HasPrefix(u, scheme) {
		return u
	}
	rest := u[len(scheme):]

	var b strings.Builder
	b.Grow(len(rest))
	for i := 0; i < len(rest); i++ {
		c := rest[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+2 >= len(rest) {
			b.WriteByte(c)
			continue
		}
		hi, ok1 := hexVal(rest[i+1])
		lo, ok2 := hexVal(rest[i+2])
		if !ok1 || !ok2 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte(byte(hi<<4 | lo))
		i += 2
	}
	return b.String()
}

func hexVal(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	}
	return 0, false
}
