package totp

import (
	"strings"
	"unicode"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// decodeMap maps an input byte to its 5-bit value, or -1 when the byte is
// not part of the alphabet.
var decodeMap = func() [256]int8 {
	var m [256]int8
	for i := range m {
		m[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		m[alphabet[i]] = int8(i)
	}
	return m
}()

// NormalizeSecret strips all whitespace from s and upper-cases it.
func NormalizeSecret(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, s)
}

// DecodeBase32 decodes an upper-case RFC 4648 base32 string.
//
// Decoding is permissive: bytes outside the alphabet, including '=' padding,
// are skipped instead of failing the decode. Trailing bits that do not fill a
// whole byte are discarded. Empty or all-invalid input yields an empty slice.
func DecodeBase32(s string) []byte {
	out := make([]byte, 0, len(s)*5/8)

	var (
		buf  uint32
		bits uint
	)
	for i := 0; i < len(s); i++ {
		v := decodeMap[s[i]]
		if v < 0 {
			continue
		}
		buf = buf<<5 | uint32(v)
		bits += 5
		if bits >= 8 {
			bits -= 8
			out = append(out, byte(buf>>bits))
			buf &= 1<<bits - 1
		}
	}

	return out
}

// DecodeSecret normalizes a user supplied secret and decodes it.
func DecodeSecret(secret string) []byte {
	return DecodeBase32(NormalizeSecret(secret))
}
