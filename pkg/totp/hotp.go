package totp

import (
	"crypto/hmac"
	"crypto/sha1"
	"fmt"
)

// Digits is the length of every generated code.
const Digits = 6

const modulus = 1_000_000

// EncodeCounter encodes c as 8 bytes, most significant byte first.
func EncodeCounter(c uint64) [8]byte {
	var b [8]byte
	for i := 7; i >= 0; i-- {
		b[i] = byte(c & 0xff)
		c >>= 8
	}
	return b
}

// Sign computes HMAC-SHA1(key, msg).
// An empty key is rejected rather than handed to the HMAC primitive.
func Sign(key, msg []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}

	mac := hmac.New(sha1.New, key)
	_, _ = mac.Write(msg)
	return mac.Sum(nil), nil
}

// Truncate applies RFC 4226 dynamic truncation to an HMAC-SHA1 digest and
// returns the zero padded 6 digit code.
func Truncate(digest []byte) (string, error) {
	if len(digest) < sha1.Size {
		return "", fmt.Errorf("%w: got %d bytes, need %d", ErrInvalidDigest, len(digest), sha1.Size)
	}

	offset := int(digest[sha1.Size-1] & 0x0f)
	bin := uint32(digest[offset]&0x7f)<<24 |
		uint32(digest[offset+1])<<16 |
		uint32(digest[offset+2])<<8 |
		uint32(digest[offset+3])

	return fmt.Sprintf("%0*d", Digits, bin%modulus), nil
}

// HOTP computes the RFC 4226 code for a raw key and counter.
func HOTP(key []byte, counter uint64) (string, error) {
	msg := EncodeCounter(counter)
	digest, err := Sign(key, msg[:])
	if err != nil {
		return "", err
	}
	return Truncate(digest)
}
