package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HMACSHA256 digests secrets with HMAC-SHA256 under a server-side key.
type HMACSHA256 struct {
	key []byte
}

// NewHMACSHA256 creates a hasher keyed with the given secret.
func NewHMACSHA256(key string) *HMACSHA256 {
	return &HMACSHA256{key: []byte(key)}
}

// Hash returns the hex-encoded HMAC-SHA256 digest of plain.
func (h *HMACSHA256) Hash(plain string) (string, error) {
	return h.digest(plain), nil
}

// Verify reports whether plain digests to hashed, in constant time.
func (h *HMACSHA256) Verify(hashed, plain string) bool {
	return subtle.ConstantTimeCompare([]byte(hashed), []byte(h.digest(plain))) == 1
}

func (h *HMACSHA256) digest(plain string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(plain))
	return hex.EncodeToString(mac.Sum(nil))
}
