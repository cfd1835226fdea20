package otp

import (
	"crypto/rand"
	"math/big"
)

// RandomSource yields uniformly distributed decimal digits for code
// generation. It is an interface so tests can drive deterministic codes.
type RandomSource interface {
	Digits(n int) (string, error)
}

// CryptoRand draws digits from crypto/rand.
type CryptoRand struct{}

// NewCryptoRand returns a CSPRNG-backed digit source.
func NewCryptoRand() *CryptoRand {
	return &CryptoRand{}
}

// Digits returns n random decimal digits. Each digit is drawn independently,
// so leading zeros are as likely as any other digit.
func (c *CryptoRand) Digits(n int) (string, error) {
	ten := big.NewInt(10)
	buf := make([]byte, n)
	for i := range buf {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + d.Int64())
	}
	return string(buf), nil
}
