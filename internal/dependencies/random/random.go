package random

import (
	"crypto/rand"
	"math/big"
)

// TokenAlphabet is the character set used for generated identifiers
const TokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Random provides random choices that can be mocked for testing
type Random interface {
	// Intn returns a random int in [0, n)
	Intn(n int) int

	// CoinFlip returns true or false with equal probability
	CoinFlip() bool

	// Token generates a random identifier of the given length from TokenAlphabet
	Token(length int) string
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Intn returns a cryptographically random int in [0, n)
func (r *CryptoRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	result, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(result.Int64())
}

// CoinFlip returns an unbiased random boolean
func (r *CryptoRandom) CoinFlip() bool {
	return r.Intn(2) == 1
}

// Token generates a random identifier of the given length
func (r *CryptoRandom) Token(length int) string {
	if length <= 0 {
		return ""
	}
	out := make([]byte, length)
	for i := range out {
		out[i] = TokenAlphabet[r.Intn(len(TokenAlphabet))]
	}
	return string(out)
}
