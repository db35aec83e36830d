package mocks

import (
	"sync"

	"github.com/mcoot/noughts/internal/dependencies/random"
)

// MockRandom returns queued results in order, then zero values.
// Queues may be filled while another goroutine is drawing from them.
type MockRandom struct {
	mu sync.Mutex

	IntnResults []int
	intnIndex   int

	CoinResults []bool
	coinIndex   int

	TokenResults []string
	tokenIndex   int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued result, or 0 if none remaining
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.intnIndex >= len(r.IntnResults) {
		return 0
	}
	result := r.IntnResults[r.intnIndex]
	r.intnIndex++
	return result
}

// CoinFlip returns the next queued result, or false if none remaining
func (r *MockRandom) CoinFlip() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.coinIndex >= len(r.CoinResults) {
		return false
	}
	result := r.CoinResults[r.coinIndex]
	r.coinIndex++
	return result
}

// Token returns the next queued result, or a fixed placeholder if none remaining
func (r *MockRandom) Token(length int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tokenIndex >= len(r.TokenResults) {
		return "token"
	}
	result := r.TokenResults[r.tokenIndex]
	r.tokenIndex++
	return result
}

// QueueIntn adds values to the Intn result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.IntnResults = append(r.IntnResults, values...)
}

// QueueCoin adds values to the CoinFlip result queue
func (r *MockRandom) QueueCoin(values ...bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.CoinResults = append(r.CoinResults, values...)
}

// QueueToken adds values to the Token result queue
func (r *MockRandom) QueueToken(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.TokenResults = append(r.TokenResults, values...)
}
