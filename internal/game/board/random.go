package board

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand"
	"sync"
)

// RandomSource 布局生成使用的随机源
type RandomSource interface {
	// Intn 返回 [0, n) 内的随机整数
	Intn(n int) int
}

// SeededSource 可复现的伪随机源
type SeededSource struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewSeededSource 使用固定种子创建随机源
func NewSeededSource(seed int64) *SeededSource {
	return &SeededSource{rng: mrand.New(mrand.NewSource(seed))}
}

// Intn 实现RandomSource
func (s *SeededSource) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// CryptoSource 加密安全的随机源
type CryptoSource struct{}

// NewCryptoSource 创建加密随机源
func NewCryptoSource() *CryptoSource {
	return &CryptoSource{}
}

// Intn 实现RandomSource
func (CryptoSource) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// NewSource 种子为0时使用加密随机源，否则使用可复现随机源
func NewSource(seed int64) RandomSource {
	if seed == 0 {
		return NewCryptoSource()
	}
	return NewSeededSource(seed)
}
