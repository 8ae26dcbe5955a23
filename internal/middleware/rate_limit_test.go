package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketExhaustion(t *testing.T) {
	tb := NewTokenBucket(3, 1)

	for i := 0; i < 3; i++ {
		assert.True(t, tb.Allow(), "request %d should pass", i)
	}
	// 桶空了
	assert.False(t, tb.Allow())
}

func TestTokenBucketRefill(t *testing.T) {
	tb := NewTokenBucket(2, 1000)
	tb.Allow()
	tb.Allow()
	assert.False(t, tb.Allow())

	// 手动把上次补充时间拨回一秒，等价于时间流逝
	tb.mu.Lock()
	tb.lastRefill = tb.lastRefill.Add(-1100 * time.Millisecond)
	tb.mu.Unlock()

	assert.True(t, tb.Allow())
}
