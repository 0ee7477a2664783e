package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenLimiter enforces a token budget per minute. Wait blocks until the
// requested number of tokens fits in the current window.
type TokenLimiter struct {
	mu        sync.Mutex
	capacity  int
	remaining int
	resetAt   time.Time
}

// NewTokenLimiter creates a limiter with the given per-minute capacity.
func NewTokenLimiter(maxPerMinute int) *TokenLimiter {
	return &TokenLimiter{
		capacity:  maxPerMinute,
		remaining: maxPerMinute,
		resetAt:   time.Now().Add(time.Minute),
	}
}

// Wait blocks until tokens can be consumed or the context is canceled.
// Requests larger than the capacity consume a full window.
func (l *TokenLimiter) Wait(ctx context.Context, tokens int) error {
	for {
		l.mu.Lock()
		now := time.Now()
		if now.After(l.resetAt) {
			l.remaining = l.capacity
			l.resetAt = now.Add(time.Minute)
		}
		if tokens >= l.capacity {
			tokens = l.capacity
		}
		if tokens <= l.remaining {
			l.remaining -= tokens
			l.mu.Unlock()
			return nil
		}
		wait := time.Until(l.resetAt)
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// GetRemaining returns the tokens left in the current window.
func (l *TokenLimiter) GetRemaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if time.Now().After(l.resetAt) {
		return l.capacity
	}
	return l.remaining
}
