package janus

import (
	"sync"
	"time"
)

// Gate is a client-side token bucket consulted before dispatch, letting
// callers stay under a known server-side request limit instead of recovering
// from 429s after the fact.
type Gate struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
}

// NewGate creates a gate holding maxTokens, refilling one token every
// refillRate.
func NewGate(maxTokens int, refillRate time.Duration) *Gate {
	return &Gate{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow consumes a token, reporting false when none are available.
func (g *Gate) Allow() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.refill()
	if g.tokens <= 0 {
		return false
	}
	g.tokens--
	return true
}

// Tokens returns the current token count.
func (g *Gate) Tokens() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refill()
	return g.tokens
}

// Clamp shrinks the bucket to a server-reported limit (e.g. from
// X-RateLimit-Limit). Growing above the configured maximum is not allowed.
func (g *Gate) Clamp(limit int) {
	if limit <= 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if limit < g.maxTokens {
		g.maxTokens = limit
		if g.tokens > limit {
			g.tokens = limit
		}
	}
}

func (g *Gate) refill() {
	now := time.Now()
	if g.refillRate <= 0 {
		return
	}
	elapsed := now.Sub(g.lastRefill)
	refills := int(elapsed / g.refillRate)
	if refills <= 0 {
		return
	}
	g.tokens += refills
	if g.tokens > g.maxTokens {
		g.tokens = g.maxTokens
	}
	g.lastRefill = g.lastRefill.Add(time.Duration(refills) * g.refillRate)
}
