// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Defaults for the admin login limiter. Ten attempts a minute is
// generous for a person and useless for a credential stuffer.
const (
	LoginLimit  = 10
	LoginWindow = time.Minute
)

// visitor holds the request timestamps seen from one address inside
// the current window.
type visitor struct {
	mu   sync.Mutex
	seen []time.Time
}

// RateLimiter is a sliding-window per-IP limiter. Counting is
// in-memory; a restart resets all windows, which is acceptable for the
// login surface it guards.
type RateLimiter struct {
	mu      sync.RWMutex
	clients map[string]*visitor
	limit   int
	window  time.Duration
	stopCh  chan struct{}
}

// NewRateLimiter allows limit requests per window for each client IP
// and sweeps idle entries in the background until Stop is called.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*visitor),
		limit:   limit,
		window:  window,
		stopCh:  make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.cleanup()
			case <-rl.stopCh:
				return
			}
		}
	}()

	return rl
}

// Stop terminates the background sweep goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// allow reports whether the key may make another request now, and
// records it when so.
func (rl *RateLimiter) allow(key string) bool {
	rl.mu.RLock()
	v, exists := rl.clients[key]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		v, exists = rl.clients[key]
		if !exists {
			v = &visitor{}
			rl.clients[key] = v
		}
		rl.mu.Unlock()
	}

	now := time.Now()
	cutoff := now.Add(-rl.window)

	v.mu.Lock()
	defer v.mu.Unlock()

	live := v.seen[:0]
	for _, ts := range v.seen {
		if ts.After(cutoff) {
			live = append(live, ts)
		}
	}
	v.seen = live

	if len(v.seen) >= rl.limit {
		return false
	}
	v.seen = append(v.seen, now)
	return true
}

// cleanup drops clients whose every timestamp has aged out.
func (rl *RateLimiter) cleanup() {
	cutoff := time.Now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, v := range rl.clients {
		v.mu.Lock()
		idle := true
		for _, ts := range v.seen {
			if ts.After(cutoff) {
				idle = false
				break
			}
		}
		v.mu.Unlock()

		if idle {
			delete(rl.clients, key)
		}
	}
}

// Middleware rejects requests over the limit with 429, keyed by client IP.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP resolves the visitor address: first X-Forwarded-For entry,
// then X-Real-IP, then RemoteAddr without the port.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
