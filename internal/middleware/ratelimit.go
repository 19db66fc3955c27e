package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimit allows each client address requestsPerMinute requests per
// fixed one-minute window. A non-positive limit disables it.
func RateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	return rateLimit(requestsPerMinute, time.Now)
}

func rateLimit(requestsPerMinute int, now func() time.Time) func(http.Handler) http.Handler {
	type client struct {
		count       int
		windowStart time.Time
	}

	var (
		mu        sync.Mutex
		clients   = make(map[string]*client)
		lastSweep = now()
	)

	return func(next http.Handler) http.Handler {
		if requestsPerMinute <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			t := now()

			mu.Lock()
			// Drop idle clients every few minutes
			if t.Sub(lastSweep) > 5*time.Minute {
				for k, c := range clients {
					if t.Sub(c.windowStart) > 2*time.Minute {
						delete(clients, k)
					}
				}
				lastSweep = t
			}

			c, exists := clients[key]
			if !exists || t.Sub(c.windowStart) >= time.Minute {
				c = &client{windowStart: t}
				clients[key] = c
			}
			c.count++
			over := c.count > requestsPerMinute
			retryAfter := time.Minute - t.Sub(c.windowStart)
			mu.Unlock()

			if over {
				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
				writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey is the caller's IP. chi's RealIP middleware has already
// rewritten RemoteAddr from proxy headers when present.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
