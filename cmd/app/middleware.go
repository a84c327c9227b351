package main

import (
	"net"
	"net/http"
	"strconv"
)

func (app *application) RateLimiterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.config.ratelimiter.Enabled {
			if allow, retryAfter := app.rateLimiter.Allow(clientIP(r)); !allow {
				seconds := int(retryAfter.Seconds() + 0.999)
				app.rateLimitExceededResponse(w, r, strconv.Itoa(seconds))
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP drops the port from RemoteAddr, which RealIP may already have
// replaced with a bare address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
