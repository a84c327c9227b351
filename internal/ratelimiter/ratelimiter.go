package ratelimiter

import "time"

type Limiter interface {
	// Allow reports whether a request from ip may proceed and, if not, how
	// long the caller should wait.
	Allow(ip string) (bool, time.Duration)
}

type Config struct {
	RequestPerTimeFrame int
	TimeFrame           time.Duration
	Enabled             bool
}
