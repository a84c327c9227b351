package ratelimiter

import (
	"sync"
	"time"
)

// FixedWindowLimiter counts requests per client in consecutive windows of
// equal length.
type FixedWindowLimiter struct {
	sync.Mutex
	clients map[string]*window
	limit   int
	frame   time.Duration
	now     func() time.Time
}

type window struct {
	start time.Time
	count int
}

func NewFixedWindowLimiter(limit int, timeFrame time.Duration) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		frame:   timeFrame,
		now:     time.Now,
	}
}

func (rl *FixedWindowLimiter) Allow(ip string) (bool, time.Duration) {
	rl.Lock()
	defer rl.Unlock()

	now := rl.now()
	rl.evict(now)

	w, ok := rl.clients[ip]
	if !ok {
		w = &window{start: now}
		rl.clients[ip] = w
	}

	if w.count >= rl.limit {
		return false, w.start.Add(rl.frame).Sub(now)
	}

	w.count++
	return true, 0
}

// evict drops windows that ended, so idle clients do not accumulate.
func (rl *FixedWindowLimiter) evict(now time.Time) {
	for ip, w := range rl.clients {
		if now.Sub(w.start) >= rl.frame {
			delete(rl.clients, ip)
		}
	}
}
