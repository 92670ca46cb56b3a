package core

import "time"

// rateLimiter allows up to limit events per window. It is owned by a single
// session goroutine and is not safe for concurrent use.
type rateLimiter struct {
	limit   int
	window  time.Duration
	counter int
	reset   time.Time
	now     func() time.Time
}

func newRateLimiter(limit int) *rateLimiter {
	if limit <= 0 {
		return &rateLimiter{limit: 0}
	}
	return &rateLimiter{
		limit:  limit,
		window: time.Minute,
		now:    time.Now,
	}
}

func (r *rateLimiter) allow() bool {
	if r == nil || r.limit <= 0 {
		return true
	}
	now := r.now()
	if now.After(r.reset) {
		r.counter = 0
		r.reset = now.Add(r.window)
	}
	r.counter++
	return r.counter <= r.limit
}
