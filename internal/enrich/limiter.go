package enrich

import (
	"sync"
	"time"
)

// Limiter spaces out calls to an external service. Wait blocks until
// at least the configured interval has passed since the previous call.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	sleep    func(time.Duration)
}

func NewLimiter(interval time.Duration) *Limiter {
	return &Limiter{interval: interval, sleep: time.Sleep}
}

func (l *Limiter) Wait() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.interval <= 0 {
		return
	}
	if !l.last.IsZero() {
		if elapsed := time.Since(l.last); elapsed < l.interval {
			l.sleep(l.interval - elapsed)
		}
	}
	l.last = time.Now()
}
