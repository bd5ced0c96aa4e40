package rate

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// keyIdleTTL is how long a key limiter is kept after its last use.
const keyIdleTTL = 10 * time.Minute

// Limiter throttles outgoing requests globally and per key.
type Limiter struct {
	keys   *cache.Cache
	mu     *sync.Mutex
	r      rate.Limit
	b      int
	global *rate.Limiter
}

// NewLimiter creates a limiter allowing r requests per second with burst b for every key,
// and 10 times that across all keys. Key limiters idle for longer than ten minutes are dropped.
func NewLimiter(r float64, b int) *Limiter {
	return newLimiter(r, b, keyIdleTTL)
}

func newLimiter(r float64, b int, idle time.Duration) *Limiter {
	if b < 1 {
		b = 1
	}
	return &Limiter{
		keys:   cache.New(idle, idle),
		mu:     &sync.Mutex{},
		r:      rate.Limit(r),
		b:      b,
		global: rate.NewLimiter(rate.Limit(r*10), b*10),
	}
}

// Wait blocks until both the global and the key limiter allow an event, or ctx is done.
func (i *Limiter) Wait(ctx context.Context, key string) error {
	if err := i.global.Wait(ctx); err != nil {
		return err
	}
	if len(key) == 0 {
		return nil
	}
	return i.GetLimiter(key).Wait(ctx)
}

// Add creates a new rate limiter and adds it to the keys cache,
// using the key
func (i *Limiter) Add(key string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	if limiter, exists := i.touch(key); exists {
		return limiter
	}
	limiter := rate.NewLimiter(i.r, i.b)
	i.keys.SetDefault(key, limiter)
	return limiter
}

// GetLimiter returns the rate limiter for the provided key if it exists.
// Otherwise, calls Add to add key to the cache
func (i *Limiter) GetLimiter(key string) *rate.Limiter {
	if limiter, exists := i.touch(key); exists {
		return limiter
	}
	return i.Add(key)
}

// touch looks up key and restarts its idle timer.
func (i *Limiter) touch(key string) (*rate.Limiter, bool) {
	v, exists := i.keys.Get(key)
	if !exists {
		return nil, false
	}
	limiter := v.(*rate.Limiter)
	i.keys.SetDefault(key, limiter)
	return limiter, true
}
