package circuitbreaker

import (
	"sync"
	"time"
)

// Registry hands out one Breaker per target.
type Registry struct {
	mutex     sync.RWMutex
	breakers  map[string]*Breaker
	threshold int
	cooldown  time.Duration
}

func NewRegistry(threshold int, cooldown time.Duration) *Registry {
	return &Registry{
		breakers:  make(map[string]*Breaker),
		threshold: threshold,
		cooldown:  cooldown,
	}
}

func (r *Registry) Get(target string) *Breaker {
	r.mutex.RLock()
	b, exists := r.breakers[target]
	r.mutex.RUnlock()

	if exists {
		return b
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Another goroutine may have created it.
	if b, exists = r.breakers[target]; exists {
		return b
	}

	b = NewBreaker(r.threshold, r.cooldown)
	r.breakers[target] = b
	return b
}

// States returns the current state of every known target.
func (r *Registry) States() map[string]State {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	states := make(map[string]State, len(r.breakers))
	for target, b := range r.breakers {
		states[target] = b.State()
	}
	return states
}
