// Package circuitbreaker throttles probes against targets that keep failing.
//
// Each target gets a breaker with three states:
//
//   - CLOSED: probe on every tick
//   - OPEN: skip probes until the cooldown elapses
//   - HALF-OPEN: one trial probe decides between CLOSED and OPEN
//
// Usage:
//
//	registry := circuitbreaker.NewRegistry(3, 30*time.Second)
//	b := registry.Get("http://localhost:3000/health")
//	if b.Allow() {
//	    b.Record(probe().Healthy)
//	}
package circuitbreaker
