package healthcheck

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/angeloszaimis/sim-health/internal/circuitbreaker"
)

// Result is the outcome of probing one target.
type Result struct {
	Target     string
	Healthy    bool
	StatusCode int
	Latency    time.Duration
	Err        error
	Skipped    bool
}

// Failed reports whether the result should fail a check run.
func (r Result) Failed() bool {
	return !r.Skipped && !r.Healthy
}

// Prober sends GET requests to health endpoints.
type Prober struct {
	client *http.Client
	logger *slog.Logger

	breakers *circuitbreaker.Registry

	mutex sync.Mutex
	state map[string]bool
}

type ProberOption func(*Prober)

// WithBackoff suspends watch probes against a target once it has failed
// threshold times in a row, retrying after cooldown.
func WithBackoff(threshold int, cooldown time.Duration) ProberOption {
	return func(p *Prober) {
		p.breakers = circuitbreaker.NewRegistry(threshold, cooldown)
	}
}

func NewProber(timeout time.Duration, logger *slog.Logger, opts ...ProberOption) *Prober {
	p := &Prober{
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
		state:  make(map[string]bool),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Probe checks a single target. Only a 200 response counts as healthy.
func (p *Prober) Probe(ctx context.Context, target string) Result {
	result := Result{Target: target}
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		result.Err = fmt.Errorf("build request: %w", err)
		return result
	}

	res, err := p.client.Do(req)
	result.Latency = time.Since(start)
	if err != nil {
		result.Err = err
		return result
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)

	result.StatusCode = res.StatusCode
	result.Healthy = res.StatusCode == http.StatusOK
	if !result.Healthy {
		result.Err = fmt.Errorf("unexpected status %d", res.StatusCode)
	}

	return result
}

// ProbeAll checks every target concurrently and returns results in target order.
func (p *Prober) ProbeAll(ctx context.Context, targets []string) []Result {
	results := make([]Result, len(targets))

	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target string) {
			defer wg.Done()
			results[i] = p.Probe(ctx, target)
		}(i, target)
	}
	wg.Wait()

	return results
}

// Watch probes all targets every interval until ctx is done. Transitions
// between healthy and unhealthy are logged; fn, if set, sees every result.
// With backoff enabled, targets whose breaker is open are skipped.
func (p *Prober) Watch(ctx context.Context, targets []string, interval time.Duration, fn func(Result)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Health watch stopped", slog.Int("targets", len(targets)))
			return

		case <-ticker.C:
			for _, result := range p.ProbeAll(ctx, p.allowed(targets)) {
				if ctx.Err() != nil {
					continue
				}
				p.record(result)
				p.trip(result)
				if fn != nil {
					fn(result)
				}
			}
		}
	}
}

func (p *Prober) allowed(targets []string) []string {
	if p.breakers == nil {
		return targets
	}

	allowed := make([]string, 0, len(targets))
	for _, target := range targets {
		if p.breakers.Get(target).Allow() {
			allowed = append(allowed, target)
		}
	}
	return allowed
}

func (p *Prober) trip(result Result) {
	if p.breakers == nil {
		return
	}

	b := p.breakers.Get(result.Target)
	before := b.State()
	b.Record(result.Healthy)

	if after := b.State(); after == circuitbreaker.StateOpen && before != circuitbreaker.StateOpen {
		p.logger.Warn("Suspending probes",
			slog.String("target", result.Target),
			slog.String("breaker", after.String()))
	}
}

func (p *Prober) record(result Result) {
	p.mutex.Lock()
	previous, seen := p.state[result.Target]
	p.state[result.Target] = result.Healthy
	p.mutex.Unlock()

	if seen && previous == result.Healthy {
		return
	}

	if result.Healthy {
		p.logger.Info("Target is up",
			slog.String("target", result.Target),
			slog.Duration("latency", result.Latency))
		return
	}

	attrs := []any{slog.String("target", result.Target)}
	if result.Err != nil {
		attrs = append(attrs, slog.String("error", result.Err.Error()))
	}
	p.logger.Warn("Target is down", attrs...)
}
