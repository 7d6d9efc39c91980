// Package health runs named liveness and readiness checks on demand.
package health

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc
}

type Health struct {
	mu        sync.RWMutex
	liveness  []check
	readiness []check
	startedAt time.Time
}

func New() *Health {
	return &Health{startedAt: time.Now()}
}

func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, check{name: name, timeout: timeout, fn: fn})
}

func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, check{name: name, timeout: timeout, fn: fn})
}

type CheckResult struct {
	Name     string `json:"name"`
	Healthy  bool   `json:"healthy"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

type Report struct {
	Healthy bool          `json:"healthy"`
	Uptime  string        `json:"uptime"`
	Checks  []CheckResult `json:"checks"`
}

func (h *Health) Liveness(ctx context.Context) Report {
	h.mu.RLock()
	checks := append([]check(nil), h.liveness...)
	h.mu.RUnlock()
	return h.run(ctx, checks)
}

func (h *Health) Readiness(ctx context.Context) Report {
	h.mu.RLock()
	checks := append([]check(nil), h.readiness...)
	h.mu.RUnlock()
	return h.run(ctx, checks)
}

// run executes every check concurrently. A failing check never cancels the others.
func (h *Health) run(ctx context.Context, checks []check) Report {
	results := make([]CheckResult, len(checks))

	var g errgroup.Group
	for i, c := range checks {
		g.Go(func() error {
			checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			start := time.Now()
			err := c.fn(checkCtx)
			res := CheckResult{Name: c.name, Healthy: err == nil, Duration: time.Since(start).String()}
			if err != nil {
				res.Error = err.Error()
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	healthy := true
	for _, r := range results {
		healthy = healthy && r.Healthy
	}

	return Report{
		Healthy: healthy,
		Uptime:  time.Since(h.startedAt).Round(time.Second).String(),
		Checks:  results,
	}
}

func (h *Health) Uptime() time.Duration {
	return time.Since(h.startedAt)
}

// GoroutineCountCheck fails when the goroutine count exceeds threshold.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(_ context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return &ThresholdError{Metric: "goroutines", Value: float64(n), Threshold: float64(threshold)}
		}
		return nil
	}
}

type ThresholdError struct {
	Metric    string
	Value     float64
	Threshold float64
}

func (e *ThresholdError) Error() string {
	return e.Metric + " above threshold"
}
