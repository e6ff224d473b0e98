// Package health runs named readiness checks against the service's
// dependencies and caches the last observed results.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Status is the observed state of one dependency.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// CheckFunc probes one dependency. It must respect ctx's deadline.
type CheckFunc func(ctx context.Context) Status

const checkTimeout = 5 * time.Second

type check struct {
	name string
	fn   CheckFunc
}

// Checker holds the registered checks and the results of the last run.
type Checker struct {
	mu     sync.RWMutex
	checks []check
	cache  map[string]Status
	logger zerolog.Logger
}

// NewChecker creates an empty Checker.
func NewChecker(logger zerolog.Logger) *Checker {
	return &Checker{
		cache:  make(map[string]Status),
		logger: logger.With().Str("component", "health").Logger(),
	}
}

// Register adds a named check. Registering the same name twice replaces
// the earlier check.
func (c *Checker) Register(name string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.checks {
		if c.checks[i].name == name {
			c.checks[i].fn = fn
			return
		}
	}
	c.checks = append(c.checks, check{name: name, fn: fn})
}

// RunAll probes every dependency, caches the results and returns them.
// Each check gets its own timeout so one stuck dependency cannot hold the
// whole probe.
func (c *Checker) RunAll(ctx context.Context) map[string]Status {
	c.mu.RLock()
	checks := make([]check, len(c.checks))
	copy(checks, c.checks)
	c.mu.RUnlock()

	results := make(map[string]Status, len(checks))
	for _, ck := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		s := ck.fn(checkCtx)
		cancel()
		results[ck.name] = s
		if s == StatusDown {
			c.logger.Warn().Str("check", ck.name).Msg("dependency down")
		}
	}

	c.mu.Lock()
	c.cache = results
	c.mu.Unlock()
	return results
}

// IsReady re-runs all checks and reports whether none are down. Degraded
// dependencies still count as ready.
func (c *Checker) IsReady(ctx context.Context) bool {
	for _, s := range c.RunAll(ctx) {
		if s == StatusDown {
			return false
		}
	}
	return true
}

// Cached returns a copy of the last run's results without probing.
func (c *Checker) Cached() map[string]Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Status, len(c.cache))
	for k, v := range c.cache {
		out[k] = v
	}
	return out
}
