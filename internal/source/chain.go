// Package source resolves one query through an ordered chain of search
// backends, stopping at the first backend that produces results.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spherical-ai/footprint/internal/domain"
	"github.com/spherical-ai/footprint/internal/observability"
	"github.com/spherical-ai/footprint/internal/provider"
)

// Config controls per-call behaviour of the chain.
type Config struct {
	BackendTimeout   time.Duration
	MaxResults       int
	CourtesyDelayMin time.Duration
	CourtesyDelayMax time.Duration
	RatePerSecond    float64
}

// Attempt records one backend call.
type Attempt struct {
	Backend string
	Count   int
	Err     error
	Elapsed time.Duration
}

// Resolution is the outcome of resolving one query.
type Resolution struct {
	Results  []domain.RawResult
	Backend  string
	Attempts []Attempt
}

// AllFailed reports whether every backend returned an error, as opposed to
// some answering with nothing.
func (r Resolution) AllFailed() bool {
	if len(r.Results) > 0 || len(r.Attempts) == 0 {
		return false
	}
	for _, a := range r.Attempts {
		if a.Err == nil {
			return false
		}
	}
	return true
}

// Err returns a BackendsExhausted error when no backend produced results,
// joining the individual backend failures.
func (r Resolution) Err(query string) error {
	if len(r.Results) > 0 {
		return nil
	}
	var errs []error
	for _, a := range r.Attempts {
		if a.Err != nil {
			errs = append(errs, a.Err)
		}
	}
	return domain.BackendsExhausted(query, errors.Join(errs...))
}

type link struct {
	backend  provider.Backend
	throttle *provider.Throttle
}

// Chain tries backends in order.
type Chain struct {
	links  []link
	cfg    Config
	logger *observability.Logger
}

// NewChain creates a chain over backends, each with its own throttle.
func NewChain(backends []provider.Backend, cfg Config, logger *observability.Logger) *Chain {
	if logger == nil {
		logger = observability.NopLogger()
	}
	links := make([]link, len(backends))
	for i, b := range backends {
		links[i] = link{
			backend:  b,
			throttle: provider.NewThrottle(cfg.RatePerSecond, cfg.CourtesyDelayMin, cfg.CourtesyDelayMax),
		}
	}
	return &Chain{
		links:  links,
		cfg:    cfg,
		logger: logger.WithComponent("source"),
	}
}

// Backends returns the backend names in fallback order.
func (c *Chain) Backends() []string {
	names := make([]string, len(c.links))
	for i, l := range c.links {
		names[i] = l.backend.Name()
	}
	return names
}

// Resolve returns the full result set of the first backend that answers with
// at least one result. Exhausting the chain is not an error; inspect the
// Resolution instead. Resolve stops early when ctx is done.
func (c *Chain) Resolve(ctx context.Context, query string) Resolution {
	var res Resolution

	for _, l := range c.links {
		if ctx.Err() != nil {
			break
		}

		name := l.backend.Name()
		start := time.Now()

		if err := l.throttle.Wait(ctx); err != nil {
			res.Attempts = append(res.Attempts, Attempt{Backend: name, Err: err})
			break
		}

		results, err := c.call(ctx, l.backend, query)
		attempt := Attempt{
			Backend: name,
			Count:   len(results),
			Err:     err,
			Elapsed: time.Since(start),
		}
		res.Attempts = append(res.Attempts, attempt)

		if err != nil {
			c.logger.Warn().
				Str("backend", name).
				Str("query", query).
				Err(err).
				Msg("backend failed, falling through")
			continue
		}
		if len(results) == 0 {
			c.logger.Debug().
				Str("backend", name).
				Str("query", query).
				Msg("backend returned no results, falling through")
			continue
		}

		c.logger.Debug().
			Str("backend", name).
			Str("query", query).
			Int("results", len(results)).
			Dur("elapsed", attempt.Elapsed).
			Msg("backend resolved query")
		res.Results = results
		res.Backend = name
		return res
	}

	return res
}

type callResult struct {
	results []domain.RawResult
	err     error
}

// call runs one backend under the per-call timeout. A backend that ignores
// cancellation is abandoned; its goroutine drains into a buffered channel.
func (c *Chain) call(ctx context.Context, b provider.Backend, query string) ([]domain.RawResult, error) {
	callCtx := ctx
	if c.cfg.BackendTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.cfg.BackendTimeout)
		defer cancel()
	}

	done := make(chan callResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callResult{err: domain.ProviderUnavailable(b.Name(), fmt.Errorf("panic: %v", r))}
			}
		}()
		results, err := b.Search(callCtx, query, c.cfg.MaxResults)
		done <- callResult{results: results, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && !domain.IsType(r.err, domain.ErrorTypeProviderUnavailable) {
			r.err = domain.ProviderUnavailable(b.Name(), r.err)
		}
		return r.results, r.err
	case <-callCtx.Done():
		return nil, domain.ProviderUnavailable(b.Name(), callCtx.Err())
	}
}
