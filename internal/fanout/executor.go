// Package fanout runs planned queries concurrently through the source chain
// and the relevance filter.
package fanout

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/spherical-ai/footprint/internal/domain"
	"github.com/spherical-ai/footprint/internal/observability"
	"github.com/spherical-ai/footprint/internal/relevance"
	"github.com/spherical-ai/footprint/internal/source"
)

// Resolver turns one query string into raw results.
type Resolver interface {
	Resolve(ctx context.Context, query string) source.Resolution
}

// Config holds worker and retry policy.
type Config struct {
	Workers        int
	BatchTimeout   time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// State is the lifecycle position of one query.
type State int

const (
	Pending State = iota
	Running
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

// Outcome is the terminal result of one query.
type Outcome struct {
	Query      domain.Query
	State      State
	Candidates []domain.Candidate
	Resolution source.Resolution
	Attempts   int
	Elapsed    time.Duration
	Err        error
}

// Executor runs batches of queries on a bounded worker pool.
type Executor struct {
	resolver Resolver
	cfg      Config
	logger   *observability.Logger
}

// NewExecutor creates an executor.
func NewExecutor(resolver Resolver, cfg Config, logger *observability.Logger) *Executor {
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 120 * time.Second
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Executor{
		resolver: resolver,
		cfg:      cfg,
		logger:   logger.WithComponent("fanout"),
	}
}

// Run starts every query and returns a channel carrying exactly one Outcome
// per query, closed once all of them are terminal. The channel is buffered to
// len(queries) so workers never block on a slow reader. When the batch
// deadline fires, in-flight queries are abandoned and queued ones are
// reported as Failed without running.
func (e *Executor) Run(ctx context.Context, queries []domain.Query, filter *relevance.Filter) (<-chan Outcome, error) {
	out := make(chan Outcome, len(queries))
	if len(queries) == 0 {
		close(out)
		return out, nil
	}
	if filter == nil {
		filter = relevance.NewFilter(nil, e.logger)
	}

	pool, err := ants.NewPool(e.cfg.Workers)
	if err != nil {
		close(out)
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	batchCtx, cancel := context.WithTimeout(ctx, e.cfg.BatchTimeout)

	go func() {
		defer close(out)
		defer cancel()
		defer pool.Release()

		var wg sync.WaitGroup
		for _, q := range queries {
			if batchCtx.Err() != nil {
				out <- e.expired(q, batchCtx.Err())
				continue
			}

			wg.Add(1)
			err := pool.Submit(func() {
				defer wg.Done()
				out <- e.runQuery(batchCtx, q, filter)
			})
			if err != nil {
				wg.Done()
				out <- Outcome{Query: q, State: Failed, Err: domain.QueryFailed(q.Text, err)}
			}
		}
		wg.Wait()
	}()

	return out, nil
}

func (e *Executor) expired(q domain.Query, cause error) Outcome {
	return Outcome{Query: q, State: Failed, Err: timeoutError(q, cause)}
}

func timeoutError(q domain.Query, cause error) error {
	return domain.BatchTimeout(fmt.Sprintf("query %q did not complete before the batch deadline", q.Text), cause)
}

// runQuery resolves one query, retrying while every backend errors. A panic
// anywhere below is converted into a Failed outcome.
func (e *Executor) runQuery(ctx context.Context, q domain.Query, filter *relevance.Filter) (out Outcome) {
	start := time.Now()
	out = Outcome{Query: q, State: Running}
	log := e.logger.With().Str("query", q.Text).Str("category", q.Category).Logger()

	defer func() {
		if r := recover(); r != nil {
			out.State = Failed
			out.Candidates = nil
			out.Err = domain.QueryFailed(q.Text, fmt.Errorf("panic: %v", r))
		}
		out.Elapsed = time.Since(start)

		switch out.State {
		case Failed:
			log.Warn().Err(out.Err).Int("attempts", out.Attempts).Msg("query failed")
		default:
			log.Debug().
				Int("candidates", len(out.Candidates)).
				Str("backend", out.Resolution.Backend).
				Dur("elapsed", out.Elapsed).
				Msg("query completed")
		}
	}()

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return e.withState(out, Failed, timeoutError(q, ctx.Err()))
		}

		out.Attempts = attempt + 1
		out.Resolution = e.resolver.Resolve(ctx, q.Text)

		if len(out.Resolution.Results) > 0 {
			out.Candidates = filter.Apply(q.Category, out.Resolution.Results)
			out.State = Succeeded
			return out
		}

		if ctx.Err() != nil {
			return e.withState(out, Failed, timeoutError(q, ctx.Err()))
		}

		if !out.Resolution.AllFailed() {
			// Some backend answered with nothing; retrying will not help.
			out.State = Succeeded
			out.Err = out.Resolution.Err(q.Text)
			return out
		}

		if attempt >= e.cfg.MaxRetries {
			return e.withState(out, Failed, domain.QueryFailed(q.Text, out.Resolution.Err(q.Text)))
		}

		backoff := e.backoff(attempt)
		log.Debug().Int("attempt", attempt+1).Dur("backoff", backoff).Msg("all backends failed, retrying")

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return e.withState(out, Failed, timeoutError(q, ctx.Err()))
		case <-timer.C:
		}
	}
}

func (e *Executor) withState(out Outcome, state State, err error) Outcome {
	out.State = state
	out.Err = err
	return out
}

// backoff returns initial * 2^attempt, capped at MaxBackoff.
func (e *Executor) backoff(attempt int) time.Duration {
	d := float64(e.cfg.InitialBackoff) * math.Pow(2, float64(attempt))
	if d > float64(e.cfg.MaxBackoff) {
		d = float64(e.cfg.MaxBackoff)
	}
	return time.Duration(d)
}

// IsTimeout reports whether an outcome failed because of the batch deadline.
// Per-backend call timeouts do not count.
func (o Outcome) IsTimeout() bool {
	return domain.IsType(o.Err, domain.ErrorTypeBatchTimeout)
}
