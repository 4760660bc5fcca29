// Package engine is the single entry point of the footprint search: it plans
// the queries for a subject, fans them out, and aggregates the survivors.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/spherical-ai/footprint/internal/aggregate"
	"github.com/spherical-ai/footprint/internal/cache"
	"github.com/spherical-ai/footprint/internal/config"
	"github.com/spherical-ai/footprint/internal/domain"
	"github.com/spherical-ai/footprint/internal/fanout"
	"github.com/spherical-ai/footprint/internal/observability"
	"github.com/spherical-ai/footprint/internal/planner"
	"github.com/spherical-ai/footprint/internal/provider"
	"github.com/spherical-ai/footprint/internal/relevance"
	"github.com/spherical-ai/footprint/internal/source"
)

// Report is the response for one subject.
type Report struct {
	Results domain.Buckets `json:"results"`
	Meta    Meta           `json:"meta"`
}

// Meta summarizes how a report was produced.
type Meta struct {
	Name         string         `json:"name"`
	ExtraInfo    string         `json:"extra_info,omitempty"`
	TotalQueries int            `json:"total_queries"`
	Succeeded    int            `json:"succeeded"`
	Failed       int            `json:"failed"`
	TimedOut     int            `json:"timed_out"`
	TotalResults int            `json:"total_results"`
	Duplicates   int            `json:"duplicates"`
	Categories   map[string]int `json:"categories"`
	Backends     map[string]int `json:"backends"`
	Partial      bool           `json:"partial"`
	Cached       bool           `json:"cached"`
	ElapsedMS    int64          `json:"elapsed_ms"`
}

// ProgressFunc is called once per query as it reaches a terminal state.
type ProgressFunc func(done, total int, outcome fanout.Outcome)

// Engine runs footprint searches.
type Engine struct {
	executor     *fanout.Executor
	batchTimeout time.Duration
	cache        cache.Client
	cacheTTL     time.Duration
	group        singleflight.Group
	base         *observability.Logger
	logger       *observability.Logger
	progress     ProgressFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache stores finished reports in c for ttl.
func WithCache(c cache.Client, ttl time.Duration) Option {
	return func(e *Engine) {
		e.cache = c
		e.cacheTTL = ttl
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *observability.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.base = l
		}
	}
}

// WithProgress registers a per-query progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) { e.progress = fn }
}

// New creates an engine around an executor. batchTimeout must match the
// executor's so the engine knows how long to wait for outcomes.
func New(executor *fanout.Executor, batchTimeout time.Duration, opts ...Option) *Engine {
	e := &Engine{
		executor:     executor,
		batchTimeout: batchTimeout,
		base:         observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.base.WithComponent("engine")
	return e
}

// NewFromConfig wires a chain and executor over backends using cfg.
func NewFromConfig(cfg *config.Config, backends []provider.Backend, opts ...Option) *Engine {
	e := New(nil, cfg.Search.BatchTimeout, opts...)

	chain := source.NewChain(backends, source.Config{
		BackendTimeout:   cfg.Search.BackendTimeout,
		MaxResults:       cfg.Search.MaxResults,
		CourtesyDelayMin: cfg.Search.CourtesyDelayMin,
		CourtesyDelayMax: cfg.Search.CourtesyDelayMax,
		RatePerSecond:    cfg.Search.RatePerSecond,
	}, e.base)

	e.executor = fanout.NewExecutor(chain, fanout.Config{
		Workers:        cfg.Search.Workers,
		BatchTimeout:   cfg.Search.BatchTimeout,
		MaxRetries:     cfg.Search.MaxRetries,
		InitialBackoff: cfg.Search.InitialBackoff,
		MaxBackoff:     cfg.Search.MaxBackoff,
	}, e.base)
	return e
}

// Aggregate searches for name, optionally disambiguated by extraInfo. The only
// error returned to callers for bad input is a validation error; provider and
// query failures are reflected in the report's meta instead. A caller whose
// ctx ends first gets ctx.Err(); the search itself keeps running for anyone
// else waiting on it.
func (e *Engine) Aggregate(ctx context.Context, name, extraInfo string) (*Report, error) {
	name = strings.TrimSpace(name)
	extraInfo = strings.TrimSpace(extraInfo)
	if name == "" {
		return nil, domain.ValidationError("name is required", nil)
	}

	log := e.logger.WithContext(ctx)
	key := CacheKey(name, extraInfo)

	if report, ok := e.lookup(ctx, key, log); ok {
		return report, nil
	}

	// The shared run outlives any single caller; run applies its own deadline.
	runCtx := context.WithoutCancel(ctx)
	ch := e.group.DoChan(key, func() (interface{}, error) {
		report, err := e.run(runCtx, name, extraInfo, log)
		if err != nil {
			return nil, err
		}
		e.store(runCtx, key, report, log)
		return report, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			log.Debug().Str("name", name).Msg("coalesced with in-flight search")
		}
		return res.Val.(*Report), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *Engine) run(ctx context.Context, name, extraInfo string, log *observability.Logger) (*Report, error) {
	start := time.Now()

	plan := planner.Build(name, extraInfo)
	filter := relevance.NewFilter(plan.Terms, e.base.WithContext(ctx))
	agg := aggregate.New(plan.Categories)

	runCtx, cancel := context.WithTimeout(ctx, e.batchTimeout+config.CollectGrace)
	defer cancel()

	outcomes, err := e.executor.Run(runCtx, plan.Queries, filter)
	if err != nil {
		return nil, err
	}

	meta := Meta{
		Name:         name,
		ExtraInfo:    extraInfo,
		TotalQueries: len(plan.Queries),
		Backends:     map[string]int{},
	}

	done := 0
collect:
	for done < len(plan.Queries) {
		select {
		case o, ok := <-outcomes:
			if !ok {
				break collect
			}
			done++
			e.record(&meta, o)
			agg.AddAll(o.Candidates)
			if e.progress != nil {
				e.progress(done, len(plan.Queries), o)
			}
		case <-runCtx.Done():
			break collect
		}
	}

	if missing := len(plan.Queries) - done; missing > 0 {
		meta.Failed += missing
		meta.TimedOut += missing
		log.Warn().Int("missing", missing).Msg("batch deadline reached before every query reported")
	}

	results := agg.Finalize()
	meta.TotalResults = results.Total()
	meta.Duplicates = agg.Duplicates()
	meta.Categories = make(map[string]int, len(results))
	for category, items := range results {
		meta.Categories[category] = len(items)
	}
	meta.Partial = meta.TimedOut > 0
	meta.ElapsedMS = time.Since(start).Milliseconds()

	log.Info().
		Str("name", name).
		Int("queries", meta.TotalQueries).
		Int("succeeded", meta.Succeeded).
		Int("failed", meta.Failed).
		Int("results", meta.TotalResults).
		Bool("partial", meta.Partial).
		Int64("elapsed_ms", meta.ElapsedMS).
		Msg("search completed")

	return &Report{Results: results, Meta: meta}, nil
}

func (e *Engine) record(meta *Meta, o fanout.Outcome) {
	switch o.State {
	case fanout.Succeeded:
		meta.Succeeded++
		if o.Resolution.Backend != "" {
			meta.Backends[o.Resolution.Backend]++
		}
	default:
		meta.Failed++
		if o.IsTimeout() {
			meta.TimedOut++
		}
	}
}

func (e *Engine) lookup(ctx context.Context, key string, log *observability.Logger) (*Report, bool) {
	if e.cache == nil {
		return nil, false
	}
	data, err := e.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn().Err(err).Msg("cache lookup failed")
		}
		return nil, false
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		log.Warn().Err(err).Msg("discarding unreadable cache entry")
		return nil, false
	}
	report.Meta.Cached = true
	return &report, true
}

// store caches complete reports only.
func (e *Engine) store(ctx context.Context, key string, report *Report, log *observability.Logger) {
	if e.cache == nil || report.Meta.Partial {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		log.Warn().Err(err).Msg("encode report for cache")
		return
	}
	if err := e.cache.Set(ctx, key, data, e.cacheTTL); err != nil {
		log.Warn().Err(err).Msg("cache store failed")
	}
}

// CacheKey derives the cache key for a subject. Case does not matter.
func CacheKey(name, extraInfo string) string {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(strings.ToLower(name)+"|"+strings.ToLower(extraInfo)))
	return cache.CacheKey("search", id.String())
}
