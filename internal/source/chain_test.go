package source

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/footprint/internal/domain"
	"github.com/spherical-ai/footprint/internal/provider"
)

type stubBackend struct {
	name    string
	results []domain.RawResult
	err     error
	block   bool
	panics  bool
	calls   atomic.Int32
}

func (s *stubBackend) Name() string { return s.name }

func (s *stubBackend) Search(ctx context.Context, query string, maxResults int) ([]domain.RawResult, error) {
	s.calls.Add(1)
	if s.panics {
		panic("boom")
	}
	if s.block {
		// Ignores ctx on purpose.
		time.Sleep(time.Second)
	}
	return s.results, s.err
}

func hit(url string) domain.RawResult {
	return domain.RawResult{Title: "Ada", URL: url}
}

func testConfig() Config {
	return Config{BackendTimeout: time.Second, MaxResults: 4}
}

func TestChain_FirstNonEmptyWins(t *testing.T) {
	failing := &stubBackend{name: "a", err: errors.New("down")}
	empty := &stubBackend{name: "b"}
	good := &stubBackend{name: "c", results: []domain.RawResult{hit("https://c/1"), hit("https://c/2")}}
	unused := &stubBackend{name: "d", results: []domain.RawResult{hit("https://d/1")}}

	chain := NewChain([]provider.Backend{failing, empty, good, unused}, testConfig(), nil)
	res := chain.Resolve(context.Background(), "Ada")

	assert.Equal(t, "c", res.Backend)
	assert.Equal(t, good.results, res.Results)
	require.Len(t, res.Attempts, 3)
	assert.Error(t, res.Attempts[0].Err)
	assert.True(t, domain.IsType(res.Attempts[0].Err, domain.ErrorTypeProviderUnavailable))
	assert.NoError(t, res.Attempts[1].Err)
	assert.Equal(t, 2, res.Attempts[2].Count)
	assert.Zero(t, unused.calls.Load())
	assert.False(t, res.AllFailed())
	assert.NoError(t, res.Err("Ada"))
}

func TestChain_ExhaustedIsNotAnError(t *testing.T) {
	chain := NewChain([]provider.Backend{
		&stubBackend{name: "a"},
		&stubBackend{name: "b", err: errors.New("down")},
	}, testConfig(), nil)

	res := chain.Resolve(context.Background(), "Ada")
	assert.Empty(t, res.Results)
	assert.Empty(t, res.Backend)
	assert.False(t, res.AllFailed(), "one backend answered, just with nothing")

	err := res.Err("Ada")
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeBackendsExhausted))
}

func TestChain_AllFailed(t *testing.T) {
	chain := NewChain([]provider.Backend{
		&stubBackend{name: "a", err: errors.New("down")},
		&stubBackend{name: "b", panics: true},
	}, testConfig(), nil)

	res := chain.Resolve(context.Background(), "Ada")
	assert.True(t, res.AllFailed())
	assert.Contains(t, res.Err("Ada").Error(), "panic: boom")
}

func TestChain_HungBackendIsAbandoned(t *testing.T) {
	hung := &stubBackend{name: "hung", block: true, results: []domain.RawResult{hit("https://late")}}
	good := &stubBackend{name: "good", results: []domain.RawResult{hit("https://good")}}

	cfg := testConfig()
	cfg.BackendTimeout = 20 * time.Millisecond
	chain := NewChain([]provider.Backend{hung, good}, cfg, nil)

	start := time.Now()
	res := chain.Resolve(context.Background(), "Ada")

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, "good", res.Backend)
	require.Len(t, res.Attempts, 2)
	assert.ErrorIs(t, res.Attempts[0].Err, context.DeadlineExceeded)
}

func TestChain_StopsWhenContextDone(t *testing.T) {
	b := &stubBackend{name: "a", results: []domain.RawResult{hit("https://a")}}
	chain := NewChain([]provider.Backend{b}, testConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := chain.Resolve(ctx, "Ada")
	assert.Empty(t, res.Results)
	assert.Zero(t, b.calls.Load())
}

func TestChain_Backends(t *testing.T) {
	chain := NewChain([]provider.Backend{&stubBackend{name: "x"}, &stubBackend{name: "y"}}, testConfig(), nil)
	assert.Equal(t, []string{"x", "y"}, chain.Backends())
}
