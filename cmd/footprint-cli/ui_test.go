package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/footprint/internal/domain"
	"github.com/spherical-ai/footprint/internal/engine"
	"github.com/spherical-ai/footprint/internal/planner"
	"github.com/spherical-ai/footprint/internal/provider"
)

func newBufferUI(jsonMode bool) (*UI, *bytes.Buffer) {
	var buf bytes.Buffer
	return &UI{out: &buf, errOut: &buf, noColor: true, jsonMode: jsonMode}, &buf
}

func TestUI_Report(t *testing.T) {
	u, buf := newBufferUI(false)
	report := &engine.Report{
		Results: domain.Buckets{
			domain.CategorySocialProfiles: {{
				Title:        "Ada Lovelace - LinkedIn",
				URL:          "https://linkedin.com/in/ada#:~:text=Ada%20Lovelace",
				MatchContext: "Matched Name 'Ada Lovelace'",
				Score:        100,
			}},
		},
		Meta: engine.Meta{Name: "Ada Lovelace", TotalQueries: 12, Succeeded: 11, Failed: 1, TotalResults: 1, Partial: true},
	}

	u.Report(report, planner.Categories())

	out := buf.String()
	assert.Contains(t, out, "━━━ SEARCH ━━━")
	assert.Contains(t, out, "Queries: 12 (11 ok, 1 failed, 0 timed out)")
	assert.Contains(t, out, "[100] Ada Lovelace - LinkedIn")
	assert.Contains(t, out, "Matched Name 'Ada Lovelace'")
	assert.Contains(t, out, "partial results")
	assert.Contains(t, out, "━━━ GENERAL (0) ━━━")
	assert.Contains(t, out, "no results")
}

func TestUI_JSONModeIsSilent(t *testing.T) {
	u, buf := newBufferUI(true)
	u.Success("done")
	u.Warning("careful")
	u.Table([]string{"a"}, [][]string{{"b"}})
	u.Report(&engine.Report{}, planner.Categories())

	assert.Empty(t, buf.String())
	assert.Nil(t, u.ProgressBar("x", 3))
	assert.Nil(t, u.Spinner("x"))
}

func TestUI_Table(t *testing.T) {
	u, buf := newBufferUI(false)
	u.Table([]string{"#", "Query"}, [][]string{{"1", "Ada site:github.com"}, {"12", "Ada"}})

	assert.Equal(t, ""+
		"+----+---------------------+\n"+
		"| #  | Query               |\n"+
		"+----+---------------------+\n"+
		"| 1  | Ada site:github.com |\n"+
		"| 12 | Ada                 |\n"+
		"+----+---------------------+\n", buf.String())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "1.5s", FormatDuration(1500*time.Millisecond))
	assert.Equal(t, "2.0m", FormatDuration(2*time.Minute))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "Zoë…", Truncate("Zoë Kravitz", 4))
}

type namedBackend string

func (b namedBackend) Name() string { return string(b) }

func (b namedBackend) Search(ctx context.Context, query string, maxResults int) ([]domain.RawResult, error) {
	return nil, nil
}

func TestSelectBackends(t *testing.T) {
	all := []provider.Backend{namedBackend("brave"), namedBackend("ddg_html"), namedBackend("google_news")}

	got, err := selectBackends(all, nil)
	require.NoError(t, err)
	assert.Equal(t, all, got)

	got, err = selectBackends(all, []string{"google_news", "brave"})
	require.NoError(t, err)
	assert.Equal(t, []string{"google_news", "brave"}, provider.Names(got))

	_, err = selectBackends(all, []string{"bing"})
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))
}
