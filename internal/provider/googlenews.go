package provider

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mmcdole/gofeed"

	"github.com/spherical-ai/footprint/internal/config"
	"github.com/spherical-ai/footprint/internal/domain"
)

// GoogleNews reads the Google News RSS search feed.
type GoogleNews struct {
	cfg  config.GoogleNewsConfig
	http *httpClient
}

// NewGoogleNews creates a Google News backend.
func NewGoogleNews(cfg config.GoogleNewsConfig, hc *httpClient) *GoogleNews {
	return &GoogleNews{cfg: cfg, http: hc}
}

func (g *GoogleNews) Name() string { return config.BackendGoogleNews }

func (g *GoogleNews) Search(ctx context.Context, query string, maxResults int) ([]domain.RawResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", g.cfg.HL)
	params.Set("gl", g.cfg.GL)
	params.Set("ceid", g.cfg.CEID)

	resp, err := g.http.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.Endpoint+"?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/rss+xml, application/xml")
		return req, nil
	})
	if err != nil {
		return nil, domain.ProviderUnavailable(g.Name(), err)
	}
	defer resp.Body.Close()

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, domain.ProviderUnavailable(g.Name(), err)
	}

	results := make([]domain.RawResult, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		results = append(results, domain.RawResult{
			Title:       collapse(item.Title),
			URL:         item.Link,
			Description: stripTags(item.Description),
			Source:      g.Name(),
		})
	}
	return limit(results, maxResults), nil
}
