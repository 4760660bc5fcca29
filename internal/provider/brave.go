package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spherical-ai/footprint/internal/config"
	"github.com/spherical-ai/footprint/internal/domain"
)

// Brave queries the Brave web search API.
type Brave struct {
	apiKey   string
	endpoint string
	http     *httpClient
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// NewBrave creates a Brave backend.
func NewBrave(cfg config.BraveConfig, hc *httpClient) *Brave {
	return &Brave{
		apiKey:   cfg.APIKey,
		endpoint: cfg.Endpoint,
		http:     hc,
	}
}

func (b *Brave) Name() string { return config.BackendBrave }

func (b *Brave) Search(ctx context.Context, query string, maxResults int) ([]domain.RawResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(maxResults))
	params.Set("safesearch", "off")

	resp, err := b.http.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint+"?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Subscription-Token", b.apiKey)
		return req, nil
	})
	if err != nil {
		return nil, domain.ProviderUnavailable(b.Name(), err)
	}
	defer resp.Body.Close()

	var payload braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, domain.ProviderUnavailable(b.Name(), err)
	}

	results := make([]domain.RawResult, 0, len(payload.Web.Results))
	for _, r := range payload.Web.Results {
		if r.URL == "" {
			continue
		}
		results = append(results, domain.RawResult{
			Title:       stripTags(r.Title),
			URL:         r.URL,
			Description: stripTags(r.Description),
			Source:      b.Name(),
		})
	}
	return limit(results, maxResults), nil
}
