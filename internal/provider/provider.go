// Package provider implements the search backends the fallback chain draws
// from: the Brave web search API, DuckDuckGo's HTML and lite result pages,
// and the Google News RSS feed.
package provider

import (
	"context"
	"net/http"

	"github.com/spherical-ai/footprint/internal/config"
	"github.com/spherical-ai/footprint/internal/domain"
	"github.com/spherical-ai/footprint/internal/observability"
)

// Backend is one search provider. Search returns at most maxResults hits;
// an empty slice with a nil error means the provider had nothing.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]domain.RawResult, error)
}

// Build constructs the configured backends in fallback order. Brave is
// skipped when no API key is configured.
func Build(cfg *config.Config, logger *observability.Logger) ([]Backend, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}
	logger = logger.WithComponent("provider")

	hc := newHTTPClient(&http.Client{}, cfg.Search.UserAgent, logger)

	backends := make([]Backend, 0, len(cfg.Search.Backends))
	for _, name := range cfg.Search.Backends {
		switch name {
		case config.BackendBrave:
			if cfg.Providers.Brave.APIKey == "" {
				logger.Warn().Str("backend", name).Msg("no API key configured, skipping backend")
				continue
			}
			backends = append(backends, NewBrave(cfg.Providers.Brave, hc))
		case config.BackendDDGHTML:
			backends = append(backends, NewDuckDuckGoHTML(cfg.Providers.DuckDuckGo, hc))
		case config.BackendDDGLite:
			backends = append(backends, NewDuckDuckGoLite(cfg.Providers.DuckDuckGo, hc))
		case config.BackendGoogleNews:
			backends = append(backends, NewGoogleNews(cfg.Providers.GoogleNews, hc))
		default:
			return nil, domain.ConfigError("unknown search backend "+name, nil)
		}
	}

	if len(backends) == 0 {
		return nil, domain.ConfigError("no usable search backends configured", nil)
	}
	return backends, nil
}

// Names lists backend names in order.
func Names(backends []Backend) []string {
	names := make([]string, len(backends))
	for i, b := range backends {
		names[i] = b.Name()
	}
	return names
}

func limit(results []domain.RawResult, maxResults int) []domain.RawResult {
	if maxResults > 0 && len(results) > maxResults {
		return results[:maxResults]
	}
	return results
}
