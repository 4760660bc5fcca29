package provider

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/spherical-ai/footprint/internal/config"
	"github.com/spherical-ai/footprint/internal/domain"
)

// DuckDuckGoHTML scrapes the html.duckduckgo.com result page.
type DuckDuckGoHTML struct {
	ddg
}

// DuckDuckGoLite scrapes the lite.duckduckgo.com result page.
type DuckDuckGoLite struct {
	ddg
}

type ddg struct {
	endpoint   string
	region     string
	safeSearch string
	http       *httpClient
}

// NewDuckDuckGoHTML creates the HTML-page backend.
func NewDuckDuckGoHTML(cfg config.DuckDuckGoConfig, hc *httpClient) *DuckDuckGoHTML {
	return &DuckDuckGoHTML{ddg{
		endpoint:   cfg.HTMLEndpoint,
		region:     cfg.Region,
		safeSearch: cfg.SafeSearch,
		http:       hc,
	}}
}

// NewDuckDuckGoLite creates the lite-page backend.
func NewDuckDuckGoLite(cfg config.DuckDuckGoConfig, hc *httpClient) *DuckDuckGoLite {
	return &DuckDuckGoLite{ddg{
		endpoint:   cfg.LiteEndpoint,
		region:     cfg.Region,
		safeSearch: cfg.SafeSearch,
		http:       hc,
	}}
}

func (d *DuckDuckGoHTML) Name() string { return config.BackendDDGHTML }

func (d *DuckDuckGoHTML) Search(ctx context.Context, query string, maxResults int) ([]domain.RawResult, error) {
	doc, err := d.fetch(ctx, query)
	if err != nil {
		return nil, domain.ProviderUnavailable(d.Name(), err)
	}

	var results []domain.RawResult
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.HasClass("result--ad") {
			return true
		}
		link := s.Find(".result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		target := resolveRedirect(href)
		if target == "" {
			return true
		}
		results = append(results, domain.RawResult{
			Title:       collapse(link.Text()),
			URL:         target,
			Description: collapse(s.Find(".result__snippet").First().Text()),
			Source:      d.Name(),
		})
		return maxResults <= 0 || len(results) < maxResults
	})
	return results, nil
}

func (d *DuckDuckGoLite) Name() string { return config.BackendDDGLite }

func (d *DuckDuckGoLite) Search(ctx context.Context, query string, maxResults int) ([]domain.RawResult, error) {
	doc, err := d.fetch(ctx, query)
	if err != nil {
		return nil, domain.ProviderUnavailable(d.Name(), err)
	}

	// Links and snippets sit in sibling table rows; pair them by position.
	snippets := doc.Find("td.result-snippet").Map(func(_ int, s *goquery.Selection) string {
		return collapse(s.Text())
	})

	var results []domain.RawResult
	doc.Find("a.result-link").EachWithBreak(func(i int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok {
			return true
		}
		target := resolveRedirect(href)
		if target == "" {
			return true
		}
		r := domain.RawResult{
			Title:  collapse(s.Text()),
			URL:    target,
			Source: d.Name(),
		}
		if i < len(snippets) {
			r.Description = snippets[i]
		}
		results = append(results, r)
		return maxResults <= 0 || len(results) < maxResults
	})
	return results, nil
}

// fetch posts the query form and parses the returned page. Any markup it
// cannot make sense of simply yields no matching selections.
func (d *ddg) fetch(ctx context.Context, query string) (*goquery.Document, error) {
	form := url.Values{}
	form.Set("q", query)
	form.Set("kl", d.region)
	form.Set("kp", safeSearchParam(d.safeSearch))
	body := form.Encode()

	resp, err := d.http.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "text/html")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return goquery.NewDocumentFromReader(resp.Body)
}

func safeSearchParam(level string) string {
	switch level {
	case "strict":
		return "1"
	case "moderate":
		return "-1"
	default:
		return "-2"
	}
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= click-through links and
// rejects anything that is not an absolute http(s) URL.
func resolveRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		if t, err := url.Parse(target); err == nil {
			u = t
		}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return u.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stripTags returns the text content of an HTML fragment.
func stripTags(fragment string) string {
	if !strings.ContainsRune(fragment, '<') {
		return collapse(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapse(fragment)
	}
	return collapse(doc.Text())
}
