// Package trends wraps the interest-over-time data provider used by the
// research stage. The provider is reached over HTTP; when it is unreachable
// or returns nothing usable, Summary degrades to a clearly-labeled simulated
// summary that still embeds the requested keywords.
package trends

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeframe matches the provider's trailing-12-months window.
const DefaultTimeframe = "today 12-m"

// Provider returns an interest-over-time series per keyword, scaled 0-100.
type Provider interface {
	InterestOverTime(ctx context.Context, keywords []string, timeframe, geo string) (map[string][]float64, error)
}

// HTTPProvider fetches series from a trends endpoint returning JSON of the
// form {"series": {"keyword": [..values..]}}.
type HTTPProvider struct {
	BaseURL string
	Client  *http.Client
}

var _ Provider = (*HTTPProvider)(nil)

// NewHTTPProvider creates a provider against baseURL with a 10s timeout.
func NewHTTPProvider(baseURL string) *HTTPProvider {
	return &HTTPProvider{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// InterestOverTime fetches the series for keywords.
func (p *HTTPProvider) InterestOverTime(ctx context.Context, keywords []string, timeframe, geo string) (map[string][]float64, error) {
	q := url.Values{}
	for _, kw := range keywords {
		q.Add("kw", kw)
	}
	q.Set("timeframe", timeframe)
	if geo != "" {
		q.Set("geo", geo)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/interest?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build trends request: %w", err)
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch trends: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("trends provider returned %s", resp.Status)
	}

	var payload struct {
		Series map[string][]float64 `json:"series"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode trends response: %w", err)
	}
	if len(payload.Series) == 0 {
		return nil, fmt.Errorf("trends provider returned no series")
	}
	return payload.Series, nil
}

// Summarizer turns provider series into a short natural-language summary
// ready for prompt insertion.
type Summarizer struct {
	provider Provider
}

// NewSummarizer creates a Summarizer. A nil provider is allowed and always
// produces the simulated fallback summary.
func NewSummarizer(provider Provider) *Summarizer {
	return &Summarizer{provider: provider}
}

// Summary returns one line per keyword with the latest interest value and its
// change against the previous sample. It never returns an error: provider
// failures produce a simulated summary labeled as such, embedding all
// keywords and the triggering error.
func (s *Summarizer) Summary(ctx context.Context, keywords []string, timeframe, geo string) string {
	if timeframe == "" {
		timeframe = DefaultTimeframe
	}

	if s.provider == nil {
		return simulatedSummary(keywords, fmt.Errorf("no trends provider configured"))
	}

	series, err := s.provider.InterestOverTime(ctx, keywords, timeframe, geo)
	if err != nil {
		return simulatedSummary(keywords, err)
	}

	parts := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		values := series[kw]
		if len(values) == 0 {
			parts = append(parts, fmt.Sprintf("%q: no recent data", kw))
			continue
		}
		latest := values[len(values)-1]
		previous := latest
		if len(values) > 1 {
			previous = values[len(values)-2]
		}
		change := 0.0
		if previous != 0 {
			change = (latest - previous) / previous * 100
		}
		parts = append(parts, fmt.Sprintf("%q: interest %.0f/100, change %+.1f%%", kw, latest, change))
	}
	return "Trends data: " + strings.Join(parts, "; ")
}

func simulatedSummary(keywords []string, err error) string {
	return fmt.Sprintf("Simulated trends data: growing interest in %s (fallback). Error: %v",
		strings.Join(keywords, ", "), err)
}
