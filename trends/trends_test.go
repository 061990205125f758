package trends

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type failProvider struct{}

func (failProvider) InterestOverTime(context.Context, []string, string, string) (map[string][]float64, error) {
	return nil, errors.New("upstream timeout")
}

func TestSummaryFallbackKeepsAllKeywords(t *testing.T) {
	s := NewSummarizer(failProvider{})
	keywords := []string{"marketing digital", "Instagram", "Google Ads"}

	summary := s.Summary(context.Background(), keywords, "", "")

	for _, kw := range keywords {
		if !strings.Contains(summary, kw) {
			t.Errorf("fallback summary missing keyword %q: %s", kw, summary)
		}
	}
	if !strings.Contains(summary, "Simulated trends data") {
		t.Errorf("fallback summary not labeled: %s", summary)
	}
	if !strings.Contains(summary, "upstream timeout") {
		t.Errorf("fallback summary missing the triggering error: %s", summary)
	}
}

func TestSummaryNilProvider(t *testing.T) {
	s := NewSummarizer(nil)

	summary := s.Summary(context.Background(), []string{"keyword"}, "", "")
	if !strings.Contains(summary, "Simulated trends data") {
		t.Errorf("expected simulated summary without a provider: %s", summary)
	}
}

func TestSummaryFromProviderSeries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("timeframe"); got != DefaultTimeframe {
			t.Errorf("timeframe = %q, want %q", got, DefaultTimeframe)
		}
		fmt.Fprint(w, `{"series": {"marketing": [40, 50], "ads": [80, 60]}}`)
	}))
	defer server.Close()

	s := NewSummarizer(NewHTTPProvider(server.URL))
	summary := s.Summary(context.Background(), []string{"marketing", "ads"}, "", "BR")

	if !strings.HasPrefix(summary, "Trends data:") {
		t.Fatalf("expected provider-backed summary, got: %s", summary)
	}
	if !strings.Contains(summary, `"marketing": interest 50/100, change +25.0%`) {
		t.Errorf("rising keyword misreported: %s", summary)
	}
	if !strings.Contains(summary, `"ads": interest 60/100, change -25.0%`) {
		t.Errorf("falling keyword misreported: %s", summary)
	}
}

func TestSummaryKeywordWithoutData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"series": {"known": [10]}}`)
	}))
	defer server.Close()

	s := NewSummarizer(NewHTTPProvider(server.URL))
	summary := s.Summary(context.Background(), []string{"known", "unknown"}, "", "")

	if !strings.Contains(summary, `"unknown": no recent data`) {
		t.Errorf("keyword without series misreported: %s", summary)
	}
}

func TestHTTPProviderErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewHTTPProvider(server.URL).InterestOverTime(
		context.Background(), []string{"kw"}, DefaultTimeframe, "")
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestHTTPProviderEmptySeries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"series": {}}`)
	}))
	defer server.Close()

	_, err := NewHTTPProvider(server.URL).InterestOverTime(
		context.Background(), []string{"kw"}, DefaultTimeframe, "")
	if err == nil {
		t.Fatal("expected error for empty series")
	}
}
