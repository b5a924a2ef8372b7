package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"StockScout/internal/model"
)

// PolygonFetcher implements Fetcher using the Polygon.io aggregates API.
type PolygonFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewPolygonFetcher creates a new fetcher with optional proxy support.
func NewPolygonFetcher(apiKey, proxyURL string) *PolygonFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &PolygonFetcher{
		BaseURL: "https://api.polygon.io",
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *PolygonFetcher) Name() string { return "polygon" }

// polygonAgg is one daily aggregate; t is the bar start in Unix milliseconds.
type polygonAgg struct {
	T int64   `json:"t"`
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
	V float64 `json:"v"`
}

type polygonAggsResponse struct {
	Status       string       `json:"status"`
	ResultsCount int          `json:"resultsCount"`
	Results      []polygonAgg `json:"results"`
	Error        string       `json:"error"`
	Message      string       `json:"message"`
}

func (f *PolygonFetcher) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	endpoint := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/day/%s/%s?adjusted=true&sort=asc&limit=50000",
		f.BaseURL, url.PathEscape(symbol), start.Format(time.DateOnly), end.Format(time.DateOnly))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("polygon fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("polygon %s: %w", symbol, ErrNoData)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &StatusError{Provider: "polygon", Code: resp.StatusCode, Body: string(body)}
	}

	var aggs polygonAggsResponse
	if err := json.NewDecoder(resp.Body).Decode(&aggs); err != nil {
		return nil, fmt.Errorf("polygon decode: %w", err)
	}
	if aggs.Status == "ERROR" {
		msg := aggs.Error
		if msg == "" {
			msg = aggs.Message
		}
		return nil, fmt.Errorf("polygon api error: %s", msg)
	}
	if len(aggs.Results) == 0 {
		return nil, fmt.Errorf("polygon %s: %w", symbol, ErrNoData)
	}

	bars := make([]model.Bar, len(aggs.Results))
	for i, a := range aggs.Results {
		bars[i] = model.Bar{
			Date:   time.UnixMilli(a.T).UTC(),
			Open:   a.O,
			High:   a.H,
			Low:    a.L,
			Close:  a.C,
			Volume: a.V,
		}
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}
