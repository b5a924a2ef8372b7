package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"StockScout/internal/model"
)

// AlphaVantageFundamentals reads company metrics from the Alpha Vantage
// OVERVIEW endpoint.
type AlphaVantageFundamentals struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// NewAlphaVantageFundamentals creates a fundamentals client with optional proxy support.
func NewAlphaVantageFundamentals(apiKey, proxyURL string) *AlphaVantageFundamentals {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &AlphaVantageFundamentals{
		APIKey:  apiKey,
		BaseURL: "https://www.alphavantage.co/query",
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

type overviewResponse struct {
	Symbol                     string `json:"Symbol"`
	PERatio                    string `json:"PERatio"`
	TrailingPE                 string `json:"TrailingPE"`
	QuarterlyEarningsGrowthYOY string `json:"QuarterlyEarningsGrowthYOY"`
	QuarterlyRevenueGrowthYOY  string `json:"QuarterlyRevenueGrowthYOY"`

	// Rate limiting and bad keys come back as 200 with one of these set.
	Note        string `json:"Note"`
	Information string `json:"Information"`
	ErrorMsg    string `json:"Error Message"`
}

// FetchFundamentals returns the metrics the overview carries. Values reported
// as "None" or empty are left out; an unknown symbol yields empty fundamentals.
func (a *AlphaVantageFundamentals) FetchFundamentals(ctx context.Context, symbol string) (model.Fundamentals, error) {
	params := url.Values{}
	params.Set("function", "OVERVIEW")
	params.Set("symbol", symbol)
	params.Set("apikey", a.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch overview: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alphavantage: status %d", resp.StatusCode)
	}

	var overview overviewResponse
	if err := json.NewDecoder(resp.Body).Decode(&overview); err != nil {
		return nil, fmt.Errorf("failed to decode overview: %w", err)
	}
	switch {
	case overview.ErrorMsg != "":
		return nil, fmt.Errorf("alphavantage: %s", overview.ErrorMsg)
	case overview.Note != "":
		return nil, fmt.Errorf("alphavantage: %s", overview.Note)
	case overview.Information != "":
		return nil, fmt.Errorf("alphavantage: %s", overview.Information)
	}

	f := model.Fundamentals{}
	pe := overview.TrailingPE
	if !present(pe) {
		pe = overview.PERatio
	}
	setMetric(f, model.MetricTrailingPE, pe)
	setMetric(f, model.MetricEarningsGrowth, overview.QuarterlyEarningsGrowthYOY)
	setMetric(f, model.MetricRevenueGrowth, overview.QuarterlyRevenueGrowthYOY)
	return f, nil
}

func present(raw string) bool {
	return raw != "" && raw != "None" && raw != "-"
}

func setMetric(f model.Fundamentals, key, raw string) {
	if !present(raw) {
		return
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("[WARN] failed to parse %s %q: %v", key, raw, err)
		return
	}
	f[key] = v
}
