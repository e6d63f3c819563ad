package finnhub

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/newthinker/finrag/internal/collector"
	"github.com/newthinker/finrag/internal/core"
	"github.com/newthinker/finrag/internal/httpx"
	"go.uber.org/zap"
)

const (
	baseURL = "https://finnhub.io/api/v1"
)

// Finnhub is a key-gated secondary provider for quotes and company news.
// Free tier: 60 calls/min.
type Finnhub struct {
	client  *httpx.Client
	baseURL string
	apiKey  string
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a Finnhub adapter. An empty apiKey leaves it unconfigured.
func New(apiKey string, timeout time.Duration, logger *zap.Logger) *Finnhub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Finnhub{
		client:  httpx.New(timeout),
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  logger,
		now:     time.Now,
	}
}

// NewWithBaseURL creates a Finnhub adapter with custom base URL (for testing)
func NewWithBaseURL(apiKey, url string, timeout time.Duration, logger *zap.Logger) *Finnhub {
	f := New(apiKey, timeout, logger)
	f.baseURL = strings.TrimSuffix(url, "/")
	return f
}

func (f *Finnhub) Name() string {
	return "finnhub"
}

func (f *Finnhub) Source() core.Source {
	return core.SourceFinnhub
}

// Configured reports whether an API key is present.
func (f *Finnhub) Configured() bool {
	return f.apiKey != ""
}

// Close releases the adapter's pooled connections.
func (f *Finnhub) Close() {
	f.client.Close()
}

// FetchQuote fetches a real-time quote.
func (f *Finnhub) FetchQuote(ctx context.Context, ticker string) (*core.Quote, error) {
	if !f.Configured() {
		return nil, core.Errorf(core.ErrProviderUnconfigured, "finnhub API key not configured")
	}
	symbol, err := collector.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}

	var data quoteResponse
	params := url.Values{
		"symbol": {symbol},
		"token":  {f.apiKey},
	}
	if err := f.client.GetJSON(ctx, f.baseURL+"/quote", params, &data); err != nil {
		return nil, err
	}

	// Unknown symbols come back as an all-zero payload
	if data.Current == nil || (*data.Current == 0 && (data.Time == nil || *data.Time == 0)) {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no quote for symbol: %s", symbol))
	}

	return &core.Quote{
		Ticker:        symbol,
		Price:         data.Current,
		Change:        data.Change,
		ChangePercent: data.PercentChange,
		DayHigh:       data.High,
		DayLow:        data.Low,
		Open:          data.Open,
		PreviousClose: data.PreviousClose,
		Time:          f.now(),
		Source:        core.SourceFinnhub,
	}, nil
}

// FetchNews returns up to collector.MaxNewsItems headlines published in the
// last daysBack days, in provider order.
func (f *Finnhub) FetchNews(ctx context.Context, ticker string, daysBack int) []core.NewsItem {
	if !f.Configured() {
		return []core.NewsItem{}
	}
	symbol, err := collector.NormalizeTicker(ticker)
	if err != nil {
		f.logger.Debug("skipping news for invalid ticker", zap.String("ticker", ticker), zap.Error(err))
		return []core.NewsItem{}
	}
	if daysBack < 1 {
		daysBack = 7
	}

	now := f.now()
	params := url.Values{
		"symbol": {symbol},
		"from":   {now.AddDate(0, 0, -daysBack).Format("2006-01-02")},
		"to":     {now.Format("2006-01-02")},
		"token":  {f.apiKey},
	}

	var items []newsResponse
	if err := f.client.GetJSON(ctx, f.baseURL+"/company-news", params, &items); err != nil {
		f.logger.Warn("fetching company news", zap.String("ticker", symbol), zap.Error(err))
		return []core.NewsItem{}
	}

	if len(items) > collector.MaxNewsItems {
		items = items[:collector.MaxNewsItems]
	}
	news := make([]core.NewsItem, 0, len(items))
	for _, item := range items {
		news = append(news, core.NewsItem{
			Headline:    item.Headline,
			Summary:     item.Summary,
			Source:      item.Source,
			URL:         item.URL,
			PublishedAt: time.Unix(item.Datetime, 0).UTC(),
		})
	}
	return news
}

// Finnhub API response types
type quoteResponse struct {
	Current       *float64 `json:"c"`
	Change        *float64 `json:"d"`
	PercentChange *float64 `json:"dp"`
	High          *float64 `json:"h"`
	Low           *float64 `json:"l"`
	Open          *float64 `json:"o"`
	PreviousClose *float64 `json:"pc"`
	Time          *int64   `json:"t"`
}

type newsResponse struct {
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	ID       int64  `json:"id"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}
