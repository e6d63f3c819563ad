package fmp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/finrag/internal/collector"
	"github.com/newthinker/finrag/internal/core"
	"github.com/newthinker/finrag/internal/httpx"
	"go.uber.org/zap"
)

const (
	baseURL = "https://financialmodelingprep.com/api/v3"

	publishedLayout = "2006-01-02 15:04:05"
)

// FMP is the Financial Modeling Prep adapter. Free tier: 250 calls/day.
type FMP struct {
	client  *httpx.Client
	baseURL string
	apiKey  string
	logger  *zap.Logger
	now     func() time.Time
}

// New creates an FMP adapter. An empty apiKey leaves it unconfigured.
func New(apiKey string, timeout time.Duration, logger *zap.Logger) *FMP {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FMP{
		client:  httpx.New(timeout),
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  logger,
		now:     time.Now,
	}
}

// NewWithBaseURL creates an FMP adapter with custom base URL (for testing)
func NewWithBaseURL(apiKey, url string, timeout time.Duration, logger *zap.Logger) *FMP {
	f := New(apiKey, timeout, logger)
	f.baseURL = strings.TrimSuffix(url, "/")
	return f
}

func (f *FMP) Name() string {
	return "fmp"
}

func (f *FMP) Source() core.Source {
	return core.SourceFMP
}

// Configured reports whether an API key is present.
func (f *FMP) Configured() bool {
	return f.apiKey != ""
}

// Close releases the adapter's pooled connections.
func (f *FMP) Close() {
	f.client.Close()
}

// FetchQuote fetches a full quote.
func (f *FMP) FetchQuote(ctx context.Context, ticker string) (*core.Quote, error) {
	if !f.Configured() {
		return nil, core.Errorf(core.ErrProviderUnconfigured, "FMP API key not configured")
	}
	symbol, err := collector.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}

	var quotes []quoteResponse
	endpoint := fmt.Sprintf("%s/quote/%s", f.baseURL, url.PathEscape(symbol))
	if err := f.getList(ctx, endpoint, url.Values{"apikey": {f.apiKey}}, &quotes); err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no data returned for symbol: %s", symbol))
	}

	d := quotes[0]
	if d.Price == nil {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no price for symbol: %s", symbol))
	}

	return &core.Quote{
		Ticker:               symbol,
		Price:                d.Price,
		Change:               d.Change,
		ChangePercent:        d.ChangesPercentage,
		DayHigh:              d.DayHigh,
		DayLow:               d.DayLow,
		Open:                 d.Open,
		PreviousClose:        d.PreviousClose,
		Volume:               d.Volume,
		AvgVolume:            d.AvgVolume,
		MarketCap:            d.MarketCap,
		PERatio:              d.PE,
		EPS:                  d.EPS,
		FiftyTwoWeekHigh:     d.YearHigh,
		FiftyTwoWeekLow:      d.YearLow,
		FiftyDayAverage:      d.PriceAvg50,
		TwoHundredDayAverage: d.PriceAvg200,
		Time:                 f.now(),
		Source:               core.SourceFMP,
	}, nil
}

// FetchNews returns up to collector.MaxNewsItems stock news items from the
// last daysBack days, in provider order.
func (f *FMP) FetchNews(ctx context.Context, ticker string, daysBack int) []core.NewsItem {
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

	params := url.Values{
		"tickers": {symbol},
		"limit":   {strconv.Itoa(collector.MaxNewsItems)},
		"apikey":  {f.apiKey},
	}

	var items []newsResponse
	if err := f.getList(ctx, f.baseURL+"/stock_news", params, &items); err != nil {
		f.logger.Warn("fetching stock news", zap.String("ticker", symbol), zap.Error(err))
		return []core.NewsItem{}
	}

	cutoff := f.now().AddDate(0, 0, -daysBack)
	news := make([]core.NewsItem, 0, len(items))
	for _, item := range items {
		published, err := time.ParseInLocation(publishedLayout, item.PublishedDate, time.UTC)
		if err == nil && published.Before(cutoff) {
			continue
		}
		news = append(news, core.NewsItem{
			Headline:    item.Title,
			Summary:     item.Text,
			Source:      item.Site,
			URL:         item.URL,
			PublishedAt: published,
		})
		if len(news) == collector.MaxNewsItems {
			break
		}
	}
	return news
}

// getList decodes a JSON array. FMP reports errors such as an invalid key as
// an object with an "Error Message" field, sometimes with status 200.
func (f *FMP) getList(ctx context.Context, endpoint string, params url.Values, out any) error {
	var raw json.RawMessage
	if err := f.client.GetJSON(ctx, endpoint, params, &raw); err != nil {
		return err
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var apiErr errorResponse
		if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Message != "" {
			return core.WrapError(core.ErrProviderFailed, fmt.Errorf("fmp error: %s", apiErr.Message))
		}
		return core.WrapError(core.ErrProviderFailed, fmt.Errorf("unexpected response shape"))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return core.WrapError(core.ErrProviderFailed, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// FMP API response types
type quoteResponse struct {
	Symbol            string   `json:"symbol"`
	Name              string   `json:"name"`
	Price             *float64 `json:"price"`
	ChangesPercentage *float64 `json:"changesPercentage"`
	Change            *float64 `json:"change"`
	DayLow            *float64 `json:"dayLow"`
	DayHigh           *float64 `json:"dayHigh"`
	YearHigh          *float64 `json:"yearHigh"`
	YearLow           *float64 `json:"yearLow"`
	MarketCap         *float64 `json:"marketCap"`
	PriceAvg50        *float64 `json:"priceAvg50"`
	PriceAvg200       *float64 `json:"priceAvg200"`
	Volume            *float64 `json:"volume"`
	AvgVolume         *float64 `json:"avgVolume"`
	Open              *float64 `json:"open"`
	PreviousClose     *float64 `json:"previousClose"`
	EPS               *float64 `json:"eps"`
	PE                *float64 `json:"pe"`
	Timestamp         int64    `json:"timestamp"`
}

type newsResponse struct {
	Symbol        string `json:"symbol"`
	PublishedDate string `json:"publishedDate"`
	Title         string `json:"title"`
	Site          string `json:"site"`
	Text          string `json:"text"`
	URL           string `json:"url"`
}

type errorResponse struct {
	Message string `json:"Error Message"`
}
