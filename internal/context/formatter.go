// internal/context/formatter.go
package context

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/newthinker/finrag/internal/collector"
	"github.com/newthinker/finrag/internal/core"
	"go.uber.org/zap"
)

// MaxContextNews caps the headlines rendered into a context block.
const MaxContextNews = 5

// QuoteSource resolves a ticker to a quote.
type QuoteSource interface {
	GetComprehensiveQuote(ctx context.Context, ticker string) (*core.Quote, error)
}

// Formatter renders real-time market data as a plain-text block for an LLM
// prompt.
type Formatter struct {
	quotes       QuoteSource
	profiles     collector.ProfileProvider
	news         []collector.NewsProvider
	newsDaysBack int
	logger       *zap.Logger
}

// NewFormatter creates a formatter. profiles may be nil; news providers are
// consulted in order and the first configured one is used.
func NewFormatter(quotes QuoteSource, profiles collector.ProfileProvider, news []collector.NewsProvider, newsDaysBack int, logger *zap.Logger) *Formatter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if newsDaysBack < 1 {
		newsDaysBack = 7
	}
	return &Formatter{
		quotes:       quotes,
		profiles:     profiles,
		news:         news,
		newsDaysBack: newsDaysBack,
		logger:       logger,
	}
}

// FormatForContext returns the context block for ticker. A failed quote
// yields a single explanatory line.
func (f *Formatter) FormatForContext(ctx context.Context, ticker string, includeNews bool) string {
	q, err := f.quotes.GetComprehensiveQuote(ctx, ticker)
	if err != nil {
		return fmt.Sprintf("Unable to retrieve real-time data for %s: %s",
			strings.ToUpper(strings.TrimSpace(ticker)), reason(err))
	}

	profile := f.profile(ctx, q.Ticker)

	lines := []string{
		fmt.Sprintf("=== REAL-TIME DATA FOR %s ===", q.Ticker),
		"Retrieved: " + q.Timestamp(),
		"Source: " + string(q.Source),
		"",
		"Company: " + orNA(profile.Name),
		fmt.Sprintf("Sector: %s | Industry: %s", orNA(profile.Sector), orNA(profile.Industry)),
		"",
		"CURRENT TRADING DATA:",
	}
	lines = append(lines, tradingLines(q)...)
	lines = append(lines, "", "KEY METRICS:")
	lines = append(lines, metricLines(q)...)

	if profile.Description != "" {
		lines = append(lines, "", "COMPANY OVERVIEW:", truncate(profile.Description, overviewLimit))
	}

	if includeNews {
		if items := f.recentNews(ctx, q.Ticker); len(items) > 0 {
			lines = append(lines, "", "RECENT NEWS:")
			for i, item := range items {
				lines = append(lines, fmt.Sprintf("  %d. %s (%s)", i+1, item.Headline, item.Source))
			}
		}
	}

	return strings.Join(lines, "\n")
}

func tradingLines(q *core.Quote) []string {
	var lines []string
	if q.Price != nil {
		lines = append(lines, "  Price: "+currency(*q.Price))
	}
	if q.Change != nil {
		line := "  Change: " + decimal(*q.Change)
		if q.ChangePercent != nil {
			line += fmt.Sprintf(" (%s%%)", decimal(*q.ChangePercent))
		}
		lines = append(lines, line)
	}
	if q.DayLow != nil && q.DayHigh != nil {
		lines = append(lines, fmt.Sprintf("  Day Range: %s - %s", currency(*q.DayLow), currency(*q.DayHigh)))
	}
	if q.Volume != nil {
		lines = append(lines, "  Volume: "+integer(*q.Volume))
	}
	return lines
}

func metricLines(q *core.Quote) []string {
	var lines []string
	if q.MarketCap != nil {
		lines = append(lines, "  Market Cap: "+currency(*q.MarketCap))
	}
	if q.PERatio != nil {
		lines = append(lines, "  P/E Ratio: "+decimal(*q.PERatio))
	}
	if q.FiftyTwoWeekLow != nil && q.FiftyTwoWeekHigh != nil {
		lines = append(lines, fmt.Sprintf("  52-Week Range: %s - %s",
			currency(*q.FiftyTwoWeekLow), currency(*q.FiftyTwoWeekHigh)))
	}
	return lines
}

// profile returns the company profile, or a zero profile when unavailable.
func (f *Formatter) profile(ctx context.Context, ticker string) core.CompanyProfile {
	if f.profiles == nil {
		return core.CompanyProfile{}
	}
	p, err := f.profiles.FetchProfile(ctx, ticker)
	if err != nil {
		f.logger.Debug("company profile unavailable", zap.String("ticker", ticker), zap.Error(err))
		return core.CompanyProfile{}
	}
	return *p
}

func (f *Formatter) recentNews(ctx context.Context, ticker string) []core.NewsItem {
	for _, p := range f.news {
		if !collector.IsConfigured(p) {
			continue
		}
		items := p.FetchNews(ctx, ticker, f.newsDaysBack)
		if len(items) > MaxContextNews {
			items = items[:MaxContextNews]
		}
		return items
	}
	return nil
}

// reason extracts the human-readable part of a quote failure.
func reason(err error) string {
	var ce *core.Error
	if errors.As(err, &ce) {
		return ce.Message
	}
	return err.Error()
}
