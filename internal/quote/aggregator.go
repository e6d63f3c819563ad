// Package quote resolves a ticker against an ordered chain of providers.
package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newthinker/finrag/internal/collector"
	"github.com/newthinker/finrag/internal/core"
	"github.com/newthinker/finrag/internal/metrics"
	"go.uber.org/zap"
)

// Index is a benchmark shown in the market overview.
type Index struct {
	Name   string
	Symbol string
}

// Indices are the benchmarks fetched by GetMarketOverview.
var Indices = []Index{
	{Name: "S&P 500", Symbol: "^GSPC"},
	{Name: "Dow Jones", Symbol: "^DJI"},
	{Name: "NASDAQ", Symbol: "^IXIC"},
	{Name: "Russell 2000", Symbol: "^RUT"},
}

// Aggregator returns the first successful quote in chain order.
type Aggregator struct {
	chain   []collector.QuoteProvider
	logger  *zap.Logger
	metrics *metrics.Registry
}

// New creates an aggregator over chain. The first provider is the primary,
// used alone for the market overview.
func New(chain []collector.QuoteProvider, logger *zap.Logger, reg *metrics.Registry) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		chain:   chain,
		logger:  logger,
		metrics: reg,
	}
}

// GetComprehensiveQuote tries each configured provider in order and returns
// the first success unchanged. Later providers are not called after a success.
func (a *Aggregator) GetComprehensiveQuote(ctx context.Context, ticker string) (*core.Quote, error) {
	symbol, err := collector.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}

	var errs []error
	for _, p := range a.chain {
		if !collector.IsConfigured(p) {
			a.metrics.RecordProviderAttempt(p.Name(), metrics.OutcomeSkipped, 0)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), core.ErrProviderUnconfigured))
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		start := time.Now()
		q, err := p.FetchQuote(ctx, symbol)
		elapsed := time.Since(start).Seconds()

		if err != nil {
			a.metrics.RecordProviderAttempt(p.Name(), metrics.OutcomeError, elapsed)
			a.logger.Warn("quote provider failed",
				zap.String("provider", p.Name()),
				zap.String("ticker", symbol),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}

		a.metrics.RecordProviderAttempt(p.Name(), metrics.OutcomeSuccess, elapsed)
		a.metrics.RecordQuoteResult(string(q.Source))
		a.logger.Debug("quote resolved",
			zap.String("provider", p.Name()),
			zap.String("ticker", symbol))
		return q, nil
	}

	a.metrics.RecordQuoteResult("")
	return nil, &core.Error{
		Code:    core.ErrAllSourcesFailed.Code,
		Message: fmt.Sprintf("unable to fetch quote for %s from any source", symbol),
		Cause:   errors.Join(errs...),
	}
}

// GetMarketOverview fetches the benchmark indices from the primary provider.
// Indices that fail are logged and left out; the result may be empty.
func (a *Aggregator) GetMarketOverview(ctx context.Context) map[string]core.IndexSnapshot {
	overview := make(map[string]core.IndexSnapshot, len(Indices))
	if len(a.chain) == 0 {
		return overview
	}
	primary := a.chain[0]

	for _, idx := range Indices {
		q, err := primary.FetchQuote(ctx, idx.Symbol)
		if err != nil {
			a.logger.Warn("index quote failed",
				zap.String("index", idx.Name),
				zap.String("symbol", idx.Symbol),
				zap.Error(err))
			continue
		}
		overview[idx.Name] = core.IndexSnapshot{
			Price:         q.Price,
			Change:        q.Change,
			ChangePercent: q.ChangePercent,
		}
	}
	return overview
}
