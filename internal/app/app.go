package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/newthinker/finrag/internal/chunker"
	"github.com/newthinker/finrag/internal/collector"
	"github.com/newthinker/finrag/internal/collector/coingecko"
	"github.com/newthinker/finrag/internal/collector/finnhub"
	"github.com/newthinker/finrag/internal/collector/fmp"
	"github.com/newthinker/finrag/internal/collector/yahoo"
	"github.com/newthinker/finrag/internal/config"
	fincontext "github.com/newthinker/finrag/internal/context"
	"github.com/newthinker/finrag/internal/core"
	"github.com/newthinker/finrag/internal/document"
	"github.com/newthinker/finrag/internal/export"
	"github.com/newthinker/finrag/internal/metrics"
	"github.com/newthinker/finrag/internal/quote"
	"go.uber.org/zap"
)

// App wires providers, the quote aggregator, the context formatter and the
// document pipeline from one configuration.
type App struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Registry

	yahoo     *yahoo.Yahoo
	finnhub   *finnhub.Finnhub
	fmp       *fmp.FMP
	coingecko *coingecko.CoinGecko

	aggregator *quote.Aggregator
	formatter  *fincontext.Formatter
	pipeline   *document.Pipeline

	closeOnce sync.Once
}

// Batch describes one exported chunk batch.
type Batch struct {
	Key    string
	Chunks int
}

// IngestResult summarizes an ingest run.
type IngestResult struct {
	Chunks    []core.Chunk
	ExportKey string
}

// New creates an App. reg may be nil to disable metrics.
func New(cfg *config.Config, logger *zap.Logger, reg *metrics.Registry) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	splitter, err := chunker.New(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, err)
	}

	timeout := cfg.Providers.Timeout
	a := &App{
		cfg:       cfg,
		logger:    logger,
		metrics:   reg,
		yahoo:     yahoo.New(timeout, logger.Named("yahoo")),
		finnhub:   finnhub.New(cfg.Credentials.FinnhubAPIKey, timeout, logger.Named("finnhub")),
		fmp:       fmp.New(cfg.Credentials.FMPAPIKey, timeout, logger.Named("fmp")),
		coingecko: coingecko.New(timeout),
	}

	a.aggregator = quote.New(a.QuoteChain(), logger.Named("quote"), reg)
	a.formatter = fincontext.NewFormatter(a.aggregator, a.yahoo, a.NewsProviders(),
		cfg.Providers.NewsDaysBack, logger.Named("context"))
	a.pipeline = document.NewPipeline(document.NewExtractor(), splitter,
		cfg.Providers.Workers, logger.Named("document"), reg)

	logger.Debug("app initialized",
		zap.Bool("finnhub", a.finnhub.Configured()),
		zap.Bool("fmp", a.fmp.Configured()))
	return a, nil
}

// QuoteChain returns the quote providers in fallback order.
func (a *App) QuoteChain() []collector.QuoteProvider {
	return []collector.QuoteProvider{a.yahoo, a.finnhub, a.fmp}
}

// NewsProviders returns the news providers in preference order.
func (a *App) NewsProviders() []collector.NewsProvider {
	return []collector.NewsProvider{a.finnhub, a.fmp}
}

// Aggregator returns the quote aggregator.
func (a *App) Aggregator() *quote.Aggregator { return a.aggregator }

// Formatter returns the context formatter.
func (a *App) Formatter() *fincontext.Formatter { return a.formatter }

// Pipeline returns the document pipeline.
func (a *App) Pipeline() *document.Pipeline { return a.pipeline }

// Crypto fetches a crypto quote from CoinGecko.
func (a *App) Crypto(ctx context.Context, symbol string) (*core.Quote, error) {
	return a.coingecko.FetchQuote(ctx, symbol)
}

// Profile fetches the company profile for ticker.
func (a *App) Profile(ctx context.Context, ticker string) (*core.CompanyProfile, error) {
	return a.yahoo.FetchProfile(ctx, ticker)
}

// History fetches price bars for the lookback period ending now.
func (a *App) History(ctx context.Context, ticker, period, interval string) ([]core.OHLCV, error) {
	end := time.Now()
	start, err := yahoo.PeriodStart(period, end)
	if err != nil {
		return nil, err
	}
	return a.yahoo.FetchHistory(ctx, ticker, start, end, interval)
}

// Financials fetches the annual financial statements for ticker.
func (a *App) Financials(ctx context.Context, ticker string) (*core.FinancialStatements, error) {
	return a.yahoo.FetchFinancials(ctx, ticker)
}

// News returns recent headlines from the first configured news provider.
func (a *App) News(ctx context.Context, ticker string) ([]core.NewsItem, error) {
	for _, p := range a.NewsProviders() {
		if collector.IsConfigured(p) {
			return p.FetchNews(ctx, ticker, a.cfg.Providers.NewsDaysBack), nil
		}
	}
	return nil, core.Errorf(core.ErrProviderUnconfigured, "no news provider configured; set FINNHUB_API_KEY or FMP_API_KEY")
}

// Ingest chunks every supported document under dir and optionally exports the
// result through the configured storage.
func (a *App) Ingest(ctx context.Context, dir string, exportChunks bool) (*IngestResult, error) {
	if dir == "" {
		dir = a.cfg.Paths.DataDir
	}
	if err := a.cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	chunks, err := a.pipeline.ProcessDirectory(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("processing %s: %w", dir, err)
	}

	result := &IngestResult{Chunks: chunks}
	if !exportChunks {
		return result, nil
	}

	exporter, err := a.exporter()
	if err != nil {
		return nil, err
	}
	key, err := exporter.Export(ctx, chunks)
	if err != nil {
		return nil, err
	}
	result.ExportKey = key
	return result, nil
}

// Batches lists the exported chunk batches, oldest first, with their sizes.
func (a *App) Batches(ctx context.Context) ([]Batch, error) {
	exporter, err := a.exporter()
	if err != nil {
		return nil, err
	}
	keys, err := exporter.Batches(ctx)
	if err != nil {
		return nil, core.WrapError(core.ErrExportFailed, err)
	}

	batches := make([]Batch, 0, len(keys))
	for _, key := range keys {
		chunks, err := exporter.Load(ctx, key)
		if err != nil {
			return nil, err
		}
		batches = append(batches, Batch{Key: key, Chunks: len(chunks)})
	}
	return batches, nil
}

func (a *App) exporter() (*export.Exporter, error) {
	store, err := export.NewStorage(a.cfg.Export)
	if err != nil {
		return nil, core.WrapError(core.ErrExportFailed, err)
	}
	return export.NewExporter(store, a.logger.Named("export")), nil
}

// Close releases the providers' pooled connections.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.yahoo.Close()
		a.finnhub.Close()
		a.fmp.Close()
		a.coingecko.Close()
	})
}
