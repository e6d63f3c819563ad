package quote

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/newthinker/finrag/internal/collector"
	"github.com/newthinker/finrag/internal/core"
	"github.com/newthinker/finrag/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	name       string
	source     core.Source
	configured bool
	price      float64
	err        error
	fail       map[string]bool
	calls      []string
}

func (m *mockProvider) Name() string        { return m.name }
func (m *mockProvider) Source() core.Source { return m.source }
func (m *mockProvider) Configured() bool    { return m.configured }

func (m *mockProvider) FetchQuote(ctx context.Context, ticker string) (*core.Quote, error) {
	m.calls = append(m.calls, ticker)
	if m.err != nil {
		return nil, m.err
	}
	if m.fail[ticker] {
		return nil, core.WrapError(core.ErrNoData, errors.New("no data returned"))
	}
	return &core.Quote{
		Ticker: ticker,
		Price:  core.Float(m.price),
		Change: core.Float(1),
		Source: m.source,
	}, nil
}

func newMock(name string, source core.Source, price float64) *mockProvider {
	return &mockProvider{name: name, source: source, configured: true, price: price}
}

func TestAggregator_PrimarySuccessSkipsFallbacks(t *testing.T) {
	yahoo := newMock("yahoo", core.SourceYahoo, 189.84)
	finnhub := newMock("finnhub", core.SourceFinnhub, 190)
	fmp := newMock("fmp", core.SourceFMP, 191)

	a := New([]collector.QuoteProvider{yahoo, finnhub, fmp}, nil, nil)
	q, err := a.GetComprehensiveQuote(context.Background(), "aapl")
	require.NoError(t, err)

	assert.Equal(t, core.SourceYahoo, q.Source)
	assert.Equal(t, 189.84, *q.Price)
	assert.Equal(t, []string{"AAPL"}, yahoo.calls)
	assert.Empty(t, finnhub.calls)
	assert.Empty(t, fmp.calls)
}

func TestAggregator_FallsBackInOrder(t *testing.T) {
	yahoo := newMock("yahoo", core.SourceYahoo, 0)
	yahoo.err = core.WrapError(core.ErrProviderTimeout, errors.New("deadline exceeded"))
	finnhub := newMock("finnhub", core.SourceFinnhub, 190)
	fmp := newMock("fmp", core.SourceFMP, 191)

	a := New([]collector.QuoteProvider{yahoo, finnhub, fmp}, nil, nil)
	q, err := a.GetComprehensiveQuote(context.Background(), "MSFT")
	require.NoError(t, err)

	assert.Equal(t, core.SourceFinnhub, q.Source)
	assert.Len(t, yahoo.calls, 1)
	assert.Len(t, finnhub.calls, 1)
	assert.Empty(t, fmp.calls)
}

func TestAggregator_SkipsUnconfigured(t *testing.T) {
	yahoo := newMock("yahoo", core.SourceYahoo, 0)
	yahoo.err = core.ErrProviderFailed
	finnhub := newMock("finnhub", core.SourceFinnhub, 190)
	finnhub.configured = false
	fmp := newMock("fmp", core.SourceFMP, 191)

	a := New([]collector.QuoteProvider{yahoo, finnhub, fmp}, nil, nil)
	q, err := a.GetComprehensiveQuote(context.Background(), "MSFT")
	require.NoError(t, err)

	assert.Equal(t, core.SourceFMP, q.Source)
	assert.Empty(t, finnhub.calls, "unconfigured provider must not be called")
}

func TestAggregator_AllSourcesFailed(t *testing.T) {
	yahoo := newMock("yahoo", core.SourceYahoo, 0)
	yahoo.err = core.ErrNoData
	finnhub := newMock("finnhub", core.SourceFinnhub, 0)
	finnhub.configured = false
	fmp := newMock("fmp", core.SourceFMP, 0)
	fmp.err = core.ErrProviderFailed

	reg := metrics.NewRegistry()
	a := New([]collector.QuoteProvider{yahoo, finnhub, fmp}, nil, reg)
	q, err := a.GetComprehensiveQuote(context.Background(), "zzzz")
	require.Error(t, err)
	assert.Nil(t, q)

	assert.True(t, errors.Is(err, core.ErrAllSourcesFailed))
	assert.True(t, errors.Is(err, core.ErrProviderUnconfigured), "cause keeps per-source errors")

	var ce *core.Error
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.Message, "ZZZZ")
	assert.True(t, strings.HasPrefix(ce.Message, "unable to fetch quote"))
}

func TestAggregator_InvalidTicker(t *testing.T) {
	yahoo := newMock("yahoo", core.SourceYahoo, 1)
	a := New([]collector.QuoteProvider{yahoo}, nil, nil)

	_, err := a.GetComprehensiveQuote(context.Background(), "   ")
	assert.True(t, errors.Is(err, core.ErrInvalidSymbol))
	assert.Empty(t, yahoo.calls)
}

func TestAggregator_CancelledContext(t *testing.T) {
	yahoo := newMock("yahoo", core.SourceYahoo, 1)
	a := New([]collector.QuoteProvider{yahoo}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.GetComprehensiveQuote(ctx, "AAPL")
	assert.True(t, errors.Is(err, core.ErrAllSourcesFailed))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, yahoo.calls)
}

func TestAggregator_GetMarketOverview(t *testing.T) {
	yahoo := newMock("yahoo", core.SourceYahoo, 5000)
	yahoo.fail = map[string]bool{"^RUT": true}
	finnhub := newMock("finnhub", core.SourceFinnhub, 1)

	a := New([]collector.QuoteProvider{yahoo, finnhub}, nil, nil)
	overview := a.GetMarketOverview(context.Background())

	assert.Len(t, overview, 3)
	assert.Contains(t, overview, "S&P 500")
	assert.Contains(t, overview, "Dow Jones")
	assert.Contains(t, overview, "NASDAQ")
	assert.NotContains(t, overview, "Russell 2000")
	assert.Equal(t, 5000.0, *overview["NASDAQ"].Price)
	assert.Nil(t, overview["NASDAQ"].ChangePercent)

	assert.Equal(t, []string{"^GSPC", "^DJI", "^IXIC", "^RUT"}, yahoo.calls)
	assert.Empty(t, finnhub.calls, "overview uses the primary only")
}

func TestAggregator_GetMarketOverview_AllFail(t *testing.T) {
	yahoo := newMock("yahoo", core.SourceYahoo, 0)
	yahoo.err = core.ErrProviderFailed

	a := New([]collector.QuoteProvider{yahoo}, nil, nil)
	overview := a.GetMarketOverview(context.Background())
	assert.NotNil(t, overview)
	assert.Empty(t, overview)

	assert.Empty(t, New(nil, nil, nil).GetMarketOverview(context.Background()))
}
