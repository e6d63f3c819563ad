package yahoo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/newthinker/finrag/internal/collector"
	"github.com/newthinker/finrag/internal/core"
	"github.com/newthinker/finrag/internal/httpx"
	"go.uber.org/zap"
)

const (
	chartURL   = "https://query1.finance.yahoo.com/v8/finance/chart"
	summaryURL = "https://query2.finance.yahoo.com/v10/finance/quoteSummary"
	cookieURL  = "https://fc.yahoo.com"
	crumbURL   = "https://query1.finance.yahoo.com/v1/test/getcrumb"

	quoteModules   = "price,summaryDetail,defaultKeyStatistics"
	profileModules = "assetProfile,price"
)

type endpoints struct {
	chart   string
	summary string
	cookie  string
	crumb   string
}

// Yahoo is the keyless primary provider. Prices come from the chart
// endpoint, which needs no session. Fundamentals and profiles come from
// quoteSummary, which needs a cookie and crumb obtained on first use.
type Yahoo struct {
	client    *httpx.Client
	endpoints endpoints
	logger    *zap.Logger
	now       func() time.Time

	mu    sync.Mutex
	crumb string
}

// New creates a new Yahoo adapter
func New(timeout time.Duration, logger *zap.Logger) *Yahoo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Yahoo{
		client: httpx.New(timeout).WithCookies(),
		endpoints: endpoints{
			chart:   chartURL,
			summary: summaryURL,
			cookie:  cookieURL,
			crumb:   crumbURL,
		},
		logger: logger,
		now:    time.Now,
	}
}

// NewWithBaseURL creates a Yahoo adapter with custom base URL (for testing).
// All four endpoints are served below base using Yahoo's own paths.
func NewWithBaseURL(base string, timeout time.Duration) *Yahoo {
	y := New(timeout, nil)
	base = strings.TrimSuffix(base, "/")
	y.endpoints = endpoints{
		chart:   base + "/v8/finance/chart",
		summary: base + "/v10/finance/quoteSummary",
		cookie:  base + "/",
		crumb:   base + "/v1/test/getcrumb",
	}
	return y
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

func (y *Yahoo) Source() core.Source {
	return core.SourceYahoo
}

// Close releases the adapter's pooled connections.
func (y *Yahoo) Close() {
	y.client.Close()
}

// FetchQuote reads price, day range, volume and the 52-week range from the
// chart endpoint, then fills valuation metrics from quoteSummary when a
// session can be established. A failed enrichment leaves those fields nil.
func (y *Yahoo) FetchQuote(ctx context.Context, ticker string) (*core.Quote, error) {
	symbol, err := collector.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}

	r, err := y.chart(ctx, symbol, url.Values{"range": {"1d"}, "interval": {"1d"}})
	if err != nil {
		return nil, err
	}
	m := r.Meta
	if m.RegularMarketPrice == nil {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no price for symbol: %s", symbol))
	}

	q := &core.Quote{
		Ticker:           symbol,
		Price:            m.RegularMarketPrice,
		PreviousClose:    firstPtr(m.PreviousClose, m.ChartPreviousClose),
		Open:             r.lastOpen(),
		DayHigh:          m.RegularMarketDayHigh,
		DayLow:           m.RegularMarketDayLow,
		Volume:           m.RegularMarketVolume,
		FiftyTwoWeekHigh: m.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:  m.FiftyTwoWeekLow,
		Time:             y.now(),
		Source:           core.SourceYahoo,
	}
	if q.PreviousClose != nil {
		change := *q.Price - *q.PreviousClose
		q.Change = core.Float(change)
		if *q.PreviousClose != 0 {
			q.ChangePercent = core.Float(change / *q.PreviousClose * 100)
		}
	}

	s, err := y.quoteSummary(ctx, symbol, quoteModules)
	if err != nil {
		y.logger.Debug("quote summary unavailable",
			zap.String("ticker", symbol), zap.Error(err))
		return q, nil
	}
	applySummary(q, s)
	return q, nil
}

// FetchProfile fetches company identity and description. When quoteSummary
// is unreachable the name, exchange and currency still come from the chart.
func (y *Yahoo) FetchProfile(ctx context.Context, ticker string) (*core.CompanyProfile, error) {
	symbol, err := collector.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}

	profile := &core.CompanyProfile{
		Ticker: symbol,
		Source: core.SourceYahoo,
	}

	r, err := y.quoteSummary(ctx, symbol, profileModules)
	if err != nil {
		y.logger.Debug("profile summary unavailable, using chart metadata",
			zap.String("ticker", symbol), zap.Error(err))
		c, cerr := y.chart(ctx, symbol, url.Values{"range": {"1d"}, "interval": {"1d"}})
		if cerr != nil {
			return nil, errors.Join(err, cerr)
		}
		profile.Name = firstString(c.Meta.LongName, c.Meta.ShortName)
		profile.Exchange = c.Meta.FullExchangeName
		profile.Currency = c.Meta.Currency
		return profile, nil
	}
	if r.AssetProfile == nil && r.Price == nil {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no profile for symbol: %s", symbol))
	}

	if p := r.Price; p != nil {
		profile.Name = firstString(p.LongName, p.ShortName)
		profile.Exchange = p.ExchangeName
		profile.Currency = p.Currency
	}
	if a := r.AssetProfile; a != nil {
		profile.Sector = a.Sector
		profile.Industry = a.Industry
		profile.Description = a.LongBusinessSummary
		profile.Website = a.Website
		profile.City = a.City
		profile.State = a.State
		profile.Country = a.Country
		profile.Employees = a.FullTimeEmployees
	}
	return profile, nil
}

func (y *Yahoo) chart(ctx context.Context, symbol string, params url.Values) (*chartResult, error) {
	endpoint := fmt.Sprintf("%s/%s", y.endpoints.chart, url.PathEscape(symbol))

	var resp chartResponse
	if err := y.client.GetJSON(ctx, endpoint, params, &resp); err != nil {
		return nil, err
	}
	if e := resp.Chart.Error; e != nil {
		return nil, core.WrapError(core.ErrProviderFailed, fmt.Errorf("yahoo error: %s", e.Description))
	}
	if len(resp.Chart.Result) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no data for symbol: %s", symbol))
	}
	return &resp.Chart.Result[0], nil
}

func (y *Yahoo) quoteSummary(ctx context.Context, symbol, modules string) (*summaryResult, error) {
	crumb, err := y.session(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/%s", y.endpoints.summary, url.PathEscape(symbol))
	params := url.Values{"modules": {modules}, "crumb": {crumb}}

	var resp summaryResponse
	if err := y.client.GetJSON(ctx, endpoint, params, &resp); err != nil {
		if errors.Is(err, core.ErrProviderFailed) {
			// A stale crumb is rejected with 401; fetch a new one next time.
			y.resetSession()
		}
		return nil, err
	}

	if e := resp.QuoteSummary.Error; e != nil {
		return nil, core.WrapError(core.ErrProviderFailed, fmt.Errorf("yahoo error: %s", e.Description))
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no data for symbol: %s", symbol))
	}
	return &resp.QuoteSummary.Result[0], nil
}

// session returns the cached crumb, performing the cookie handshake first if
// there is none.
func (y *Yahoo) session(ctx context.Context) (string, error) {
	y.mu.Lock()
	defer y.mu.Unlock()
	if y.crumb != "" {
		return y.crumb, nil
	}

	req, err := http.NewRequest(http.MethodGet, y.endpoints.cookie, nil)
	if err != nil {
		return "", core.WrapError(core.ErrProviderFailed, fmt.Errorf("creating request: %w", err))
	}
	// The cookie host answers 404 but still sets the session cookie.
	resp, err := y.client.Do(ctx, req)
	if err != nil {
		return "", core.WrapError(core.ErrProviderFailed, fmt.Errorf("fetching session cookie: %w", err))
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	crumb, err := y.client.GetText(ctx, y.endpoints.crumb, nil)
	if err != nil {
		return "", err
	}
	if strings.ContainsAny(crumb, "<{ ") {
		return "", core.WrapError(core.ErrProviderFailed, fmt.Errorf("invalid crumb response"))
	}
	y.crumb = crumb
	return crumb, nil
}

func (y *Yahoo) resetSession() {
	y.mu.Lock()
	y.crumb = ""
	y.mu.Unlock()
}

// applySummary fills fields the chart did not report.
func applySummary(q *core.Quote, r *summaryResult) {
	p := r.Price
	if p == nil {
		p = &priceModule{}
	}
	sd := r.SummaryDetail
	if sd == nil {
		sd = &summaryDetail{}
	}
	ks := r.KeyStatistics
	if ks == nil {
		ks = &keyStatistics{}
	}

	fill(&q.PreviousClose, p.RegularMarketPreviousClose, sd.PreviousClose)
	fill(&q.Open, p.RegularMarketOpen, sd.Open)
	fill(&q.DayHigh, p.RegularMarketDayHigh, sd.DayHigh)
	fill(&q.DayLow, p.RegularMarketDayLow, sd.DayLow)
	fill(&q.Volume, p.RegularMarketVolume, sd.Volume)
	fill(&q.AvgVolume, sd.AverageVolume)
	fill(&q.MarketCap, p.MarketCap, sd.MarketCap)
	fill(&q.Change, p.RegularMarketChange)
	if q.ChangePercent == nil {
		q.ChangePercent = percent(p.RegularMarketChangePercent.Raw)
	}
	fill(&q.PERatio, sd.TrailingPE)
	fill(&q.ForwardPE, sd.ForwardPE, ks.ForwardPE)
	fill(&q.EPS, ks.TrailingEps)
	fill(&q.DividendYield, sd.DividendYield)
	fill(&q.Beta, sd.Beta, ks.Beta)
	fill(&q.FiftyTwoWeekHigh, sd.FiftyTwoWeekHigh)
	fill(&q.FiftyTwoWeekLow, sd.FiftyTwoWeekLow)
	fill(&q.FiftyDayAverage, sd.FiftyDayAverage)
	fill(&q.TwoHundredDayAverage, sd.TwoHundredDayAverage)
}

func fill(dst **float64, values ...rawValue) {
	if *dst == nil {
		*dst = firstOf(values...)
	}
}

func firstOf(values ...rawValue) *float64 {
	for _, v := range values {
		if v.Raw != nil {
			return v.Raw
		}
	}
	return nil
}

func firstPtr(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// percent converts Yahoo's fractional change (0.0123) to percent (1.23).
func percent(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return core.Float(*v * 100)
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta       chartMeta  `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

// lastOpen returns the most recent non-null open of the bars.
func (r *chartResult) lastOpen() *float64 {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	opens := r.Indicators.Quote[0].Open
	for i := len(opens) - 1; i >= 0; i-- {
		if opens[i] != nil {
			return opens[i]
		}
	}
	return nil
}

type chartMeta struct {
	Symbol               string   `json:"symbol"`
	Currency             string   `json:"currency"`
	FullExchangeName     string   `json:"fullExchangeName"`
	LongName             string   `json:"longName"`
	ShortName            string   `json:"shortName"`
	RegularMarketPrice   *float64 `json:"regularMarketPrice"`
	RegularMarketDayHigh *float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow  *float64 `json:"regularMarketDayLow"`
	RegularMarketVolume  *float64 `json:"regularMarketVolume"`
	RegularMarketTime    int64    `json:"regularMarketTime"`
	PreviousClose        *float64 `json:"previousClose"`
	ChartPreviousClose   *float64 `json:"chartPreviousClose"`
	FiftyTwoWeekHigh     *float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow      *float64 `json:"fiftyTwoWeekLow"`
}

type indicators struct {
	Quote []quoteIndicator `json:"quote"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

type summaryResponse struct {
	QuoteSummary struct {
		Result []summaryResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

type summaryResult struct {
	Price         *priceModule   `json:"price"`
	SummaryDetail *summaryDetail `json:"summaryDetail"`
	KeyStatistics *keyStatistics `json:"defaultKeyStatistics"`
	AssetProfile  *assetProfile  `json:"assetProfile"`

	IncomeHistory   *statementHistory `json:"incomeStatementHistory"`
	BalanceHistory  *statementHistory `json:"balanceSheetHistory"`
	CashflowHistory *statementHistory `json:"cashflowStatementHistory"`
}

type priceModule struct {
	LongName                   string   `json:"longName"`
	ShortName                  string   `json:"shortName"`
	ExchangeName               string   `json:"exchangeName"`
	Currency                   string   `json:"currency"`
	RegularMarketPrice         rawValue `json:"regularMarketPrice"`
	RegularMarketChange        rawValue `json:"regularMarketChange"`
	RegularMarketChangePercent rawValue `json:"regularMarketChangePercent"`
	RegularMarketOpen          rawValue `json:"regularMarketOpen"`
	RegularMarketDayHigh       rawValue `json:"regularMarketDayHigh"`
	RegularMarketDayLow        rawValue `json:"regularMarketDayLow"`
	RegularMarketVolume        rawValue `json:"regularMarketVolume"`
	RegularMarketPreviousClose rawValue `json:"regularMarketPreviousClose"`
	MarketCap                  rawValue `json:"marketCap"`
}

type summaryDetail struct {
	PreviousClose        rawValue `json:"previousClose"`
	Open                 rawValue `json:"open"`
	DayLow               rawValue `json:"dayLow"`
	DayHigh              rawValue `json:"dayHigh"`
	Volume               rawValue `json:"volume"`
	AverageVolume        rawValue `json:"averageVolume"`
	MarketCap            rawValue `json:"marketCap"`
	TrailingPE           rawValue `json:"trailingPE"`
	ForwardPE            rawValue `json:"forwardPE"`
	DividendYield        rawValue `json:"dividendYield"`
	Beta                 rawValue `json:"beta"`
	FiftyTwoWeekHigh     rawValue `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow      rawValue `json:"fiftyTwoWeekLow"`
	FiftyDayAverage      rawValue `json:"fiftyDayAverage"`
	TwoHundredDayAverage rawValue `json:"twoHundredDayAverage"`
}

type keyStatistics struct {
	ForwardPE   rawValue `json:"forwardPE"`
	TrailingEps rawValue `json:"trailingEps"`
	Beta        rawValue `json:"beta"`
}

type assetProfile struct {
	City                string `json:"city"`
	State               string `json:"state"`
	Country             string `json:"country"`
	Website             string `json:"website"`
	Industry            string `json:"industry"`
	Sector              string `json:"sector"`
	LongBusinessSummary string `json:"longBusinessSummary"`
	FullTimeEmployees   *int64 `json:"fullTimeEmployees"`
}

// rawValue decodes Yahoo's {"raw": 1.5, "fmt": "1.50"} wrapper. An empty
// object, null, or missing key leaves Raw nil. Bare numbers are accepted too.
type rawValue struct {
	Raw *float64
}

func (v *rawValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] != '{' {
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		v.Raw = &f
		return nil
	}
	var obj struct {
		Raw *float64 `json:"raw"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	v.Raw = obj.Raw
	return nil
}
