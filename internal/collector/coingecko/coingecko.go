package coingecko

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/newthinker/finrag/internal/core"
	"github.com/newthinker/finrag/internal/httpx"
)

const (
	baseURL = "https://api.coingecko.com/api/v3"

	vsCurrency = "usd"
)

// Symbol to CoinGecko ID mapping
var symbolToIDMap = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"BNB":   "binancecoin",
	"SOL":   "solana",
	"XRP":   "ripple",
	"DOGE":  "dogecoin",
	"ADA":   "cardano",
	"AVAX":  "avalanche-2",
	"DOT":   "polkadot",
	"MATIC": "matic-network",
	"LINK":  "chainlink",
	"UNI":   "uniswap",
	"ATOM":  "cosmos",
	"LTC":   "litecoin",
	"ETC":   "ethereum-classic",
	"XLM":   "stellar",
	"ALGO":  "algorand",
	"NEAR":  "near",
	"AAVE":  "aave",
	"ARB":   "arbitrum",
	"OP":    "optimism",
}

var validCoin = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)

// CoinGecko is the keyless crypto price provider.
type CoinGecko struct {
	client  *httpx.Client
	baseURL string
	now     func() time.Time
}

// New creates a new CoinGecko adapter
func New(timeout time.Duration) *CoinGecko {
	return &CoinGecko{
		client:  httpx.New(timeout),
		baseURL: baseURL,
		now:     time.Now,
	}
}

// NewWithBaseURL creates a CoinGecko adapter with custom base URL (for testing)
func NewWithBaseURL(url string, timeout time.Duration) *CoinGecko {
	c := New(timeout)
	c.baseURL = strings.TrimSuffix(url, "/")
	return c
}

func (c *CoinGecko) Name() string {
	return "coingecko"
}

func (c *CoinGecko) Source() core.Source {
	return core.SourceCoinGecko
}

// Close releases the adapter's pooled connections.
func (c *CoinGecko) Close() {
	c.client.Close()
}

// coinID converts a ticker (BTC) or coin id (bitcoin) to a CoinGecko id.
func (c *CoinGecko) coinID(ticker string) string {
	if id, ok := symbolToIDMap[strings.ToUpper(ticker)]; ok {
		return id
	}
	return strings.ToLower(ticker)
}

// FetchQuote fetches the USD price, market cap, 24h volume and 24h change.
func (c *CoinGecko) FetchQuote(ctx context.Context, ticker string) (*core.Quote, error) {
	ticker = strings.TrimSpace(ticker)
	if !validCoin.MatchString(ticker) {
		return nil, core.WrapError(core.ErrInvalidSymbol, fmt.Errorf("invalid coin: %q", ticker))
	}
	id := c.coinID(ticker)

	params := url.Values{
		"ids":                     {id},
		"vs_currencies":           {vsCurrency},
		"include_market_cap":      {"true"},
		"include_24hr_vol":        {"true"},
		"include_24hr_change":     {"true"},
		"include_last_updated_at": {"true"},
	}

	var result map[string]map[string]*float64
	if err := c.client.GetJSON(ctx, c.baseURL+"/simple/price", params, &result); err != nil {
		return nil, err
	}

	coin, ok := result[id]
	if !ok || coin[vsCurrency] == nil {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("crypto %s not found", id))
	}

	return &core.Quote{
		Ticker:        strings.ToUpper(ticker),
		Price:         coin[vsCurrency],
		MarketCap:     coin[vsCurrency+"_market_cap"],
		Volume:        coin[vsCurrency+"_24h_vol"],
		ChangePercent: coin[vsCurrency+"_24h_change"],
		Time:          c.now(),
		Source:        core.SourceCoinGecko,
	}, nil
}
