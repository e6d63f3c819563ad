package core

import (
	"strings"
	"time"
)

// Source names the provider a record came from.
type Source string

const (
	SourceYahoo     Source = "Yahoo Finance"
	SourceFinnhub   Source = "Finnhub"
	SourceFMP       Source = "Financial Modeling Prep"
	SourceCoinGecko Source = "CoinGecko"
)

// Quote is a provider-agnostic price snapshot.
// Nil numeric fields were not reported by the provider; zero is a real value.
type Quote struct {
	Ticker string

	Price         *float64
	PreviousClose *float64
	Open          *float64
	DayHigh       *float64
	DayLow        *float64
	Volume        *float64
	AvgVolume     *float64
	MarketCap     *float64
	Change        *float64
	ChangePercent *float64

	PERatio              *float64
	ForwardPE            *float64
	EPS                  *float64
	DividendYield        *float64
	Beta                 *float64
	FiftyTwoWeekHigh     *float64
	FiftyTwoWeekLow      *float64
	FiftyDayAverage      *float64
	TwoHundredDayAverage *float64

	Time   time.Time
	Source Source
}

// Timestamp returns the quote time in ISO-8601 form.
func (q Quote) Timestamp() string {
	return q.Time.Format(time.RFC3339)
}

// CompanyProfile describes the company behind a ticker.
type CompanyProfile struct {
	Ticker      string
	Name        string
	Sector      string
	Industry    string
	Description string
	Website     string
	City        string
	State       string
	Country     string
	Exchange    string
	Currency    string
	Employees   *int64
	Source      Source
}

// Headquarters joins the non-empty location fields.
func (p CompanyProfile) Headquarters() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.City, p.State, p.Country} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// OHLCV is one bar of price history.
type OHLCV struct {
	Ticker   string
	Interval string // "1d", "1wk", "1h"
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   int64
	Time     time.Time
}

// StatementPeriod is one fiscal period of a financial statement. Items maps
// line names such as "totalRevenue" to their reported values.
type StatementPeriod struct {
	EndDate time.Time
	Items   map[string]float64
}

// FinancialStatements holds annual statements, most recent period first.
type FinancialStatements struct {
	Ticker          string
	IncomeStatement []StatementPeriod
	BalanceSheet    []StatementPeriod
	CashFlow        []StatementPeriod
	Source          Source
}

// NewsItem is a single headline for a ticker.
type NewsItem struct {
	Headline    string
	Summary     string
	Source      string
	URL         string
	PublishedAt time.Time
}

// IndexSnapshot is the reduced quote shown in a market overview.
type IndexSnapshot struct {
	Price         *float64
	Change        *float64
	ChangePercent *float64
}

// ChunkMetadata locates a chunk inside its source document.
type ChunkMetadata struct {
	Source      string `json:"source"`
	ChunkID     int    `json:"chunk_id"`
	TotalChunks int    `json:"total_chunks"`
	FilePath    string `json:"file_path"`
}

// Chunk is a retrieval-ready text segment.
type Chunk struct {
	ID       string        `json:"id"`
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 {
	return &v
}
