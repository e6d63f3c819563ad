package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/newthinker/finrag/internal/collector"
	"github.com/newthinker/finrag/internal/core"
)

// Intervals accepted by the chart endpoint.
var Intervals = []string{"1m", "2m", "5m", "15m", "30m", "60m", "90m", "1h", "1d", "5d", "1wk", "1mo", "3mo"}

// FetchHistory fetches OHLCV bars between start and end. Bars with a missing
// open, high, low or close are skipped.
func (y *Yahoo) FetchHistory(ctx context.Context, ticker string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	symbol, err := collector.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	if !validInterval(interval) {
		return nil, core.WrapError(core.ErrInvalidRange, fmt.Errorf("unsupported interval: %s", interval))
	}
	if !start.Before(end) {
		return nil, core.WrapError(core.ErrInvalidRange, fmt.Errorf("start %s is not before end %s",
			start.Format(time.DateOnly), end.Format(time.DateOnly)))
	}

	r, err := y.chart(ctx, symbol, url.Values{
		"interval": {interval},
		"period1":  {strconv.FormatInt(start.Unix(), 10)},
		"period2":  {strconv.FormatInt(end.Unix(), 10)},
	})
	if err != nil {
		return nil, err
	}
	if len(r.Indicators.Quote) == 0 {
		return []core.OHLCV{}, nil
	}

	quotes := r.Indicators.Quote[0]
	data := make([]core.OHLCV, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		open, high, low, closing := at(quotes.Open, i), at(quotes.High, i), at(quotes.Low, i), at(quotes.Close, i)
		if open == nil || high == nil || low == nil || closing == nil {
			continue
		}
		bar := core.OHLCV{
			Ticker:   symbol,
			Interval: interval,
			Open:     *open,
			High:     *high,
			Low:      *low,
			Close:    *closing,
			Time:     time.Unix(ts, 0).UTC(),
		}
		if v := at(quotes.Volume, i); v != nil {
			bar.Volume = int64(*v)
		}
		data = append(data, bar)
	}
	return data, nil
}

// PeriodStart resolves a lookback period such as "5d", "1mo", "1y", "ytd" or
// "max" to its start time relative to now.
func PeriodStart(period string, now time.Time) (time.Time, error) {
	switch period {
	case "1d":
		return now.AddDate(0, 0, -1), nil
	case "5d":
		return now.AddDate(0, 0, -5), nil
	case "1mo":
		return now.AddDate(0, -1, 0), nil
	case "3mo":
		return now.AddDate(0, -3, 0), nil
	case "6mo":
		return now.AddDate(0, -6, 0), nil
	case "1y":
		return now.AddDate(-1, 0, 0), nil
	case "2y":
		return now.AddDate(-2, 0, 0), nil
	case "5y":
		return now.AddDate(-5, 0, 0), nil
	case "10y":
		return now.AddDate(-10, 0, 0), nil
	case "ytd":
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), nil
	case "max":
		return time.Unix(0, 0), nil
	}
	return time.Time{}, core.WrapError(core.ErrInvalidRange, fmt.Errorf("unsupported period: %s", period))
}

func validInterval(interval string) bool {
	for _, v := range Intervals {
		if v == interval {
			return true
		}
	}
	return false
}

func at(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}
