package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/newthinker/finrag/internal/collector"
	"github.com/newthinker/finrag/internal/core"
)

const financialModules = "incomeStatementHistory,balanceSheetHistory,cashflowStatementHistory"

// FetchFinancials fetches the annual income statement, balance sheet and
// cash flow statement. Yahoo reports a handful of line items per period.
func (y *Yahoo) FetchFinancials(ctx context.Context, ticker string) (*core.FinancialStatements, error) {
	symbol, err := collector.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}

	r, err := y.quoteSummary(ctx, symbol, financialModules)
	if err != nil {
		return nil, err
	}

	fs := &core.FinancialStatements{
		Ticker:          symbol,
		IncomeStatement: r.IncomeHistory.periods(),
		BalanceSheet:    r.BalanceHistory.periods(),
		CashFlow:        r.CashflowHistory.periods(),
		Source:          core.SourceYahoo,
	}
	if len(fs.IncomeStatement)+len(fs.BalanceSheet)+len(fs.CashFlow) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no financial statements for symbol: %s", symbol))
	}
	return fs, nil
}

// statementHistory covers all three statement modules; each uses its own
// key for the period list.
type statementHistory struct {
	Income   []map[string]json.RawMessage `json:"incomeStatementHistory"`
	Balance  []map[string]json.RawMessage `json:"balanceSheetStatements"`
	Cashflow []map[string]json.RawMessage `json:"cashflowStatements"`
}

func (h *statementHistory) periods() []core.StatementPeriod {
	if h == nil {
		return nil
	}
	rows := h.Income
	if len(rows) == 0 {
		rows = h.Balance
	}
	if len(rows) == 0 {
		rows = h.Cashflow
	}

	out := make([]core.StatementPeriod, 0, len(rows))
	for _, row := range rows {
		period := core.StatementPeriod{Items: make(map[string]float64, len(row))}
		for key, raw := range row {
			var v rawValue
			if json.Unmarshal(raw, &v) != nil || v.Raw == nil {
				continue
			}
			switch key {
			case "maxAge":
			case "endDate":
				period.EndDate = time.Unix(int64(*v.Raw), 0).UTC()
			default:
				period.Items[key] = *v.Raw
			}
		}
		if period.EndDate.IsZero() {
			continue
		}
		out = append(out, period)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.After(out[j].EndDate) })
	return out
}
