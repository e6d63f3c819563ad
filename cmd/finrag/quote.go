package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/newthinker/finrag/internal/collector/yahoo"
	"github.com/newthinker/finrag/internal/core"
	"github.com/newthinker/finrag/internal/quote"
	"github.com/spf13/cobra"
)

var (
	includeNews     bool
	historyPeriod   string
	historyInterval string
)

var quoteCmd = &cobra.Command{
	Use:   "quote TICKER",
	Short: "Fetch a quote using the provider fallback chain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		q, err := s.app.Aggregator().GetComprehensiveQuote(s.ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(q)
	},
}

var contextCmd = &cobra.Command{
	Use:   "context TICKER",
	Short: "Render the LLM context block for a ticker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		fmt.Println(s.app.Formatter().FormatForContext(s.ctx, args[0], includeNews))
		return nil
	},
}

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Show the major US market indices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		overview := s.app.Aggregator().GetMarketOverview(s.ctx)
		for _, idx := range quote.Indices {
			snap, ok := overview[idx.Name]
			if !ok || snap.Price == nil {
				fmt.Printf("%-14s unavailable\n", idx.Name)
				continue
			}
			line := fmt.Sprintf("%-14s %12.2f", idx.Name, *snap.Price)
			if snap.Change != nil {
				line += fmt.Sprintf("  %+.2f", *snap.Change)
			}
			if snap.ChangePercent != nil {
				line += fmt.Sprintf(" (%+.2f%%)", *snap.ChangePercent)
			}
			fmt.Println(line)
		}
		return nil
	},
}

var cryptoCmd = &cobra.Command{
	Use:   "crypto SYMBOL",
	Short: "Fetch a crypto quote from CoinGecko",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		q, err := s.app.Crypto(s.ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(q)
	},
}

var newsCmd = &cobra.Command{
	Use:   "news TICKER",
	Short: "List recent company news",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		items, err := s.app.News(s.ctx, args[0])
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("no recent news")
			return nil
		}
		for i, item := range items {
			fmt.Printf("%2d. %s (%s)\n", i+1, item.Headline, item.Source)
			if item.URL != "" {
				fmt.Printf("    %s\n", item.URL)
			}
		}
		return nil
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile TICKER",
	Short: "Show company profile and listing details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		p, err := s.app.Profile(s.ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s)\n", orDash(p.Name), p.Ticker)
		fmt.Printf("  Sector:       %s\n", orDash(p.Sector))
		fmt.Printf("  Industry:     %s\n", orDash(p.Industry))
		fmt.Printf("  Exchange:     %s\n", orDash(p.Exchange))
		fmt.Printf("  Currency:     %s\n", orDash(p.Currency))
		fmt.Printf("  Headquarters: %s\n", orDash(p.Headquarters()))
		fmt.Printf("  Website:      %s\n", orDash(p.Website))
		employees := "-"
		if p.Employees != nil {
			employees = humanize.Comma(*p.Employees)
		}
		fmt.Printf("  Employees:    %s\n", employees)
		if p.Description != "" {
			fmt.Printf("\n%s\n", p.Description)
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history TICKER",
	Short: "Print OHLCV price history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		bars, err := s.app.History(s.ctx, args[0], historyPeriod, historyInterval)
		if err != nil {
			return err
		}
		if len(bars) == 0 {
			fmt.Println("no price history")
			return nil
		}
		fmt.Printf("%-20s %10s %10s %10s %10s %14s\n", "Time", "Open", "High", "Low", "Close", "Volume")
		for _, b := range bars {
			fmt.Printf("%-20s %10.2f %10.2f %10.2f %10.2f %14s\n",
				b.Time.Format("2006-01-02 15:04"), b.Open, b.High, b.Low, b.Close, humanize.Comma(b.Volume))
		}
		return nil
	},
}

var financialsCmd = &cobra.Command{
	Use:   "financials TICKER",
	Short: "Print annual income, balance sheet and cash flow statements",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		fs, err := s.app.Financials(s.ctx, args[0])
		if err != nil {
			return err
		}
		printStatement("Income Statement", fs.IncomeStatement)
		printStatement("Balance Sheet", fs.BalanceSheet)
		printStatement("Cash Flow", fs.CashFlow)
		return nil
	},
}

func printStatement(title string, periods []core.StatementPeriod) {
	fmt.Printf("%s\n%s\n", title, strings.Repeat("=", len(title)))
	if len(periods) == 0 {
		fmt.Println("  not reported")
		fmt.Println()
		return
	}
	for _, p := range periods {
		fmt.Printf("  %s\n", p.EndDate.Format("2006-01-02"))
		names := make([]string, 0, len(p.Items))
		for name := range p.Items {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("    %-36s %s\n", name, humanize.Commaf(p.Items[name]))
		}
	}
	fmt.Println()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	contextCmd.Flags().BoolVar(&includeNews, "news", false, "include recent news headlines")
	historyCmd.Flags().StringVar(&historyPeriod, "period", "1mo", "lookback period (1d, 5d, 1mo, 3mo, 6mo, 1y, 2y, 5y, 10y, ytd, max)")
	historyCmd.Flags().StringVar(&historyInterval, "interval", "1d",
		"bar interval ("+strings.Join(yahoo.Intervals, ", ")+")")

	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(overviewCmd)
	rootCmd.AddCommand(cryptoCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(financialsCmd)
}
