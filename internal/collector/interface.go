package collector

import (
	"context"

	"github.com/newthinker/finrag/internal/core"
)

// MaxNewsItems caps the news returned by a single FetchNews call.
const MaxNewsItems = 10

// QuoteProvider translates one external API into canonical quotes.
// Implementations never panic; every failure is returned as an error.
type QuoteProvider interface {
	// Name returns the provider identifier used in logs and metrics
	Name() string
	// Source returns the provenance tag stamped on quotes
	Source() core.Source

	FetchQuote(ctx context.Context, ticker string) (*core.Quote, error)
}

// NewsProvider returns recent headlines for a ticker.
// Failures and missing credentials yield an empty slice, never an error.
type NewsProvider interface {
	Name() string
	FetchNews(ctx context.Context, ticker string, daysBack int) []core.NewsItem
}

// ProfileProvider returns company details for a ticker.
type ProfileProvider interface {
	FetchProfile(ctx context.Context, ticker string) (*core.CompanyProfile, error)
}

// Gated is implemented by providers that need a credential.
// Unconfigured providers are skipped by the aggregator.
type Gated interface {
	Configured() bool
}

// IsConfigured reports whether p can be called. Providers without a gate are
// always configured.
func IsConfigured(p any) bool {
	if g, ok := p.(Gated); ok {
		return g.Configured()
	}
	return true
}
