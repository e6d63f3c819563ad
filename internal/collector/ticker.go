package collector

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/newthinker/finrag/internal/core"
)

// validTicker matches symbols like AAPL, BRK-B, 0700.HK, ^GSPC, GC=F
var validTicker = regexp.MustCompile(`^\^?[A-Z0-9]{1,10}([.\-=][A-Z0-9]{1,4})?$`)

// NormalizeTicker trims and uppercases ticker and checks its format.
func NormalizeTicker(ticker string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "" {
		return "", core.WrapError(core.ErrInvalidSymbol, fmt.Errorf("ticker cannot be empty"))
	}
	if len(t) > 20 {
		return "", core.WrapError(core.ErrInvalidSymbol, fmt.Errorf("ticker too long: %s", t))
	}
	if !validTicker.MatchString(t) {
		return "", core.WrapError(core.ErrInvalidSymbol, fmt.Errorf("invalid ticker format: %s", t))
	}
	return t, nil
}
