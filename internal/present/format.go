// Package present turns ledger values into display strings: locale-aware
// currency, relative movement dates, and the countdown clock. The core
// engine computes; consumers of these values only render.
package present

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Currency renders an amount the way the account's locale and currency
// demand. Unknown locales fall back to English, unknown currency codes to a
// plain two-decimal string.
func Currency(amount decimal.Decimal, locale, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return amount.StringFixed(2)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	v, _ := amount.Round(2).Float64()
	return message.NewPrinter(tag).Sprintf("%v", currency.Symbol(unit.Amount(v)))
}

// Countdown renders remaining seconds as MM:SS.
func Countdown(remaining int) string {
	if remaining < 0 {
		remaining = 0
	}
	return fmt.Sprintf("%02d:%02d", remaining/60, remaining%60)
}

// MovementDate mirrors the reference presentation: relative wording inside
// the last week, an absolute date beyond that.
func MovementDate(at, now time.Time, locale string) string {
	days := int(math.Round(now.Sub(at).Hours() / 24))
	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days > 1 && days <= 7:
		return fmt.Sprintf("%d days ago", days)
	}
	return absoluteDate(at, locale)
}

// absoluteDate orders day and month by the locale's region. x/text does not
// localize dates, so this covers the numeric-date convention only.
func absoluteDate(at time.Time, locale string) string {
	if strings.HasPrefix(strings.ToLower(locale), "en-us") {
		return at.Format("1/2/2006")
	}
	return at.Format("02/01/2006")
}

// FirstName returns the leading name part for the welcome label.
func FirstName(owner string) string {
	parts := strings.Fields(owner)
	if len(parts) == 0 {
		return owner
	}
	return parts[0]
}
