package present

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banklet.org/internal/ledger"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCountdown(t *testing.T) {
	assert.Equal(t, "20:00", Countdown(1200))
	assert.Equal(t, "00:09", Countdown(9))
	assert.Equal(t, "01:01", Countdown(61))
	assert.Equal(t, "00:00", Countdown(0))
	assert.Equal(t, "00:00", Countdown(-5))
}

func TestCurrencyRendersSymbolAndDigits(t *testing.T) {
	usd := Currency(dec("1234.56"), "en-US", "USD")
	assert.Contains(t, usd, "$")
	assert.Contains(t, usd, "1")

	eur := Currency(dec("200"), "pt-PT", "EUR")
	assert.Contains(t, eur, "€")

	// Unknown currency code falls back to a plain fixed string.
	assert.Equal(t, "42.00", Currency(dec("42"), "en-US", "???"))

	// Unknown locale still renders.
	assert.NotEmpty(t, Currency(dec("10"), "not-a-locale", "USD"))
}

func TestMovementDate(t *testing.T) {
	now := time.Date(2024, 1, 30, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "Today", MovementDate(now.Add(-2*time.Hour), now, "en-US"))
	assert.Equal(t, "Yesterday", MovementDate(now.AddDate(0, 0, -1), now, "en-US"))
	assert.Equal(t, "4 days ago", MovementDate(now.AddDate(0, 0, -4), now, "en-US"))
	assert.Equal(t, "7 days ago", MovementDate(now.AddDate(0, 0, -7), now, "en-US"))

	old := time.Date(2019, 11, 18, 21, 31, 17, 0, time.UTC)
	assert.Equal(t, "11/18/2019", MovementDate(old, now, "en-US"))
	assert.Equal(t, "18/11/2019", MovementDate(old, now, "pt-PT"))
}

func TestFirstName(t *testing.T) {
	assert.Equal(t, "Jonas", FirstName("Jonas Schmedtmann"))
	assert.Equal(t, "Jessica", FirstName("  Jessica Davis"))
	assert.Equal(t, "", FirstName(""))
}

func TestBuildAccountViewOrdering(t *testing.T) {
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	acc := ledger.Account{
		Owner:        "Jonas Schmedtmann",
		Username:     "js",
		Currency:     "EUR",
		Locale:       "pt-PT",
		InterestRate: dec("1.2"),
		Movements: []ledger.Movement{
			{ID: "m1", Amount: dec("200"), At: now.AddDate(0, 0, -30)},
			{ID: "m2", Amount: dec("-306.5"), At: now.AddDate(0, 0, -20)},
			{ID: "m3", Amount: dec("25"), At: now.AddDate(0, 0, -10)},
		},
	}

	view := BuildAccountView(acc, false, now)
	assert.Equal(t, "Welcome back, Jonas", view.Welcome)
	require.Len(t, view.Movements, 3)
	assert.Equal(t, []string{"m3", "m2", "m1"}, ids(view.Movements), "newest first")
	assert.Equal(t, "deposit", view.Movements[0].Kind)
	assert.Equal(t, "withdrawal", view.Movements[1].Kind)
	assert.False(t, view.Sorted)

	sorted := BuildAccountView(acc, true, now)
	assert.Equal(t, []string{"m2", "m3", "m1"}, ids(sorted.Movements), "ascending by amount")
	assert.True(t, sorted.Sorted)

	// Building a sorted view twice changes nothing: the snapshot is the
	// source of truth and is never reordered.
	again := BuildAccountView(acc, true, now)
	assert.Equal(t, ids(sorted.Movements), ids(again.Movements))
	assert.Equal(t, "m1", acc.Movements[0].ID)

	assert.Equal(t, "-81.5", view.Balance)
	assert.Equal(t, "200", view.Movements[2].Amount)
	assert.True(t, strings.Contains(view.BalanceDisplay, "€") || view.BalanceDisplay != "")
}

func ids(mvs []MovementView) []string {
	out := make([]string, len(mvs))
	for i, mv := range mvs {
		out[i] = mv.ID
	}
	return out
}
