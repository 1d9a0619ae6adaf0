package present

import (
	"fmt"
	"time"

	"banklet.org/internal/ledger"
)

// MovementView is one rendered movement row. Amount is the raw decimal,
// Display the locale-formatted currency string.
type MovementView struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Amount  string `json:"amount"`
	Display string `json:"display"`
	Date    string `json:"date"`
}

// AccountView carries everything the sink renders for a logged-in account.
// Each total comes twice: raw decimal for clients doing arithmetic, and a
// locale-formatted display string.
type AccountView struct {
	Welcome         string         `json:"welcome"`
	Owner           string         `json:"owner"`
	Username        string         `json:"username"`
	Currency        string         `json:"currency"`
	Locale          string         `json:"locale"`
	Balance         string         `json:"balance"`
	BalanceDisplay  string         `json:"balance_display"`
	In              string         `json:"in"`
	InDisplay       string         `json:"in_display"`
	Out             string         `json:"out"`
	OutDisplay      string         `json:"out_display"`
	Interest        string         `json:"interest"`
	InterestDisplay string         `json:"interest_display"`
	Sorted          bool           `json:"sorted"`
	Movements       []MovementView `json:"movements"`
}

// BuildAccountView assembles display values from a ledger snapshot.
// Movements come newest-first, or ascending by amount when sorted. The
// snapshot is read only; display order never touches the stored sequence.
func BuildAccountView(acc ledger.Account, sorted bool, now time.Time) AccountView {
	var order []int
	if sorted {
		order = ledger.SortedIndices(acc)
	} else {
		order = make([]int, len(acc.Movements))
		for i := range order {
			order[i] = len(acc.Movements) - 1 - i
		}
	}

	movements := make([]MovementView, 0, len(order))
	for _, idx := range order {
		d, err := ledger.Describe(acc, idx)
		if err != nil {
			continue
		}
		movements = append(movements, MovementView{
			ID:      acc.Movements[idx].ID,
			Kind:    string(d.Kind),
			Amount:  d.Amount.String(),
			Display: Currency(d.Amount, acc.Locale, acc.Currency),
			Date:    MovementDate(d.At, now, acc.Locale),
		})
	}

	balance := ledger.Balance(acc)
	in := ledger.TotalIn(acc)
	out := ledger.TotalOut(acc)
	interest := ledger.TotalInterest(acc)

	return AccountView{
		Welcome:         fmt.Sprintf("Welcome back, %s", FirstName(acc.Owner)),
		Owner:           acc.Owner,
		Username:        acc.Username,
		Currency:        acc.Currency,
		Locale:          acc.Locale,
		Balance:         balance.String(),
		BalanceDisplay:  Currency(balance, acc.Locale, acc.Currency),
		In:              in.String(),
		InDisplay:       Currency(in, acc.Locale, acc.Currency),
		Out:             out.String(),
		OutDisplay:      Currency(out, acc.Locale, acc.Currency),
		Interest:        interest.String(),
		InterestDisplay: Currency(interest, acc.Locale, acc.Currency),
		Sorted:          sorted,
		Movements:       movements,
	}
}
