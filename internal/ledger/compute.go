package ledger

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)

	// Interest below one unit of currency is not credited.
	interestFloor = decimal.NewFromInt(1)
)

// Balance returns the sum of all movements. An empty history sums to zero.
func Balance(acc Account) decimal.Decimal {
	total := decimal.Zero
	for _, mv := range acc.Movements {
		total = total.Add(mv.Amount)
	}
	return total
}

// TotalIn sums the deposits.
func TotalIn(acc Account) decimal.Decimal {
	total := decimal.Zero
	for _, mv := range acc.Movements {
		if mv.Amount.IsPositive() {
			total = total.Add(mv.Amount)
		}
	}
	return total
}

// TotalOut returns the combined withdrawals as a positive number.
func TotalOut(acc Account) decimal.Decimal {
	total := decimal.Zero
	for _, mv := range acc.Movements {
		if mv.Amount.IsNegative() {
			total = total.Add(mv.Amount)
		}
	}
	return total.Abs()
}

// TotalInterest computes per-deposit interest at the account rate and sums
// everything that clears the one-unit floor.
func TotalInterest(acc Account) decimal.Decimal {
	total := decimal.Zero
	for _, mv := range acc.Movements {
		if !mv.Amount.IsPositive() {
			continue
		}
		interest := mv.Amount.Mul(acc.InterestRate).Div(hundred)
		if interest.LessThan(interestFloor) {
			continue
		}
		total = total.Add(interest)
	}
	return total
}

// Describe classifies the movement at index i.
func Describe(acc Account, i int) (Descriptor, error) {
	if i < 0 || i >= len(acc.Movements) {
		return Descriptor{}, ErrNoMovement
	}
	mv := acc.Movements[i]
	kind := KindWithdrawal
	if mv.Amount.IsPositive() {
		kind = KindDeposit
	}
	return Descriptor{Kind: kind, Amount: mv.Amount, At: mv.At}, nil
}

// SortedIndices returns a stable ascending-by-amount permutation of movement
// indices. The stored sequence is left untouched; callers render from the
// returned order.
func SortedIndices(acc Account) []int {
	idx := make([]int, len(acc.Movements))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return acc.Movements[idx[a]].Amount.LessThan(acc.Movements[idx[b]].Amount)
	})
	return idx
}

// DeriveUsername builds the login name from the lowercase initials of the
// owner's name parts ("Steven Thomas Williams" -> "stw").
func DeriveUsername(owner string) string {
	var b strings.Builder
	for _, part := range strings.Fields(strings.ToLower(owner)) {
		r, _ := utf8.DecodeRuneInString(part)
		b.WriteRune(r)
	}
	return b.String()
}
