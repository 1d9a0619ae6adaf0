package ledger

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Movement is one signed ledger entry. Positive amounts are deposits,
// negative amounts are withdrawals. Amount and timestamp travel together,
// so the history can never hold one without the other.
type Movement struct {
	ID     string          `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	At     time.Time       `json:"at"`
}

// Account holds one customer's records. The balance is never stored: it is
// recomputed from the movement history on demand.
type Account struct {
	Owner        string          `json:"owner"`
	Username     string          `json:"username"`
	PIN          int             `json:"-"`
	Currency     string          `json:"currency"` // ISO 4217 code
	Locale       string          `json:"locale"`   // BCP 47 tag
	InterestRate decimal.Decimal `json:"interest_rate"` // percent
	Movements    []Movement      `json:"movements"`
}

// Seed describes one account to provision, before username derivation.
type Seed struct {
	Owner        string
	PIN          int
	Currency     string
	Locale       string
	InterestRate decimal.Decimal
	Movements    []Movement
}

// Kind classifies a movement for display.
type Kind string

const (
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
)

// Descriptor is the presentation-facing view of one movement.
type Descriptor struct {
	Kind   Kind            `json:"kind"`
	Amount decimal.Decimal `json:"amount"`
	At     time.Time       `json:"at"`
}

var (
	ErrNotFound          = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount (must be > 0)")
	ErrSelfTransfer      = errors.New("transfer to own account")
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrInvalidOwner      = errors.New("owner name yields no username")
	ErrNoMovement        = errors.New("no movement at index")
)
