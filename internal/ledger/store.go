package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"banklet.org/internal/ids"
)

// Store is the in-memory account collection, keyed by derived username.
// Every mutation runs inside a single critical section so concurrent callers
// never observe a half-applied operation.
type Store struct {
	mu    sync.RWMutex
	accts map[string]*Account
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{accts: make(map[string]*Account)}
}

// Provision derives usernames and installs the accounts. A duplicate derived
// username aborts the whole batch with nothing installed.
func (s *Store) Provision(seeds []Seed) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make(map[string]*Account, len(seeds))
	for _, sd := range seeds {
		username := DeriveUsername(sd.Owner)
		if username == "" {
			return ErrInvalidOwner
		}
		if _, ok := staged[username]; ok {
			return ErrDuplicateUsername
		}
		if _, ok := s.accts[username]; ok {
			return ErrDuplicateUsername
		}
		acc := &Account{
			Owner:        sd.Owner,
			Username:     username,
			PIN:          sd.PIN,
			Currency:     sd.Currency,
			Locale:       sd.Locale,
			InterestRate: sd.InterestRate,
			Movements:    append([]Movement(nil), sd.Movements...),
		}
		for i := range acc.Movements {
			if acc.Movements[i].ID == "" {
				acc.Movements[i].ID = ids.NewAt(acc.Movements[i].At)
			}
		}
		staged[username] = acc
	}
	for username, acc := range staged {
		s.accts[username] = acc
	}
	return nil
}

// Lookup returns a deep copy of the account; callers can inspect and render
// it without racing store mutations.
func (s *Store) Lookup(username string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accts[username]
	if !ok {
		return Account{}, ErrNotFound
	}
	return copyAccount(acc), nil
}

// Transfer moves amount between two accounts: -amount on the sender,
// +amount on the recipient, one shared timestamp, both sides or neither.
func (s *Store) Transfer(from, to string, amount decimal.Decimal, at time.Time) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if from == to {
		return ErrSelfTransfer
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sender, ok := s.accts[from]
	if !ok {
		return ErrNotFound
	}
	recipient, ok := s.accts[to]
	if !ok {
		return ErrNotFound
	}
	if Balance(*sender).LessThan(amount) {
		return ErrInsufficientFunds
	}

	sender.Movements = append(sender.Movements, Movement{
		ID:     ids.New(),
		Amount: amount.Neg(),
		At:     at,
	})
	recipient.Movements = append(recipient.Movements, Movement{
		ID:     ids.New(),
		Amount: amount,
		At:     at,
	})
	return nil
}

// Credit appends a single positive movement (loan disbursement).
func (s *Store) Credit(username string, amount decimal.Decimal, at time.Time) (Movement, error) {
	if !amount.IsPositive() {
		return Movement{}, ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accts[username]
	if !ok {
		return Movement{}, ErrNotFound
	}
	mv := Movement{ID: ids.New(), Amount: amount, At: at}
	acc.Movements = append(acc.Movements, mv)
	return mv, nil
}

// Remove deletes the account. Deletion is immediate and irreversible.
func (s *Store) Remove(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accts[username]; !ok {
		return ErrNotFound
	}
	delete(s.accts, username)
	return nil
}

// Usernames lists the provisioned usernames in sorted order.
func (s *Store) Usernames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.accts))
	for username := range s.accts {
		out = append(out, username)
	}
	sort.Strings(out)
	return out
}

// Len reports the number of accounts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accts)
}

func copyAccount(acc *Account) Account {
	out := *acc
	out.Movements = append([]Movement(nil), acc.Movements...)
	return out
}
