// Package bank is the transaction engine. It owns the single active session
// and runs every mutating operation against the account store; each accepted
// mutation resets the inactivity countdown, publishes a stream event, and
// leaves an audit record.
package bank

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"banklet.org/internal/audit"
	"banklet.org/internal/auth"
	"banklet.org/internal/ids"
	"banklet.org/internal/ledger"
	"banklet.org/internal/obs"
	"banklet.org/internal/present"
	"banklet.org/internal/session"
	"banklet.org/internal/stream"
)

var (
	// ErrAuthFailed covers both unknown user and wrong pin. The two collapse
	// on purpose so failed logins reveal nothing about existing usernames.
	ErrAuthFailed = errors.New("invalid credentials")

	// ErrNoSession means no active session, or a token for somebody else's.
	ErrNoSession = errors.New("no active session")

	// ErrLoanIneligible means the inflow heuristic rejected the request.
	ErrLoanIneligible = errors.New("loan request refused")
)

var ten = decimal.NewFromInt(10)

// Options tunes the engine. Zero values pick the reference behavior.
type Options struct {
	SessionSeconds int           // countdown budget, default 1200
	TickInterval   time.Duration // countdown cadence, default 1s
	LoanDelay      time.Duration // loan processing latency, default 2.5s
	TokenTTL       time.Duration // session token lifetime, default 24h
	Clock          func() time.Time
}

// Service is the transaction engine.
type Service struct {
	store  *ledger.Store
	stream *stream.Stream
	log    *zap.Logger
	timer  *session.Timer

	loanDelay time.Duration
	tokenTTL  time.Duration
	now       func() time.Time

	mu        sync.Mutex
	current   string // username of the active session, "" when logged out
	sessionID string
}

// NewService wires the engine to a provisioned store and an event stream.
func NewService(store *ledger.Store, st *stream.Stream, log *zap.Logger, opts Options) *Service {
	if opts.SessionSeconds <= 0 {
		opts.SessionSeconds = session.DefaultBudget
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.LoanDelay <= 0 {
		opts.LoanDelay = 2500 * time.Millisecond
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Service{
		store:     store,
		stream:    st,
		log:       log,
		loanDelay: opts.LoanDelay,
		tokenTTL:  opts.TokenTTL,
		now:       opts.Clock,
	}
	s.timer = session.New(opts.SessionSeconds, opts.TickInterval, s.handleTick, s.handleExpiry)
	return s
}

// Login authenticates against the store and starts (or replaces) the active
// session. Unknown user and wrong pin produce the same failure.
func (s *Service) Login(ctx context.Context, username string, pin int) (ledger.Account, string, error) {
	acc, err := s.store.Lookup(username)
	if err != nil || acc.PIN != pin {
		obs.ObserveOp("login", false)
		s.log.Info("login rejected", zap.String("username", username))
		return ledger.Account{}, "", ErrAuthFailed
	}

	token, err := auth.GenerateToken(acc.Username, s.tokenTTL)
	if err != nil {
		obs.ObserveOp("login", false)
		return ledger.Account{}, "", err
	}

	s.mu.Lock()
	s.current = acc.Username
	s.sessionID = ids.New()
	sid := s.sessionID
	s.mu.Unlock()

	s.timer.Reset()
	s.publishState(acc.Username, true, "login")
	obs.ObserveOp("login", true)
	_ = audit.LogEvent(ctx, "bank.session.login", map[string]any{
		"username": acc.Username,
		"session":  sid,
	})
	s.log.Info("login", zap.String("username", acc.Username), zap.String("session", sid))
	return acc, token, nil
}

// Logout clears the session and cancels the countdown.
func (s *Service) Logout(ctx context.Context, username string) error {
	if err := s.ensureCurrent(username); err != nil {
		return err
	}
	s.clearSession()
	s.timer.Stop()
	s.publishState(username, false, "logout")
	_ = audit.LogEvent(ctx, "bank.session.logout", map[string]any{"username": username})
	s.log.Info("logout", zap.String("username", username))
	return nil
}

// Transfer moves amount from the session's account to the recipient. All
// preconditions are checked inside the store; any failure leaves both
// accounts untouched.
func (s *Service) Transfer(ctx context.Context, username, to string, amount decimal.Decimal) (ledger.Account, error) {
	if err := s.ensureCurrent(username); err != nil {
		obs.ObserveOp("transfer", false)
		return ledger.Account{}, err
	}

	if err := s.store.Transfer(username, to, amount, s.now().UTC()); err != nil {
		obs.ObserveOp("transfer", false)
		s.log.Info("transfer rejected",
			zap.String("from", username), zap.String("to", to),
			zap.String("amount", amount.String()), zap.Error(err))
		return ledger.Account{}, err
	}

	s.timer.Reset()
	s.stream.Publish(stream.Event{
		Kind:     stream.KindMovement,
		Username: username,
		Amount:   amount.Neg().String(),
		LoggedIn: true,
	})
	obs.ObserveOp("transfer", true)
	_ = audit.LogEvent(ctx, "bank.transfer.execute", map[string]any{
		"from":   username,
		"to":     to,
		"amount": amount.String(),
	})
	s.log.Info("transfer",
		zap.String("from", username), zap.String("to", to),
		zap.String("amount", amount.String()))

	return s.store.Lookup(username)
}

// RequestLoan grants floor(amount) after the modeled processing delay,
// provided some existing movement reaches a tenth of the request. The
// approved amount is returned immediately; the movement lands later.
func (s *Service) RequestLoan(ctx context.Context, username string, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := s.ensureCurrent(username); err != nil {
		obs.ObserveOp("loan", false)
		return decimal.Zero, err
	}

	amount = amount.Floor()
	if !amount.IsPositive() {
		obs.ObserveOp("loan", false)
		return decimal.Zero, ledger.ErrInvalidAmount
	}

	acc, err := s.store.Lookup(username)
	if err != nil {
		obs.ObserveOp("loan", false)
		return decimal.Zero, err
	}
	threshold := amount.Div(ten)
	eligible := false
	for _, mv := range acc.Movements {
		if mv.Amount.GreaterThanOrEqual(threshold) {
			eligible = true
			break
		}
	}
	if !eligible {
		obs.ObserveOp("loan", false)
		s.log.Info("loan rejected",
			zap.String("username", username), zap.String("amount", amount.String()))
		return decimal.Zero, ErrLoanIneligible
	}

	granted := amount
	time.AfterFunc(s.loanDelay, func() { s.completeLoan(username, granted) })
	_ = audit.LogEvent(ctx, "bank.loan.request", map[string]any{
		"username": username,
		"amount":   granted.String(),
	})
	s.log.Info("loan scheduled",
		zap.String("username", username), zap.String("amount", granted.String()))
	return granted, nil
}

// completeLoan lands the approved movement. The request was validated up
// front; by completion time the only precondition that can have changed is
// the account's existence, so a loan against a closed account is dropped.
func (s *Service) completeLoan(username string, amount decimal.Decimal) {
	mv, err := s.store.Credit(username, amount, s.now().UTC())
	if err != nil {
		obs.ObserveOp("loan", false)
		s.log.Warn("loan dropped", zap.String("username", username), zap.Error(err))
		return
	}

	s.mu.Lock()
	active := s.current == username
	s.mu.Unlock()
	if active {
		s.timer.Reset()
	}

	s.stream.Publish(stream.Event{
		Kind:       stream.KindMovement,
		Username:   username,
		MovementID: mv.ID,
		Amount:     amount.String(),
		LoggedIn:   active,
	})
	obs.ObserveOp("loan", true)
	_ = audit.LogEvent(context.Background(), "bank.loan.grant", map[string]any{
		"username": username,
		"amount":   amount.String(),
		"movement": mv.ID,
	})
	s.log.Info("loan granted",
		zap.String("username", username), zap.String("amount", amount.String()))
}

// CloseAccount removes the session's account when the typed-in username and
// pin both match it. On any mismatch nothing changes and the session stays
// active.
func (s *Service) CloseAccount(ctx context.Context, username, confirmUser string, confirmPIN int) error {
	if err := s.ensureCurrent(username); err != nil {
		obs.ObserveOp("close", false)
		return err
	}

	acc, err := s.store.Lookup(username)
	if err != nil {
		obs.ObserveOp("close", false)
		return err
	}
	if confirmUser != acc.Username || confirmPIN != acc.PIN {
		obs.ObserveOp("close", false)
		s.log.Info("close rejected", zap.String("username", username))
		return ErrAuthFailed
	}

	if err := s.store.Remove(username); err != nil {
		obs.ObserveOp("close", false)
		return err
	}

	s.clearSession()
	s.timer.Stop()
	s.publishState(username, false, "closed")
	obs.ObserveOp("close", true)
	_ = audit.LogEvent(ctx, "bank.account.close", map[string]any{"username": username})
	s.log.Info("account closed", zap.String("username", username))
	return nil
}

// Snapshot returns the session account's current state for rendering.
func (s *Service) Snapshot(username string) (ledger.Account, error) {
	if err := s.ensureCurrent(username); err != nil {
		return ledger.Account{}, err
	}
	return s.store.Lookup(username)
}

// Countdown reports the session timer for display.
func (s *Service) Countdown() (session.State, int) {
	return s.timer.Snapshot()
}

// Close shuts the engine down, stopping the countdown goroutine.
func (s *Service) Close() {
	s.clearSession()
	s.timer.Stop()
}

func (s *Service) ensureCurrent(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == "" || s.current != username {
		return ErrNoSession
	}
	return nil
}

func (s *Service) clearSession() {
	s.mu.Lock()
	s.current = ""
	s.sessionID = ""
	s.mu.Unlock()
}

// handleTick runs once per countdown second, off the timer goroutine.
func (s *Service) handleTick(remaining int) {
	obs.SetSessionRemaining(remaining)
	s.stream.Publish(stream.Event{
		Kind:      stream.KindSessionTick,
		Countdown: present.Countdown(remaining),
		LoggedIn:  true,
	})
}

// handleExpiry force-logs-out the session when the countdown hits zero. A
// login that raced the expiry wins: it already reset the timer to Active.
func (s *Service) handleExpiry() {
	if state, _ := s.timer.Snapshot(); state != session.Expired {
		return
	}

	s.mu.Lock()
	username := s.current
	s.current = ""
	s.sessionID = ""
	s.mu.Unlock()

	if username == "" {
		return
	}
	obs.SessionExpired()
	s.publishState(username, false, "expired")
	_ = audit.LogEvent(context.Background(), "bank.session.expire", map[string]any{
		"username": username,
	})
	s.log.Info("session expired", zap.String("username", username))
}

func (s *Service) publishState(username string, loggedIn bool, reason string) {
	s.stream.Publish(stream.Event{
		Kind:     stream.KindSessionState,
		Username: username,
		LoggedIn: loggedIn,
		Reason:   reason,
	})
}
