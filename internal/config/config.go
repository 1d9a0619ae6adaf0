package config

import (
	"os"
	"strconv"
	"time"
)

// Config collects the runtime settings. Every field has a demo-friendly
// default; BANKLET_* environment variables override.
type Config struct {
	Addr           string
	SessionSeconds int           // inactivity budget before forced logout
	TickInterval   time.Duration // countdown cadence
	LoanDelay      time.Duration // modeled bank processing latency
	AccountsFile   string        // YAML provisioning file; empty = demo seed
	RateBurst      int
	RatePerSecond  int
}

// FromEnv reads the configuration from the environment.
func FromEnv() Config {
	cfg := Config{
		Addr:           ":8080",
		SessionSeconds: 1200,
		TickInterval:   time.Second,
		LoanDelay:      2500 * time.Millisecond,
		RateBurst:      20,
		RatePerSecond:  10,
	}
	if v := os.Getenv("BANKLET_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v, err := strconv.Atoi(os.Getenv("BANKLET_SESSION_SECONDS")); err == nil && v > 0 {
		cfg.SessionSeconds = v
	}
	if v, err := time.ParseDuration(os.Getenv("BANKLET_LOAN_DELAY")); err == nil && v > 0 {
		cfg.LoanDelay = v
	}
	if v := os.Getenv("BANKLET_ACCOUNTS_FILE"); v != "" {
		cfg.AccountsFile = v
	}
	if v, err := strconv.Atoi(os.Getenv("BANKLET_RATE_BURST")); err == nil && v > 0 {
		cfg.RateBurst = v
	}
	if v, err := strconv.Atoi(os.Getenv("BANKLET_RATE_PER_SECOND")); err == nil && v > 0 {
		cfg.RatePerSecond = v
	}
	return cfg
}
