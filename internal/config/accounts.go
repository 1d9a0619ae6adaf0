package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"banklet.org/internal/ledger"
)

// accountSeed mirrors one entry of the YAML provisioning file.
type accountSeed struct {
	Owner        string         `yaml:"owner"`
	PIN          int            `yaml:"pin"`
	Currency     string         `yaml:"currency"`
	Locale       string         `yaml:"locale"`
	InterestRate string         `yaml:"interest_rate"`
	Movements    []movementSeed `yaml:"movements"`
}

type movementSeed struct {
	Amount string    `yaml:"amount"`
	Date   time.Time `yaml:"date"`
}

// LoadAccounts reads account seeds from the provisioning file, or returns
// the built-in demo seed when path is empty.
func LoadAccounts(path string) ([]ledger.Seed, error) {
	if path == "" {
		return DemoAccounts(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading accounts file: %w", err)
	}
	var seeds []accountSeed
	if err := yaml.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("parsing accounts file: %w", err)
	}

	out := make([]ledger.Seed, 0, len(seeds))
	for i, sd := range seeds {
		rate, err := decimal.NewFromString(sd.InterestRate)
		if err != nil {
			return nil, fmt.Errorf("account %d (%s): interest_rate: %w", i, sd.Owner, err)
		}
		seed := ledger.Seed{
			Owner:        sd.Owner,
			PIN:          sd.PIN,
			Currency:     sd.Currency,
			Locale:       sd.Locale,
			InterestRate: rate,
		}
		for j, mv := range sd.Movements {
			amount, err := decimal.NewFromString(mv.Amount)
			if err != nil {
				return nil, fmt.Errorf("account %d (%s): movement %d: %w", i, sd.Owner, j, err)
			}
			seed.Movements = append(seed.Movements, ledger.Movement{Amount: amount, At: mv.Date})
		}
		out = append(out, seed)
	}
	return out, nil
}

// DemoAccounts reproduces the two demo customers of the reference data set.
func DemoAccounts() []ledger.Seed {
	return []ledger.Seed{
		{
			Owner:        "Jonas Schmedtmann",
			PIN:          1111,
			Currency:     "EUR",
			Locale:       "pt-PT",
			InterestRate: decimal.RequireFromString("1.2"),
			Movements: demoMovements(
				[]string{"200", "455.23", "-306.5", "25000", "-642.21", "-133.9", "79.97", "1300"},
				[]string{
					"2019-11-18T21:31:17Z",
					"2019-12-23T07:42:02Z",
					"2020-01-28T09:15:04Z",
					"2020-04-01T10:17:24Z",
					"2020-05-08T14:11:59Z",
					"2020-01-06T17:01:17Z",
					"2024-01-20T23:36:17Z",
					"2024-01-30T10:51:36Z",
				},
			),
		},
		{
			Owner:        "Jessica Davis",
			PIN:          2222,
			Currency:     "USD",
			Locale:       "en-US",
			InterestRate: decimal.RequireFromString("1.5"),
			Movements: demoMovements(
				[]string{"5000", "3400", "-150", "-790", "-3210", "-1000", "8500", "-30"},
				[]string{
					"2019-11-01T13:15:33Z",
					"2019-11-30T09:48:16Z",
					"2019-12-25T06:04:23Z",
					"2020-01-25T14:18:46Z",
					"2020-02-05T16:33:06Z",
					"2020-04-10T14:43:26Z",
					"2020-06-25T18:49:59Z",
					"2020-07-26T12:01:20Z",
				},
			),
		},
	}
}

func demoMovements(amounts, dates []string) []ledger.Movement {
	out := make([]ledger.Movement, len(amounts))
	for i := range amounts {
		at, err := time.Parse(time.RFC3339, dates[i])
		if err != nil {
			panic(fmt.Sprintf("demo seed date %q: %v", dates[i], err))
		}
		out[i] = ledger.Movement{
			Amount: decimal.RequireFromString(amounts[i]),
			At:     at,
		}
	}
	return out
}
