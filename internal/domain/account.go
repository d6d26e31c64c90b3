package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type AccountKind string

const (
	AccountKindSavings    AccountKind = "savings"
	AccountKindChecking   AccountKind = "checking"
	AccountKindInvestment AccountKind = "investment"
)

var interestRates = map[AccountKind]decimal.Decimal{
	AccountKindSavings:    decimal.RequireFromString("4.5"),
	AccountKindChecking:   decimal.RequireFromString("0.5"),
	AccountKindInvestment: decimal.RequireFromString("7.0"),
}

func ParseAccountKind(s string) (AccountKind, error) {
	kind := AccountKind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := interestRates[kind]; !ok {
		return "", fmt.Errorf("unknown account kind %q", s)
	}
	return kind, nil
}

func (k *AccountKind) UnmarshalText(text []byte) error {
	kind, err := ParseAccountKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

func (k AccountKind) known() bool {
	_, ok := interestRates[k]
	return ok
}

// InterestRate returns the annual rate, in percent, fixed for the kind.
func (k AccountKind) InterestRate() decimal.Decimal {
	return interestRates[k]
}

type Account struct {
	ID                 string          `json:"id"`
	OwnerID            string          `json:"owner_id"`
	AccountNumber      string          `json:"account_number"`
	Kind               AccountKind     `json:"account_kind"`
	DisplayName        string          `json:"display_name"`
	Balance            decimal.Decimal `json:"balance"`
	OpeningBalance     decimal.Decimal `json:"opening_balance"`
	Currency           string          `json:"currency"`
	InterestRate       decimal.Decimal `json:"interest_rate"`
	DailyTransferLimit decimal.Decimal `json:"daily_transfer_limit"`
	IsActive           bool            `json:"is_active"`
	CreatedAt          time.Time       `json:"created_at"`
}

// Validate checks the invariants every stored account must satisfy.
func (a Account) Validate() error {
	switch {
	case a.ID == "":
		return fmt.Errorf("account: missing id")
	case strings.TrimSpace(a.DisplayName) == "":
		return fmt.Errorf("account %s: missing display name", a.ID)
	case !a.Kind.known():
		return fmt.Errorf("account %s: unknown account kind %q", a.ID, a.Kind)
	case !a.InterestRate.Equal(a.Kind.InterestRate()):
		return fmt.Errorf("account %s: interest rate %s does not match %s", a.ID, a.InterestRate, a.Kind)
	case a.Balance.IsNegative():
		return fmt.Errorf("account %s: negative balance %s", a.ID, a.Balance)
	case a.OpeningBalance.IsNegative():
		return fmt.Errorf("account %s: negative opening balance %s", a.ID, a.OpeningBalance)
	case !a.DailyTransferLimit.IsPositive():
		return fmt.Errorf("account %s: transfer limit must be positive", a.ID)
	case a.CreatedAt.IsZero():
		return fmt.Errorf("account %s: missing creation time", a.ID)
	}
	return nil
}

// FindAccount returns the index of the account with the given id, or -1.
func FindAccount(accounts []Account, id string) int {
	for i := range accounts {
		if accounts[i].ID == id {
			return i
		}
	}
	return -1
}
