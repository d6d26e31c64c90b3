package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"virtual-bank/internal/currency"
)

var (
	MaxInitialBalance         = decimal.NewFromInt(1_000_000)
	DefaultDailyTransferLimit = decimal.NewFromInt(100_000)
)

const (
	DepositDescription    = "Cash Deposit"
	WithdrawalDescription = "Cash Withdrawal"
	TransferDescription   = "Inter-account Transfer"
)

// Limits are operator policy knobs. Zero values disable the limit.
type Limits struct {
	MaxDeposit decimal.Decimal
}

// Env supplies identity, time and policy to the ledger operations so they
// stay deterministic under test.
type Env struct {
	Now      func() time.Time
	NewID    func() string
	Currency string
	Limits   Limits
}

func DefaultEnv() Env {
	return Env{
		Now:      time.Now,
		NewID:    uuid.NewString,
		Currency: currency.Default,
	}
}

func (e Env) currency() string {
	if e.Currency == "" {
		return currency.Default
	}
	return e.Currency
}
