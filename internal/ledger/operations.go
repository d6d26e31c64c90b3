package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"virtual-bank/internal/domain"
	"virtual-bank/internal/errors"
)

var monthsTimesPercent = decimal.NewFromInt(12 * 100)

type TransferResult struct {
	From domain.Account           `json:"from"`
	To   domain.Account           `json:"to"`
	Out  domain.TransactionRecord `json:"out"`
	In   domain.TransactionRecord `json:"in"`
}

func CreateAccount(env Env, ownerID, displayName string, kind domain.AccountKind, initialBalance decimal.Decimal, seq int64) (domain.Account, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return domain.Account{}, errors.ErrValidation.WithDetails("display name is required")
	}
	kind, err := domain.ParseAccountKind(string(kind))
	if err != nil {
		return domain.Account{}, errors.ErrValidation.WithDetails(err.Error())
	}
	if initialBalance.IsNegative() {
		return domain.Account{}, errors.ErrValidation.WithDetails("initial balance cannot be negative")
	}
	if initialBalance.GreaterThan(MaxInitialBalance) {
		return domain.Account{}, errors.ErrValidation.WithDetails(fmt.Sprintf("initial balance cannot exceed %s", MaxInitialBalance))
	}

	number, err := AccountNumber(seq)
	if err != nil {
		return domain.Account{}, errors.ErrValidation.WithDetails(err.Error())
	}

	return domain.Account{
		ID:                 env.NewID(),
		OwnerID:            ownerID,
		AccountNumber:      number,
		Kind:               kind,
		DisplayName:        name,
		Balance:            initialBalance,
		OpeningBalance:     initialBalance,
		Currency:           env.currency(),
		InterestRate:       kind.InterestRate(),
		DailyTransferLimit: DefaultDailyTransferLimit,
		IsActive:           true,
		CreatedAt:          env.Now(),
	}, nil
}

func Deposit(env Env, account domain.Account, amount decimal.Decimal, description string) (domain.Account, domain.TransactionRecord, error) {
	if !amount.IsPositive() {
		return domain.Account{}, domain.TransactionRecord{}, errors.ErrInvalidAmount
	}
	if !account.IsActive {
		return domain.Account{}, domain.TransactionRecord{}, errors.ErrInactiveAccount.WithDetails(account.ID)
	}
	if ceiling := env.Limits.MaxDeposit; ceiling.IsPositive() && amount.GreaterThan(ceiling) {
		return domain.Account{}, domain.TransactionRecord{}, errors.NewAppErrorf(errors.LimitExceeded, "deposit exceeds the maximum of %s", ceiling)
	}

	account.Balance = account.Balance.Add(amount)
	record := newRecord(env, account, domain.RecordDeposit, amount, orDefault(description, DepositDescription), "")
	return account, record, nil
}

func Withdraw(env Env, account domain.Account, amount decimal.Decimal, description string) (domain.Account, domain.TransactionRecord, error) {
	if !amount.IsPositive() {
		return domain.Account{}, domain.TransactionRecord{}, errors.ErrInvalidAmount
	}
	if !account.IsActive {
		return domain.Account{}, domain.TransactionRecord{}, errors.ErrInactiveAccount.WithDetails(account.ID)
	}
	if amount.GreaterThan(account.Balance) {
		return domain.Account{}, domain.TransactionRecord{}, errors.ErrInsufficientFunds.
			WithDetails(fmt.Sprintf("available balance is %s", account.Balance))
	}

	account.Balance = account.Balance.Sub(amount)
	record := newRecord(env, account, domain.RecordWithdrawal, amount, orDefault(description, WithdrawalDescription), "")
	return account, record, nil
}

// Transfer moves amount between two accounts. The checks run in a fixed order
// and the first failure is returned. A non-empty reference is used as the
// shared pair reference instead of a generated one.
func Transfer(env Env, from, to domain.Account, amount decimal.Decimal, description, reference string) (TransferResult, error) {
	switch {
	case !amount.IsPositive():
		return TransferResult{}, errors.ErrInvalidAmount
	case amount.GreaterThan(from.Balance):
		return TransferResult{}, errors.ErrInsufficientFunds.WithDetails(fmt.Sprintf("available balance is %s", from.Balance))
	case amount.GreaterThan(from.DailyTransferLimit):
		return TransferResult{}, errors.ErrLimitExceeded.WithDetails(fmt.Sprintf("maximum per transfer is %s", from.DailyTransferLimit))
	case from.ID == to.ID:
		return TransferResult{}, errors.ErrSameAccountTransfer
	case !from.IsActive:
		return TransferResult{}, errors.ErrInactiveAccount.WithDetails(from.ID)
	case !to.IsActive:
		return TransferResult{}, errors.ErrInactiveAccount.WithDetails(to.ID)
	}

	if reference == "" {
		reference = env.NewID()
	}
	desc := orDefault(description, TransferDescription)

	from.Balance = from.Balance.Sub(amount)
	to.Balance = to.Balance.Add(amount)

	out := newRecord(env, from, domain.RecordTransferOut, amount, desc+" → "+to.DisplayName, reference)
	in := newRecord(env, to, domain.RecordTransferIn, amount, desc+" ← "+from.DisplayName, reference)
	in.Timestamp = out.Timestamp

	return TransferResult{From: from, To: to, Out: out, In: in}, nil
}

// MonthlyInterest is one twelfth of the annual rate applied to the balance,
// rounded to two decimal places.
func MonthlyInterest(account domain.Account) decimal.Decimal {
	return account.Balance.Mul(account.InterestRate).Div(monthsTimesPercent).Round(2)
}

func ApplyInterest(env Env, account domain.Account) (domain.Account, domain.TransactionRecord, error) {
	interest := MonthlyInterest(account)
	if !interest.IsPositive() {
		return domain.Account{}, domain.TransactionRecord{}, errors.ErrNoAccrual.WithDetails(account.ID)
	}

	account.Balance = account.Balance.Add(interest)
	desc := fmt.Sprintf("Monthly Interest (%s%% APR)", account.InterestRate)
	record := newRecord(env, account, domain.RecordInterest, interest, desc, "")
	return account, record, nil
}

func CloseAccount(account domain.Account) (domain.Account, error) {
	if account.Balance.IsPositive() {
		return domain.Account{}, errors.ErrNonZeroBalance.
			WithDetails(fmt.Sprintf("withdraw or transfer the remaining %s first", account.Balance))
	}
	account.IsActive = false
	return account, nil
}

func Freeze(account domain.Account) domain.Account {
	account.IsActive = false
	return account
}

func Unfreeze(account domain.Account) domain.Account {
	account.IsActive = true
	return account
}

func newRecord(env Env, account domain.Account, kind domain.RecordKind, amount decimal.Decimal, description, reference string) domain.TransactionRecord {
	return domain.TransactionRecord{
		ID:           env.NewID(),
		AccountID:    account.ID,
		Kind:         kind,
		Amount:       amount,
		Timestamp:    env.Now(),
		Description:  description,
		BalanceAfter: account.Balance,
		Reference:    reference,
		Status:       domain.StatusCompleted,
	}
}

func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s == "" {
		return fallback
	}
	return s
}
