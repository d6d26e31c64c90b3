package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type RecordKind string

const (
	RecordDeposit     RecordKind = "deposit"
	RecordWithdrawal  RecordKind = "withdrawal"
	RecordTransferOut RecordKind = "transfer_out"
	RecordTransferIn  RecordKind = "transfer_in"
	RecordInterest    RecordKind = "interest"
)

func ParseRecordKind(s string) (RecordKind, error) {
	if k := RecordKind(s); k.valid() {
		return k, nil
	}
	return "", fmt.Errorf("unknown transaction kind %q", s)
}

func (k RecordKind) valid() bool {
	switch k {
	case RecordDeposit, RecordWithdrawal, RecordTransferOut, RecordTransferIn, RecordInterest:
		return true
	}
	return false
}

func (k *RecordKind) UnmarshalText(text []byte) error {
	kind, err := ParseRecordKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// IsCredit reports whether records of this kind add to the balance.
func (k RecordKind) IsCredit() bool {
	return k == RecordDeposit || k == RecordTransferIn || k == RecordInterest
}

func (k RecordKind) IsTransfer() bool {
	return k == RecordTransferOut || k == RecordTransferIn
}

type RecordStatus string

const (
	StatusPending   RecordStatus = "pending"
	StatusCompleted RecordStatus = "completed"
	StatusFailed    RecordStatus = "failed"
)

func (s RecordStatus) valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

func (s *RecordStatus) UnmarshalText(text []byte) error {
	if st := RecordStatus(text); st.valid() {
		*s = st
		return nil
	}
	return fmt.Errorf("unknown transaction status %q", string(text))
}

// TransactionRecord is an immutable ledger entry. BalanceAfter is the owning
// account's balance right after the operation that produced it.
type TransactionRecord struct {
	ID           string          `json:"id"`
	AccountID    string          `json:"account_id"`
	Kind         RecordKind      `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	Timestamp    time.Time       `json:"timestamp"`
	Description  string          `json:"description"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Reference    string          `json:"reference,omitempty"`
	Status       RecordStatus    `json:"status"`
}

// SignedAmount returns the amount with the direction implied by the kind.
func (r TransactionRecord) SignedAmount() decimal.Decimal {
	if r.Kind.IsCredit() {
		return r.Amount
	}
	return r.Amount.Neg()
}

func (r TransactionRecord) Validate() error {
	switch {
	case r.ID == "" || r.AccountID == "":
		return fmt.Errorf("transaction: missing id or account id")
	case !r.Kind.valid():
		return fmt.Errorf("transaction %s: unknown kind %q", r.ID, r.Kind)
	case !r.Status.valid():
		return fmt.Errorf("transaction %s: unknown status %q", r.ID, r.Status)
	case !r.Amount.IsPositive():
		return fmt.Errorf("transaction %s: amount must be positive, got %s", r.ID, r.Amount)
	case r.BalanceAfter.IsNegative():
		return fmt.Errorf("transaction %s: negative balance snapshot %s", r.ID, r.BalanceAfter)
	case r.Kind.IsTransfer() && r.Reference == "":
		return fmt.Errorf("transaction %s: %s without reference", r.ID, r.Kind)
	case !r.Kind.IsTransfer() && r.Reference != "":
		return fmt.Errorf("transaction %s: %s must not carry a reference", r.ID, r.Kind)
	case r.Timestamp.IsZero():
		return fmt.Errorf("transaction %s: missing timestamp", r.ID)
	}
	return nil
}
