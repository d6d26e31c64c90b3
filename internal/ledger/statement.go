package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"virtual-bank/internal/domain"
)

type Summary struct {
	Account          domain.Account            `json:"account"`
	TotalIncome      decimal.Decimal           `json:"total_income"`
	TotalExpenses    decimal.Decimal           `json:"total_expenses"`
	NetFlow          decimal.Decimal           `json:"net_flow"`
	TransactionCount int                       `json:"transaction_count"`
	LastTransaction  *domain.TransactionRecord `json:"last_transaction,omitempty"`
}

// Statement returns the account's records newest first. A limit <= 0 returns all of them.
func Statement(records []domain.TransactionRecord, accountID string, limit int) []domain.TransactionRecord {
	out := ForAccount(records, accountID)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ForAccount returns a copy of the account's records in their stored order.
func ForAccount(records []domain.TransactionRecord, accountID string) []domain.TransactionRecord {
	out := make([]domain.TransactionRecord, 0, len(records))
	for _, r := range records {
		if r.AccountID == accountID {
			out = append(out, r)
		}
	}
	return out
}

// Income sums completed credits: deposits, incoming transfers and interest.
func Income(records []domain.TransactionRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		if r.Status == domain.StatusCompleted && r.Kind.IsCredit() {
			total = total.Add(r.Amount)
		}
	}
	return total
}

// Expenses sums completed debits: withdrawals and outgoing transfers.
func Expenses(records []domain.TransactionRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		if r.Status == domain.StatusCompleted && !r.Kind.IsCredit() {
			total = total.Add(r.Amount)
		}
	}
	return total
}

func Summarize(account domain.Account, records []domain.TransactionRecord) Summary {
	own := Statement(records, account.ID, 0)
	income := Income(own)
	expenses := Expenses(own)

	summary := Summary{
		Account:          account,
		TotalIncome:      income,
		TotalExpenses:    expenses,
		NetFlow:          income.Sub(expenses),
		TransactionCount: len(own),
	}
	if len(own) > 0 {
		last := own[0]
		summary.LastTransaction = &last
	}
	return summary
}
