package ledger

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"virtual-bank/internal/domain"
)

// ReplayMismatch reports the first record whose balance snapshot disagrees
// with the running balance.
type ReplayMismatch struct {
	RecordID string
	Expected decimal.Decimal
	Recorded decimal.Decimal
}

func (e *ReplayMismatch) Error() string {
	return fmt.Sprintf("record %s: replayed balance %s, recorded %s", e.RecordID, e.Expected, e.Recorded)
}

// Replay accumulates the signed amounts of completed records in timestamp
// order starting at initial, checking each balanceAfter on the way. Records
// sharing a timestamp keep their stored order.
func Replay(initial decimal.Decimal, records []domain.TransactionRecord) (decimal.Decimal, error) {
	ordered := make([]domain.TransactionRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	balance := initial
	for _, r := range ordered {
		if r.Status != domain.StatusCompleted {
			continue
		}
		balance = balance.Add(r.SignedAmount())
		if !balance.Equal(r.BalanceAfter) {
			return balance, &ReplayMismatch{RecordID: r.ID, Expected: balance, Recorded: r.BalanceAfter}
		}
	}
	return balance, nil
}

// Reconcile replays the account's records from its opening balance and checks
// the result against the current balance.
func Reconcile(account domain.Account, records []domain.TransactionRecord) error {
	final, err := Replay(account.OpeningBalance, ForAccount(records, account.ID))
	if err != nil {
		return fmt.Errorf("account %s: %w", account.ID, err)
	}
	if !final.Equal(account.Balance) {
		return fmt.Errorf("account %s: replayed balance %s, stored balance %s", account.ID, final, account.Balance)
	}
	return nil
}

// VerifyPairs checks that every transfer reference joins exactly one outgoing
// and one incoming record of equal amount on different accounts.
func VerifyPairs(records []domain.TransactionRecord) error {
	type pair struct {
		out, in []domain.TransactionRecord
	}
	pairs := make(map[string]*pair)
	var refs []string

	for _, r := range records {
		if !r.Kind.IsTransfer() {
			continue
		}
		p, ok := pairs[r.Reference]
		if !ok {
			p = &pair{}
			pairs[r.Reference] = p
			refs = append(refs, r.Reference)
		}
		if r.Kind == domain.RecordTransferOut {
			p.out = append(p.out, r)
		} else {
			p.in = append(p.in, r)
		}
	}

	for _, ref := range refs {
		p := pairs[ref]
		if len(p.out) != 1 || len(p.in) != 1 {
			return fmt.Errorf("transfer %s: %d outgoing and %d incoming records", ref, len(p.out), len(p.in))
		}
		if !p.out[0].Amount.Equal(p.in[0].Amount) {
			return fmt.Errorf("transfer %s: amounts differ (%s out, %s in)", ref, p.out[0].Amount, p.in[0].Amount)
		}
		if p.out[0].AccountID == p.in[0].AccountID {
			return fmt.Errorf("transfer %s: both legs on account %s", ref, p.out[0].AccountID)
		}
	}
	return nil
}
