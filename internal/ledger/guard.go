package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"virtual-bank/internal/currency"
	"virtual-bank/internal/domain"
)

type DailyLimitCheck struct {
	Allowed        bool            `json:"allowed"`
	UsedToday      decimal.Decimal `json:"used_today"`
	RemainingToday decimal.Decimal `json:"remaining_today"`
	Message        string          `json:"message"`
}

// CheckDailyTransferLimit compares proposed against what is left of the
// account's daily limit. Outgoing transfers and withdrawals recorded on the
// calendar day of now, in now's location, count as used.
func CheckDailyTransferLimit(account domain.Account, records []domain.TransactionRecord, proposed decimal.Decimal, now time.Time) DailyLimitCheck {
	used := UsedToday(account.ID, records, now)
	available := account.DailyTransferLimit.Sub(used)

	check := DailyLimitCheck{
		Allowed:        proposed.LessThanOrEqual(available),
		UsedToday:      used,
		RemainingToday: decimal.Max(decimal.Zero, available),
	}
	if check.Allowed {
		check.Message = fmt.Sprintf("%s of %s daily limit available",
			currency.Format(check.RemainingToday, account.Currency), currency.Format(account.DailyTransferLimit, account.Currency))
	} else {
		check.Message = fmt.Sprintf("Daily limit exceeded. You can transfer up to %s more today.",
			currency.Format(check.RemainingToday, account.Currency))
	}
	return check
}

func UsedToday(accountID string, records []domain.TransactionRecord, now time.Time) decimal.Decimal {
	loc := now.Location()
	y, m, d := now.Date()

	used := decimal.Zero
	for _, r := range records {
		if r.AccountID != accountID || r.Status != domain.StatusCompleted {
			continue
		}
		if r.Kind != domain.RecordTransferOut && r.Kind != domain.RecordWithdrawal {
			continue
		}
		ry, rm, rd := r.Timestamp.In(loc).Date()
		if ry == y && rm == m && rd == d {
			used = used.Add(r.Amount)
		}
	}
	return used
}
