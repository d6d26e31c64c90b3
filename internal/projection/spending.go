package projection

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"virtual-bank/internal/domain"
)

var trendBand = decimal.NewFromInt(5)

type SpendingAnalysis struct {
	TotalIncome      decimal.Decimal            `json:"total_income"`
	TotalExpense     decimal.Decimal            `json:"total_expense"`
	NetIncome        decimal.Decimal            `json:"net_income"`
	ByCategory       map[string]decimal.Decimal `json:"by_category"`
	TransactionCount int                        `json:"transaction_count"`
}

func AnalyzeSpending(entries []domain.Entry) SpendingAnalysis {
	a := SpendingAnalysis{
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
		ByCategory:   make(map[string]decimal.Decimal),
	}
	for _, e := range entries {
		if e.Type == domain.EntryIncome {
			a.TotalIncome = a.TotalIncome.Add(e.Amount)
			continue
		}
		a.TotalExpense = a.TotalExpense.Add(e.Amount)
		cat := categoryOf(e)
		a.ByCategory[cat] = a.ByCategory[cat].Add(e.Amount)
	}
	a.NetIncome = a.TotalIncome.Sub(a.TotalExpense)
	a.TransactionCount = len(entries)
	return a
}

type CategoryShare struct {
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage float64         `json:"percentage"`
}

// TopCategories ranks expense categories by amount, largest first, with ties
// broken by name.
func TopCategories(entries []domain.Entry, limit int) []CategoryShare {
	a := AnalyzeSpending(entries)

	shares := make([]CategoryShare, 0, len(a.ByCategory))
	for cat, amount := range a.ByCategory {
		share := CategoryShare{Category: cat, Amount: amount}
		if a.TotalExpense.IsPositive() {
			share.Percentage = toFloat(percent(amount, a.TotalExpense))
		}
		shares = append(shares, share)
	}
	sort.Slice(shares, func(i, j int) bool {
		if c := shares[i].Amount.Cmp(shares[j].Amount); c != 0 {
			return c > 0
		}
		return shares[i].Category < shares[j].Category
	})
	if limit > 0 && len(shares) > limit {
		shares = shares[:limit]
	}
	return shares
}

type Overspending struct {
	IsOverBudget       bool            `json:"is_over_budget"`
	TotalOverspend     decimal.Decimal `json:"total_overspend"`
	PercentOverBudget  float64         `json:"percent_over_budget"`
	AffectedCategories []string        `json:"affected_categories"`
}

func OverspendingMetrics(entries []domain.Entry, budgets []domain.Budget) Overspending {
	a := AnalyzeSpending(entries)
	total := TotalBudget(budgets)

	o := Overspending{
		TotalOverspend:     decimal.Zero,
		AffectedCategories: []string{},
	}
	for _, b := range budgets {
		if spent := a.ByCategory[b.Category]; spent.GreaterThan(b.Limit) {
			o.TotalOverspend = o.TotalOverspend.Add(spent.Sub(b.Limit))
			o.AffectedCategories = append(o.AffectedCategories, b.Category)
		}
	}
	o.IsOverBudget = a.TotalExpense.GreaterThan(total)
	if total.IsPositive() {
		o.PercentOverBudget = toFloat(percent(o.TotalOverspend, total))
	}
	return o
}

type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

type Trend struct {
	CurrentMonth  decimal.Decimal `json:"current_month"`
	PreviousMonth decimal.Decimal `json:"previous_month"`
	ChangePercent float64         `json:"change_percent"`
	Direction     TrendDirection  `json:"direction"`
}

// SpendingTrend compares this month's expenses with last month's. Changes
// within five percent either way, or no spending last month, are stable.
func SpendingTrend(entries []domain.Entry, now time.Time) Trend {
	start, _ := monthBounds(now)
	current := AnalyzeSpending(EntriesInMonth(entries, now)).TotalExpense
	previous := AnalyzeSpending(EntriesInMonth(entries, start.AddDate(0, -1, 0))).TotalExpense

	t := Trend{CurrentMonth: current, PreviousMonth: previous, Direction: TrendStable}
	if !previous.IsPositive() {
		return t
	}
	change := percent(current.Sub(previous), previous)
	t.ChangePercent = toFloat(change)
	switch {
	case change.GreaterThan(trendBand):
		t.Direction = TrendIncreasing
	case change.LessThan(trendBand.Neg()):
		t.Direction = TrendDecreasing
	}
	return t
}

// EntriesInMonth keeps the entries dated in the calendar month of t, judged
// in t's location.
func EntriesInMonth(entries []domain.Entry, t time.Time) []domain.Entry {
	y, m, _ := t.Date()
	var out []domain.Entry
	for _, e := range entries {
		ey, em, _ := e.Date.In(t.Location()).Date()
		if ey == y && em == m {
			out = append(out, e)
		}
	}
	return out
}

// EntriesFromRecords turns cash movements on bank accounts into entries:
// withdrawals are expenses, deposits and interest are income. Transfers move
// money between the owner's own accounts and are left out.
func EntriesFromRecords(ownerID string, records []domain.TransactionRecord) []domain.Entry {
	var out []domain.Entry
	for _, r := range records {
		if r.Status != domain.StatusCompleted || r.Kind.IsTransfer() {
			continue
		}
		e := domain.Entry{
			ID:          r.ID,
			OwnerID:     ownerID,
			AccountID:   r.AccountID,
			Amount:      r.Amount,
			Type:        domain.EntryIncome,
			Category:    "Virtual Bank",
			Description: r.Description,
			Date:        r.Timestamp,
			CreatedAt:   r.Timestamp,
		}
		if r.Kind == domain.RecordWithdrawal {
			e.Type = domain.EntryExpense
		}
		out = append(out, e)
	}
	return out
}
