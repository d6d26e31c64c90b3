package projection

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"virtual-bank/internal/currency"
	"virtual-bank/internal/domain"
)

// OverLimitPercent is reported when something was spent against a zero limit.
const OverLimitPercent = 1000

const uncategorized = "Other"

var (
	exceededAt = decimal.NewFromInt(100)
	criticalAt = decimal.NewFromInt(90)
	warningAt  = decimal.NewFromInt(70)
)

type BudgetStatus struct {
	Category    string          `json:"category"`
	Icon        string          `json:"icon,omitempty"`
	Limit       decimal.Decimal `json:"limit"`
	Spent       decimal.Decimal `json:"spent"`
	Remaining   decimal.Decimal `json:"remaining"`
	Percentage  float64         `json:"percentage"`
	Status      Status          `json:"status"`
	ShouldAlert bool            `json:"should_alert"`
}

func CheckBudgetStatus(category string, limit, spent decimal.Decimal) BudgetStatus {
	var pct decimal.Decimal
	switch {
	case limit.IsPositive():
		pct = percent(spent, limit)
	case spent.IsPositive():
		pct = decimal.NewFromInt(OverLimitPercent)
	default:
		pct = decimal.Zero
	}

	status := StatusHealthy
	switch {
	case pct.GreaterThanOrEqual(exceededAt):
		status = StatusExceeded
	case pct.GreaterThanOrEqual(criticalAt):
		status = StatusCritical
	case pct.GreaterThanOrEqual(warningAt):
		status = StatusWarning
	}

	return BudgetStatus{
		Category:    category,
		Limit:       limit,
		Spent:       spent,
		Remaining:   limit.Sub(spent),
		Percentage:  toFloat(pct),
		Status:      status,
		ShouldAlert: status != StatusHealthy,
	}
}

// CheckAllBudgets evaluates each budget against the expense entries of its
// category. Entries without a category count towards "Other".
func CheckAllBudgets(budgets []domain.Budget, entries []domain.Entry) []BudgetStatus {
	spent := make(map[string]decimal.Decimal)
	for _, e := range entries {
		if e.Type != domain.EntryExpense {
			continue
		}
		spent[categoryOf(e)] = spent[categoryOf(e)].Add(e.Amount)
	}

	statuses := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		st := CheckBudgetStatus(b.Category, b.Limit, spent[b.Category])
		st.Icon = b.Icon
		statuses = append(statuses, st)
	}
	return statuses
}

func ActiveAlerts(statuses []BudgetStatus) []BudgetStatus {
	var out []BudgetStatus
	for _, s := range statuses {
		if s.ShouldAlert {
			out = append(out, s)
		}
	}
	return out
}

func AlertMessage(s BudgetStatus, code string) string {
	spent := currency.Format(s.Spent, code)
	limit := currency.Format(s.Limit, code)
	pct := int(math.Round(s.Percentage))

	switch s.Status {
	case StatusExceeded:
		return fmt.Sprintf("CRITICAL: %s budget EXCEEDED! You've spent %s out of %s (%d%%). You're over by %s!",
			s.Category, spent, limit, pct, currency.Format(s.Remaining.Abs(), code))
	case StatusCritical:
		return fmt.Sprintf("WARNING: %s budget almost exceeded! You've spent %s out of %s (%d%%). Only %s remaining!",
			s.Category, spent, limit, pct, currency.Format(s.Remaining, code))
	case StatusWarning:
		return fmt.Sprintf("NOTICE: %s spending is high. You've used %s of %s (%d%%). Only %s left.",
			s.Category, spent, limit, pct, currency.Format(s.Remaining, code))
	}
	return fmt.Sprintf("%s spending is healthy. %s of %s (%d%%).", s.Category, spent, limit, pct)
}

func TotalBudget(budgets []domain.Budget) decimal.Decimal {
	total := decimal.Zero
	for _, b := range budgets {
		total = total.Add(b.Limit)
	}
	return total
}

func categoryOf(e domain.Entry) string {
	if c := strings.TrimSpace(e.Category); c != "" {
		return c
	}
	return uncategorized
}
