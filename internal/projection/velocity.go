package projection

import (
	"time"

	"github.com/shopspring/decimal"

	"virtual-bank/internal/domain"
)

// NoExhaustionDays is reported when nothing has been spent this month.
const NoExhaustionDays = 365

var (
	velocityWarning  = decimal.NewFromInt(80)
	velocityCritical = decimal.NewFromInt(100)
)

type Velocity struct {
	Spent              decimal.Decimal `json:"spent"`
	TotalBudget        decimal.Decimal `json:"total_budget"`
	DailyAverage       decimal.Decimal `json:"daily_average"`
	WeeklyTotal        decimal.Decimal `json:"weekly_total"`
	MonthlyProjection  decimal.Decimal `json:"monthly_projection"`
	DaysUntilExhausted int             `json:"days_until_exhausted"`
	Percentage         float64         `json:"percentage"`
	Status             Status          `json:"status"`
}

// SpendingVelocity projects this month's expenses to month end at the
// average daily rate so far and compares the projection with totalBudget.
func SpendingVelocity(entries []domain.Entry, totalBudget decimal.Decimal, now time.Time) Velocity {
	_, daysInMonth := monthBounds(now)
	dayOfMonth := decimal.NewFromInt(int64(now.Day()))

	spent := decimal.Zero
	for _, e := range EntriesInMonth(entries, now) {
		if e.Type == domain.EntryExpense {
			spent = spent.Add(e.Amount)
		}
	}

	daily := spent.Div(dayOfMonth)
	projection := daily.Mul(decimal.NewFromInt(int64(daysInMonth)))

	untilExhausted := NoExhaustionDays
	if daily.IsPositive() {
		untilExhausted = max(0, int(totalBudget.Sub(spent).Div(daily).Floor().IntPart()))
	}

	var pct decimal.Decimal
	switch {
	case totalBudget.IsPositive():
		pct = percent(projection, totalBudget)
	case projection.IsPositive():
		pct = decimal.NewFromInt(OverLimitPercent)
	default:
		pct = decimal.Zero
	}

	status := StatusHealthy
	switch {
	case pct.GreaterThan(velocityCritical):
		status = StatusCritical
	case pct.GreaterThan(velocityWarning):
		status = StatusWarning
	}

	return Velocity{
		Spent:              spent,
		TotalBudget:        totalBudget,
		DailyAverage:       daily.Round(2),
		WeeklyTotal:        daily.Mul(decimal.NewFromInt(7)).Round(2),
		MonthlyProjection:  projection.Round(2),
		DaysUntilExhausted: untilExhausted,
		Percentage:         toFloat(pct),
		Status:             status,
	}
}
