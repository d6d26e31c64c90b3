package projection

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"virtual-bank/internal/domain"
)

func expense(category, amount string, date time.Time) domain.Entry {
	return domain.Entry{ID: category + amount, Type: domain.EntryExpense, Category: category, Amount: dec(amount), Date: date}
}

func income(amount string, date time.Time) domain.Entry {
	return domain.Entry{ID: "inc" + amount, Type: domain.EntryIncome, Category: "Salary", Amount: dec(amount), Date: date}
}

func TestCheckBudgetStatus(t *testing.T) {
	tests := []struct {
		name    string
		limit   string
		spent   string
		pct     float64
		status  Status
		alert   bool
		remains string
	}{
		{"critical at 92%", "5000", "4600", 92, StatusCritical, true, "400"},
		{"healthy below 70%", "1000", "699.99", 70, StatusHealthy, false, "300.01"},
		{"warning at 70%", "1000", "700", 70, StatusWarning, true, "300"},
		{"critical at 90%", "1000", "900", 90, StatusCritical, true, "100"},
		{"exceeded at 100%", "1000", "1000", 100, StatusExceeded, true, "0"},
		{"exceeded beyond limit", "1000", "1500", 150, StatusExceeded, true, "-500"},
		{"zero limit nothing spent", "0", "0", 0, StatusHealthy, false, "0"},
		{"zero limit with spending", "0", "10", OverLimitPercent, StatusExceeded, true, "-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := CheckBudgetStatus("Food", dec(tt.limit), dec(tt.spent))
			assert.Equal(t, tt.pct, st.Percentage)
			assert.Equal(t, tt.status, st.Status)
			assert.Equal(t, tt.alert, st.ShouldAlert)
			assert.True(t, st.Remaining.Equal(dec(tt.remains)), st.Remaining.String())
		})
	}
}

func TestCheckAllBudgets(t *testing.T) {
	budgets := []domain.Budget{
		{Category: "Food", Limit: dec("5000"), Icon: "🍔"},
		{Category: "Other", Limit: dec("100")},
		{Category: "Travel", Limit: dec("2000")},
	}
	entries := []domain.Entry{
		expense("Food", "4000", now),
		expense("Food", "600", now),
		expense("", "150", now),
		income("50000", now),
	}

	statuses := CheckAllBudgets(budgets, entries)
	require.Len(t, statuses, 3)

	assert.Equal(t, StatusCritical, statuses[0].Status)
	assert.Equal(t, "🍔", statuses[0].Icon)
	assert.True(t, statuses[1].Spent.Equal(dec("150")))
	assert.Equal(t, StatusExceeded, statuses[1].Status)
	assert.True(t, statuses[2].Spent.IsZero())
	assert.Equal(t, StatusHealthy, statuses[2].Status)

	alerts := ActiveAlerts(statuses)
	require.Len(t, alerts, 2)
	assert.Equal(t, "Food", alerts[0].Category)
	assert.Equal(t, "Other", alerts[1].Category)
}

func TestAlertMessage(t *testing.T) {
	msg := AlertMessage(CheckBudgetStatus("Food", dec("5000"), dec("4600")), "INR")
	assert.Contains(t, msg, "WARNING: Food budget almost exceeded")
	assert.Contains(t, msg, "(92%)")
	assert.Contains(t, msg, "400.00 remaining")

	msg = AlertMessage(CheckBudgetStatus("Food", dec("1000"), dec("1250")), "INR")
	assert.Contains(t, msg, "EXCEEDED")
	assert.Contains(t, msg, "over by")
	assert.Contains(t, msg, "250.00")

	msg = AlertMessage(CheckBudgetStatus("Fun", dec("1000"), dec("750")), "USD")
	assert.Contains(t, msg, "NOTICE: Fun spending is high")
	assert.Contains(t, msg, "$750.00")

	msg = AlertMessage(CheckBudgetStatus("Fun", dec("1000"), dec("10")), "USD")
	assert.Contains(t, msg, "healthy")
}

func TestSpendingVelocity(t *testing.T) {
	// 10 March, 31 day month
	entries := []domain.Entry{
		expense("Food", "100", now.Add(-days(3))),
		expense("Rent", "200", now.Add(-days(1))),
		expense("Food", "1000", time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC)),
		income("5000", now),
	}

	v := SpendingVelocity(entries, dec("1000"), now)
	assert.True(t, v.Spent.Equal(dec("300")))
	assert.True(t, v.DailyAverage.Equal(dec("30")))
	assert.True(t, v.WeeklyTotal.Equal(dec("210")))
	assert.True(t, v.MonthlyProjection.Equal(dec("930")))
	assert.Equal(t, 23, v.DaysUntilExhausted)
	assert.Equal(t, 93.0, v.Percentage)
	assert.Equal(t, StatusWarning, v.Status)

	assert.Equal(t, StatusCritical, SpendingVelocity(entries, dec("900"), now).Status)
	assert.Equal(t, StatusHealthy, SpendingVelocity(entries, dec("2000"), now).Status)

	overspent := SpendingVelocity(entries, dec("100"), now)
	assert.Equal(t, 0, overspent.DaysUntilExhausted)

	noBudget := SpendingVelocity(entries, decimal.Zero, now)
	assert.Equal(t, float64(OverLimitPercent), noBudget.Percentage)
	assert.Equal(t, StatusCritical, noBudget.Status)

	idle := SpendingVelocity(nil, decimal.Zero, now)
	assert.Equal(t, NoExhaustionDays, idle.DaysUntilExhausted)
	assert.Equal(t, 0.0, idle.Percentage)
	assert.Equal(t, StatusHealthy, idle.Status)
}
