package projection

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"virtual-bank/internal/currency"
	"virtual-bank/internal/domain"
)

// NoPaceDays stands in for "never" when nothing has been saved yet.
const NoPaceDays = 999

var (
	onTrackTolerance = decimal.RequireFromString("0.95")
	fifty            = decimal.NewFromInt(50)
	thirty           = decimal.NewFromInt(30)
	eighty           = decimal.NewFromInt(80)
)

type GoalReport struct {
	Goal                    domain.Goal     `json:"goal"`
	ProgressPercent         float64         `json:"progress_percent"`
	AmountRemaining         decimal.Decimal `json:"amount_remaining"`
	DaysTotal               int             `json:"days_total"`
	DaysPassed              int             `json:"days_passed"`
	DaysRemaining           int             `json:"days_remaining"`
	AverageNeededPerDay     decimal.Decimal `json:"average_needed_per_day"`
	CurrentSpendingPerDay   decimal.Decimal `json:"current_spending_per_day"`
	OnTrack                 bool            `json:"on_track"`
	DaysToGoalAtCurrentPace int             `json:"days_to_goal_at_current_pace"`
	ImpactOfOverspending    decimal.Decimal `json:"impact_of_overspending"`
	Status                  Status          `json:"status"`
	Recommendation          string          `json:"recommendation"`
}

func GoalProgress(goal domain.Goal, entries []domain.Entry, now time.Time) GoalReport {
	daysTotal := daysBetween(goal.CreatedAt, goal.Deadline)
	daysPassed := daysBetween(goal.CreatedAt, now)
	daysRemaining := max(0, daysBetween(now, goal.Deadline))

	progress := hundred
	if goal.TargetAmount.IsPositive() {
		progress = decimal.Min(hundred, percent(goal.CurrentAmount, goal.TargetAmount))
	}
	remaining := decimal.Max(decimal.Zero, goal.TargetAmount.Sub(goal.CurrentAmount))

	neededPerDay := decimal.Zero
	if daysRemaining > 0 {
		neededPerDay = remaining.Div(decimal.NewFromInt(int64(daysRemaining)))
	}

	elapsed := decimal.NewFromInt(int64(max(daysPassed, 1)))
	spendingPerDay := decimal.Zero
	if goal.Category != "" {
		spendingPerDay = categoryExpenses(entries, goal.Category).Div(elapsed)
	}

	ratio := decimal.NewFromInt(1)
	if daysTotal > 0 {
		ratio = decimal.NewFromInt(int64(daysPassed)).Div(decimal.NewFromInt(int64(daysTotal)))
	}
	expected := goal.TargetAmount.Mul(ratio)
	onTrack := goal.CurrentAmount.GreaterThanOrEqual(expected.Mul(onTrackTolerance))

	paceDays := NoPaceDays
	if dailyAverage := goal.CurrentAmount.Div(elapsed); dailyAverage.IsPositive() {
		paceDays = int(goal.TargetAmount.Div(dailyAverage).Floor().IntPart())
	}

	overspendRate := decimal.Max(decimal.Zero, spendingPerDay.Sub(neededPerDay))
	impact := decimal.Zero
	if daysRemaining > 0 {
		impact = overspendRate.Mul(decimal.NewFromInt(int64(daysRemaining)))
	}

	var status Status
	switch {
	case progress.GreaterThanOrEqual(hundred):
		status = StatusCompleted
	case onTrack:
		status = StatusHealthy
	case progress.GreaterThanOrEqual(fifty):
		status = StatusWarning
	default:
		status = StatusCritical
	}

	report := GoalReport{
		Goal:                    goal,
		ProgressPercent:         toFloat(progress),
		AmountRemaining:         remaining,
		DaysTotal:               daysTotal,
		DaysPassed:              daysPassed,
		DaysRemaining:           daysRemaining,
		AverageNeededPerDay:     neededPerDay.Round(2),
		CurrentSpendingPerDay:   spendingPerDay.Round(2),
		OnTrack:                 onTrack,
		DaysToGoalAtCurrentPace: paceDays,
		ImpactOfOverspending:    impact.Round(2),
		Status:                  status,
	}
	report.Recommendation = recommend(report, progress, neededPerDay, max(daysPassed, 1))
	return report
}

func recommend(r GoalReport, progress, neededPerDay decimal.Decimal, elapsedDays int) string {
	goal := r.Goal
	cur := goalCurrency(goal)
	perDay := currency.Format(neededPerDay.Ceil(), cur)

	switch {
	case r.Status == StatusCompleted:
		return fmt.Sprintf("Congratulations! You've reached your goal of %s!", currency.Format(goal.TargetAmount, cur))

	case r.OnTrack:
		dailyAverage := goal.CurrentAmount.Div(decimal.NewFromInt(int64(elapsedDays)))
		if !dailyAverage.IsPositive() {
			return fmt.Sprintf("Great job! You're on track to reach this goal by %s.", goal.Deadline.Format("2 Jan 2006"))
		}
		days := goal.TargetAmount.Div(dailyAverage).Ceil()
		return fmt.Sprintf("Great job! At your current pace, you'll reach this goal in approximately %s days.", days)

	case r.DaysRemaining > 30 && progress.GreaterThanOrEqual(thirty):
		return fmt.Sprintf("You're behind pace. Increase savings to %s/day to reach your goal on time.", perDay)

	case progress.LessThan(thirty) && r.DaysRemaining > 60:
		return fmt.Sprintf("You're significantly behind. You need %s/day to reach your %s goal by %s.",
			perDay, currency.Format(goal.TargetAmount, cur), goal.Deadline.Format("2 Jan 2006"))

	case r.DaysRemaining < 30 && progress.LessThan(eighty):
		return fmt.Sprintf("URGENT: Only %d days left! You need %s/day to reach your goal.", r.DaysRemaining, perDay)

	case progress.GreaterThanOrEqual(eighty) && r.DaysRemaining > 0:
		return fmt.Sprintf("Almost there! Just %s more to reach your goal in %d days.",
			currency.Format(r.AmountRemaining.Ceil(), cur), r.DaysRemaining)
	}
	return "Keep saving! You can reach your financial goals with consistent effort."
}

var statusRank = map[Status]int{
	StatusCritical:  0,
	StatusWarning:   1,
	StatusHealthy:   2,
	StatusCompleted: 3,
}

// AllGoalsProgress reports on active goals, most urgent first and then by
// nearest deadline.
func AllGoalsProgress(goals []domain.Goal, entries []domain.Entry, now time.Time) []GoalReport {
	reports := make([]GoalReport, 0, len(goals))
	for _, g := range goals {
		if g.Status == domain.GoalActive {
			reports = append(reports, GoalProgress(g, entries, now))
		}
	}
	sort.SliceStable(reports, func(i, j int) bool {
		ri, rj := statusRank[reports[i].Status], statusRank[reports[j].Status]
		if ri != rj {
			return ri < rj
		}
		return reports[i].Goal.Deadline.Before(reports[j].Goal.Deadline)
	})
	return reports
}

func GoalsNeedingAttention(reports []GoalReport) []GoalReport {
	var out []GoalReport
	for _, r := range reports {
		if r.Status == StatusCritical || (r.Status == StatusWarning && r.DaysRemaining < 14) {
			out = append(out, r)
		}
	}
	return out
}

type GoalProjection struct {
	Goal                domain.Goal     `json:"goal"`
	CompletionDate      time.Time       `json:"completion_date"`
	DaysToCompletion    int             `json:"days_to_completion"`
	DaysLate            int             `json:"days_late"`
	RequiredDailyAmount decimal.Decimal `json:"required_daily_amount"`
	ProjectedOverspend  decimal.Decimal `json:"projected_overspend"`
}

// ProjectCompletion extrapolates the average daily saving since creation to
// estimate when the remaining amount will be covered.
func ProjectCompletion(goal domain.Goal, now time.Time) GoalProjection {
	dailyAverage := AverageDailySaving(goal, now)
	remaining := decimal.Max(decimal.Zero, goal.TargetAmount.Sub(goal.CurrentAmount))

	days := daysToCover(remaining, dailyAverage)
	completion := now.AddDate(0, 0, days)
	late := max(0, daysBetween(goal.Deadline, completion))

	required := decimal.Zero
	if days > 0 {
		required = remaining.Div(decimal.NewFromInt(int64(days)))
	}

	return GoalProjection{
		Goal:                goal,
		CompletionDate:      completion,
		DaysToCompletion:    days,
		DaysLate:            late,
		RequiredDailyAmount: required.Round(2),
		ProjectedOverspend:  required.Mul(decimal.NewFromInt(int64(late))).Round(2),
	}
}

// AverageDailySaving is the amount saved so far spread over the days since
// the goal was created, counting at least one day.
func AverageDailySaving(goal domain.Goal, now time.Time) decimal.Decimal {
	elapsed := decimal.NewFromInt(int64(max(daysBetween(goal.CreatedAt, now), 1)))
	return goal.CurrentAmount.Div(elapsed)
}

type ScenarioOutcome struct {
	DailyRate      decimal.Decimal `json:"daily_rate"`
	DaysToGoal     int             `json:"days_to_goal"`
	DeltaDays      int             `json:"delta_days"`
	CompletionDate time.Time       `json:"completion_date"`
}

type GoalScenarios struct {
	Baseline ScenarioOutcome `json:"baseline"`
	Slower10 ScenarioOutcome `json:"slower_10_percent"`
	Faster10 ScenarioOutcome `json:"faster_10_percent"`
	Faster25 ScenarioOutcome `json:"faster_25_percent"`
}

// Scenarios compares the completion date at dailyRate with the dates at a
// pace 10% lower and 10% or 25% higher. DeltaDays is relative to the baseline;
// negative means sooner.
func Scenarios(goal domain.Goal, dailyRate decimal.Decimal, now time.Time) GoalScenarios {
	remaining := decimal.Max(decimal.Zero, goal.TargetAmount.Sub(goal.CurrentAmount))
	base := daysToCover(remaining, dailyRate)

	outcome := func(factor string) ScenarioOutcome {
		rate := dailyRate.Mul(decimal.RequireFromString(factor))
		days := daysToCover(remaining, rate)
		return ScenarioOutcome{
			DailyRate:      rate.Round(2),
			DaysToGoal:     days,
			DeltaDays:      days - base,
			CompletionDate: now.AddDate(0, 0, days),
		}
	}

	return GoalScenarios{
		Baseline: outcome("1"),
		Slower10: outcome("0.9"),
		Faster10: outcome("1.1"),
		Faster25: outcome("1.25"),
	}
}

// RequiredSavingsRate is the share of monthly income, in percent, that must
// be set aside each remaining month to meet the goal. Months are counted by
// calendar month with a floor of one.
func RequiredSavingsRate(goal domain.Goal, monthlyIncome decimal.Decimal, now time.Time) float64 {
	if !monthlyIncome.IsPositive() {
		return 0
	}
	months := (goal.Deadline.Year()-now.Year())*12 + int(goal.Deadline.Month()) - int(now.Month())
	months = max(1, months)

	needed := decimal.Max(decimal.Zero, goal.TargetAmount.Sub(goal.CurrentAmount))
	monthly := needed.Div(decimal.NewFromInt(int64(months)))
	return toFloat(percent(monthly, monthlyIncome))
}

func daysToCover(amount, dailyRate decimal.Decimal) int {
	if !amount.IsPositive() {
		return 0
	}
	if !dailyRate.IsPositive() {
		return NoPaceDays
	}
	days := amount.Div(dailyRate).Ceil()
	if days.GreaterThan(decimal.NewFromInt(NoPaceDays)) {
		return NoPaceDays
	}
	return int(days.IntPart())
}

func categoryExpenses(entries []domain.Entry, category string) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.Type == domain.EntryExpense && e.Category == category {
			total = total.Add(e.Amount)
		}
	}
	return total
}

func goalCurrency(goal domain.Goal) string {
	if goal.Currency == "" {
		return currency.Default
	}
	return goal.Currency
}
