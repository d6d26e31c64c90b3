// Package projection derives read-only reports from goals, budgets and
// transaction entries. Every function is total: degenerate inputs produce a
// sentinel or zero instead of an error.
package projection

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusWarning   Status = "warning"
	StatusCritical  Status = "critical"
	StatusExceeded  Status = "exceeded"
	StatusCompleted Status = "completed"
)

var hundred = decimal.NewFromInt(100)

func daysBetween(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Hours() / 24))
}

func percent(part, whole decimal.Decimal) decimal.Decimal {
	return part.Div(whole).Mul(hundred)
}

func toFloat(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// monthBounds returns the first instant of t's month and the number of days in it.
func monthBounds(t time.Time) (time.Time, int) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, -1).Day()
}
