package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type GoalPriority string

const (
	PriorityLow    GoalPriority = "low"
	PriorityMedium GoalPriority = "medium"
	PriorityHigh   GoalPriority = "high"
)

func (p *GoalPriority) UnmarshalText(text []byte) error {
	switch v := GoalPriority(text); v {
	case PriorityLow, PriorityMedium, PriorityHigh:
		*p = v
		return nil
	case "":
		*p = PriorityMedium
		return nil
	}
	return fmt.Errorf("unknown goal priority %q", string(text))
}

type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalAbandoned GoalStatus = "abandoned"
)

func (s *GoalStatus) UnmarshalText(text []byte) error {
	switch v := GoalStatus(text); v {
	case GoalActive, GoalCompleted, GoalAbandoned:
		*s = v
		return nil
	}
	return fmt.Errorf("unknown goal status %q", string(text))
}

type Goal struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"owner_id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Currency      string          `json:"currency,omitempty"`
	Category      string          `json:"category,omitempty"`
	Deadline      time.Time       `json:"deadline"`
	Priority      GoalPriority    `json:"priority"`
	Status        GoalStatus      `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (g Goal) Validate() error {
	switch {
	case g.ID == "":
		return fmt.Errorf("goal: missing id")
	case strings.TrimSpace(g.Name) == "":
		return fmt.Errorf("goal %s: missing name", g.ID)
	case g.TargetAmount.IsNegative() || g.CurrentAmount.IsNegative():
		return fmt.Errorf("goal %s: negative amount", g.ID)
	case g.Deadline.IsZero() || g.CreatedAt.IsZero():
		return fmt.Errorf("goal %s: missing dates", g.ID)
	}
	return nil
}

func FindGoal(goals []Goal, id string) int {
	for i := range goals {
		if goals[i].ID == id {
			return i
		}
	}
	return -1
}
