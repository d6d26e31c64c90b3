package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"virtual-bank/internal/domain"
	"virtual-bank/internal/errors"
	"virtual-bank/internal/ledger"
	"virtual-bank/internal/observability"
	"virtual-bank/internal/projection"
	"virtual-bank/internal/repository"
)

// AlertHistoryLimit is how many budget alerts are kept per owner.
const AlertHistoryLimit = 30

// PlanningService manages goals, budgets and income/expense entries and runs
// the projections over them. Cash movements on bank accounts count as
// entries too.
type PlanningService struct {
	store   *repository.Store
	env     ledger.Env
	metrics *observability.Metrics
	logger  *zap.Logger
}

func NewPlanningService(store *repository.Store, env ledger.Env, metrics *observability.Metrics, logger *zap.Logger) *PlanningService {
	return &PlanningService{
		store:   store,
		env:     env,
		metrics: metrics,
		logger:  logger,
	}
}

type EntryRequest struct {
	AccountID   string
	Amount      decimal.Decimal
	Type        string
	Category    string
	Description string
	Date        time.Time
}

type GoalRequest struct {
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	Currency      string
	Category      string
	Deadline      time.Time
	Priority      string
}

type Insights struct {
	NetWorth              decimal.Decimal             `json:"net_worth"`
	Spending              projection.SpendingAnalysis `json:"spending"`
	TopCategories         []projection.CategoryShare  `json:"top_categories"`
	Overspending          projection.Overspending     `json:"overspending"`
	Trend                 projection.Trend            `json:"trend"`
	Velocity              projection.Velocity         `json:"velocity"`
	Budgets               []projection.BudgetStatus   `json:"budgets"`
	GoalsNeedingAttention []projection.GoalReport     `json:"goals_needing_attention"`
}

// ============================================================
// Entries
// ============================================================

func (s *PlanningService) AddEntry(ctx context.Context, ownerID string, req EntryRequest) (entry domain.Entry, err error) {
	ctx, span := tracer.Start(ctx, "PlanningService.AddEntry")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", ownerID))
	defer func(start time.Time) {
		finish(span, s.metrics, s.logger, "add_entry", start, err,
			zap.String("user_id", ownerID), zap.String("entry_id", entry.ID))
	}(time.Now())

	if err := requireOwner(ownerID); err != nil {
		return domain.Entry{}, err
	}
	if !req.Amount.IsPositive() {
		return domain.Entry{}, errors.ErrInvalidAmount
	}
	var typ domain.EntryType
	if err := typ.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(req.Type)))); err != nil {
		return domain.Entry{}, errors.ErrValidation.WithDetails(err.Error())
	}

	now := s.env.Now()
	entry = domain.Entry{
		ID:          s.env.NewID(),
		OwnerID:     ownerID,
		AccountID:   req.AccountID,
		Amount:      req.Amount,
		Type:        typ,
		Category:    strings.TrimSpace(req.Category),
		Description: strings.TrimSpace(req.Description),
		Date:        req.Date,
		CreatedAt:   now,
	}
	if entry.Date.IsZero() {
		entry.Date = now
	}

	err = s.store.WithTransaction(ctx, func(tx *repository.Store) error {
		entries, err := tx.Entries().Load(ctx, ownerID)
		if err != nil {
			return err
		}
		return tx.Entries().Save(ctx, ownerID, append(entries, entry))
	})
	if err != nil {
		return domain.Entry{}, err
	}
	return entry, nil
}

func (s *PlanningService) ListEntries(ctx context.Context, ownerID string) ([]domain.Entry, error) {
	ctx, span := tracer.Start(ctx, "PlanningService.ListEntries")
	defer span.End()

	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	entries, err := s.store.Entries().Load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date)
	})
	return entries, nil
}

// ============================================================
// Goals
// ============================================================

func (s *PlanningService) CreateGoal(ctx context.Context, ownerID string, req GoalRequest) (goal domain.Goal, err error) {
	ctx, span := tracer.Start(ctx, "PlanningService.CreateGoal")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", ownerID))
	defer func(start time.Time) {
		finish(span, s.metrics, s.logger, "create_goal", start, err,
			zap.String("user_id", ownerID), zap.String("goal_id", goal.ID))
	}(time.Now())

	if err := requireOwner(ownerID); err != nil {
		return domain.Goal{}, err
	}

	name := strings.TrimSpace(req.Name)
	now := s.env.Now()
	switch {
	case name == "":
		return domain.Goal{}, errors.ErrValidation.WithDetails("goal name is required")
	case !req.TargetAmount.IsPositive():
		return domain.Goal{}, errors.ErrInvalidAmount.WithDetails("target amount must be greater than zero")
	case req.CurrentAmount.IsNegative():
		return domain.Goal{}, errors.ErrInvalidAmount.WithDetails("current amount cannot be negative")
	case req.Deadline.IsZero():
		return domain.Goal{}, errors.ErrValidation.WithDetails("deadline is required")
	case !req.Deadline.After(now):
		return domain.Goal{}, errors.ErrValidation.WithDetails("deadline must be in the future")
	}

	priority := domain.PriorityMedium
	if p := strings.TrimSpace(req.Priority); p != "" {
		if err := priority.UnmarshalText([]byte(strings.ToLower(p))); err != nil {
			return domain.Goal{}, errors.ErrValidation.WithDetails(err.Error())
		}
	}

	goal = domain.Goal{
		ID:            s.env.NewID(),
		OwnerID:       ownerID,
		Name:          name,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		Currency:      strings.ToUpper(strings.TrimSpace(req.Currency)),
		Category:      strings.TrimSpace(req.Category),
		Deadline:      req.Deadline,
		Priority:      priority,
		Status:        domain.GoalActive,
		CreatedAt:     now,
	}
	if goal.Currency == "" {
		goal.Currency = s.env.Currency
	}
	if goal.CurrentAmount.GreaterThanOrEqual(goal.TargetAmount) {
		goal.Status = domain.GoalCompleted
	}

	err = s.store.WithTransaction(ctx, func(tx *repository.Store) error {
		goals, err := tx.Goals().Load(ctx, ownerID)
		if err != nil {
			return err
		}
		return tx.Goals().Save(ctx, ownerID, append(goals, goal))
	})
	if err != nil {
		return domain.Goal{}, err
	}
	return goal, nil
}

func (s *PlanningService) ListGoals(ctx context.Context, ownerID string) ([]domain.Goal, error) {
	ctx, span := tracer.Start(ctx, "PlanningService.ListGoals")
	defer span.End()

	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	return s.store.Goals().Load(ctx, ownerID)
}

// Contribute adds amount to the goal's saved amount and completes it once the
// target is reached.
func (s *PlanningService) Contribute(ctx context.Context, ownerID, goalID string, amount decimal.Decimal) (goal domain.Goal, err error) {
	ctx, span := tracer.Start(ctx, "PlanningService.Contribute")
	defer span.End()
	span.SetAttributes(attribute.String("goal.id", goalID))
	defer func(start time.Time) {
		finish(span, s.metrics, s.logger, "contribute_goal", start, err,
			zap.String("user_id", ownerID), zap.String("goal_id", goalID))
	}(time.Now())

	if err := requireOwner(ownerID); err != nil {
		return domain.Goal{}, err
	}
	if !amount.IsPositive() {
		return domain.Goal{}, errors.ErrInvalidAmount
	}

	err = s.store.WithTransaction(ctx, func(tx *repository.Store) error {
		goals, err := tx.Goals().Load(ctx, ownerID)
		if err != nil {
			return err
		}
		i := domain.FindGoal(goals, goalID)
		if i < 0 {
			return errors.ErrGoalNotFound.WithDetails(goalID)
		}
		if goals[i].Status == domain.GoalAbandoned {
			return errors.NewAppError(errors.ValidationError, "goal was abandoned").WithDetails(goalID)
		}

		goals[i].CurrentAmount = goals[i].CurrentAmount.Add(amount)
		if goals[i].CurrentAmount.GreaterThanOrEqual(goals[i].TargetAmount) {
			goals[i].Status = domain.GoalCompleted
		}
		goal = goals[i]
		return tx.Goals().Save(ctx, ownerID, goals)
	})
	if err != nil {
		return domain.Goal{}, err
	}
	return goal, nil
}

func (s *PlanningService) GoalProgress(ctx context.Context, ownerID, goalID string) (projection.GoalReport, error) {
	ctx, span := tracer.Start(ctx, "PlanningService.GoalProgress")
	defer span.End()

	goal, err := s.goal(ctx, ownerID, goalID)
	if err != nil {
		return projection.GoalReport{}, err
	}
	entries, err := s.spendingEntries(ctx, ownerID)
	if err != nil {
		return projection.GoalReport{}, err
	}
	return projection.GoalProgress(goal, entries, s.env.Now()), nil
}

// AllGoalsProgress reports on the owner's active goals, most urgent first.
// Completed and abandoned goals are left out.
func (s *PlanningService) AllGoalsProgress(ctx context.Context, ownerID string) ([]projection.GoalReport, error) {
	ctx, span := tracer.Start(ctx, "PlanningService.AllGoalsProgress")
	defer span.End()

	goals, err := s.ListGoals(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	entries, err := s.spendingEntries(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	reports := projection.AllGoalsProgress(goals, entries, s.env.Now())
	if reports == nil {
		reports = []projection.GoalReport{}
	}
	return reports, nil
}

func (s *PlanningService) GoalProjection(ctx context.Context, ownerID, goalID string) (projection.GoalProjection, error) {
	ctx, span := tracer.Start(ctx, "PlanningService.GoalProjection")
	defer span.End()

	goal, err := s.goal(ctx, ownerID, goalID)
	if err != nil {
		return projection.GoalProjection{}, err
	}
	return projection.ProjectCompletion(goal, s.env.Now()), nil
}

// GoalScenarios compares pace variations around dailyRate. A zero rate uses
// the goal's average daily saving so far.
func (s *PlanningService) GoalScenarios(ctx context.Context, ownerID, goalID string, dailyRate decimal.Decimal) (projection.GoalScenarios, error) {
	ctx, span := tracer.Start(ctx, "PlanningService.GoalScenarios")
	defer span.End()

	if dailyRate.IsNegative() {
		return projection.GoalScenarios{}, errors.ErrInvalidAmount
	}
	goal, err := s.goal(ctx, ownerID, goalID)
	if err != nil {
		return projection.GoalScenarios{}, err
	}
	now := s.env.Now()
	if dailyRate.IsZero() {
		dailyRate = projection.AverageDailySaving(goal, now)
	}
	return projection.Scenarios(goal, dailyRate, now), nil
}

func (s *PlanningService) goal(ctx context.Context, ownerID, goalID string) (domain.Goal, error) {
	goals, err := s.ListGoals(ctx, ownerID)
	if err != nil {
		return domain.Goal{}, err
	}
	i := domain.FindGoal(goals, goalID)
	if i < 0 {
		return domain.Goal{}, errors.ErrGoalNotFound.WithDetails(goalID)
	}
	return goals[i], nil
}

// ============================================================
// Budgets
// ============================================================

// SetBudgets replaces the owner's budgets. Categories must be unique.
func (s *PlanningService) SetBudgets(ctx context.Context, ownerID string, budgets []domain.Budget) (saved []domain.Budget, err error) {
	ctx, span := tracer.Start(ctx, "PlanningService.SetBudgets")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", ownerID), attribute.Int("budgets", len(budgets)))
	defer func(start time.Time) {
		finish(span, s.metrics, s.logger, "set_budgets", start, err,
			zap.String("user_id", ownerID), zap.Int("budgets", len(budgets)))
	}(time.Now())

	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}

	saved = make([]domain.Budget, 0, len(budgets))
	seen := make(map[string]bool, len(budgets))
	for _, b := range budgets {
		b.Category = strings.TrimSpace(b.Category)
		if err := b.Validate(); err != nil {
			return nil, errors.ErrValidation.WithDetails(err.Error())
		}
		if seen[b.Category] {
			return nil, errors.ErrValidation.WithDetails("duplicate budget category " + b.Category)
		}
		seen[b.Category] = true
		saved = append(saved, b)
	}

	if err := s.store.Budgets().Save(ctx, ownerID, saved); err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *PlanningService) ListBudgets(ctx context.Context, ownerID string) ([]domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "PlanningService.ListBudgets")
	defer span.End()

	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	return s.store.Budgets().Load(ctx, ownerID)
}

// BudgetStatus evaluates every budget against this month's expenses.
func (s *PlanningService) BudgetStatus(ctx context.Context, ownerID string) ([]projection.BudgetStatus, error) {
	ctx, span := tracer.Start(ctx, "PlanningService.BudgetStatus")
	defer span.End()

	budgets, err := s.ListBudgets(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	entries, err := s.spendingEntries(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	statuses := projection.CheckAllBudgets(budgets, projection.EntriesInMonth(entries, s.env.Now()))
	if statuses == nil {
		statuses = []projection.BudgetStatus{}
	}
	return statuses, nil
}

// BudgetAlerts raises an alert for every budget at or above the warning
// threshold this month and appends them to the owner's alert history, which
// keeps the latest AlertHistoryLimit alerts.
func (s *PlanningService) BudgetAlerts(ctx context.Context, ownerID string) (raised []domain.BudgetAlert, err error) {
	ctx, span := tracer.Start(ctx, "PlanningService.BudgetAlerts")
	defer span.End()
	defer func(start time.Time) {
		finish(span, s.metrics, s.logger, "budget_alerts", start, err,
			zap.String("user_id", ownerID), zap.Int("raised", len(raised)))
	}(time.Now())

	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}

	now := s.env.Now()
	err = s.store.WithTransaction(ctx, func(tx *repository.Store) error {
		budgets, err := tx.Budgets().Load(ctx, ownerID)
		if err != nil {
			return err
		}
		entries, err := spendingEntries(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		history, err := tx.Alerts().Load(ctx, ownerID)
		if err != nil {
			return err
		}

		raised = []domain.BudgetAlert{}
		statuses := projection.CheckAllBudgets(budgets, projection.EntriesInMonth(entries, now))
		for _, st := range projection.ActiveAlerts(statuses) {
			raised = append(raised, domain.BudgetAlert{
				Category:   st.Category,
				Limit:      st.Limit,
				Spent:      st.Spent,
				Percentage: st.Percentage,
				Status:     string(st.Status),
				Message:    projection.AlertMessage(st, s.env.Currency),
				RaisedAt:   now,
			})
		}
		if len(raised) == 0 {
			return nil
		}

		history = append(history, raised...)
		if len(history) > AlertHistoryLimit {
			history = history[len(history)-AlertHistoryLimit:]
		}
		return tx.Alerts().Save(ctx, ownerID, history)
	})
	if err != nil {
		return nil, err
	}

	for _, a := range raised {
		s.metrics.IncrBudgetAlert(a.Status)
	}
	return raised, nil
}

// AlertHistory returns the stored alerts, newest first.
func (s *PlanningService) AlertHistory(ctx context.Context, ownerID string) ([]domain.BudgetAlert, error) {
	ctx, span := tracer.Start(ctx, "PlanningService.AlertHistory")
	defer span.End()

	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	history, err := s.store.Alerts().Load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return history, nil
}

func (s *PlanningService) Velocity(ctx context.Context, ownerID string) (projection.Velocity, error) {
	ctx, span := tracer.Start(ctx, "PlanningService.Velocity")
	defer span.End()

	budgets, err := s.ListBudgets(ctx, ownerID)
	if err != nil {
		return projection.Velocity{}, err
	}
	entries, err := s.spendingEntries(ctx, ownerID)
	if err != nil {
		return projection.Velocity{}, err
	}
	return projection.SpendingVelocity(entries, projection.TotalBudget(budgets), s.env.Now()), nil
}

// Insights builds the dashboard from all of the owner's collections, loaded
// concurrently.
func (s *PlanningService) Insights(ctx context.Context, ownerID string) (Insights, error) {
	ctx, span := tracer.Start(ctx, "PlanningService.Insights")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", ownerID))

	if err := requireOwner(ownerID); err != nil {
		return Insights{}, err
	}

	var (
		accounts []domain.Account
		records  []domain.TransactionRecord
		entries  []domain.Entry
		budgets  []domain.Budget
		goals    []domain.Goal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { accounts, err = s.store.Accounts().Load(gctx, ownerID); return })
	g.Go(func() (err error) { records, err = s.store.Records().Load(gctx, ownerID); return })
	g.Go(func() (err error) { entries, err = s.store.Entries().Load(gctx, ownerID); return })
	g.Go(func() (err error) { budgets, err = s.store.Budgets().Load(gctx, ownerID); return })
	g.Go(func() (err error) { goals, err = s.store.Goals().Load(gctx, ownerID); return })
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to load insights", zap.String("user_id", ownerID), zap.Error(err))
		return Insights{}, err
	}

	now := s.env.Now()
	all := append(entries, projection.EntriesFromRecords(ownerID, records)...)
	month := projection.EntriesInMonth(all, now)

	netWorth := decimal.Zero
	for _, a := range accounts {
		netWorth = netWorth.Add(a.Balance)
	}

	budgetStatus := projection.CheckAllBudgets(budgets, month)
	if budgetStatus == nil {
		budgetStatus = []projection.BudgetStatus{}
	}
	attention := projection.GoalsNeedingAttention(projection.AllGoalsProgress(goals, all, now))
	if attention == nil {
		attention = []projection.GoalReport{}
	}

	return Insights{
		NetWorth:              netWorth,
		Spending:              projection.AnalyzeSpending(month),
		TopCategories:         projection.TopCategories(month, 5),
		Overspending:          projection.OverspendingMetrics(month, budgets),
		Trend:                 projection.SpendingTrend(all, now),
		Velocity:              projection.SpendingVelocity(all, projection.TotalBudget(budgets), now),
		Budgets:               budgetStatus,
		GoalsNeedingAttention: attention,
	}, nil
}

func (s *PlanningService) spendingEntries(ctx context.Context, ownerID string) ([]domain.Entry, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	return spendingEntries(ctx, s.store, ownerID)
}

// spendingEntries joins the manual entries with the cash movements on the
// owner's bank accounts.
func spendingEntries(ctx context.Context, store *repository.Store, ownerID string) ([]domain.Entry, error) {
	entries, err := store.Entries().Load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	records, err := store.Records().Load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return append(entries, projection.EntriesFromRecords(ownerID, records)...), nil
}
