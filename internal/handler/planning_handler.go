package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"virtual-bank/internal/domain"
	"virtual-bank/internal/service"
)

type PlanningHandler struct {
	planningService *service.PlanningService
}

func NewPlanningHandler(planningService *service.PlanningService) *PlanningHandler {
	return &PlanningHandler{
		planningService: planningService,
	}
}

type EntryRequest struct {
	AccountID   string `json:"account_id,omitempty"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
}

type GoalRequest struct {
	Name          string `json:"name"`
	TargetAmount  string `json:"target_amount"`
	CurrentAmount string `json:"current_amount,omitempty"`
	Currency      string `json:"currency,omitempty"`
	Category      string `json:"category,omitempty"`
	Deadline      string `json:"deadline"`
	Priority      string `json:"priority,omitempty"`
}

type ContributionRequest struct {
	Amount string `json:"amount"`
}

type BudgetRequest struct {
	Category string `json:"category"`
	Limit    string `json:"limit"`
	Icon     string `json:"icon,omitempty"`
}

func (h *PlanningHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req EntryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, appErr := parseAmount(req.Amount)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	date, appErr := parseDate(req.Date)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	entry, err := h.planningService.AddEntry(r.Context(), userID(r), service.EntryRequest{
		AccountID:   req.AccountID,
		Amount:      amount,
		Type:        req.Type,
		Category:    req.Category,
		Description: req.Description,
		Date:        date,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *PlanningHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.planningService.ListEntries(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *PlanningHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var req GoalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	target, appErr := parseAmount(req.TargetAmount)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	current, appErr := parseOptionalAmount(req.CurrentAmount)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	deadline, appErr := parseDate(req.Deadline)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	goal, err := h.planningService.CreateGoal(r.Context(), userID(r), service.GoalRequest{
		Name:          req.Name,
		TargetAmount:  target,
		CurrentAmount: current,
		Currency:      req.Currency,
		Category:      req.Category,
		Deadline:      deadline,
		Priority:      req.Priority,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

func (h *PlanningHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.planningService.ListGoals(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (h *PlanningHandler) Contribute(w http.ResponseWriter, r *http.Request) {
	var req ContributionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, appErr := parseAmount(req.Amount)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	goal, err := h.planningService.Contribute(r.Context(), userID(r), mux.Vars(r)["goal_id"], amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (h *PlanningHandler) AllGoalsProgress(w http.ResponseWriter, r *http.Request) {
	reports, err := h.planningService.AllGoalsProgress(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (h *PlanningHandler) GoalProgress(w http.ResponseWriter, r *http.Request) {
	report, err := h.planningService.GoalProgress(r.Context(), userID(r), mux.Vars(r)["goal_id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *PlanningHandler) GoalProjection(w http.ResponseWriter, r *http.Request) {
	projection, err := h.planningService.GoalProjection(r.Context(), userID(r), mux.Vars(r)["goal_id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projection)
}

// GoalScenarios takes an optional ?daily_rate=; without it the goal's own
// saving pace is used.
func (h *PlanningHandler) GoalScenarios(w http.ResponseWriter, r *http.Request) {
	rate, appErr := parseOptionalAmount(r.URL.Query().Get("daily_rate"))
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	scenarios, err := h.planningService.GoalScenarios(r.Context(), userID(r), mux.Vars(r)["goal_id"], rate)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scenarios)
}

func (h *PlanningHandler) SetBudgets(w http.ResponseWriter, r *http.Request) {
	var req []BudgetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	budgets := make([]domain.Budget, 0, len(req))
	for _, b := range req {
		limit, appErr := parseAmount(b.Limit)
		if appErr != nil {
			writeError(w, appErr.WithDetails(b.Category))
			return
		}
		budgets = append(budgets, domain.Budget{Category: b.Category, Limit: limit, Icon: b.Icon})
	}

	saved, err := h.planningService.SetBudgets(r.Context(), userID(r), budgets)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *PlanningHandler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.planningService.ListBudgets(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (h *PlanningHandler) BudgetStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.planningService.BudgetStatus(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statuses)
}

func (h *PlanningHandler) BudgetAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.planningService.BudgetAlerts(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (h *PlanningHandler) AlertHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.planningService.AlertHistory(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *PlanningHandler) Velocity(w http.ResponseWriter, r *http.Request) {
	velocity, err := h.planningService.Velocity(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, velocity)
}

func (h *PlanningHandler) Insights(w http.ResponseWriter, r *http.Request) {
	insights, err := h.planningService.Insights(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, insights)
}
