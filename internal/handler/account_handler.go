package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"virtual-bank/internal/domain"
	"virtual-bank/internal/service"
)

type AccountHandler struct {
	accountService *service.AccountService
}

func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

type CreateAccountRequest struct {
	DisplayName    string `json:"display_name"`
	AccountKind    string `json:"account_kind,omitempty"`
	InitialBalance string `json:"initial_balance,omitempty"`
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	initialBalance, appErr := parseOptionalAmount(req.InitialBalance)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	account, err := h.accountService.CreateAccount(r.Context(), userID(r), service.CreateAccountRequest{
		DisplayName:    req.DisplayName,
		Kind:           req.AccountKind,
		InitialBalance: initialBalance,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, account)
}

func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountService.ListAccounts(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountService.GetAccount(r.Context(), userID(r), mux.Vars(r)["account_id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) Statement(w http.ResponseWriter, r *http.Request) {
	limit, appErr := queryInt(r, "limit", 0)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	records, err := h.accountService.Statement(r.Context(), userID(r), mux.Vars(r)["account_id"], limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *AccountHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.accountService.Summary(r.Context(), userID(r), mux.Vars(r)["account_id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// DailyLimit reports the remaining daily transfer allowance; ?amount= checks
// a proposed transfer against it.
func (h *AccountHandler) DailyLimit(w http.ResponseWriter, r *http.Request) {
	proposed, appErr := parseOptionalAmount(r.URL.Query().Get("amount"))
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	check, err := h.accountService.DailyLimit(r.Context(), userID(r), mux.Vars(r)["account_id"], proposed)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}

func (h *AccountHandler) CloseAccount(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.accountService.CloseAccount)
}

func (h *AccountHandler) FreezeAccount(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.accountService.FreezeAccount)
}

func (h *AccountHandler) UnfreezeAccount(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.accountService.UnfreezeAccount)
}

func (h *AccountHandler) update(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, ownerID, accountID string) (domain.Account, error)) {
	account, err := op(r.Context(), userID(r), mux.Vars(r)["account_id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) Audit(w http.ResponseWriter, r *http.Request) {
	report, err := h.accountService.Audit(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
