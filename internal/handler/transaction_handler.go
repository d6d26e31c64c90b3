package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"virtual-bank/internal/service"
)

type TransactionHandler struct {
	transactionService *service.TransactionService
}

func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

type MovementRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

type TransferRequest struct {
	FromAccountID  string `json:"from_account_id"`
	ToAccountID    string `json:"to_account_id"`
	Amount         string `json:"amount"`
	Description    string `json:"description,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req MovementRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, appErr := parseAmount(req.Amount)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	movement, err := h.transactionService.Deposit(r.Context(), userID(r), mux.Vars(r)["account_id"], amount, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, movement)
}

func (h *TransactionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req MovementRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, appErr := parseAmount(req.Amount)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	movement, err := h.transactionService.Withdraw(r.Context(), userID(r), mux.Vars(r)["account_id"], amount, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, movement)
}

// Transfer answers 201 for a new transfer and 200 when an idempotency key
// replays an earlier one.
func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, appErr := parseAmount(req.Amount)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	outcome, err := h.transactionService.Transfer(r.Context(), userID(r), service.TransferRequest{
		FromAccountID:  req.FromAccountID,
		ToAccountID:    req.ToAccountID,
		Amount:         amount,
		Description:    req.Description,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if outcome.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, outcome)
}

func (h *TransactionHandler) ApplyInterest(w http.ResponseWriter, r *http.Request) {
	movement, err := h.transactionService.ApplyInterest(r.Context(), userID(r), mux.Vars(r)["account_id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, movement)
}

func (h *TransactionHandler) ApplyMonthlyInterest(w http.ResponseWriter, r *http.Request) {
	run, err := h.transactionService.ApplyMonthlyInterest(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}
