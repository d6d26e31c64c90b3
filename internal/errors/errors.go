package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ValidationError     ErrorCode = "validation_error"
	InvalidAmount       ErrorCode = "invalid_amount"
	InvalidInput        ErrorCode = "invalid_input"
	InsufficientFunds   ErrorCode = "insufficient_funds"
	LimitExceeded       ErrorCode = "limit_exceeded"
	DailyLimitExceeded  ErrorCode = "daily_limit_exceeded"
	SameAccountTransfer ErrorCode = "same_account_transfer"
	InactiveAccount     ErrorCode = "inactive_account"
	NonZeroBalance      ErrorCode = "non_zero_balance"
	NoAccrual           ErrorCode = "no_accrual"
	AccountNotFound     ErrorCode = "account_not_found"
	GoalNotFound        ErrorCode = "goal_not_found"
	ConflictingTransfer ErrorCode = "conflicting_transfer"
	CorruptData         ErrorCode = "corrupt_data"
	StorageUnavailable  ErrorCode = "storage_unavailable"
	InternalError       ErrorCode = "internal_error"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches on the error code so that errors.Is works against the
// predefined values after WithDetails has copied them.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetails returns a copy of e carrying details; e itself is left untouched.
func (e *AppError) WithDetails(details string) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// HTTPStatus maps the error code to the status code returned by the API.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ValidationError, InvalidAmount, InvalidInput, SameAccountTransfer:
		return http.StatusBadRequest
	case AccountNotFound, GoalNotFound:
		return http.StatusNotFound
	case ConflictingTransfer:
		return http.StatusConflict
	case InsufficientFunds, LimitExceeded, DailyLimitExceeded, InactiveAccount, NonZeroBalance, NoAccrual:
		return http.StatusUnprocessableEntity
	case StorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsBusiness reports whether the code describes a rejected request rather
// than an infrastructure failure.
func (e *AppError) IsBusiness() bool {
	return e.HTTPStatus() < http.StatusInternalServerError
}

// As unwraps err into an *AppError.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Internal wraps an infrastructure failure.
func Internal(message string, err error) *AppError {
	appErr := NewAppError(InternalError, message)
	if err != nil {
		appErr.Details = err.Error()
	}
	return appErr
}

// Predefined errors for common cases
var (
	ErrValidation          = NewAppError(ValidationError, "invalid account data")
	ErrInvalidAmount       = NewAppError(InvalidAmount, "amount must be greater than zero")
	ErrInvalidInput        = NewAppError(InvalidInput, "invalid request")
	ErrInsufficientFunds   = NewAppError(InsufficientFunds, "insufficient funds")
	ErrLimitExceeded       = NewAppError(LimitExceeded, "transfer limit exceeded")
	ErrDailyLimitExceeded  = NewAppError(DailyLimitExceeded, "daily transfer limit exceeded")
	ErrSameAccountTransfer = NewAppError(SameAccountTransfer, "cannot transfer to the same account")
	ErrInactiveAccount     = NewAppError(InactiveAccount, "account is not active")
	ErrNonZeroBalance      = NewAppError(NonZeroBalance, "cannot close account with remaining balance")
	ErrNoAccrual           = NewAppError(NoAccrual, "balance insufficient for interest calculation")
	ErrAccountNotFound     = NewAppError(AccountNotFound, "account not found")
	ErrGoalNotFound        = NewAppError(GoalNotFound, "goal not found")
	ErrConflictingTransfer = NewAppError(ConflictingTransfer, "idempotency key already used for a different transfer")
	ErrCorruptData         = NewAppError(CorruptData, "stored data failed validation")
	ErrStorageUnavailable  = NewAppError(StorageUnavailable, "storage temporarily unavailable")
)
