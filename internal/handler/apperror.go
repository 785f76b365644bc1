package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken     = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken     = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrForbidden        = &AppError{http.StatusForbidden, "FORBIDDEN", "Insufficient privileges for this operation"}
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidAmount     = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrMissingSide       = &AppError{http.StatusBadRequest, "MISSING_SIDE", "Both from and to accounts are required"}
	ErrSelfTransfer      = &AppError{http.StatusUnprocessableEntity, "SELF_TRANSFER_NOT_ALLOWED", "Cannot transact with the same account"}
	ErrInvalidType       = &AppError{http.StatusBadRequest, "INVALID_TYPE", "Unknown transaction type"}
	ErrInvalidMethod     = &AppError{http.StatusBadRequest, "INVALID_METHOD", "Unknown transaction method"}
	ErrAccountNotFound   = &AppError{http.StatusUnprocessableEntity, "ACCOUNT_NOT_FOUND", "Account not found"}
	ErrCommitConflict    = &AppError{http.StatusConflict, "COMMIT_CONFLICT", "Ledger changed during recalculation, please retry"}
	ErrRecalcInProgress  = &AppError{http.StatusConflict, "RECALCULATION_IN_PROGRESS", "A recalculation pass is already running"}
	ErrNoEligibleMembers = &AppError{http.StatusUnprocessableEntity, "NO_ELIGIBLE_MEMBERS", "No eligible members to distribute to"}
)
