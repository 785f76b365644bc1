package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/iam-hussain/peacock-app-sub002/internal/auth"
	"github.com/iam-hussain/peacock-app-sub002/internal/domain"
	"github.com/iam-hussain/peacock-app-sub002/internal/logging"
	"github.com/iam-hussain/peacock-app-sub002/internal/service"
)

type transactionService interface {
	Create(ctx context.Context, req service.CreateTransactionRequest) (*domain.Transaction, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type TransactionHandler struct {
	txs transactionService
}

func NewTransactionHandler(txs transactionService) *TransactionHandler {
	return &TransactionHandler{txs: txs}
}

type createTransactionRequest struct {
	FromID     string `json:"from_id"`
	ToID       string `json:"to_id"`
	Amount     int64  `json:"amount"`
	Type       string `json:"type"`
	Method     string `json:"method"`
	Note       string `json:"note"`
	OccurredAt string `json:"occurred_at"`
}

func (r createTransactionRequest) Validate() []FieldError {
	var errs []FieldError

	if r.FromID == "" {
		errs = append(errs, FieldError{Field: "from_id", Message: "required"})
	} else if _, err := uuid.Parse(r.FromID); err != nil {
		errs = append(errs, FieldError{Field: "from_id", Message: "must be a UUID"})
	}

	if r.ToID == "" {
		errs = append(errs, FieldError{Field: "to_id", Message: "required"})
	} else if _, err := uuid.Parse(r.ToID); err != nil {
		errs = append(errs, FieldError{Field: "to_id", Message: "must be a UUID"})
	}

	if r.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}

	if r.Type == "" {
		errs = append(errs, FieldError{Field: "type", Message: "required"})
	} else if !domain.TransactionType(r.Type).IsValid() {
		errs = append(errs, FieldError{Field: "type", Message: "unknown transaction type"})
	}

	if r.Method == "" {
		errs = append(errs, FieldError{Field: "method", Message: "required"})
	} else if !domain.TransactionMethod(r.Method).IsValid() {
		errs = append(errs, FieldError{Field: "method", Message: "unknown transaction method"})
	}

	if r.OccurredAt != "" {
		if _, err := time.Parse(time.RFC3339, r.OccurredAt); err != nil {
			errs = append(errs, FieldError{Field: "occurred_at", Message: "must be RFC3339"})
		}
	}

	return errs
}

type transactionDTO struct {
	ID         string `json:"id"`
	FromID     string `json:"from_id"`
	ToID       string `json:"to_id"`
	Amount     int64  `json:"amount"`
	Type       string `json:"type"`
	Method     string `json:"method"`
	Note       string `json:"note,omitempty"`
	OccurredAt string `json:"occurred_at"`
	Seq        int64  `json:"seq"`
	CreatedAt  string `json:"created_at"`
	CreatedBy  string `json:"created_by"`
}

func toTransactionDTO(t *domain.Transaction) transactionDTO {
	return transactionDTO{
		ID:         t.ID.String(),
		FromID:     t.FromID.String(),
		ToID:       t.ToID.String(),
		Amount:     t.Amount,
		Type:       string(t.Type),
		Method:     string(t.Method),
		Note:       t.Note,
		OccurredAt: t.OccurredAt.UTC().Format(time.RFC3339),
		Seq:        t.Seq,
		CreatedAt:  t.CreatedAt.UTC().Format(time.RFC3339),
		CreatedBy:  t.CreatedBy,
	}
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	fromID, _ := uuid.Parse(req.FromID)
	toID, _ := uuid.Parse(req.ToID)

	var occurredAt time.Time
	if req.OccurredAt != "" {
		occurredAt, _ = time.Parse(time.RFC3339, req.OccurredAt)
	}

	t, err := h.txs.Create(r.Context(), service.CreateTransactionRequest{
		FromID:     fromID,
		ToID:       toID,
		Amount:     req.Amount,
		Type:       domain.TransactionType(req.Type),
		Method:     domain.TransactionMethod(req.Method),
		Note:       req.Note,
		OccurredAt: occurredAt,
		Actor:      actor.ActorTag(),
	})
	if err != nil {
		log.Warn("transaction creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/transactions/%s", t.ID))
	RespondSuccess(w, http.StatusCreated, toTransactionDTO(t))
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	if err := h.txs.Delete(r.Context(), id); err != nil {
		log.Warn("transaction deletion failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]string{"id": id.String()})
}
