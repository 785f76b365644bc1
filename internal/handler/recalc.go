package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/iam-hussain/peacock-app-sub002/internal/logging"
	"github.com/iam-hussain/peacock-app-sub002/internal/recalc"
)

type recalcService interface {
	Full(ctx context.Context) (*recalc.Pass, error)
	Targeted(ctx context.Context, accountID uuid.UUID) (*recalc.Pass, error)
	RebuildSummaries(ctx context.Context) (*recalc.Pass, error)
}

type RecalcHandler struct {
	recalc recalcService
}

func NewRecalcHandler(recalc recalcService) *RecalcHandler {
	return &RecalcHandler{recalc: recalc}
}

type recalcRequest struct {
	AccountID string `json:"account_id"`
}

type anomalyDTO struct {
	AccountID     string `json:"account_id"`
	TransactionID string `json:"transaction_id,omitempty"`
	Kind          string `json:"kind"`
	Detail        string `json:"detail"`
}

type passDTO struct {
	State      string       `json:"state"`
	Accounts   int          `json:"accounts"`
	Anomalies  []anomalyDTO `json:"anomalies"`
	StartedAt  string       `json:"started_at"`
	FinishedAt string       `json:"finished_at"`
}

func toPassDTO(p *recalc.Pass) passDTO {
	dto := passDTO{
		State:      string(p.State),
		Accounts:   p.Accounts,
		Anomalies:  []anomalyDTO{},
		StartedAt:  p.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt: p.FinishedAt.UTC().Format(time.RFC3339),
	}
	for _, a := range p.Anomalies {
		d := anomalyDTO{
			AccountID: a.AccountID.String(),
			Kind:      string(a.Kind),
			Detail:    a.Detail,
		}
		if a.TransactionID != nil {
			d.TransactionID = a.TransactionID.String()
		}
		dto.Anomalies = append(dto.Anomalies, d)
	}
	return dto
}

// Recalculate replays the ledger. An empty body, or one without an
// account_id, requests a full reset; with an account_id only that
// account's passbook is rebuilt.
func (h *RecalcHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req recalcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	var (
		pass *recalc.Pass
		err  error
	)
	if req.AccountID == "" {
		pass, err = h.recalc.Full(r.Context())
	} else {
		accountID, parseErr := uuid.Parse(req.AccountID)
		if parseErr != nil {
			RespondValidationError(w, []FieldError{{Field: "account_id", Message: "must be a UUID"}})
			return
		}
		pass, err = h.recalc.Targeted(r.Context(), accountID)
	}
	if err != nil {
		log.Warn("recalculation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toPassDTO(pass))
}

func (h *RecalcHandler) RebuildSummaries(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	pass, err := h.recalc.RebuildSummaries(r.Context())
	if err != nil {
		log.Warn("summary rebuild failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toPassDTO(pass))
}
