package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iam-hussain/peacock-app-sub002/internal/domain"
	"github.com/iam-hussain/peacock-app-sub002/internal/logging"
	"github.com/iam-hussain/peacock-app-sub002/internal/recalc"
)

type accountRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

type transactionRepo interface {
	Create(ctx context.Context, t *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type recalcTrigger interface {
	RecordTransaction(ctx context.Context, persist func(context.Context) (*domain.Transaction, error)) (*recalc.Pass, error)
	RemoveTransaction(ctx context.Context, remove func(context.Context) error) (*recalc.Pass, error)
}

// TransactionService is the ledger's write path: it validates entries before
// they reach the log and hands every accepted mutation to the orchestrator,
// so passbooks are always re-derived, never patched by the caller.
type TransactionService struct {
	accounts accountRepo
	txs      transactionRepo
	recalc   recalcTrigger
}

func NewTransactionService(accounts accountRepo, txs transactionRepo, recalc recalcTrigger) *TransactionService {
	return &TransactionService{accounts: accounts, txs: txs, recalc: recalc}
}

type CreateTransactionRequest struct {
	FromID     uuid.UUID
	ToID       uuid.UUID
	Amount     int64
	Type       domain.TransactionType
	Method     domain.TransactionMethod
	Note       string
	OccurredAt time.Time
	Actor      string
}

func (s *TransactionService) Create(ctx context.Context, req CreateTransactionRequest) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)

	if err := validateCreate(req); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	if _, err := s.accounts.GetByID(ctx, req.FromID); err != nil {
		return nil, fmt.Errorf("Create: from: %w", err)
	}
	if _, err := s.accounts.GetByID(ctx, req.ToID); err != nil {
		return nil, fmt.Errorf("Create: to: %w", err)
	}

	now := time.Now().UTC()
	occurredAt := req.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = now
	}

	t := &domain.Transaction{
		ID:         uuid.New(),
		FromID:     req.FromID,
		ToID:       req.ToID,
		Amount:     req.Amount,
		Type:       req.Type,
		Method:     req.Method,
		Note:       req.Note,
		OccurredAt: occurredAt,
		CreatedAt:  now,
		CreatedBy:  req.Actor,
	}

	// Persist and replay share one lock scope: a busy recalculation pass
	// rejects the entry before the row lands, never after.
	pass, err := s.recalc.RecordTransaction(ctx, func(ctx context.Context) (*domain.Transaction, error) {
		if err := s.txs.Create(ctx, t); err != nil {
			return nil, err
		}
		return t, nil
	})
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	log.Info("transaction recorded",
		"transaction_id", t.ID,
		"type", t.Type,
		"amount", t.Amount,
		"from", t.FromID,
		"to", t.ToID,
		"accounts_updated", pass.Accounts,
	)
	return t, nil
}

// Delete removes a ledger entry. Later passbook states depended on the
// deleted row, so the whole ledger is re-derived afterwards.
func (s *TransactionService) Delete(ctx context.Context, id uuid.UUID) error {
	log := logging.FromContext(ctx)

	t, err := s.txs.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	pass, err := s.recalc.RemoveTransaction(ctx, func(ctx context.Context) error {
		return s.txs.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	log.Info("transaction deleted",
		"transaction_id", t.ID,
		"type", t.Type,
		"amount", t.Amount,
		"accounts_updated", pass.Accounts,
	)
	return nil
}

func validateCreate(req CreateTransactionRequest) error {
	if req.Amount <= 0 {
		return domain.ErrInvalidAmount
	}
	if req.FromID == uuid.Nil || req.ToID == uuid.Nil {
		return domain.ErrMissingSide
	}
	if req.FromID == req.ToID {
		return domain.ErrSelfTransfer
	}
	if !req.Type.IsValid() {
		return domain.ErrInvalidType
	}
	if !req.Method.IsValid() {
		return domain.ErrInvalidMethod
	}
	return nil
}
