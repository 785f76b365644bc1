package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/iam-hussain/peacock-app-sub002/internal/domain"
)

// Store is the ledger store handed to the recalculation orchestrator: reads
// from the individual repositories plus the one atomic bulk write that lands
// a recalculated passbook set.
type Store struct {
	db        *sql.DB
	accounts  *AccountRepository
	txs       *TransactionRepository
	passbooks *PassbookRepository
	shares    *ProfitShareRepository
	summaries *SummaryRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:        db,
		accounts:  NewAccountRepository(db),
		txs:       NewTransactionRepository(db),
		passbooks: NewPassbookRepository(db),
		shares:    NewProfitShareRepository(db),
		summaries: NewSummaryRepository(db),
	}
}

func (s *Store) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return s.accounts.List(ctx)
}

func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.accounts.GetByID(ctx, id)
}

func (s *Store) GetPassbook(ctx context.Context, accountID uuid.UUID) (*domain.Passbook, error) {
	return s.passbooks.GetByAccountID(ctx, accountID)
}

func (s *Store) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return s.txs.List(ctx)
}

func (s *Store) ListTransactionsByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error) {
	return s.txs.ListByAccount(ctx, accountID)
}

func (s *Store) ListProfitShares(ctx context.Context) ([]domain.VendorProfitShare, error) {
	return s.shares.List(ctx)
}

// CommitRecalculation lands the whole recalculated set in one serializable
// transaction: either every passbook (and, when provided, the full summary
// series) is written, or nothing is. A serialization failure surfaces as
// ErrCommitConflict, which the caller may retry from LOADING since nothing
// was written.
func (s *Store) CommitRecalculation(ctx context.Context, passbooks map[uuid.UUID]*domain.Passbook, summaries []domain.Summary) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("CommitRecalculation: begin tx: %w", err)
	}
	defer tx.Rollback()

	// Deterministic write order keeps concurrent committers from deadlocking.
	ids := make([]uuid.UUID, 0, len(passbooks))
	for id := range passbooks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	for _, id := range ids {
		if err := s.passbooks.Upsert(ctx, tx, passbooks[id]); err != nil {
			return fmt.Errorf("CommitRecalculation: account %s: %w", id, err)
		}
	}

	if summaries != nil {
		if err := s.summaries.ReplaceAll(ctx, tx, summaries); err != nil {
			return fmt.Errorf("CommitRecalculation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		if isSerializationFailure(err) {
			return fmt.Errorf("CommitRecalculation: %w", domain.ErrCommitConflict)
		}
		return fmt.Errorf("CommitRecalculation: commit: %w", err)
	}
	return nil
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// serialization_failure, deadlock_detected
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}
