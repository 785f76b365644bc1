package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/iam-hussain/peacock-app-sub002/internal/domain"
)

const passbookColumns = `account_id, kind, pb_in, pb_out, returns, distributed_returns,
	offset_total, offset_in, joining_offset, delay_offset,
	fund, balance, loan_history,
	total_investment, total_returns, total_profit,
	needs_review, review_note, recalculated_at`

type PassbookRepository struct {
	db *sql.DB
}

func NewPassbookRepository(db *sql.DB) *PassbookRepository {
	return &PassbookRepository{db: db}
}

func (r *PassbookRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*domain.Passbook, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+passbookColumns+` FROM passbooks WHERE account_id = $1`, accountID,
	)
	pb, err := scanPassbook(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByAccountID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByAccountID: %w", err)
	}
	return pb, nil
}

// Upsert writes one passbook inside the caller's transaction. Used only by
// the bulk recalculation commit; there is no single-row public write path.
func (r *PassbookRepository) Upsert(ctx context.Context, tx *sql.Tx, pb *domain.Passbook) error {
	history, err := json.Marshal(pb.LoanHistory)
	if err != nil {
		return fmt.Errorf("Upsert: marshal loan history: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO passbooks (`+passbookColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		 ON CONFLICT (account_id) DO UPDATE SET
			kind = EXCLUDED.kind,
			pb_in = EXCLUDED.pb_in,
			pb_out = EXCLUDED.pb_out,
			returns = EXCLUDED.returns,
			distributed_returns = EXCLUDED.distributed_returns,
			offset_total = EXCLUDED.offset_total,
			offset_in = EXCLUDED.offset_in,
			joining_offset = EXCLUDED.joining_offset,
			delay_offset = EXCLUDED.delay_offset,
			fund = EXCLUDED.fund,
			balance = EXCLUDED.balance,
			loan_history = EXCLUDED.loan_history,
			total_investment = EXCLUDED.total_investment,
			total_returns = EXCLUDED.total_returns,
			total_profit = EXCLUDED.total_profit,
			needs_review = EXCLUDED.needs_review,
			review_note = EXCLUDED.review_note,
			recalculated_at = EXCLUDED.recalculated_at`,
		pb.AccountID, pb.Kind, pb.In, pb.Out, pb.Returns, pb.DistributedReturns,
		pb.Offset, pb.OffsetIn, pb.JoiningOffset, pb.DelayOffset,
		pb.Fund, pb.Balance, history,
		pb.TotalInvestment, pb.TotalReturns, pb.TotalProfit,
		pb.NeedsReview, pb.ReviewNote, pb.RecalculatedAt,
	)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}

func scanPassbook(s scanner) (*domain.Passbook, error) {
	var pb domain.Passbook
	var history []byte
	err := s.Scan(&pb.AccountID, &pb.Kind, &pb.In, &pb.Out, &pb.Returns, &pb.DistributedReturns,
		&pb.Offset, &pb.OffsetIn, &pb.JoiningOffset, &pb.DelayOffset,
		&pb.Fund, &pb.Balance, &history,
		&pb.TotalInvestment, &pb.TotalReturns, &pb.TotalProfit,
		&pb.NeedsReview, &pb.ReviewNote, &pb.RecalculatedAt)
	if err != nil {
		return nil, err
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &pb.LoanHistory); err != nil {
			return nil, fmt.Errorf("unmarshal loan history: %w", err)
		}
	}
	return &pb, nil
}
