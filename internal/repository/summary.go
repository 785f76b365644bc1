package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iam-hussain/peacock-app-sub002/internal/domain"
)

type SummaryRepository struct {
	db *sql.DB
}

func NewSummaryRepository(db *sql.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

func (r *SummaryRepository) List(ctx context.Context) ([]domain.Summary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, month, member_count, total_deposits, total_balance, net_value, generated_at
		 FROM summaries ORDER BY month`,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var summaries []domain.Summary
	for rows.Next() {
		var s domain.Summary
		if err := rows.Scan(&s.ID, &s.Month, &s.MemberCount, &s.TotalDeposits, &s.TotalBalance, &s.NetValue, &s.GeneratedAt); err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return summaries, nil
}

// ReplaceAll swaps the whole snapshot series inside the caller's transaction.
// Summaries are never patched row by row.
func (r *SummaryRepository) ReplaceAll(ctx context.Context, tx *sql.Tx, summaries []domain.Summary) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM summaries`); err != nil {
		return fmt.Errorf("ReplaceAll: clear: %w", err)
	}

	for i := range summaries {
		s := &summaries[i]
		_, err := tx.ExecContext(ctx,
			`INSERT INTO summaries (id, month, member_count, total_deposits, total_balance, net_value, generated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			s.ID, s.Month, s.MemberCount, s.TotalDeposits, s.TotalBalance, s.NetValue, s.GeneratedAt,
		)
		if err != nil {
			return fmt.Errorf("ReplaceAll: insert %s: %w", s.Month, err)
		}
	}
	return nil
}
