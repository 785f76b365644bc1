package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/iam-hussain/peacock-app-sub002/internal/domain"
)

const shareColumns = `id, vendor_id, member_id, weight, active, created_at`

type ProfitShareRepository struct {
	db *sql.DB
}

func NewProfitShareRepository(db *sql.DB) *ProfitShareRepository {
	return &ProfitShareRepository{db: db}
}

func (r *ProfitShareRepository) List(ctx context.Context) ([]domain.VendorProfitShare, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+shareColumns+` FROM vendor_profit_shares ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var shares []domain.VendorProfitShare
	for rows.Next() {
		var s domain.VendorProfitShare
		if err := rows.Scan(&s.ID, &s.VendorID, &s.MemberID, &s.Weight, &s.Active, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		shares = append(shares, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return shares, nil
}

func (r *ProfitShareRepository) Create(ctx context.Context, s *domain.VendorProfitShare) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO vendor_profit_shares (id, vendor_id, member_id, weight, active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.VendorID, s.MemberID, s.Weight, s.Active, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// SetActive flips a link without deleting it; inactive links stay on record
// and simply receive no future profit cuts.
func (r *ProfitShareRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE vendor_profit_shares SET active = $2 WHERE id = $1`, id, active,
	)
	if err != nil {
		return fmt.Errorf("SetActive: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("SetActive: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("SetActive: %w", domain.ErrNotFound)
	}
	return nil
}
