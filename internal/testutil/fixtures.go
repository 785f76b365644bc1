package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/iam-hussain/peacock-app-sub002/internal/domain"
)

var ClubAccountID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

var ClubStartedAt = time.Date(2020, 9, 1, 0, 0, 0, 0, time.UTC)

func SeedClubAccount(t *testing.T, db *sql.DB) uuid.UUID {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO accounts (id, username, display_name, kind, active, start_at)
		 VALUES ($1, $2, $3, $4, TRUE, $5)
		 ON CONFLICT (id) DO NOTHING`,
		ClubAccountID, "club", "Club Treasury", domain.AccountKindClub, ClubStartedAt,
	)
	if err != nil {
		t.Fatalf("seed club account: %v", err)
	}
	return ClubAccountID
}

func SeedAccount(t *testing.T, db *sql.DB, username string, kind domain.AccountKind, startAt time.Time) *domain.Account {
	t.Helper()

	a := &domain.Account{
		ID:          uuid.New(),
		Username:    username,
		DisplayName: username,
		Kind:        kind,
		Active:      true,
		StartAt:     startAt,
	}
	_, err := db.Exec(
		`INSERT INTO accounts (id, username, display_name, kind, active, start_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.Username, a.DisplayName, a.Kind, a.Active, a.StartAt,
	)
	if err != nil {
		t.Fatalf("seed account %s: %v", username, err)
	}
	return a
}

func SeedTransaction(t *testing.T, db *sql.DB, from, to uuid.UUID, amount int64, txType domain.TransactionType, occurredAt time.Time) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(
		`INSERT INTO transactions (id, from_id, to_id, amount, type, method, occurred_at, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, 'fixture')`,
		id, from, to, amount, txType, domain.MethodCash, occurredAt,
	)
	if err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	return id
}

func SeedProfitShare(t *testing.T, db *sql.DB, vendorID, memberID uuid.UUID, weight int64) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(
		`INSERT INTO vendor_profit_shares (id, vendor_id, member_id, weight, active)
		 VALUES ($1, $2, $3, $4, TRUE)`,
		id, vendorID, memberID, weight,
	)
	if err != nil {
		t.Fatalf("seed profit share: %v", err)
	}
	return id
}
