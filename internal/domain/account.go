package domain

import (
	"time"

	"github.com/google/uuid"
)

type AccountKind string

const (
	AccountKindMember AccountKind = "MEMBER"
	AccountKindVendor AccountKind = "VENDOR"
	AccountKindClub   AccountKind = "CLUB"
	AccountKindSystem AccountKind = "SYSTEM"
)

func (k AccountKind) IsValid() bool {
	switch k {
	case AccountKindMember, AccountKindVendor, AccountKindClub, AccountKindSystem:
		return true
	}
	return false
}

// Account kind is immutable once created; administrative flows may only
// toggle Active and set EndAt.
type Account struct {
	ID          uuid.UUID
	Username    string
	DisplayName string
	Kind        AccountKind
	Active      bool
	StartAt     time.Time
	EndAt       *time.Time
	CreatedAt   time.Time
}

// TenureMonths returns the number of whole months the account has been part
// of the club as of the given date. Tenure stops accruing at EndAt.
func (a *Account) TenureMonths(asOf time.Time) int {
	end := asOf
	if a.EndAt != nil && a.EndAt.Before(asOf) {
		end = *a.EndAt
	}
	return MonthsBetween(a.StartAt, end)
}

// MonthsBetween counts whole calendar months elapsed from one instant to
// another. Returns 0 when to precedes from.
func MonthsBetween(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
