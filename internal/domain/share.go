package domain

import (
	"time"

	"github.com/google/uuid"
)

// VendorProfitShare links a vendor to a member entitled to a weighted cut of
// the vendor's profit. Inactive links receive nothing but are retained for
// historical record. Managed by administrative flows; the profit-share
// calculator consumes them read-only.
type VendorProfitShare struct {
	ID        uuid.UUID
	VendorID  uuid.UUID
	MemberID  uuid.UUID
	Weight    int64
	Active    bool
	CreatedAt time.Time
}
