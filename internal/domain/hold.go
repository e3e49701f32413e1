package domain

import "time"

type HoldStatus string

const (
	HoldStatusOffered   HoldStatus = "offered"
	HoldStatusPurchased HoldStatus = "purchased"
	HoldStatusExpired   HoldStatus = "expired"
)

// Hold is a time-bounded provisional reservation of capacity for one buyer.
// A hold transitions offered -> purchased or offered -> expired, never both
// and never backward. Holds are retained forever as audit records.
type Hold struct {
	ID       string
	ItemID   string
	BuyerID  string
	Quantity int
	Status   HoldStatus
	// PaymentReference is recorded when the hold is purchased; empty before.
	PaymentReference string
	ExpiresAt        time.Time
	CreatedAt        time.Time
}

// Active reports whether the hold still reserves capacity at the given
// instant. A stale offered hold no longer counts as active even before the
// sweeper has reclaimed it.
func (h Hold) Active(now time.Time) bool {
	return h.Status == HoldStatusOffered && h.ExpiresAt.After(now)
}
