package domain

import "time"

type SaleStatus string

const (
	SaleStatusValid     SaleStatus = "valid"
	SaleStatusUsed      SaleStatus = "used"
	SaleStatusRefunded  SaleStatus = "refunded"
	SaleStatusCancelled SaleStatus = "cancelled"
)

// Sale is one confirmed ticket. A hold of quantity N yields N sales, all
// tagged with the same payment reference. Immutable after creation except
// for Status, which downstream operations move to used/refunded/cancelled.
type Sale struct {
	ID               string
	ItemID           string
	HoldID           string
	BuyerID          string
	PaymentReference string
	Amount           int64
	Status           SaleStatus
	ConfirmedAt      time.Time
}
