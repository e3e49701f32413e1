package domain

import "errors"

var (
	ErrItemNotFound          = errors.New("catalog item not found")
	ErrInsufficientCapacity  = errors.New("insufficient capacity")
	ErrInvalidQuantity       = errors.New("invalid quantity")
	ErrBuyerRequired         = errors.New("buyer id required")
	ErrHoldNotFound          = errors.New("hold not found")
	ErrOfferExpired          = errors.New("offer expired")
	ErrAmountMismatch        = errors.New("amount does not match catalog total")
	ErrPaymentConflict       = errors.New("hold already purchased with a different payment reference")
	ErrItemMismatch          = errors.New("confirmation items do not match the hold")
	ErrMalformedNotification = errors.New("payment notification missing required metadata")
	ErrDuplicateOffer        = errors.New("buyer already has an active offer for this item")
	ErrInvalidID             = errors.New("invalid id")
	ErrItemNameRequired      = errors.New("item name required")
	ErrInvalidCapacity       = errors.New("invalid capacity")
	ErrInvalidPrice          = errors.New("invalid price")
)
