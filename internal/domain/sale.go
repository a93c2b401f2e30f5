package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SoldShare represents an immutable sale event against a holding
type SoldShare struct {
	ID        int64
	HoldingID int64
	Quantity  int64
	SellPrice decimal.Decimal
	SellDate  time.Time
	Notes     string
}

// SoldShareView is a sale event joined with the purchase it settles
type SoldShareView struct {
	SoldShare
	Symbol        string
	PurchasePrice decimal.Decimal
}

// SaleRequest describes a sell-settlement against one holding
type SaleRequest struct {
	HoldingID int64
	Quantity  int64
	SellPrice decimal.Decimal
	SellDate  time.Time
	Notes     string
}

// Validate checks the request shape. Existence and share availability are
// checked by the store inside the settlement transaction.
func (r *SaleRequest) Validate() error {
	if r.HoldingID <= 0 {
		return fmt.Errorf("%w: holding id must be a positive integer", ErrInvalidInput)
	}
	if r.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be a positive integer", ErrInvalidInput)
	}
	if r.SellPrice.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: sell price must be positive", ErrInvalidInput)
	}
	if r.SellDate.IsZero() {
		return fmt.Errorf("%w: sell date is required", ErrInvalidInput)
	}
	return nil
}

// ParseSaleRequest builds a SaleRequest from raw request values.
// The sell date is left for the caller to stamp.
func ParseSaleRequest(holdingID, quantity, sellPrice, notes string) (SaleRequest, error) {
	holdingID = strings.TrimSpace(holdingID)
	if holdingID == "" {
		return SaleRequest{}, fmt.Errorf("%w: holding id is required", ErrInvalidInput)
	}
	id, err := strconv.ParseInt(holdingID, 10, 64)
	if err != nil || id <= 0 {
		return SaleRequest{}, fmt.Errorf("%w: holding id %q must be a positive integer", ErrInvalidInput, holdingID)
	}

	qty, err := ParseQuantity(quantity)
	if err != nil {
		return SaleRequest{}, err
	}

	price, err := ParsePrice("sell price", sellPrice)
	if err != nil {
		return SaleRequest{}, err
	}

	return SaleRequest{
		HoldingID: id,
		Quantity:  qty,
		SellPrice: price,
		Notes:     notes,
	}, nil
}

// SaleResult echoes a settled sale
type SaleResult struct {
	HoldingID         int64
	Quantity          int64
	SellPrice         decimal.Decimal
	SellDate          time.Time
	RemainingQuantity int64
	Status            HoldingStatus
}
