package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"
)

// HoldingStatus represents the lifecycle state of a holding
type HoldingStatus string

const (
	HoldingStatusActive HoldingStatus = "active"
	HoldingStatusSold   HoldingStatus = "sold"
)

// DateLayout is the calendar-date format used for purchase and sell dates
const DateLayout = "2006-01-02"

// Holding represents a position opened by a single purchase
type Holding struct {
	ID            int64
	Symbol        string
	Quantity      int64
	PurchasePrice decimal.Decimal
	PurchaseDate  time.Time
	Notes         string
	Status        HoldingStatus
}

// Validate ensures the holding adheres to domain rules
// CRITICAL: status is sold if and only if quantity is zero
func (h *Holding) Validate() error {
	if strings.TrimSpace(h.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidInput)
	}
	if h.PurchasePrice.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: purchase price must be positive", ErrInvalidInput)
	}

	switch h.Status {
	case HoldingStatusActive:
		if h.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
		}
	case HoldingStatusSold:
		if h.Quantity != 0 {
			return fmt.Errorf("%w: sold holding must have zero quantity", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown holding status %q", ErrInvalidInput, h.Status)
	}

	return nil
}

// IsActive reports whether the holding can still be sold or edited
func (h *Holding) IsActive() bool {
	return h.Status == HoldingStatusActive
}

// Investment returns the cost basis of the remaining shares
func (h *Holding) Investment() decimal.Decimal {
	return h.PurchasePrice.Mul(decimal.NewFromInt(h.Quantity))
}

// ApplySale moves the holding to its post-sale state.
// Logic:
// - sold holdings are rejected with ErrNotFound
// - quantity above the remaining shares is rejected with ErrInsufficientShares
// - a full sale zeroes the quantity, marks the holding sold and overwrites its notes
// - a partial sale only decrements the quantity
func (h *Holding) ApplySale(quantity int64, notes string) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be a positive integer", ErrInvalidInput)
	}
	if !h.IsActive() {
		return fmt.Errorf("%w: holding %d is already sold", ErrNotFound, h.ID)
	}
	if quantity > h.Quantity {
		return fmt.Errorf("%w: requested %d, available %d", ErrInsufficientShares, quantity, h.Quantity)
	}

	if quantity == h.Quantity {
		h.Quantity = 0
		h.Status = HoldingStatusSold
		h.Notes = notes
		return nil
	}

	h.Quantity -= quantity
	return nil
}

// HoldingUpdate carries the editable fields of an active holding
type HoldingUpdate struct {
	Quantity      int64
	PurchasePrice decimal.Decimal
	PurchaseDate  time.Time
	Notes         string
}

// Validate ensures the edit keeps the holding valid
func (u *HoldingUpdate) Validate() error {
	if u.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	if u.PurchasePrice.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: purchase price must be positive", ErrInvalidInput)
	}
	if u.PurchaseDate.IsZero() {
		return fmt.Errorf("%w: purchase date is required", ErrInvalidInput)
	}
	return nil
}

// ParseQuantity parses a share count. Only strictly positive integers are accepted.
func ParseQuantity(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: quantity is required", ErrInvalidInput)
	}
	q, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: quantity %q is not an integer", ErrInvalidInput, raw)
	}
	if q <= 0 {
		return 0, fmt.Errorf("%w: quantity must be a positive integer", ErrInvalidInput)
	}
	return q, nil
}

// ParsePrice parses a strictly positive decimal amount
func ParsePrice(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	p, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q is not a number", ErrInvalidInput, field, raw)
	}
	if p.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("%w: %s must be positive", ErrInvalidInput, field)
	}
	return p, nil
}

// dateParser reads the date shapes browsers and scripts send. Day-first
// layouts such as 05/03/2024 are rejected.
var dateParser = &now.Config{
	WeekStartDay: time.Monday,
	TimeLocation: time.UTC,
	TimeFormats: []string{
		DateLayout,
		"2006-1-2",
		"2006/01/02",
		"2006/1/2",
		"2006.01.02",
		"20060102",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		time.RFC3339,
		time.RFC3339Nano,
	},
}

// ParseDate accepts a calendar date, a browser datetime-local value or an
// RFC 3339 timestamp and returns the calendar date in UTC
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	t, err := dateParser.Parse(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, raw)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}
