package sqlstore

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/simaogato/shareledger/internal/domain"
)

// soldShareRepository implements domain.SoldShareRepository
type soldShareRepository struct {
	db *DB
}

// NewSoldShareRepository creates a new sold share repository
func NewSoldShareRepository(db *DB) domain.SoldShareRepository {
	return &soldShareRepository{db: db}
}

// List retrieves every sale joined with the symbol and purchase price of its
// holding, newest sell date first
func (r *soldShareRepository) List(ctx context.Context) ([]*domain.SoldShareView, error) {
	query := `
		SELECT s.id, s.holding_id, s.quantity, s.sell_price, s.sell_date, s.notes,
		       h.symbol, h.purchase_price
		FROM sold_shares s
		JOIN holdings h ON h.id = s.holding_id
		ORDER BY s.sell_date DESC, s.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sold shares: %w", err)
	}
	defer rows.Close()

	views := make([]*domain.SoldShareView, 0)
	for rows.Next() {
		var (
			view          domain.SoldShareView
			sellPriceStr  string
			sellDateStr   string
			purchasePrice string
		)

		if err := rows.Scan(
			&view.ID,
			&view.HoldingID,
			&view.Quantity,
			&sellPriceStr,
			&sellDateStr,
			&view.Notes,
			&view.Symbol,
			&purchasePrice,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sold share: %w", err)
		}

		if view.SellPrice, err = decimal.NewFromString(sellPriceStr); err != nil {
			return nil, fmt.Errorf("failed to parse sell_price: %w", err)
		}
		if view.PurchasePrice, err = decimal.NewFromString(purchasePrice); err != nil {
			return nil, fmt.Errorf("failed to parse purchase_price: %w", err)
		}
		if view.SellDate, err = parseStoredDate(sellDateStr); err != nil {
			return nil, fmt.Errorf("failed to parse sell_date: %w", err)
		}

		views = append(views, &view)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sold shares: %w", err)
	}

	return views, nil
}
