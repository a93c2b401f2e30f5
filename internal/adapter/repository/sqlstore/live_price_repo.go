package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/shareledger/internal/domain"
)

// livePriceRepository implements domain.LivePriceRepository
type livePriceRepository struct {
	db *DB
}

// NewLivePriceRepository creates a new live price repository
func NewLivePriceRepository(db *DB) domain.LivePriceRepository {
	return &livePriceRepository{db: db}
}

// Upsert overwrites the snapshot for the price's symbol
func (r *livePriceRepository) Upsert(ctx context.Context, price *domain.LivePrice) error {
	query := r.db.rebind(`
		INSERT INTO live_prices (symbol, current_price, previous_price, last_updated)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (symbol) DO UPDATE SET
			current_price = excluded.current_price,
			previous_price = excluded.previous_price,
			last_updated = excluded.last_updated
	`)

	var previous sql.NullString
	if price.PreviousPrice != nil {
		previous = sql.NullString{String: price.PreviousPrice.String(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		price.Symbol,
		price.CurrentPrice.String(),
		previous,
		price.LastUpdated.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert live price: %w: %w", domain.ErrPersistence, err)
	}
	return nil
}

// GetBySymbol retrieves the snapshot of a symbol
func (r *livePriceRepository) GetBySymbol(ctx context.Context, symbol string) (*domain.LivePrice, error) {
	query := r.db.rebind(`SELECT symbol, current_price, previous_price, last_updated FROM live_prices WHERE symbol = ?`)

	price, err := scanLivePrice(r.db.QueryRowContext(ctx, query, symbol))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no live price for %s", domain.ErrNotFound, symbol)
		}
		return nil, fmt.Errorf("failed to get live price: %w", err)
	}
	return price, nil
}

// List retrieves every snapshot ordered by symbol
func (r *livePriceRepository) List(ctx context.Context) ([]*domain.LivePrice, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT symbol, current_price, previous_price, last_updated FROM live_prices ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to list live prices: %w", err)
	}
	defer rows.Close()

	prices := make([]*domain.LivePrice, 0)
	for rows.Next() {
		price, err := scanLivePrice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan live price: %w", err)
		}
		prices = append(prices, price)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating live prices: %w", err)
	}
	return prices, nil
}

func scanLivePrice(row rowScanner) (*domain.LivePrice, error) {
	var (
		price      domain.LivePrice
		currentStr string
		previous   sql.NullString
		updatedStr string
	)

	if err := row.Scan(&price.Symbol, &currentStr, &previous, &updatedStr); err != nil {
		return nil, err
	}

	current, err := decimal.NewFromString(currentStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse current_price: %w", err)
	}
	price.CurrentPrice = current

	if previous.Valid {
		prev, err := decimal.NewFromString(previous.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse previous_price: %w", err)
		}
		price.PreviousPrice = &prev
	}

	if price.LastUpdated, err = time.Parse(time.RFC3339Nano, updatedStr); err != nil {
		return nil, fmt.Errorf("failed to parse last_updated: %w", err)
	}

	return &price, nil
}
