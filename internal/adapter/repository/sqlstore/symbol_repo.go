package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/simaogato/shareledger/internal/domain"
)

// symbolRepository implements domain.SymbolRepository
type symbolRepository struct {
	db *DB
}

// NewSymbolRepository creates a new stock symbol repository
func NewSymbolRepository(db *DB) domain.SymbolRepository {
	return &symbolRepository{db: db}
}

// Upsert inserts or refreshes a symbol
func (r *symbolRepository) Upsert(ctx context.Context, symbol *domain.Symbol) error {
	query := r.db.rebind(`
		INSERT INTO stock_symbols (symbol, name, exchange, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (symbol) DO UPDATE SET
			name = excluded.name,
			exchange = excluded.exchange,
			updated_at = excluded.updated_at
	`)

	_, err := r.db.ExecContext(ctx, query,
		symbol.Symbol,
		symbol.Name,
		symbol.Exchange,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert symbol: %w: %w", domain.ErrPersistence, err)
	}
	return nil
}

// GetBySymbol retrieves a cached symbol
func (r *symbolRepository) GetBySymbol(ctx context.Context, symbol string) (*domain.Symbol, error) {
	query := r.db.rebind(`SELECT symbol, name, exchange FROM stock_symbols WHERE symbol = ?`)

	var s domain.Symbol
	err := r.db.QueryRowContext(ctx, query, symbol).Scan(&s.Symbol, &s.Name, &s.Exchange)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: symbol %s", domain.ErrNotFound, symbol)
		}
		return nil, fmt.Errorf("failed to get symbol: %w", err)
	}
	return &s, nil
}

// List retrieves every cached symbol ordered by ticker
func (r *symbolRepository) List(ctx context.Context) ([]*domain.Symbol, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT symbol, name, exchange FROM stock_symbols ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}
	defer rows.Close()

	symbols := make([]*domain.Symbol, 0)
	for rows.Next() {
		var s domain.Symbol
		if err := rows.Scan(&s.Symbol, &s.Name, &s.Exchange); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbols: %w", err)
	}
	return symbols, nil
}
