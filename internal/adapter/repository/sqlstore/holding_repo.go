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

// holdingRepository implements domain.HoldingRepository
type holdingRepository struct {
	db *DB
}

// NewHoldingRepository creates a new holding repository
func NewHoldingRepository(db *DB) domain.HoldingRepository {
	return &holdingRepository{db: db}
}

const holdingColumns = `id, symbol, quantity, purchase_price, purchase_date, notes, status`

// Create inserts a holding and assigns the store-generated ID
func (r *holdingRepository) Create(ctx context.Context, holding *domain.Holding) error {
	if holding.Status == "" {
		holding.Status = domain.HoldingStatusActive
	}
	if err := holding.Validate(); err != nil {
		return err
	}

	query := r.db.rebind(`
		INSERT INTO holdings (symbol, quantity, purchase_price, purchase_date, notes, status)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`)

	err := r.db.QueryRowContext(ctx, query,
		holding.Symbol,
		holding.Quantity,
		holding.PurchasePrice.String(),
		holding.PurchaseDate.Format(domain.DateLayout),
		holding.Notes,
		string(holding.Status),
	).Scan(&holding.ID)
	if err != nil {
		return fmt.Errorf("failed to create holding: %w: %w", domain.ErrPersistence, err)
	}

	return nil
}

// GetByID retrieves a holding by its ID
func (r *holdingRepository) GetByID(ctx context.Context, id int64) (*domain.Holding, error) {
	return r.getByID(ctx, r.db, id, false)
}

func (r *holdingRepository) getByID(ctx context.Context, q querier, id int64, forUpdate bool) (*domain.Holding, error) {
	query := `SELECT ` + holdingColumns + ` FROM holdings WHERE id = ?`
	if forUpdate && r.db.dialect == DialectPostgres {
		query += ` FOR UPDATE`
	}

	holding, err := scanHolding(q.QueryRowContext(ctx, r.db.rebind(query), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: holding %d", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get holding by ID: %w", err)
	}
	return holding, nil
}

// List retrieves holdings, newest purchase first
// If statusFilter is empty, returns all holdings
func (r *holdingRepository) List(ctx context.Context, statusFilter domain.HoldingStatus) ([]*domain.Holding, error) {
	var (
		rows *sql.Rows
		err  error
	)

	if statusFilter == "" {
		query := `SELECT ` + holdingColumns + ` FROM holdings ORDER BY purchase_date DESC, id DESC`
		rows, err = r.db.QueryContext(ctx, query)
	} else {
		query := r.db.rebind(`SELECT ` + holdingColumns + ` FROM holdings WHERE status = ? ORDER BY purchase_date DESC, id DESC`)
		rows, err = r.db.QueryContext(ctx, query, string(statusFilter))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	defer rows.Close()

	holdings := make([]*domain.Holding, 0)
	for rows.Next() {
		holding, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, holding)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}

// Update edits an active holding. Sold holdings are left untouched and
// report zero changes.
func (r *holdingRepository) Update(ctx context.Context, id int64, update domain.HoldingUpdate) (int64, error) {
	if err := update.Validate(); err != nil {
		return 0, err
	}

	query := r.db.rebind(`
		UPDATE holdings
		SET quantity = ?, purchase_price = ?, purchase_date = ?, notes = ?
		WHERE id = ? AND status = ?
	`)

	result, err := r.db.ExecContext(ctx, query,
		update.Quantity,
		update.PurchasePrice.String(),
		update.PurchaseDate.Format(domain.DateLayout),
		update.Notes,
		id,
		string(domain.HoldingStatusActive),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update holding: %w: %w", domain.ErrPersistence, err)
	}

	changes, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w: %w", domain.ErrPersistence, err)
	}
	return changes, nil
}

// Sell settles a sale in one database transaction.
// Logic:
// 1. Lock the holding (store mutex, plus FOR UPDATE on PostgreSQL)
// 2. Apply the sale rules to the loaded holding (NotFound / InsufficientShares)
// 3. Insert the sold_shares row
// 4. Update the holding guarded by its previous quantity
// Any failure after BEGIN rolls back both writes.
func (r *holdingRepository) Sell(ctx context.Context, req domain.SaleRequest) (*domain.SaleResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.db.sellMu.Lock()
	defer r.db.sellMu.Unlock()

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w: %w", domain.ErrPersistence, err)
	}
	defer dbTx.Rollback()

	holding, err := r.getByID(ctx, dbTx, req.HoldingID, true)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	previousQuantity := holding.Quantity
	if err := holding.ApplySale(req.Quantity, req.Notes); err != nil {
		return nil, err
	}

	insertQuery := r.db.rebind(`
		INSERT INTO sold_shares (holding_id, quantity, sell_price, sell_date, notes)
		VALUES (?, ?, ?, ?, ?)
	`)
	_, err = dbTx.ExecContext(ctx, insertQuery,
		req.HoldingID,
		req.Quantity,
		req.SellPrice.String(),
		req.SellDate.Format(domain.DateLayout),
		req.Notes,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert sold share: %w: %w", domain.ErrPersistence, err)
	}

	updateQuery := r.db.rebind(`
		UPDATE holdings
		SET quantity = ?, status = ?, notes = ?
		WHERE id = ? AND status = ? AND quantity = ?
	`)
	result, err := dbTx.ExecContext(ctx, updateQuery,
		holding.Quantity,
		string(holding.Status),
		holding.Notes,
		holding.ID,
		string(domain.HoldingStatusActive),
		previousQuantity,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update holding: %w: %w", domain.ErrPersistence, err)
	}
	if n, err := result.RowsAffected(); err != nil || n != 1 {
		return nil, fmt.Errorf("failed to update holding %d: %w: concurrent modification", holding.ID, domain.ErrPersistence)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w: %w", domain.ErrPersistence, err)
	}

	return &domain.SaleResult{
		HoldingID:         req.HoldingID,
		Quantity:          req.Quantity,
		SellPrice:         req.SellPrice,
		SellDate:          req.SellDate,
		RemainingQuantity: holding.Quantity,
		Status:            holding.Status,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHolding(row rowScanner) (*domain.Holding, error) {
	var (
		holding  domain.Holding
		priceStr string
		dateStr  string
		status   string
	)

	if err := row.Scan(
		&holding.ID,
		&holding.Symbol,
		&holding.Quantity,
		&priceStr,
		&dateStr,
		&holding.Notes,
		&status,
	); err != nil {
		return nil, err
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse purchase_price: %w", err)
	}
	holding.PurchasePrice = price

	date, err := parseStoredDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse purchase_date: %w", err)
	}
	holding.PurchaseDate = date
	holding.Status = domain.HoldingStatus(status)

	return &holding, nil
}

// parseStoredDate reads calendar dates, tolerating full timestamps written by older versions
func parseStoredDate(s string) (time.Time, error) {
	if t, err := time.Parse(domain.DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
