package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for items and batches.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateItem inserts an item. A SKU collision maps to ErrDuplicateSKU.
func (r *Repository) CreateItem(ctx context.Context, item Item) (Item, error) {
	item.ID = uuid.NewString()
	_, err := r.pool.Exec(ctx, `INSERT INTO items (id, sku, name, unit, length_cm, width_cm, height_cm, actual_weight_kg, volume_m3)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		item.ID, item.SKU, item.Name, item.Unit, item.LengthCm, item.WidthCm, item.HeightCm, item.ActualWeightKg, item.VolumeM3)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Item{}, ErrDuplicateSKU
		}
		return Item{}, err
	}
	return item, nil
}

// GetItem returns an item by id.
func (r *Repository) GetItem(ctx context.Context, id string) (Item, error) {
	var item Item
	err := r.pool.QueryRow(ctx, `SELECT id, sku, name, unit, length_cm, width_cm, height_cm, actual_weight_kg, volume_m3 FROM items WHERE id = $1`, id).
		Scan(&item.ID, &item.SKU, &item.Name, &item.Unit, &item.LengthCm, &item.WidthCm, &item.HeightCm, &item.ActualWeightKg, &item.VolumeM3)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrItemNotFound
		}
		return Item{}, err
	}
	return item, nil
}

// ListItems returns all items ordered by name.
func (r *Repository) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, sku, name, unit, length_cm, width_cm, height_cm, actual_weight_kg, volume_m3 FROM items ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.SKU, &item.Name, &item.Unit, &item.LengthCm, &item.WidthCm, &item.HeightCm, &item.ActualWeightKg, &item.VolumeM3); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

const batchContextQuery = `SELECT b.id, b.batch_code, b.item_id, b.lot_id, b.quantity, b.manufacture_date, b.expiry_date, b.status, i.sku, i.name, l.code
FROM batches b
JOIN items i ON i.id = b.item_id
JOIN lots l ON l.id = b.lot_id`

// ListBatches returns batches with item and lot context, newest first.
func (r *Repository) ListBatches(ctx context.Context) ([]BatchContext, error) {
	rows, err := r.pool.Query(ctx, batchContextQuery+` ORDER BY b.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBatchContexts(rows)
}

// GetBatchByCode resolves a batch by its batch code or its lot code, which is
// how scanner input arrives from the floor.
func (r *Repository) GetBatchByCode(ctx context.Context, code string) (BatchContext, error) {
	row := r.pool.QueryRow(ctx, batchContextQuery+` WHERE b.batch_code = $1 OR l.code = $1 LIMIT 1`, code)
	var bc BatchContext
	err := row.Scan(&bc.ID, &bc.BatchCode, &bc.ItemID, &bc.LotID, &bc.Quantity, &bc.ManufactureDate, &bc.ExpiryDate, &bc.Status, &bc.ItemSKU, &bc.ItemName, &bc.LotCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BatchContext{}, ErrBatchNotFound
		}
		return BatchContext{}, err
	}
	return bc, nil
}

func scanBatchContexts(rows pgx.Rows) ([]BatchContext, error) {
	var out []BatchContext
	for rows.Next() {
		var bc BatchContext
		if err := rows.Scan(&bc.ID, &bc.BatchCode, &bc.ItemID, &bc.LotID, &bc.Quantity, &bc.ManufactureDate, &bc.ExpiryDate, &bc.Status, &bc.ItemSKU, &bc.ItemName, &bc.LotCode); err != nil {
			return nil, err
		}
		out = append(out, bc)
	}
	return out, rows.Err()
}
