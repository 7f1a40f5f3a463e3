package allocator

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumbung-wms/lumbung-wms/internal/catalog"
	"github.com/lumbung-wms/lumbung-wms/internal/ledger"
	"github.com/lumbung-wms/lumbung-wms/internal/platform/db"
	"github.com/lumbung-wms/lumbung-wms/internal/registry"
)

// Repository persists allocation mutations. Every multi-step mutation runs
// inside one transaction so a failed step leaves no partial state behind.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs fn against a transactional view of the repository.
func (r *Repository) WithTx(ctx context.Context, fn func(TxPort) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&txRepository{tx: tx})
	})
}

// EligibleBatches lists an item's pickable batches in FEFO order, soonest
// expiry first with undated batches last.
func (r *Repository) EligibleBatches(ctx context.Context, itemID string) ([]catalog.BatchContext, error) {
	rows, err := r.pool.Query(ctx, `SELECT b.id, b.batch_code, b.item_id, b.lot_id, b.quantity, b.manufacture_date, b.expiry_date, b.status, i.sku, i.name, l.code
FROM batches b
JOIN items i ON i.id = b.item_id
JOIN lots l ON l.id = b.lot_id
WHERE b.item_id = $1 AND b.status = $2 AND b.quantity > 0
ORDER BY b.expiry_date ASC NULLS LAST, b.batch_code ASC`, itemID, catalog.BatchActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []catalog.BatchContext
	for rows.Next() {
		var bc catalog.BatchContext
		if err := rows.Scan(&bc.ID, &bc.BatchCode, &bc.ItemID, &bc.LotID, &bc.Quantity,
			&bc.ManufactureDate, &bc.ExpiryDate, &bc.Status, &bc.ItemSKU, &bc.ItemName, &bc.LotCode); err != nil {
			return nil, err
		}
		out = append(out, bc)
	}
	return out, rows.Err()
}

// TxPort is the transactional surface the service mutates through.
type TxPort interface {
	GetLotForUpdate(ctx context.Context, lotID string) (registry.Lot, error)
	UpdateLotLoad(ctx context.Context, lotID string, newLoad int) error
	InsertBatch(ctx context.Context, b catalog.Batch) (catalog.Batch, error)
	GetBatchForUpdate(ctx context.Context, batchID string) (catalog.Batch, error)
	FindBatchByCodeForUpdate(ctx context.Context, code string) (catalog.Batch, error)
	FirstEligibleBatchForUpdate(ctx context.Context, itemID string) (catalog.Batch, error)
	UpdateBatchQuantity(ctx context.Context, batchID string, quantity int, status catalog.BatchStatus) error
	UpdateBatchLot(ctx context.Context, batchID, lotID string) error
	InsertMovement(ctx context.Context, m ledger.StockMovement) (string, error)
	InsertRelocation(ctx context.Context, rel Relocation) (Relocation, error)
}

type txRepository struct {
	tx pgx.Tx
}

const batchColumns = `id, batch_code, item_id, lot_id, quantity, manufacture_date, expiry_date, status`

func scanBatch(row pgx.Row) (catalog.Batch, error) {
	var b catalog.Batch
	err := row.Scan(&b.ID, &b.BatchCode, &b.ItemID, &b.LotID, &b.Quantity, &b.ManufactureDate, &b.ExpiryDate, &b.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Batch{}, catalog.ErrBatchNotFound
		}
		return catalog.Batch{}, err
	}
	return b, nil
}

func (t *txRepository) GetLotForUpdate(ctx context.Context, lotID string) (registry.Lot, error) {
	var l registry.Lot
	err := t.tx.QueryRow(ctx, `SELECT id, rack_id, code, capacity, current_load FROM lots WHERE id = $1 FOR UPDATE`, lotID).
		Scan(&l.ID, &l.RackID, &l.Code, &l.Capacity, &l.CurrentLoad)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return registry.Lot{}, registry.ErrLotNotFound
		}
		return registry.Lot{}, err
	}
	return l, nil
}

func (t *txRepository) UpdateLotLoad(ctx context.Context, lotID string, newLoad int) error {
	tag, err := t.tx.Exec(ctx, `UPDATE lots SET current_load = $2 WHERE id = $1`, lotID, newLoad)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return registry.ErrLotNotFound
	}
	return nil
}

func (t *txRepository) InsertBatch(ctx context.Context, b catalog.Batch) (catalog.Batch, error) {
	b.ID = uuid.NewString()
	if b.Status == "" {
		b.Status = catalog.BatchActive
	}
	_, err := t.tx.Exec(ctx, `INSERT INTO batches (id, batch_code, item_id, lot_id, quantity, manufacture_date, expiry_date, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ID, b.BatchCode, b.ItemID, b.LotID, b.Quantity, b.ManufactureDate, b.ExpiryDate, b.Status)
	if err != nil {
		return catalog.Batch{}, err
	}
	return b, nil
}

func (t *txRepository) GetBatchForUpdate(ctx context.Context, batchID string) (catalog.Batch, error) {
	return scanBatch(t.tx.QueryRow(ctx, `SELECT `+batchColumns+` FROM batches WHERE id = $1 FOR UPDATE`, batchID))
}

// FindBatchByCodeForUpdate resolves scanner input by batch code or lot code.
// A lot code holding several batches yields its FEFO head.
func (t *txRepository) FindBatchByCodeForUpdate(ctx context.Context, code string) (catalog.Batch, error) {
	return scanBatch(t.tx.QueryRow(ctx, `SELECT b.id, b.batch_code, b.item_id, b.lot_id, b.quantity, b.manufacture_date, b.expiry_date, b.status
FROM batches b
JOIN lots l ON l.id = b.lot_id
WHERE b.batch_code = $1 OR l.code = $1
ORDER BY b.expiry_date ASC NULLS LAST, b.batch_code ASC
LIMIT 1 FOR UPDATE OF b`, code))
}

// FirstEligibleBatchForUpdate locks and returns the FEFO head for an item.
func (t *txRepository) FirstEligibleBatchForUpdate(ctx context.Context, itemID string) (catalog.Batch, error) {
	b, err := scanBatch(t.tx.QueryRow(ctx, `SELECT `+batchColumns+` FROM batches
WHERE item_id = $1 AND status = $2 AND quantity > 0
ORDER BY expiry_date ASC NULLS LAST, batch_code ASC
LIMIT 1 FOR UPDATE`, itemID, catalog.BatchActive))
	if err != nil {
		if errors.Is(err, catalog.ErrBatchNotFound) {
			return catalog.Batch{}, ErrNoEligibleBatch
		}
		return catalog.Batch{}, err
	}
	return b, nil
}

func (t *txRepository) UpdateBatchQuantity(ctx context.Context, batchID string, quantity int, status catalog.BatchStatus) error {
	tag, err := t.tx.Exec(ctx, `UPDATE batches SET quantity = $2, status = $3 WHERE id = $1`, batchID, quantity, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrBatchNotFound
	}
	return nil
}

func (t *txRepository) UpdateBatchLot(ctx context.Context, batchID, lotID string) error {
	tag, err := t.tx.Exec(ctx, `UPDATE batches SET lot_id = $2 WHERE id = $1`, batchID, lotID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrBatchNotFound
	}
	return nil
}

func (t *txRepository) InsertMovement(ctx context.Context, m ledger.StockMovement) (string, error) {
	id := uuid.NewString()
	_, err := t.tx.Exec(ctx, `INSERT INTO stock_movements
(id, item_id, batch_id, lot_id, lokasi, movement_type, quantity, tanggal_masuk, status, berat_kg, volume_m3, hari_simpan, total_biaya, document_reference, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		id, m.ItemID, m.BatchID, m.LotID, m.Lokasi, m.MovementType, m.Quantity, m.TanggalMasuk,
		m.Status, m.BeratKg, m.VolumeM3, m.HariSimpan, m.TotalBiaya.String(), m.DocumentReference, m.Notes)
	return id, err
}

func (t *txRepository) InsertRelocation(ctx context.Context, rel Relocation) (Relocation, error) {
	rel.ID = uuid.NewString()
	_, err := t.tx.Exec(ctx, `INSERT INTO batch_relocations (id, batch_id, from_lot_id, to_lot_id, quantity, reason, relocated_by, relocated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rel.ID, rel.BatchID, rel.FromLotID, rel.ToLotID, rel.Quantity, rel.Reason, rel.RelocatedBy, rel.RelocatedAt)
	if err != nil {
		return Relocation{}, err
	}
	return rel, nil
}
