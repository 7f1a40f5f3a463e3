package ledger

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for stock movements.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const movementColumns = `id, item_id, batch_id, lot_id, lokasi, movement_type, quantity, tanggal_masuk, tanggal_keluar, tanggal_pindah, status, berat_kg, volume_m3, hari_simpan, total_biaya, document_reference, notes`

func scanMovement(row pgx.Row) (StockMovement, error) {
	var m StockMovement
	var totalBiaya string
	err := row.Scan(&m.ID, &m.ItemID, &m.BatchID, &m.LotID, &m.Lokasi, &m.MovementType, &m.Quantity,
		&m.TanggalMasuk, &m.TanggalKeluar, &m.TanggalPindah, &m.Status, &m.BeratKg, &m.VolumeM3,
		&m.HariSimpan, &totalBiaya, &m.DocumentReference, &m.Notes)
	if err != nil {
		return StockMovement{}, err
	}
	if err := m.TotalBiaya.Scan(totalBiaya); err != nil {
		return StockMovement{}, err
	}
	return m, nil
}

// Insert creates a new movement row and returns it with its id set.
func (r *Repository) Insert(ctx context.Context, m StockMovement) (StockMovement, error) {
	m.ID = uuid.NewString()
	_, err := r.pool.Exec(ctx, `INSERT INTO stock_movements
(id, item_id, batch_id, lot_id, lokasi, movement_type, quantity, tanggal_masuk, tanggal_keluar, tanggal_pindah, status, berat_kg, volume_m3, hari_simpan, total_biaya, document_reference, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		m.ID, m.ItemID, m.BatchID, m.LotID, m.Lokasi, m.MovementType, m.Quantity,
		m.TanggalMasuk, m.TanggalKeluar, m.TanggalPindah, m.Status, m.BeratKg, m.VolumeM3,
		m.HariSimpan, m.TotalBiaya.String(), m.DocumentReference, m.Notes)
	if err != nil {
		return StockMovement{}, err
	}
	return m, nil
}

// Get returns a movement by id.
func (r *Repository) Get(ctx context.Context, id string) (StockMovement, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE id = $1`, id)
	m, err := scanMovement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockMovement{}, ErrMovementNotFound
		}
		return StockMovement{}, err
	}
	return m, nil
}

// List returns movements matching the filter, newest intake first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE 1=1`
	args := []any{}
	argCount := 0

	if filter.Lokasi != "" {
		argCount++
		query += ` AND lokasi = $` + strconv.Itoa(argCount)
		args = append(args, filter.Lokasi)
	}
	if filter.Status != "" {
		argCount++
		query += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, filter.Status)
	}
	if !filter.TanggalMasukFrom.IsZero() {
		argCount++
		query += ` AND tanggal_masuk >= $` + strconv.Itoa(argCount)
		args = append(args, filter.TanggalMasukFrom)
	}
	if !filter.TanggalMasukTo.IsZero() {
		argCount++
		query += ` AND tanggal_masuk <= $` + strconv.Itoa(argCount)
		args = append(args, filter.TanggalMasukTo)
	}

	query += ` ORDER BY tanggal_masuk DESC`
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	argCount++
	query += ` LIMIT $` + strconv.Itoa(argCount)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkTransferred commits the Lini 1 to Lini 2 transition fields. The
// precondition is re-checked in the UPDATE so a writer racing the service's
// read cannot apply a stale transition.
func (r *Repository) MarkTransferred(ctx context.Context, id string, tanggalPindah time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE stock_movements SET lokasi = $2, status = $3, tanggal_pindah = $4
WHERE id = $1 AND status = $5 AND lokasi = $6`,
		id, LokasiLini2, StatusDipindahkan, tanggalPindah, StatusAktif, LokasiLini1)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// MarkPickedUp commits the pickup transition fields, guarded like
// MarkTransferred.
func (r *Repository) MarkPickedUp(ctx context.Context, id string, tanggalKeluar time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE stock_movements SET status = $2, tanggal_keluar = $3
WHERE id = $1 AND status IN ($4, $5)`,
		id, StatusDiambil, tanggalKeluar, StatusAktif, StatusDipindahkan)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}
