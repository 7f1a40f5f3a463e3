package storagecost

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/lumbung-wms/lumbung-wms/internal/ledger"
)

// Repository persists cost calculations and daily summaries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetForCosting loads the movement joined with its item defaults.
func (r *Repository) GetForCosting(ctx context.Context, movementID string) (costingRow, error) {
	var row costingRow
	err := r.pool.QueryRow(ctx, `SELECT m.id, m.lokasi, m.tanggal_masuk, m.berat_kg, m.volume_m3, i.actual_weight_kg, i.volume_m3
FROM stock_movements m
JOIN items i ON i.id = m.item_id
WHERE m.id = $1`, movementID).
		Scan(&row.ID, &row.Lokasi, &row.TanggalMasuk, &row.BeratKg, &row.VolumeM3, &row.ItemWeightKg, &row.ItemVolumeM3)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return costingRow{}, ledger.ErrMovementNotFound
		}
		return costingRow{}, err
	}
	return row, nil
}

// UpdateDerived overwrites the movement's cached hari_simpan/total_biaya.
func (r *Repository) UpdateDerived(ctx context.Context, movementID string, hariSimpan int, totalBiaya decimal.Decimal) error {
	tag, err := r.pool.Exec(ctx, `UPDATE stock_movements SET hari_simpan = $2, total_biaya = $3 WHERE id = $1`,
		movementID, hariSimpan, totalBiaya.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrMovementNotFound
	}
	return nil
}

// InsertCalculation appends one storage_costs audit row.
func (r *Repository) InsertCalculation(ctx context.Context, c Calculation) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO storage_costs
(id, stock_movement_id, tanggal_hitung, hari_simpan, berat_kg, volume_m3, tarif_per_kg, biaya_berat, biaya_volume, total_biaya, periode_akhir)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.NewString(), c.StockMovementID, c.TanggalHitung, c.HariSimpan, c.BeratKg, c.VolumeM3,
		c.TarifPerKg.String(), c.BiayaBerat.String(), c.BiayaVolume.String(), c.TotalBiaya.String(), c.PeriodeAkhir)
	return err
}

// History lists the audit rows for one movement, newest first.
func (r *Repository) History(ctx context.Context, movementID string) ([]Calculation, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, stock_movement_id, tanggal_hitung, hari_simpan, berat_kg, volume_m3, tarif_per_kg, biaya_berat, biaya_volume, total_biaya, periode_akhir
FROM storage_costs WHERE stock_movement_id = $1 ORDER BY periode_akhir DESC`, movementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Calculation
	for rows.Next() {
		var c Calculation
		var tarif, berat, volume, total string
		if err := rows.Scan(&c.ID, &c.StockMovementID, &c.TanggalHitung, &c.HariSimpan, &c.BeratKg, &c.VolumeM3, &tarif, &berat, &volume, &total, &c.PeriodeAkhir); err != nil {
			return nil, err
		}
		if err := scanDecimals(map[*decimal.Decimal]string{&c.TarifPerKg: tarif, &c.BiayaBerat: berat, &c.BiayaVolume: volume, &c.TotalBiaya: total}); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListActiveMovementIDs returns ids of line-stored movements still accruing
// cost. Allocation journal rows carry a lot code as lokasi and stay out.
func (r *Repository) ListActiveMovementIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM stock_movements WHERE status IN ($1, $2) AND lokasi IN ($3, $4)`,
		ledger.StatusAktif, ledger.StatusDipindahkan, ledger.LokasiLini1, ledger.LokasiLini2)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountByStatus returns line-stored movement counts keyed by status.
func (r *Repository) CountByStatus(ctx context.Context) (map[ledger.MovementStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM stock_movements WHERE lokasi IN ($1, $2) GROUP BY status`,
		ledger.LokasiLini1, ledger.LokasiLini2)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[ledger.MovementStatus]int)
	for rows.Next() {
		var status ledger.MovementStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// UpsertDailySummary writes the per-day aggregate keyed by date.
func (r *Repository) UpsertDailySummary(ctx context.Context, s DailySummary) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO daily_summary (tanggal, total_aktif, total_dipindah, total_diambil, total_biaya)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (tanggal) DO UPDATE SET total_aktif = EXCLUDED.total_aktif, total_dipindah = EXCLUDED.total_dipindah, total_diambil = EXCLUDED.total_diambil, total_biaya = EXCLUDED.total_biaya`,
		s.Tanggal, s.TotalAktif, s.TotalDipindah, s.TotalDiambil, s.TotalBiaya.String())
	return err
}

// GetDailySummary returns the aggregate for one date.
func (r *Repository) GetDailySummary(ctx context.Context, tanggal time.Time) (DailySummary, error) {
	var s DailySummary
	var total string
	err := r.pool.QueryRow(ctx, `SELECT tanggal, total_aktif, total_dipindah, total_diambil, total_biaya FROM daily_summary WHERE tanggal = $1`, tanggal).
		Scan(&s.Tanggal, &s.TotalAktif, &s.TotalDipindah, &s.TotalDiambil, &total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DailySummary{}, ErrSummaryNotFound
		}
		return DailySummary{}, err
	}
	if err := s.TotalBiaya.Scan(total); err != nil {
		return DailySummary{}, err
	}
	return s, nil
}

func scanDecimals(pairs map[*decimal.Decimal]string) error {
	for dst, src := range pairs {
		d, err := decimal.NewFromString(src)
		if err != nil {
			return err
		}
		*dst = d
	}
	return nil
}
