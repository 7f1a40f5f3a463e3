package registry

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumbung-wms/lumbung-wms/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the location hierarchy.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const pgUniqueViolation = "23505"
const pgForeignKeyViolation = "23503"

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return shared.ErrDuplicate
		case pgForeignKeyViolation:
			return ErrInvalidHierarchy
		}
	}
	return err
}

// CreateWarehouse inserts a warehouse.
func (r *Repository) CreateWarehouse(ctx context.Context, w Warehouse) (Warehouse, error) {
	w.ID = uuid.NewString()
	_, err := r.pool.Exec(ctx, `INSERT INTO warehouses (id, name, location, total_capacity) VALUES ($1, $2, $3, $4)`,
		w.ID, w.Name, w.Location, w.TotalCapacity)
	if err != nil {
		return Warehouse{}, mapPgError(err)
	}
	return w, nil
}

// ListWarehouses returns all warehouses ordered by name.
func (r *Repository) ListWarehouses(ctx context.Context) ([]Warehouse, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, location, total_capacity FROM warehouses ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Warehouse
	for rows.Next() {
		var w Warehouse
		if err := rows.Scan(&w.ID, &w.Name, &w.Location, &w.TotalCapacity); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// CreateZone inserts a zone under a warehouse.
func (r *Repository) CreateZone(ctx context.Context, z Zone) (Zone, error) {
	z.ID = uuid.NewString()
	_, err := r.pool.Exec(ctx, `INSERT INTO zones (id, warehouse_id, name) VALUES ($1, $2, $3)`, z.ID, z.WarehouseID, z.Name)
	if err != nil {
		return Zone{}, mapPgError(err)
	}
	return z, nil
}

// ListZones returns zones, optionally scoped to a warehouse.
func (r *Repository) ListZones(ctx context.Context, warehouseID string) ([]Zone, error) {
	query := `SELECT id, warehouse_id, name FROM zones`
	args := []any{}
	if warehouseID != "" {
		query += ` WHERE warehouse_id = $1`
		args = append(args, warehouseID)
	}
	query += ` ORDER BY name`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Zone
	for rows.Next() {
		var z Zone
		if err := rows.Scan(&z.ID, &z.WarehouseID, &z.Name); err != nil {
			return nil, err
		}
		out = append(out, z)
	}
	return out, rows.Err()
}

// CreateRack inserts a rack under a zone.
func (r *Repository) CreateRack(ctx context.Context, rack Rack) (Rack, error) {
	rack.ID = uuid.NewString()
	_, err := r.pool.Exec(ctx, `INSERT INTO racks (id, zone_id, code) VALUES ($1, $2, $3)`, rack.ID, rack.ZoneID, rack.Code)
	if err != nil {
		return Rack{}, mapPgError(err)
	}
	return rack, nil
}

// ListRacks returns racks, optionally scoped to a zone.
func (r *Repository) ListRacks(ctx context.Context, zoneID string) ([]Rack, error) {
	query := `SELECT id, zone_id, code FROM racks`
	args := []any{}
	if zoneID != "" {
		query += ` WHERE zone_id = $1`
		args = append(args, zoneID)
	}
	query += ` ORDER BY code`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Rack
	for rows.Next() {
		var rack Rack
		if err := rows.Scan(&rack.ID, &rack.ZoneID, &rack.Code); err != nil {
			return nil, err
		}
		out = append(out, rack)
	}
	return out, rows.Err()
}

// CreateLot inserts a lot under a rack with zero load.
func (r *Repository) CreateLot(ctx context.Context, lot Lot) (Lot, error) {
	lot.ID = uuid.NewString()
	_, err := r.pool.Exec(ctx, `INSERT INTO lots (id, rack_id, code, capacity, current_load) VALUES ($1, $2, $3, $4, 0)`,
		lot.ID, lot.RackID, lot.Code, lot.Capacity)
	if err != nil {
		return Lot{}, mapPgError(err)
	}
	lot.CurrentLoad = 0
	return lot, nil
}

// GetLot returns a lot by id.
func (r *Repository) GetLot(ctx context.Context, id string) (Lot, error) {
	var lot Lot
	err := r.pool.QueryRow(ctx, `SELECT id, rack_id, code, capacity, current_load FROM lots WHERE id = $1`, id).
		Scan(&lot.ID, &lot.RackID, &lot.Code, &lot.Capacity, &lot.CurrentLoad)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lot{}, ErrLotNotFound
		}
		return Lot{}, err
	}
	return lot, nil
}

const lotContextQuery = `SELECT l.id, l.rack_id, l.code, l.capacity, l.current_load, r.code, z.name, w.name
FROM lots l
JOIN racks r ON r.id = l.rack_id
JOIN zones z ON z.id = r.zone_id
JOIN warehouses w ON w.id = z.warehouse_id`

// ListLots returns every lot with rack/zone/warehouse context.
func (r *Repository) ListLots(ctx context.Context) ([]LotContext, error) {
	rows, err := r.pool.Query(ctx, lotContextQuery+` ORDER BY l.code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLotContexts(rows)
}

// AvailableLots returns lots with free capacity inside a warehouse.
func (r *Repository) AvailableLots(ctx context.Context, warehouseID string) ([]LotContext, error) {
	query := lotContextQuery + ` WHERE l.current_load < l.capacity`
	args := []any{}
	if warehouseID != "" {
		query += ` AND w.id = $1`
		args = append(args, warehouseID)
	}
	query += ` ORDER BY l.code`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLotContexts(rows)
}

func scanLotContexts(rows pgx.Rows) ([]LotContext, error) {
	var out []LotContext
	for rows.Next() {
		var lc LotContext
		if err := rows.Scan(&lc.ID, &lc.RackID, &lc.Code, &lc.Capacity, &lc.CurrentLoad, &lc.RackCode, &lc.ZoneName, &lc.WarehouseName); err != nil {
			return nil, err
		}
		out = append(out, lc)
	}
	return out, rows.Err()
}

// LoadMismatches compares each lot counter with the sum of its active batch quantities.
func (r *Repository) LoadMismatches(ctx context.Context) ([]LoadMismatch, error) {
	rows, err := r.pool.Query(ctx, `SELECT l.id, l.code, l.current_load, COALESCE(SUM(b.quantity), 0)
FROM lots l
LEFT JOIN batches b ON b.lot_id = l.id AND b.status = 'active'
GROUP BY l.id, l.code, l.current_load
HAVING l.current_load <> COALESCE(SUM(b.quantity), 0)
ORDER BY l.code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LoadMismatch
	for rows.Next() {
		var m LoadMismatch
		if err := rows.Scan(&m.LotID, &m.LotCode, &m.CurrentLoad, &m.BatchSum); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
