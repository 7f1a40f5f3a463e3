package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/lumbung-wms/lumbung-wms/internal/shared"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	CreateWarehouse(ctx context.Context, w Warehouse) (Warehouse, error)
	ListWarehouses(ctx context.Context) ([]Warehouse, error)
	CreateZone(ctx context.Context, z Zone) (Zone, error)
	ListZones(ctx context.Context, warehouseID string) ([]Zone, error)
	CreateRack(ctx context.Context, rack Rack) (Rack, error)
	ListRacks(ctx context.Context, zoneID string) ([]Rack, error)
	CreateLot(ctx context.Context, lot Lot) (Lot, error)
	GetLot(ctx context.Context, id string) (Lot, error)
	ListLots(ctx context.Context) ([]LotContext, error)
	AvailableLots(ctx context.Context, warehouseID string) ([]LotContext, error)
	LoadMismatches(ctx context.Context) ([]LoadMismatch, error)
}

// Service coordinates location registry operations.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateWarehouse registers a warehouse.
func (s *Service) CreateWarehouse(ctx context.Context, w Warehouse) (Warehouse, error) {
	if strings.TrimSpace(w.Name) == "" {
		return Warehouse{}, fmt.Errorf("registry: warehouse name required: %w", shared.ErrValidation)
	}
	return s.repo.CreateWarehouse(ctx, w)
}

// ListWarehouses lists all warehouses.
func (s *Service) ListWarehouses(ctx context.Context) ([]Warehouse, error) {
	return s.repo.ListWarehouses(ctx)
}

// CreateZone registers a zone under a warehouse.
func (s *Service) CreateZone(ctx context.Context, z Zone) (Zone, error) {
	if z.WarehouseID == "" || strings.TrimSpace(z.Name) == "" {
		return Zone{}, fmt.Errorf("registry: zone warehouse and name required: %w", shared.ErrValidation)
	}
	return s.repo.CreateZone(ctx, z)
}

// ListZones lists zones, optionally scoped to one warehouse.
func (s *Service) ListZones(ctx context.Context, warehouseID string) ([]Zone, error) {
	return s.repo.ListZones(ctx, warehouseID)
}

// CreateRack registers a rack under a zone.
func (s *Service) CreateRack(ctx context.Context, rack Rack) (Rack, error) {
	if rack.ZoneID == "" || strings.TrimSpace(rack.Code) == "" {
		return Rack{}, fmt.Errorf("registry: rack zone and code required: %w", shared.ErrValidation)
	}
	return s.repo.CreateRack(ctx, rack)
}

// ListRacks lists racks, optionally scoped to one zone.
func (s *Service) ListRacks(ctx context.Context, zoneID string) ([]Rack, error) {
	return s.repo.ListRacks(ctx, zoneID)
}

// CreateLot registers a lot under a rack. Lots start empty.
func (s *Service) CreateLot(ctx context.Context, lot Lot) (Lot, error) {
	if lot.RackID == "" || strings.TrimSpace(lot.Code) == "" {
		return Lot{}, fmt.Errorf("registry: lot rack and code required: %w", shared.ErrValidation)
	}
	if lot.Capacity <= 0 {
		return Lot{}, fmt.Errorf("registry: lot capacity must be positive: %w", shared.ErrValidation)
	}
	return s.repo.CreateLot(ctx, lot)
}

// GetLot returns a lot by id.
func (s *Service) GetLot(ctx context.Context, id string) (Lot, error) {
	return s.repo.GetLot(ctx, id)
}

// ListLots lists all lots with their hierarchy context.
func (s *Service) ListLots(ctx context.Context) ([]LotContext, error) {
	return s.repo.ListLots(ctx)
}

// AvailableLots lists lots with free capacity for put-away selection.
func (s *Service) AvailableLots(ctx context.Context, warehouseID string) ([]LotContext, error) {
	return s.repo.AvailableLots(ctx, warehouseID)
}

// Reconcile reports lots whose current_load differs from the sum of their
// active batch quantities. Read-only; fixing drift is an operator decision.
func (s *Service) Reconcile(ctx context.Context) ([]LoadMismatch, error) {
	return s.repo.LoadMismatches(ctx)
}
