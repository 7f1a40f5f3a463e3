package registry

import (
	"fmt"

	"github.com/lumbung-wms/lumbung-wms/internal/shared"
)

// Warehouse is the top of the storage hierarchy.
type Warehouse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Location      string `json:"location"`
	TotalCapacity string `json:"total_capacity"`
}

// Zone belongs to exactly one warehouse.
type Zone struct {
	ID          string `json:"id"`
	WarehouseID string `json:"warehouse_id"`
	Name        string `json:"name"`
}

// Rack belongs to exactly one zone.
type Rack struct {
	ID     string `json:"id"`
	ZoneID string `json:"zone_id"`
	Code   string `json:"code"`
}

// Lot is the smallest addressable storage location.
// Invariant: 0 <= CurrentLoad <= Capacity at all times.
type Lot struct {
	ID          string `json:"id"`
	RackID      string `json:"rack_id"`
	Code        string `json:"code"`
	Capacity    int    `json:"capacity"`
	CurrentLoad int    `json:"current_load"`
}

// Available returns the remaining capacity of the lot.
func (l Lot) Available() int {
	return l.Capacity - l.CurrentLoad
}

// LotContext carries a lot together with its rack/zone/warehouse labels.
type LotContext struct {
	Lot
	RackCode      string `json:"rack_code"`
	ZoneName      string `json:"zone_name"`
	WarehouseName string `json:"warehouse_name"`
}

// LoadMismatch reports a lot whose counter drifted from its batch quantities.
type LoadMismatch struct {
	LotID       string `json:"lot_id"`
	LotCode     string `json:"lot_code"`
	CurrentLoad int    `json:"current_load"`
	BatchSum    int    `json:"batch_sum"`
}

// ErrCapacityExceeded is returned when a mutation would push a lot above capacity.
var ErrCapacityExceeded = fmt.Errorf("registry: lot capacity exceeded: %w", shared.ErrValidation)

// ErrNegativeLoad is returned when a mutation would push a lot load below zero.
var ErrNegativeLoad = fmt.Errorf("registry: lot load below zero: %w", shared.ErrValidation)

// ErrLotNotFound indicates a missing lot.
var ErrLotNotFound = fmt.Errorf("registry: lot %w", shared.ErrNotFound)

// ErrInvalidHierarchy indicates a child referencing a missing parent.
var ErrInvalidHierarchy = fmt.Errorf("registry: parent record does not exist: %w", shared.ErrValidation)
