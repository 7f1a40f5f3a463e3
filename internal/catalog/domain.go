package catalog

import (
	"fmt"
	"time"

	"github.com/lumbung-wms/lumbung-wms/internal/shared"
)

// Item holds master data for a stored good. Dimensional attributes are the
// defaults applied when a movement omits explicit weight/volume.
type Item struct {
	ID             string   `json:"id"`
	SKU            string   `json:"sku"`
	Name           string   `json:"name"`
	Unit           string   `json:"unit"`
	LengthCm       float64  `json:"length_cm"`
	WidthCm        float64  `json:"width_cm"`
	HeightCm       float64  `json:"height_cm"`
	ActualWeightKg *float64 `json:"actual_weight_kg,omitempty"`
	VolumeM3       *float64 `json:"volume_m3,omitempty"`
}

// BatchStatus enumerates lifecycle states of a batch.
type BatchStatus string

const (
	BatchActive     BatchStatus = "active"
	BatchDepleted   BatchStatus = "depleted"
	BatchExpired    BatchStatus = "expired"
	BatchQuarantine BatchStatus = "quarantine"
)

// Batch is a depletable quantity of one item at one lot, sharing
// manufacture/expiry dates.
type Batch struct {
	ID              string      `json:"id"`
	BatchCode       string      `json:"batch_code"`
	ItemID          string      `json:"item_id"`
	LotID           string      `json:"lot_id"`
	Quantity        int         `json:"quantity"`
	ManufactureDate *time.Time  `json:"manufacture_date,omitempty"`
	ExpiryDate      *time.Time  `json:"expiry_date,omitempty"`
	Status          BatchStatus `json:"status"`
}

// EffectiveStatus applies the expiry policy on read: a stored 'active' batch
// whose expiry date has passed reads as expired. No background sweep rewrites
// the stored column.
func (b Batch) EffectiveStatus(now time.Time) BatchStatus {
	if b.Status == BatchActive && b.ExpiryDate != nil && now.After(*b.ExpiryDate) {
		return BatchExpired
	}
	return b.Status
}

// BatchContext carries a batch with its item and lot labels.
type BatchContext struct {
	Batch
	ItemSKU  string `json:"item_sku"`
	ItemName string `json:"item_name"`
	LotCode  string `json:"lot_code"`
}

// ErrItemNotFound indicates a missing item.
var ErrItemNotFound = fmt.Errorf("catalog: item %w", shared.ErrNotFound)

// ErrBatchNotFound indicates a missing batch.
var ErrBatchNotFound = fmt.Errorf("catalog: batch %w", shared.ErrNotFound)

// ErrDuplicateSKU indicates an item SKU collision.
var ErrDuplicateSKU = fmt.Errorf("catalog: sku %w", shared.ErrDuplicate)
