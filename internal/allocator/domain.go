package allocator

import (
	"fmt"
	"time"

	"github.com/lumbung-wms/lumbung-wms/internal/shared"
)

// BatchInput describes one batch placed during put-away.
type BatchInput struct {
	BatchCode       string     `json:"batch_code"`
	Quantity        int        `json:"quantity"`
	ManufactureDate *time.Time `json:"manufacture_date,omitempty"`
	ExpiryDate      *time.Time `json:"expiry_date,omitempty"`
}

// PutAwayInput places one or more batches of a single item into one lot.
type PutAwayInput struct {
	ItemID  string
	LotID   string
	Batches []BatchInput
}

// PutAwayResult reports the lot state after a successful put-away.
type PutAwayResult struct {
	LotID         string   `json:"lot_id"`
	BatchIDs      []string `json:"batch_ids"`
	TotalQuantity int      `json:"total_quantity"`
	NewLoad       int      `json:"new_load"`
	MovementID    string   `json:"movement_id"`
}

// PickInput takes quantity out of one batch. The batch is chosen explicitly
// by id, by scanned code, or automatically by FEFO over the item's batches.
type PickInput struct {
	ItemID    string
	BatchID   string
	BatchCode string
	Quantity  int
}

// PickResult reports the batch and lot state after a successful pick.
type PickResult struct {
	BatchID           string `json:"batch_id"`
	BatchCode         string `json:"batch_code"`
	LotID             string `json:"lot_id"`
	PickedQuantity    int    `json:"picked_quantity"`
	RemainingQuantity int    `json:"remaining_quantity"`
	Depleted          bool   `json:"depleted"`
	MovementID        string `json:"movement_id"`
}

// RelocateInput moves a batch (and a quantity of load) to another lot.
type RelocateInput struct {
	BatchID  string
	ToLotID  string
	Quantity int
	Reason   string
}

// Relocation is one batch_relocations audit row.
type Relocation struct {
	ID          string    `json:"id"`
	BatchID     string    `json:"batch_id"`
	FromLotID   string    `json:"from_lot_id"`
	ToLotID     string    `json:"to_lot_id"`
	Quantity    int       `json:"quantity"`
	Reason      string    `json:"reason,omitempty"`
	RelocatedBy string    `json:"relocated_by"`
	RelocatedAt time.Time `json:"relocated_at"`
}

// ErrOverPick rejects a pick larger than the batch quantity.
var ErrOverPick = fmt.Errorf("allocator: pick exceeds batch quantity: %w", shared.ErrValidation)

// ErrBatchNotEligible rejects a pick from a batch that is not active.
var ErrBatchNotEligible = fmt.Errorf("allocator: batch not eligible for picking: %w", shared.ErrValidation)

// ErrNoEligibleBatch indicates FEFO found nothing pickable for the item.
var ErrNoEligibleBatch = fmt.Errorf("allocator: no eligible batch %w", shared.ErrNotFound)

// ErrSameLot rejects a relocation whose destination equals the source lot.
var ErrSameLot = fmt.Errorf("allocator: destination lot equals source lot: %w", shared.ErrValidation)
