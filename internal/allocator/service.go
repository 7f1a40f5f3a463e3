package allocator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lumbung-wms/lumbung-wms/internal/catalog"
	"github.com/lumbung-wms/lumbung-wms/internal/ledger"
	"github.com/lumbung-wms/lumbung-wms/internal/registry"
	"github.com/lumbung-wms/lumbung-wms/internal/shared"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(TxPort) error) error
	EligibleBatches(ctx context.Context, itemID string) ([]catalog.BatchContext, error)
}

// Service allocates physical storage: put-away into lots, FEFO picking out
// of batches, and batch relocation between lots.
type Service struct {
	repo     RepositoryPort
	activity shared.ActivityRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, activity shared.ActivityRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, activity: activity, logger: logger, now: time.Now}
}

// PutAway places the input batches into one lot. The whole placement commits
// or none of it does; a lot never exceeds its capacity.
func (s *Service) PutAway(ctx context.Context, input PutAwayInput) (PutAwayResult, error) {
	if input.ItemID == "" || input.LotID == "" {
		return PutAwayResult{}, fmt.Errorf("allocator: item and lot required: %w", shared.ErrValidation)
	}
	if len(input.Batches) == 0 {
		return PutAwayResult{}, fmt.Errorf("allocator: at least one batch required: %w", shared.ErrValidation)
	}
	total := 0
	for _, b := range input.Batches {
		if b.BatchCode == "" {
			return PutAwayResult{}, fmt.Errorf("allocator: batch code required: %w", shared.ErrValidation)
		}
		if b.Quantity <= 0 {
			return PutAwayResult{}, fmt.Errorf("allocator: batch quantity must be positive: %w", shared.ErrValidation)
		}
		total += b.Quantity
	}

	var result PutAwayResult
	err := s.repo.WithTx(ctx, func(tx TxPort) error {
		lot, err := tx.GetLotForUpdate(ctx, input.LotID)
		if err != nil {
			return err
		}
		if lot.CurrentLoad+total > lot.Capacity {
			return fmt.Errorf("%w: lot %s holds %d of %d, cannot add %d",
				registry.ErrCapacityExceeded, lot.Code, lot.CurrentLoad, lot.Capacity, total)
		}
		ids := make([]string, 0, len(input.Batches))
		for _, in := range input.Batches {
			batch, err := tx.InsertBatch(ctx, catalog.Batch{
				BatchCode:       in.BatchCode,
				ItemID:          input.ItemID,
				LotID:           input.LotID,
				Quantity:        in.Quantity,
				ManufactureDate: in.ManufactureDate,
				ExpiryDate:      in.ExpiryDate,
			})
			if err != nil {
				return err
			}
			ids = append(ids, batch.ID)
		}
		newLoad := lot.CurrentLoad + total
		if err := tx.UpdateLotLoad(ctx, input.LotID, newLoad); err != nil {
			return err
		}
		// Journal row. The lot code keeps it out of the Lini tariff tables.
		movementID, err := tx.InsertMovement(ctx, ledger.StockMovement{
			ItemID:       input.ItemID,
			LotID:        &input.LotID,
			Lokasi:       lot.Code,
			MovementType: ledger.MovementInbound,
			Quantity:     total,
			TanggalMasuk: s.today(),
			Status:       ledger.StatusAktif,
			Notes:        fmt.Sprintf("Put-away %d unit ke lot %s", total, lot.Code),
		})
		if err != nil {
			return err
		}
		result = PutAwayResult{
			LotID:         input.LotID,
			BatchIDs:      ids,
			TotalQuantity: total,
			NewLoad:       newLoad,
			MovementID:    movementID,
		}
		return nil
	})
	if err != nil {
		return PutAwayResult{}, err
	}

	s.record(ctx, "lots", input.LotID, shared.ActionPutAway, map[string]any{
		"item_id":        input.ItemID,
		"batch_ids":      result.BatchIDs,
		"total_quantity": result.TotalQuantity,
		"new_load":       result.NewLoad,
	})
	return result, nil
}

// Pick removes quantity from one batch. Without an explicit batch id or
// scanned code the soonest-expiring active batch of the item is taken.
func (s *Service) Pick(ctx context.Context, input PickInput) (PickResult, error) {
	if input.Quantity <= 0 {
		return PickResult{}, fmt.Errorf("allocator: pick quantity must be positive: %w", shared.ErrValidation)
	}
	if input.BatchID == "" && input.BatchCode == "" && input.ItemID == "" {
		return PickResult{}, fmt.Errorf("allocator: batch or item required: %w", shared.ErrValidation)
	}

	var result PickResult
	err := s.repo.WithTx(ctx, func(tx TxPort) error {
		batch, err := s.resolveBatch(ctx, tx, input)
		if err != nil {
			return err
		}
		if batch.EffectiveStatus(s.now().UTC()) != catalog.BatchActive {
			return fmt.Errorf("%w: batch %s is %s", ErrBatchNotEligible, batch.BatchCode, batch.EffectiveStatus(s.now().UTC()))
		}
		if input.Quantity > batch.Quantity {
			return fmt.Errorf("%w: batch %s holds %d, requested %d", ErrOverPick, batch.BatchCode, batch.Quantity, input.Quantity)
		}
		remaining := batch.Quantity - input.Quantity
		status := catalog.BatchActive
		if remaining == 0 {
			status = catalog.BatchDepleted
		}
		if err := tx.UpdateBatchQuantity(ctx, batch.ID, remaining, status); err != nil {
			return err
		}

		lot, err := tx.GetLotForUpdate(ctx, batch.LotID)
		if err != nil {
			return err
		}
		newLoad := lot.CurrentLoad - input.Quantity
		if newLoad < 0 {
			return fmt.Errorf("%w: lot %s load %d, picking %d", registry.ErrNegativeLoad, lot.Code, lot.CurrentLoad, input.Quantity)
		}
		if err := tx.UpdateLotLoad(ctx, batch.LotID, newLoad); err != nil {
			return err
		}

		// Journal row, closed on write: picked goods must never accrue
		// storage cost.
		keluar := s.today()
		movementID, err := tx.InsertMovement(ctx, ledger.StockMovement{
			ItemID:        batch.ItemID,
			BatchID:       &batch.ID,
			LotID:         &batch.LotID,
			Lokasi:        lot.Code,
			MovementType:  ledger.MovementOutbound,
			Quantity:      input.Quantity,
			TanggalMasuk:  keluar,
			TanggalKeluar: &keluar,
			Status:        ledger.StatusDiambil,
			Notes:         fmt.Sprintf("Picking %d unit dari batch %s", input.Quantity, batch.BatchCode),
		})
		if err != nil {
			return err
		}
		result = PickResult{
			BatchID:           batch.ID,
			BatchCode:         batch.BatchCode,
			LotID:             batch.LotID,
			PickedQuantity:    input.Quantity,
			RemainingQuantity: remaining,
			Depleted:          remaining == 0,
			MovementID:        movementID,
		}
		return nil
	})
	if err != nil {
		return PickResult{}, err
	}

	s.record(ctx, "batches", result.BatchID, shared.ActionPick, map[string]any{
		"batch_code":         result.BatchCode,
		"picked_quantity":    result.PickedQuantity,
		"remaining_quantity": result.RemainingQuantity,
		"depleted":           result.Depleted,
	})
	return result, nil
}

// Relocate moves a batch to another lot, adjusting both lot loads by the
// relocated quantity.
func (s *Service) Relocate(ctx context.Context, input RelocateInput) (Relocation, error) {
	if input.BatchID == "" || input.ToLotID == "" {
		return Relocation{}, fmt.Errorf("allocator: batch and destination lot required: %w", shared.ErrValidation)
	}
	if input.Quantity <= 0 {
		return Relocation{}, fmt.Errorf("allocator: relocation quantity must be positive: %w", shared.ErrValidation)
	}

	var rel Relocation
	err := s.repo.WithTx(ctx, func(tx TxPort) error {
		batch, err := tx.GetBatchForUpdate(ctx, input.BatchID)
		if err != nil {
			return err
		}
		if batch.LotID == input.ToLotID {
			return fmt.Errorf("%w: lot %s", ErrSameLot, input.ToLotID)
		}
		if input.Quantity > batch.Quantity {
			return fmt.Errorf("allocator: relocation quantity %d exceeds batch quantity %d: %w",
				input.Quantity, batch.Quantity, shared.ErrValidation)
		}

		from, err := tx.GetLotForUpdate(ctx, batch.LotID)
		if err != nil {
			return err
		}
		to, err := tx.GetLotForUpdate(ctx, input.ToLotID)
		if err != nil {
			return err
		}
		if to.CurrentLoad+input.Quantity > to.Capacity {
			return fmt.Errorf("%w: lot %s holds %d of %d, cannot add %d",
				registry.ErrCapacityExceeded, to.Code, to.CurrentLoad, to.Capacity, input.Quantity)
		}
		fromLoad := from.CurrentLoad - input.Quantity
		if fromLoad < 0 {
			return fmt.Errorf("%w: lot %s load %d, moving %d", registry.ErrNegativeLoad, from.Code, from.CurrentLoad, input.Quantity)
		}
		if err := tx.UpdateLotLoad(ctx, from.ID, fromLoad); err != nil {
			return err
		}
		if err := tx.UpdateLotLoad(ctx, to.ID, to.CurrentLoad+input.Quantity); err != nil {
			return err
		}
		if err := tx.UpdateBatchLot(ctx, batch.ID, input.ToLotID); err != nil {
			return err
		}
		rel, err = tx.InsertRelocation(ctx, Relocation{
			BatchID:     batch.ID,
			FromLotID:   from.ID,
			ToLotID:     to.ID,
			Quantity:    input.Quantity,
			Reason:      input.Reason,
			RelocatedBy: shared.ActorFromContext(ctx),
			RelocatedAt: s.now().UTC(),
		})
		return err
	})
	if err != nil {
		return Relocation{}, err
	}

	s.record(ctx, "batches", rel.BatchID, shared.ActionRelocate, map[string]any{
		"from_lot_id": rel.FromLotID,
		"to_lot_id":   rel.ToLotID,
		"quantity":    rel.Quantity,
	})
	return rel, nil
}

// EligibleBatches lists an item's pickable batches in FEFO order.
func (s *Service) EligibleBatches(ctx context.Context, itemID string) ([]catalog.BatchContext, error) {
	if itemID == "" {
		return nil, fmt.Errorf("allocator: item required: %w", shared.ErrValidation)
	}
	return s.repo.EligibleBatches(ctx, itemID)
}

func (s *Service) resolveBatch(ctx context.Context, tx TxPort, input PickInput) (catalog.Batch, error) {
	switch {
	case input.BatchID != "":
		return tx.GetBatchForUpdate(ctx, input.BatchID)
	case input.BatchCode != "":
		return tx.FindBatchByCodeForUpdate(ctx, input.BatchCode)
	default:
		return tx.FirstEligibleBatchForUpdate(ctx, input.ItemID)
	}
}

func (s *Service) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Service) record(ctx context.Context, table, recordID string, action shared.ActionType, newData map[string]any) {
	if s.activity == nil {
		return
	}
	err := s.activity.Record(ctx, shared.ActivityLog{
		EntityTable: table,
		RecordID:    recordID,
		ActionType:  action,
		NewData:     newData,
	})
	if err != nil {
		s.logger.Warn("record allocation activity", slog.String("record_id", recordID), slog.Any("error", err))
	}
}
