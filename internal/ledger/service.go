package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lumbung-wms/lumbung-wms/internal/catalog"
	"github.com/lumbung-wms/lumbung-wms/internal/shared"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	Insert(ctx context.Context, m StockMovement) (StockMovement, error)
	Get(ctx context.Context, id string) (StockMovement, error)
	List(ctx context.Context, filter ListFilter) ([]StockMovement, error)
	MarkTransferred(ctx context.Context, id string, tanggalPindah time.Time) error
	MarkPickedUp(ctx context.Context, id string, tanggalKeluar time.Time) error
}

// CostPort triggers a storage-cost recomputation for one movement.
type CostPort interface {
	Recompute(ctx context.Context, stockMovementID string) error
}

// ItemsPort resolves item master data.
type ItemsPort interface {
	GetItem(ctx context.Context, id string) (catalog.Item, error)
}

// Service owns the movement ledger and its line-transfer state machine.
type Service struct {
	repo     RepositoryPort
	cost     CostPort
	items    ItemsPort
	activity shared.ActivityRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, cost CostPort, items ItemsPort, activity shared.ActivityRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, cost: cost, items: items, activity: activity, logger: logger, now: time.Now}
}

// Intake creates a movement entering a staging line. The initial cost
// computation runs best-effort after the insert.
func (s *Service) Intake(ctx context.Context, input IntakeInput) (StockMovement, error) {
	if input.ItemID == "" {
		return StockMovement{}, fmt.Errorf("ledger: item required: %w", shared.ErrValidation)
	}
	item, err := s.items.GetItem(ctx, input.ItemID)
	if err != nil {
		return StockMovement{}, err
	}
	lokasi := input.Lokasi
	if lokasi == "" {
		lokasi = LokasiLini1
	}
	tanggalMasuk := input.TanggalMasuk
	if tanggalMasuk.IsZero() {
		tanggalMasuk = s.today()
	}

	movement := StockMovement{
		ItemID:            input.ItemID,
		Lokasi:            lokasi,
		MovementType:      MovementIn,
		Quantity:          1,
		TanggalMasuk:      tanggalMasuk,
		Status:            StatusAktif,
		BeratKg:           input.BeratKg,
		VolumeM3:          input.VolumeM3,
		DocumentReference: input.DocumentReference,
		Notes:             input.Notes,
	}
	movement, err = s.repo.Insert(ctx, movement)
	if err != nil {
		return StockMovement{}, err
	}

	if err := s.cost.Recompute(ctx, movement.ID); err != nil {
		s.logger.Warn("initial cost calculation", slog.String("movement_id", movement.ID), slog.Any("error", err))
	}

	s.record(ctx, movement.ID, shared.ActionInsert, map[string]any{
		"item_id": movement.ItemID,
		"lokasi":  movement.Lokasi,
		"status":  string(movement.Status),
		"message": fmt.Sprintf("Barang %s masuk ke %s", item.Name, movement.Lokasi),
	})

	return s.repo.Get(ctx, movement.ID)
}

// TransferToLini2 moves an active Lini 1 movement to Lini 2. The status and
// location are committed first so the recompute reads the new tariff.
func (s *Service) TransferToLini2(ctx context.Context, id string) (StockMovement, error) {
	movement, err := s.repo.Get(ctx, id)
	if err != nil {
		return StockMovement{}, err
	}
	if !movement.CanTransfer() {
		return StockMovement{}, fmt.Errorf("%w: cannot transfer from status %q at %q", ErrInvalidTransition, movement.Status, movement.Lokasi)
	}

	tanggalPindah := s.today()
	if err := s.repo.MarkTransferred(ctx, id, tanggalPindah); err != nil {
		return StockMovement{}, err
	}

	if err := s.cost.Recompute(ctx, id); err != nil {
		s.logger.Warn("cost recompute after transfer", slog.String("movement_id", id), slog.Any("error", err))
	}

	itemName := s.itemName(ctx, movement.ItemID)
	s.record(ctx, id, shared.ActionTransferToLini2, map[string]any{
		"lokasi":         LokasiLini2,
		"status":         string(StatusDipindahkan),
		"tanggal_pindah": tanggalPindah.Format("2006-01-02"),
		"message":        fmt.Sprintf("Barang %s dipindahkan ke Lini 2 pada %s", itemName, tanggalPindah.Format("02-01-2006")),
	})

	return s.repo.Get(ctx, id)
}

// Pickup marks a movement as taken by the supplier. Accrual stops: the cached
// total at this moment is the final charged amount, so no recompute runs.
func (s *Service) Pickup(ctx context.Context, id string) (StockMovement, error) {
	movement, err := s.repo.Get(ctx, id)
	if err != nil {
		return StockMovement{}, err
	}
	if !movement.CanPickup() {
		return StockMovement{}, fmt.Errorf("%w: cannot pick up from status %q", ErrInvalidTransition, movement.Status)
	}

	tanggalKeluar := s.today()
	if err := s.repo.MarkPickedUp(ctx, id, tanggalKeluar); err != nil {
		return StockMovement{}, err
	}

	itemName := s.itemName(ctx, movement.ItemID)
	s.record(ctx, id, shared.ActionPickedBySupplier, map[string]any{
		"status":         string(StatusDiambil),
		"tanggal_keluar": tanggalKeluar.Format("2006-01-02"),
		"message":        fmt.Sprintf("Barang %s diambil oleh supplier pada %s", itemName, tanggalKeluar.Format("02-01-2006")),
	})

	return s.repo.Get(ctx, id)
}

// Recalculate re-runs the cost engine for a movement without touching its
// status or location (the "Hitung Ulang" action).
func (s *Service) Recalculate(ctx context.Context, id string) (StockMovement, error) {
	movement, err := s.repo.Get(ctx, id)
	if err != nil {
		return StockMovement{}, err
	}
	if !movement.CanRecalculate() {
		return StockMovement{}, fmt.Errorf("%w: accrual already stopped for status %q", ErrInvalidTransition, movement.Status)
	}
	if err := s.cost.Recompute(ctx, id); err != nil {
		return StockMovement{}, err
	}
	return s.repo.Get(ctx, id)
}

// Get returns a movement by id.
func (s *Service) Get(ctx context.Context, id string) (StockMovement, error) {
	return s.repo.Get(ctx, id)
}

// List returns movements matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]StockMovement, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Service) itemName(ctx context.Context, itemID string) string {
	item, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return itemID
	}
	return item.Name
}

func (s *Service) record(ctx context.Context, recordID string, action shared.ActionType, newData map[string]any) {
	if s.activity == nil {
		return
	}
	err := s.activity.Record(ctx, shared.ActivityLog{
		EntityTable: "stock_movements",
		RecordID:    recordID,
		ActionType:  action,
		NewData:     newData,
	})
	if err != nil {
		s.logger.Warn("record activity", slog.String("movement_id", recordID), slog.Any("error", err))
	}
}
