package ledger

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lumbung-wms/lumbung-wms/internal/catalog"
	"github.com/lumbung-wms/lumbung-wms/internal/shared"
)

type fakeMovementRepo struct {
	movements map[string]StockMovement
	afterGet  func(id string)
}

func newFakeMovementRepo() *fakeMovementRepo {
	return &fakeMovementRepo{movements: map[string]StockMovement{}}
}

func (f *fakeMovementRepo) Insert(_ context.Context, m StockMovement) (StockMovement, error) {
	m.ID = uuid.NewString()
	f.movements[m.ID] = m
	return m, nil
}

func (f *fakeMovementRepo) Get(_ context.Context, id string) (StockMovement, error) {
	m, ok := f.movements[id]
	if !ok {
		return StockMovement{}, ErrMovementNotFound
	}
	if f.afterGet != nil {
		f.afterGet(id)
	}
	return m, nil
}

func (f *fakeMovementRepo) List(_ context.Context, _ ListFilter) ([]StockMovement, error) {
	out := make([]StockMovement, 0, len(f.movements))
	for _, m := range f.movements {
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeMovementRepo) MarkTransferred(_ context.Context, id string, tanggalPindah time.Time) error {
	m, ok := f.movements[id]
	if !ok || !m.CanTransfer() {
		return ErrInvalidTransition
	}
	m.Lokasi = LokasiLini2
	m.Status = StatusDipindahkan
	m.TanggalPindah = &tanggalPindah
	f.movements[id] = m
	return nil
}

func (f *fakeMovementRepo) MarkPickedUp(_ context.Context, id string, tanggalKeluar time.Time) error {
	m, ok := f.movements[id]
	if !ok || !m.CanPickup() {
		return ErrInvalidTransition
	}
	m.Status = StatusDiambil
	m.TanggalKeluar = &tanggalKeluar
	f.movements[id] = m
	return nil
}

// fakeCost snapshots the movement's lokasi at each recompute so tests can
// assert ordering against the transfer.
type fakeCost struct {
	repo        *fakeMovementRepo
	seenLokasi  []string
	recomputeds []string
}

func (f *fakeCost) Recompute(_ context.Context, id string) error {
	f.recomputeds = append(f.recomputeds, id)
	if m, ok := f.repo.movements[id]; ok {
		f.seenLokasi = append(f.seenLokasi, m.Lokasi)
	}
	return nil
}

type fakeItems struct {
	items map[string]catalog.Item
}

func (f *fakeItems) GetItem(_ context.Context, id string) (catalog.Item, error) {
	item, ok := f.items[id]
	if !ok {
		return catalog.Item{}, catalog.ErrItemNotFound
	}
	return item, nil
}

func newTestService(t *testing.T) (*Service, *fakeMovementRepo, *fakeCost, string) {
	t.Helper()
	repo := newFakeMovementRepo()
	cost := &fakeCost{repo: repo}
	itemID := uuid.NewString()
	items := &fakeItems{items: map[string]catalog.Item{
		itemID: {ID: itemID, SKU: "SKU-1", Name: "Mesin Press"},
	}}
	svc := NewService(repo, cost, items, nil, slog.Default())
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }
	return svc, repo, cost, itemID
}

func TestIntakeDefaultsToLini1Aktif(t *testing.T) {
	svc, _, cost, itemID := newTestService(t)

	m, err := svc.Intake(context.Background(), IntakeInput{ItemID: itemID})
	require.NoError(t, err)
	require.Equal(t, LokasiLini1, m.Lokasi)
	require.Equal(t, StatusAktif, m.Status)
	require.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), m.TanggalMasuk)
	require.Len(t, cost.recomputeds, 1)
}

func TestIntakeUnknownItem(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.Intake(context.Background(), IntakeInput{ItemID: uuid.NewString()})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestTransferCommitsBeforeRecompute(t *testing.T) {
	svc, _, cost, itemID := newTestService(t)
	m, err := svc.Intake(context.Background(), IntakeInput{ItemID: itemID})
	require.NoError(t, err)

	moved, err := svc.TransferToLini2(context.Background(), m.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDipindahkan, moved.Status)
	require.Equal(t, LokasiLini2, moved.Lokasi)
	require.NotNil(t, moved.TanggalPindah)

	// The recompute after the transfer must read the new lokasi so the new
	// tariff applies.
	require.Equal(t, []string{LokasiLini1, LokasiLini2}, cost.seenLokasi)
}

func TestTransferRejectedFromLini2(t *testing.T) {
	svc, _, _, itemID := newTestService(t)
	m, err := svc.Intake(context.Background(), IntakeInput{ItemID: itemID, Lokasi: LokasiLini2})
	require.NoError(t, err)

	_, err = svc.TransferToLini2(context.Background(), m.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransferRejectedAfterPickup(t *testing.T) {
	svc, _, _, itemID := newTestService(t)
	m, err := svc.Intake(context.Background(), IntakeInput{ItemID: itemID})
	require.NoError(t, err)
	_, err = svc.Pickup(context.Background(), m.ID)
	require.NoError(t, err)

	_, err = svc.TransferToLini2(context.Background(), m.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	stored, err := svc.Get(context.Background(), m.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDiambil, stored.Status)
}

func TestTransferLosesRaceToPickup(t *testing.T) {
	svc, repo, _, itemID := newTestService(t)
	m, err := svc.Intake(context.Background(), IntakeInput{ItemID: itemID})
	require.NoError(t, err)

	// A pickup lands between the transfer's read and its write. The guarded
	// UPDATE must refuse to overwrite the terminal state.
	repo.afterGet = func(id string) {
		repo.afterGet = nil
		stored := repo.movements[id]
		stored.Status = StatusDiambil
		repo.movements[id] = stored
	}
	_, err = svc.TransferToLini2(context.Background(), m.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, StatusDiambil, repo.movements[m.ID].Status)
}

func TestPickupStopsAccrual(t *testing.T) {
	svc, _, cost, itemID := newTestService(t)
	m, err := svc.Intake(context.Background(), IntakeInput{ItemID: itemID})
	require.NoError(t, err)
	recomputes := len(cost.recomputeds)

	picked, err := svc.Pickup(context.Background(), m.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDiambil, picked.Status)
	require.NotNil(t, picked.TanggalKeluar)
	// No recompute on pickup: the cached total is the final charge.
	require.Len(t, cost.recomputeds, recomputes)
}

func TestPickupFromLini2(t *testing.T) {
	svc, _, _, itemID := newTestService(t)
	m, err := svc.Intake(context.Background(), IntakeInput{ItemID: itemID})
	require.NoError(t, err)
	_, err = svc.TransferToLini2(context.Background(), m.ID)
	require.NoError(t, err)

	picked, err := svc.Pickup(context.Background(), m.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDiambil, picked.Status)
}

func TestPickupIsAbsorbing(t *testing.T) {
	svc, _, _, itemID := newTestService(t)
	m, err := svc.Intake(context.Background(), IntakeInput{ItemID: itemID})
	require.NoError(t, err)
	_, err = svc.Pickup(context.Background(), m.ID)
	require.NoError(t, err)

	_, err = svc.Pickup(context.Background(), m.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRecalculateRejectedAfterPickup(t *testing.T) {
	svc, _, _, itemID := newTestService(t)
	m, err := svc.Intake(context.Background(), IntakeInput{ItemID: itemID})
	require.NoError(t, err)
	_, err = svc.Pickup(context.Background(), m.ID)
	require.NoError(t, err)

	_, err = svc.Recalculate(context.Background(), m.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}
