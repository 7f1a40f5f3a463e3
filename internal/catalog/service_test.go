package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lumbung-wms/lumbung-wms/internal/shared"
)

type fakeCatalogRepo struct {
	items   map[string]Item
	batches []BatchContext
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{items: map[string]Item{}}
}

func (f *fakeCatalogRepo) CreateItem(_ context.Context, item Item) (Item, error) {
	for _, existing := range f.items {
		if existing.SKU == item.SKU {
			return Item{}, ErrDuplicateSKU
		}
	}
	item.ID = uuid.NewString()
	f.items[item.ID] = item
	return item, nil
}

func (f *fakeCatalogRepo) GetItem(_ context.Context, id string) (Item, error) {
	item, ok := f.items[id]
	if !ok {
		return Item{}, ErrItemNotFound
	}
	return item, nil
}

func (f *fakeCatalogRepo) ListItems(context.Context) ([]Item, error) {
	out := make([]Item, 0, len(f.items))
	for _, item := range f.items {
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeCatalogRepo) ListBatches(context.Context) ([]BatchContext, error) {
	return append([]BatchContext(nil), f.batches...), nil
}

func (f *fakeCatalogRepo) GetBatchByCode(_ context.Context, code string) (BatchContext, error) {
	for _, bc := range f.batches {
		if bc.BatchCode == code || bc.LotCode == code {
			return bc, nil
		}
	}
	return BatchContext{}, ErrBatchNotFound
}

func expiringBatch(code string, expiry time.Time) BatchContext {
	return BatchContext{
		Batch: Batch{
			ID:         uuid.NewString(),
			BatchCode:  code,
			Quantity:   10,
			ExpiryDate: &expiry,
			Status:     BatchActive,
		},
		LotCode: "L-" + code,
	}
}

func TestCreateItemRejectsDuplicateSKU(t *testing.T) {
	svc := NewService(newFakeCatalogRepo())
	_, err := svc.CreateItem(context.Background(), Item{SKU: "SKU-1", Name: "Pompa"})
	require.NoError(t, err)
	_, err = svc.CreateItem(context.Background(), Item{SKU: "SKU-1", Name: "Pompa Lain"})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestCreateItemRequiresSKUAndName(t *testing.T) {
	svc := NewService(newFakeCatalogRepo())
	_, err := svc.CreateItem(context.Background(), Item{SKU: " ", Name: "Pompa"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestListBatchesAppliesExpiryPolicyOnRead(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	repo := newFakeCatalogRepo()
	repo.batches = []BatchContext{
		expiringBatch("FRESH", now.AddDate(0, 1, 0)),
		expiringBatch("STALE", now.AddDate(0, -1, 0)),
	}
	svc := NewService(repo)
	svc.now = func() time.Time { return now }

	batches, err := svc.ListBatches(context.Background())
	require.NoError(t, err)
	byCode := map[string]BatchStatus{}
	for _, b := range batches {
		byCode[b.BatchCode] = b.Status
	}
	require.Equal(t, BatchActive, byCode["FRESH"])
	require.Equal(t, BatchExpired, byCode["STALE"])

	// The stored status is untouched; only the read is adjusted.
	require.Equal(t, BatchActive, repo.batches[1].Batch.Status)
}

func TestScanBatchResolvesLotCode(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	repo := newFakeCatalogRepo()
	repo.batches = []BatchContext{expiringBatch("B-77", now.AddDate(1, 0, 0))}
	svc := NewService(repo)
	svc.now = func() time.Time { return now }

	bc, err := svc.ScanBatch(context.Background(), "L-B-77")
	require.NoError(t, err)
	require.Equal(t, "B-77", bc.BatchCode)

	_, err = svc.ScanBatch(context.Background(), "unknown")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestScanBatchRequiresCode(t *testing.T) {
	svc := NewService(newFakeCatalogRepo())
	_, err := svc.ScanBatch(context.Background(), "  ")
	require.ErrorIs(t, err, shared.ErrValidation)
}
