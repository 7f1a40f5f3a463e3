package storagecost

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/lumbung-wms/lumbung-wms/internal/ledger"
)

type fakeCostRepo struct {
	rows       map[string]costingRow
	derived    map[string]Calculation
	calcs      []Calculation
	failInsert error
	failUpdate error
}

func newFakeCostRepo() *fakeCostRepo {
	return &fakeCostRepo{rows: map[string]costingRow{}, derived: map[string]Calculation{}}
}

func (f *fakeCostRepo) GetForCosting(_ context.Context, id string) (costingRow, error) {
	row, ok := f.rows[id]
	if !ok {
		return costingRow{}, ledger.ErrMovementNotFound
	}
	return row, nil
}

func (f *fakeCostRepo) UpdateDerived(_ context.Context, id string, hariSimpan int, totalBiaya decimal.Decimal) error {
	if f.failUpdate != nil {
		return f.failUpdate
	}
	if _, ok := f.rows[id]; !ok {
		return ledger.ErrMovementNotFound
	}
	f.derived[id] = Calculation{HariSimpan: hariSimpan, TotalBiaya: totalBiaya}
	return nil
}

func (f *fakeCostRepo) InsertCalculation(_ context.Context, c Calculation) error {
	if f.failInsert != nil {
		return f.failInsert
	}
	f.calcs = append(f.calcs, c)
	return nil
}

func (f *fakeCostRepo) History(_ context.Context, id string) ([]Calculation, error) {
	var out []Calculation
	for _, c := range f.calcs {
		if c.StockMovementID == id {
			out = append(out, c)
		}
	}
	return out, nil
}

func floatPtr(v float64) *float64 { return &v }

func newTestEngine(repo *fakeCostRepo, now time.Time) *Engine {
	engine := NewEngine(repo, nil, slog.Default())
	return engine.WithClock(func() time.Time { return now })
}

func TestCalculateWeightCostLini1(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newFakeCostRepo()
	repo.rows["mv-1"] = costingRow{
		ID:           "mv-1",
		Lokasi:       ledger.LokasiLini1,
		TanggalMasuk: now.AddDate(0, 0, -5),
		BeratKg:      floatPtr(10),
	}

	calc, err := newTestEngine(repo, now).Calculate(context.Background(), "mv-1")
	require.NoError(t, err)
	require.Equal(t, 5, calc.HariSimpan)
	require.True(t, calc.TotalBiaya.Equal(decimal.NewFromInt(75000)), "got %s", calc.TotalBiaya)
	require.True(t, calc.BiayaVolume.IsZero())
	require.True(t, repo.derived["mv-1"].TotalBiaya.Equal(decimal.NewFromInt(75000)))
}

func TestCalculateWeightCostLini2(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	repo := newFakeCostRepo()
	repo.rows["mv-2"] = costingRow{
		ID:           "mv-2",
		Lokasi:       ledger.LokasiLini2,
		TanggalMasuk: now.AddDate(0, 0, -8),
		BeratKg:      floatPtr(10),
	}

	calc, err := newTestEngine(repo, now).Calculate(context.Background(), "mv-2")
	require.NoError(t, err)
	require.Equal(t, 8, calc.HariSimpan)
	// The Lini 2 tariff applies to all eight days, including time spent on
	// Lini 1 before the transfer.
	require.True(t, calc.TotalBiaya.Equal(decimal.NewFromInt(200000)), "got %s", calc.TotalBiaya)
}

func TestCalculateVolumeCost(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	repo := newFakeCostRepo()
	repo.rows["mv-3"] = costingRow{
		ID:           "mv-3",
		Lokasi:       ledger.LokasiLini1,
		TanggalMasuk: now.AddDate(0, 0, -3),
		BeratKg:      floatPtr(0),
		VolumeM3:     floatPtr(2),
	}

	calc, err := newTestEngine(repo, now).Calculate(context.Background(), "mv-3")
	require.NoError(t, err)
	require.True(t, calc.BiayaVolume.Equal(decimal.NewFromInt(30000)))
	require.True(t, calc.TotalBiaya.Equal(decimal.NewFromInt(30000)))
}

func TestCalculateFallsBackToItemWeight(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	repo := newFakeCostRepo()
	repo.rows["mv-4"] = costingRow{
		ID:           "mv-4",
		Lokasi:       ledger.LokasiLini1,
		TanggalMasuk: now.AddDate(0, 0, -2),
		ItemWeightKg: floatPtr(4),
	}

	calc, err := newTestEngine(repo, now).Calculate(context.Background(), "mv-4")
	require.NoError(t, err)
	require.Equal(t, float64(4), calc.BeratKg)
	require.True(t, calc.TotalBiaya.Equal(decimal.NewFromInt(12000)))
}

func TestCalculateMissingWeightChargesNothing(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	repo := newFakeCostRepo()
	repo.rows["mv-5"] = costingRow{
		ID:           "mv-5",
		Lokasi:       ledger.LokasiLini1,
		TanggalMasuk: now.AddDate(0, 0, -7),
	}

	calc, err := newTestEngine(repo, now).Calculate(context.Background(), "mv-5")
	require.NoError(t, err)
	require.True(t, calc.TotalBiaya.IsZero())
}

func TestCalculateFutureIntakeClampsToZeroDays(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	repo := newFakeCostRepo()
	repo.rows["mv-6"] = costingRow{
		ID:           "mv-6",
		Lokasi:       ledger.LokasiLini1,
		TanggalMasuk: now.AddDate(0, 0, 3),
		BeratKg:      floatPtr(100),
	}

	calc, err := newTestEngine(repo, now).Calculate(context.Background(), "mv-6")
	require.NoError(t, err)
	require.Equal(t, 0, calc.HariSimpan)
	require.True(t, calc.TotalBiaya.IsZero())
}

func TestCalculateUnknownLokasiChargesNoWeightCost(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	repo := newFakeCostRepo()
	repo.rows["mv-7"] = costingRow{
		ID:           "mv-7",
		Lokasi:       "Gudang Timur",
		TanggalMasuk: now.AddDate(0, 0, -4),
		BeratKg:      floatPtr(10),
		VolumeM3:     floatPtr(1),
	}

	calc, err := newTestEngine(repo, now).Calculate(context.Background(), "mv-7")
	require.NoError(t, err)
	require.True(t, calc.BiayaBerat.IsZero())
	// Volume is charged per day regardless of lokasi.
	require.True(t, calc.TotalBiaya.Equal(decimal.NewFromInt(20000)))
}

func TestCalculateAppendsAuditRowEachRun(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	repo := newFakeCostRepo()
	repo.rows["mv-8"] = costingRow{
		ID:           "mv-8",
		Lokasi:       ledger.LokasiLini1,
		TanggalMasuk: now.AddDate(0, 0, -1),
		BeratKg:      floatPtr(1),
	}
	engine := newTestEngine(repo, now)

	first, err := engine.Calculate(context.Background(), "mv-8")
	require.NoError(t, err)
	second, err := engine.Calculate(context.Background(), "mv-8")
	require.NoError(t, err)

	require.True(t, first.TotalBiaya.Equal(second.TotalBiaya))
	require.Len(t, repo.calcs, 2)
}

func TestCalculateAuditInsertFailureIsNotFatal(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	repo := newFakeCostRepo()
	repo.rows["mv-9"] = costingRow{
		ID:           "mv-9",
		Lokasi:       ledger.LokasiLini1,
		TanggalMasuk: now.AddDate(0, 0, -2),
		BeratKg:      floatPtr(5),
	}
	repo.failInsert = errors.New("storage_costs is down")

	calc, err := newTestEngine(repo, now).Calculate(context.Background(), "mv-9")
	require.NoError(t, err)
	require.True(t, calc.TotalBiaya.Equal(decimal.NewFromInt(15000)))
	require.True(t, repo.derived["mv-9"].TotalBiaya.Equal(decimal.NewFromInt(15000)))
	require.Empty(t, repo.calcs)
}

func TestCalculateDerivedUpdateFailureIsFatal(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	repo := newFakeCostRepo()
	repo.rows["mv-10"] = costingRow{
		ID:           "mv-10",
		Lokasi:       ledger.LokasiLini1,
		TanggalMasuk: now.AddDate(0, 0, -2),
		BeratKg:      floatPtr(5),
	}
	repo.failUpdate = errors.New("write refused")

	_, err := newTestEngine(repo, now).Calculate(context.Background(), "mv-10")
	require.Error(t, err)
}

func TestCalculateUnknownMovement(t *testing.T) {
	repo := newFakeCostRepo()
	_, err := newTestEngine(repo, time.Now()).Calculate(context.Background(), "missing")
	require.ErrorIs(t, err, ledger.ErrMovementNotFound)
}

func TestFormatRupiah(t *testing.T) {
	require.Equal(t, "Rp 75.000", FormatRupiah(decimal.NewFromInt(75000)))
}
