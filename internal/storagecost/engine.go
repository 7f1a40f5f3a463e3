package storagecost

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/lumbung-wms/lumbung-wms/internal/shared"
)

// RepositoryPort abstracts persistence for the engine.
type RepositoryPort interface {
	GetForCosting(ctx context.Context, movementID string) (costingRow, error)
	UpdateDerived(ctx context.Context, movementID string, hariSimpan int, totalBiaya decimal.Decimal) error
	InsertCalculation(ctx context.Context, c Calculation) error
	History(ctx context.Context, movementID string) ([]Calculation, error)
}

// Engine computes the accrued holding cost of a stock movement.
//
// The current lokasi tariff applies uniformly to every day since
// tanggal_masuk, including days spent on Lini 1 before a transfer. That
// matches the system this replaces; stakeholders have been told it likely
// over-charges transferred goods and have not asked for a change.
type Engine struct {
	repo     RepositoryPort
	activity shared.ActivityRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewEngine builds an Engine.
func NewEngine(repo RepositoryPort, activity shared.ActivityRecorder, logger *slog.Logger) *Engine {
	return &Engine{repo: repo, activity: activity, logger: logger, now: time.Now}
}

// WithClock overrides the engine clock. Test hook.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Calculate computes and persists the accrued cost for one movement as of
// now. Recomputing with the same day and inputs yields the same cached
// totals; every call appends a fresh audit row.
func (e *Engine) Calculate(ctx context.Context, movementID string) (Calculation, error) {
	if movementID == "" {
		return Calculation{}, fmt.Errorf("storagecost: stock movement id required: %w", shared.ErrValidation)
	}
	row, err := e.repo.GetForCosting(ctx, movementID)
	if err != nil {
		return Calculation{}, err
	}

	now := e.now().UTC()
	hariSimpan := daysStored(row.TanggalMasuk, now)

	beratKg := firstNonNil(row.BeratKg, row.ItemWeightKg)
	volumeM3 := firstNonNil(row.VolumeM3, row.ItemVolumeM3)

	tarif := TariffFor(row.Lokasi)
	if tarif.IsZero() && row.Lokasi != "" {
		e.logger.Warn("unrecognized lokasi, tariff falls back to zero",
			slog.String("movement_id", movementID), slog.String("lokasi", row.Lokasi))
	}

	days := decimal.NewFromInt(int64(hariSimpan))
	biayaBerat := decimal.NewFromFloat(beratKg).Mul(tarif).Mul(days)
	biayaVolume := decimal.NewFromFloat(volumeM3).Mul(VolumeRate).Mul(days)
	totalBiaya := biayaBerat.Add(biayaVolume)

	calc := Calculation{
		StockMovementID: movementID,
		TanggalHitung:   truncateToDay(now),
		HariSimpan:      hariSimpan,
		BeratKg:         beratKg,
		VolumeM3:        volumeM3,
		TarifPerKg:      tarif,
		BiayaBerat:      biayaBerat,
		BiayaVolume:     biayaVolume,
		TotalBiaya:      totalBiaya,
		PeriodeAkhir:    now,
		Lokasi:          row.Lokasi,
	}

	// The cached totals must land; the audit row is best-effort, exactly as
	// the system this replaces behaved.
	if err := e.repo.UpdateDerived(ctx, movementID, hariSimpan, totalBiaya); err != nil {
		return Calculation{}, fmt.Errorf("storagecost: update movement: %w", err)
	}
	if err := e.repo.InsertCalculation(ctx, calc); err != nil {
		e.logger.Error("insert storage cost audit row",
			slog.String("movement_id", movementID), slog.Any("error", err))
	}

	if e.activity != nil {
		logErr := e.activity.Record(ctx, shared.ActivityLog{
			EntityTable: "storage_costs",
			RecordID:    movementID,
			ActionType:  shared.ActionCalculateCost,
			NewData: map[string]any{
				"hari_simpan": hariSimpan,
				"total_biaya": totalBiaya.String(),
				"lokasi":      row.Lokasi,
				"message":     fmt.Sprintf("Biaya dihitung: %s untuk %d hari", FormatRupiah(totalBiaya), hariSimpan),
			},
		})
		if logErr != nil {
			e.logger.Warn("record cost activity", slog.String("movement_id", movementID), slog.Any("error", logErr))
		}
	}

	return calc, nil
}

// Recompute runs Calculate for its side effects. Satisfies ledger.CostPort.
func (e *Engine) Recompute(ctx context.Context, stockMovementID string) error {
	_, err := e.Calculate(ctx, stockMovementID)
	return err
}

// History returns the audit trail for one movement.
func (e *Engine) History(ctx context.Context, movementID string) ([]Calculation, error) {
	if _, err := e.repo.GetForCosting(ctx, movementID); err != nil {
		return nil, err
	}
	return e.repo.History(ctx, movementID)
}

// daysStored counts whole elapsed days, clamped at zero so a future-dated
// intake never accrues negative days.
func daysStored(tanggalMasuk, now time.Time) int {
	days := int(now.Sub(tanggalMasuk).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func firstNonNil(values ...*float64) float64 {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}

var rupiahPrinter = message.NewPrinter(language.Indonesian)

// FormatRupiah renders an amount with Indonesian digit grouping, e.g.
// "Rp 75.000".
func FormatRupiah(d decimal.Decimal) string {
	return rupiahPrinter.Sprintf("Rp %v", number.Decimal(d.InexactFloat64(), number.MaxFractionDigits(0)))
}
