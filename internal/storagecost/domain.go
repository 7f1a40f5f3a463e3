package storagecost

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumbung-wms/lumbung-wms/internal/ledger"
	"github.com/lumbung-wms/lumbung-wms/internal/shared"
)

// Daily storage tariffs in rupiah per kg per day by staging line. An
// unrecognized lokasi yields a zero tariff: the source system silently charged
// nothing for it, and that behavior is kept until stakeholders decide
// otherwise (a warning is logged instead).
var (
	TariffLini1 = decimal.NewFromInt(1500)
	TariffLini2 = decimal.NewFromInt(2500)
	// VolumeRate is charged per m³ per day regardless of lokasi.
	VolumeRate = decimal.NewFromInt(5000)
)

// TariffFor returns the per-kg daily tariff for a staging line.
func TariffFor(lokasi string) decimal.Decimal {
	switch lokasi {
	case ledger.LokasiLini1:
		return TariffLini1
	case ledger.LokasiLini2:
		return TariffLini2
	default:
		return decimal.Zero
	}
}

// Calculation is one append-only storage_costs audit row. Every engine
// invocation appends a fresh row even though the movement's cached total is
// overwritten; the trail is intentional.
type Calculation struct {
	ID              string          `json:"id"`
	StockMovementID string          `json:"stock_movement_id"`
	TanggalHitung   time.Time       `json:"tanggal_hitung"`
	HariSimpan      int             `json:"hari_simpan"`
	BeratKg         float64         `json:"berat_kg"`
	VolumeM3        float64         `json:"volume_m3"`
	TarifPerKg      decimal.Decimal `json:"tarif_per_kg"`
	BiayaBerat      decimal.Decimal `json:"biaya_berat"`
	BiayaVolume     decimal.Decimal `json:"biaya_volume"`
	TotalBiaya      decimal.Decimal `json:"total_biaya"`
	PeriodeAkhir    time.Time       `json:"periode_akhir"`
	Lokasi          string          `json:"lokasi"`
}

// DailySummary is the per-day aggregate, upserted keyed by date.
type DailySummary struct {
	Tanggal       time.Time       `json:"tanggal"`
	TotalAktif    int             `json:"total_aktif"`
	TotalDipindah int             `json:"total_dipindah"`
	TotalDiambil  int             `json:"total_diambil"`
	TotalBiaya    decimal.Decimal `json:"total_biaya"`
}

// ItemError records a per-movement failure inside the daily batch.
type ItemError struct {
	StockMovementID string `json:"stock_movement_id"`
	Error           string `json:"error"`
}

// DailyResult reports the outcome of one daily batch run.
type DailyResult struct {
	TotalProcessed    int             `json:"total_processed"`
	SuccessCount      int             `json:"success_count"`
	ErrorCount        int             `json:"error_count"`
	TotalBiayaHariIni decimal.Decimal `json:"total_biaya_hari_ini"`
	AlertSent         bool            `json:"alert_sent"`
	Errors            []ItemError     `json:"errors,omitempty"`
}

// costingRow is the movement/item join the engine computes from.
type costingRow struct {
	ID           string
	Lokasi       string
	TanggalMasuk time.Time
	BeratKg      *float64
	VolumeM3     *float64
	ItemWeightKg *float64
	ItemVolumeM3 *float64
}

// ErrAlreadyRunning indicates an overlapping daily batch run was skipped.
var ErrAlreadyRunning = fmt.Errorf("storagecost: daily batch already running: %w", shared.ErrValidation)

// ErrSummaryNotFound indicates no daily summary exists for the requested date.
var ErrSummaryNotFound = fmt.Errorf("storagecost: daily summary %w", shared.ErrNotFound)
