package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumbung-wms/lumbung-wms/internal/shared"
)

// MovementStatus enumerates the line-transfer lifecycle of a movement.
type MovementStatus string

const (
	// StatusAktif is the unique initial state, set at intake.
	StatusAktif MovementStatus = "Aktif"
	// StatusDipindahkan marks goods transferred from Lini 1 to Lini 2.
	StatusDipindahkan MovementStatus = "Dipindahkan"
	// StatusDiambil marks goods picked up by the supplier. Absorbing.
	StatusDiambil MovementStatus = "Diambil"
)

// Staging line labels.
const (
	LokasiLini1 = "Lini 1"
	LokasiLini2 = "Lini 2"
)

// MovementType classifies a ledger entry.
type MovementType string

const (
	MovementIn       MovementType = "in"
	MovementOut      MovementType = "out"
	MovementTransfer MovementType = "transfer"
	MovementInbound  MovementType = "INBOUND"
	MovementOutbound MovementType = "OUTBOUND"
)

// StockMovement is a ledger row. HariSimpan and TotalBiaya are cached derived
// fields: a pure function of (lokasi, tanggal_masuk, berat_kg, volume_m3, now),
// rewritten only by a cost-engine invocation or a line transfer.
type StockMovement struct {
	ID                string          `json:"id"`
	ItemID            string          `json:"item_id"`
	BatchID           *string         `json:"batch_id,omitempty"`
	LotID             *string         `json:"lot_id,omitempty"`
	Lokasi            string          `json:"lokasi"`
	MovementType      MovementType    `json:"movement_type"`
	Quantity          int             `json:"quantity"`
	TanggalMasuk      time.Time       `json:"tanggal_masuk"`
	TanggalKeluar     *time.Time      `json:"tanggal_keluar,omitempty"`
	TanggalPindah     *time.Time      `json:"tanggal_pindah,omitempty"`
	Status            MovementStatus  `json:"status"`
	BeratKg           *float64        `json:"berat_kg,omitempty"`
	VolumeM3          *float64        `json:"volume_m3,omitempty"`
	HariSimpan        int             `json:"hari_simpan"`
	TotalBiaya        decimal.Decimal `json:"total_biaya"`
	DocumentReference string          `json:"document_reference,omitempty"`
	Notes             string          `json:"notes,omitempty"`
}

// CanTransfer reports whether the movement may move to Lini 2.
func (m StockMovement) CanTransfer() bool {
	return m.Status == StatusAktif && m.Lokasi == LokasiLini1
}

// CanPickup reports whether the supplier may pick the movement up.
func (m StockMovement) CanPickup() bool {
	return m.Status == StatusAktif || m.Status == StatusDipindahkan
}

// CanRecalculate reports whether the cost engine may run. Accrual stops once
// the goods leave with the supplier.
func (m StockMovement) CanRecalculate() bool {
	return m.Status != StatusDiambil
}

// ListFilter narrows movement listings.
type ListFilter struct {
	Lokasi           string
	Status           MovementStatus
	TanggalMasukFrom time.Time
	TanggalMasukTo   time.Time
	Limit            int
}

// IntakeInput describes a new movement entering Lini 1.
type IntakeInput struct {
	ItemID            string
	Lokasi            string
	TanggalMasuk      time.Time
	BeratKg           *float64
	VolumeM3          *float64
	DocumentReference string
	Notes             string
}

// ErrMovementNotFound indicates a missing movement.
var ErrMovementNotFound = fmt.Errorf("ledger: stock movement %w", shared.ErrNotFound)

// ErrInvalidTransition rejects an illegal state-machine transition.
var ErrInvalidTransition = fmt.Errorf("ledger: invalid status transition: %w", shared.ErrValidation)
