package customs

import (
	"fmt"
	"time"

	"github.com/lumbung-wms/lumbung-wms/internal/shared"
)

// DocType enumerates the customs document kinds reported to CEISA.
type DocType string

const (
	// DocBC23 is the import declaration for goods entering the bonded area.
	DocBC23 DocType = "BC23"
	// DocBC40 is the declaration for goods released from the bonded area.
	DocBC40 DocType = "BC40"
)

// Valid reports whether the doc type is one we can submit.
func (d DocType) Valid() bool {
	return d == DocBC23 || d == DocBC40
}

// DocStatus enumerates submission states of a document.
type DocStatus string

const (
	StatusDraft  DocStatus = "draft"
	StatusSent   DocStatus = "sent"
	StatusFailed DocStatus = "failed"
)

// Document is one customs submission tracked against a stock movement.
// A failed document stays on record and a manual re-send overwrites its
// outcome with the new verdict.
type Document struct {
	ID              string         `json:"id"`
	StockMovementID string         `json:"stock_movement_id"`
	DocType         DocType        `json:"doc_type"`
	DocNumber       string         `json:"doc_number"`
	Payload         map[string]any `json:"payload"`
	Status          DocStatus      `json:"status"`
	ResponseCode    *int           `json:"response_code,omitempty"`
	ResponseBody    string         `json:"response_body,omitempty"`
	SentAt          *time.Time     `json:"sent_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// ReportInput requests a customs submission for one movement.
type ReportInput struct {
	StockMovementID string
	DocType         DocType
	DocNumber       string
}

// ErrDocumentNotFound indicates a missing customs document.
var ErrDocumentNotFound = fmt.Errorf("customs: document %w", shared.ErrNotFound)

// ErrInvalidDocType rejects an unknown document kind.
var ErrInvalidDocType = fmt.Errorf("customs: unknown doc type: %w", shared.ErrValidation)
