package customs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lumbung-wms/lumbung-wms/internal/catalog"
	"github.com/lumbung-wms/lumbung-wms/internal/ledger"
	"github.com/lumbung-wms/lumbung-wms/internal/shared"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	Insert(ctx context.Context, d Document) (Document, error)
	MarkOutcome(ctx context.Context, id string, status DocStatus, responseCode *int, responseBody string, sentAt time.Time) error
	Get(ctx context.Context, id string) (Document, error)
	ListByMovement(ctx context.Context, movementID string) ([]Document, error)
}

// GatewayPort submits a document payload to the customs gateway.
type GatewayPort interface {
	Submit(ctx context.Context, docType DocType, payload map[string]any) (SubmitResult, error)
}

// MovementsPort resolves ledger movements.
type MovementsPort interface {
	Get(ctx context.Context, id string) (ledger.StockMovement, error)
}

// ItemsPort resolves item master data.
type ItemsPort interface {
	GetItem(ctx context.Context, id string) (catalog.Item, error)
}

// Service reports stock movements to CEISA.
type Service struct {
	repo      RepositoryPort
	gateway   GatewayPort
	movements MovementsPort
	items     ItemsPort
	activity  shared.ActivityRecorder
	logger    *slog.Logger
	now       func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, gateway GatewayPort, movements MovementsPort, items ItemsPort, activity shared.ActivityRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, gateway: gateway, movements: movements, items: items, activity: activity, logger: logger, now: time.Now}
}

// ReportMovement builds a customs document for one movement and submits it.
// The gateway gets exactly one attempt; the document records the verdict
// either way and a rejected submission returns the upstream error.
func (s *Service) ReportMovement(ctx context.Context, input ReportInput) (Document, error) {
	if input.StockMovementID == "" {
		return Document{}, fmt.Errorf("customs: stock movement id required: %w", shared.ErrValidation)
	}
	if !input.DocType.Valid() {
		return Document{}, fmt.Errorf("%w: %q", ErrInvalidDocType, input.DocType)
	}
	movement, err := s.movements.Get(ctx, input.StockMovementID)
	if err != nil {
		return Document{}, err
	}
	item, err := s.items.GetItem(ctx, movement.ItemID)
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		StockMovementID: movement.ID,
		DocType:         input.DocType,
		DocNumber:       input.DocNumber,
		Status:          StatusDraft,
		Payload:         buildPayload(input, movement, item),
	}
	doc, err = s.repo.Insert(ctx, doc)
	if err != nil {
		return Document{}, err
	}

	return s.submit(ctx, doc)
}

// Send resubmits an existing document. Manual re-send is the only retry path.
func (s *Service) Send(ctx context.Context, docID string) (Document, error) {
	doc, err := s.repo.Get(ctx, docID)
	if err != nil {
		return Document{}, err
	}
	return s.submit(ctx, doc)
}

func (s *Service) submit(ctx context.Context, doc Document) (Document, error) {
	s.record(ctx, doc.ID, shared.ActionCeisaRequest, map[string]any{
		"stock_movement_id": doc.StockMovementID,
		"doc_type":          string(doc.DocType),
		"doc_number":        doc.DocNumber,
	})

	sentAt := s.now().UTC()
	result, submitErr := s.gateway.Submit(ctx, doc.DocType, doc.Payload)
	status := StatusSent
	if submitErr != nil {
		status = StatusFailed
	}
	var code *int
	if result.StatusCode != 0 {
		code = &result.StatusCode
	}
	if err := s.repo.MarkOutcome(ctx, doc.ID, status, code, result.Body, sentAt); err != nil {
		s.logger.Error("mark customs outcome", slog.String("document_id", doc.ID), slog.Any("error", err))
	}

	s.record(ctx, doc.ID, shared.ActionCeisaResponse, map[string]any{
		"status":        string(status),
		"response_code": result.StatusCode,
	})

	if submitErr != nil {
		s.logger.Warn("ceisa submission failed",
			slog.String("document_id", doc.ID),
			slog.String("doc_type", string(doc.DocType)),
			slog.Any("error", submitErr))
		return Document{}, submitErr
	}
	return s.repo.Get(ctx, doc.ID)
}

// Get returns one document.
func (s *Service) Get(ctx context.Context, id string) (Document, error) {
	return s.repo.Get(ctx, id)
}

// ListByMovement returns the submission history for one movement.
func (s *Service) ListByMovement(ctx context.Context, movementID string) ([]Document, error) {
	return s.repo.ListByMovement(ctx, movementID)
}

func buildPayload(input ReportInput, m ledger.StockMovement, item catalog.Item) map[string]any {
	payload := map[string]any{
		"doc_type":           string(input.DocType),
		"doc_number":         input.DocNumber,
		"stock_movement_id":  m.ID,
		"item_sku":           item.SKU,
		"item_name":          item.Name,
		"quantity":           m.Quantity,
		"lokasi":             m.Lokasi,
		"status":             string(m.Status),
		"tanggal_masuk":      m.TanggalMasuk.Format("2006-01-02"),
		"document_reference": m.DocumentReference,
	}
	if m.TanggalKeluar != nil {
		payload["tanggal_keluar"] = m.TanggalKeluar.Format("2006-01-02")
	}
	if m.BeratKg != nil {
		payload["berat_kg"] = *m.BeratKg
	}
	if m.VolumeM3 != nil {
		payload["volume_m3"] = *m.VolumeM3
	}
	return payload
}

func (s *Service) record(ctx context.Context, docID string, action shared.ActionType, newData map[string]any) {
	if s.activity == nil {
		return
	}
	err := s.activity.Record(ctx, shared.ActivityLog{
		EntityTable: "customs_documents",
		RecordID:    docID,
		ActionType:  action,
		NewData:     newData,
	})
	if err != nil {
		s.logger.Warn("record customs activity", slog.String("document_id", docID), slog.Any("error", err))
	}
}
