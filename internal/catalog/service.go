package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lumbung-wms/lumbung-wms/internal/shared"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	CreateItem(ctx context.Context, item Item) (Item, error)
	GetItem(ctx context.Context, id string) (Item, error)
	ListItems(ctx context.Context) ([]Item, error)
	ListBatches(ctx context.Context) ([]BatchContext, error)
	GetBatchByCode(ctx context.Context, code string) (BatchContext, error)
}

// Service coordinates catalog operations.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CreateItem registers a new item. SKU must be unique.
func (s *Service) CreateItem(ctx context.Context, item Item) (Item, error) {
	if strings.TrimSpace(item.SKU) == "" || strings.TrimSpace(item.Name) == "" {
		return Item{}, fmt.Errorf("catalog: sku and name required: %w", shared.ErrValidation)
	}
	return s.repo.CreateItem(ctx, item)
}

// GetItem returns an item by id.
func (s *Service) GetItem(ctx context.Context, id string) (Item, error) {
	return s.repo.GetItem(ctx, id)
}

// ListItems lists all items.
func (s *Service) ListItems(ctx context.Context) ([]Item, error) {
	return s.repo.ListItems(ctx)
}

// ListBatches lists batches with the expiry policy applied to each status.
func (s *Service) ListBatches(ctx context.Context) ([]BatchContext, error) {
	batches, err := s.repo.ListBatches(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range batches {
		batches[i].Status = batches[i].EffectiveStatus(now)
	}
	return batches, nil
}

// ScanBatch resolves scanner input (batch code or lot code) to a batch.
func (s *Service) ScanBatch(ctx context.Context, code string) (BatchContext, error) {
	if strings.TrimSpace(code) == "" {
		return BatchContext{}, fmt.Errorf("catalog: scan code required: %w", shared.ErrValidation)
	}
	bc, err := s.repo.GetBatchByCode(ctx, code)
	if err != nil {
		return BatchContext{}, err
	}
	bc.Status = bc.EffectiveStatus(s.now())
	return bc, nil
}
