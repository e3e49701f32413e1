package app

import (
	"context"

	"github.com/ticketcore/boxoffice/internal/domain"
)

type CatalogRepository interface {
	CreateItem(ctx context.Context, item domain.Item) error
	ListItems(ctx context.Context) ([]domain.Item, error)
	GetItem(ctx context.Context, itemID string) (domain.Item, error)
}

// CatalogService owns catalog items. The reservation core only ever reads
// through CatalogReader; item management is an operator surface.
type CatalogService struct {
	repo CatalogRepository
}

func NewCatalogService(repo CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

type CreateItemInput struct {
	Name     string
	Price    int64
	Capacity int
}

func (s *CatalogService) CreateItem(ctx context.Context, in CreateItemInput) (domain.Item, error) {
	if in.Name == "" {
		return domain.Item{}, domain.ErrItemNameRequired
	}
	if in.Capacity <= 0 {
		return domain.Item{}, domain.ErrInvalidCapacity
	}
	if in.Price < 0 {
		return domain.Item{}, domain.ErrInvalidPrice
	}

	item := domain.Item{
		ID:       newID(),
		Name:     in.Name,
		Price:    in.Price,
		Capacity: in.Capacity,
	}

	if err := s.repo.CreateItem(ctx, item); err != nil {
		return domain.Item{}, err
	}
	return item, nil
}

func (s *CatalogService) ListItems(ctx context.Context) ([]domain.Item, error) {
	return s.repo.ListItems(ctx)
}

func (s *CatalogService) GetItem(ctx context.Context, itemID string) (domain.Item, error) {
	if itemID == "" {
		return domain.Item{}, domain.ErrInvalidID
	}
	return s.repo.GetItem(ctx, itemID)
}
