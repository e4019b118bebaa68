package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

type Service interface {
	CreateProduct(ctx context.Context, p *Product) (*Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	if p.Name == "" {
		return nil, errors.New("product name is required")
	}
	if p.Price.IsNegative() {
		return nil, fmt.Errorf("product price cannot be negative, got %s", p.Price)
	}
	if p.StockCount < 0 {
		return nil, fmt.Errorf("stock count cannot be negative, got %d", p.StockCount)
	}
	p.IsAvailable = p.StockCount > 0

	if _, err := s.repo.Create(ctx, p); err != nil {
		log.Error().Err(err).Str("name", p.Name).Msg("service: failed to create product")
		return nil, fmt.Errorf("service: failed to create product: %w", err)
	}

	return p, nil
}

func (s *service) GetProductByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch product by id: %w", err)
	}
	return p, nil
}

func (s *service) ListProducts(ctx context.Context) ([]Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list products: %w", err)
	}
	return products, nil
}

func (s *service) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	err := s.repo.DecrementStock(ctx, id, quantity)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInsufficientStock) {
			return err
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to decrement stock")
		return fmt.Errorf("service: failed to decrement stock: %w", err)
	}

	log.Info().Stringer("product_id", id).Int("quantity", quantity).Msg("service: stock decremented")
	return nil
}
