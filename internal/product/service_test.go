package product_test

import (
	"context"
	"testing"

	"github.com/eadshop/ecommerce-services/internal/product"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProductRepository struct {
	createFunc    func(ctx context.Context, p *product.Product) (uuid.UUID, error)
	getByIDFunc   func(ctx context.Context, id uuid.UUID) (*product.Product, error)
	listFunc      func(ctx context.Context) ([]product.Product, error)
	decrementFunc func(ctx context.Context, id uuid.UUID, quantity int) error
}

func (m *mockProductRepository) Create(ctx context.Context, p *product.Product) (uuid.UUID, error) {
	return m.createFunc(ctx, p)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockProductRepository) List(ctx context.Context) ([]product.Product, error) {
	return m.listFunc(ctx)
}

func (m *mockProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	return m.decrementFunc(ctx, id, quantity)
}

func TestProductService_CreateProduct(t *testing.T) {
	tests := []struct {
		name    string
		input   *product.Product
		wantErr bool
	}{
		{
			name:    "missing_name",
			input:   &product.Product{Price: decimal.NewFromInt(10), StockCount: 5},
			wantErr: true,
		},
		{
			name:    "negative_price",
			input:   &product.Product{Name: "Mug", Price: decimal.NewFromInt(-1)},
			wantErr: true,
		},
		{
			name:    "negative_stock",
			input:   &product.Product{Name: "Mug", Price: decimal.NewFromInt(10), StockCount: -1},
			wantErr: true,
		},
		{
			name:  "valid_product",
			input: &product.Product{Name: "Mug", Price: decimal.RequireFromString("12.50"), StockCount: 5},
		},
		{
			name:  "zero_stock_is_unavailable",
			input: &product.Product{Name: "Mug", Price: decimal.NewFromInt(10), StockCount: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockProductRepository{
				createFunc: func(ctx context.Context, p *product.Product) (uuid.UUID, error) {
					id := uuid.Must(uuid.NewV4())
					p.ID = id
					return id, nil
				},
			}
			svc := product.NewService(mockRepo)

			created, err := svc.CreateProduct(context.Background(), tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, created.ID)
			assert.Equal(t, tt.input.StockCount > 0, created.IsAvailable)
		})
	}
}

func TestProductService_DecrementStock(t *testing.T) {
	productID := uuid.Must(uuid.NewV4())

	t.Run("insufficient_stock_passthrough", func(t *testing.T) {
		mockRepo := &mockProductRepository{
			decrementFunc: func(ctx context.Context, id uuid.UUID, quantity int) error {
				return product.ErrInsufficientStock
			},
		}
		svc := product.NewService(mockRepo)

		err := svc.DecrementStock(context.Background(), productID, 3)
		assert.ErrorIs(t, err, product.ErrInsufficientStock)
	})

	t.Run("not_found_passthrough", func(t *testing.T) {
		mockRepo := &mockProductRepository{
			decrementFunc: func(ctx context.Context, id uuid.UUID, quantity int) error {
				return product.ErrNotFound
			},
		}
		svc := product.NewService(mockRepo)

		err := svc.DecrementStock(context.Background(), productID, 3)
		assert.ErrorIs(t, err, product.ErrNotFound)
	})

	t.Run("success", func(t *testing.T) {
		var gotQty int
		mockRepo := &mockProductRepository{
			decrementFunc: func(ctx context.Context, id uuid.UUID, quantity int) error {
				gotQty = quantity
				return nil
			},
		}
		svc := product.NewService(mockRepo)

		require.NoError(t, svc.DecrementStock(context.Background(), productID, 3))
		assert.Equal(t, 3, gotQty)
	})
}
