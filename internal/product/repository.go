package product

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Repository interface {
	Create(ctx context.Context, p *Product) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	List(ctx context.Context) ([]Product, error)
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const productColumns = `id, name, description, price, stock_count, is_available, created_at, updated_at`

func (r *postgresRepository) Create(ctx context.Context, p *Product) (uuid.UUID, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to generate product ID: %w", err)
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO products (id, name, description, price, stock_count, is_available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.Exec(ctx, query, id, p.Name, p.Description, p.Price, p.StockCount, p.IsAvailable, now, now)
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to insert product: %w", err)
	}

	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return id, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	var p Product
	err := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id).Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.StockCount,
		&p.IsAvailable,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product by id %s: %w", id, err)
	}
	return &p, nil
}

func (r *postgresRepository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		var p Product
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&p.Price,
			&p.StockCount,
			&p.IsAvailable,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating products: %w", err)
	}

	return products, nil
}

// DecrementStock reduces the stock counter conditionally: the update only
// applies while enough stock remains, so concurrent decrements cannot drive
// the counter negative. Availability flips off when the counter hits zero.
func (r *postgresRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("repository: decrement quantity must be at least 1, got %d", quantity)
	}

	query := `
		UPDATE products
		SET stock_count = stock_count - $1,
		    is_available = (stock_count - $1) > 0,
		    updated_at = $2
		WHERE id = $3 AND stock_count >= $1
	`
	cmdTag, err := r.db.Exec(ctx, query, quantity, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("repository: failed to decrement stock for product %s: %w", id, err)
	}

	if cmdTag.RowsAffected() == 0 {
		var exists bool
		checkErr := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists)
		if checkErr != nil {
			return fmt.Errorf("repository: failed to check product existence %s: %w", id, checkErr)
		}
		if !exists {
			return ErrNotFound
		}
		log.Warn().Stringer("product_id", id).Int("quantity", quantity).Msg("repository: insufficient stock for decrement")
		return ErrInsufficientStock
	}

	return nil
}
