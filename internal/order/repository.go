package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type Repository interface {
	CreateOrder(ctx context.Context, order *Order) (uuid.UUID, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
	GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus Status, expectedVersion int64) error
	DeleteOrder(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

// CreateOrder persists the aggregate in one transaction: the order row and all
// item rows commit together or not at all. The order_number unique index turns
// a caller retry with a reused number into ErrDuplicateOrderNumber instead of a
// second order.
func (r *postgresRepository) CreateOrder(ctx context.Context, orderInput *Order) (orderID uuid.UUID, err error) {
	finalOrderID := orderInput.ID
	if finalOrderID == uuid.Nil {
		genID, genErr := uuid.NewV4()
		if genErr != nil {
			return uuid.Nil, fmt.Errorf("repository: failed to generate order ID: %w", genErr)
		}
		finalOrderID = genID
	}
	orderInput.ID = finalOrderID

	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id_attempted", finalOrderID).Msg("Failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id_attempted", finalOrderID).Msg("Failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	queryOrder := `
		INSERT INTO orders (id, order_number, user_id, status, total_amount, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.Exec(ctx, queryOrder,
		finalOrderID,
		orderInput.OrderNumber,
		orderInput.UserID,
		string(orderInput.Status),
		orderInput.TotalAmount,
		orderInput.Version,
		orderInput.CreatedAt,
		orderInput.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, fmt.Errorf("repository: order number %s: %w", orderInput.OrderNumber, ErrDuplicateOrderNumber)
		}
		return uuid.Nil, fmt.Errorf("repository: failed to insert order: %w", err)
	}

	queryItem := `
		INSERT INTO order_items (id, order_id, product_id, quantity, price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i := range orderInput.Items {
		item := &orderInput.Items[i]

		itemID, genErr := uuid.NewV4()
		if genErr != nil {
			err = fmt.Errorf("repository: failed to generate order item ID: %w", genErr)
			return uuid.Nil, err
		}
		item.ID = itemID
		item.OrderID = finalOrderID
		item.CreatedAt = orderInput.CreatedAt

		_, err = tx.Exec(ctx, queryItem,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Quantity,
			item.Price,
			item.CreatedAt,
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("repository: failed to insert order item for order %s: %w", finalOrderID, err)
		}
	}

	return finalOrderID, nil
}

func (r *postgresRepository) GetOrderByID(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	queryOrder := `
		SELECT id, order_number, user_id, status, total_amount, version, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var o Order
	err := r.db.QueryRow(ctx, queryOrder, orderID).Scan(
		&o.ID,
		&o.OrderNumber,
		&o.UserID,
		&o.Status,
		&o.TotalAmount,
		&o.Version,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", orderID, err)
	}

	items, err := r.loadItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return &o, nil
}

func (r *postgresRepository) loadItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, quantity, price, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items for order id %s: %w", orderID, err)
	}
	defer rows.Close()

	items := make([]OrderItem, 0)
	for rows.Next() {
		var item OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.Price,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item for order id %s: %w", orderID, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items for order id %s: %w", orderID, err)
	}

	return items, nil
}

func (r *postgresRepository) ListOrders(ctx context.Context) ([]Order, error) {
	query := `
		SELECT id, order_number, user_id, status, total_amount, version, created_at, updated_at
		FROM orders
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	orders, orderIDs, err := scanOrderRows(rows)
	if err != nil {
		return nil, err
	}
	if len(orderIDs) == 0 {
		return []Order{}, nil
	}

	if err := r.attachItems(ctx, orders, orderIDs); err != nil {
		return nil, err
	}

	return collectOrders(orders, orderIDs), nil
}

func (r *postgresRepository) GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	query := `
		SELECT id, order_number, user_id, status, total_amount, version, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders for user id %s: %w", userID, err)
	}
	defer rows.Close()

	orders, orderIDs, err := scanOrderRows(rows)
	if err != nil {
		return nil, err
	}
	if len(orderIDs) == 0 {
		return []Order{}, nil
	}

	if err := r.attachItems(ctx, orders, orderIDs); err != nil {
		return nil, err
	}

	return collectOrders(orders, orderIDs), nil
}

func scanOrderRows(rows pgx.Rows) (map[uuid.UUID]*Order, []uuid.UUID, error) {
	orders := make(map[uuid.UUID]*Order)
	var orderIDs []uuid.UUID

	for rows.Next() {
		var o Order
		err := rows.Scan(
			&o.ID,
			&o.OrderNumber,
			&o.UserID,
			&o.Status,
			&o.TotalAmount,
			&o.Version,
			&o.CreatedAt,
			&o.UpdatedAt,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		o.Items = make([]OrderItem, 0)
		orders[o.ID] = &o
		orderIDs = append(orderIDs, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}

	return orders, orderIDs, nil
}

func (r *postgresRepository) attachItems(ctx context.Context, orders map[uuid.UUID]*Order, orderIDs []uuid.UUID) error {
	query := `
		SELECT id, order_id, product_id, quantity, price, created_at
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY created_at, id
	`

	rows, err := r.db.Query(ctx, query, orderIDs)
	if err != nil {
		return fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.Price,
			&item.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		if o, ok := orders[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("repository: error iterating order items: %w", err)
	}

	return nil
}

func collectOrders(orders map[uuid.UUID]*Order, orderIDs []uuid.UUID) []Order {
	result := make([]Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		if o, ok := orders[id]; ok {
			result = append(result, *o)
		}
	}
	return result
}

// UpdateOrderStatus writes the new status conditionally on the version the
// caller read. A concurrent transition bumps the version first, so the losing
// writer affects zero rows and gets ErrVersionConflict rather than silently
// overwriting.
func (r *postgresRepository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus Status, expectedVersion int64) error {
	query := `
		UPDATE orders
		SET status = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4
	`

	cmdTag, err := r.db.Exec(ctx, query,
		string(newStatus),
		time.Now().UTC(),
		orderID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update order status %s: %w", orderID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		var exists bool
		checkErr := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists)
		if checkErr != nil {
			return fmt.Errorf("repository: failed to check order existence %s: %w", orderID, checkErr)
		}
		if !exists {
			return ErrOrderNotFound
		}
		log.Warn().Stringer("order_id", orderID).Int64("expected_version", expectedVersion).Msg("repository: version conflict on status update")
		return ErrVersionConflict
	}

	return nil
}

// DeleteOrder removes the whole aggregate; item rows go with the order via the
// ON DELETE CASCADE foreign key. Partial deletion is not possible.
func (r *postgresRepository) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("repository: failed to delete order %s: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
