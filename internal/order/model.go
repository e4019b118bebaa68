package order

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPlaced    Status = "PLACED"
	StatusConfirmed Status = "CONFIRMED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) String() string {
	return string(s)
}

// OrderItem is one purchased line. The unit price is captured at order time and
// never changes afterwards, whatever happens to the catalog price.
type OrderItem struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OrderID   uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID uuid.UUID       `json:"product_id" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Price     decimal.Decimal `json:"price" db:"price"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// Order is the aggregate root. Items are owned by the order: they are written in
// the same transaction that writes the order row and are never created, deleted
// or reparented on their own. Version backs the conditional status update.
type Order struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	OrderNumber string          `json:"order_number" db:"order_number"`
	UserID      uuid.UUID       `json:"user_id" db:"user_id"`
	Status      Status          `json:"status" db:"status"`
	Items       []OrderItem     `json:"items" db:"-"`
	TotalAmount decimal.Decimal `json:"total_amount" db:"total_amount"`
	Version     int64           `json:"version" db:"version"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}
