package order

import (
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// RawItem is a cart entry as supplied by the caller. ProductID and Price come
// from the catalog collaborator at order time; neither is verified here.
type RawItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// NormalizeItems validates raw cart entries and reshapes them into order items.
// The input order is preserved and duplicate product ids are kept as separate
// lines. No side effects.
func NormalizeItems(userID uuid.UUID, raw []RawItem) ([]OrderItem, error) {
	if userID == uuid.Nil {
		return nil, validationErrorf("user id is required")
	}
	if len(raw) == 0 {
		return nil, validationErrorf("order must contain at least one item")
	}

	items := make([]OrderItem, 0, len(raw))
	for i, entry := range raw {
		if entry.ProductID == uuid.Nil {
			return nil, validationErrorf("item %d: product id is required", i)
		}
		if entry.Quantity < 1 {
			return nil, validationErrorf("item %d: quantity must be at least 1, got %d", i, entry.Quantity)
		}
		if entry.Price.IsNegative() {
			return nil, validationErrorf("item %d: price cannot be negative, got %s", i, entry.Price)
		}
		// Prices are stored with cent precision; anything finer would be
		// silently rounded by the NUMERIC(12,2) column and desync the stored
		// total from the stored items.
		if !entry.Price.Equal(entry.Price.Round(2)) {
			return nil, validationErrorf("item %d: price must have at most 2 decimal places, got %s", i, entry.Price)
		}
		items = append(items, OrderItem{
			ProductID: entry.ProductID,
			Quantity:  entry.Quantity,
			Price:     entry.Price,
		})
	}

	return items, nil
}
