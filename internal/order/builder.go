package order

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// Builder assembles a complete order aggregate from normalized items. The
// clock and uuid source are injected so construction stays deterministic in
// tests; there is no ambient state.
type Builder struct {
	now     func() time.Time
	newUUID func() (uuid.UUID, error)
}

func NewBuilder(now func() time.Time, newUUID func() (uuid.UUID, error)) *Builder {
	if now == nil {
		now = time.Now
	}
	if newUUID == nil {
		newUUID = uuid.NewV4
	}
	return &Builder{now: now, newUUID: newUUID}
}

// Build produces a fully-formed aggregate: a fresh 128-bit random order number,
// initial PLACED status and the creation timestamp. The supplied total is
// re-checked against the items, so a caller cannot smuggle in a mismatched
// amount. Callers get either a complete aggregate or an error, never a partial.
func (b *Builder) Build(userID uuid.UUID, items []OrderItem, total decimal.Decimal) (*Order, error) {
	if userID == uuid.Nil {
		return nil, validationErrorf("user id is required")
	}
	if len(items) == 0 {
		return nil, validationErrorf("order must contain at least one item")
	}

	recomputed, err := ComputeTotal(items)
	if err != nil {
		return nil, err
	}
	if !recomputed.Equal(total) {
		return nil, validationErrorf("total %s does not match recomputed total %s", total, recomputed)
	}

	number, err := b.newUUID()
	if err != nil {
		return nil, fmt.Errorf("builder: failed to generate order number: %w", err)
	}

	createdAt := b.now().UTC()
	o := &Order{
		OrderNumber: number.String(),
		UserID:      userID,
		Status:      StatusPlaced,
		Items:       make([]OrderItem, len(items)),
		TotalAmount: total,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	copy(o.Items, items)

	return o, nil
}
