package order_test

import (
	"sync"
	"testing"
	"time"

	"github.com/eadshop/ecommerce-services/internal/order"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Build(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	fixedTime := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fixedNumber := uuid.Must(uuid.NewV4())

	b := order.NewBuilder(
		func() time.Time { return fixedTime },
		func() (uuid.UUID, error) { return fixedNumber, nil },
	)

	items := []order.OrderItem{
		item(2, "10.00"),
		item(1, "5.00"),
	}

	o, err := b.Build(userID, items, decimal.RequireFromString("25.00"))
	require.NoError(t, err)

	assert.Equal(t, fixedNumber.String(), o.OrderNumber)
	assert.Equal(t, userID, o.UserID)
	assert.Equal(t, order.StatusPlaced, o.Status)
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("25.00")))
	assert.Equal(t, fixedTime, o.CreatedAt)
	require.Len(t, o.Items, 2)
	assert.Equal(t, items[0].ProductID, o.Items[0].ProductID)
	assert.Equal(t, items[1].ProductID, o.Items[1].ProductID)
}

func TestBuilder_Build_RejectsMismatchedTotal(t *testing.T) {
	b := order.NewBuilder(nil, nil)
	userID := uuid.Must(uuid.NewV4())
	items := []order.OrderItem{item(2, "10.00")}

	_, err := b.Build(userID, items, decimal.RequireFromString("19.99"))
	require.Error(t, err)
	var validationErr *order.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestBuilder_Build_RejectsEmptyItems(t *testing.T) {
	b := order.NewBuilder(nil, nil)

	_, err := b.Build(uuid.Must(uuid.NewV4()), nil, decimal.Zero)
	require.Error(t, err)
	var validationErr *order.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestBuilder_Build_UniqueOrderNumbers(t *testing.T) {
	b := order.NewBuilder(nil, nil)
	userID := uuid.Must(uuid.NewV4())
	items := []order.OrderItem{item(1, "1.00")}
	total := decimal.RequireFromString("1.00")

	const n = 100
	var mu sync.Mutex
	numbers := make(map[string]bool, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := b.Build(userID, items, total)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			numbers[o.OrderNumber] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, numbers, n, "concurrent builds must never share an order number")
}
