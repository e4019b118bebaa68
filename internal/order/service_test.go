package order_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/eadshop/ecommerce-services/internal/order"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockOrderRepository struct {
	createFunc       func(ctx context.Context, o *order.Order) (uuid.UUID, error)
	getByIDFunc      func(ctx context.Context, id uuid.UUID) (*order.Order, error)
	listFunc         func(ctx context.Context) ([]order.Order, error)
	getByUserIDFunc  func(ctx context.Context, userID uuid.UUID) ([]order.Order, error)
	updateStatusFunc func(ctx context.Context, orderID uuid.UUID, newStatus order.Status, expectedVersion int64) error
	deleteFunc       func(ctx context.Context, id uuid.UUID) error
}

func (m *mockOrderRepository) CreateOrder(ctx context.Context, o *order.Order) (uuid.UUID, error) {
	return m.createFunc(ctx, o)
}

func (m *mockOrderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockOrderRepository) ListOrders(ctx context.Context) ([]order.Order, error) {
	return m.listFunc(ctx)
}

func (m *mockOrderRepository) GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]order.Order, error) {
	return m.getByUserIDFunc(ctx, userID)
}

func (m *mockOrderRepository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus order.Status, expectedVersion int64) error {
	return m.updateStatusFunc(ctx, orderID, newStatus, expectedVersion)
}

func (m *mockOrderRepository) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

func TestOrderService_PlaceOrder(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	productA := uuid.Must(uuid.NewV4())
	productB := uuid.Must(uuid.NewV4())

	t.Run("successful_placement", func(t *testing.T) {
		assignedID := uuid.Must(uuid.NewV4())
		var persisted *order.Order
		mockRepo := &mockOrderRepository{
			createFunc: func(ctx context.Context, o *order.Order) (uuid.UUID, error) {
				o.ID = assignedID
				persisted = o
				return assignedID, nil
			},
		}
		svc := order.NewService(mockRepo, order.NewBuilder(nil, nil), nil)

		o, err := svc.PlaceOrder(context.Background(), userID, []order.RawItem{
			{ProductID: productA, Quantity: 2, Price: decimal.RequireFromString("10.00")},
			{ProductID: productB, Quantity: 1, Price: decimal.RequireFromString("5.00")},
		})
		require.NoError(t, err)
		require.NotNil(t, o)

		assert.Equal(t, assignedID, o.ID)
		assert.Equal(t, userID, o.UserID)
		assert.Equal(t, order.StatusPlaced, o.Status)
		assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("25.00")),
			"want total 25.00, got %s", o.TotalAmount)
		assert.NotEmpty(t, o.OrderNumber)
		require.Len(t, o.Items, 2)
		assert.Equal(t, productA, o.Items[0].ProductID)
		assert.Equal(t, productB, o.Items[1].ProductID)
		assert.Same(t, persisted, o, "the persisted aggregate is the one returned")
	})

	t.Run("empty_items_rejected_before_repository", func(t *testing.T) {
		mockRepo := &mockOrderRepository{
			createFunc: func(ctx context.Context, o *order.Order) (uuid.UUID, error) {
				t.Fatal("repository must not be called for invalid input")
				return uuid.Nil, nil
			},
		}
		svc := order.NewService(mockRepo, order.NewBuilder(nil, nil), nil)

		o, err := svc.PlaceOrder(context.Background(), userID, nil)
		require.Error(t, err)
		assert.Nil(t, o)
		var validationErr *order.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("persistence_failure_surfaces_no_partial_order", func(t *testing.T) {
		mockRepo := &mockOrderRepository{
			createFunc: func(ctx context.Context, o *order.Order) (uuid.UUID, error) {
				return uuid.Nil, errors.New("connection reset")
			},
		}
		svc := order.NewService(mockRepo, order.NewBuilder(nil, nil), nil)

		o, err := svc.PlaceOrder(context.Background(), userID, []order.RawItem{
			{ProductID: productA, Quantity: 1, Price: decimal.RequireFromString("1.00")},
		})
		require.Error(t, err)
		assert.Nil(t, o)
	})

	t.Run("duplicate_order_number_passthrough", func(t *testing.T) {
		mockRepo := &mockOrderRepository{
			createFunc: func(ctx context.Context, o *order.Order) (uuid.UUID, error) {
				return uuid.Nil, order.ErrDuplicateOrderNumber
			},
		}
		svc := order.NewService(mockRepo, order.NewBuilder(nil, nil), nil)

		_, err := svc.PlaceOrder(context.Background(), userID, []order.RawItem{
			{ProductID: productA, Quantity: 1, Price: decimal.RequireFromString("1.00")},
		})
		assert.ErrorIs(t, err, order.ErrDuplicateOrderNumber)
	})

	t.Run("post_commit_hook_runs_after_success", func(t *testing.T) {
		var hooked *order.Order
		mockRepo := &mockOrderRepository{
			createFunc: func(ctx context.Context, o *order.Order) (uuid.UUID, error) {
				id := uuid.Must(uuid.NewV4())
				o.ID = id
				return id, nil
			},
		}
		hook := func(ctx context.Context, o *order.Order) error {
			hooked = o
			return nil
		}
		svc := order.NewService(mockRepo, order.NewBuilder(nil, nil), hook)

		o, err := svc.PlaceOrder(context.Background(), userID, []order.RawItem{
			{ProductID: productA, Quantity: 1, Price: decimal.RequireFromString("2.50")},
		})
		require.NoError(t, err)
		assert.Same(t, o, hooked)
	})

	t.Run("post_commit_hook_failure_does_not_fail_placement", func(t *testing.T) {
		mockRepo := &mockOrderRepository{
			createFunc: func(ctx context.Context, o *order.Order) (uuid.UUID, error) {
				id := uuid.Must(uuid.NewV4())
				o.ID = id
				return id, nil
			},
		}
		hook := func(ctx context.Context, o *order.Order) error {
			return errors.New("catalog unreachable")
		}
		svc := order.NewService(mockRepo, order.NewBuilder(nil, nil), hook)

		o, err := svc.PlaceOrder(context.Background(), userID, []order.RawItem{
			{ProductID: productA, Quantity: 1, Price: decimal.RequireFromString("2.50")},
		})
		require.NoError(t, err)
		require.NotNil(t, o)
	})
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	orderID := uuid.Must(uuid.NewV4())

	stored := func(status order.Status, version int64) *order.Order {
		return &order.Order{
			ID:      orderID,
			UserID:  uuid.Must(uuid.NewV4()),
			Status:  status,
			Version: version,
		}
	}

	tests := []struct {
		name          string
		currentStatus order.Status
		requested     string
		wantStatus    order.Status
		wantErrIs     error
		wantErrAs     string // "validation" or "transition"
	}{
		{
			name:          "placed_to_confirmed",
			currentStatus: order.StatusPlaced,
			requested:     "CONFIRMED",
			wantStatus:    order.StatusConfirmed,
		},
		{
			name:          "confirmed_to_shipped",
			currentStatus: order.StatusConfirmed,
			requested:     "SHIPPED",
			wantStatus:    order.StatusShipped,
		},
		{
			name:          "placed_to_cancelled",
			currentStatus: order.StatusPlaced,
			requested:     "CANCELLED",
			wantStatus:    order.StatusCancelled,
		},
		{
			name:          "confirmed_on_delivered_rejected",
			currentStatus: order.StatusDelivered,
			requested:     "CONFIRMED",
			wantErrAs:     "transition",
		},
		{
			name:          "cancelled_on_shipped_rejected",
			currentStatus: order.StatusShipped,
			requested:     "CANCELLED",
			wantErrAs:     "transition",
		},
		{
			name:          "unknown_token_rejected_before_lookup",
			currentStatus: order.StatusPlaced,
			requested:     "EXPLODED",
			wantErrAs:     "validation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := stored(tt.currentStatus, 3)
			lookups := 0
			updated := false

			mockRepo := &mockOrderRepository{
				getByIDFunc: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
					lookups++
					if updated {
						return stored(tt.wantStatus, 4), nil
					}
					return current, nil
				},
				updateStatusFunc: func(ctx context.Context, id uuid.UUID, newStatus order.Status, expectedVersion int64) error {
					assert.Equal(t, current.Version, expectedVersion)
					updated = true
					return nil
				},
			}
			svc := order.NewService(mockRepo, order.NewBuilder(nil, nil), nil)

			o, err := svc.UpdateOrderStatus(context.Background(), orderID, tt.requested)

			switch tt.wantErrAs {
			case "validation":
				require.Error(t, err)
				var validationErr *order.ValidationError
				assert.ErrorAs(t, err, &validationErr)
				assert.Zero(t, lookups, "unknown tokens must fail before any lookup")
				assert.False(t, updated)
			case "transition":
				require.Error(t, err)
				var transitionErr *order.InvalidTransitionError
				require.ErrorAs(t, err, &transitionErr)
				assert.Equal(t, tt.currentStatus, transitionErr.From)
				assert.False(t, updated, "a rejected transition must leave the status unchanged")
			default:
				require.NoError(t, err)
				require.NotNil(t, o)
				assert.Equal(t, tt.wantStatus, o.Status)
			}
			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
			}
		})
	}

	t.Run("not_found", func(t *testing.T) {
		mockRepo := &mockOrderRepository{
			getByIDFunc: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
				return nil, order.ErrOrderNotFound
			},
		}
		svc := order.NewService(mockRepo, order.NewBuilder(nil, nil), nil)

		_, err := svc.UpdateOrderStatus(context.Background(), orderID, "CONFIRMED")
		assert.ErrorIs(t, err, order.ErrOrderNotFound)
	})

	t.Run("version_conflict_passthrough", func(t *testing.T) {
		mockRepo := &mockOrderRepository{
			getByIDFunc: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
				return stored(order.StatusPlaced, 1), nil
			},
			updateStatusFunc: func(ctx context.Context, id uuid.UUID, newStatus order.Status, expectedVersion int64) error {
				return order.ErrVersionConflict
			},
		}
		svc := order.NewService(mockRepo, order.NewBuilder(nil, nil), nil)

		_, err := svc.UpdateOrderStatus(context.Background(), orderID, "CONFIRMED")
		assert.ErrorIs(t, err, order.ErrVersionConflict)
	})
}

// memoryOrderRepository is a tiny in-memory repository with the same
// version-conditional write semantics as the Postgres one, used to race real
// goroutines through the service.
type memoryOrderRepository struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*order.Order
}

func newMemoryOrderRepository() *memoryOrderRepository {
	return &memoryOrderRepository{orders: make(map[uuid.UUID]*order.Order)}
}

func (r *memoryOrderRepository) CreateOrder(ctx context.Context, o *order.Order) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.Must(uuid.NewV4())
	}
	clone := *o
	r.orders[o.ID] = &clone
	return o.ID, nil
}

func (r *memoryOrderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	clone := *o
	return &clone, nil
}

func (r *memoryOrderRepository) ListOrders(ctx context.Context) ([]order.Order, error) {
	return nil, nil
}

func (r *memoryOrderRepository) GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]order.Order, error) {
	return nil, nil
}

func (r *memoryOrderRepository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus order.Status, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return order.ErrOrderNotFound
	}
	if o.Version != expectedVersion {
		return order.ErrVersionConflict
	}
	o.Status = newStatus
	o.Version++
	return nil
}

func (r *memoryOrderRepository) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return order.ErrOrderNotFound
	}
	delete(r.orders, id)
	return nil
}

// barrierOrderRepository makes the first two reads rendezvous, so both racing
// updates observe the same version before either writes.
type barrierOrderRepository struct {
	*memoryOrderRepository
	barrier   sync.WaitGroup
	remaining atomic.Int32
}

func (r *barrierOrderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	o, err := r.memoryOrderRepository.GetOrderByID(ctx, id)
	if r.remaining.Add(-1) >= 0 {
		r.barrier.Done()
		r.barrier.Wait()
	}
	return o, err
}

func TestOrderService_UpdateOrderStatus_ConcurrentRace(t *testing.T) {
	repo := &barrierOrderRepository{memoryOrderRepository: newMemoryOrderRepository()}
	repo.barrier.Add(2)
	repo.remaining.Store(2)
	svc := order.NewService(repo, order.NewBuilder(nil, nil), nil)

	orderID := uuid.Must(uuid.NewV4())
	_, err := repo.CreateOrder(context.Background(), &order.Order{
		ID:     orderID,
		UserID: uuid.Must(uuid.NewV4()),
		Status: order.StatusPlaced,
	})
	require.NoError(t, err)

	// Two admins race: one confirms, one cancels. Both edges are valid from
	// PLACED and both read the same version, so exactly one write wins and the
	// other sees the conflict.
	var wg sync.WaitGroup
	results := make([]error, 2)
	targets := []string{"CONFIRMED", "CANCELLED"}

	for i := range targets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.UpdateOrderStatus(context.Background(), orderID, targets[i])
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	var winner int
	for i, err := range results {
		switch {
		case err == nil:
			successes++
			winner = i
		case errors.Is(err, order.ErrVersionConflict):
			conflicts++
		default:
			// From PLACED both targets are legal edges, so the loser can only
			// fail on the version check, never on the state machine.
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes, "exactly one transition must win")
	assert.Equal(t, 1, conflicts, "the loser must get a retryable conflict")

	final, err := repo.GetOrderByID(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, order.Status(targets[winner]), final.Status,
		"the stored status must match the winner's target")
}
