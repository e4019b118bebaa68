package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

// PostCommitHook runs after a successful placement commit. The intended use is
// an inventory decrement against the catalog collaborator. Hook errors are
// logged and never unwind the committed order; compensation is the boundary's
// problem.
type PostCommitHook func(ctx context.Context, o *Order) error

type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, items []RawItem) (*Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
	GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, rawStatus string) (*Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo       Repository
	builder    *Builder
	postCommit PostCommitHook
}

// NewService wires the placement pipeline. postCommit may be nil.
func NewService(repo Repository, builder *Builder, postCommit PostCommitHook) Service {
	return &service{
		repo:       repo,
		builder:    builder,
		postCommit: postCommit,
	}
}

// PlaceOrder runs the pipeline: normalize, compute the total, build the
// aggregate, commit it in one transaction. The caller gets the persisted
// aggregate with assigned identifiers or an error, never a partial order.
func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, rawItems []RawItem) (*Order, error) {
	items, err := NormalizeItems(userID, rawItems)
	if err != nil {
		log.Warn().Err(err).Stringer("user_id", userID).Msg("service: order placement rejected")
		return nil, err
	}

	total, err := ComputeTotal(items)
	if err != nil {
		return nil, err
	}

	o, err := s.builder.Build(userID, items, total)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.CreateOrder(ctx, o); err != nil {
		if errors.Is(err, ErrDuplicateOrderNumber) {
			return nil, err
		}
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to create order in repository")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().
		Stringer("order_id", o.ID).
		Stringer("user_id", o.UserID).
		Str("order_number", o.OrderNumber).
		Str("total_amount", o.TotalAmount.String()).
		Msg("service: order placed")

	if s.postCommit != nil {
		if hookErr := s.postCommit(ctx, o); hookErr != nil {
			log.Error().Err(hookErr).Stringer("order_id", o.ID).Msg("service: post-commit hook failed")
		}
	}

	return o, nil
}

func (s *service) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to fetch order by id")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}
	return o, nil
}

func (s *service) ListOrders(ctx context.Context) ([]Order, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list orders")
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *service) GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	orders, err := s.repo.GetOrdersByUserID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to fetch user orders")
		return nil, fmt.Errorf("service: failed to fetch user orders: %w", err)
	}
	return orders, nil
}

// UpdateOrderStatus applies one state-machine transition. The token is
// validated before any lookup; the write is conditional on the version read, so
// of two racing administrative updates exactly one wins and the other gets
// ErrVersionConflict to re-read and reapply.
func (s *service) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, rawStatus string) (*Order, error) {
	newStatus, err := ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Stringer("order_id", orderID).Str("new_status", string(newStatus)).Msg("service: order not found, cannot update status")
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("service: failed to get order for status update: %w", err)
	}

	if !CanTransition(current.Status, newStatus) {
		log.Warn().
			Stringer("order_id", orderID).
			Stringer("current_status", current.Status).
			Stringer("new_status", newStatus).
			Msg("service: invalid status transition attempt")
		return nil, &InvalidTransitionError{From: current.Status, To: newStatus}
	}

	err = s.repo.UpdateOrderStatus(ctx, orderID, newStatus, current.Version)
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			return nil, ErrOrderNotFound
		case errors.Is(err, ErrVersionConflict):
			log.Warn().Stringer("order_id", orderID).Msg("service: concurrent status update lost the race")
			return nil, ErrVersionConflict
		default:
			log.Error().Err(err).Stringer("order_id", orderID).Stringer("new_status", newStatus).Msg("service: failed to update order status")
			return nil, fmt.Errorf("service: failed to update order status: %w", err)
		}
	}

	updated, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to reload order after status update: %w", err)
	}

	log.Info().
		Stringer("order_id", orderID).
		Stringer("old_status", current.Status).
		Stringer("new_status", newStatus).
		Msg("service: order status updated")

	return updated, nil
}

func (s *service) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	err := s.repo.DeleteOrder(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to delete order")
		return fmt.Errorf("service: failed to delete order: %w", err)
	}

	log.Info().Stringer("order_id", id).Msg("service: order deleted")
	return nil
}
