package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"grocery_backend/internal/models"
	"grocery_backend/internal/repositories"
)

// OrderEvents receives order lifecycle events after they are persisted.
// Implementations must not block.
type OrderEvents interface {
	OrderPlaced(order models.Order)
	OrderStatusChanged(order models.Order)
}

// UpdateOrderStatusRequest is used for updating the status of an order.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// OrderService covers everything about orders except placing them.
type OrderService interface {
	ListMyOrders(ctx context.Context, userID int64) ([]models.Order, error)
	// GetOrder returns ErrOrderNotFound for orders the requester may not see.
	GetOrder(ctx context.Context, orderID, requesterID int64, isAdmin bool) (*models.Order, error)
	ListOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error)
	UpdateStatus(ctx context.Context, orderID int64, req UpdateOrderStatusRequest) (*models.Order, error)
	// CancelOrder lets the owner cancel while the order is still being prepared.
	CancelOrder(ctx context.Context, orderID, userID int64) (*models.Order, error)
}

type orderService struct {
	orderRepo repositories.OrderRepository
	events    OrderEvents
	now       func() time.Time
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(or repositories.OrderRepository, events OrderEvents) OrderService {
	return &orderService{orderRepo: or, events: events, now: time.Now}
}

func (s *orderService) ListMyOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders of user %d: %w", userID, err)
	}
	return orders, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID, requesterID int64, isAdmin bool) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order %d: %w", orderID, err)
	}
	if !isAdmin && order.UserID != requesterID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	if filters.Status != nil && *filters.Status != "" && !models.IsValidOrderStatus(*filters.Status) {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidOrderStatus, *filters.Status)
	}
	orders, total, err := s.orderRepo.List(ctx, filters)
	if err != nil {
		if errors.Is(err, repositories.ErrInvalidFilter) {
			return nil, 0, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	return orders, total, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, orderID int64, req UpdateOrderStatusRequest) (*models.Order, error) {
	if !models.IsValidOrderStatus(req.Status) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOrderStatus, req.Status)
	}
	if err := s.orderRepo.UpdateStatus(ctx, orderID, req.Status, s.now()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update status of order %d: %w", orderID, err)
	}
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order %d: %w", orderID, err)
	}
	s.events.OrderStatusChanged(*order)
	return order, nil
}

func (s *orderService) CancelOrder(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	order, err := s.GetOrder(ctx, orderID, userID, false)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusPreparing {
		return nil, fmt.Errorf("%w: status is %s", ErrOrderNotCancellable, order.Status)
	}
	now := s.now()
	err = s.orderRepo.TransitionStatus(ctx, orderID, userID, models.OrderStatusPreparing, models.OrderStatusCancelled, now)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotCancellable
		}
		return nil, fmt.Errorf("failed to cancel order %d: %w", orderID, err)
	}
	order.Status = models.OrderStatusCancelled
	order.UpdatedAt = now
	s.events.OrderStatusChanged(*order)
	return order, nil
}
