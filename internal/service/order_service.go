package service

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/bikemarket/internal/domain/model"
	"github.com/RoyceAzure/lab/bikemarket/internal/infra/repository/db"
	"github.com/rs/zerolog/log"
)

type CheckoutForm struct {
	Email   string `json:"email" validate:"required,email,max=254"`
	Mobile  string `json:"mobile" validate:"required,max=50"`
	Address string `json:"address" validate:"required,max=500"`
}

type IOrderService interface {
	CreateOrder(ctx context.Context, userID uint, form CheckoutForm, cart *Cart) (*model.Order, error)
	ListUserOrders(ctx context.Context, userID uint) ([]model.Order, error)
	GetUserOrder(ctx context.Context, userID, orderID uint) (*model.Order, error)
	GetOrder(ctx context.Context, actor Actor, orderID uint) (*model.Order, error)
	ListOrders(ctx context.Context, actor Actor) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, actor Actor, orderID uint, status model.OrderStatus) error
	ConfirmOrders(ctx context.Context, actor Actor, orderIDs []uint) (int64, error)
}

type OrderService struct {
	orderRepo db.IOrderRepository
	now       func() time.Time
}

func NewOrderService(orderRepo db.IOrderRepository) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrder 購物車轉成訂單的唯一入口
// 訂單與明細同一個交易寫入, 成功後才清空購物車, 失敗時購物車保持原狀
func (s *OrderService) CreateOrder(ctx context.Context, userID uint, form CheckoutForm, cart *Cart) (*model.Order, error) {
	if err := validateStruct(form); err != nil {
		return nil, err
	}
	if cart == nil || cart.IsEmpty() {
		return nil, validationErr("cart is empty")
	}

	lines, missing, err := cart.Resolve(ctx)
	if err != nil {
		return nil, repoErr(err, "load cart listings")
	}
	if len(missing) > 0 {
		return nil, notFoundErr("listings %v in cart no longer exist", missing)
	}

	order := &model.Order{
		UserID:     userID,
		Email:      form.Email,
		Address:    form.Address,
		Mobile:     form.Mobile,
		TotalPrice: cart.TotalPrice(),
		Status:     model.OrderStatusPending,
		OrderDate:  s.now(),
		OrderItems: make([]model.OrderItem, 0, len(lines)),
	}
	for _, line := range lines {
		order.OrderItems = append(order.OrderItems, model.OrderItem{
			ListingID:   line.Listing.ID,
			ListingName: line.Listing.Name,
			Price:       line.Price,
			Quantity:    line.Quantity,
		})
	}

	if err := s.orderRepo.CreateOrderWithItems(ctx, order); err != nil {
		return nil, repoErr(err, "create order for user %d", userID)
	}

	if err := cart.Clear(ctx); err != nil {
		log.Warn().Err(err).
			Uint("order_id", order.ID).
			Str("session_id", cart.SessionID()).
			Msg("order created but cart could not be cleared")
	}
	return order, nil
}

// ListUserOrders 新到舊
func (s *OrderService) ListUserOrders(ctx context.Context, userID uint) ([]model.Order, error) {
	orders, err := s.orderRepo.GetOrdersByUserID(ctx, userID)
	if err != nil {
		return nil, repoErr(err, "list orders of user %d", userID)
	}
	return orders, nil
}

func (s *OrderService) GetUserOrder(ctx context.Context, userID, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.GetUserOrderByID(ctx, userID, orderID)
	if err != nil {
		return nil, repoErr(err, "order %d", orderID)
	}
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, actor Actor, orderID uint) (*model.Order, error) {
	if err := requireStaff(actor, "view order"); err != nil {
		return nil, err
	}
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, repoErr(err, "order %d", orderID)
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, actor Actor) ([]model.Order, error) {
	if err := requireStaff(actor, "list orders"); err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.GetAllOrders(ctx)
	if err != nil {
		return nil, repoErr(err, "list orders")
	}
	return orders, nil
}

func (s *OrderService) UpdateOrderStatus(ctx context.Context, actor Actor, orderID uint, status model.OrderStatus) error {
	if err := requireStaff(actor, "update order status"); err != nil {
		return err
	}
	if !status.IsValid() {
		return validationErr("unknown order status %q", status)
	}
	n, err := s.orderRepo.UpdateOrdersStatus(ctx, []uint{orderID}, status)
	if err != nil {
		return repoErr(err, "update order %d", orderID)
	}
	if n == 0 {
		return notFoundErr("order %d", orderID)
	}
	return nil
}

// ConfirmOrders 後台批次確認
func (s *OrderService) ConfirmOrders(ctx context.Context, actor Actor, orderIDs []uint) (int64, error) {
	if err := requireStaff(actor, "confirm orders"); err != nil {
		return 0, err
	}
	if len(orderIDs) == 0 {
		return 0, validationErr("no orders selected")
	}
	n, err := s.orderRepo.UpdateOrdersStatus(ctx, orderIDs, model.OrderStatusConfirmed)
	if err != nil {
		return 0, repoErr(err, "confirm orders")
	}
	return n, nil
}

var _ IOrderService = (*OrderService)(nil)
