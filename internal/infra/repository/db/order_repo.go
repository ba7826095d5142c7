package db

import (
	"context"

	"github.com/RoyceAzure/lab/bikemarket/internal/domain/model"
	"gorm.io/gorm"
)

// 購物車階段只存在 session, 結帳時才寫入 db
type OrderRepo struct {
	db *DbDao
}

func NewOrderRepo(db *DbDao) *OrderRepo {
	return &OrderRepo{db: db}
}

// CreateOrderWithItems 訂單與明細在同一個交易內建立, 任一失敗全部 rollback
func (s *OrderRepo) CreateOrderWithItems(ctx context.Context, order *model.Order) error {
	items := order.OrderItems
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("OrderItems", "User").Create(order).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		order.OrderItems = items
		return nil
	})
}

func (s *OrderRepo) GetOrderByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).
		Preload("OrderItems", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id ASC") }).
		Preload("User").
		First(&order, id).Error
	if err != nil {
		return nil, translate(err, "order %d", id)
	}
	return &order, nil
}

// GetUserOrderByID 只取屬於該使用者的訂單
func (s *OrderRepo) GetUserOrderByID(ctx context.Context, userID, id uint) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).
		Preload("OrderItems", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id ASC") }).
		Where("user_id = ?", userID).
		First(&order, id).Error
	if err != nil {
		return nil, translate(err, "order %d of user %d", id, userID)
	}
	return &order, nil
}

func (s *OrderRepo) GetOrdersByUserID(ctx context.Context, userID uint) ([]model.Order, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).
		Preload("OrderItems").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&orders).Error
	return orders, err
}

func (s *OrderRepo) GetAllOrders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).
		Preload("OrderItems").
		Preload("User").
		Order("created_at DESC").
		Order("id DESC").
		Find(&orders).Error
	return orders, err
}

func (s *OrderRepo) UpdateOrdersStatus(ctx context.Context, ids []uint, status model.OrderStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Model(&model.Order{}).Where("id IN ?", ids).Update("status", status)
	return res.RowsAffected, res.Error
}
