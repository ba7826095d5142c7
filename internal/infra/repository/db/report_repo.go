package db

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/bikemarket/internal/domain/model"
	"github.com/shopspring/decimal"
)

type PopularListing struct {
	ListingID  uint            `json:"listing_id"`
	Name       string          `json:"name"`
	OrderCount int64           `json:"order_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// ReportRepo 後台統計, 只讀
type ReportRepo struct {
	db *DbDao
}

func NewReportRepo(db *DbDao) *ReportRepo {
	return &ReportRepo{db: db}
}

// SumSales since 為 nil 時計算全部訂單
func (r *ReportRepo) SumSales(ctx context.Context, since *time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	q := r.db.WithContext(ctx).Model(&model.Order{})
	if since != nil {
		q = q.Where("order_date >= ?", *since)
	}
	err := q.Select("SUM(total_price)").Row().Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *ReportRepo) CountUsers(ctx context.Context, onlyActive bool) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&model.User{})
	if onlyActive {
		q = q.Where("is_active = ?", true)
	}
	err := q.Count(&n).Error
	return n, err
}

func (r *ReportRepo) CountOrders(ctx context.Context, status model.OrderStatus) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&model.Order{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Count(&n).Error
	return n, err
}

func (r *ReportRepo) CountListingsByStatus(ctx context.Context, status model.ListingStatus) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&model.Listing{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Count(&n).Error
	return n, err
}

// PopularListings 依訂單明細筆數排序, 營收以明細快照價格計算
func (r *ReportRepo) PopularListings(ctx context.Context, limit int) ([]PopularListing, error) {
	var rows []PopularListing
	err := r.db.WithContext(ctx).
		Table("listings").
		Select("listings.id AS listing_id, listings.name AS name, COUNT(order_items.id) AS order_count, COALESCE(SUM(order_items.price * order_items.quantity), 0) AS revenue").
		Joins("LEFT JOIN order_items ON order_items.listing_id = listings.id").
		Group("listings.id, listings.name").
		Order("order_count DESC").
		Order("listings.id DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *ReportRepo) RecentOrders(ctx context.Context, limit int) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}
