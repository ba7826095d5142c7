package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/RoyceAzure/lab/bikemarket/internal/domain/model"
	"github.com/RoyceAzure/lab/bikemarket/internal/infra/repository/db"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"golang.org/x/sync/errgroup"
)

const (
	popularListingLimit = 5
	recentOrderLimit    = 10
	salesWindow         = 30 * 24 * time.Hour
)

type Dashboard struct {
	TotalSales      decimal.Decimal     `json:"total_sales"`
	LastMonthSales  decimal.Decimal     `json:"last_month_sales"`
	SalesTrend      decimal.Decimal     `json:"sales_trend"`
	TotalUsers      int64               `json:"total_users"`
	ActiveUsers     int64               `json:"active_users"`
	TotalOrders     int64               `json:"total_orders"`
	PendingOrders   int64               `json:"pending_orders"`
	TotalListings   int64               `json:"total_listings"`
	PendingListings int64               `json:"pending_listings"`
	PopularListings []db.PopularListing `json:"popular_listings"`
	RecentOrders    []model.Order       `json:"recent_orders"`
	GeneratedAt     time.Time           `json:"generated_at"`
}

type IReportService interface {
	Dashboard(ctx context.Context, actor Actor) (*Dashboard, error)
	ExportOrders(ctx context.Context, actor Actor, w io.Writer) error
}

type ReportService struct {
	reportRepo db.IReportRepository
	orderRepo  db.IOrderRepository
	now        func() time.Time
}

func NewReportService(reportRepo db.IReportRepository, orderRepo db.IOrderRepository) *ReportService {
	return &ReportService{
		reportRepo: reportRepo,
		orderRepo:  orderRepo,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

var hundred = decimal.NewFromInt(100)

// salesTrend 總營收相對近 30 天營收的百分比, 近 30 天為 0 時有營收記 100
func salesTrend(total, lastMonth decimal.Decimal) decimal.Decimal {
	if lastMonth.IsZero() {
		if total.IsPositive() {
			return hundred
		}
		return decimal.Zero
	}
	return total.Sub(lastMonth).Div(lastMonth).Mul(hundred).Round(2)
}

// Dashboard 各項統計並行查詢, 任一失敗整體失敗
func (s *ReportService) Dashboard(ctx context.Context, actor Actor) (*Dashboard, error) {
	if err := requireStaff(actor, "view dashboard"); err != nil {
		return nil, err
	}

	now := s.now()
	since := now.Add(-salesWindow)
	d := &Dashboard{GeneratedAt: now}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.TotalSales, err = s.reportRepo.SumSales(gctx, nil)
		return
	})
	g.Go(func() (err error) {
		d.LastMonthSales, err = s.reportRepo.SumSales(gctx, &since)
		return
	})
	g.Go(func() (err error) {
		d.TotalUsers, err = s.reportRepo.CountUsers(gctx, false)
		return
	})
	g.Go(func() (err error) {
		d.ActiveUsers, err = s.reportRepo.CountUsers(gctx, true)
		return
	})
	g.Go(func() (err error) {
		d.TotalOrders, err = s.reportRepo.CountOrders(gctx, "")
		return
	})
	g.Go(func() (err error) {
		d.PendingOrders, err = s.reportRepo.CountOrders(gctx, model.OrderStatusPending)
		return
	})
	g.Go(func() (err error) {
		d.TotalListings, err = s.reportRepo.CountListingsByStatus(gctx, "")
		return
	})
	g.Go(func() (err error) {
		d.PendingListings, err = s.reportRepo.CountListingsByStatus(gctx, model.ListingStatusPending)
		return
	})
	g.Go(func() (err error) {
		d.PopularListings, err = s.reportRepo.PopularListings(gctx, popularListingLimit)
		return
	})
	g.Go(func() (err error) {
		d.RecentOrders, err = s.reportRepo.RecentOrders(gctx, recentOrderLimit)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, repoErr(err, "build dashboard")
	}

	d.SalesTrend = salesTrend(d.TotalSales, d.LastMonthSales)
	return d, nil
}

var orderSheetHeaders = []string{
	"Order ID", "User ID", "Email", "Mobile", "Address", "Status", "Order Date", "Items", "Total Price",
}

// ExportOrders 全部訂單輸出成 xlsx
func (s *ReportService) ExportOrders(ctx context.Context, actor Actor, w io.Writer) error {
	if err := requireStaff(actor, "export orders"); err != nil {
		return err
	}
	orders, err := s.orderRepo.GetAllOrders(ctx)
	if err != nil {
		return repoErr(err, "list orders")
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return fmt.Errorf("create orders sheet: %w", err)
	}
	header := sheet.AddRow()
	for _, h := range orderSheetHeaders {
		header.AddCell().SetValue(h)
	}
	for _, o := range orders {
		row := sheet.AddRow()
		row.AddCell().SetValue(o.ID)
		row.AddCell().SetValue(o.UserID)
		row.AddCell().SetValue(o.Email)
		row.AddCell().SetValue(o.Mobile)
		row.AddCell().SetValue(o.Address)
		row.AddCell().SetValue(string(o.Status))
		row.AddCell().SetValue(o.OrderDate.Format("2006-01-02 15:04:05"))
		row.AddCell().SetValue(len(o.OrderItems))
		row.AddCell().SetValue(o.TotalPrice.StringFixed(2))
	}
	return file.Write(w)
}

var _ IReportService = (*ReportService)(nil)
