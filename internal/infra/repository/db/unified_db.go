package db

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/bikemarket/internal/domain/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UnifiedDB 統一的資料庫介面
type UnifiedDB interface {
	GetDB() *gorm.DB
	InitMigrate() error

	ICatalogRepository
	IOrderRepository
	IUserRepository
	IMessageRepository
	IReportRepository
}

type ICatalogRepository interface {
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategoryByID(ctx context.Context, id uint) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	DeleteCategory(ctx context.Context, id uint) ([]uint, []string, error)
	CreateListing(ctx context.Context, listing *model.Listing) error
	GetListingByID(ctx context.Context, id uint) (*model.Listing, error)
	GetListingsByIDs(ctx context.Context, ids []uint) ([]model.Listing, error)
	QueryListings(ctx context.Context, f model.ListingFilter) ([]model.Listing, error)
	CountListings(ctx context.Context, f model.ListingFilter) (int64, error)
	UpdateListing(ctx context.Context, listing *model.Listing) error
	UpdateListingWithImages(ctx context.Context, listing *model.Listing, paths []string) ([]model.Image, error)
	SetListingStatus(ctx context.Context, ids []uint, status model.ListingStatus) (int64, error)
	DeleteListing(ctx context.Context, id uint) ([]string, error)
	ListImages(ctx context.Context, listingID uint) ([]model.Image, error)
	GetImageByID(ctx context.Context, id uint) (*model.Image, error)
	DeleteImage(ctx context.Context, id uint) error
	CreateBanner(ctx context.Context, banner *model.Banner) error
	ListBanners(ctx context.Context) ([]model.Banner, error)
	DeleteBanner(ctx context.Context, id uint) (*model.Banner, error)
}

type IOrderRepository interface {
	CreateOrderWithItems(ctx context.Context, order *model.Order) error
	GetOrderByID(ctx context.Context, id uint) (*model.Order, error)
	GetUserOrderByID(ctx context.Context, userID, id uint) (*model.Order, error)
	GetOrdersByUserID(ctx context.Context, userID uint) ([]model.Order, error)
	GetAllOrders(ctx context.Context) ([]model.Order, error)
	UpdateOrdersStatus(ctx context.Context, ids []uint, status model.OrderStatus) (int64, error)
}

type IUserRepository interface {
	UpsertUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id uint) (*model.User, error)
	GetUsersByIDs(ctx context.Context, ids []uint) ([]model.User, error)
	UpdateUserNames(ctx context.Context, id uint, first, last, email string) error
	SetUserActive(ctx context.Context, id uint, active bool) error
	EnsureProfile(ctx context.Context, userID uint) (*model.Profile, error)
	SetProfilePicture(ctx context.Context, userID uint, path string) error
}

type IMessageRepository interface {
	CreateMessage(ctx context.Context, msg *model.SupportMessage) error
	CreateReply(ctx context.Context, reply *model.SupportMessage, parentStatus model.MessageStatus, resolvedAt *time.Time) error
	GetMessageByID(ctx context.Context, id uint) (*model.SupportMessage, error)
	ListMessagesByUserID(ctx context.Context, userID uint) ([]model.SupportMessage, error)
	ListReplies(ctx context.Context, parentID uint) ([]model.SupportMessage, error)
	ListTickets(ctx context.Context, status model.MessageStatus) ([]model.SupportMessage, error)
	ListUnread(ctx context.Context) ([]model.SupportMessage, error)
	ListMessageUserIDs(ctx context.Context) ([]uint, error)
	UpdateMessage(ctx context.Context, id uint, updates map[string]any) error
}

type IReportRepository interface {
	SumSales(ctx context.Context, since *time.Time) (decimal.Decimal, error)
	CountUsers(ctx context.Context, onlyActive bool) (int64, error)
	CountOrders(ctx context.Context, status model.OrderStatus) (int64, error)
	CountListingsByStatus(ctx context.Context, status model.ListingStatus) (int64, error)
	PopularListings(ctx context.Context, limit int) ([]PopularListing, error)
	RecentOrders(ctx context.Context, limit int) ([]model.Order, error)
}

// UnifiedDBImpl 統一資料庫實現, 方法由各 repo 提供
type UnifiedDBImpl struct {
	db    *gorm.DB
	dbDao *DbDao
	*CatalogRepo
	*OrderRepo
	*UserRepo
	*MessageRepo
	*ReportRepo
}

func NewUnifiedDB(db *gorm.DB) *UnifiedDBImpl {
	dbDao := NewDbDao(db)
	return &UnifiedDBImpl{
		db:          db,
		dbDao:       dbDao,
		CatalogRepo: NewCatalogRepo(dbDao),
		OrderRepo:   NewOrderRepo(dbDao),
		UserRepo:    NewUserRepo(dbDao),
		MessageRepo: NewMessageRepo(dbDao),
		ReportRepo:  NewReportRepo(dbDao),
	}
}

func (u *UnifiedDBImpl) InitMigrate() error {
	return u.dbDao.InitMigrate()
}

func (u *UnifiedDBImpl) GetDB() *gorm.DB {
	return u.db
}

var (
	_ UnifiedDB          = (*UnifiedDBImpl)(nil)
	_ ICatalogRepository = (*CatalogRepo)(nil)
	_ IOrderRepository   = (*OrderRepo)(nil)
	_ IUserRepository    = (*UserRepo)(nil)
	_ IMessageRepository = (*MessageRepo)(nil)
	_ IReportRepository  = (*ReportRepo)(nil)
)
