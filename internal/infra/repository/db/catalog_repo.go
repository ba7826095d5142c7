package db

import (
	"context"
	"strings"

	"github.com/RoyceAzure/lab/bikemarket/internal/domain/model"
	"gorm.io/gorm"
)

// CatalogRepo 類別, listing 與圖片
// 級聯刪除在交易內明確處理, 不依賴資料庫的 FK 設定
type CatalogRepo struct {
	db *DbDao
}

func NewCatalogRepo(db *DbDao) *CatalogRepo {
	return &CatalogRepo{db: db}
}

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("images.id ASC")
}

func (r *CatalogRepo) CreateCategory(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *CatalogRepo) GetCategoryByID(ctx context.Context, id uint) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).First(&category, id).Error
	if err != nil {
		return nil, translate(err, "category %d", id)
	}
	return &category, nil
}

func (r *CatalogRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

// DeleteCategory 刪除類別與底下所有 listing 及圖片
// 回傳被刪除的 listing id 與圖片路徑, 由呼叫端清理 blob
func (r *CatalogRepo) DeleteCategory(ctx context.Context, id uint) ([]uint, []string, error) {
	var listingIDs []uint
	var paths []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Listing{}).Where("category_id = ?", id).Pluck("id", &listingIDs).Error; err != nil {
			return err
		}
		if len(listingIDs) > 0 {
			if err := tx.Model(&model.Image{}).Where("listing_id IN ?", listingIDs).Pluck("path", &paths).Error; err != nil {
				return err
			}
			if err := tx.Where("listing_id IN ?", listingIDs).Delete(&model.Image{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", listingIDs).Delete(&model.Listing{}).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&model.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, nil, translate(err, "delete category %d", id)
	}
	return listingIDs, paths, nil
}

// CreateListing listing.Images 會一併寫入
func (r *CatalogRepo) CreateListing(ctx context.Context, listing *model.Listing) error {
	if listing.Status == "" {
		listing.Status = model.ListingStatusPending
	}
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *CatalogRepo) GetListingByID(ctx context.Context, id uint) (*model.Listing, error) {
	var listing model.Listing
	err := r.db.WithContext(ctx).
		Preload("Images", orderedImages).
		Preload("Category").
		First(&listing, id).Error
	if err != nil {
		return nil, translate(err, "listing %d", id)
	}
	return &listing, nil
}

// GetListingsByIDs 不存在的 id 直接略過
func (r *CatalogRepo) GetListingsByIDs(ctx context.Context, ids []uint) ([]model.Listing, error) {
	var listings []model.Listing
	if len(ids) == 0 {
		return listings, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Images", orderedImages).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&listings).Error
	return listings, err
}

func applyListingFilter(q *gorm.DB, f model.ListingFilter) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if len(f.CategoryIDs) > 0 {
		q = q.Where("category_id IN ?", f.CategoryIDs)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.OwnerID != 0 {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	if s := strings.TrimSpace(f.NameLike); s != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	return q
}

// QueryListings 依條件查詢, 新到舊
func (r *CatalogRepo) QueryListings(ctx context.Context, f model.ListingFilter) ([]model.Listing, error) {
	var listings []model.Listing
	q := applyListingFilter(r.db.WithContext(ctx).Model(&model.Listing{}), f).
		Preload("Images", orderedImages).
		Preload("Category").
		Order("created_at DESC").
		Order("id DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	err := q.Find(&listings).Error
	return listings, err
}

func (r *CatalogRepo) CountListings(ctx context.Context, f model.ListingFilter) (int64, error) {
	var total int64
	err := applyListingFilter(r.db.WithContext(ctx).Model(&model.Listing{}), f).Count(&total).Error
	return total, err
}

// UpdateListing 只更新可編輯欄位, 狀態另由 SetListingStatus 處理
func (r *CatalogRepo) UpdateListing(ctx context.Context, listing *model.Listing) error {
	_, err := r.UpdateListingWithImages(ctx, listing, nil)
	return err
}

// UpdateListingWithImages 欄位更新與新增圖片在同一個交易內
func (r *CatalogRepo) UpdateListingWithImages(ctx context.Context, listing *model.Listing, paths []string) ([]model.Image, error) {
	images := make([]model.Image, 0, len(paths))
	for _, p := range paths {
		images = append(images, model.Image{ListingID: listing.ID, Path: p})
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Listing{ID: listing.ID}).Updates(map[string]any{
			"name":        listing.Name,
			"price":       listing.Price,
			"description": listing.Description,
			"category_id": listing.CategoryID,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if len(images) == 0 {
			return nil
		}
		return tx.Create(&images).Error
	})
	if err != nil {
		return nil, translate(err, "update listing %d", listing.ID)
	}
	return images, nil
}

func (r *CatalogRepo) SetListingStatus(ctx context.Context, ids []uint, status model.ListingStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&model.Listing{}).Where("id IN ?", ids).Update("status", status)
	return res.RowsAffected, res.Error
}

// DeleteListing 連同圖片一起刪除, 回傳圖片路徑
func (r *CatalogRepo) DeleteListing(ctx context.Context, id uint) ([]string, error) {
	var paths []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Image{}).Where("listing_id = ?", id).Pluck("path", &paths).Error; err != nil {
			return err
		}
		if err := tx.Where("listing_id = ?", id).Delete(&model.Image{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Listing{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, "delete listing %d", id)
	}
	return paths, nil
}

func (r *CatalogRepo) ListImages(ctx context.Context, listingID uint) ([]model.Image, error) {
	var images []model.Image
	err := r.db.WithContext(ctx).Where("listing_id = ?", listingID).Order("id ASC").Find(&images).Error
	return images, err
}

func (r *CatalogRepo) GetImageByID(ctx context.Context, id uint) (*model.Image, error) {
	var image model.Image
	err := r.db.WithContext(ctx).First(&image, id).Error
	if err != nil {
		return nil, translate(err, "image %d", id)
	}
	return &image, nil
}

func (r *CatalogRepo) DeleteImage(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Image{}, id)
	if res.Error != nil {
		return translate(res.Error, "delete image %d", id)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "image %d", id)
	}
	return nil
}

func (r *CatalogRepo) CreateBanner(ctx context.Context, banner *model.Banner) error {
	return r.db.WithContext(ctx).Create(banner).Error
}

func (r *CatalogRepo) ListBanners(ctx context.Context) ([]model.Banner, error) {
	var banners []model.Banner
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&banners).Error
	return banners, err
}

func (r *CatalogRepo) DeleteBanner(ctx context.Context, id uint) (*model.Banner, error) {
	var banner model.Banner
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&banner, id).Error; err != nil {
			return err
		}
		return tx.Delete(&banner).Error
	})
	if err != nil {
		return nil, translate(err, "delete banner %d", id)
	}
	return &banner, nil
}
