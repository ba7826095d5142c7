package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/bikemarket/internal/domain/model"
	"github.com/RoyceAzure/lab/bikemarket/internal/infra/repository/db"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const homeListingLimit = 12

// BlobStore 圖片等二進位檔案
type BlobStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
	Delete(ctx context.Context, path string) error
}

type ListingEventPublisher interface {
	PublishListingEvent(ctx context.Context, evt model.ListingEvent) error
}

type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ListingInput struct {
	Name        string `json:"name" validate:"required,max=300"`
	Price       int64  `json:"price" validate:"required,gt=0"`
	Description string `json:"description" validate:"required"`
	CategoryID  uint   `json:"category_id" validate:"required"`
}

type BuyListQuery struct {
	CategoryID uint
	MinPrice   *int64
	MaxPrice   *int64
	Page       int
}

type ICatalogService interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, actor Actor, name string) (*model.Category, error)
	DeleteCategory(ctx context.Context, actor Actor, id uint) error

	CreateListing(ctx context.Context, owner Actor, in ListingInput, uploads []ImageUpload) (*model.Listing, error)
	EditListing(ctx context.Context, actor Actor, id uint, in ListingInput, uploads []ImageUpload) (*model.Listing, error)
	DeleteListing(ctx context.Context, actor Actor, id uint) error
	DeleteImage(ctx context.Context, actor Actor, imageID uint) error
	ListImages(ctx context.Context, listingID uint) ([]model.Image, error)
	Approve(ctx context.Context, actor Actor, ids []uint) (int64, error)
	Reject(ctx context.Context, actor Actor, ids []uint) (int64, error)

	ListingDetail(ctx context.Context, id uint) (*model.Listing, error)
	Home(ctx context.Context) ([]model.Listing, error)
	BuyList(ctx context.Context, q BuyListQuery) (Page[model.Listing], error)
	Search(ctx context.Context, query string) ([]model.Listing, error)
	ListingsByCategory(ctx context.Context, categoryID uint) ([]model.Listing, error)
	SellerListings(ctx context.Context, ownerID uint, search string, categoryIDs []uint) ([]model.Listing, error)
	PendingListings(ctx context.Context, actor Actor) ([]model.Listing, error)

	Banners(ctx context.Context) ([]model.Banner, error)
	CreateBanner(ctx context.Context, actor Actor, upload ImageUpload) (*model.Banner, error)
	DeleteBanner(ctx context.Context, actor Actor, id uint) error
}

type CatalogService struct {
	catalogRepo db.ICatalogRepository
	cache       *ListingCache
	blobs       BlobStore
	publisher   ListingEventPublisher
	now         func() time.Time
}

func NewCatalogService(catalogRepo db.ICatalogRepository, cache *ListingCache, blobs BlobStore, publisher ListingEventPublisher) *CatalogService {
	return &CatalogService{
		catalogRepo: catalogRepo,
		cache:       cache,
		blobs:       blobs,
		publisher:   publisher,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// mutated 任何 listing 異動後: 本機快取立即失效, 再通知其他節點
func (s *CatalogService) mutated(ctx context.Context, evtType model.ListingEventType, ids ...uint) {
	if evtType == model.BannerEventChanged {
		s.cache.InvalidateBanners(ctx)
	} else {
		s.cache.InvalidateListings(ctx)
	}
	if s.publisher == nil {
		return
	}
	evt := model.ListingEvent{Type: evtType, ListingIDs: ids, OccurredAt: s.now()}
	if err := s.publisher.PublishListingEvent(ctx, evt); err != nil {
		log.Error().Err(err).Str("event", string(evtType)).Msg("failed to publish listing event")
	}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.catalogRepo.ListCategories(ctx)
	if err != nil {
		return nil, repoErr(err, "list categories")
	}
	return categories, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, actor Actor, name string) (*model.Category, error) {
	if err := requireStaff(actor, "create category"); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 350 {
		return nil, validationErr("category name is required and at most 350 characters")
	}
	category := &model.Category{Name: name}
	if err := s.catalogRepo.CreateCategory(ctx, category); err != nil {
		return nil, repoErr(err, "create category")
	}
	return category, nil
}

// DeleteCategory 連同底下 listing 與圖片
func (s *CatalogService) DeleteCategory(ctx context.Context, actor Actor, id uint) error {
	if err := requireStaff(actor, "delete category"); err != nil {
		return err
	}
	listingIDs, paths, err := s.catalogRepo.DeleteCategory(ctx, id)
	if err != nil {
		return repoErr(err, "delete category %d", id)
	}
	s.removeBlobs(ctx, paths)
	s.mutated(ctx, model.CategoryEventDeleted, listingIDs...)
	return nil
}

func blobPath(dir, filename string) string {
	return fmt.Sprintf("%s/%s%s", dir, uuid.NewString(), strings.ToLower(path.Ext(filename)))
}

// storeUploads 任一失敗就把已上傳的刪掉
func (s *CatalogService) storeUploads(ctx context.Context, dir string, uploads []ImageUpload) ([]string, error) {
	paths := make([]string, 0, len(uploads))
	for _, up := range uploads {
		if len(up.Data) == 0 {
			s.removeBlobs(ctx, paths)
			return nil, validationErr("image %q is empty", up.Filename)
		}
		p := blobPath(dir, up.Filename)
		if err := s.blobs.Put(ctx, p, up.Data, up.ContentType); err != nil {
			s.removeBlobs(ctx, paths)
			return nil, fmt.Errorf("%w: store image %q: %v", ErrPersistence, up.Filename, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// removeBlobs 盡力刪除, 失敗只記 log
func (s *CatalogService) removeBlobs(ctx context.Context, paths []string) {
	for _, p := range paths {
		if err := s.blobs.Delete(ctx, p); err != nil {
			log.Warn().Err(err).Str("path", p).Msg("failed to delete blob")
		}
	}
}

func (s *CatalogService) validateListing(ctx context.Context, in ListingInput) error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if _, err := s.catalogRepo.GetCategoryByID(ctx, in.CategoryID); err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return validationErr("category %d does not exist", in.CategoryID)
		}
		return repoErr(err, "category %d", in.CategoryID)
	}
	return nil
}

// CreateListing 至少需要一張圖, 新 listing 一律為 Pending
func (s *CatalogService) CreateListing(ctx context.Context, owner Actor, in ListingInput, uploads []ImageUpload) (*model.Listing, error) {
	if err := s.validateListing(ctx, in); err != nil {
		return nil, err
	}
	if len(uploads) == 0 {
		return nil, validationErr("at least one image is required")
	}

	paths, err := s.storeUploads(ctx, "listings", uploads)
	if err != nil {
		return nil, err
	}

	listing := &model.Listing{
		Name:        strings.TrimSpace(in.Name),
		Price:       in.Price,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		OwnerID:     owner.UserID,
		Status:      model.ListingStatusPending,
	}
	for _, p := range paths {
		listing.Images = append(listing.Images, model.Image{Path: p})
	}
	if err := s.catalogRepo.CreateListing(ctx, listing); err != nil {
		s.removeBlobs(ctx, paths)
		return nil, repoErr(err, "create listing")
	}

	s.mutated(ctx, model.ListingEventCreated, listing.ID)
	return listing, nil
}

// ownedListing 非擁有者一律視為不存在, staff 例外
func (s *CatalogService) ownedListing(ctx context.Context, actor Actor, id uint) (*model.Listing, error) {
	listing, err := s.catalogRepo.GetListingByID(ctx, id)
	if err != nil {
		return nil, repoErr(err, "listing %d", id)
	}
	if listing.OwnerID != actor.UserID && !actor.IsStaff {
		return nil, notFoundErr("listing %d", id)
	}
	return listing, nil
}

func (s *CatalogService) EditListing(ctx context.Context, actor Actor, id uint, in ListingInput, uploads []ImageUpload) (*model.Listing, error) {
	listing, err := s.ownedListing(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateListing(ctx, in); err != nil {
		return nil, err
	}

	// 先上傳圖片, 欄位與圖片再一次寫入, 失敗時 listing 不變
	var paths []string
	if len(uploads) > 0 {
		if paths, err = s.storeUploads(ctx, "listings", uploads); err != nil {
			return nil, err
		}
	}

	listing.Name = strings.TrimSpace(in.Name)
	listing.Price = in.Price
	listing.Description = in.Description
	listing.CategoryID = in.CategoryID
	if _, err := s.catalogRepo.UpdateListingWithImages(ctx, listing, paths); err != nil {
		s.removeBlobs(ctx, paths)
		return nil, repoErr(err, "update listing %d", id)
	}

	s.mutated(ctx, model.ListingEventUpdated, id)
	return s.ListingDetail(ctx, id)
}

func (s *CatalogService) DeleteListing(ctx context.Context, actor Actor, id uint) error {
	if _, err := s.ownedListing(ctx, actor, id); err != nil {
		return err
	}
	paths, err := s.catalogRepo.DeleteListing(ctx, id)
	if err != nil {
		return repoErr(err, "delete listing %d", id)
	}
	s.removeBlobs(ctx, paths)
	s.mutated(ctx, model.ListingEventDeleted, id)
	return nil
}

// DeleteImage 非擁有者回 ErrPermission
func (s *CatalogService) DeleteImage(ctx context.Context, actor Actor, imageID uint) error {
	image, err := s.catalogRepo.GetImageByID(ctx, imageID)
	if err != nil {
		return repoErr(err, "image %d", imageID)
	}
	listing, err := s.catalogRepo.GetListingByID(ctx, image.ListingID)
	if err != nil {
		return repoErr(err, "listing %d", image.ListingID)
	}
	if listing.OwnerID != actor.UserID && !actor.IsStaff {
		return permissionErr("image %d belongs to another seller", imageID)
	}
	if err := s.catalogRepo.DeleteImage(ctx, imageID); err != nil {
		return repoErr(err, "delete image %d", imageID)
	}
	s.removeBlobs(ctx, []string{image.Path})
	s.mutated(ctx, model.ListingEventUpdated, listing.ID)
	return nil
}

func (s *CatalogService) ListImages(ctx context.Context, listingID uint) ([]model.Image, error) {
	images, err := s.catalogRepo.ListImages(ctx, listingID)
	if err != nil {
		return nil, repoErr(err, "list images of listing %d", listingID)
	}
	return images, nil
}

func (s *CatalogService) setStatus(ctx context.Context, actor Actor, ids []uint, status model.ListingStatus, evtType model.ListingEventType) (int64, error) {
	if err := requireStaff(actor, "change listing status"); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, validationErr("no listings selected")
	}
	n, err := s.catalogRepo.SetListingStatus(ctx, ids, status)
	if err != nil {
		return 0, repoErr(err, "set listing status")
	}
	s.mutated(ctx, evtType, ids...)
	return n, nil
}

func (s *CatalogService) Approve(ctx context.Context, actor Actor, ids []uint) (int64, error) {
	return s.setStatus(ctx, actor, ids, model.ListingStatusApproved, model.ListingEventApproved)
}

// Reject 退回 Pending
func (s *CatalogService) Reject(ctx context.Context, actor Actor, ids []uint) (int64, error) {
	return s.setStatus(ctx, actor, ids, model.ListingStatusPending, model.ListingEventRejected)
}

func (s *CatalogService) ListingDetail(ctx context.Context, id uint) (*model.Listing, error) {
	listing, err := s.catalogRepo.GetListingByID(ctx, id)
	if err != nil {
		return nil, repoErr(err, "listing %d", id)
	}
	return listing, nil
}

func (s *CatalogService) query(ctx context.Context, f model.ListingFilter) ([]model.Listing, error) {
	listings, err := s.catalogRepo.QueryListings(ctx, f)
	if err != nil {
		return nil, repoErr(err, "query listings")
	}
	return listings, nil
}

// Home 最新 12 筆已上架
func (s *CatalogService) Home(ctx context.Context) ([]model.Listing, error) {
	return cachedLoad(ctx, s.cache.listings, homeListingsKey, s.cache.listingTTL, func(ctx context.Context) ([]model.Listing, error) {
		return s.query(ctx, model.ListingFilter{Status: model.ListingStatusApproved, Limit: homeListingLimit})
	})
}

// BuyList 快取整個篩選結果, 分頁在快取之後
func (s *CatalogService) BuyList(ctx context.Context, q BuyListQuery) (Page[model.Listing], error) {
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return Page[model.Listing]{}, validationErr("min_price must not exceed max_price")
	}
	key := BuyListKey(q.CategoryID, q.MinPrice, q.MaxPrice)
	listings, err := cachedLoad(ctx, s.cache.listings, key, s.cache.listingTTL, func(ctx context.Context) ([]model.Listing, error) {
		f := model.ListingFilter{Status: model.ListingStatusApproved, MinPrice: q.MinPrice, MaxPrice: q.MaxPrice}
		if q.CategoryID != 0 {
			f.CategoryIDs = []uint{q.CategoryID}
		}
		return s.query(ctx, f)
	})
	if err != nil {
		return Page[model.Listing]{}, err
	}
	return paginate(listings, q.Page, DefaultPageSize), nil
}

func (s *CatalogService) Search(ctx context.Context, query string) ([]model.Listing, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Listing{}, nil
	}
	return s.query(ctx, model.ListingFilter{Status: model.ListingStatusApproved, NameLike: query})
}

func (s *CatalogService) ListingsByCategory(ctx context.Context, categoryID uint) ([]model.Listing, error) {
	if _, err := s.catalogRepo.GetCategoryByID(ctx, categoryID); err != nil {
		return nil, repoErr(err, "category %d", categoryID)
	}
	return s.query(ctx, model.ListingFilter{Status: model.ListingStatusApproved, CategoryIDs: []uint{categoryID}})
}

// SellerListings 賣家自己的 listing, 包含未上架
func (s *CatalogService) SellerListings(ctx context.Context, ownerID uint, search string, categoryIDs []uint) ([]model.Listing, error) {
	return s.query(ctx, model.ListingFilter{OwnerID: ownerID, NameLike: search, CategoryIDs: categoryIDs})
}

func (s *CatalogService) PendingListings(ctx context.Context, actor Actor) ([]model.Listing, error) {
	if err := requireStaff(actor, "list pending listings"); err != nil {
		return nil, err
	}
	return s.query(ctx, model.ListingFilter{Status: model.ListingStatusPending})
}

func (s *CatalogService) Banners(ctx context.Context) ([]model.Banner, error) {
	return cachedLoad(ctx, s.cache.banners, bannersKey, s.cache.bannerTTL, func(ctx context.Context) ([]model.Banner, error) {
		banners, err := s.catalogRepo.ListBanners(ctx)
		if err != nil {
			return nil, repoErr(err, "list banners")
		}
		return banners, nil
	})
}

func (s *CatalogService) CreateBanner(ctx context.Context, actor Actor, upload ImageUpload) (*model.Banner, error) {
	if err := requireStaff(actor, "create banner"); err != nil {
		return nil, err
	}
	paths, err := s.storeUploads(ctx, "banners", []ImageUpload{upload})
	if err != nil {
		return nil, err
	}
	banner := &model.Banner{Image: paths[0]}
	if err := s.catalogRepo.CreateBanner(ctx, banner); err != nil {
		s.removeBlobs(ctx, paths)
		return nil, repoErr(err, "create banner")
	}
	s.mutated(ctx, model.BannerEventChanged)
	return banner, nil
}

func (s *CatalogService) DeleteBanner(ctx context.Context, actor Actor, id uint) error {
	if err := requireStaff(actor, "delete banner"); err != nil {
		return err
	}
	banner, err := s.catalogRepo.DeleteBanner(ctx, id)
	if err != nil {
		return repoErr(err, "delete banner %d", id)
	}
	s.removeBlobs(ctx, []string{banner.Image})
	s.mutated(ctx, model.BannerEventChanged)
	return nil
}

var _ ICatalogService = (*CatalogService)(nil)
