package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/RoyceAzure/lab/bikemarket/internal/service"
	"github.com/RoyceAzure/rj/api"
)

type ListingHandler struct {
	catalog service.ICatalogService
}

func NewListingHandler(catalog service.ICatalogService) *ListingHandler {
	if catalog == nil {
		panic("catalog service cannot be nil")
	}
	return &ListingHandler{
		catalog: catalog,
	}
}

// Home 首頁最新 12 台已上架
func (h *ListingHandler) Home(w http.ResponseWriter, r *http.Request) {
	listings, err := h.catalog.Home(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, listings, nil)
}

// BuyList GET /listings?category=&min_price=&max_price=&page=
func (h *ListingHandler) BuyList(w http.ResponseWriter, r *http.Request) {
	q := service.BuyListQuery{Page: 1}
	var err error
	if raw := r.URL.Query().Get("category"); raw != "" {
		id, perr := strconv.ParseUint(raw, 10, 64)
		if perr != nil {
			badRequest(w, errors.New("invalid category"))
			return
		}
		q.CategoryID = uint(id)
	}
	if q.MinPrice, err = optionalInt64Query(r, "min_price"); err != nil {
		badRequest(w, err)
		return
	}
	if q.MaxPrice, err = optionalInt64Query(r, "max_price"); err != nil {
		badRequest(w, err)
		return
	}
	if raw := r.URL.Query().Get("page"); raw != "" {
		// 頁碼不合法時回到第一頁
		if p, perr := strconv.Atoi(raw); perr == nil {
			q.Page = p
		}
	}

	page, err := h.catalog.BuyList(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, page, nil)
}

func (h *ListingHandler) Search(w http.ResponseWriter, r *http.Request) {
	listings, err := h.catalog.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, listings, nil)
}

func (h *ListingHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	listing, err := h.catalog.ListingDetail(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, listing, nil)
}

func (h *ListingHandler) Images(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	images, err := h.catalog.ListImages(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, images, nil)
}

func (h *ListingHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, categories, nil)
}

func (h *ListingHandler) CategoryListings(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	listings, err := h.catalog.ListingsByCategory(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, listings, nil)
}

func (h *ListingHandler) Banners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.catalog.Banners(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, banners, nil)
}

// SellerListings 自己刊登的車, 可用名稱與分類過濾
func (h *ListingHandler) SellerListings(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	categoryIDs, err := uintListQuery(r, "category")
	if err != nil {
		badRequest(w, err)
		return
	}
	listings, err := h.catalog.SellerListings(r.Context(), actor.UserID, r.URL.Query().Get("search"), categoryIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, listings, nil)
}

func listingInputFromForm(r *http.Request) (service.ListingInput, error) {
	in := service.ListingInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
	}
	if raw := r.FormValue("price"); raw != "" {
		price, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return in, errors.New("invalid price")
		}
		in.Price = price
	}
	if raw := r.FormValue("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return in, errors.New("invalid category_id")
		}
		in.CategoryID = uint(id)
	}
	return in, nil
}

// CreateListing multipart 表單, 圖片欄位為 images
func (h *ListingHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	if err := parseMultipart(w, r); err != nil {
		badRequest(w, err)
		return
	}
	in, err := listingInputFromForm(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	uploads, err := readUploads(r, "images")
	if err != nil {
		badRequest(w, err)
		return
	}

	listing, err := h.catalog.CreateListing(r.Context(), actor, in, uploads)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, listing, nil)
}

func (h *ListingHandler) EditListing(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, err := uintParam(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	if err := parseMultipart(w, r); err != nil {
		badRequest(w, err)
		return
	}
	in, err := listingInputFromForm(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	uploads, err := readUploads(r, "images")
	if err != nil {
		badRequest(w, err)
		return
	}

	listing, err := h.catalog.EditListing(r.Context(), actor, id, in, uploads)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, listing, nil)
}

func (h *ListingHandler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, err := uintParam(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	if err := h.catalog.DeleteListing(r.Context(), actor, id); err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, nil, nil)
}

func (h *ListingHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, err := uintParam(r, "imageID")
	if err != nil {
		badRequest(w, err)
		return
	}
	if err := h.catalog.DeleteImage(r.Context(), actor, id); err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, nil, nil)
}
