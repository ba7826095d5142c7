package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/RoyceAzure/lab/bikemarket/internal/api/dto"
	"github.com/RoyceAzure/lab/bikemarket/internal/service"
	"github.com/RoyceAzure/rj/api"
	"github.com/rs/zerolog/log"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler 後台, 路由層已限制 staff, 服務層仍會再檢查
type AdminHandler struct {
	catalog service.ICatalogService
	orders  service.IOrderService
	reports service.IReportService
}

func NewAdminHandler(catalog service.ICatalogService, orders service.IOrderService, reports service.IReportService) *AdminHandler {
	if catalog == nil || orders == nil || reports == nil {
		panic("admin handler dependencies cannot be nil")
	}
	return &AdminHandler{
		catalog: catalog,
		orders:  orders,
		reports: reports,
	}
}

func (h *AdminHandler) PendingListings(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	listings, err := h.catalog.PendingListings(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, listings, nil)
}

func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.setListingStatus(w, r, h.catalog.Approve)
}

func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.setListingStatus(w, r, h.catalog.Reject)
}

func (h *AdminHandler) setListingStatus(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, actor service.Actor, ids []uint) (int64, error)) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var body dto.IDsDTO
	if err := decodeJSON(r, &body); err != nil {
		badRequest(w, err)
		return
	}
	n, err := apply(r.Context(), actor, body.IDs)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, dto.AffectedDTO{Affected: n}, nil)
}

func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var body dto.CategoryDTO
	if err := decodeJSON(r, &body); err != nil {
		badRequest(w, err)
		return
	}
	category, err := h.catalog.CreateCategory(r.Context(), actor, body.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, category, nil)
}

// DeleteCategory 連同該分類下的 listing 與圖片一起刪除
func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, err := uintParam(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	if err := h.catalog.DeleteCategory(r.Context(), actor, id); err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, nil, nil)
}

// CreateBanner multipart 表單, 圖片欄位為 image
func (h *AdminHandler) CreateBanner(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	if err := parseMultipart(w, r); err != nil {
		badRequest(w, err)
		return
	}
	uploads, err := readUploads(r, "image")
	if err != nil {
		badRequest(w, err)
		return
	}
	if len(uploads) != 1 {
		badRequest(w, errors.New("exactly one image is required"))
		return
	}
	banner, err := h.catalog.CreateBanner(r.Context(), actor, uploads[0])
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, banner, nil)
}

func (h *AdminHandler) DeleteBanner(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, err := uintParam(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	if err := h.catalog.DeleteBanner(r.Context(), actor, id); err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, nil, nil)
}

func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	orders, err := h.orders.ListOrders(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, orders, nil)
}

func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, err := uintParam(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	order, err := h.orders.GetOrder(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, order, nil)
}

func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, err := uintParam(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	var body dto.OrderStatusDTO
	if err := decodeJSON(r, &body); err != nil {
		badRequest(w, err)
		return
	}
	if err := h.orders.UpdateOrderStatus(r.Context(), actor, id, body.Status); err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, nil, nil)
}

// ConfirmOrders 批次改為 Order Confirmed
func (h *AdminHandler) ConfirmOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var body dto.IDsDTO
	if err := decodeJSON(r, &body); err != nil {
		badRequest(w, err)
		return
	}
	n, err := h.orders.ConfirmOrders(r.Context(), actor, body.IDs)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, dto.AffectedDTO{Affected: n}, nil)
}

// ExportOrders 先寫進 buffer, 產檔失敗時還能回 json 錯誤
func (h *AdminHandler) ExportOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.reports.ExportOrders(r.Context(), actor, &buf); err != nil {
		writeError(w, err)
		return
	}
	filename := fmt.Sprintf("orders_%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Warn().Err(err).Msg("failed to write orders export")
	}
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	d, err := h.reports.Dashboard(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, d, nil)
}
