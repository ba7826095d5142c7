package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/bikemarket/internal/service"
	"github.com/RoyceAzure/rj/api"
)

type OrderHandler struct {
	orders   service.IOrderService
	sessions service.SessionStore
	listings service.ListingLookup
}

func NewOrderHandler(orders service.IOrderService, sessions service.SessionStore, listings service.ListingLookup) *OrderHandler {
	if orders == nil || sessions == nil || listings == nil {
		panic("order handler dependencies cannot be nil")
	}
	return &OrderHandler{
		orders:   orders,
		sessions: sessions,
		listings: listings,
	}
}

// Checkout 以目前 session 的購物車下單
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var form service.CheckoutForm
	if err := decodeJSON(r, &form); err != nil {
		badRequest(w, err)
		return
	}
	cart, err := loadCart(r, h.sessions, h.listings)
	if err != nil {
		writeError(w, err)
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), actor.UserID, form, cart)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, order, nil)
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	orders, err := h.orders.ListUserOrders(r.Context(), actor.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, orders, nil)
}

// GetOrder 只能看自己的訂單
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, err := uintParam(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	order, err := h.orders.GetUserOrder(r.Context(), actor.UserID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, order, nil)
}
