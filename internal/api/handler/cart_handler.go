package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/bikemarket/internal/api/dto"
	"github.com/RoyceAzure/lab/bikemarket/internal/service"
	"github.com/RoyceAzure/lab/bikemarket/internal/util"
	"github.com/RoyceAzure/rj/api"
)

// CartHandler 購物車綁在 session 上, 不需要登入
type CartHandler struct {
	sessions service.SessionStore
	listings service.ListingLookup
	catalog  service.ICatalogService
}

func NewCartHandler(sessions service.SessionStore, listings service.ListingLookup, catalog service.ICatalogService) *CartHandler {
	if sessions == nil || listings == nil || catalog == nil {
		panic("cart handler dependencies cannot be nil")
	}
	return &CartHandler{
		sessions: sessions,
		listings: listings,
		catalog:  catalog,
	}
}

func loadCart(r *http.Request, sessions service.SessionStore, listings service.ListingLookup) (*service.Cart, error) {
	return service.LoadCart(r.Context(), sessions, listings, util.GetSessionIDFromContext(r.Context()))
}

func (h *CartHandler) writeCart(w http.ResponseWriter, r *http.Request, cart *service.Cart) {
	lines, missing, err := cart.Resolve(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := dto.CartDTO{
		Items:      make([]dto.CartLineDTO, 0, len(lines)),
		Missing:    missing,
		Count:      cart.Len(),
		Quantity:   cart.Quantity(),
		TotalPrice: cart.TotalPrice(),
	}
	for _, line := range lines {
		out.Items = append(out.Items, dto.CartLineDTO{
			ListingID: line.Listing.ID,
			Name:      line.Listing.Name,
			Price:     line.Price,
			Quantity:  line.Quantity,
			Subtotal:  line.Subtotal,
		})
	}
	api.SuccessJSON(w, out, nil)
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	cart, err := loadCart(r, h.sessions, h.listings)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeCart(w, r, cart)
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request, forceUpdate bool) {
	id, err := uintParam(r, "listingID")
	if err != nil {
		badRequest(w, err)
		return
	}
	var body dto.AddCartItemDTO
	if err := decodeJSON(r, &body); err != nil {
		badRequest(w, err)
		return
	}

	listing, err := h.catalog.ListingDetail(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	cart, err := loadCart(r, h.sessions, h.listings)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := cart.Add(r.Context(), listing, body.Quantity, body.Update || forceUpdate); err != nil {
		writeError(w, err)
		return
	}
	h.writeCart(w, r, cart)
}

// Add POST /cart/{listingID}, body 可省略
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	h.add(w, r, false)
}

// Update PUT /cart/{listingID}, 數量直接覆寫
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.add(w, r, true)
}

func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "listingID")
	if err != nil {
		badRequest(w, err)
		return
	}
	cart, err := loadCart(r, h.sessions, h.listings)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := cart.Remove(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	h.writeCart(w, r, cart)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	cart, err := loadCart(r, h.sessions, h.listings)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := cart.Clear(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	h.writeCart(w, r, cart)
}
