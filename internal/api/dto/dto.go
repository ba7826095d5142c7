package dto

import (
	"github.com/RoyceAzure/lab/bikemarket/internal/domain/model"
	"github.com/shopspring/decimal"
)

// 購物車
type AddCartItemDTO struct {
	Quantity int  `json:"quantity"`
	Update   bool `json:"update"`
}

type CartLineDTO struct {
	ListingID uint            `json:"listing_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type CartDTO struct {
	Items      []CartLineDTO   `json:"items"`
	Missing    []uint          `json:"missing,omitempty"`
	Count      int             `json:"count"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// 後台批次操作
type IDsDTO struct {
	IDs []uint `json:"ids"`
}

type AffectedDTO struct {
	Affected int64 `json:"affected"`
}

type OrderStatusDTO struct {
	Status model.OrderStatus `json:"status"`
}

type CategoryDTO struct {
	Name string `json:"name"`
}

// 客服
type ReplyDTO struct {
	Message  string `json:"message"`
	ParentID *uint  `json:"parent_id"`
}
