package service

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strconv"

	"github.com/RoyceAzure/lab/bikemarket/internal/domain/model"
	"github.com/shopspring/decimal"
)

const cartSessionKey = "cart"

// SessionStore 以 session id 區隔的 key-value 儲存
type SessionStore interface {
	Get(ctx context.Context, sessionID, field string) ([]byte, bool, error)
	Set(ctx context.Context, sessionID, field string, value []byte) error
	Delete(ctx context.Context, sessionID, field string) error
}

type ListingLookup interface {
	GetListingsByIDs(ctx context.Context, ids []uint) ([]model.Listing, error)
}

type cartEntry struct {
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// LineItem 迭代購物車時的一筆明細, 價格為加入當下的快照
type LineItem struct {
	Listing  model.Listing   `json:"listing"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Cart 綁定單一 session, 每次異動都立即寫回 SessionStore
type Cart struct {
	store     SessionStore
	listings  ListingLookup
	sessionID string
	entries   map[string]cartEntry
}

// LoadCart session 內沒有購物車時回傳空的購物車
func LoadCart(ctx context.Context, store SessionStore, listings ListingLookup, sessionID string) (*Cart, error) {
	c := &Cart{
		store:     store,
		listings:  listings,
		sessionID: sessionID,
		entries:   map[string]cartEntry{},
	}
	raw, ok, err := store.Get(ctx, sessionID, cartSessionKey)
	if err != nil {
		return nil, err
	}
	if ok && len(raw) > 0 {
		if err := json.Unmarshal(raw, &c.entries); err != nil {
			return nil, fmt.Errorf("decode cart of session %s: %w", sessionID, err)
		}
	}
	return c, nil
}

func cartKey(listingID uint) string {
	return strconv.FormatUint(uint64(listingID), 10)
}

func (c *Cart) persist(ctx context.Context, next map[string]cartEntry) error {
	if len(next) == 0 {
		if err := c.store.Delete(ctx, c.sessionID, cartSessionKey); err != nil {
			return err
		}
		c.entries = next
		return nil
	}
	raw, err := json.Marshal(next)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, c.sessionID, cartSessionKey, raw); err != nil {
		return err
	}
	c.entries = next
	return nil
}

// Add quantity 為 0 視為未指定, 以 1 計
// updateQuantity 為 true 時直接覆寫數量, 否則累加
// 第一次加入時記下 listing 當下的價格, 之後不再變動
func (c *Cart) Add(ctx context.Context, listing *model.Listing, quantity int, updateQuantity bool) error {
	if quantity < 0 {
		return validationErr("quantity must not be negative")
	}
	if quantity == 0 {
		quantity = 1
	}

	next := maps.Clone(c.entries)
	key := cartKey(listing.ID)
	entry, ok := next[key]
	if !ok {
		entry = cartEntry{Quantity: 0, Price: decimal.NewFromInt(listing.Price)}
	}
	if updateQuantity {
		entry.Quantity = quantity
	} else {
		entry.Quantity += quantity
	}
	next[key] = entry
	return c.persist(ctx, next)
}

// Update 與 Add 相同
func (c *Cart) Update(ctx context.Context, listing *model.Listing, quantity int, updateQuantity bool) error {
	return c.Add(ctx, listing, quantity, updateQuantity)
}

func (c *Cart) Remove(ctx context.Context, listingID uint) error {
	key := cartKey(listingID)
	if _, ok := c.entries[key]; !ok {
		return nil
	}
	next := maps.Clone(c.entries)
	delete(next, key)
	return c.persist(ctx, next)
}

func (c *Cart) Clear(ctx context.Context) error {
	return c.persist(ctx, map[string]cartEntry{})
}

func (c *Cart) listingIDs() []uint {
	ids := make([]uint, 0, len(c.entries))
	for k := range c.entries {
		id, err := strconv.ParseUint(k, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	slices.Sort(ids)
	return ids
}

// Resolve 一次查回所有 listing
// missing 為已不存在的 listing id, 這些明細不會出現在 lines
func (c *Cart) Resolve(ctx context.Context) (lines []LineItem, missing []uint, err error) {
	ids := c.listingIDs()
	if len(ids) == 0 {
		return nil, nil, nil
	}
	listings, err := c.listings.GetListingsByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[uint]model.Listing, len(listings))
	for _, l := range listings {
		byID[l.ID] = l
	}

	lines = make([]LineItem, 0, len(ids))
	for _, id := range ids {
		l, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		entry := c.entries[cartKey(id)]
		lines = append(lines, LineItem{
			Listing:  l,
			Price:    entry.Price,
			Quantity: entry.Quantity,
			Subtotal: entry.Price.Mul(decimal.NewFromInt(int64(entry.Quantity))),
		})
	}
	return lines, missing, nil
}

// Items 依 listing id 排序, 同一個 Seq 可重複走訪
func (c *Cart) Items(ctx context.Context) (iter.Seq[LineItem], error) {
	lines, _, err := c.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Values(lines), nil
}

// TotalPrice 以快照價格加總
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, e := range c.entries {
		total = total.Add(e.Price.Mul(decimal.NewFromInt(int64(e.Quantity))))
	}
	return total
}

func (c *Cart) Len() int {
	return len(c.entries)
}

func (c *Cart) Quantity() int {
	n := 0
	for _, e := range c.entries {
		n += e.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool {
	return len(c.entries) == 0
}

func (c *Cart) SessionID() string {
	return c.sessionID
}

// Missing 購物車中已被刪除的 listing id
func (c *Cart) Missing(ctx context.Context) ([]uint, error) {
	_, missing, err := c.Resolve(ctx)
	return missing, err
}
