package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/bikemarket/internal/infra/cache"
	"github.com/rs/zerolog/log"
)

const (
	homeListingsKey = "index_listings"
	bannersKey      = "index_banners"

	DefaultListingTTL = 300 * time.Second
	DefaultBannerTTL  = 600 * time.Second
)

// ListingCache listing 查詢結果的快取
// 快取只是加速, 任何錯誤都記 log 後直接查 db
type ListingCache struct {
	listings   cache.Cache
	banners    cache.Cache
	listingTTL time.Duration
	bannerTTL  time.Duration
}

func NewListingCache(listings, banners cache.Cache, listingTTL, bannerTTL time.Duration) *ListingCache {
	if listingTTL <= 0 {
		listingTTL = DefaultListingTTL
	}
	if bannerTTL <= 0 {
		bannerTTL = DefaultBannerTTL
	}
	return &ListingCache{
		listings:   listings,
		banners:    banners,
		listingTTL: listingTTL,
		bannerTTL:  bannerTTL,
	}
}

func optionalInt(v *int64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}

// BuyListKey 同樣的篩選條件得到同樣的 key
func BuyListKey(categoryID uint, minPrice, maxPrice *int64) string {
	category := ""
	if categoryID != 0 {
		category = fmt.Sprintf("%d", categoryID)
	}
	return fmt.Sprintf("buy_list:%s:%s:%s", category, optionalInt(minPrice), optionalInt(maxPrice))
}

func cachedLoad[T any](ctx context.Context, c cache.Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	raw, err := c.Get(ctx, key)
	if err == nil {
		var v T
		decodeErr := json.Unmarshal(raw, &v)
		if decodeErr == nil {
			return v, nil
		}
		log.Error().Err(decodeErr).Str("key", key).Msg("failed to decode cached value")
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		log.Error().Err(err).Str("key", key).Msg("failed to read cache")
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	raw, err = json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to encode cache value")
		return v, nil
	}
	if err := c.Set(ctx, key, raw, ttl); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to write cache")
	}
	return v, nil
}

func (c *ListingCache) clear(ctx context.Context, target cache.Cache, namespace string) {
	if err := target.Clear(ctx); err != nil {
		log.Error().Err(err).Str("namespace", namespace).Msg("failed to invalidate cache")
	}
}

// InvalidateListings 清除整個 listing namespace
func (c *ListingCache) InvalidateListings(ctx context.Context) {
	c.clear(ctx, c.listings, "listings")
}

func (c *ListingCache) InvalidateBanners(ctx context.Context) {
	c.clear(ctx, c.banners, "banners")
}
