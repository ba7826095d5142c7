package model

import "time"

type ListingEventType string

var (
	ListingEventCreated  ListingEventType = "created"
	ListingEventUpdated  ListingEventType = "updated"
	ListingEventApproved ListingEventType = "approved"
	ListingEventRejected ListingEventType = "rejected"
	ListingEventDeleted  ListingEventType = "deleted"
	CategoryEventDeleted ListingEventType = "category_deleted"
	BannerEventChanged   ListingEventType = "banner_changed"
)

// ListingEvent 任何 listing 異動都會發出, 消費端據此清除快取
type ListingEvent struct {
	Type       ListingEventType `json:"type"`
	ListingIDs []uint           `json:"listing_ids"`
	OccurredAt time.Time        `json:"occurred_at"`
}
