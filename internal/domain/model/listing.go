package model

type ListingStatus string

const (
	ListingStatusPending  ListingStatus = "Pending"
	ListingStatusApproved ListingStatus = "Approved"
)

func (s ListingStatus) IsValid() bool {
	switch s {
	case ListingStatusPending, ListingStatusApproved:
		return true
	default:
		return false
	}
}

type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(350);not null" json:"name"`
	BaseModel
}

// Listing 一台待售的腳踏車
// Price 為整數金額
type Listing struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Name        string        `gorm:"type:varchar(300);not null;index" json:"name"`
	Price       int64         `gorm:"not null;index" json:"price"`
	Description string        `gorm:"type:text;not null" json:"description"`
	CategoryID  uint          `gorm:"not null;index" json:"category_id"`
	Category    *Category     `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"category,omitempty"`
	OwnerID     uint          `gorm:"not null;index" json:"owner_id"`
	Status      ListingStatus `gorm:"type:varchar(50);not null;default:Pending;index" json:"status"`
	Images      []Image       `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"images"`
	BaseModel
}

type Image struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ListingID uint   `gorm:"not null;index" json:"listing_id"`
	Path      string `gorm:"type:varchar(255);not null" json:"path"`
	BaseModel
}

type Banner struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Image string `gorm:"type:varchar(255);not null" json:"image"`
	BaseModel
}

// ListingFilter 查詢條件, 零值欄位不參與過濾
type ListingFilter struct {
	Status      ListingStatus
	CategoryIDs []uint
	MinPrice    *int64
	MaxPrice    *int64
	OwnerID     uint
	NameLike    string
	Limit       int
	Offset      int
}
