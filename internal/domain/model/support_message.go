package model

import "time"

type MessageStatus string

const (
	MessageStatusOpen       MessageStatus = "open"
	MessageStatusInProgress MessageStatus = "in_progress"
	MessageStatusResolved   MessageStatus = "resolved"
	MessageStatusClosed     MessageStatus = "closed"
)

func (s MessageStatus) IsValid() bool {
	switch s {
	case MessageStatusOpen, MessageStatusInProgress, MessageStatusResolved, MessageStatusClosed:
		return true
	default:
		return false
	}
}

type MessagePriority string

const (
	MessagePriorityLow    MessagePriority = "low"
	MessagePriorityMedium MessagePriority = "medium"
	MessagePriorityHigh   MessagePriority = "high"
)

func (p MessagePriority) IsValid() bool {
	switch p {
	case MessagePriorityLow, MessagePriorityMedium, MessagePriorityHigh:
		return true
	default:
		return false
	}
}

// SupportMessage 客服訊息
// ParentID 為空代表一張 ticket, 回覆只存 parent id 不保留物件關聯
type SupportMessage struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	UserID       uint            `gorm:"not null;index" json:"user_id"`
	Message      string          `gorm:"type:text;not null" json:"message"`
	IsAdmin      bool            `gorm:"not null;default:false" json:"is_admin"`
	ParentID     *uint           `gorm:"index" json:"parent_id,omitempty"`
	Subject      string          `gorm:"type:varchar(200)" json:"subject"`
	Category     string          `gorm:"type:varchar(50)" json:"category"`
	Status       MessageStatus   `gorm:"type:varchar(20);not null;default:open;index" json:"status"`
	Priority     MessagePriority `gorm:"type:varchar(20);not null;default:medium" json:"priority"`
	AssignedToID *uint           `json:"assigned_to_id,omitempty"`
	ResolvedAt   *time.Time      `json:"resolved_at,omitempty"`
	Timestamp    time.Time       `gorm:"not null;index" json:"timestamp"`
}

// IsUnread 從客服角度判斷
func (m SupportMessage) IsUnread() bool {
	return !m.IsAdmin && m.Status == MessageStatusOpen
}
