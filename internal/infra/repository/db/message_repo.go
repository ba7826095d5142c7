package db

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/bikemarket/internal/domain/model"
	"gorm.io/gorm"
)

// MessageRepo 訊息只新增不改結構, 回覆與歷史都是查詢結果
type MessageRepo struct {
	db *DbDao
}

func NewMessageRepo(db *DbDao) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) CreateMessage(ctx context.Context, msg *model.SupportMessage) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(msg).Error
}

// CreateReply 新增回覆並同步更新原訊息狀態
func (r *MessageRepo) CreateReply(ctx context.Context, reply *model.SupportMessage, parentStatus model.MessageStatus, resolvedAt *time.Time) error {
	if reply.Timestamp.IsZero() {
		reply.Timestamp = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reply).Error; err != nil {
			return err
		}
		res := tx.Model(&model.SupportMessage{}).Where("id = ?", *reply.ParentID).Updates(map[string]any{
			"status":      parentStatus,
			"resolved_at": resolvedAt,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *MessageRepo) GetMessageByID(ctx context.Context, id uint) (*model.SupportMessage, error) {
	var msg model.SupportMessage
	err := r.db.WithContext(ctx).First(&msg, id).Error
	if err != nil {
		return nil, translate(err, "message %d", id)
	}
	return &msg, nil
}

// ListMessagesByUserID 時間由舊到新
func (r *MessageRepo) ListMessagesByUserID(ctx context.Context, userID uint) ([]model.SupportMessage, error) {
	var msgs []model.SupportMessage
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp ASC").
		Order("id ASC").
		Find(&msgs).Error
	return msgs, err
}

func (r *MessageRepo) ListReplies(ctx context.Context, parentID uint) ([]model.SupportMessage, error) {
	var msgs []model.SupportMessage
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("timestamp ASC").
		Order("id ASC").
		Find(&msgs).Error
	return msgs, err
}

// ListTickets 沒有 parent 的訊息, status 為空時不過濾
func (r *MessageRepo) ListTickets(ctx context.Context, status model.MessageStatus) ([]model.SupportMessage, error) {
	var msgs []model.SupportMessage
	q := r.db.WithContext(ctx).Where("parent_id IS NULL")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("timestamp DESC").Order("id DESC").Find(&msgs).Error
	return msgs, err
}

func (r *MessageRepo) ListUnread(ctx context.Context) ([]model.SupportMessage, error) {
	var msgs []model.SupportMessage
	err := r.db.WithContext(ctx).
		Where("is_admin = ? AND status = ?", false, model.MessageStatusOpen).
		Order("timestamp ASC").
		Order("id ASC").
		Find(&msgs).Error
	return msgs, err
}

func (r *MessageRepo) ListMessageUserIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&model.SupportMessage{}).
		Distinct("user_id").
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *MessageRepo) UpdateMessage(ctx context.Context, id uint, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&model.SupportMessage{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return translate(res.Error, "update message %d", id)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "message %d", id)
	}
	return nil
}
