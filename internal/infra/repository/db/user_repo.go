package db

import (
	"context"

	"github.com/RoyceAzure/lab/bikemarket/internal/domain/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepo struct {
	db *DbDao
}

func NewUserRepo(db *DbDao) *UserRepo {
	return &UserRepo{db: db}
}

// UpsertUser 以 id 為鍵同步身分提供者的資料
// 已存在時只更新 username 與 is_staff, 姓名 email 由 profile 維護, is_active 由啟用流程維護
func (r *UserRepo) UpsertUser(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "is_staff", "updated_at"}),
	}).Create(user).Error
}

func (r *UserRepo) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, translate(err, "user %d", id)
	}
	return &user, nil
}

func (r *UserRepo) GetUsersByIDs(ctx context.Context, ids []uint) ([]model.User, error) {
	var users []model.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&users).Error
	return users, err
}

func (r *UserRepo) UpdateUserNames(ctx context.Context, id uint, first, last, email string) error {
	res := r.db.WithContext(ctx).Model(&model.User{ID: id}).Updates(map[string]any{
		"first_name": first,
		"last_name":  last,
		"email":      email,
	})
	if res.Error != nil {
		return translate(res.Error, "update user %d", id)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "user %d", id)
	}
	return nil
}

func (r *UserRepo) SetUserActive(ctx context.Context, id uint, active bool) error {
	res := r.db.WithContext(ctx).Model(&model.User{ID: id}).Update("is_active", active)
	if res.Error != nil {
		return translate(res.Error, "activate user %d", id)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "user %d", id)
	}
	return nil
}

// EnsureProfile 沒有就建立, 取代註冊時自動建立 profile 的 hook
func (r *UserRepo) EnsureProfile(ctx context.Context, userID uint) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.WithContext(ctx).
		Where(model.Profile{UserID: userID}).
		FirstOrCreate(&profile).Error
	if err != nil {
		return nil, translate(err, "ensure profile of user %d", userID)
	}
	return &profile, nil
}

func (r *UserRepo) SetProfilePicture(ctx context.Context, userID uint, path string) error {
	return r.db.WithContext(ctx).Model(&model.Profile{}).Where("user_id = ?", userID).Update("profile_picture", path).Error
}
