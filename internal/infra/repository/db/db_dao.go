package db

import (
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/bikemarket/internal/domain/model"
	"gorm.io/gorm"
)

var ErrRecordNotFound = errors.New("record not found")

type DbDao struct {
	*gorm.DB
}

func NewDbDao(conn *gorm.DB) *DbDao {
	return &DbDao{
		DB: conn,
	}
}

// 初始化db schema
// 冪等性, 正式環境以 migrations 為準, 測試使用
func (d *DbDao) InitMigrate() error {
	return d.AutoMigrate(
		&model.User{},
		&model.Profile{},
		&model.Category{},
		&model.Listing{},
		&model.Image{},
		&model.Banner{},
		&model.Order{},
		&model.OrderItem{},
		&model.SupportMessage{},
	)
}

// translate 把 gorm 的 not found 轉成本層的錯誤
func translate(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, msg)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
