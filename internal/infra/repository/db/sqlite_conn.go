package db

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GetSqliteConn 只供測試使用 (各套件的 in-memory 資料庫), 單一連線避免 sqlite 鎖表
func GetSqliteConn(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// NewMemoryDB 每次呼叫都是獨立的 in-memory 資料庫, 已完成 schema 初始化
func NewMemoryDB() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:mem_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := GetSqliteConn(dsn)
	if err != nil {
		return nil, err
	}
	if err := NewDbDao(db).InitMigrate(); err != nil {
		return nil, err
	}
	return db, nil
}
