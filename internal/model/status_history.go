package model

import (
	"errors"
	"time"
)

// StatusHistoryModel 申请聚合状态变更历史数据模型
// 每次聚合状态迁移记录一行,draft→submitted 也包括在内
type StatusHistoryModel struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)"`
	RequestID  uint      `gorm:"not null;index"`
	FromStatus string    `gorm:"type:varchar(32)"`
	ToStatus   string    `gorm:"type:varchar(32);not null"`
	Reason     string    `gorm:"type:text"`
	ActorID    uint      `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (StatusHistoryModel) TableName() string {
	return "status_history"
}

// Validate 验证状态历史模型
func (shm *StatusHistoryModel) Validate() error {
	if shm.ID == "" {
		return errors.New("history ID is required")
	}
	if shm.RequestID == 0 {
		return errors.New("request ID is required")
	}
	if shm.ToStatus == "" {
		return errors.New("to status is required")
	}
	if shm.ActorID == 0 {
		return errors.New("actor ID is required")
	}
	return nil
}
