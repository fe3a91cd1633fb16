package repository

import (
	"github.com/MontyPithon/bancroff/internal/model"
	"gorm.io/gorm"
)

// StatusHistoryRepository 状态历史仓储接口
type StatusHistoryRepository interface {
	Save(history *model.StatusHistoryModel) error
	FindByRequestID(requestID uint) ([]*model.StatusHistoryModel, error)
}

// statusHistoryRepository 状态历史仓储实现
type statusHistoryRepository struct {
	db *gorm.DB
}

// NewStatusHistoryRepository 创建状态历史仓储
func NewStatusHistoryRepository(db *gorm.DB) StatusHistoryRepository {
	return &statusHistoryRepository{db: db}
}

// Save 保存状态历史
func (r *statusHistoryRepository) Save(history *model.StatusHistoryModel) error {
	return r.db.Save(history).Error
}

// FindByRequestID 按申请查找状态历史,按发生顺序返回
func (r *statusHistoryRepository) FindByRequestID(requestID uint) ([]*model.StatusHistoryModel, error) {
	var histories []*model.StatusHistoryModel
	err := r.db.Where("request_id = ?", requestID).Order("created_at ASC").Find(&histories).Error
	return histories, err
}
