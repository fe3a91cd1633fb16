package repository

import (
	"github.com/MontyPithon/bancroff/internal/model"
	"gorm.io/gorm"
)

// RequestTypeRepository 申请类型仓储接口
type RequestTypeRepository interface {
	Save(requestType *model.RequestTypeModel) error
	FindByID(id uint) (*model.RequestTypeModel, error)
	FindByName(name string) (*model.RequestTypeModel, error)
	FindAll() ([]*model.RequestTypeModel, error)
}

// requestTypeRepository 申请类型仓储实现
type requestTypeRepository struct {
	db *gorm.DB
}

// NewRequestTypeRepository 创建申请类型仓储
func NewRequestTypeRepository(db *gorm.DB) RequestTypeRepository {
	return &requestTypeRepository{db: db}
}

// Save 保存申请类型
func (r *requestTypeRepository) Save(requestType *model.RequestTypeModel) error {
	return r.db.Save(requestType).Error
}

// FindByID 根据 ID 查找申请类型
func (r *requestTypeRepository) FindByID(id uint) (*model.RequestTypeModel, error) {
	var requestType model.RequestTypeModel
	if err := r.db.Where("id = ?", id).First(&requestType).Error; err != nil {
		return nil, err
	}
	return &requestType, nil
}

// FindByName 根据名称查找申请类型
func (r *requestTypeRepository) FindByName(name string) (*model.RequestTypeModel, error) {
	var requestType model.RequestTypeModel
	if err := r.db.Where("name = ?", name).First(&requestType).Error; err != nil {
		return nil, err
	}
	return &requestType, nil
}

// FindAll 查找所有申请类型
func (r *requestTypeRepository) FindAll() ([]*model.RequestTypeModel, error) {
	var requestTypes []*model.RequestTypeModel
	err := r.db.Order("name ASC").Find(&requestTypes).Error
	return requestTypes, err
}
