package repository

import (
	"github.com/MontyPithon/bancroff/internal/model"
	"gorm.io/gorm"
)

// RequestRepository 申请仓储接口
type RequestRepository interface {
	Save(request *model.RequestModel) error
	FindByID(id uint) (*model.RequestModel, error)
	FindAll() ([]*model.RequestModel, error)
	FindByRequester(requesterID uint) ([]*model.RequestModel, error)
	FindByFilter(filter *RequestFilter) ([]*model.RequestModel, error)
	Delete(request *model.RequestModel) error
}

// RequestFilter 申请查询过滤器
type RequestFilter struct {
	Status      *string
	TypeID      *uint
	RequesterID *uint
	StartTime   *string
	EndTime     *string
}

// requestRepository 申请仓储实现
type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository 创建申请仓储
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

// Save 保存申请
func (r *requestRepository) Save(request *model.RequestModel) error {
	return r.db.Save(request).Error
}

// FindByID 根据 ID 查找申请
func (r *requestRepository) FindByID(id uint) (*model.RequestModel, error) {
	var request model.RequestModel
	err := r.db.Preload("Type").Preload("Requester.Role").
		Where("id = ?", id).First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// FindAll 查找所有申请
func (r *requestRepository) FindAll() ([]*model.RequestModel, error) {
	var requests []*model.RequestModel
	err := r.db.Preload("Type").Preload("Requester").
		Order("created_at DESC").Find(&requests).Error
	return requests, err
}

// FindByRequester 根据申请人查找申请
func (r *requestRepository) FindByRequester(requesterID uint) ([]*model.RequestModel, error) {
	var requests []*model.RequestModel
	err := r.db.Preload("Type").
		Where("requester_id = ?", requesterID).
		Order("created_at DESC").Find(&requests).Error
	return requests, err
}

// FindByFilter 根据过滤器查找申请
func (r *requestRepository) FindByFilter(filter *RequestFilter) ([]*model.RequestModel, error) {
	var requests []*model.RequestModel
	query := r.db.Model(&model.RequestModel{}).Preload("Type").Preload("Requester")

	if filter != nil {
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
		if filter.TypeID != nil {
			query = query.Where("type_id = ?", *filter.TypeID)
		}
		if filter.RequesterID != nil {
			query = query.Where("requester_id = ?", *filter.RequesterID)
		}
		if filter.StartTime != nil {
			query = query.Where("created_at >= ?", *filter.StartTime)
		}
		if filter.EndTime != nil {
			query = query.Where("created_at <= ?", *filter.EndTime)
		}
	}

	err := query.Order("created_at DESC").Find(&requests).Error
	return requests, err
}

// Delete 删除申请及其账本(级联)
func (r *requestRepository) Delete(request *model.RequestModel) error {
	return r.db.Select("Approvals").Delete(request).Error
}
