package repository

import (
	"github.com/MontyPithon/bancroff/internal/model"
	"gorm.io/gorm"
)

// ApprovalRepository 审批账本仓储接口
type ApprovalRepository interface {
	Save(entry *model.RequestApprovalModel) error
	FindByID(id uint) (*model.RequestApprovalModel, error)
	FindByRequestID(requestID uint) ([]*model.RequestApprovalModel, error)
	FindByApprover(approverID uint) ([]*model.RequestApprovalModel, error)
}

// approvalRepository 审批账本仓储实现
type approvalRepository struct {
	db *gorm.DB
}

// NewApprovalRepository 创建审批账本仓储
func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

// Save 保存账本条目
func (r *approvalRepository) Save(entry *model.RequestApprovalModel) error {
	return r.db.Save(entry).Error
}

// FindByID 根据 ID 查找账本条目
func (r *approvalRepository) FindByID(id uint) (*model.RequestApprovalModel, error) {
	var entry model.RequestApprovalModel
	err := r.db.Preload("Step.ApproverRole").Preload("Approver").
		Where("id = ?", id).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindByRequestID 查找某申请的全部账本条目,按步骤顺序排列
func (r *approvalRepository) FindByRequestID(requestID uint) ([]*model.RequestApprovalModel, error) {
	var entries []*model.RequestApprovalModel
	err := r.db.
		Joins("JOIN approval_steps ON approval_steps.id = request_approvals.step_id").
		Where("request_approvals.request_id = ?", requestID).
		Order("approval_steps.step_order ASC").
		Preload("Step.ApproverRole").
		Preload("Approver").
		Find(&entries).Error
	return entries, err
}

// FindByApprover 根据审批人查找账本条目
func (r *approvalRepository) FindByApprover(approverID uint) ([]*model.RequestApprovalModel, error) {
	var entries []*model.RequestApprovalModel
	err := r.db.Where("approver_id = ?", approverID).
		Order("decided_at DESC").
		Preload("Step").
		Find(&entries).Error
	return entries, err
}
