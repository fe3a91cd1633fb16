package repository

import (
	"github.com/MontyPithon/bancroff/internal/model"
	"gorm.io/gorm"
)

// WorkflowRepository 审批流程仓储接口
type WorkflowRepository interface {
	Save(workflow *model.ApprovalWorkflowModel) error
	FindByID(id uint) (*model.ApprovalWorkflowModel, error)
	FindByRequestTypeID(requestTypeID uint) (*model.ApprovalWorkflowModel, error)
}

// workflowRepository 审批流程仓储实现
type workflowRepository struct {
	db *gorm.DB
}

// NewWorkflowRepository 创建审批流程仓储
func NewWorkflowRepository(db *gorm.DB) WorkflowRepository {
	return &workflowRepository{db: db}
}

// Save 保存流程及其步骤
// 保存前校验步骤序号从 1 开始连续递增
func (r *workflowRepository) Save(workflow *model.ApprovalWorkflowModel) error {
	if err := workflow.Validate(); err != nil {
		return err
	}
	return r.db.Save(workflow).Error
}

// FindByID 根据 ID 查找流程,步骤按 step_order 排列
func (r *workflowRepository) FindByID(id uint) (*model.ApprovalWorkflowModel, error) {
	var workflow model.ApprovalWorkflowModel
	err := r.db.Preload("Steps", func(db *gorm.DB) *gorm.DB {
		return db.Order("step_order ASC")
	}).Preload("Steps.ApproverRole").
		Where("id = ?", id).First(&workflow).Error
	if err != nil {
		return nil, err
	}
	return &workflow, nil
}

// FindByRequestTypeID 根据申请类型查找流程
// 本设计中每个申请类型只有一个流程
func (r *workflowRepository) FindByRequestTypeID(requestTypeID uint) (*model.ApprovalWorkflowModel, error) {
	var workflow model.ApprovalWorkflowModel
	err := r.db.Preload("Steps", func(db *gorm.DB) *gorm.DB {
		return db.Order("step_order ASC")
	}).Preload("Steps.ApproverRole").
		Where("request_type_id = ?", requestTypeID).First(&workflow).Error
	if err != nil {
		return nil, err
	}
	return &workflow, nil
}
