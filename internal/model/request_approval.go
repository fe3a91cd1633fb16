package model

import (
	"errors"
	"time"
)

// 账本条目状态,pending 是唯一非终态
const (
	ApprovalStatusPending  = "pending"
	ApprovalStatusApproved = "approved"
	ApprovalStatusRejected = "rejected"
	ApprovalStatusReturned = "returned"
)

// RequestApprovalModel 审批账本条目数据模型
// 每个 (申请, 步骤) 对应一条记录,提交时批量创建为 pending
type RequestApprovalModel struct {
	ID         uint               `gorm:"primaryKey;autoIncrement"`
	RequestID  uint               `gorm:"not null;index"`
	StepID     uint               `gorm:"not null;index"`
	Step       *ApprovalStepModel `gorm:"foreignKey:StepID"`
	ApproverID *uint              `gorm:"index"` // 审批人,决策前为空
	Approver   *UserModel         `gorm:"foreignKey:ApproverID"`
	Status     string             `gorm:"type:varchar(32);not null;default:'pending'"`
	Comments   string             `gorm:"type:text"`
	DecidedAt  *time.Time         // 决策时间
	PDFPath    string             `gorm:"type:varchar(255)"` // 本步骤渲染文档路径
	CreatedAt  time.Time          `gorm:"not null"`
}

// TableName 指定表名
func (RequestApprovalModel) TableName() string {
	return "request_approvals"
}

// Validate 验证审批账本条目
func (ram *RequestApprovalModel) Validate() error {
	if ram.RequestID == 0 {
		return errors.New("request ID is required")
	}
	if ram.StepID == 0 {
		return errors.New("step ID is required")
	}
	if ram.Status == "" {
		ram.Status = ApprovalStatusPending
	}
	return nil
}

// IsPending 判断条目是否待决策
func (ram *RequestApprovalModel) IsPending() bool {
	return ram.Status == ApprovalStatusPending
}
