package model

import (
	"errors"
	"time"
)

// 申请聚合状态
const (
	RequestStatusDraft     = "draft"
	RequestStatusSubmitted = "submitted"
	RequestStatusApproved  = "approved"
	RequestStatusRejected  = "rejected"
	RequestStatusReturned  = "returned"
)

// RequestModel 申请数据模型
// 一次表单提交对应一条申请,聚合状态由审批账本推导
type RequestModel struct {
	ID                uint              `gorm:"primaryKey;autoIncrement"`
	TypeID            uint              `gorm:"not null;index"`
	Type              *RequestTypeModel `gorm:"foreignKey:TypeID"`
	RequesterID       uint              `gorm:"not null;index"`
	Requester         *UserModel        `gorm:"foreignKey:RequesterID"`
	Title             string            `gorm:"type:varchar(255);not null"`
	FormData          []byte            `gorm:"type:jsonb"` // 表单数据,由表单层拥有
	Status            string            `gorm:"type:varchar(32);not null;default:'draft';index"`
	FinalDocumentPath string            `gorm:"type:varchar(255)"` // 最终渲染文档路径
	CreatedAt         time.Time         `gorm:"not null;index"`
	UpdatedAt         time.Time         `gorm:"not null"`
	// 申请独占其审批账本,随申请级联删除
	Approvals []*RequestApprovalModel `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE"`
}

// TableName 指定表名
func (RequestModel) TableName() string {
	return "requests"
}

// Validate 验证申请模型
func (rm *RequestModel) Validate() error {
	if rm.TypeID == 0 {
		return errors.New("request type is required")
	}
	if rm.RequesterID == 0 {
		return errors.New("requester is required")
	}
	if rm.Title == "" {
		return errors.New("request title is required")
	}
	if rm.Status == "" {
		rm.Status = RequestStatusDraft
	}
	return nil
}

// IsTerminal 判断申请是否处于终态
// approved 和 rejected 不可再转换,returned 可以重新提交
func (rm *RequestModel) IsTerminal() bool {
	return rm.Status == RequestStatusApproved || rm.Status == RequestStatusRejected
}

// IsDeletable 判断申请是否允许删除
// 只有 draft/returned/rejected 状态允许申请人或管理员删除
func (rm *RequestModel) IsDeletable() bool {
	switch rm.Status {
	case RequestStatusDraft, RequestStatusReturned, RequestStatusRejected:
		return true
	}
	return false
}
