package model

import (
	"errors"
	"time"
)

// ApprovalWorkflowModel 审批流程数据模型
// 每个申请类型只有一个流程,流程持有有序的审批步骤
type ApprovalWorkflowModel struct {
	ID            uint                 `gorm:"primaryKey;autoIncrement"`
	RequestTypeID uint                 `gorm:"not null;index"`
	Name          string               `gorm:"type:varchar(255);not null"`
	Description   string               `gorm:"type:text"`
	Steps         []*ApprovalStepModel `gorm:"foreignKey:WorkflowID"`
	CreatedAt     time.Time            `gorm:"not null"`
}

// TableName 指定表名
func (ApprovalWorkflowModel) TableName() string {
	return "approval_workflows"
}

// Validate 验证审批流程模型
// 步骤必须从 1 开始连续递增,不允许重复或空洞
func (awm *ApprovalWorkflowModel) Validate() error {
	if awm.RequestTypeID == 0 {
		return errors.New("request type is required")
	}
	if awm.Name == "" {
		return errors.New("workflow name is required")
	}
	seen := make(map[int]bool, len(awm.Steps))
	for _, step := range awm.Steps {
		if err := step.Validate(); err != nil {
			return err
		}
		if seen[step.StepOrder] {
			return errors.New("duplicate step order in workflow")
		}
		seen[step.StepOrder] = true
	}
	for i := 1; i <= len(awm.Steps); i++ {
		if !seen[i] {
			return errors.New("step orders must start at 1 and increment without gaps")
		}
	}
	return nil
}

// ApprovalStepModel 审批步骤数据模型
// 每个步骤绑定唯一的审批角色,step_order 定义全序
type ApprovalStepModel struct {
	ID             uint       `gorm:"primaryKey;autoIncrement"`
	WorkflowID     uint       `gorm:"not null;index"`
	StepOrder      int        `gorm:"not null"`
	Name           string     `gorm:"type:varchar(255);not null"`
	ApproverRoleID uint       `gorm:"not null"`
	ApproverRole   *RoleModel `gorm:"foreignKey:ApproverRoleID"`
	CreatedAt      time.Time  `gorm:"not null"`
}

// TableName 指定表名
func (ApprovalStepModel) TableName() string {
	return "approval_steps"
}

// Validate 验证审批步骤模型
func (asm *ApprovalStepModel) Validate() error {
	if asm.StepOrder < 1 {
		return errors.New("step order must be at least 1")
	}
	if asm.Name == "" {
		return errors.New("step name is required")
	}
	if asm.ApproverRoleID == 0 {
		return errors.New("approver role is required")
	}
	return nil
}
