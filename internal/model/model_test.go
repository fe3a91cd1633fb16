package model_test

import (
	"testing"

	"github.com/MontyPithon/bancroff/internal/model"
	"github.com/stretchr/testify/assert"
)

// TestApprovalWorkflowModel_Validate 步骤顺序必须从 1 开始连续递增
func TestApprovalWorkflowModel_Validate(t *testing.T) {
	step := func(order int) *model.ApprovalStepModel {
		return &model.ApprovalStepModel{StepOrder: order, Name: "step", ApproverRoleID: 1}
	}

	tests := []struct {
		name    string
		steps   []*model.ApprovalStepModel
		wantErr bool
	}{
		{"连续步骤合法", []*model.ApprovalStepModel{step(1), step(2), step(3)}, false},
		{"无步骤也合法,实例化时才报配置错误", nil, false},
		{"重复步骤序号", []*model.ApprovalStepModel{step(1), step(1)}, true},
		{"序号有空洞", []*model.ApprovalStepModel{step(1), step(3)}, true},
		{"不从 1 开始", []*model.ApprovalStepModel{step(2), step(3)}, true},
		{"序号为 0", []*model.ApprovalStepModel{step(0)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf := &model.ApprovalWorkflowModel{RequestTypeID: 1, Name: "RCL Approval", Steps: tt.steps}
			err := wf.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestApprovalStepModel_Validate 步骤必须绑定角色
func TestApprovalStepModel_Validate(t *testing.T) {
	step := &model.ApprovalStepModel{StepOrder: 1, Name: "Advisor"}
	assert.Error(t, step.Validate())

	step.ApproverRoleID = 3
	assert.NoError(t, step.Validate())
}

// TestRequestModel_IsTerminal approved 和 rejected 是终态,returned 不是
func TestRequestModel_IsTerminal(t *testing.T) {
	assert.True(t, (&model.RequestModel{Status: model.RequestStatusApproved}).IsTerminal())
	assert.True(t, (&model.RequestModel{Status: model.RequestStatusRejected}).IsTerminal())
	assert.False(t, (&model.RequestModel{Status: model.RequestStatusReturned}).IsTerminal())
	assert.False(t, (&model.RequestModel{Status: model.RequestStatusSubmitted}).IsTerminal())
	assert.False(t, (&model.RequestModel{Status: model.RequestStatusDraft}).IsTerminal())
}

// TestRequestModel_IsDeletable 审批中和已批准的申请不可删除
func TestRequestModel_IsDeletable(t *testing.T) {
	assert.True(t, (&model.RequestModel{Status: model.RequestStatusDraft}).IsDeletable())
	assert.True(t, (&model.RequestModel{Status: model.RequestStatusReturned}).IsDeletable())
	assert.True(t, (&model.RequestModel{Status: model.RequestStatusRejected}).IsDeletable())
	assert.False(t, (&model.RequestModel{Status: model.RequestStatusSubmitted}).IsDeletable())
	assert.False(t, (&model.RequestModel{Status: model.RequestStatusApproved}).IsDeletable())
}

// TestRequestModel_Validate 默认状态为 draft
func TestRequestModel_Validate(t *testing.T) {
	request := &model.RequestModel{TypeID: 1, RequesterID: 1, Title: "RCL"}
	assert.NoError(t, request.Validate())
	assert.Equal(t, model.RequestStatusDraft, request.Status)

	assert.Error(t, (&model.RequestModel{RequesterID: 1, Title: "x"}).Validate())
	assert.Error(t, (&model.RequestModel{TypeID: 1, Title: "x"}).Validate())
	assert.Error(t, (&model.RequestModel{TypeID: 1, RequesterID: 1}).Validate())
}

// TestUserModel_IsActive 停用用户不算活跃
func TestUserModel_IsActive(t *testing.T) {
	assert.True(t, (&model.UserModel{Status: model.UserStatusActive}).IsActive())
	assert.False(t, (&model.UserModel{Status: model.UserStatusDeactivated}).IsActive())
}
