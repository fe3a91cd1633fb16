package workflow_test

import (
	"testing"

	"github.com/MontyPithon/bancroff/internal/model"
	"github.com/MontyPithon/bancroff/internal/workflow"
	"github.com/stretchr/testify/assert"
)

// TestCanAct 三条授权规则:admin 兜底、角色名相等、角色 ID 数值相等
func TestCanAct(t *testing.T) {
	advisorRole := &model.RoleModel{ID: 3, Name: "advisor"}
	step := &model.ApprovalStepModel{
		StepOrder:      1,
		Name:           "Academic Advisor Approval",
		ApproverRoleID: 3,
		ApproverRole:   advisorRole,
	}

	tests := []struct {
		name  string
		actor workflow.Actor
		want  bool
	}{
		{"admin 可以审批任何步骤", workflow.Actor{RoleID: 99, RoleName: "admin"}, true},
		{"角色名匹配", workflow.Actor{RoleID: 42, RoleName: "advisor"}, true},
		{"角色 ID 匹配（历史数据兼容）", workflow.Actor{RoleID: 3, RoleName: "something_else"}, true},
		{"普通用户被拒绝", workflow.Actor{RoleID: 2, RoleName: "basic_user"}, false},
		{"其他审批角色被拒绝", workflow.Actor{RoleID: 4, RoleName: "chair"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, workflow.CanAct(tt.actor, step))
		})
	}
}

// TestCanAct_NilStep 缺失步骤时任何人都不能决策
func TestCanAct_NilStep(t *testing.T) {
	assert.False(t, workflow.CanAct(workflow.Actor{RoleName: "admin"}, nil))
}

// TestCanAct_NilApproverRole 角色关联缺失时退化为角色 ID 比较
func TestCanAct_NilApproverRole(t *testing.T) {
	step := &model.ApprovalStepModel{StepOrder: 1, ApproverRoleID: 5}

	assert.True(t, workflow.CanAct(workflow.Actor{RoleID: 5, RoleName: "advisor"}, step))
	assert.False(t, workflow.CanAct(workflow.Actor{RoleID: 6, RoleName: "advisor"}, step))
}

// TestActorFromUser 用户模型到授权上下文的转换
func TestActorFromUser(t *testing.T) {
	user := &model.UserModel{
		ID:       7,
		Email:    "advisor@university.edu",
		FullName: "A. Visor",
		RoleID:   3,
		Role:     &model.RoleModel{ID: 3, Name: "advisor"},
	}

	actor := workflow.ActorFromUser(user)
	assert.Equal(t, uint(7), actor.UserID)
	assert.Equal(t, "advisor", actor.RoleName)
	assert.False(t, actor.IsAdmin())

	// 角色未预加载时 RoleName 为空,但 RoleID 仍可用于兼容比较
	bare := workflow.ActorFromUser(&model.UserModel{ID: 8, RoleID: 3})
	assert.Equal(t, "", bare.RoleName)
	assert.Equal(t, uint(3), bare.RoleID)
}
