package workflow_test

import (
	"testing"

	"github.com/MontyPithon/bancroff/internal/model"
	"github.com/MontyPithon/bancroff/internal/workflow"
	"github.com/stretchr/testify/assert"
)

// entriesWith 按给定状态构造账本条目
func entriesWith(statuses ...string) []*model.RequestApprovalModel {
	entries := make([]*model.RequestApprovalModel, 0, len(statuses))
	for i, status := range statuses {
		entries = append(entries, &model.RequestApprovalModel{
			ID:     uint(i + 1),
			Status: status,
		})
	}
	return entries
}

// TestComputeAggregate 聚合状态是账本快照的纯函数
func TestComputeAggregate(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     string
	}{
		{"空账本视为 draft", nil, model.RequestStatusDraft},
		{"全部 pending", []string{"pending", "pending", "pending"}, model.RequestStatusSubmitted},
		{"部分批准", []string{"approved", "pending", "pending"}, model.RequestStatusSubmitted},
		{"全部批准", []string{"approved", "approved", "approved"}, model.RequestStatusApproved},
		{"任一拒绝", []string{"approved", "rejected", "pending"}, model.RequestStatusRejected},
		{"任一退回", []string{"approved", "returned", "pending"}, model.RequestStatusReturned},
		{"拒绝优先于退回", []string{"returned", "rejected", "pending"}, model.RequestStatusRejected},
		{"单步链批准", []string{"approved"}, model.RequestStatusApproved},
		{"单步链拒绝", []string{"rejected"}, model.RequestStatusRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := workflow.ComputeAggregate(entriesWith(tt.statuses...))
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestComputeAggregate_OrderIndependent 聚合结果与条目顺序无关
func TestComputeAggregate_OrderIndependent(t *testing.T) {
	forward := entriesWith("approved", "rejected", "pending")
	backward := entriesWith("pending", "rejected", "approved")

	assert.Equal(t, workflow.ComputeAggregate(forward), workflow.ComputeAggregate(backward))
}

// TestCurrentEntry 当前条目是第一条 pending,没有 pending 时取最后一步
func TestCurrentEntry(t *testing.T) {
	entries := entriesWith("approved", "pending", "pending")
	current := workflow.CurrentEntry(entries)
	assert.Equal(t, uint(2), current.ID)

	done := entriesWith("approved", "approved", "approved")
	assert.Equal(t, uint(3), workflow.CurrentEntry(done).ID)

	assert.Nil(t, workflow.CurrentEntry(nil))
}
