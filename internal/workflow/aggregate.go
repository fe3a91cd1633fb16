package workflow

import "github.com/MontyPithon/bancroff/internal/model"

// ComputeAggregate 从完整的账本快照推导申请聚合状态
// 纯函数,不依赖条目顺序和任何增量计数器,重复计算结果相同:
// 任一条目 rejected 则整体 rejected;任一条目 returned 则整体 returned;
// 仍有 pending 则停留在 submitted;全部 approved 才是 approved。
func ComputeAggregate(entries []*model.RequestApprovalModel) string {
	if len(entries) == 0 {
		return model.RequestStatusDraft
	}

	hasPending := false
	for _, entry := range entries {
		switch entry.Status {
		case model.ApprovalStatusRejected:
			return model.RequestStatusRejected
		case model.ApprovalStatusReturned:
			return model.RequestStatusReturned
		case model.ApprovalStatusPending:
			hasPending = true
		}
	}

	if hasPending {
		return model.RequestStatusSubmitted
	}
	return model.RequestStatusApproved
}

// CurrentEntry 返回"当前步骤"对应的账本条目
// 当前步骤定义为 step_order 最小的 pending 条目;没有 pending 时
// 返回 step_order 最大的条目,用于终态申请展示最后已知步骤。
// entries 必须已按 step_order 升序排列。
func CurrentEntry(entries []*model.RequestApprovalModel) *model.RequestApprovalModel {
	if len(entries) == 0 {
		return nil
	}
	for _, entry := range entries {
		if entry.IsPending() {
			return entry
		}
	}
	return entries[len(entries)-1]
}
