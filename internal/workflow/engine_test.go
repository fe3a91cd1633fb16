package workflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/MontyPithon/bancroff/internal/database"
	"github.com/MontyPithon/bancroff/internal/model"
	"github.com/MontyPithon/bancroff/internal/repository"
	"github.com/MontyPithon/bancroff/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// engineFixture 引擎测试夹具
// 包含三步审批链（advisor -> chair -> dean）和各角色的用户
type engineFixture struct {
	db          *gorm.DB
	engine      *workflow.Engine
	requestType *model.RequestTypeModel
	steps       []*model.ApprovalStepModel
	users       map[string]*model.UserModel
}

// setupEngine 创建内存数据库并播种一条完整的审批链
func setupEngine(t *testing.T) *engineFixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	roles := map[string]*model.RoleModel{}
	for _, name := range []string{"admin", "basic_user", "advisor", "chair", "dean"} {
		role := &model.RoleModel{Name: name}
		require.NoError(t, db.Create(role).Error)
		roles[name] = role
	}

	users := map[string]*model.UserModel{}
	for name, role := range roles {
		user := &model.UserModel{
			Email:    name + "@university.edu",
			FullName: name,
			Status:   model.UserStatusActive,
			RoleID:   role.ID,
			Role:     role,
		}
		require.NoError(t, db.Create(user).Error)
		users[name] = user
	}
	// 申请人是普通学生
	student := &model.UserModel{
		Email:    "student@university.edu",
		FullName: "Student",
		Status:   model.UserStatusActive,
		RoleID:   roles["basic_user"].ID,
		Role:     roles["basic_user"],
	}
	require.NoError(t, db.Create(student).Error)
	users["student"] = student

	requestType := &model.RequestTypeModel{Name: "RCL", Description: "Reduced Course Load"}
	require.NoError(t, db.Create(requestType).Error)

	wf := &model.ApprovalWorkflowModel{RequestTypeID: requestType.ID, Name: "RCL Approval"}
	require.NoError(t, db.Create(wf).Error)

	steps := []*model.ApprovalStepModel{
		{WorkflowID: wf.ID, StepOrder: 1, Name: "Academic Advisor Approval", ApproverRoleID: roles["advisor"].ID},
		{WorkflowID: wf.ID, StepOrder: 2, Name: "Department Chair Approval", ApproverRoleID: roles["chair"].ID},
		{WorkflowID: wf.ID, StepOrder: 3, Name: "College Dean Approval", ApproverRoleID: roles["dean"].ID},
	}
	for _, step := range steps {
		require.NoError(t, db.Create(step).Error)
	}

	return &engineFixture{
		db:          db,
		engine:      workflow.NewEngine(db, nil),
		requestType: requestType,
		steps:       steps,
		users:       users,
	}
}

// actor 按用户名构造授权上下文
func (f *engineFixture) actor(name string) workflow.Actor {
	return workflow.ActorFromUser(f.users[name])
}

// newDraftRequest 创建一条 draft 申请
func (f *engineFixture) newDraftRequest(t *testing.T) *model.RequestModel {
	request := &model.RequestModel{
		TypeID:      f.requestType.ID,
		RequesterID: f.users["student"].ID,
		Title:       "Fall RCL request",
		Status:      model.RequestStatusDraft,
	}
	require.NoError(t, f.db.Create(request).Error)
	return request
}

// submittedRequest 创建并实例化一条申请
func (f *engineFixture) submittedRequest(t *testing.T) *model.RequestModel {
	request := f.newDraftRequest(t)
	require.NoError(t, f.engine.Instantiate(context.Background(), request.ID))
	require.NoError(t, f.db.First(request, request.ID).Error)
	return request
}

// decide 对某一步的账本条目做决策
func (f *engineFixture) decide(t *testing.T, requestID uint, stepOrder int, actorName string, action workflow.Action) (*workflow.Decision, error) {
	t.Helper()
	entries, err := f.engine.Ledger(context.Background(), requestID)
	require.NoError(t, err)
	for _, entry := range entries {
		if entry.Step.StepOrder == stepOrder {
			return f.engine.Decide(context.Background(), entry.ID, f.actor(actorName), action, "")
		}
	}
	t.Fatalf("no ledger entry with step order %d", stepOrder)
	return nil, nil
}

// TestEngine_Instantiate 实例化为每个步骤建一条 pending 条目并置为 submitted
func TestEngine_Instantiate(t *testing.T) {
	f := setupEngine(t)
	request := f.newDraftRequest(t)

	err := f.engine.Instantiate(context.Background(), request.ID)
	assert.NoError(t, err)

	var saved model.RequestModel
	require.NoError(t, f.db.First(&saved, request.ID).Error)
	assert.Equal(t, model.RequestStatusSubmitted, saved.Status)

	entries, err := f.engine.Ledger(context.Background(), request.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, entry := range entries {
		assert.Equal(t, model.ApprovalStatusPending, entry.Status)
		assert.Equal(t, i+1, entry.Step.StepOrder)
		assert.Nil(t, entry.ApproverID)
		assert.Nil(t, entry.DecidedAt)
	}
}

// TestEngine_Instantiate_NoWorkflow 缺少流程配置时返回配置错误,申请保持 draft
func TestEngine_Instantiate_NoWorkflow(t *testing.T) {
	f := setupEngine(t)

	orphanType := &model.RequestTypeModel{Name: "Orphan"}
	require.NoError(t, f.db.Create(orphanType).Error)
	request := &model.RequestModel{
		TypeID:      orphanType.ID,
		RequesterID: f.users["student"].ID,
		Title:       "no workflow",
		Status:      model.RequestStatusDraft,
	}
	require.NoError(t, f.db.Create(request).Error)

	err := f.engine.Instantiate(context.Background(), request.ID)
	assert.True(t, workflow.IsConfigurationError(err))

	var saved model.RequestModel
	require.NoError(t, f.db.First(&saved, request.ID).Error)
	assert.Equal(t, model.RequestStatusDraft, saved.Status)

	var count int64
	require.NoError(t, f.db.Model(&model.RequestApprovalModel{}).Where("request_id = ?", request.ID).Count(&count).Error)
	assert.Zero(t, count)
}

// TestEngine_Instantiate_NotDraft 已提交的申请不能再次实例化
func TestEngine_Instantiate_NotDraft(t *testing.T) {
	f := setupEngine(t)
	request := f.submittedRequest(t)

	err := f.engine.Instantiate(context.Background(), request.ID)
	assert.True(t, workflow.IsInvalidState(err))
}

// TestEngine_Decide_Approve 单步批准后申请保持 submitted,当前步骤推进
func TestEngine_Decide_Approve(t *testing.T) {
	f := setupEngine(t)
	request := f.submittedRequest(t)

	decision, err := f.decide(t, request.ID, 1, "advisor", workflow.ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalStatusApproved, decision.Entry.Status)
	assert.Equal(t, model.RequestStatusSubmitted, decision.Aggregate)
	assert.False(t, decision.FullyApproved)
	assert.NotNil(t, decision.Entry.DecidedAt)
	require.NotNil(t, decision.Entry.ApproverID)
	assert.Equal(t, f.users["advisor"].ID, *decision.Entry.ApproverID)

	current, err := f.engine.CurrentStep(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, current.Step.StepOrder)
}

// TestEngine_Decide_FullApproval 全部步骤批准后申请进入 approved 终态
func TestEngine_Decide_FullApproval(t *testing.T) {
	f := setupEngine(t)
	request := f.submittedRequest(t)

	_, err := f.decide(t, request.ID, 1, "advisor", workflow.ActionApprove)
	require.NoError(t, err)
	_, err = f.decide(t, request.ID, 2, "chair", workflow.ActionApprove)
	require.NoError(t, err)
	decision, err := f.decide(t, request.ID, 3, "dean", workflow.ActionApprove)
	require.NoError(t, err)

	assert.Equal(t, model.RequestStatusApproved, decision.Aggregate)
	assert.True(t, decision.FullyApproved)
}

// TestEngine_Decide_RejectShortCircuits 任一步拒绝即整体拒绝,后续步骤冻结
func TestEngine_Decide_RejectShortCircuits(t *testing.T) {
	f := setupEngine(t)
	request := f.submittedRequest(t)

	_, err := f.decide(t, request.ID, 1, "advisor", workflow.ActionApprove)
	require.NoError(t, err)
	decision, err := f.decide(t, request.ID, 2, "chair", workflow.ActionReject)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusRejected, decision.Aggregate)

	// 第三步条目仍是 pending,但申请已终态,不接受任何决策
	_, err = f.decide(t, request.ID, 3, "dean", workflow.ActionApprove)
	assert.True(t, workflow.IsInvalidState(err))

	entries, err := f.engine.Ledger(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalStatusPending, entries[2].Status)
}

// TestEngine_Decide_PermissionDenied 角色不匹配时拒绝并报出所需角色
func TestEngine_Decide_PermissionDenied(t *testing.T) {
	f := setupEngine(t)
	request := f.submittedRequest(t)

	_, err := f.decide(t, request.ID, 1, "chair", workflow.ActionApprove)
	require.Error(t, err)
	var permErr *workflow.PermissionDeniedError
	require.True(t, errors.As(err, &permErr))
	assert.Equal(t, "advisor", permErr.RequiredRole)

	_, err = f.decide(t, request.ID, 1, "student", workflow.ActionApprove)
	assert.True(t, workflow.IsPermissionDenied(err))

	// 被拒绝的尝试不应改动账本
	entries, err := f.engine.Ledger(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalStatusPending, entries[0].Status)
}

// TestEngine_Decide_AdminOverride admin 可以决策任何步骤
func TestEngine_Decide_AdminOverride(t *testing.T) {
	f := setupEngine(t)
	request := f.submittedRequest(t)

	decision, err := f.decide(t, request.ID, 1, "admin", workflow.ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalStatusApproved, decision.Entry.Status)
}

// TestEngine_Decide_LegacyRoleIDMatch 角色名不匹配但角色 ID 相等时仍可决策
// 兼容历史种子数据中角色 ID 错位的情况
func TestEngine_Decide_LegacyRoleIDMatch(t *testing.T) {
	f := setupEngine(t)
	request := f.submittedRequest(t)

	entries, err := f.engine.Ledger(context.Background(), request.ID)
	require.NoError(t, err)

	legacy := workflow.Actor{
		UserID:   f.users["advisor"].ID,
		Email:    "legacy@university.edu",
		RoleID:   entries[0].Step.ApproverRoleID,
		RoleName: "mislabeled_role",
	}
	decision, err := f.engine.Decide(context.Background(), entries[0].ID, legacy, workflow.ActionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalStatusApproved, decision.Entry.Status)
}

// TestEngine_Decide_AlreadyProcessed 同一条目不能二次决策
func TestEngine_Decide_AlreadyProcessed(t *testing.T) {
	f := setupEngine(t)
	request := f.submittedRequest(t)

	_, err := f.decide(t, request.ID, 1, "advisor", workflow.ActionApprove)
	require.NoError(t, err)
	_, err = f.decide(t, request.ID, 1, "advisor", workflow.ActionApprove)
	assert.True(t, workflow.IsInvalidState(err))
}

// TestEngine_ReturnAndResubmit 退回后原申请人重新提交,被退回的条目重置为 pending
func TestEngine_ReturnAndResubmit(t *testing.T) {
	f := setupEngine(t)
	request := f.submittedRequest(t)

	_, err := f.decide(t, request.ID, 1, "advisor", workflow.ActionApprove)
	require.NoError(t, err)
	decision, err := f.decide(t, request.ID, 2, "chair", workflow.ActionReturn)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusReturned, decision.Aggregate)

	// 退回状态下其余 pending 条目也被冻结
	_, err = f.decide(t, request.ID, 3, "dean", workflow.ActionApprove)
	assert.True(t, workflow.IsInvalidState(err))

	// 只有申请人可以重新提交
	err = f.engine.Resubmit(context.Background(), request.ID, f.actor("advisor"))
	assert.True(t, workflow.IsPermissionDenied(err))

	err = f.engine.Resubmit(context.Background(), request.ID, f.actor("student"))
	require.NoError(t, err)

	entries, err := f.engine.Ledger(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalStatusApproved, entries[0].Status)
	assert.Equal(t, model.ApprovalStatusPending, entries[1].Status)
	assert.Nil(t, entries[1].ApproverID)
	assert.Nil(t, entries[1].DecidedAt)

	var saved model.RequestModel
	require.NoError(t, f.db.First(&saved, request.ID).Error)
	assert.Equal(t, model.RequestStatusSubmitted, saved.Status)

	// 同一步骤可以重新决策并走完整条链
	_, err = f.decide(t, request.ID, 2, "chair", workflow.ActionApprove)
	require.NoError(t, err)
	final, err := f.decide(t, request.ID, 3, "dean", workflow.ActionApprove)
	require.NoError(t, err)
	assert.True(t, final.FullyApproved)
}

// TestEngine_Resubmit_NotReturned 非 returned 状态的申请不能重新提交
func TestEngine_Resubmit_NotReturned(t *testing.T) {
	f := setupEngine(t)
	request := f.submittedRequest(t)

	err := f.engine.Resubmit(context.Background(), request.ID, f.actor("student"))
	assert.True(t, workflow.IsInvalidState(err))
}

// TestEngine_Resubmit_Approved 已批准的申请是终态,不能重新提交
func TestEngine_Resubmit_Approved(t *testing.T) {
	f := setupEngine(t)
	request := f.submittedRequest(t)

	_, err := f.decide(t, request.ID, 1, "advisor", workflow.ActionApprove)
	require.NoError(t, err)
	_, err = f.decide(t, request.ID, 2, "chair", workflow.ActionApprove)
	require.NoError(t, err)
	_, err = f.decide(t, request.ID, 3, "dean", workflow.ActionApprove)
	require.NoError(t, err)

	err = f.engine.Resubmit(context.Background(), request.ID, f.actor("student"))
	assert.True(t, workflow.IsInvalidState(err))
}

// TestEngine_StatusHistory 聚合状态的每次迁移都留下历史记录
// 不改变聚合状态的决策(中间步骤的批准)不产生记录
func TestEngine_StatusHistory(t *testing.T) {
	f := setupEngine(t)
	request := f.submittedRequest(t)

	_, err := f.decide(t, request.ID, 1, "advisor", workflow.ActionApprove)
	require.NoError(t, err)
	_, err = f.decide(t, request.ID, 2, "chair", workflow.ActionReturn)
	require.NoError(t, err)
	require.NoError(t, f.engine.Resubmit(context.Background(), request.ID, f.actor("student")))

	histories, err := repository.NewStatusHistoryRepository(f.db).FindByRequestID(request.ID)
	require.NoError(t, err)
	require.Len(t, histories, 3)

	assert.Equal(t, model.RequestStatusDraft, histories[0].FromStatus)
	assert.Equal(t, model.RequestStatusSubmitted, histories[0].ToStatus)
	assert.Equal(t, f.users["student"].ID, histories[0].ActorID)

	assert.Equal(t, model.RequestStatusSubmitted, histories[1].FromStatus)
	assert.Equal(t, model.RequestStatusReturned, histories[1].ToStatus)
	assert.Equal(t, f.users["chair"].ID, histories[1].ActorID)

	assert.Equal(t, model.RequestStatusReturned, histories[2].FromStatus)
	assert.Equal(t, model.RequestStatusSubmitted, histories[2].ToStatus)
	assert.Equal(t, f.users["student"].ID, histories[2].ActorID)
}

// TestEngine_Decide_NotFound 不存在的条目返回 ErrNotFound
func TestEngine_Decide_NotFound(t *testing.T) {
	f := setupEngine(t)

	_, err := f.engine.Decide(context.Background(), 9999, f.actor("admin"), workflow.ActionApprove, "")
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}

// TestEngine_Ledger_Order 账本按 step_order 升序返回
func TestEngine_Ledger_Order(t *testing.T) {
	f := setupEngine(t)
	request := f.submittedRequest(t)

	entries, err := f.engine.Ledger(context.Background(), request.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, entry := range entries {
		assert.Equal(t, i+1, entry.Step.StepOrder)
		require.NotNil(t, entry.Step.ApproverRole)
	}
	assert.Equal(t, "advisor", entries[0].Step.ApproverRole.Name)
	assert.Equal(t, "dean", entries[2].Step.ApproverRole.Name)
}
