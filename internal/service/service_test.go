package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/MontyPithon/bancroff/internal/database"
	"github.com/MontyPithon/bancroff/internal/model"
	"github.com/MontyPithon/bancroff/internal/repository"
	"github.com/MontyPithon/bancroff/internal/service"
	"github.com/MontyPithon/bancroff/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// rclSchema 测试用的表单 JSON Schema
const rclSchema = `{
	"type": "object",
	"properties": {
		"remaining_hours": {"type": "integer", "minimum": 1, "maximum": 9},
		"ps_id": {"type": "string"}
	},
	"required": ["ps_id"]
}`

// serviceFixture 服务层测试夹具
type serviceFixture struct {
	db              *gorm.DB
	engine          *workflow.Engine
	requestService  service.RequestService
	approvalService service.ApprovalService
	queryService    service.QueryService
	userService     service.UserService
	users           map[string]*model.UserModel
}

// setupServices 创建内存数据库并装配全部服务
func setupServices(t *testing.T) *serviceFixture {
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
	student := &model.UserModel{
		Email:    "student@university.edu",
		FullName: "Student",
		Status:   model.UserStatusActive,
		RoleID:   roles["basic_user"].ID,
		Role:     roles["basic_user"],
	}
	require.NoError(t, db.Create(student).Error)
	users["student"] = student

	requestType := &model.RequestTypeModel{
		Name:       "RCL",
		FormSchema: []byte(rclSchema),
	}
	require.NoError(t, db.Create(requestType).Error)

	wf := &model.ApprovalWorkflowModel{RequestTypeID: requestType.ID, Name: "RCL Approval"}
	require.NoError(t, db.Create(wf).Error)
	for i, roleName := range []string{"advisor", "chair", "dean"} {
		step := &model.ApprovalStepModel{
			WorkflowID:     wf.ID,
			StepOrder:      i + 1,
			Name:           roleName + " approval",
			ApproverRoleID: roles[roleName].ID,
		}
		require.NoError(t, db.Create(step).Error)
	}

	engine := workflow.NewEngine(db, nil)
	auditLogSvc := service.NewAuditLogService(repository.NewAuditLogRepository(db))

	return &serviceFixture{
		db:              db,
		engine:          engine,
		requestService:  service.NewRequestService(db, engine, auditLogSvc),
		approvalService: service.NewApprovalService(db, engine, nil, auditLogSvc, nil, nil),
		queryService:    service.NewQueryService(db),
		userService:     service.NewUserService(db, auditLogSvc),
		users:           users,
	}
}

func (f *serviceFixture) actor(name string) workflow.Actor {
	return workflow.ActorFromUser(f.users[name])
}

// createRequest 通过服务创建一条合法申请
func (f *serviceFixture) createRequest(t *testing.T) *model.RequestModel {
	request, err := f.requestService.Create(context.Background(), f.actor("student"), &service.CreateRequestRequest{
		TypeName: "RCL",
		Title:    "Fall RCL request",
		FormData: json.RawMessage(`{"ps_id": "1234567", "remaining_hours": 6}`),
	})
	require.NoError(t, err)
	return request
}

// TestRequestService_Create 创建即提交:表单校验、账本实例化、状态 submitted
func TestRequestService_Create(t *testing.T) {
	f := setupServices(t)

	request := f.createRequest(t)
	assert.Equal(t, model.RequestStatusSubmitted, request.Status)

	entries, err := f.engine.Ledger(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	// 审计日志也应有记录
	var count int64
	require.NoError(t, f.db.Model(&model.AuditLogModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

// TestRequestService_Create_UnknownType 未知申请类型是配置错误
func TestRequestService_Create_UnknownType(t *testing.T) {
	f := setupServices(t)

	_, err := f.requestService.Create(context.Background(), f.actor("student"), &service.CreateRequestRequest{
		TypeName: "Sabbatical",
		Title:    "unknown type",
	})
	assert.True(t, workflow.IsConfigurationError(err))
}

// TestRequestService_Create_SchemaViolation 表单数据不符合 schema 时拒绝创建
func TestRequestService_Create_SchemaViolation(t *testing.T) {
	f := setupServices(t)

	tests := []struct {
		name     string
		formData string
	}{
		{"缺少必填字段", `{"remaining_hours": 6}`},
		{"字段类型错误", `{"ps_id": "1234567", "remaining_hours": "six"}`},
		{"超出取值范围", `{"ps_id": "1234567", "remaining_hours": 12}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.requestService.Create(context.Background(), f.actor("student"), &service.CreateRequestRequest{
				TypeName: "RCL",
				Title:    "bad form",
				FormData: json.RawMessage(tt.formData),
			})
			assert.Error(t, err)
		})
	}

	// 校验失败时不应留下半成品申请
	var count int64
	require.NoError(t, f.db.Model(&model.RequestModel{}).Count(&count).Error)
	assert.Zero(t, count)
}

// TestApprovalService_Decide_RendersDocument 批准后渲染文档并保存路径
func TestApprovalService_Decide_RendersDocument(t *testing.T) {
	f := setupServices(t)
	request := f.createRequest(t)

	entries, err := f.engine.Ledger(context.Background(), request.ID)
	require.NoError(t, err)

	decision, err := f.approvalService.Decide(context.Background(), f.actor("advisor"), entries[0].ID,
		&service.DecideRequest{Action: "approve", Comments: "looks good"})
	require.NoError(t, err)
	assert.NotEmpty(t, decision.Entry.PDFPath)
	assert.Equal(t, "looks good", decision.Entry.Comments)

	// 全部批准后申请上记录最终文档路径
	entries, err = f.engine.Ledger(context.Background(), request.ID)
	require.NoError(t, err)
	_, err = f.approvalService.Decide(context.Background(), f.actor("chair"), entries[1].ID,
		&service.DecideRequest{Action: "approve"})
	require.NoError(t, err)
	final, err := f.approvalService.Decide(context.Background(), f.actor("dean"), entries[2].ID,
		&service.DecideRequest{Action: "approve"})
	require.NoError(t, err)
	assert.True(t, final.FullyApproved)

	var saved model.RequestModel
	require.NoError(t, f.db.First(&saved, request.ID).Error)
	assert.Equal(t, model.RequestStatusApproved, saved.Status)
	assert.NotEmpty(t, saved.FinalDocumentPath)
}

// TestApprovalService_CanAct 判定不改变任何状态
func TestApprovalService_CanAct(t *testing.T) {
	f := setupServices(t)
	request := f.createRequest(t)

	entries, err := f.engine.Ledger(context.Background(), request.ID)
	require.NoError(t, err)

	can, err := f.approvalService.CanAct(f.actor("advisor"), entries[0].ID)
	require.NoError(t, err)
	assert.True(t, can)

	can, err = f.approvalService.CanAct(f.actor("student"), entries[0].ID)
	require.NoError(t, err)
	assert.False(t, can)
}

// TestRequestService_ResubmitFlow 退回后由服务层重新提交
func TestRequestService_ResubmitFlow(t *testing.T) {
	f := setupServices(t)
	request := f.createRequest(t)

	entries, err := f.engine.Ledger(context.Background(), request.ID)
	require.NoError(t, err)
	_, err = f.approvalService.Decide(context.Background(), f.actor("advisor"), entries[0].ID,
		&service.DecideRequest{Action: "return", Comments: "please fix hours"})
	require.NoError(t, err)

	err = f.requestService.Resubmit(context.Background(), f.actor("student"), request.ID)
	require.NoError(t, err)

	var saved model.RequestModel
	require.NoError(t, f.db.First(&saved, request.ID).Error)
	assert.Equal(t, model.RequestStatusSubmitted, saved.Status)
}

// TestRequestService_Delete 审批中的申请不可删除,被拒绝的可以
func TestRequestService_Delete(t *testing.T) {
	f := setupServices(t)
	request := f.createRequest(t)

	err := f.requestService.Delete(context.Background(), f.actor("student"), request.ID)
	assert.True(t, workflow.IsInvalidState(err))

	entries, err := f.engine.Ledger(context.Background(), request.ID)
	require.NoError(t, err)
	_, err = f.approvalService.Decide(context.Background(), f.actor("advisor"), entries[0].ID,
		&service.DecideRequest{Action: "reject"})
	require.NoError(t, err)

	// 非申请人也非管理员不能删除
	err = f.requestService.Delete(context.Background(), f.actor("chair"), request.ID)
	assert.True(t, workflow.IsPermissionDenied(err))

	err = f.requestService.Delete(context.Background(), f.actor("student"), request.ID)
	require.NoError(t, err)

	// 账本随申请级联删除
	var count int64
	require.NoError(t, f.db.Model(&model.RequestApprovalModel{}).Where("request_id = ?", request.ID).Count(&count).Error)
	assert.Zero(t, count)
}

// TestQueryService_PendingApprovals 工作台标记当前用户能否动作
func TestQueryService_PendingApprovals(t *testing.T) {
	f := setupServices(t)
	f.createRequest(t)

	pending, err := f.queryService.PendingApprovals(f.actor("advisor"))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.True(t, pending[0].CanAct)
	assert.Equal(t, "advisor approval", pending[0].Step)
	assert.Len(t, pending[0].Chain, 3)

	pending, err = f.queryService.PendingApprovals(f.actor("dean"))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.False(t, pending[0].CanAct)
}

// TestQueryService_RequestHistory 历史视图带文档引用
func TestQueryService_RequestHistory(t *testing.T) {
	f := setupServices(t)
	request := f.createRequest(t)

	entries, err := f.engine.Ledger(context.Background(), request.ID)
	require.NoError(t, err)
	_, err = f.approvalService.Decide(context.Background(), f.actor("advisor"), entries[0].ID,
		&service.DecideRequest{Action: "approve"})
	require.NoError(t, err)

	history, err := f.queryService.RequestHistory(request.ID)
	require.NoError(t, err)
	assert.Equal(t, request.ID, history.Request.ID)
	assert.Len(t, history.Chain, 3)
	assert.True(t, history.HasPDFs)
	assert.Equal(t, "approved", history.Chain[0].Status)
	assert.Equal(t, "advisor", history.Chain[0].Approver)

	// 提交本身作为 draft -> submitted 的迁移出现在变更历史中
	require.NotEmpty(t, history.Transitions)
	assert.Equal(t, model.RequestStatusDraft, history.Transitions[0].From)
	assert.Equal(t, model.RequestStatusSubmitted, history.Transitions[0].To)
}

// TestUserService_Lifecycle 创建、停用、重新启用
func TestUserService_Lifecycle(t *testing.T) {
	f := setupServices(t)

	user, err := f.userService.Create(context.Background(), &service.CreateUserRequest{
		Email:    "New.Student@University.EDU",
		FullName: "New Student",
		Role:     "basic_user",
	})
	require.NoError(t, err)
	// 邮箱统一小写存储
	assert.Equal(t, "new.student@university.edu", user.Email)
	assert.Equal(t, model.UserStatusActive, user.Status)

	require.NoError(t, f.userService.Deactivate(context.Background(), user.ID))
	saved, err := f.userService.Get(user.ID)
	require.NoError(t, err)
	assert.False(t, saved.IsActive())

	require.NoError(t, f.userService.Reactivate(context.Background(), user.ID))
	saved, err = f.userService.Get(user.ID)
	require.NoError(t, err)
	assert.True(t, saved.IsActive())
}

// TestUserService_Create_Invalid 非法邮箱和未知角色
func TestUserService_Create_Invalid(t *testing.T) {
	f := setupServices(t)

	_, err := f.userService.Create(context.Background(), &service.CreateUserRequest{
		Email:    "not-an-email",
		FullName: "x",
		Role:     "basic_user",
	})
	assert.Error(t, err)

	_, err = f.userService.Create(context.Background(), &service.CreateUserRequest{
		Email:    "ok@university.edu",
		FullName: "x",
		Role:     "provost",
	})
	assert.Error(t, err)
}

// TestStatisticsService 仪表盘统计:按状态、按类型、决策汇总
func TestStatisticsService(t *testing.T) {
	f := setupServices(t)
	stats := service.NewStatisticsService(f.db)

	first := f.createRequest(t)
	second := f.createRequest(t)

	entries, err := f.engine.Ledger(context.Background(), first.ID)
	require.NoError(t, err)
	_, err = f.approvalService.Decide(context.Background(), f.actor("advisor"), entries[0].ID,
		&service.DecideRequest{Action: "approve"})
	require.NoError(t, err)

	entries, err = f.engine.Ledger(context.Background(), second.ID)
	require.NoError(t, err)
	_, err = f.approvalService.Decide(context.Background(), f.actor("advisor"), entries[0].ID,
		&service.DecideRequest{Action: "reject", Comments: "incomplete"})
	require.NoError(t, err)

	byStatus, err := stats.RequestsByStatus()
	require.NoError(t, err)
	counts := map[string]int64{}
	for _, row := range byStatus {
		counts[row.Status] = row.Count
	}
	assert.Equal(t, int64(1), counts[model.RequestStatusSubmitted])
	assert.Equal(t, int64(1), counts[model.RequestStatusRejected])

	byType, err := stats.RequestsByType()
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, "RCL", byType[0].TypeName)
	assert.Equal(t, int64(2), byType[0].Count)

	decisions, err := stats.DecisionStatistics()
	require.NoError(t, err)
	assert.Equal(t, int64(2), decisions.TotalDecided)
	assert.Equal(t, int64(1), decisions.ApprovedCount)
	assert.Equal(t, int64(1), decisions.RejectedCount)
	assert.InDelta(t, 0.5, decisions.ApprovalRate, 0.001)
}
