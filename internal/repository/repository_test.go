package repository_test

import (
	"testing"

	"github.com/MontyPithon/bancroff/internal/database"
	"github.com/MontyPithon/bancroff/internal/model"
	"github.com/MontyPithon/bancroff/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupRepoDB 创建内存数据库并播种基础数据
func setupRepoDB(t *testing.T) (*gorm.DB, *model.UserModel, *model.RequestTypeModel) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	role := &model.RoleModel{Name: "basic_user"}
	require.NoError(t, db.Create(role).Error)

	user := &model.UserModel{
		Email:    "student@university.edu",
		FullName: "Student",
		Status:   model.UserStatusActive,
		RoleID:   role.ID,
	}
	require.NoError(t, db.Create(user).Error)

	requestType := &model.RequestTypeModel{Name: "RCL"}
	require.NoError(t, db.Create(requestType).Error)

	return db, user, requestType
}

// TestRequestRepository_FindByFilter 组合过滤条件
func TestRequestRepository_FindByFilter(t *testing.T) {
	db, user, requestType := setupRepoDB(t)
	repo := repository.NewRequestRepository(db)

	other := &model.UserModel{Email: "other@university.edu", FullName: "Other", Status: model.UserStatusActive, RoleID: user.RoleID}
	require.NoError(t, db.Create(other).Error)

	for _, seed := range []struct {
		requester uint
		status    string
	}{
		{user.ID, model.RequestStatusSubmitted},
		{user.ID, model.RequestStatusApproved},
		{other.ID, model.RequestStatusSubmitted},
	} {
		require.NoError(t, db.Create(&model.RequestModel{
			TypeID:      requestType.ID,
			RequesterID: seed.requester,
			Title:       "request",
			Status:      seed.status,
		}).Error)
	}

	submitted := model.RequestStatusSubmitted
	requests, err := repo.FindByFilter(&repository.RequestFilter{Status: &submitted})
	require.NoError(t, err)
	assert.Len(t, requests, 2)

	requests, err = repo.FindByFilter(&repository.RequestFilter{Status: &submitted, RequesterID: &user.ID})
	require.NoError(t, err)
	assert.Len(t, requests, 1)

	requests, err = repo.FindByFilter(nil)
	require.NoError(t, err)
	assert.Len(t, requests, 3)
}

// TestRequestRepository_DeleteCascades 删除申请级联删除账本
func TestRequestRepository_DeleteCascades(t *testing.T) {
	db, user, requestType := setupRepoDB(t)
	repo := repository.NewRequestRepository(db)

	wf := &model.ApprovalWorkflowModel{RequestTypeID: requestType.ID, Name: "RCL Approval"}
	require.NoError(t, db.Create(wf).Error)
	step := &model.ApprovalStepModel{WorkflowID: wf.ID, StepOrder: 1, Name: "advisor approval", ApproverRoleID: 1}
	require.NoError(t, db.Create(step).Error)

	request := &model.RequestModel{TypeID: requestType.ID, RequesterID: user.ID, Title: "r", Status: model.RequestStatusRejected}
	require.NoError(t, db.Create(request).Error)
	require.NoError(t, db.Create(&model.RequestApprovalModel{RequestID: request.ID, StepID: step.ID, Status: model.ApprovalStatusPending}).Error)

	require.NoError(t, repo.Delete(request))

	var count int64
	require.NoError(t, db.Model(&model.RequestApprovalModel{}).Where("request_id = ?", request.ID).Count(&count).Error)
	assert.Zero(t, count)
}

// TestUserRepository_FindByEmail 邮箱统一小写匹配
func TestUserRepository_FindByEmail(t *testing.T) {
	db, user, _ := setupRepoDB(t)
	repo := repository.NewUserRepository(db)

	found, err := repo.FindByEmail("Student@University.EDU")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = repo.FindByEmail("missing@university.edu")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

// TestWorkflowRepository_Save_ValidatesStepOrder 保存时校验步骤顺序
func TestWorkflowRepository_Save_ValidatesStepOrder(t *testing.T) {
	db, _, requestType := setupRepoDB(t)
	repo := repository.NewWorkflowRepository(db)

	wf := &model.ApprovalWorkflowModel{
		RequestTypeID: requestType.ID,
		Name:          "broken",
		Steps: []*model.ApprovalStepModel{
			{StepOrder: 1, Name: "a", ApproverRoleID: 1},
			{StepOrder: 3, Name: "b", ApproverRoleID: 1},
		},
	}
	assert.Error(t, repo.Save(wf))

	wf.Steps[1].StepOrder = 2
	assert.NoError(t, repo.Save(wf))

	found, err := repo.FindByRequestTypeID(requestType.ID)
	require.NoError(t, err)
	assert.Len(t, found.Steps, 2)
}

// TestRequestTypeRepository_FindByName 按名称查找申请类型
func TestRequestTypeRepository_FindByName(t *testing.T) {
	db, _, requestType := setupRepoDB(t)
	repo := repository.NewRequestTypeRepository(db)

	found, err := repo.FindByName("RCL")
	require.NoError(t, err)
	assert.Equal(t, requestType.ID, found.ID)

	_, err = repo.FindByName("Sabbatical")
	assert.Error(t, err)
}
