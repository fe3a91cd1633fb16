package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MontyPithon/bancroff/internal/metrics"
	"github.com/MontyPithon/bancroff/internal/model"
	"github.com/MontyPithon/bancroff/internal/repository"
	"github.com/MontyPithon/bancroff/internal/utils"
	"github.com/MontyPithon/bancroff/internal/workflow"
	"github.com/xeipuuv/gojsonschema"
	"gorm.io/gorm"
)

// RequestService 申请服务接口
type RequestService interface {
	Create(ctx context.Context, actor workflow.Actor, req *CreateRequestRequest) (*model.RequestModel, error)
	Get(id uint) (*model.RequestModel, error)
	ListMine(actor workflow.Actor) ([]*model.RequestModel, error)
	Resubmit(ctx context.Context, actor workflow.Actor, id uint) error
	Delete(ctx context.Context, actor workflow.Actor, id uint) error
}

// CreateRequestRequest 创建申请的请求参数
type CreateRequestRequest struct {
	TypeName string          `json:"type" binding:"required"`  // 申请类型名称,如 RCL
	Title    string          `json:"title" binding:"required"` // 申请标题
	FormData json.RawMessage `json:"form_data"`                // 表单数据
}

// requestService 申请服务实现
type requestService struct {
	db          *gorm.DB
	engine      *workflow.Engine
	requestRepo repository.RequestRepository
	typeRepo    repository.RequestTypeRepository
	auditLogSvc AuditLogService
}

// NewRequestService 创建申请服务
func NewRequestService(db *gorm.DB, engine *workflow.Engine, auditLogSvc AuditLogService) RequestService {
	return &requestService{
		db:          db,
		engine:      engine,
		requestRepo: repository.NewRequestRepository(db),
		typeRepo:    repository.NewRequestTypeRepository(db),
		auditLogSvc: auditLogSvc,
	}
}

// Create 创建申请并实例化审批流程
// 表单数据先按申请类型的 JSON Schema 校验,然后申请创建与
// 账本实例化在同一个事务里完成:要么全部成功,要么回到提交前
func (s *requestService) Create(ctx context.Context, actor workflow.Actor, req *CreateRequestRequest) (*model.RequestModel, error) {
	requestType, err := s.typeRepo.FindByName(req.TypeName)
	if err != nil {
		return nil, &workflow.ConfigurationError{
			Reason: fmt.Sprintf("request type %q not found", req.TypeName),
		}
	}

	if err := validateFormData(requestType, req.FormData); err != nil {
		return nil, err
	}

	title, err := utils.TrimAndValidate(req.Title, 255)
	if err != nil {
		return nil, err
	}

	request := &model.RequestModel{
		TypeID:      requestType.ID,
		RequesterID: actor.UserID,
		Title:       title,
		FormData:    req.FormData,
		Status:      model.RequestStatusDraft,
	}
	if err := request.Validate(); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(request).Error; err != nil {
			return err
		}
		txEngine := workflow.NewEngine(tx, nil)
		return txEngine.Instantiate(ctx, request.ID)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordRequestCreated(requestType.Name)

	if s.auditLogSvc != nil {
		details := map[string]interface{}{"type": requestType.Name, "title": request.Title}
		_ = s.auditLogSvc.RecordAction(ctx, actor.UserID, "create", "request", fmt.Sprintf("%d", request.ID), details)
	}

	return s.requestRepo.FindByID(request.ID)
}

// Get 获取申请详情
func (s *requestService) Get(id uint) (*model.RequestModel, error) {
	return s.requestRepo.FindByID(id)
}

// ListMine 列出申请人自己的申请
func (s *requestService) ListMine(actor workflow.Actor) ([]*model.RequestModel, error) {
	return s.requestRepo.FindByRequester(actor.UserID)
}

// Resubmit 重新提交被退回的申请
func (s *requestService) Resubmit(ctx context.Context, actor workflow.Actor, id uint) error {
	if err := s.engine.Resubmit(ctx, id, actor); err != nil {
		return err
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.UserID, "resubmit", "request", fmt.Sprintf("%d", id), nil)
	}
	return nil
}

// Delete 删除申请
// 只有 draft/returned/rejected 状态的申请允许申请人或管理员删除,
// 账本随申请级联删除
func (s *requestService) Delete(ctx context.Context, actor workflow.Actor, id uint) error {
	request, err := s.requestRepo.FindByID(id)
	if err != nil {
		return err
	}

	if request.RequesterID != actor.UserID && !actor.IsAdmin() {
		return &workflow.PermissionDeniedError{RequiredRole: "requester or admin"}
	}
	if !request.IsDeletable() {
		return &workflow.InvalidStateError{
			Reason: fmt.Sprintf("request %d is %q and cannot be deleted", request.ID, request.Status),
		}
	}

	if err := s.requestRepo.Delete(request); err != nil {
		return err
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.UserID, "delete", "request", fmt.Sprintf("%d", id), nil)
	}
	return nil
}

// validateFormData 按申请类型的 JSON Schema 校验表单数据
// 类型没有配置 schema 时跳过校验,表单内容由表单层负责解释
func validateFormData(requestType *model.RequestTypeModel, formData json.RawMessage) error {
	if len(requestType.FormSchema) == 0 || len(formData) == 0 {
		return nil
	}

	schemaLoader := gojsonschema.NewBytesLoader(requestType.FormSchema)
	documentLoader := gojsonschema.NewBytesLoader(formData)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate form data: %w", err)
	}
	if !result.Valid() {
		first := result.Errors()[0]
		return fmt.Errorf("form data does not match schema for %q: %s", requestType.Name, first.String())
	}
	return nil
}
