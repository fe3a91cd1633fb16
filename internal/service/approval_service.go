package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MontyPithon/bancroff/internal/document"
	"github.com/MontyPithon/bancroff/internal/metrics"
	"github.com/MontyPithon/bancroff/internal/model"
	"github.com/MontyPithon/bancroff/internal/repository"
	"github.com/MontyPithon/bancroff/internal/websocket"
	"github.com/MontyPithon/bancroff/internal/workflow"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ApprovalService 审批服务接口
type ApprovalService interface {
	Decide(ctx context.Context, actor workflow.Actor, approvalID uint, req *DecideRequest) (*workflow.Decision, error)
	CanAct(actor workflow.Actor, approvalID uint) (bool, error)
	CurrentStep(ctx context.Context, requestID uint) (*model.RequestApprovalModel, error)
	Ledger(ctx context.Context, requestID uint) ([]*model.RequestApprovalModel, error)
}

// DecideRequest 审批决策请求参数
type DecideRequest struct {
	Action   string `json:"action" binding:"required"` // approve/reject/return
	Comments string `json:"comments"`                  // 审批意见
}

// approvalService 审批服务实现
// 引擎负责状态机事务,服务负责决策之后的外围动作:
// 文档渲染、指标、审计日志和状态推送
type approvalService struct {
	db           *gorm.DB
	engine       *workflow.Engine
	renderer     document.Renderer
	approvalRepo repository.ApprovalRepository
	requestRepo  repository.RequestRepository
	auditLogSvc  AuditLogService
	hub          *websocket.Hub
	logger       *logrus.Logger
}

// NewApprovalService 创建审批服务
func NewApprovalService(
	db *gorm.DB,
	engine *workflow.Engine,
	renderer document.Renderer,
	auditLogSvc AuditLogService,
	hub *websocket.Hub,
	logger *logrus.Logger,
) ApprovalService {
	if logger == nil {
		logger = logrus.New()
	}
	if renderer == nil {
		renderer = document.NewNoopRenderer()
	}
	return &approvalService{
		db:           db,
		engine:       engine,
		renderer:     renderer,
		approvalRepo: repository.NewApprovalRepository(db),
		requestRepo:  repository.NewRequestRepository(db),
		auditLogSvc:  auditLogSvc,
		hub:          hub,
		logger:       logger,
	}
}

// Decide 对账本条目做出决策
func (s *approvalService) Decide(ctx context.Context, actor workflow.Actor, approvalID uint, req *DecideRequest) (*workflow.Decision, error) {
	action := workflow.Action(req.Action)

	decision, err := s.engine.Decide(ctx, approvalID, actor, action, req.Comments)
	if err != nil {
		return nil, err
	}

	metrics.RecordDecision(req.Action)

	if s.auditLogSvc != nil {
		details := map[string]interface{}{
			"approval_id": approvalID,
			"action":      req.Action,
			"aggregate":   decision.Aggregate,
		}
		_ = s.auditLogSvc.RecordAction(ctx, actor.UserID, req.Action, "request",
			fmt.Sprintf("%d", decision.Request.ID), details)
	}

	// 每次批准后渲染更新的签署文档
	// 渲染失败不回滚已提交的决策,记录告警由调用方重试
	if action == workflow.ActionApprove {
		if err := s.renderDocument(ctx, decision); err != nil {
			metrics.RecordDocumentRender(false)
			s.logger.WithError(err).WithField("request_id", decision.Request.ID).
				Warn("document rendering failed after approval")
		} else {
			metrics.RecordDocumentRender(true)
		}
	}

	s.notify(decision, actor, req.Action)

	return decision, nil
}

// CanAct 纯判定:actor 是否有权决策某条账本条目
// 供界面层在渲染审批入口前调用
func (s *approvalService) CanAct(actor workflow.Actor, approvalID uint) (bool, error) {
	entry, err := s.approvalRepo.FindByID(approvalID)
	if err != nil {
		return false, err
	}
	return workflow.CanAct(actor, entry.Step), nil
}

// CurrentStep 返回申请的当前步骤
func (s *approvalService) CurrentStep(ctx context.Context, requestID uint) (*model.RequestApprovalModel, error) {
	return s.engine.CurrentStep(ctx, requestID)
}

// Ledger 返回申请的完整审批账本
func (s *approvalService) Ledger(ctx context.Context, requestID uint) ([]*model.RequestApprovalModel, error) {
	return s.engine.Ledger(ctx, requestID)
}

// renderDocument 调用外部渲染服务生成签署文档
// 签名链是到目前为止所有已批准的步骤,按步骤顺序排列
func (s *approvalService) renderDocument(ctx context.Context, decision *workflow.Decision) error {
	request, err := s.requestRepo.FindByID(decision.Request.ID)
	if err != nil {
		return err
	}

	entries, err := s.engine.Ledger(ctx, request.ID)
	if err != nil {
		return err
	}

	input := &document.RenderInput{
		RequestID:    request.ID,
		RequestTitle: request.Title,
		FormData:     request.FormData,
	}
	if request.Type != nil {
		input.RequestType = request.Type.Name
		input.TemplateDocPath = request.Type.TemplateDocPath
	}
	if request.Requester != nil {
		input.Requester = request.Requester.FullName
		input.RequesterEmail = request.Requester.Email
		input.SignaturePath = request.Requester.SignaturePath
	}
	for _, entry := range entries {
		if entry.Status != model.ApprovalStatusApproved || entry.DecidedAt == nil {
			continue
		}
		signer := document.Signer{
			Comments:  entry.Comments,
			DecidedAt: *entry.DecidedAt,
		}
		if entry.Step != nil {
			signer.StepOrder = entry.Step.StepOrder
			signer.StepName = entry.Step.Name
		}
		if entry.Approver != nil {
			signer.Approver = entry.Approver.FullName
			signer.Email = entry.Approver.Email
		}
		input.Signers = append(input.Signers, signer)
	}

	result, err := s.renderer.Render(ctx, input)
	if err != nil {
		return err
	}

	// 文档路径记到本次决策的条目上;全部批准后同时记到申请上
	decision.Entry.PDFPath = result.DocumentPath
	if err := s.approvalRepo.Save(decision.Entry); err != nil {
		return err
	}
	if decision.FullyApproved {
		request.FinalDocumentPath = result.DocumentPath
		if err := s.requestRepo.Save(request); err != nil {
			return err
		}
	}
	return nil
}

// notify 推送状态变更给订阅客户端
func (s *approvalService) notify(decision *workflow.Decision, actor workflow.Actor, action string) {
	if s.hub == nil {
		return
	}
	event := &websocket.StatusEvent{
		RequestID: decision.Request.ID,
		Action:    action,
		Status:    decision.Aggregate,
		Actor:     actor.Email,
		Time:      time.Now(),
	}
	if decision.Entry.Step != nil {
		event.Step = decision.Entry.Step.Name
	}
	s.hub.NotifyStatusChange(event)
}
