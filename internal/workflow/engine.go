package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MontyPithon/bancroff/internal/model"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Action 审批动作
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionReturn  Action = "return"
)

// entryStatusFor 审批动作对应的账本条目状态
func entryStatusFor(action Action) (string, error) {
	switch action {
	case ActionApprove:
		return model.ApprovalStatusApproved, nil
	case ActionReject:
		return model.ApprovalStatusRejected, nil
	case ActionReturn:
		return model.ApprovalStatusReturned, nil
	}
	return "", fmt.Errorf("unknown action %q", action)
}

// Decision 一次审批决策的结果
// 服务层用它决定是否触发文档渲染和状态推送
type Decision struct {
	Entry         *model.RequestApprovalModel
	Request       *model.RequestModel
	Aggregate     string
	FullyApproved bool
}

// Engine 审批流程引擎
// 所有操作都是针对持久化账本的同步事务:读取账本、校验、
// 写入新状态、重算聚合、提交,失败时整体回滚。
type Engine struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewEngine 创建审批流程引擎
func NewEngine(db *gorm.DB, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{db: db, logger: logger}
}

// Instantiate 实例化审批流程
// 按 step_order 为申请类型流程的每个步骤创建一条 pending 账本条目,
// 同时把申请从 draft 置为 submitted。任何一步失败都会整体回滚,
// 不会出现只建了一半账本的申请。
func (e *Engine) Instantiate(ctx context.Context, requestID uint) error {
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request model.RequestModel
		if err := tx.First(&request, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("request %d: %w", requestID, ErrNotFound)
			}
			return err
		}

		if request.Status != model.RequestStatusDraft {
			return &InvalidStateError{
				Reason: fmt.Sprintf("request %d is %q, only draft requests can be submitted", request.ID, request.Status),
			}
		}

		var wf model.ApprovalWorkflowModel
		err := tx.Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_order ASC")
		}).Where("request_type_id = ?", request.TypeID).First(&wf).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &ConfigurationError{
					Reason: fmt.Sprintf("no approval workflow defined for request type %d", request.TypeID),
				}
			}
			return err
		}
		if len(wf.Steps) == 0 {
			return &ConfigurationError{
				Reason: fmt.Sprintf("workflow %q has no steps", wf.Name),
			}
		}

		for _, step := range wf.Steps {
			entry := &model.RequestApprovalModel{
				RequestID: request.ID,
				StepID:    step.ID,
				Status:    model.ApprovalStatusPending,
				CreatedAt: time.Now(),
			}
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		}

		request.Status = model.RequestStatusSubmitted
		if err := tx.Save(&request).Error; err != nil {
			return err
		}
		if err := recordTransition(tx, &request, model.RequestStatusDraft, request.RequesterID, ""); err != nil {
			return err
		}

		e.logger.WithFields(logrus.Fields{
			"request_id": request.ID,
			"steps":      len(wf.Steps),
		}).Info("approval workflow instantiated")
		return nil
	})

	return wrapPersistence(err)
}

// Decide 对一条账本条目做出决策
// 授权规则由 CanAct 统一判定;状态守卫要求条目为 pending 且
// 申请仍处于 submitted,终态申请上的 pending 条目不允许再动作。
func (e *Engine) Decide(ctx context.Context, approvalID uint, actor Actor, action Action, comments string) (*Decision, error) {
	targetStatus, err := entryStatusFor(action)
	if err != nil {
		return nil, err
	}

	var decision *Decision
	txErr := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry model.RequestApprovalModel
		if err := tx.Preload("Step.ApproverRole").First(&entry, approvalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("approval %d: %w", approvalID, ErrNotFound)
			}
			return err
		}

		var request model.RequestModel
		if err := tx.First(&request, entry.RequestID).Error; err != nil {
			return err
		}

		if !CanAct(actor, entry.Step) {
			required := ""
			if entry.Step != nil && entry.Step.ApproverRole != nil {
				required = entry.Step.ApproverRole.Name
			}
			return &PermissionDeniedError{RequiredRole: required}
		}

		// pending 是权威判据,submitted 是次级守卫:
		// 已被拒绝或已走完的申请即使还留有 pending 条目也不能再批
		if !entry.IsPending() {
			return &InvalidStateError{
				Reason: fmt.Sprintf("approval %d has already been processed (%s)", entry.ID, entry.Status),
			}
		}
		if request.Status != model.RequestStatusSubmitted {
			return &InvalidStateError{
				Reason: fmt.Sprintf("request %d is %q, no further decisions are accepted", request.ID, request.Status),
			}
		}

		now := time.Now()
		approverID := actor.UserID
		entry.Status = targetStatus
		entry.ApproverID = &approverID
		entry.Comments = comments
		entry.DecidedAt = &now
		if err := tx.Save(&entry).Error; err != nil {
			return err
		}

		// 聚合状态从完整账本快照重算,与写入顺序无关
		entries, err := ledgerForRequest(tx, request.ID)
		if err != nil {
			return err
		}
		previous := model.RequestStatusSubmitted
		request.Status = ComputeAggregate(entries)
		if err := tx.Save(&request).Error; err != nil {
			return err
		}
		if request.Status != previous {
			if err := recordTransition(tx, &request, previous, actor.UserID, comments); err != nil {
				return err
			}
		}

		decision = &Decision{
			Entry:         &entry,
			Request:       &request,
			Aggregate:     request.Status,
			FullyApproved: request.Status == model.RequestStatusApproved,
		}

		e.logger.WithFields(logrus.Fields{
			"request_id":  request.ID,
			"approval_id": entry.ID,
			"action":      string(action),
			"actor":       actor.Email,
			"aggregate":   request.Status,
		}).Info("approval decision recorded")
		return nil
	})

	if txErr != nil {
		return nil, wrapPersistence(txErr)
	}
	return decision, nil
}

// Resubmit 重新提交被退回的申请
// 只允许原申请人操作。被退回的那条账本条目会重置为 pending,
// 让同一步骤的审批人重新决策;其余条目保持原状。
func (e *Engine) Resubmit(ctx context.Context, requestID uint, actor Actor) error {
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request model.RequestModel
		if err := tx.First(&request, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("request %d: %w", requestID, ErrNotFound)
			}
			return err
		}

		if request.RequesterID != actor.UserID {
			return &PermissionDeniedError{RequiredRole: "requester"}
		}
		if request.Status != model.RequestStatusReturned {
			return &InvalidStateError{
				Reason: fmt.Sprintf("request %d is %q, only returned requests can be resubmitted", request.ID, request.Status),
			}
		}

		entries, err := ledgerForRequest(tx, request.ID)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if entry.Status != model.ApprovalStatusReturned {
				continue
			}
			entry.Status = model.ApprovalStatusPending
			entry.ApproverID = nil
			entry.DecidedAt = nil
			if err := tx.Save(entry).Error; err != nil {
				return err
			}
		}

		request.Status = model.RequestStatusSubmitted
		if err := tx.Save(&request).Error; err != nil {
			return err
		}
		if err := recordTransition(tx, &request, model.RequestStatusReturned, actor.UserID, ""); err != nil {
			return err
		}

		e.logger.WithField("request_id", request.ID).Info("request resubmitted")
		return nil
	})

	return wrapPersistence(err)
}

// CurrentStep 返回申请的当前账本条目
// 即 step_order 最小的 pending 条目;没有 pending 时返回最后一步
func (e *Engine) CurrentStep(ctx context.Context, requestID uint) (*model.RequestApprovalModel, error) {
	entries, err := e.Ledger(ctx, requestID)
	if err != nil {
		return nil, err
	}
	entry := CurrentEntry(entries)
	if entry == nil {
		return nil, fmt.Errorf("request %d has no approval ledger: %w", requestID, ErrNotFound)
	}
	return entry, nil
}

// Ledger 按步骤顺序返回申请的完整审批账本
func (e *Engine) Ledger(ctx context.Context, requestID uint) ([]*model.RequestApprovalModel, error) {
	entries, err := ledgerForRequest(e.db.WithContext(ctx), requestID)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	return entries, nil
}

// ledgerForRequest 加载申请的账本条目,按 step_order 升序
func ledgerForRequest(tx *gorm.DB, requestID uint) ([]*model.RequestApprovalModel, error) {
	var entries []*model.RequestApprovalModel
	err := tx.
		Joins("JOIN approval_steps ON approval_steps.id = request_approvals.step_id").
		Where("request_approvals.request_id = ?", requestID).
		Order("approval_steps.step_order ASC").
		Preload("Step.ApproverRole").
		Preload("Approver").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// recordTransition 在同一事务内记录一次聚合状态迁移
// request.Status 已是迁移后的新状态
func recordTransition(tx *gorm.DB, request *model.RequestModel, from string, actorID uint, reason string) error {
	history := &model.StatusHistoryModel{
		ID:         uuid.New().String(),
		RequestID:  request.ID,
		FromStatus: from,
		ToStatus:   request.Status,
		Reason:     reason,
		ActorID:    actorID,
		CreatedAt:  time.Now(),
	}
	return tx.Create(history).Error
}

// wrapPersistence 把未分类的数据库错误包装为 PersistenceError
// 引擎自身定义的类型化错误原样透传
func wrapPersistence(err error) error {
	if err == nil {
		return nil
	}
	if IsConfigurationError(err) || IsPermissionDenied(err) || IsInvalidState(err) || errors.Is(err, ErrNotFound) {
		return err
	}
	return &PersistenceError{Err: err}
}
