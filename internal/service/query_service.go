package service

import (
	"time"

	"github.com/MontyPithon/bancroff/internal/model"
	"github.com/MontyPithon/bancroff/internal/repository"
	"github.com/MontyPithon/bancroff/internal/workflow"
	"gorm.io/gorm"
)

// QueryService 查询服务接口
// 审批工作台和申请历史视图的只读查询
type QueryService interface {
	ListRequests(filter *repository.RequestFilter) ([]*RequestSummary, error)
	PendingApprovals(actor workflow.Actor) ([]*PendingApproval, error)
	RequestHistory(requestID uint) (*RequestHistory, error)
}

// StepStatus 审批链中单个步骤的展示状态
type StepStatus struct {
	ApprovalID uint       `json:"approval_id"`
	StepOrder  int        `json:"step_order"`
	Step       string     `json:"step"`
	Role       string     `json:"role"`
	Status     string     `json:"status"`
	Approver   string     `json:"approver,omitempty"`
	Comments   string     `json:"comments,omitempty"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`
	PDFPath    string     `json:"pdf_path,omitempty"`
}

// RequestSummary 申请列表条目
type RequestSummary struct {
	ID        uint      `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Requester string    `json:"requester"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// PendingApproval 审批工作台条目
// 当前步骤加上完整的步骤状态链
type PendingApproval struct {
	ApprovalID  uint          `json:"approval_id"`
	RequestID   uint          `json:"request_id"`
	RequestType string        `json:"request_type"`
	Title       string        `json:"title"`
	Requester   string        `json:"requester"`
	Submitted   time.Time     `json:"submitted"`
	Step        string        `json:"step"`
	Status      string        `json:"status"`
	CanAct      bool          `json:"can_act"`
	Chain       []*StepStatus `json:"chain"`
}

// StatusTransition 申请聚合状态的一次变更
type StatusTransition struct {
	From    string    `json:"from,omitempty"`
	To      string    `json:"to"`
	ActorID uint      `json:"actor_id"`
	Reason  string    `json:"reason,omitempty"`
	At      time.Time `json:"at"`
}

// RequestHistory 申请的完整审批历史
type RequestHistory struct {
	Request     *RequestSummary     `json:"request"`
	Chain       []*StepStatus       `json:"chain"`
	Transitions []*StatusTransition `json:"transitions"`
	HasPDFs     bool                `json:"has_pdfs"`
	FinalPath   string              `json:"final_document_path,omitempty"`
}

// queryService 查询服务实现
type queryService struct {
	db           *gorm.DB
	requestRepo  repository.RequestRepository
	approvalRepo repository.ApprovalRepository
	historyRepo  repository.StatusHistoryRepository
}

// NewQueryService 创建查询服务
func NewQueryService(db *gorm.DB) QueryService {
	return &queryService{
		db:           db,
		requestRepo:  repository.NewRequestRepository(db),
		approvalRepo: repository.NewApprovalRepository(db),
		historyRepo:  repository.NewStatusHistoryRepository(db),
	}
}

// ListRequests 按过滤器列出申请
func (s *queryService) ListRequests(filter *repository.RequestFilter) ([]*RequestSummary, error) {
	requests, err := s.requestRepo.FindByFilter(filter)
	if err != nil {
		return nil, err
	}

	summaries := make([]*RequestSummary, 0, len(requests))
	for _, request := range requests {
		summaries = append(summaries, summarize(request))
	}
	return summaries, nil
}

// PendingApprovals 审批工作台
// 每条申请取当前步骤(最低序号的 pending 条目,没有则取最后一步),
// 并标记 actor 是否有权在该步骤上动作
func (s *queryService) PendingApprovals(actor workflow.Actor) ([]*PendingApproval, error) {
	requests, err := s.requestRepo.FindAll()
	if err != nil {
		return nil, err
	}

	items := make([]*PendingApproval, 0, len(requests))
	for _, request := range requests {
		entries, err := s.approvalRepo.FindByRequestID(request.ID)
		if err != nil {
			return nil, err
		}
		current := workflow.CurrentEntry(entries)
		if current == nil {
			continue
		}

		item := &PendingApproval{
			ApprovalID: current.ID,
			RequestID:  request.ID,
			Title:      request.Title,
			Submitted:  request.CreatedAt,
			Status:     request.Status,
			CanAct:     workflow.CanAct(actor, current.Step),
			Chain:      chainOf(entries),
		}
		if request.Type != nil {
			item.RequestType = request.Type.Name
		}
		if request.Requester != nil {
			item.Requester = request.Requester.FullName
		}
		if current.Step != nil {
			item.Step = current.Step.Name
		}
		items = append(items, item)
	}
	return items, nil
}

// RequestHistory 申请的完整审批历史,带文档引用
func (s *queryService) RequestHistory(requestID uint) (*RequestHistory, error) {
	request, err := s.requestRepo.FindByID(requestID)
	if err != nil {
		return nil, err
	}
	entries, err := s.approvalRepo.FindByRequestID(requestID)
	if err != nil {
		return nil, err
	}

	transitions, err := s.historyRepo.FindByRequestID(requestID)
	if err != nil {
		return nil, err
	}

	history := &RequestHistory{
		Request:     summarize(request),
		Chain:       chainOf(entries),
		Transitions: transitionsOf(transitions),
		FinalPath:   request.FinalDocumentPath,
	}
	for _, step := range history.Chain {
		if step.PDFPath != "" {
			history.HasPDFs = true
			break
		}
	}
	return history, nil
}

// summarize 构造申请列表条目
func summarize(request *model.RequestModel) *RequestSummary {
	summary := &RequestSummary{
		ID:        request.ID,
		Title:     request.Title,
		Status:    request.Status,
		CreatedAt: request.CreatedAt,
	}
	if request.Type != nil {
		summary.Type = request.Type.Name
	}
	if request.Requester != nil {
		summary.Requester = request.Requester.FullName
	}
	return summary
}

// transitionsOf 把状态历史行转成展示用的变更列表
func transitionsOf(histories []*model.StatusHistoryModel) []*StatusTransition {
	transitions := make([]*StatusTransition, 0, len(histories))
	for _, h := range histories {
		transitions = append(transitions, &StatusTransition{
			From:    h.FromStatus,
			To:      h.ToStatus,
			ActorID: h.ActorID,
			Reason:  h.Reason,
			At:      h.CreatedAt,
		})
	}
	return transitions
}

// chainOf 把账本条目转成展示用的步骤状态链
func chainOf(entries []*model.RequestApprovalModel) []*StepStatus {
	chain := make([]*StepStatus, 0, len(entries))
	for _, entry := range entries {
		status := &StepStatus{
			ApprovalID: entry.ID,
			Status:     entry.Status,
			Comments:   entry.Comments,
			DecidedAt:  entry.DecidedAt,
			PDFPath:    entry.PDFPath,
		}
		if entry.Step != nil {
			status.StepOrder = entry.Step.StepOrder
			status.Step = entry.Step.Name
			if entry.Step.ApproverRole != nil {
				status.Role = entry.Step.ApproverRole.Name
			}
		}
		if entry.Approver != nil {
			status.Approver = entry.Approver.FullName
		}
		chain = append(chain, status)
	}
	return chain
}
