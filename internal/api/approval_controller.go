package api

import (
	"net/http"

	"github.com/MontyPithon/bancroff/internal/auth"
	"github.com/MontyPithon/bancroff/internal/service"
	"github.com/gin-gonic/gin"
)

// ApprovalController 审批控制器
type ApprovalController struct {
	approvalService service.ApprovalService
	queryService    service.QueryService
}

// NewApprovalController 创建审批控制器
func NewApprovalController(approvalService service.ApprovalService, queryService service.QueryService) *ApprovalController {
	return &ApprovalController{
		approvalService: approvalService,
		queryService:    queryService,
	}
}

// Pending 审批工作台
// 返回所有待审批的申请,并标记当前用户能否对其操作
func (c *ApprovalController) Pending(ctx *gin.Context) {
	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		Error(ctx, http.StatusUnauthorized, "unauthorized", "missing identity")
		return
	}

	pending, err := c.queryService.PendingApprovals(actor)
	if err != nil {
		AbortWithError(ctx, err)
		return
	}

	Success(ctx, pending)
}

// Decide 对审批条目做出决策
// @Summary      审批决策
// @Description  对单个审批条目执行 approve/reject/return,并重算申请聚合状态
// @Tags         审批管理
// @Accept       json
// @Produce      json
// @Param        id path int true "审批条目 ID"
// @Param        request body service.DecideRequest true "决策内容"
// @Success      200  {object}  Response
// @Failure      403  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /approvals/{id}/decide [post]
// @Security     BearerAuth
func (c *ApprovalController) Decide(ctx *gin.Context) {
	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		Error(ctx, http.StatusUnauthorized, "unauthorized", "missing identity")
		return
	}

	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req service.DecideRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	decision, err := c.approvalService.Decide(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		AbortWithError(ctx, err)
		return
	}

	Success(ctx, gin.H{
		"approval_id":    decision.Entry.ID,
		"entry_status":   decision.Entry.Status,
		"request_id":     decision.Request.ID,
		"request_status": decision.Aggregate,
		"fully_approved": decision.FullyApproved,
	})
}

// CurrentStep 申请的当前审批步骤
func (c *ApprovalController) CurrentStep(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	entry, err := c.approvalService.CurrentStep(ctx.Request.Context(), id)
	if err != nil {
		AbortWithError(ctx, err)
		return
	}

	Success(ctx, entry)
}

// Ledger 申请的完整审批账本
func (c *ApprovalController) Ledger(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	entries, err := c.approvalService.Ledger(ctx.Request.Context(), id)
	if err != nil {
		AbortWithError(ctx, err)
		return
	}

	Success(ctx, entries)
}
