package api

import (
	"net/http"
	"strconv"

	"github.com/MontyPithon/bancroff/internal/auth"
	"github.com/MontyPithon/bancroff/internal/repository"
	"github.com/MontyPithon/bancroff/internal/service"
	"github.com/gin-gonic/gin"
)

// RequestController 申请控制器
type RequestController struct {
	requestService service.RequestService
	queryService   service.QueryService
}

// NewRequestController 创建申请控制器
func NewRequestController(requestService service.RequestService, queryService service.QueryService) *RequestController {
	return &RequestController{
		requestService: requestService,
		queryService:   queryService,
	}
}

// parseID 解析路径里的数字 ID
func parseID(ctx *gin.Context, name string) (uint, bool) {
	raw := ctx.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		Error(ctx, http.StatusBadRequest, "invalid "+name, "expected a positive integer, got "+raw)
		return 0, false
	}
	return uint(id), true
}

// Create 创建并提交申请
// @Summary      创建申请
// @Description  按申请类型创建申请,校验表单数据并实例化审批链
// @Tags         申请管理
// @Accept       json
// @Produce      json
// @Param        request body service.CreateRequestRequest true "申请信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse
// @Router       /requests [post]
// @Security     BearerAuth
func (c *RequestController) Create(ctx *gin.Context) {
	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		Error(ctx, http.StatusUnauthorized, "unauthorized", "missing identity")
		return
	}

	var req service.CreateRequestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	request, err := c.requestService.Create(ctx.Request.Context(), actor, &req)
	if err != nil {
		AbortWithError(ctx, err)
		return
	}

	Success(ctx, request)
}

// Get 获取申请详情
// @Summary      获取申请详情
// @Tags         申请管理
// @Produce      json
// @Param        id path int true "申请 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /requests/{id} [get]
// @Security     BearerAuth
func (c *RequestController) Get(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	request, err := c.requestService.Get(id)
	if err != nil {
		AbortWithError(ctx, err)
		return
	}

	Success(ctx, request)
}

// List 申请列表
// 支持按状态、类型和申请人过滤
func (c *RequestController) List(ctx *gin.Context) {
	filter := &repository.RequestFilter{}

	if status := ctx.Query("status"); status != "" {
		filter.Status = &status
	}
	if rawType := ctx.Query("type_id"); rawType != "" {
		typeID, err := strconv.ParseUint(rawType, 10, 32)
		if err != nil {
			Error(ctx, http.StatusBadRequest, "invalid type_id", err.Error())
			return
		}
		id := uint(typeID)
		filter.TypeID = &id
	}
	if rawRequester := ctx.Query("requester_id"); rawRequester != "" {
		requesterID, err := strconv.ParseUint(rawRequester, 10, 32)
		if err != nil {
			Error(ctx, http.StatusBadRequest, "invalid requester_id", err.Error())
			return
		}
		id := uint(requesterID)
		filter.RequesterID = &id
	}
	if start := ctx.Query("start_time"); start != "" {
		filter.StartTime = &start
	}
	if end := ctx.Query("end_time"); end != "" {
		filter.EndTime = &end
	}

	summaries, err := c.queryService.ListRequests(filter)
	if err != nil {
		AbortWithError(ctx, err)
		return
	}

	Success(ctx, summaries)
}

// ListMine 当前用户提交的申请
func (c *RequestController) ListMine(ctx *gin.Context) {
	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		Error(ctx, http.StatusUnauthorized, "unauthorized", "missing identity")
		return
	}

	requests, err := c.requestService.ListMine(actor)
	if err != nil {
		AbortWithError(ctx, err)
		return
	}

	Success(ctx, requests)
}

// History 申请的完整审批历史
func (c *RequestController) History(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	history, err := c.queryService.RequestHistory(id)
	if err != nil {
		AbortWithError(ctx, err)
		return
	}

	Success(ctx, history)
}

// Resubmit 重新提交被退回的申请
// @Summary      重新提交申请
// @Description  仅申请人可重新提交,且申请必须处于 returned 状态
// @Tags         申请管理
// @Produce      json
// @Param        id path int true "申请 ID"
// @Success      200  {object}  Response
// @Failure      403  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /requests/{id}/resubmit [post]
// @Security     BearerAuth
func (c *RequestController) Resubmit(ctx *gin.Context) {
	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		Error(ctx, http.StatusUnauthorized, "unauthorized", "missing identity")
		return
	}

	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if err := c.requestService.Resubmit(ctx.Request.Context(), actor, id); err != nil {
		AbortWithError(ctx, err)
		return
	}

	Success(ctx, gin.H{"id": id, "status": "submitted"})
}

// Delete 删除申请
// 仅申请人或管理员可删除,且申请必须处于可删除状态
func (c *RequestController) Delete(ctx *gin.Context) {
	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		Error(ctx, http.StatusUnauthorized, "unauthorized", "missing identity")
		return
	}

	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if err := c.requestService.Delete(ctx.Request.Context(), actor, id); err != nil {
		AbortWithError(ctx, err)
		return
	}

	Success(ctx, gin.H{"id": id, "deleted": true})
}
