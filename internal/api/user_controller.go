package api

import (
	"net/http"

	"github.com/MontyPithon/bancroff/internal/service"
	"github.com/gin-gonic/gin"
)

// UserController 用户管理控制器
// 所有路由都要求管理员角色,见 routes.go
type UserController struct {
	userService service.UserService
}

// NewUserController 创建用户管理控制器
func NewUserController(userService service.UserService) *UserController {
	return &UserController{
		userService: userService,
	}
}

// Create 创建用户
func (c *UserController) Create(ctx *gin.Context) {
	var req service.CreateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	user, err := c.userService.Create(ctx.Request.Context(), &req)
	if err != nil {
		AbortWithError(ctx, err)
		return
	}

	Success(ctx, user)
}

// Get 获取用户详情
func (c *UserController) Get(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	user, err := c.userService.Get(id)
	if err != nil {
		AbortWithError(ctx, err)
		return
	}

	Success(ctx, user)
}

// List 用户列表
func (c *UserController) List(ctx *gin.Context) {
	users, err := c.userService.List()
	if err != nil {
		AbortWithError(ctx, err)
		return
	}

	Success(ctx, users)
}

// Update 更新用户资料或角色
func (c *UserController) Update(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req service.UpdateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	user, err := c.userService.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		AbortWithError(ctx, err)
		return
	}

	Success(ctx, user)
}

// Deactivate 停用用户
// 停用后用户无法通过身份中间件,但历史审批记录保留
func (c *UserController) Deactivate(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if err := c.userService.Deactivate(ctx.Request.Context(), id); err != nil {
		AbortWithError(ctx, err)
		return
	}

	Success(ctx, gin.H{"id": id, "status": "deactivated"})
}

// Reactivate 重新启用用户
func (c *UserController) Reactivate(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if err := c.userService.Reactivate(ctx.Request.Context(), id); err != nil {
		AbortWithError(ctx, err)
		return
	}

	Success(ctx, gin.H{"id": id, "status": "active"})
}

// Delete 删除用户
func (c *UserController) Delete(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if err := c.userService.Delete(ctx.Request.Context(), id); err != nil {
		AbortWithError(ctx, err)
		return
	}

	Success(ctx, gin.H{"id": id, "deleted": true})
}

// SetSignature 设置用户签名图片路径
func (c *UserController) SetSignature(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req struct {
		SignaturePath string `json:"signature_path" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	if err := c.userService.SetSignaturePath(ctx.Request.Context(), id, req.SignaturePath); err != nil {
		AbortWithError(ctx, err)
		return
	}

	Success(ctx, gin.H{"id": id, "signature_path": req.SignaturePath})
}
