package api

import (
	"github.com/MontyPithon/bancroff/internal/auth"
	"github.com/MontyPithon/bancroff/internal/config"
	"github.com/MontyPithon/bancroff/internal/container"
	"github.com/MontyPithon/bancroff/internal/websocket"
	"github.com/gin-gonic/gin"
)

// SetupRoutes 配置路由
func SetupRoutes(cfg *config.Config, c *container.Container) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// 中间件
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(SecurityHeadersMiddleware())
	if len(cfg.CORS.AllowedOrigins) > 0 {
		router.Use(CORSMiddleware(cfg.CORS.AllowedOrigins))
	}
	if cfg.Tracing.Enabled {
		router.Use(TracingMiddleware())
	}
	router.Use(RateLimitMiddleware(100, 200))

	// 健康检查
	healthController := NewHealthController(c.DB())
	router.GET("/health", healthController.Check)

	// Prometheus 指标端点
	router.GET("/metrics", MetricsHandler)

	// WebSocket 路由,按申请订阅状态推送
	if c.Hub() != nil && c.KeycloakValidator() != nil {
		router.GET("/ws/requests/:id", websocket.Handler(c.Hub(), c.KeycloakValidator()))
	}

	// 控制器
	requestController := NewRequestController(c.RequestService(), c.QueryService())
	approvalController := NewApprovalController(c.ApprovalService(), c.QueryService())
	userController := NewUserController(c.UserService())
	formController := NewFormController(c.RequestTypeRepository(), c.WorkflowRepository())
	statisticsController := NewStatisticsController(c.StatisticsService())

	// API v1 路由组,全部要求已登录的活跃用户
	v1 := router.Group("/api/v1")
	v1.Use(auth.IdentityMiddleware(c.KeycloakValidator(), c.UserRepository()))
	{
		// 申请管理路由
		requests := v1.Group("/requests")
		{
			requests.POST("", requestController.Create)
			requests.GET("", requestController.List)
			requests.GET("/mine", requestController.ListMine)
			requests.GET("/:id", requestController.Get)
			requests.GET("/:id/history", requestController.History)
			requests.GET("/:id/approvals", approvalController.Ledger)
			requests.GET("/:id/current-step", approvalController.CurrentStep)
			requests.POST("/:id/resubmit", requestController.Resubmit)
			requests.DELETE("/:id", requestController.Delete)
		}

		// 审批管理路由
		approvals := v1.Group("/approvals")
		{
			approvals.GET("/pending", approvalController.Pending)
			approvals.POST("/:id/decide", approvalController.Decide)
		}

		// 表单定义路由
		forms := v1.Group("/forms")
		{
			forms.GET("/types", formController.ListTypes)
			forms.GET("/types/:name", formController.GetDefinition)
		}

		// 统计路由,仅管理员
		v1.GET("/statistics", auth.AdminRequired(), statisticsController.Overview)

		// 用户管理路由,仅管理员
		users := v1.Group("/users")
		users.Use(auth.AdminRequired())
		{
			users.POST("", userController.Create)
			users.GET("", userController.List)
			users.GET("/:id", userController.Get)
			users.PUT("/:id", userController.Update)
			users.POST("/:id/deactivate", userController.Deactivate)
			users.POST("/:id/reactivate", userController.Reactivate)
			users.POST("/:id/signature", userController.SetSignature)
			users.DELETE("/:id", userController.Delete)
		}
	}

	return router
}
