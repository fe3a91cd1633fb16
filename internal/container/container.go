package container

import (
	"fmt"
	"time"

	"github.com/MontyPithon/bancroff/internal/auth"
	"github.com/MontyPithon/bancroff/internal/config"
	"github.com/MontyPithon/bancroff/internal/database"
	"github.com/MontyPithon/bancroff/internal/document"
	"github.com/MontyPithon/bancroff/internal/repository"
	"github.com/MontyPithon/bancroff/internal/service"
	"github.com/MontyPithon/bancroff/internal/websocket"
	"github.com/MontyPithon/bancroff/internal/workflow"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Container 依赖注入容器
// 管理所有应用依赖,包括数据库、服务、客户端等
type Container struct {
	db                *gorm.DB
	logger            *logrus.Logger
	engine            *workflow.Engine
	renderer          document.Renderer
	hub               *websocket.Hub
	keycloakValidator *auth.KeycloakTokenValidator

	userRepo     repository.UserRepository
	typeRepo     repository.RequestTypeRepository
	workflowRepo repository.WorkflowRepository

	auditLogService   service.AuditLogService
	requestService    service.RequestService
	approvalService   service.ApprovalService
	userService       service.UserService
	queryService      service.QueryService
	statisticsService service.StatisticsService
}

// NewContainer 创建依赖注入容器
// 根据配置初始化所有依赖组件
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	if logger == nil {
		logger = logrus.New()
	}

	// 1. 初始化数据库（带重试机制）
	// 默认重试 3 次，初始间隔 1 秒，指数退避
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 执行数据库迁移
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return NewContainerWithDB(cfg, db, logger)
}

// NewContainerWithDB 基于已有数据库连接创建容器
// 测试时传入 SQLite 内存库
func NewContainerWithDB(cfg *config.Config, db *gorm.DB, logger *logrus.Logger) (*Container, error) {
	if logger == nil {
		logger = logrus.New()
	}

	// 审批引擎
	engine := workflow.NewEngine(db, logger)

	// 文档渲染客户端,未配置时使用 Noop 实现
	var renderer document.Renderer
	if cfg.Renderer.Endpoint != "" {
		timeout := time.Duration(cfg.Renderer.Timeout) * time.Second
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		renderer = document.NewHTTPRenderer(cfg.Renderer.Endpoint, timeout)
	} else {
		renderer = document.NewNoopRenderer()
	}

	// WebSocket Hub
	hub := websocket.NewHub()

	// Keycloak Token 验证器
	var keycloakValidator *auth.KeycloakTokenValidator
	if cfg.Keycloak.Issuer != "" {
		keycloakValidator = auth.NewKeycloakTokenValidator(cfg.Keycloak.Issuer)
	}

	// 仓储
	userRepo := repository.NewUserRepository(db)
	typeRepo := repository.NewRequestTypeRepository(db)
	workflowRepo := repository.NewWorkflowRepository(db)

	// 服务
	auditLogService := service.NewAuditLogService(repository.NewAuditLogRepository(db))
	requestService := service.NewRequestService(db, engine, auditLogService)
	approvalService := service.NewApprovalService(db, engine, renderer, auditLogService, hub, logger)
	userService := service.NewUserService(db, auditLogService)
	queryService := service.NewQueryService(db)
	statisticsService := service.NewStatisticsService(db)

	return &Container{
		db:                db,
		logger:            logger,
		engine:            engine,
		renderer:          renderer,
		hub:               hub,
		keycloakValidator: keycloakValidator,
		userRepo:          userRepo,
		typeRepo:          typeRepo,
		workflowRepo:      workflowRepo,
		auditLogService:   auditLogService,
		requestService:    requestService,
		approvalService:   approvalService,
		userService:       userService,
		queryService:      queryService,
		statisticsService: statisticsService,
	}, nil
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Logger 获取日志记录器
func (c *Container) Logger() *logrus.Logger {
	return c.logger
}

// Engine 获取审批引擎
func (c *Container) Engine() *workflow.Engine {
	return c.engine
}

// Hub 获取 WebSocket Hub
func (c *Container) Hub() *websocket.Hub {
	return c.hub
}

// KeycloakValidator 获取 Keycloak Token 验证器
func (c *Container) KeycloakValidator() *auth.KeycloakTokenValidator {
	return c.keycloakValidator
}

// UserRepository 获取用户仓储
func (c *Container) UserRepository() repository.UserRepository {
	return c.userRepo
}

// RequestTypeRepository 获取申请类型仓储
func (c *Container) RequestTypeRepository() repository.RequestTypeRepository {
	return c.typeRepo
}

// WorkflowRepository 获取审批流程仓储
func (c *Container) WorkflowRepository() repository.WorkflowRepository {
	return c.workflowRepo
}

// RequestService 获取申请服务
func (c *Container) RequestService() service.RequestService {
	return c.requestService
}

// ApprovalService 获取审批服务
func (c *Container) ApprovalService() service.ApprovalService {
	return c.approvalService
}

// UserService 获取用户服务
func (c *Container) UserService() service.UserService {
	return c.userService
}

// QueryService 获取查询服务
func (c *Container) QueryService() service.QueryService {
	return c.queryService
}

// StatisticsService 获取统计服务
func (c *Container) StatisticsService() service.StatisticsService {
	return c.statisticsService
}

// Close 关闭容器,清理资源
func (c *Container) Close() error {
	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	return nil
}
