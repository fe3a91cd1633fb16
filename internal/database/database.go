package database

import (
	"context"
	"fmt"
	"time"

	"github.com/MontyPithon/bancroff/internal/config"
	"github.com/MontyPithon/bancroff/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime int // 秒
	ConnMaxIdleTime int // 秒
}

// BuildDSN 构建 PostgreSQL DSN
func BuildDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// GetPoolConfig 获取连接池配置
func GetPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: 3600, // 1 小时
		ConnMaxIdleTime: 600,  // 10 分钟
	}
}

// Connect 连接数据库
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := BuildDSN(cfg)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// 从配置中读取连接池参数,如果没有配置则使用默认值
	poolConfig := GetPoolConfig()
	if cfg.MaxIdleConns > 0 {
		poolConfig.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxOpenConns = cfg.MaxOpenConns
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.ConnMaxLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolConfig.ConnMaxIdleTime = cfg.ConnMaxIdleTime
	}

	sqlDB.SetMaxIdleConns(poolConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(poolConfig.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(poolConfig.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(poolConfig.ConnMaxIdleTime) * time.Second)

	return db, nil
}

// ConnectWithRetry 带重试的数据库连接
func ConnectWithRetry(cfg config.DatabaseConfig, maxRetries int, retryInterval time.Duration) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = Connect(cfg)
		if err == nil {
			return db, nil
		}

		// 如果不是最后一次重试,等待后重试
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2 // 指数退避
		}
	}

	return nil, fmt.Errorf("failed to connect database after %d retries: %w", maxRetries, err)
}

// Migrate 执行数据库迁移
func Migrate(db *gorm.DB) error {
	// 检测数据库类型
	dialector := db.Dialector.Name()

	// SQLite 不支持 jsonb,需要手动创建表
	if dialector == "sqlite" || dialector == "sqlite3" {
		if err := createSQLiteTables(db); err != nil {
			return fmt.Errorf("failed to create SQLite tables: %w", err)
		}
	} else {
		// PostgreSQL 等其他数据库使用 AutoMigrate
		if err := db.AutoMigrate(
			&model.RoleModel{},
			&model.UserModel{},
			&model.RequestTypeModel{},
			&model.ApprovalWorkflowModel{},
			&model.ApprovalStepModel{},
			&model.RequestModel{},
			&model.RequestApprovalModel{},
			&model.StatusHistoryModel{},
			&model.AuditLogModel{},
		); err != nil {
			return fmt.Errorf("failed to auto migrate: %w", err)
		}
	}

	// 创建索引
	if err := CreateIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// createSQLiteTables 为 SQLite 手动创建表（使用 TEXT 替代 jsonb）
func createSQLiteTables(db *gorm.DB) error {
	statements := []struct {
		table string
		ddl   string
	}{
		{"roles", `
		CREATE TABLE IF NOT EXISTS roles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name VARCHAR(64) NOT NULL UNIQUE,
			description TEXT,
			created_at DATETIME NOT NULL
		)`},
		{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email VARCHAR(255) NOT NULL UNIQUE,
			full_name VARCHAR(255) NOT NULL,
			status VARCHAR(32) NOT NULL DEFAULT 'active',
			provider VARCHAR(64),
			provider_user_id VARCHAR(64),
			signature_path VARCHAR(255),
			role_id INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`},
		{"request_types", `
		CREATE TABLE IF NOT EXISTS request_types (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name VARCHAR(255) NOT NULL UNIQUE,
			description TEXT,
			form_schema TEXT,
			template_doc_path VARCHAR(255),
			created_at DATETIME NOT NULL
		)`},
		{"approval_workflows", `
		CREATE TABLE IF NOT EXISTS approval_workflows (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			request_type_id INTEGER NOT NULL,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			created_at DATETIME NOT NULL
		)`},
		{"approval_steps", `
		CREATE TABLE IF NOT EXISTS approval_steps (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			workflow_id INTEGER NOT NULL,
			step_order INTEGER NOT NULL,
			name VARCHAR(255) NOT NULL,
			approver_role_id INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		)`},
		{"requests", `
		CREATE TABLE IF NOT EXISTS requests (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type_id INTEGER NOT NULL,
			requester_id INTEGER NOT NULL,
			title VARCHAR(255) NOT NULL,
			form_data TEXT,
			status VARCHAR(32) NOT NULL DEFAULT 'draft',
			final_document_path VARCHAR(255),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`},
		{"request_approvals", `
		CREATE TABLE IF NOT EXISTS request_approvals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			request_id INTEGER NOT NULL,
			step_id INTEGER NOT NULL,
			approver_id INTEGER,
			status VARCHAR(32) NOT NULL DEFAULT 'pending',
			comments TEXT,
			decided_at DATETIME,
			pdf_path VARCHAR(255),
			created_at DATETIME NOT NULL
		)`},
		{"status_history", `
		CREATE TABLE IF NOT EXISTS status_history (
			id VARCHAR(64) PRIMARY KEY,
			request_id INTEGER NOT NULL,
			from_status VARCHAR(32),
			to_status VARCHAR(32) NOT NULL,
			reason TEXT,
			actor_id INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		)`},
		{"audit_logs", `
		CREATE TABLE IF NOT EXISTS audit_logs (
			id VARCHAR(64) PRIMARY KEY,
			user_id INTEGER NOT NULL,
			action VARCHAR(64) NOT NULL,
			resource_type VARCHAR(32) NOT NULL,
			resource_id VARCHAR(64) NOT NULL,
			request_id VARCHAR(64),
			ip VARCHAR(45),
			user_agent TEXT,
			details TEXT,
			created_at DATETIME NOT NULL
		)`},
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt.ddl).Error; err != nil {
			return fmt.Errorf("failed to create %s table: %w", stmt.table, err)
		}
	}

	return nil
}

// CreateIndexes 创建数据库索引
func CreateIndexes(db *gorm.DB) error {
	// 检测数据库类型
	dialector := db.Dialector.Name()

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)",
		"CREATE INDEX IF NOT EXISTS idx_users_role_id ON users(role_id)",
		"CREATE INDEX IF NOT EXISTS idx_workflows_request_type ON approval_workflows(request_type_id)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_steps_workflow_order ON approval_steps(workflow_id, step_order)",
		"CREATE INDEX IF NOT EXISTS idx_requests_status ON requests(status)",
		"CREATE INDEX IF NOT EXISTS idx_requests_requester ON requests(requester_id)",
		"CREATE INDEX IF NOT EXISTS idx_requests_type ON requests(type_id)",
		"CREATE INDEX IF NOT EXISTS idx_requests_created_at ON requests(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_approvals_request ON request_approvals(request_id)",
		"CREATE INDEX IF NOT EXISTS idx_approvals_step ON request_approvals(step_id)",
		"CREATE INDEX IF NOT EXISTS idx_approvals_approver ON request_approvals(approver_id)",
		"CREATE INDEX IF NOT EXISTS idx_status_history_request ON status_history(request_id)",
		"CREATE INDEX IF NOT EXISTS idx_status_history_created_at ON status_history(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_audit_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_user_id ON audit_logs(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_created_at ON audit_logs(created_at)",
	}

	for _, ddl := range indexes {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	// PostgreSQL 特定的 GIN 索引
	if dialector == "postgres" {
		if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_requests_form_data_gin ON requests USING GIN (form_data)").Error; err != nil {
			return fmt.Errorf("failed to create idx_requests_form_data_gin: %w", err)
		}
	}

	return nil
}

// CheckHealth 检查数据库连接健康状态
func CheckHealth(db *gorm.DB) bool {
	if db == nil {
		return false
	}

	sqlDB, err := db.DB()
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return false
	}

	return true
}
