package model

import (
	"errors"
	"time"
)

// 用户状态
const (
	UserStatusActive      = "active"
	UserStatusDeactivated = "deactivated"
)

// RoleModel 角色数据模型
// 每个用户只有一个角色,admin 角色可以审批任何步骤
type RoleModel struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	Name        string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	Description string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName 指定表名
func (RoleModel) TableName() string {
	return "roles"
}

// Validate 验证角色模型
func (rm *RoleModel) Validate() error {
	if rm.Name == "" {
		return errors.New("role name is required")
	}
	return nil
}

// UserModel 用户数据模型
// 用户由企业身份提供方认证,本服务只保存身份映射和角色
type UserModel struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"`
	Email          string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	FullName       string    `gorm:"type:varchar(255);not null"`
	Status         string    `gorm:"type:varchar(32);not null;default:'active'"` // active/deactivated
	Provider       string    `gorm:"type:varchar(64)"`                           // 身份提供方
	ProviderUserID string    `gorm:"type:varchar(64)"`                           // 身份提供方用户 ID
	SignaturePath  string    `gorm:"type:varchar(255)"`                          // 签名图片路径
	RoleID         uint      `gorm:"not null;index"`
	Role           *RoleModel `gorm:"foreignKey:RoleID"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// Validate 验证用户模型
func (um *UserModel) Validate() error {
	if um.Email == "" {
		return errors.New("user email is required")
	}
	if um.FullName == "" {
		return errors.New("user full name is required")
	}
	if um.RoleID == 0 {
		return errors.New("user role is required")
	}
	if um.Status == "" {
		um.Status = UserStatusActive
	}
	return nil
}

// IsActive 判断用户是否处于激活状态
func (um *UserModel) IsActive() bool {
	return um.Status != UserStatusDeactivated
}
