package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/MontyPithon/bancroff/internal/model"
	"github.com/MontyPithon/bancroff/internal/repository"
	"github.com/MontyPithon/bancroff/internal/utils"
	"gorm.io/gorm"
)

// UserService 用户服务接口
type UserService interface {
	Create(ctx context.Context, req *CreateUserRequest) (*model.UserModel, error)
	Get(id uint) (*model.UserModel, error)
	List() ([]*model.UserModel, error)
	Update(ctx context.Context, id uint, req *UpdateUserRequest) (*model.UserModel, error)
	Deactivate(ctx context.Context, id uint) error
	Reactivate(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
	SetSignaturePath(ctx context.Context, id uint, path string) error
}

// CreateUserRequest 创建用户请求参数
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"required"`
	Role     string `json:"role" binding:"required"` // 角色名称
	Status   string `json:"status"`
}

// UpdateUserRequest 更新用户请求参数
type UpdateUserRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

// userService 用户服务实现
type userService struct {
	db          *gorm.DB
	userRepo    repository.UserRepository
	auditLogSvc AuditLogService
}

// NewUserService 创建用户服务
func NewUserService(db *gorm.DB, auditLogSvc AuditLogService) UserService {
	return &userService{
		db:          db,
		userRepo:    repository.NewUserRepository(db),
		auditLogSvc: auditLogSvc,
	}
}

// findRole 按名称查找角色
func (s *userService) findRole(name string) (*model.RoleModel, error) {
	var role model.RoleModel
	if err := s.db.Where("name = ?", name).First(&role).Error; err != nil {
		return nil, fmt.Errorf("role %q not found: %w", name, err)
	}
	return &role, nil
}

// Create 创建用户
func (s *userService) Create(ctx context.Context, req *CreateUserRequest) (*model.UserModel, error) {
	if err := utils.ValidateEmail(req.Email); err != nil {
		return nil, err
	}

	role, err := s.findRole(req.Role)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = model.UserStatusActive
	}

	user := &model.UserModel{
		Email:    strings.ToLower(req.Email),
		FullName: req.FullName,
		Status:   status,
		RoleID:   role.ID,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(user); err != nil {
		return nil, err
	}
	return s.userRepo.FindByID(user.ID)
}

// Get 获取用户详情
func (s *userService) Get(id uint) (*model.UserModel, error) {
	return s.userRepo.FindByID(id)
}

// List 列出所有用户
func (s *userService) List() ([]*model.UserModel, error) {
	return s.userRepo.FindAll()
}

// Update 更新用户
func (s *userService) Update(ctx context.Context, id uint, req *UpdateUserRequest) (*model.UserModel, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if req.Email != "" {
		user.Email = strings.ToLower(req.Email)
	}
	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.Status != "" {
		user.Status = req.Status
	}
	if req.Role != "" {
		role, err := s.findRole(req.Role)
		if err != nil {
			return nil, err
		}
		user.RoleID = role.ID
		user.Role = role
	}

	if err := s.userRepo.Save(user); err != nil {
		return nil, err
	}
	return s.userRepo.FindByID(user.ID)
}

// Deactivate 停用用户
func (s *userService) Deactivate(ctx context.Context, id uint) error {
	return s.setStatus(id, model.UserStatusDeactivated)
}

// Reactivate 重新激活用户
func (s *userService) Reactivate(ctx context.Context, id uint) error {
	return s.setStatus(id, model.UserStatusActive)
}

// setStatus 更新用户状态
func (s *userService) setStatus(id uint, status string) error {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return err
	}
	user.Status = status
	return s.userRepo.Save(user)
}

// Delete 删除用户
func (s *userService) Delete(ctx context.Context, id uint) error {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return err
	}
	return s.userRepo.Delete(user)
}

// SetSignaturePath 保存用户签名图片路径
// 签名文件本身由上传层落盘,这里只记录路径供文档渲染使用
func (s *userService) SetSignaturePath(ctx context.Context, id uint, path string) error {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return err
	}
	user.SignaturePath = path
	return s.userRepo.Save(user)
}
