package repository

import (
	"strings"

	"github.com/MontyPithon/bancroff/internal/model"
	"gorm.io/gorm"
)

// UserRepository 用户仓储接口
type UserRepository interface {
	Save(user *model.UserModel) error
	FindByID(id uint) (*model.UserModel, error)
	FindByEmail(email string) (*model.UserModel, error)
	FindAll() ([]*model.UserModel, error)
	Delete(user *model.UserModel) error
}

// userRepository 用户仓储实现
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Save 保存用户
func (r *userRepository) Save(user *model.UserModel) error {
	return r.db.Save(user).Error
}

// FindByID 根据 ID 查找用户
func (r *userRepository) FindByID(id uint) (*model.UserModel, error) {
	var user model.UserModel
	if err := r.db.Preload("Role").Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail 根据邮箱查找用户
// 身份层用小写邮箱解析会话用户
func (r *userRepository) FindByEmail(email string) (*model.UserModel, error) {
	var user model.UserModel
	if err := r.db.Preload("Role").Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindAll 查找所有用户
func (r *userRepository) FindAll() ([]*model.UserModel, error) {
	var users []*model.UserModel
	err := r.db.Preload("Role").Order("created_at DESC").Find(&users).Error
	return users, err
}

// Delete 删除用户
func (r *userRepository) Delete(user *model.UserModel) error {
	return r.db.Delete(user).Error
}
