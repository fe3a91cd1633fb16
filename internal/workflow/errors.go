package workflow

import (
	"errors"
	"fmt"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// ConfigurationError 流程配置错误
// 申请类型没有定义流程或流程没有步骤时返回
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("workflow configuration error: %s", e.Reason)
}

// PermissionDeniedError 权限不足
// 必须携带所需角色名称,调用方向用户展示
type PermissionDeniedError struct {
	RequiredRole string
}

func (e *PermissionDeniedError) Error() string {
	if e.RequiredRole == "" {
		return "permission denied"
	}
	return fmt.Sprintf("permission denied: required role %q", e.RequiredRole)
}

// InvalidStateError 状态不允许该操作
// 重复点击或过期页面是常见的良性来源,调用方按警告级别处理
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state: %s", e.Reason)
}

// PersistenceError 持久化失败
// 事务已整体回滚,账本和聚合状态保持调用前的样子
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsConfigurationError 判断是否为配置错误
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsPermissionDenied 判断是否为权限错误
func IsPermissionDenied(err error) bool {
	var target *PermissionDeniedError
	return errors.As(err, &target)
}

// IsInvalidState 判断是否为状态错误
func IsInvalidState(err error) bool {
	var target *InvalidStateError
	return errors.As(err, &target)
}
