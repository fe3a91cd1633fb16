package model

import (
	"errors"
	"time"
)

// RequestTypeModel 申请类型数据模型
// 申请类型(如 RCL、Withdrawal)在初始化时创建,之后只读
type RequestTypeModel struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"`
	Name            string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	Description     string    `gorm:"type:text"`
	FormSchema      []byte    `gorm:"type:jsonb"` // 表单 JSON Schema,由表单层消费
	TemplateDocPath string    `gorm:"type:varchar(255)"` // 文档渲染模板路径
	CreatedAt       time.Time `gorm:"not null"`
}

// TableName 指定表名
func (RequestTypeModel) TableName() string {
	return "request_types"
}

// Validate 验证申请类型模型
func (rtm *RequestTypeModel) Validate() error {
	if rtm.Name == "" {
		return errors.New("request type name is required")
	}
	return nil
}
