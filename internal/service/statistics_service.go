package service

import (
	"fmt"

	"github.com/MontyPithon/bancroff/internal/model"
	"gorm.io/gorm"
)

// StatisticsService 统计服务接口
// 管理端仪表盘的聚合统计,按需计算,不走 prometheus 采集器
type StatisticsService interface {
	RequestsByStatus() ([]*RequestCountByStatus, error)
	RequestsByType() ([]*RequestCountByType, error)
	DecisionStatistics() (*DecisionStatistics, error)
}

// RequestCountByStatus 按聚合状态统计申请数
type RequestCountByStatus struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// RequestCountByType 按申请类型统计申请数
type RequestCountByType struct {
	TypeName string `json:"type"`
	Count    int64  `json:"count"`
}

// DecisionStatistics 审批决策统计
type DecisionStatistics struct {
	TotalDecided        int64   `json:"total_decided"`
	ApprovedCount       int64   `json:"approved"`
	RejectedCount       int64   `json:"rejected"`
	ReturnedCount       int64   `json:"returned"`
	ApprovalRate        float64 `json:"approval_rate"`
	AvgDecisionDuration float64 `json:"avg_decision_seconds"`
}

// statisticsService 统计服务实现
type statisticsService struct {
	db *gorm.DB
}

// NewStatisticsService 创建统计服务
func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// RequestsByStatus 按聚合状态统计申请数
func (s *statisticsService) RequestsByStatus() ([]*RequestCountByStatus, error) {
	var results []*RequestCountByStatus
	err := s.db.Model(&model.RequestModel{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count requests by status: %w", err)
	}
	return results, nil
}

// RequestsByType 按申请类型统计申请数
func (s *statisticsService) RequestsByType() ([]*RequestCountByType, error) {
	var results []*RequestCountByType
	err := s.db.Model(&model.RequestModel{}).
		Select("request_types.name as type_name, COUNT(*) as count").
		Joins("JOIN request_types ON request_types.id = requests.type_id").
		Group("request_types.name").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count requests by type: %w", err)
	}
	return results, nil
}

// DecisionStatistics 统计已决策的账本条目
// 平均决策时长在程序内计算,避免依赖方言特定的时间函数
func (s *statisticsService) DecisionStatistics() (*DecisionStatistics, error) {
	var entries []*model.RequestApprovalModel
	err := s.db.
		Where("status <> ?", model.ApprovalStatusPending).
		Where("decided_at IS NOT NULL").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load decided approvals: %w", err)
	}

	stats := &DecisionStatistics{}
	var totalSeconds float64
	for _, entry := range entries {
		stats.TotalDecided++
		switch entry.Status {
		case model.ApprovalStatusApproved:
			stats.ApprovedCount++
		case model.ApprovalStatusRejected:
			stats.RejectedCount++
		case model.ApprovalStatusReturned:
			stats.ReturnedCount++
		}
		totalSeconds += entry.DecidedAt.Sub(entry.CreatedAt).Seconds()
	}
	if stats.TotalDecided > 0 {
		stats.ApprovalRate = float64(stats.ApprovedCount) / float64(stats.TotalDecided)
		stats.AvgDecisionDuration = totalSeconds / float64(stats.TotalDecided)
	}
	return stats, nil
}
