package api

import (
	"github.com/MontyPithon/bancroff/internal/service"
	"github.com/gin-gonic/gin"
)

// StatisticsController 统计控制器
type StatisticsController struct {
	statisticsService service.StatisticsService
}

// NewStatisticsController 创建统计控制器
func NewStatisticsController(statisticsService service.StatisticsService) *StatisticsController {
	return &StatisticsController{statisticsService: statisticsService}
}

// Overview 仪表盘统计总览
// @Summary 审批统计总览
// @Tags statistics
// @Produce json
// @Success 200 {object} Response
// @Router /api/v1/statistics [get]
func (ctrl *StatisticsController) Overview(c *gin.Context) {
	byStatus, err := ctrl.statisticsService.RequestsByStatus()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	byType, err := ctrl.statisticsService.RequestsByType()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	decisions, err := ctrl.statisticsService.DecisionStatistics()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	Success(c, gin.H{
		"requests_by_status": byStatus,
		"requests_by_type":   byType,
		"decisions":          decisions,
	})
}
