package api

import (
	"encoding/json"
	"net/http"

	"github.com/MontyPithon/bancroff/internal/repository"
	"github.com/gin-gonic/gin"
)

// FormController 表单定义控制器
// 暴露申请类型、表单 schema 与审批链配置,供前端渲染动态表单
type FormController struct {
	typeRepo     repository.RequestTypeRepository
	workflowRepo repository.WorkflowRepository
}

// NewFormController 创建表单定义控制器
func NewFormController(typeRepo repository.RequestTypeRepository, workflowRepo repository.WorkflowRepository) *FormController {
	return &FormController{
		typeRepo:     typeRepo,
		workflowRepo: workflowRepo,
	}
}

// formDefinition 单个申请类型的完整表单定义
type formDefinition struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	FormSchema  json.RawMessage `json:"form_schema"`
	Steps       []stepDefinition `json:"steps"`
}

// stepDefinition 审批链步骤定义
type stepDefinition struct {
	StepOrder int    `json:"step_order"`
	Name      string `json:"name"`
	Role      string `json:"role"`
}

// ListTypes 申请类型列表
func (c *FormController) ListTypes(ctx *gin.Context) {
	types, err := c.typeRepo.FindAll()
	if err != nil {
		AbortWithError(ctx, err)
		return
	}

	Success(ctx, types)
}

// GetDefinition 申请类型的表单定义
// 包含 JSON Schema 和该类型的审批链步骤
func (c *FormController) GetDefinition(ctx *gin.Context) {
	name := ctx.Param("name")
	if name == "" {
		Error(ctx, http.StatusBadRequest, "invalid type name", "name is required")
		return
	}

	requestType, err := c.typeRepo.FindByName(name)
	if err != nil {
		AbortWithError(ctx, err)
		return
	}

	definition := &formDefinition{
		ID:          requestType.ID,
		Name:        requestType.Name,
		Description: requestType.Description,
		FormSchema:  json.RawMessage(requestType.FormSchema),
	}

	workflow, err := c.workflowRepo.FindByRequestTypeID(requestType.ID)
	if err == nil {
		for _, step := range workflow.Steps {
			roleName := ""
			if step.ApproverRole != nil {
				roleName = step.ApproverRole.Name
			}
			definition.Steps = append(definition.Steps, stepDefinition{
				StepOrder: step.StepOrder,
				Name:      step.Name,
				Role:      roleName,
			})
		}
	}

	Success(ctx, definition)
}
