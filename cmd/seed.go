/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"log"

	"github.com/MontyPithon/bancroff/internal/config"
	"github.com/MontyPithon/bancroff/internal/database"
	"github.com/MontyPithon/bancroff/internal/model"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// rclFormSchema RCL（减少课程负荷）申请的表单 JSON Schema
const rclFormSchema = `{
	"title": "Reduced Course Load (RCL) Form",
	"description": "Form for requesting reduced course load for graduate students",
	"type": "object",
	"properties": {
		"iai": {
			"title": "Initial Adjustment Issues (IAI)",
			"type": "array",
			"items": {"type": "string", "enum": ["english", "reading", "teaching"]},
			"uniqueItems": true
		},
		"iclp": {"title": "Improper Course Level Placement (ICLP)", "type": "boolean", "default": false},
		"medical": {"title": "Medical Reason", "type": "boolean", "default": false},
		"letter_attached": {"title": "Letter from licensed medical professional is attached", "type": "boolean", "default": false},
		"track": {"title": "Track Selection", "type": "string", "enum": ["non_thesis", "thesis"]},
		"non_thesis_hours": {"title": "Hours needed for Non-Thesis Track", "type": "integer", "minimum": 1, "maximum": 8},
		"thesis_hours": {"title": "Hours needed for Thesis Track", "type": "integer", "minimum": 1, "maximum": 8},
		"semester": {"title": "Semester", "type": "string", "enum": ["fall", "spring"]},
		"fall_year": {"title": "Fall Year", "type": "string", "pattern": "^[0-9]{2}$"},
		"spring_year": {"title": "Spring Year", "type": "string", "pattern": "^[0-9]{2}$"},
		"course1": {"title": "Course 1 to drop", "type": "string"},
		"course2": {"title": "Course 2 to drop", "type": "string"},
		"course3": {"title": "Course 3 to drop", "type": "string"},
		"remaining_hours": {"title": "Remaining hours after drop", "type": "integer", "minimum": 1, "maximum": 9},
		"name": {"title": "Student Name", "type": "string"},
		"ps_id": {"title": "PS ID", "type": "string"},
		"signature_date": {"title": "Date", "type": "string", "format": "date"}
	},
	"required": ["ps_id", "signature_date"]
}`

// withdrawalFormSchema 医疗/行政学期退学申请的表单 JSON Schema
const withdrawalFormSchema = `{
	"title": "Medical/Administrative Term Withdrawal Request Form",
	"description": "Form for requesting withdrawal from all courses for a specific term",
	"type": "object",
	"properties": {
		"myUHID": {"title": "myUH ID", "type": "string"},
		"college": {"title": "College", "type": "string"},
		"planDegree": {"title": "Plan/Degree", "type": "string"},
		"address": {"title": "Current Mailing Address", "type": "string"},
		"phoneNumber": {"title": "Phone Number", "type": "string"},
		"termYear": {"title": "Term for withdrawal", "type": "string"},
		"reason": {"title": "Reason for Request", "type": "string"},
		"lastDateAttended": {"title": "Last Date Attended Classes", "type": "string", "format": "date"},
		"financialAssistance": {"title": "Received financial assistance?", "type": "boolean", "default": false},
		"studentHealthInsurance": {"title": "Have UH student health insurance?", "type": "boolean", "default": false},
		"campusHousing": {"title": "Live in campus housing?", "type": "boolean", "default": false},
		"visaStatus": {"title": "Hold F1 or J1 Visa?", "type": "boolean", "default": false},
		"giBillBenefits": {"title": "Using G.I. Bill benefits?", "type": "boolean", "default": false},
		"withdrawalType": {"title": "Type of Withdrawal", "type": "string", "enum": ["medical", "administrative"]}
	},
	"required": ["myUHID", "termYear", "reason"]
}`

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed roles, request types and approval workflows",
	Long: `Seed the database with the data the approval engine needs to run:
- Base roles (admin, basic_user) and approver roles (advisor, chair, dean)
- The RCL and Withdrawal request types with their form schemas
- A three-step approval workflow (advisor -> chair -> dean) for each type

The command is idempotent: existing rows are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect database: %w", err)
		}
		defer func() {
			sqlDB, _ := db.DB()
			if sqlDB != nil {
				sqlDB.Close()
			}
		}()

		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		if err := Seed(db); err != nil {
			return fmt.Errorf("failed to seed database: %w", err)
		}

		log.Println("Database seeded successfully!")
		return nil
	},
}

// Seed 写入角色、申请类型和审批流程的基础数据,幂等
func Seed(db *gorm.DB) error {
	roles := map[string]string{
		"admin":      "Administrator role with full permissions",
		"basic_user": "Regular user role with limited permissions",
		"advisor":    "Academic Advisor role",
		"chair":      "Department Chair role",
		"dean":       "College Dean role",
	}
	for name, description := range roles {
		if err := ensureRole(db, name, description); err != nil {
			return err
		}
	}

	if err := seedRequestType(db, "RCL",
		"Reduced Course Load request for graduate students",
		rclFormSchema, "RCL Approval",
		"Approval workflow for Reduced Course Load requests"); err != nil {
		return err
	}

	return seedRequestType(db, "Withdrawal",
		"Medical/Administrative Term Withdrawal request",
		withdrawalFormSchema, "Withdrawal Approval",
		"Approval workflow for Term Withdrawal requests")
}

// ensureRole 确保角色存在
func ensureRole(db *gorm.DB, name, description string) error {
	var role model.RoleModel
	err := db.Where("name = ?", name).First(&role).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return db.Create(&model.RoleModel{Name: name, Description: description}).Error
}

// seedRequestType 创建申请类型及其三步审批链
func seedRequestType(db *gorm.DB, typeName, typeDescription, formSchema, workflowName, workflowDescription string) error {
	var requestType model.RequestTypeModel
	err := db.Where("name = ?", typeName).First(&requestType).Error
	if err == gorm.ErrRecordNotFound {
		requestType = model.RequestTypeModel{
			Name:        typeName,
			Description: typeDescription,
			FormSchema:  []byte(formSchema),
		}
		if err := db.Create(&requestType).Error; err != nil {
			return err
		}
		log.Printf("%s request type added", typeName)
	} else if err != nil {
		return err
	}

	var workflow model.ApprovalWorkflowModel
	err = db.Where("request_type_id = ? AND name = ?", requestType.ID, workflowName).First(&workflow).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	advisorID, err := roleID(db, "advisor")
	if err != nil {
		return err
	}
	chairID, err := roleID(db, "chair")
	if err != nil {
		return err
	}
	deanID, err := roleID(db, "dean")
	if err != nil {
		return err
	}

	workflow = model.ApprovalWorkflowModel{
		RequestTypeID: requestType.ID,
		Name:          workflowName,
		Description:   workflowDescription,
	}
	if err := db.Create(&workflow).Error; err != nil {
		return err
	}

	steps := []*model.ApprovalStepModel{
		{WorkflowID: workflow.ID, StepOrder: 1, ApproverRoleID: advisorID, Name: "Academic Advisor Approval"},
		{WorkflowID: workflow.ID, StepOrder: 2, ApproverRoleID: chairID, Name: "Department Chair Approval"},
		{WorkflowID: workflow.ID, StepOrder: 3, ApproverRoleID: deanID, Name: "College Dean Approval"},
	}
	for _, step := range steps {
		if err := db.Create(step).Error; err != nil {
			return err
		}
	}

	log.Printf("%s approval workflow and steps added", typeName)
	return nil
}

// roleID 按名称取角色 ID
func roleID(db *gorm.DB, name string) (uint, error) {
	var role model.RoleModel
	if err := db.Where("name = ?", name).First(&role).Error; err != nil {
		return 0, fmt.Errorf("role %q not found: %w", name, err)
	}
	return role.ID, nil
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().String("config", "", "Config file path (default: config.yaml)")
}
