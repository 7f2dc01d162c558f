package model

import "github.com/google/uuid"

// Workflow trigger fields
const (
	TriggerFieldDealValue   = "deal_value"
	TriggerFieldProbability = "probability"
	TriggerFieldStage       = "stage"
	TriggerFieldIsStale     = "is_stale"
	TriggerFieldColdPool    = "cold_pool"
)

// Workflow trigger operators
const (
	TriggerOpGT       = "gt"
	TriggerOpGTE      = "gte"
	TriggerOpLT       = "lt"
	TriggerOpLTE      = "lte"
	TriggerOpEQ       = "eq"
	TriggerOpNEQ      = "neq"
	TriggerOpContains = "contains"
)

// Workflow action types
const (
	ActionCCManager        = "cc_manager"
	ActionSendNotification = "send_notification"
	ActionChangeStage      = "change_stage"
	ActionAssignTo         = "assign_to"
)

// WorkflowRule is an admin-defined IF/THEN automation matched against
// deal fields on every deal write.
type WorkflowRule struct {
	Base
	Name         string    `json:"name" db:"name"`
	Active       bool      `json:"active" db:"active"`
	TriggerField string    `json:"trigger_field" db:"trigger_field"`
	TriggerOp    string    `json:"trigger_op" db:"trigger_op"`
	TriggerValue string    `json:"trigger_value" db:"trigger_value"`
	ActionType   string    `json:"action_type" db:"action_type"`
	ActionValue  *string   `json:"action_value" db:"action_value"`
	CreatedBy    uuid.UUID `json:"created_by" db:"created_by"`
}

// RuleMatch describes one triggered rule for a deal. The evaluator
// reports matches; acting on them is the caller's job.
type RuleMatch struct {
	RuleID      uuid.UUID `json:"rule_id"`
	RuleName    string    `json:"rule_name"`
	ActionType  string    `json:"action_type"`
	ActionValue *string   `json:"action_value"`
}

// CreateWorkflowRuleRequest represents rule creation parameters
type CreateWorkflowRuleRequest struct {
	Name         string  `json:"name" binding:"required"`
	TriggerField string  `json:"trigger_field" binding:"required,oneof=deal_value probability stage is_stale cold_pool"`
	TriggerOp    string  `json:"trigger_op" binding:"required,oneof=gt gte lt lte eq neq contains"`
	TriggerValue string  `json:"trigger_value" binding:"required"`
	ActionType   string  `json:"action_type" binding:"required,oneof=cc_manager send_notification change_stage assign_to"`
	ActionValue  *string `json:"action_value"`
}

// UpdateWorkflowRuleRequest represents rule update parameters
type UpdateWorkflowRuleRequest struct {
	Name         *string `json:"name"`
	Active       *bool   `json:"active"`
	TriggerField *string `json:"trigger_field" binding:"omitempty,oneof=deal_value probability stage is_stale cold_pool"`
	TriggerOp    *string `json:"trigger_op" binding:"omitempty,oneof=gt gte lt lte eq neq contains"`
	TriggerValue *string `json:"trigger_value"`
	ActionType   *string `json:"action_type" binding:"omitempty,oneof=cc_manager send_notification change_stage assign_to"`
	ActionValue  *string `json:"action_value"`
}
