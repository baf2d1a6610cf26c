package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// PatternType categorizes the discrepancy shape an auto-resolution rule
// targets. Each pattern type implies a structural precondition checked
// before the rule's configured conditions are evaluated.
type PatternType string

const (
	PatternRounding PatternType = "rounding"
	PatternTiming   PatternType = "timing"
	PatternSynonym  PatternType = "synonym"
	PatternMapping  PatternType = "mapping"
)

// ActionType is what a matched auto-resolution rule does with a discrepancy.
type ActionType string

const (
	ActionAutoClose    ActionType = "auto_close"
	ActionSuggestFix   ActionType = "suggest_fix"
	ActionRouteToQueue ActionType = "route_to_queue"
)

// ConditionOperator is the closed operator set of the condition grammar.
type ConditionOperator string

const (
	OpEq       ConditionOperator = "eq"
	OpNeq      ConditionOperator = "neq"
	OpLt       ConditionOperator = "lt"
	OpLte      ConditionOperator = "lte"
	OpGt       ConditionOperator = "gt"
	OpGte      ConditionOperator = "gte"
	OpContains ConditionOperator = "contains"
	OpPrefix   ConditionOperator = "prefix"
)

// RuleCondition is one clause of the restricted condition grammar: a field,
// an operator and a literal value. A rule's condition_json is either a single
// clause or {"all": [clause, ...]} evaluated as a conjunction.
type RuleCondition struct {
	Field    string            `json:"field"`
	Operator ConditionOperator `json:"operator"`
	Value    json.RawMessage   `json:"value"`
	All      []RuleCondition   `json:"all,omitempty"`
}

// AutoResolutionRule is a configured pattern + action that lets the system
// close or suggest fixes for recurring, well-understood discrepancy patterns
// without human review.
type AutoResolutionRule struct {
	RuleID              string          `json:"ruleID"`
	Name                string          `json:"name"`
	PatternType         PatternType     `json:"patternType"`
	ConditionJSON       string          `json:"conditionJSON"`
	ActionType          ActionType      `json:"actionType"`
	ConfidenceThreshold decimal.Decimal `json:"confidenceThreshold"` // 0-100
	Priority            int             `json:"priority"`            // higher evaluates first
	IsActive            bool            `json:"isActive"`
	PropertyID          *string         `json:"propertyID"`    // nil = global
	StatementType       *DocumentType   `json:"statementType"` // nil = all statements
	AuditFields
}

// AppliesTo reports whether the rule's scope covers a property and statement.
func (r AutoResolutionRule) AppliesTo(propertyID string, docType DocumentType) bool {
	if r.PropertyID != nil && *r.PropertyID != propertyID {
		return false
	}
	if r.StatementType != nil && *r.StatementType != docType {
		return false
	}
	return true
}

// SuggestedTier maps the rule's action to the exception tier it argues for.
func (r AutoResolutionRule) SuggestedTier() ExceptionTier {
	switch r.ActionType {
	case ActionAutoClose, ActionSuggestFix:
		return Tier1AutoSuggest
	default:
		return Tier2Route
	}
}
