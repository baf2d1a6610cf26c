package dto

import (
	"time"

	"github.com/propfolio/recon_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// MaterialityConfigResponse mirrors domain.MaterialityConfig for the
// read-only admin listing. Threshold writes happen through the platform's
// administration surface, not here.
type MaterialityConfigResponse struct {
	ConfigID                 string          `json:"configID"`
	PropertyID               *string         `json:"propertyID"`
	StatementType            *string         `json:"statementType"`
	AccountCode              *string         `json:"accountCode"`
	AbsoluteThreshold        decimal.Decimal `json:"absoluteThreshold"`
	RelativeThresholdPercent decimal.Decimal `json:"relativeThresholdPercent"`
	RiskClass                string          `json:"riskClass"`
	ToleranceType            string          `json:"toleranceType"`
	EffectiveDate            time.Time       `json:"effectiveDate"`
	ExpiresAt                *time.Time      `json:"expiresAt"`
}

// ToMaterialityConfigResponse converts a domain config.
func ToMaterialityConfigResponse(c domain.MaterialityConfig) MaterialityConfigResponse {
	var stmt *string
	if c.StatementType != nil {
		s := string(*c.StatementType)
		stmt = &s
	}
	return MaterialityConfigResponse{
		ConfigID:                 c.ConfigID,
		PropertyID:               c.PropertyID,
		StatementType:            stmt,
		AccountCode:              c.AccountCode,
		AbsoluteThreshold:        c.AbsoluteThreshold,
		RelativeThresholdPercent: c.RelativeThresholdPercent,
		RiskClass:                string(c.RiskClass),
		ToleranceType:            string(c.ToleranceType),
		EffectiveDate:            c.EffectiveDate,
		ExpiresAt:                c.ExpiresAt,
	}
}

// AutoResolutionRuleResponse mirrors domain.AutoResolutionRule.
type AutoResolutionRuleResponse struct {
	RuleID              string          `json:"ruleID"`
	Name                string          `json:"name"`
	PatternType         string          `json:"patternType"`
	ConditionJSON       string          `json:"conditionJSON"`
	ActionType          string          `json:"actionType"`
	ConfidenceThreshold decimal.Decimal `json:"confidenceThreshold"`
	Priority            int             `json:"priority"`
	IsActive            bool            `json:"isActive"`
	PropertyID          *string         `json:"propertyID"`
	StatementType       *string         `json:"statementType"`
}

// ToAutoResolutionRuleResponse converts a domain rule.
func ToAutoResolutionRuleResponse(r domain.AutoResolutionRule) AutoResolutionRuleResponse {
	var stmt *string
	if r.StatementType != nil {
		s := string(*r.StatementType)
		stmt = &s
	}
	return AutoResolutionRuleResponse{
		RuleID:              r.RuleID,
		Name:                r.Name,
		PatternType:         string(r.PatternType),
		ConditionJSON:       r.ConditionJSON,
		ActionType:          string(r.ActionType),
		ConfidenceThreshold: r.ConfidenceThreshold,
		Priority:            r.Priority,
		IsActive:            r.IsActive,
		PropertyID:          r.PropertyID,
		StatementType:       stmt,
	}
}
