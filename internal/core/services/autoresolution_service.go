package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"

	"github.com/propfolio/recon_backend/internal/core/domain"
	portssvc "github.com/propfolio/recon_backend/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// autoResolutionImpl evaluates configured pattern rules against a
// discrepancy. Rules run in descending priority order; the first rule whose
// structural precondition and conditions match and whose confidence
// threshold is satisfied wins. A rule with unparseable condition_json is
// skipped with a warning, never a session failure.
type autoResolutionImpl struct {
	BaseService
}

// NewAutoResolutionEngine creates the auto-resolution rule engine service.
func NewAutoResolutionEngine() portssvc.AutoResolutionSvc {
	return &autoResolutionImpl{}
}

var _ portssvc.AutoResolutionSvc = (*autoResolutionImpl)(nil)

func (s *autoResolutionImpl) Evaluate(ctx context.Context, snapshot *domain.ConfigSnapshot, disc domain.Discrepancy, propertyID string) *domain.AutoResolutionRule {
	if snapshot == nil {
		return nil
	}

	rules := make([]domain.AutoResolutionRule, 0, len(snapshot.AutoResolutionRules))
	for _, rule := range snapshot.AutoResolutionRules {
		if rule.IsActive && rule.AppliesTo(propertyID, disc.DocumentType) {
			rules = append(rules, rule)
		}
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})

	for i := range rules {
		rule := rules[i]
		if !patternPrecondition(rule.PatternType, disc) {
			continue
		}
		cond, err := parseCondition(rule.ConditionJSON)
		if err != nil {
			s.LogWarn(ctx, "Skipping auto-resolution rule with malformed condition",
				slog.String("rule_id", rule.RuleID),
				slog.String("error", err.Error()))
			continue
		}
		if cond != nil && !evalCondition(*cond, disc) {
			continue
		}
		if disc.MatchConfidence.LessThan(rule.ConfidenceThreshold) {
			continue
		}
		return &rule
	}
	return nil
}

// patternPrecondition is the structural shape check implied by the rule's
// pattern type, applied before the configured conditions.
func patternPrecondition(pt domain.PatternType, disc domain.Discrepancy) bool {
	switch pt {
	case domain.PatternRounding:
		return disc.AmountDifference.Abs().LessThan(decimal.NewFromInt(1))
	case domain.PatternTiming:
		return disc.CounterpartRecordID != ""
	case domain.PatternSynonym:
		return disc.AccountName != ""
	case domain.PatternMapping:
		return disc.AccountCode != ""
	default:
		return false
	}
}

// parseCondition decodes the restricted condition grammar. An empty
// condition_json means "no further conditions".
func parseCondition(raw string) (*domain.RuleCondition, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "{}" {
		return nil, nil
	}
	var cond domain.RuleCondition
	if err := json.Unmarshal([]byte(trimmed), &cond); err != nil {
		return nil, err
	}
	return &cond, nil
}

// evalCondition interprets one clause, or a conjunction of clauses.
// Unknown fields and operators evaluate to false, keeping behavior
// auditable: a typo in a rule can only make the rule narrower.
func evalCondition(cond domain.RuleCondition, disc domain.Discrepancy) bool {
	if len(cond.All) > 0 {
		for _, sub := range cond.All {
			if !evalCondition(sub, disc) {
				return false
			}
		}
		return true
	}

	switch cond.Field {
	case "amount_difference":
		return evalNumeric(cond, disc.AmountDifference)
	case "abs_amount_difference":
		return evalNumeric(cond, disc.AmountDifference.Abs())
	case "match_confidence":
		return evalNumeric(cond, disc.MatchConfidence)
	case "account_code":
		return evalText(cond, disc.AccountCode)
	case "account_name":
		return evalText(cond, disc.AccountName)
	case "statement_type":
		return evalText(cond, string(disc.DocumentType))
	default:
		return false
	}
}

func evalNumeric(cond domain.RuleCondition, actual decimal.Decimal) bool {
	var raw json.Number
	if err := json.Unmarshal(cond.Value, &raw); err != nil {
		return false
	}
	expected, err := decimal.NewFromString(raw.String())
	if err != nil {
		return false
	}
	switch cond.Operator {
	case domain.OpEq:
		return actual.Equal(expected)
	case domain.OpNeq:
		return !actual.Equal(expected)
	case domain.OpLt:
		return actual.LessThan(expected)
	case domain.OpLte:
		return actual.LessThanOrEqual(expected)
	case domain.OpGt:
		return actual.GreaterThan(expected)
	case domain.OpGte:
		return actual.GreaterThanOrEqual(expected)
	default:
		return false
	}
}

func evalText(cond domain.RuleCondition, actual string) bool {
	var expected string
	if err := json.Unmarshal(cond.Value, &expected); err != nil {
		return false
	}
	actualFold := strings.ToLower(actual)
	expectedFold := strings.ToLower(expected)
	switch cond.Operator {
	case domain.OpEq:
		return actualFold == expectedFold
	case domain.OpNeq:
		return actualFold != expectedFold
	case domain.OpContains:
		return strings.Contains(actualFold, expectedFold)
	case domain.OpPrefix:
		return strings.HasPrefix(actualFold, expectedFold)
	default:
		return false
	}
}
