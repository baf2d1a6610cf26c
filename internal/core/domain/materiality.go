package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RiskClass is a coarse classification of an account code used to set
// default tolerances and escalation floors.
type RiskClass string

const (
	RiskCritical RiskClass = "critical"
	RiskHigh     RiskClass = "high"
	RiskMedium   RiskClass = "medium"
	RiskLow      RiskClass = "low"
)

// ToleranceType selects how a materiality threshold is applied.
type ToleranceType string

const (
	// ToleranceAbsolute: material when |difference| >= absolute threshold.
	ToleranceAbsolute ToleranceType = "absolute"
	// ToleranceRelative: material when |difference| >= percent of the base amount.
	ToleranceRelative ToleranceType = "relative"
	// ToleranceCombined: material only when both limits are exceeded.
	ToleranceCombined ToleranceType = "combined"
)

// MaterialityConfig is a threshold scope. Nil-able scope columns widen the
// scope: a nil PropertyID means the config applies to all properties, and so
// on. At most one active config may exist per exact scope key at a time.
type MaterialityConfig struct {
	ConfigID                 string          `json:"configID"`
	PropertyID               *string         `json:"propertyID"`    // nil = global
	StatementType            *DocumentType   `json:"statementType"` // nil = all statements
	AccountCode              *string         `json:"accountCode"`   // nil = statement-level default
	AbsoluteThreshold        decimal.Decimal `json:"absoluteThreshold"`
	RelativeThresholdPercent decimal.Decimal `json:"relativeThresholdPercent"`
	RiskClass                RiskClass       `json:"riskClass"`
	ToleranceType            ToleranceType   `json:"toleranceType"`
	EffectiveDate            time.Time       `json:"effectiveDate"`
	ExpiresAt                *time.Time      `json:"expiresAt"` // nil = open-ended
	AuditFields
}

// ActiveAt reports whether the config is effective at the given instant.
func (c MaterialityConfig) ActiveAt(now time.Time) bool {
	if now.Before(c.EffectiveDate) {
		return false
	}
	if c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) {
		return false
	}
	return true
}

// AccountRiskClass maps an account-code pattern to a risk class and a default
// tolerance, used as a fallback when no MaterialityConfig covers the account.
type AccountRiskClass struct {
	RiskClassID        string          `json:"riskClassID"`
	AccountCodePattern string          `json:"accountCodePattern"` // prefix pattern, "4*" style
	RiskClass          RiskClass       `json:"riskClass"`
	DefaultTolerance   decimal.Decimal `json:"defaultTolerance"`
	Description        string          `json:"description"`
	AuditFields
}

// Matches reports whether the pattern covers the given account code.
// Patterns are literal codes or a prefix followed by '*'.
func (rc AccountRiskClass) Matches(accountCode string) bool {
	p := rc.AccountCodePattern
	if p == "" {
		return false
	}
	if p[len(p)-1] == '*' {
		prefix := p[:len(p)-1]
		return len(accountCode) >= len(prefix) && accountCode[:len(prefix)] == prefix
	}
	return accountCode == p
}

// MaterialityDecision is the resolved policy for one record: which threshold
// applies and how, plus the risk class driving escalation floors.
type MaterialityDecision struct {
	AbsoluteThreshold        decimal.Decimal `json:"absoluteThreshold"`
	RelativeThresholdPercent decimal.Decimal `json:"relativeThresholdPercent"`
	ToleranceType            ToleranceType   `json:"toleranceType"`
	RiskClass                RiskClass       `json:"riskClass"`
	SourceConfigID           string          `json:"sourceConfigID"` // empty when resolved from risk-class fallback or global default
}

// IsMaterial applies the decision's tolerance policy to an amount difference
// against a base amount (the larger of the two sides, for relative checks).
func (d MaterialityDecision) IsMaterial(difference, base decimal.Decimal) bool {
	abs := difference.Abs()
	absExceeded := abs.GreaterThanOrEqual(d.AbsoluteThreshold)
	relExceeded := false
	if base.Abs().IsPositive() {
		limit := base.Abs().Mul(d.RelativeThresholdPercent).Div(decimal.NewFromInt(100))
		relExceeded = abs.GreaterThanOrEqual(limit)
	} else {
		// No base to compare against: treat relative as exceeded when there
		// is any difference at all.
		relExceeded = abs.IsPositive()
	}
	switch d.ToleranceType {
	case ToleranceRelative:
		return relExceeded
	case ToleranceCombined:
		return absExceeded && relExceeded
	default:
		return absExceeded
	}
}
