package services

import (
	"context"

	"github.com/propfolio/recon_backend/internal/core/domain"
	portssvc "github.com/propfolio/recon_backend/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// tierClassifierImpl turns a discrepancy plus its materiality context into
// one of the four exception tiers. Four terminal states, no intermediate
// transitions: immaterial differences short-circuit to tier 0 regardless of
// risk class or matched rules. For material differences the tier is the
// minimum of the rule-suggested tier and the risk-class floor tier, so a
// high-confidence auto-resolution rule can keep a critical account at
// tier 1, but absent such a rule the risk class decides the routing.
type tierClassifierImpl struct {
	BaseService
}

// NewTierClassifier creates the exception tier classifier service.
func NewTierClassifier() portssvc.TierClassifierSvc {
	return &tierClassifierImpl{}
}

var _ portssvc.TierClassifierSvc = (*tierClassifierImpl)(nil)

// riskFloorTier is where a material discrepancy routes when no rule argues
// otherwise. Critical accounts and critical severities go to committee.
func riskFloorTier(rc domain.RiskClass, severity domain.Severity) domain.ExceptionTier {
	if rc == domain.RiskCritical || severity == domain.SeverityCritical {
		return domain.Tier3Escalate
	}
	return domain.Tier2Route
}

func (s *tierClassifierImpl) Classify(ctx context.Context, disc domain.Discrepancy, decision domain.MaterialityDecision, base decimal.Decimal, matchedRule *domain.AutoResolutionRule) (domain.ExceptionTier, domain.Severity) {
	severity := deriveSeverity(disc.AmountDifference, decision.AbsoluteThreshold)

	if !decision.IsMaterial(disc.AmountDifference, base) {
		return domain.Tier0AutoClose, severity
	}

	tier := riskFloorTier(decision.RiskClass, severity)
	if matchedRule != nil {
		if ruleTier := matchedRule.SuggestedTier(); domain.TierRank(ruleTier) < domain.TierRank(tier) {
			tier = ruleTier
		}
	}
	return tier, severity
}

// deriveSeverity grades the discrepancy by how many multiples of the
// absolute threshold the difference represents.
func deriveSeverity(difference, threshold decimal.Decimal) domain.Severity {
	abs := difference.Abs()
	if threshold.IsZero() || threshold.IsNegative() {
		if abs.IsZero() {
			return domain.SeverityLow
		}
		return domain.SeverityHigh
	}
	ratio := abs.Div(threshold)
	switch {
	case ratio.GreaterThanOrEqual(decimal.NewFromInt(10)):
		return domain.SeverityCritical
	case ratio.GreaterThanOrEqual(decimal.NewFromInt(5)):
		return domain.SeverityHigh
	case ratio.GreaterThanOrEqual(decimal.NewFromInt(2)):
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}
