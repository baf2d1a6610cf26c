package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/propfolio/recon_backend/internal/core/domain"
	portssvc "github.com/propfolio/recon_backend/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// defaultMaterialityDecision is the last-resort global policy when neither a
// config nor a risk-class fallback covers an account.
func defaultMaterialityDecision() domain.MaterialityDecision {
	return domain.MaterialityDecision{
		AbsoluteThreshold:        decimal.NewFromInt(100),
		RelativeThresholdPercent: decimal.NewFromInt(5),
		ToleranceType:            domain.ToleranceAbsolute,
		RiskClass:                domain.RiskMedium,
	}
}

// materialityResolverImpl resolves the applicable threshold policy for a
// property/statement/account combination with scoped precedence and
// effective-dating. Pure lookup over the session's config snapshot; no state.
type materialityResolverImpl struct {
	BaseService
	now func() time.Time
}

// NewMaterialityResolver creates the materiality resolver service.
func NewMaterialityResolver() portssvc.MaterialityResolverSvc {
	return &materialityResolverImpl{now: time.Now}
}

var _ portssvc.MaterialityResolverSvc = (*materialityResolverImpl)(nil)

// scopeRank orders configs from most to least specific. Lower is better.
// Precedence: (prop, stmt, acct) > (prop, stmt, -) > (prop, -, -) >
// (-, stmt, acct) > (-, stmt, -) > (-, -, -).
func scopeRank(c domain.MaterialityConfig) int {
	hasProp := c.PropertyID != nil
	hasStmt := c.StatementType != nil
	hasAcct := c.AccountCode != nil
	switch {
	case hasProp && hasStmt && hasAcct:
		return 0
	case hasProp && hasStmt:
		return 1
	case hasProp && !hasAcct:
		return 2
	case !hasProp && hasStmt && hasAcct:
		return 3
	case !hasProp && hasStmt:
		return 4
	case !hasProp && !hasStmt && !hasAcct:
		return 5
	default:
		// Odd shapes like (prop, -, acct) are treated as malformed scopes
		// and never win over well-formed ones.
		return 6
	}
}

func (s *materialityResolverImpl) Resolve(ctx context.Context, snapshot *domain.ConfigSnapshot, propertyID string, docType domain.DocumentType, accountCode string) domain.MaterialityDecision {
	if snapshot == nil {
		return defaultMaterialityDecision()
	}
	now := s.now()

	best := -1
	bestRank := 7
	for i, cfg := range snapshot.MaterialityConfigs {
		if !cfg.ActiveAt(now) {
			continue
		}
		if cfg.AbsoluteThreshold.IsNegative() || cfg.RelativeThresholdPercent.IsNegative() {
			s.LogWarn(ctx, "Skipping malformed materiality config",
				slog.String("config_id", cfg.ConfigID))
			continue
		}
		if cfg.PropertyID != nil && *cfg.PropertyID != propertyID {
			continue
		}
		if cfg.StatementType != nil && *cfg.StatementType != docType {
			continue
		}
		if cfg.AccountCode != nil && *cfg.AccountCode != accountCode {
			continue
		}
		if rank := scopeRank(cfg); rank < bestRank {
			bestRank = rank
			best = i
		}
	}

	if best >= 0 {
		cfg := snapshot.MaterialityConfigs[best]
		return domain.MaterialityDecision{
			AbsoluteThreshold:        cfg.AbsoluteThreshold,
			RelativeThresholdPercent: cfg.RelativeThresholdPercent,
			ToleranceType:            cfg.ToleranceType,
			RiskClass:                cfg.RiskClass,
			SourceConfigID:           cfg.ConfigID,
		}
	}

	// No config covers the account: fall back to the account risk class
	// default tolerance, then the built-in global default.
	for _, rc := range snapshot.AccountRiskClasses {
		if rc.Matches(accountCode) {
			decision := defaultMaterialityDecision()
			decision.AbsoluteThreshold = rc.DefaultTolerance
			decision.RiskClass = rc.RiskClass
			s.LogDebug(ctx, "Materiality resolved from account risk class",
				slog.String("account_code", accountCode),
				slog.String("risk_class", string(rc.RiskClass)))
			return decision
		}
	}
	return defaultMaterialityDecision()
}
