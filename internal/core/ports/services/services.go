package services

import (
	"context"

	"github.com/propfolio/recon_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// MaterialityResolverSvc resolves the threshold policy for one record scope.
type MaterialityResolverSvc interface {
	// Resolve picks the most specific active config for the given scope,
	// falling back to risk-class defaults and finally the global default.
	Resolve(ctx context.Context, snapshot *domain.ConfigSnapshot, propertyID string, docType domain.DocumentType, accountCode string) domain.MaterialityDecision
}

// TierClassifierSvc assigns exception tiers to discrepancies.
type TierClassifierSvc interface {
	// Classify returns the tier and severity for a discrepancy given its
	// materiality decision and any matched auto-resolution rule.
	Classify(ctx context.Context, disc domain.Discrepancy, decision domain.MaterialityDecision, base decimal.Decimal, matchedRule *domain.AutoResolutionRule) (domain.ExceptionTier, domain.Severity)
}

// AutoResolutionSvc evaluates configured pattern rules against discrepancies.
type AutoResolutionSvc interface {
	// Evaluate returns the highest-priority active rule whose structural
	// precondition and conditions match and whose confidence threshold is
	// satisfied, or nil when no rule applies.
	Evaluate(ctx context.Context, snapshot *domain.ConfigSnapshot, disc domain.Discrepancy, propertyID string) *domain.AutoResolutionRule
}

// ReconciliationSvc drives reconciliation sessions.
type ReconciliationSvc interface {
	// RunSession reconciles one property and period and persists the result.
	RunSession(ctx context.Context, propertyID string, period domain.Period, userID string) (*domain.SessionResult, error)

	// GetSession retrieves a persisted session result.
	GetSession(ctx context.Context, sessionID string) (*domain.SessionResult, error)

	// ListDiscrepancies lists a session's discrepancies, optionally by tier.
	ListDiscrepancies(ctx context.Context, sessionID string, tier domain.ExceptionTier) ([]domain.Discrepancy, error)

	// ResolveDiscrepancy applies a governance status transition.
	ResolveDiscrepancy(ctx context.Context, discrepancyID string, status domain.ResolutionStatus, userID string) error
}

// BatchRequest identifies one session inside a batch run.
type BatchRequest struct {
	PropertyID string        `json:"propertyID"`
	Period     domain.Period `json:"period"`
}

// BatchOutcome is the per-session result of a batch run.
type BatchOutcome struct {
	PropertyID string        `json:"propertyID"`
	Period     domain.Period `json:"period"`
	SessionID  string        `json:"sessionID,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// BatchResult aggregates a fan-out of independent sessions.
type BatchResult struct {
	Succeeded          int            `json:"succeeded"`
	Failed             int            `json:"failed"`
	Skipped            int            `json:"skipped"`
	TotalMatches       int            `json:"totalMatches"`
	TotalDiscrepancies int            `json:"totalDiscrepancies"`
	Outcomes           []BatchOutcome `json:"outcomes"`
}

// BatchSvc fans out many independent sessions.
type BatchSvc interface {
	// RunBatch runs the requested sessions with bounded parallelism. One
	// session's failure is counted, not propagated.
	RunBatch(ctx context.Context, requests []BatchRequest, userID string) (*BatchResult, error)
}
