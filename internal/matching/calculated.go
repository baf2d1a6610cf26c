package matching

import (
	"context"
	"log/slog"

	"github.com/propfolio/recon_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RuleResult is the outcome of one cross-document rule evaluation. The
// confidence is fixed by the rule author, not computed ad hoc.
type RuleResult struct {
	SourceRecord     domain.FinancialRecord
	TargetRecords    []domain.FinancialRecord
	SourceValue      decimal.Decimal
	TargetValue      decimal.Decimal
	RelationshipType domain.RelationshipType
	Formula          string
	Confidence       decimal.Decimal
}

// CrossDocRule is one named accounting identity between two statement types.
// Evaluate returns (nil, false) when the rule does not produce a match for
// the given record sets; that is the normal outcome for statements the rule
// does not recognize and is never an error.
type CrossDocRule interface {
	Name() string
	SourceDocument() domain.DocumentType
	TargetDocument() domain.DocumentType
	Evaluate(source, target []domain.FinancialRecord) (*RuleResult, bool)
}

// CalculatedMatchEngine runs a catalogue of cross-document rules. A
// panicking rule is recovered and treated as no-match: a single malformed
// rule must never abort a reconciliation session.
type CalculatedMatchEngine struct {
	rules  []CrossDocRule
	logger *slog.Logger
}

func NewCalculatedMatchEngine(rules []CrossDocRule, logger *slog.Logger) *CalculatedMatchEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &CalculatedMatchEngine{rules: rules, logger: logger}
}

var _ Engine = (*CalculatedMatchEngine)(nil)

func (e *CalculatedMatchEngine) MatchType() domain.MatchType {
	return domain.MatchCalculated
}

func (e *CalculatedMatchEngine) Match(_ context.Context, source, target []domain.FinancialRecord, claimed map[string]bool, _ Params) []domain.MatchCandidate {
	srcs := unclaimed(source, claimed)
	tgts := unclaimed(target, claimed)
	if len(srcs) == 0 || len(tgts) == 0 {
		return nil
	}

	var candidates []domain.MatchCandidate
	for _, rule := range e.rules {
		result, ok := e.evaluate(rule, srcs, tgts)
		if !ok {
			continue
		}
		targetIDs := make([]string, 0, len(result.TargetRecords))
		for _, t := range result.TargetRecords {
			targetIDs = append(targetIDs, t.RecordID)
		}
		candidates = append(candidates, domain.MatchCandidate{
			MatchType:           domain.MatchCalculated,
			SourceRecordID:      result.SourceRecord.RecordID,
			TargetRecordIDs:     targetIDs,
			ConfidenceScore:     result.Confidence,
			AmountDifference:    result.SourceValue.Sub(result.TargetValue),
			RelationshipType:    result.RelationshipType,
			RelationshipFormula: result.Formula,
		})
	}
	return candidates
}

// evaluate shields the session from rule bugs. Recovered panics are logged
// and converted to no-match.
func (e *CalculatedMatchEngine) evaluate(rule CrossDocRule, source, target []domain.FinancialRecord) (result *RuleResult, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("cross-document rule panicked, treating as no match",
				slog.String("rule", rule.Name()),
				slog.Any("panic", r))
			result = nil
			ok = false
		}
	}()
	return rule.Evaluate(source, target)
}
