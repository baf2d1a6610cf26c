package matching

import (
	"context"
	"fmt"

	"github.com/propfolio/recon_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ExactMatchEngine pairs records whose account codes are identical and whose
// amounts agree within tolerance. Exact matches always score 100.
type ExactMatchEngine struct{}

func NewExactMatchEngine() *ExactMatchEngine {
	return &ExactMatchEngine{}
}

var _ Engine = (*ExactMatchEngine)(nil)

func (e *ExactMatchEngine) MatchType() domain.MatchType {
	return domain.MatchExact
}

// Match emits at most one candidate per source record: the first qualifying
// target in input order, with ties broken by the smallest amount difference.
// Each target is claimed at most once.
func (e *ExactMatchEngine) Match(_ context.Context, source, target []domain.FinancialRecord, claimed map[string]bool, params Params) []domain.MatchCandidate {
	tolerance := params.exactTolerance()
	targets := unclaimed(target, claimed)
	usedTargets := make(map[string]bool, len(targets))

	var candidates []domain.MatchCandidate
	for _, src := range unclaimed(source, claimed) {
		var best *domain.FinancialRecord
		var bestDiff decimal.Decimal
		for i := range targets {
			tgt := targets[i]
			if usedTargets[tgt.RecordID] || tgt.AccountCode != src.AccountCode {
				continue
			}
			diff := src.Amount.Sub(tgt.Amount).Abs()
			if diff.GreaterThan(tolerance) {
				continue
			}
			if best == nil || diff.LessThan(bestDiff) {
				best = &targets[i]
				bestDiff = diff
			}
		}
		if best == nil {
			continue
		}
		usedTargets[best.RecordID] = true
		candidates = append(candidates, domain.MatchCandidate{
			MatchType:        domain.MatchExact,
			SourceRecordID:   src.RecordID,
			TargetRecordIDs:  []string{best.RecordID},
			ConfidenceScore:  decimal.NewFromInt(100),
			AmountDifference: src.Amount.Sub(best.Amount),
			RelationshipType: domain.RelEquality,
			RelationshipFormula: fmt.Sprintf("%s(%s) = %s(%s)",
				src.AccountCode, src.DocumentType, best.AccountCode, best.DocumentType),
		})
	}
	return candidates
}
