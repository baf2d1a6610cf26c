package matching

import (
	"context"
	"fmt"

	"github.com/propfolio/recon_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// FuzzyMatchEngine pairs records whose account codes differ but whose
// account names are close enough. Amount disagreement does not veto a fuzzy
// match; it degrades the amount sub-score fed into the confidence model.
type FuzzyMatchEngine struct{}

func NewFuzzyMatchEngine() *FuzzyMatchEngine {
	return &FuzzyMatchEngine{}
}

var _ Engine = (*FuzzyMatchEngine)(nil)

func (e *FuzzyMatchEngine) MatchType() domain.MatchType {
	return domain.MatchFuzzy
}

// Match scores every unclaimed source against every unclaimed target with a
// name similarity at or above the threshold, keeps each source's best
// candidate, and claims each target at most once. Records without a name
// are skipped, not erred.
func (e *FuzzyMatchEngine) Match(_ context.Context, source, target []domain.FinancialRecord, claimed map[string]bool, params Params) []domain.MatchCandidate {
	threshold := params.fuzzyNameThreshold()
	targets := unclaimed(target, claimed)
	usedTargets := make(map[string]bool, len(targets))

	var candidates []domain.MatchCandidate
	for _, src := range unclaimed(source, claimed) {
		if src.AccountName == "" {
			continue
		}
		var best *domain.FinancialRecord
		var bestScore decimal.Decimal
		for i := range targets {
			tgt := targets[i]
			if usedTargets[tgt.RecordID] || tgt.AccountName == "" {
				continue
			}
			if tgt.AccountCode == src.AccountCode {
				// Identical codes belong to the exact engine; if they got
				// here the amounts disagreed beyond tolerance and the pair
				// should surface as a discrepancy, not a fuzzy match.
				continue
			}
			nameScore := NameSimilarity(src.AccountName, tgt.AccountName)
			if nameScore.LessThan(threshold) {
				continue
			}
			score := ConfidenceScore(
				nameScore,
				amountProximity(src.Amount, tgt.Amount),
				periodProximity(src.Period, tgt.Period),
				contextScore(src.DocumentType, tgt.DocumentType),
			)
			if score.LessThan(params.MinConfidence) {
				continue
			}
			if best == nil || score.GreaterThan(bestScore) {
				best = &targets[i]
				bestScore = score
			}
		}
		if best == nil {
			continue
		}
		usedTargets[best.RecordID] = true
		candidates = append(candidates, domain.MatchCandidate{
			MatchType:        domain.MatchFuzzy,
			SourceRecordID:   src.RecordID,
			TargetRecordIDs:  []string{best.RecordID},
			ConfidenceScore:  bestScore,
			AmountDifference: src.Amount.Sub(best.Amount),
			RelationshipType: domain.RelEquality,
			RelationshipFormula: fmt.Sprintf("%q(%s) ~ %q(%s)",
				src.AccountName, src.DocumentType, best.AccountName, best.DocumentType),
		})
	}
	return candidates
}

// amountProximity scores amount agreement 0-100: identical amounts score
// 100, otherwise the score falls with the relative difference against the
// larger magnitude, floored at zero.
func amountProximity(a, b decimal.Decimal) decimal.Decimal {
	if a.Equal(b) {
		return decimal.NewFromInt(100)
	}
	base := a.Abs()
	if other := b.Abs(); other.GreaterThan(base) {
		base = other
	}
	if base.IsZero() {
		return decimal.Zero
	}
	diff := a.Sub(b).Abs()
	score := decimal.NewFromInt(100).Sub(diff.Div(base).Mul(decimal.NewFromInt(100)))
	if score.IsNegative() {
		return decimal.Zero
	}
	return score
}

// periodProximity scores period agreement: same period 100, adjacent months
// 50, anything further 0.
func periodProximity(a, b domain.Period) decimal.Decimal {
	if a.Compare(b) == 0 {
		return decimal.NewFromInt(100)
	}
	if a.Next().Compare(b) == 0 || b.Next().Compare(a) == 0 {
		return decimal.NewFromInt(50)
	}
	return decimal.Zero
}

// contextScore reflects document-type compatibility. Cross-statement pairs
// are the whole point of forensic reconciliation, so differing types still
// carry most of the score.
func contextScore(a, b domain.DocumentType) decimal.Decimal {
	if a == b {
		return decimal.NewFromInt(100)
	}
	return decimal.NewFromInt(80)
}
