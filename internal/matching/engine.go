// Package matching contains the strategy engines that propose
// correspondences between extracted financial records, the shared confidence
// model, and the cross-document accounting rule library built on top of the
// calculated engine.
package matching

import (
	"context"

	"github.com/propfolio/recon_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Params carries the caller-tunable knobs shared by the strategy engines.
// Zero values fall back to the documented defaults.
type Params struct {
	// ExactTolerance is the maximum amount difference for an exact match.
	// Defaults to 0.01 currency units when unset; a valid zero requires
	// amounts to agree to the cent.
	ExactTolerance decimal.NullDecimal
	// FuzzyNameThreshold is the minimum 0-100 name similarity a fuzzy pair
	// must reach to be considered. Defaults to 70.
	FuzzyNameThreshold decimal.Decimal
	// MinConfidence is the floor below which a fuzzy candidate is dropped by
	// the engine itself. Defaults to 0 (orchestrator applies its own floor).
	MinConfidence decimal.Decimal
}

// DefaultParams returns the documented engine defaults.
func DefaultParams() Params {
	return Params{
		ExactTolerance:     decimal.NewNullDecimal(decimal.RequireFromString("0.01")),
		FuzzyNameThreshold: decimal.NewFromInt(70),
	}
}

func (p Params) exactTolerance() decimal.Decimal {
	if !p.ExactTolerance.Valid {
		return decimal.RequireFromString("0.01")
	}
	return p.ExactTolerance.Decimal
}

func (p Params) fuzzyNameThreshold() decimal.Decimal {
	if p.FuzzyNameThreshold.IsZero() {
		return decimal.NewFromInt(70)
	}
	return p.FuzzyNameThreshold
}

// Engine is the common contract of the four strategy engines: two record
// sets in, zero or more candidates out. Engines never mutate the input
// records and never return an error for data-shaped problems; a record that
// cannot be matched is simply not matched.
type Engine interface {
	// MatchType identifies the strategy, which also fixes its priority.
	MatchType() domain.MatchType
	// Match proposes candidates between source and target records. Records
	// whose IDs appear in the claimed set were matched by a higher-priority
	// engine and must be ignored on both sides.
	Match(ctx context.Context, source, target []domain.FinancialRecord, claimed map[string]bool, params Params) []domain.MatchCandidate
}

// unclaimed filters records already matched by a higher-priority engine.
func unclaimed(records []domain.FinancialRecord, claimed map[string]bool) []domain.FinancialRecord {
	out := make([]domain.FinancialRecord, 0, len(records))
	for _, r := range records {
		if !claimed[r.RecordID] {
			out = append(out, r)
		}
	}
	return out
}
