package matching

import (
	"context"

	"github.com/propfolio/recon_backend/internal/core/domain"
)

// InferredMatchEngine is the reserved slot for a future statistical matcher.
// It honors the shared engine contract (record sets in, candidates out, the
// weighted ConfidenceScore as the scoring integration point) and returns no
// candidates. Keeping it in the strategy chain means the orchestrator's
// ordering and dedup logic already account for it.
type InferredMatchEngine struct{}

func NewInferredMatchEngine() *InferredMatchEngine {
	return &InferredMatchEngine{}
}

var _ Engine = (*InferredMatchEngine)(nil)

func (e *InferredMatchEngine) MatchType() domain.MatchType {
	return domain.MatchInferred
}

func (e *InferredMatchEngine) Match(_ context.Context, _, _ []domain.FinancialRecord, _ map[string]bool, _ Params) []domain.MatchCandidate {
	return nil
}
