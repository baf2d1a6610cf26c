package domain_test

import (
	"testing"

	"github.com/propfolio/recon_backend/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPeriodNavigation(t *testing.T) {
	june := domain.Period{Year: 2025, Month: 6}
	assert.Equal(t, "2025-06", june.String())
	assert.Equal(t, domain.Period{Year: 2025, Month: 7}, june.Next())
	assert.Equal(t, domain.Period{Year: 2025, Month: 5}, june.Previous())

	december := domain.Period{Year: 2025, Month: 12}
	assert.Equal(t, domain.Period{Year: 2026, Month: 1}, december.Next())
	january := domain.Period{Year: 2026, Month: 1}
	assert.Equal(t, december, january.Previous())

	assert.Equal(t, 0, june.Compare(june))
	assert.Equal(t, -1, june.Compare(december))
	assert.Equal(t, 1, january.Compare(december))
}

func TestStrategyPriorityOrdering(t *testing.T) {
	assert.Less(t, domain.StrategyPriority(domain.MatchExact), domain.StrategyPriority(domain.MatchFuzzy))
	assert.Less(t, domain.StrategyPriority(domain.MatchFuzzy), domain.StrategyPriority(domain.MatchCalculated))
	assert.Less(t, domain.StrategyPriority(domain.MatchCalculated), domain.StrategyPriority(domain.MatchInferred))
}

func TestTierRankRoundTrip(t *testing.T) {
	tiers := []domain.ExceptionTier{
		domain.Tier0AutoClose, domain.Tier1AutoSuggest, domain.Tier2Route, domain.Tier3Escalate,
	}
	for rank, tier := range tiers {
		assert.Equal(t, rank, domain.TierRank(tier))
		assert.Equal(t, tier, domain.TierFromRank(rank))
	}
	assert.Equal(t, domain.Tier0AutoClose, domain.TierFromRank(-1))
	assert.Equal(t, domain.Tier3Escalate, domain.TierFromRank(9))
}

func TestAccountRiskClassMatches(t *testing.T) {
	prefix := domain.AccountRiskClass{AccountCodePattern: "27*"}
	assert.True(t, prefix.Matches("2700"))
	assert.True(t, prefix.Matches("27"))
	assert.False(t, prefix.Matches("2800"))

	literal := domain.AccountRiskClass{AccountCodePattern: "1010.02"}
	assert.True(t, literal.Matches("1010.02"))
	assert.False(t, literal.Matches("1010"))

	empty := domain.AccountRiskClass{}
	assert.False(t, empty.Matches("1010"))
}

func TestAutoResolutionRuleSuggestedTier(t *testing.T) {
	assert.Equal(t, domain.Tier1AutoSuggest, domain.AutoResolutionRule{ActionType: domain.ActionAutoClose}.SuggestedTier())
	assert.Equal(t, domain.Tier1AutoSuggest, domain.AutoResolutionRule{ActionType: domain.ActionSuggestFix}.SuggestedTier())
	assert.Equal(t, domain.Tier2Route, domain.AutoResolutionRule{ActionType: domain.ActionRouteToQueue}.SuggestedTier())
}

func TestMaterialityConfigActiveAt(t *testing.T) {
	cfg := domain.MaterialityConfig{
		AbsoluteThreshold: decimal.NewFromInt(100),
	}
	// Zero effective date: active from the beginning of time.
	assert.True(t, cfg.ActiveAt(cfg.EffectiveDate))
}
