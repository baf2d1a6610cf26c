package matching_test

import (
	"context"
	"testing"

	"github.com/propfolio/recon_backend/internal/core/domain"
	"github.com/propfolio/recon_backend/internal/matching"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRulesForPair(t *testing.T) {
	rules := matching.RulesForPair(domain.BalanceSheet, domain.IncomeStatement)
	require.Len(t, rules, 1)
	assert.Equal(t, "current_period_earnings_ties_to_net_income", rules[0].Name())

	assert.Empty(t, matching.RulesForPair(domain.RentRoll, domain.MortgageStatement))
}

func TestCurrentPeriodEarningsRule(t *testing.T) {
	rules := matching.RulesForPair(domain.BalanceSheet, domain.IncomeStatement)
	require.Len(t, rules, 1)
	rule := rules[0]

	source := []domain.FinancialRecord{
		record("bs1", "3900", "Current Period Earnings", "12000.00", domain.BalanceSheet),
	}
	target := []domain.FinancialRecord{
		record("is1", "9000", "Net Income", "12000.00", domain.IncomeStatement),
	}

	result, ok := rule.Evaluate(source, target)
	require.True(t, ok)
	assert.Equal(t, "95", result.Confidence.String())
	assert.Equal(t, domain.RelEquality, result.RelationshipType)
	assert.Equal(t, "bs1", result.SourceRecord.RecordID)

	// Mismatch beyond a cent degrades, never drops, the match.
	target[0].Amount = target[0].Amount.Add(decimal.RequireFromString("500.00"))
	result, ok = rule.Evaluate(source, target)
	require.True(t, ok)
	assert.Equal(t, "60", result.Confidence.String())

	// Missing lines mean the rule simply does not apply.
	_, ok = rule.Evaluate(source, []domain.FinancialRecord{
		record("is2", "5000", "Utilities", "300.00", domain.IncomeStatement),
	})
	assert.False(t, ok)
}

func TestLongTermDebtRule_AggregatesMortgagePrincipals(t *testing.T) {
	rules := matching.RulesForPair(domain.BalanceSheet, domain.MortgageStatement)
	require.Len(t, rules, 1)
	rule := rules[0]

	source := []domain.FinancialRecord{
		record("bs1", "2700", "Long Term Debt", "800000.00", domain.BalanceSheet),
	}
	target := []domain.FinancialRecord{
		record("m1", "L1", "Principal Balance - Loan 1", "500000.00", domain.MortgageStatement),
		record("m2", "L2", "Principal Balance - Loan 2", "300050.00", domain.MortgageStatement),
	}

	result, ok := rule.Evaluate(source, target)
	require.True(t, ok)
	assert.Equal(t, domain.RelAggregation, result.RelationshipType)
	assert.Len(t, result.TargetRecords, 2)
	assert.Equal(t, "800050.00", result.TargetValue.StringFixed(2))
	// $50 off is inside the $100 band.
	assert.Equal(t, "95", result.Confidence.String())

	source[0].Amount = decimal.RequireFromString("790000.00")
	result, ok = rule.Evaluate(source, target)
	require.True(t, ok)
	assert.Equal(t, "70", result.Confidence.String())
}

func TestBaseRentalsRule_VacancyDegradesConfidence(t *testing.T) {
	rules := matching.RulesForPair(domain.IncomeStatement, domain.RentRoll)
	require.Len(t, rules, 1)
	rule := rules[0]

	source := []domain.FinancialRecord{
		record("is1", "4010", "Base Rentals", "36000.00", domain.IncomeStatement),
	}
	units := []domain.FinancialRecord{
		record("u1", "101", "Unit 101 Annual Rent", "12000.00", domain.RentRoll),
		record("u2", "102", "Unit 102 Annual Rent", "12000.00", domain.RentRoll),
		record("u3", "103", "Unit 103 Annual Rent", "12000.00", domain.RentRoll),
		record("u4", "104", "Unit 104 Annual Rent", "0.00", domain.RentRoll),
	}
	result, ok := rule.Evaluate(source, units)
	require.True(t, ok)
	// One vacancy among four units: 95 - 95 * 0.25 / 2.
	assert.Equal(t, "83.13", result.Confidence.StringFixed(2))
	assert.Equal(t, "36000.00", result.TargetValue.StringFixed(2))

	// A fully occupied roll with totals agreeing scores full confidence.
	occupied := units[:3]
	result, ok = rule.Evaluate(source, occupied)
	require.True(t, ok)
	assert.Equal(t, "95.00", result.Confidence.StringFixed(2))

	// Totals out of band drop to the mismatch confidence.
	source[0].Amount = decimal.RequireFromString("40000.00")
	result, ok = rule.Evaluate(source, units)
	require.True(t, ok)
	assert.Equal(t, "65", result.Confidence.String())
}

func TestEndingCashRule_FallsBackToPlainCashLine(t *testing.T) {
	rules := matching.RulesForPair(domain.CashFlow, domain.BalanceSheet)
	require.Len(t, rules, 1)
	rule := rules[0]

	source := []domain.FinancialRecord{
		record("cf1", "1099", "Ending Cash", "50000.00", domain.CashFlow),
	}

	// Preferred selector: an operating cash breakout.
	withOperating := []domain.FinancialRecord{
		record("bs1", "1010", "Cash - Operating", "50000.00", domain.BalanceSheet),
		record("bs2", "1020", "Cash", "99999.00", domain.BalanceSheet),
	}
	result, ok := rule.Evaluate(source, withOperating)
	require.True(t, ok)
	assert.Equal(t, "bs1", result.TargetRecords[0].RecordID)
	assert.Equal(t, "95", result.Confidence.String())

	// No operating breakout: plain cash line is the fallback.
	plainOnly := []domain.FinancialRecord{
		record("bs3", "1020", "Cash", "50000.00", domain.BalanceSheet),
	}
	result, ok = rule.Evaluate(source, plainOnly)
	require.True(t, ok)
	assert.Equal(t, "bs3", result.TargetRecords[0].RecordID)
}

type panickingRule struct{}

func (r *panickingRule) Name() string                        { return "panicking_rule" }
func (r *panickingRule) SourceDocument() domain.DocumentType { return domain.BalanceSheet }
func (r *panickingRule) TargetDocument() domain.DocumentType { return domain.IncomeStatement }

func (r *panickingRule) Evaluate(_, _ []domain.FinancialRecord) (*matching.RuleResult, bool) {
	panic("boom")
}

func TestCalculatedMatchEngine_RecoversPanickingRule(t *testing.T) {
	engine := matching.NewCalculatedMatchEngine([]matching.CrossDocRule{
		&panickingRule{},
		&stubRule{},
	}, nil)

	source := []domain.FinancialRecord{
		record("bs1", "3900", "Current Period Earnings", "12000.00", domain.BalanceSheet),
	}
	target := []domain.FinancialRecord{
		record("is1", "9000", "Net Income", "12000.00", domain.IncomeStatement),
	}

	candidates := engine.Match(context.Background(), source, target, map[string]bool{}, matching.Params{})

	// The panicking rule is swallowed; the healthy rule still fires.
	require.Len(t, candidates, 1)
	assert.Equal(t, domain.MatchCalculated, candidates[0].MatchType)
	assert.Equal(t, "bs1", candidates[0].SourceRecordID)
}

type stubRule struct{}

func (r *stubRule) Name() string                        { return "stub_rule" }
func (r *stubRule) SourceDocument() domain.DocumentType { return domain.BalanceSheet }
func (r *stubRule) TargetDocument() domain.DocumentType { return domain.IncomeStatement }

func (r *stubRule) Evaluate(source, target []domain.FinancialRecord) (*matching.RuleResult, bool) {
	if len(source) == 0 || len(target) == 0 {
		return nil, false
	}
	return &matching.RuleResult{
		SourceRecord:     source[0],
		TargetRecords:    target[:1],
		SourceValue:      source[0].Amount,
		TargetValue:      target[0].Amount,
		RelationshipType: domain.RelEquality,
		Formula:          "stub",
		Confidence:       decimal.NewFromInt(90),
	}, true
}

func TestCalculatedMatchEngine_SkipsClaimedRecords(t *testing.T) {
	engine := matching.NewCalculatedMatchEngine([]matching.CrossDocRule{&stubRule{}}, nil)

	source := []domain.FinancialRecord{
		record("bs1", "3900", "Current Period Earnings", "12000.00", domain.BalanceSheet),
	}
	target := []domain.FinancialRecord{
		record("is1", "9000", "Net Income", "12000.00", domain.IncomeStatement),
	}

	claimed := map[string]bool{"bs1": true}
	assert.Empty(t, engine.Match(context.Background(), source, target, claimed, matching.Params{}))
}
