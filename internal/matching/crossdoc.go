package matching

import (
	"fmt"
	"strings"

	"github.com/propfolio/recon_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// The cross-document rule library encodes known accounting identities
// between statement types. Tolerance bands and confidence degradation are
// per-rule policy; a mismatch outside tolerance is still surfaced as a weak
// match so the orchestrator turns it into a visible low-confidence
// discrepancy instead of silently dropping it.

// CrossDocumentRules returns the full rule catalogue in evaluation order.
func CrossDocumentRules() []CrossDocRule {
	return []CrossDocRule{
		&currentPeriodEarningsRule{},
		&longTermDebtRule{},
		&baseRentalsRule{},
		&endingCashRule{},
	}
}

// RulesForPair filters the catalogue to rules connecting the given
// source/target document types.
func RulesForPair(source, target domain.DocumentType) []CrossDocRule {
	var out []CrossDocRule
	for _, r := range CrossDocumentRules() {
		if r.SourceDocument() == source && r.TargetDocument() == target {
			out = append(out, r)
		}
	}
	return out
}

// currentPeriodEarningsRule ties the balance sheet's current period earnings
// line to the income statement's net income. Exact equality is expected:
// confidence 95 within $0.01, degraded to 60 on mismatch.
type currentPeriodEarningsRule struct{}

func (r *currentPeriodEarningsRule) Name() string { return "current_period_earnings_ties_to_net_income" }

func (r *currentPeriodEarningsRule) SourceDocument() domain.DocumentType { return domain.BalanceSheet }

func (r *currentPeriodEarningsRule) TargetDocument() domain.DocumentType {
	return domain.IncomeStatement
}

func (r *currentPeriodEarningsRule) Evaluate(source, target []domain.FinancialRecord) (*RuleResult, bool) {
	earnings, ok := firstByName(source, "current period earnings", "current year earnings")
	if !ok {
		return nil, false
	}
	netIncome, ok := firstByName(target, "net income", "net profit")
	if !ok {
		return nil, false
	}

	confidence := decimal.NewFromInt(95)
	if earnings.Amount.Sub(netIncome.Amount).Abs().GreaterThan(decimal.RequireFromString("0.01")) {
		confidence = decimal.NewFromInt(60)
	}
	return &RuleResult{
		SourceRecord:     earnings,
		TargetRecords:    []domain.FinancialRecord{netIncome},
		SourceValue:      earnings.Amount,
		TargetValue:      netIncome.Amount,
		RelationshipType: domain.RelEquality,
		Formula: fmt.Sprintf("CurrentPeriodEarnings(balance_sheet) %s = NetIncome(income_statement) %s",
			earnings.Amount.StringFixed(2), netIncome.Amount.StringFixed(2)),
		Confidence: confidence,
	}, true
}

// longTermDebtRule ties the balance sheet's long-term debt to the sum of
// principal balances across mortgage statements. Aggregation with a $100
// tolerance band: confidence 95 inside the band, 70 outside.
type longTermDebtRule struct{}

func (r *longTermDebtRule) Name() string { return "long_term_debt_ties_to_mortgage_principal" }

func (r *longTermDebtRule) SourceDocument() domain.DocumentType { return domain.BalanceSheet }

func (r *longTermDebtRule) TargetDocument() domain.DocumentType {
	return domain.MortgageStatement
}

func (r *longTermDebtRule) Evaluate(source, target []domain.FinancialRecord) (*RuleResult, bool) {
	debt, ok := firstByName(source, "long term debt", "long-term debt", "mortgage payable")
	if !ok {
		return nil, false
	}
	principals := allByName(target, "principal balance", "principal")
	if len(principals) == 0 {
		return nil, false
	}
	total := sumAmounts(principals)

	confidence := decimal.NewFromInt(95)
	if debt.Amount.Sub(total).Abs().GreaterThan(decimal.NewFromInt(100)) {
		confidence = decimal.NewFromInt(70)
	}
	return &RuleResult{
		SourceRecord:     debt,
		TargetRecords:    principals,
		SourceValue:      debt.Amount,
		TargetValue:      total,
		RelationshipType: domain.RelAggregation,
		Formula: fmt.Sprintf("LongTermDebt(balance_sheet) %s = sum of PrincipalBalance(mortgage_statement) %s over %d loans",
			debt.Amount.StringFixed(2), total.StringFixed(2), len(principals)),
		Confidence: confidence,
	}, true
}

// baseRentalsRule ties the income statement's base rentals to the sum of
// annual rents on the rent roll. Vacant units (zero-rent rows) do not break
// the match; they reduce confidence proportionally to the vacancy share.
type baseRentalsRule struct{}

func (r *baseRentalsRule) Name() string { return "base_rentals_tie_to_rent_roll" }

func (r *baseRentalsRule) SourceDocument() domain.DocumentType { return domain.IncomeStatement }

func (r *baseRentalsRule) TargetDocument() domain.DocumentType { return domain.RentRoll }

func (r *baseRentalsRule) Evaluate(source, target []domain.FinancialRecord) (*RuleResult, bool) {
	rentals, ok := firstByName(source, "base rentals", "base rental income", "rental income")
	if !ok {
		return nil, false
	}
	if len(target) == 0 {
		return nil, false
	}

	total := sumAmounts(target)
	vacant := 0
	for _, unit := range target {
		if unit.Amount.IsZero() {
			vacant++
		}
	}
	vacantShare := decimal.NewFromInt(int64(vacant)).Div(decimal.NewFromInt(int64(len(target))))

	var confidence decimal.Decimal
	if rentals.Amount.Sub(total).Abs().GreaterThan(decimal.NewFromInt(1)) {
		confidence = decimal.NewFromInt(65)
	} else {
		// Full confidence with a fully occupied roll; each vacant unit
		// chips away at it, floored at 70.
		confidence = decimal.NewFromInt(95).Sub(
			decimal.NewFromInt(95).Mul(vacantShare).Div(decimal.NewFromInt(2))).Round(2)
		if confidence.LessThan(decimal.NewFromInt(70)) {
			confidence = decimal.NewFromInt(70)
		}
	}
	return &RuleResult{
		SourceRecord:     rentals,
		TargetRecords:    target,
		SourceValue:      rentals.Amount,
		TargetValue:      total,
		RelationshipType: domain.RelAggregation,
		Formula: fmt.Sprintf("BaseRentals(income_statement) %s = sum of AnnualRent(rent_roll) %s over %d units (%d vacant)",
			rentals.Amount.StringFixed(2), total.StringFixed(2), len(target), vacant),
		Confidence: confidence,
	}, true
}

// endingCashRule is the canonical cash-position tie-out: the cash flow
// statement's ending cash equals the balance sheet's operating cash.
// Confidence 95 within $0.01, degraded to 60 on mismatch.
type endingCashRule struct{}

func (r *endingCashRule) Name() string { return "ending_cash_ties_to_balance_sheet_cash" }

func (r *endingCashRule) SourceDocument() domain.DocumentType { return domain.CashFlow }

func (r *endingCashRule) TargetDocument() domain.DocumentType { return domain.BalanceSheet }

func (r *endingCashRule) Evaluate(source, target []domain.FinancialRecord) (*RuleResult, bool) {
	ending, ok := firstByName(source, "ending cash", "cash at end of period")
	if !ok {
		return nil, false
	}
	operating, ok := firstByName(target, "cash - operating", "cash operating", "operating cash")
	if !ok {
		// Fall back to a plain cash line when the balance sheet does not
		// break out an operating account.
		operating, ok = firstByName(target, "cash")
		if !ok {
			return nil, false
		}
	}

	confidence := decimal.NewFromInt(95)
	if ending.Amount.Sub(operating.Amount).Abs().GreaterThan(decimal.RequireFromString("0.01")) {
		confidence = decimal.NewFromInt(60)
	}
	return &RuleResult{
		SourceRecord:     ending,
		TargetRecords:    []domain.FinancialRecord{operating},
		SourceValue:      ending.Amount,
		TargetValue:      operating.Amount,
		RelationshipType: domain.RelEquality,
		Formula: fmt.Sprintf("EndingCash(cash_flow) %s = CashOperating(balance_sheet) %s",
			ending.Amount.StringFixed(2), operating.Amount.StringFixed(2)),
		Confidence: confidence,
	}, true
}

// firstByName returns the first record whose normalized account name
// contains any of the given phrases.
func firstByName(records []domain.FinancialRecord, phrases ...string) (domain.FinancialRecord, bool) {
	for _, rec := range records {
		name := normalizeName(rec.AccountName)
		for _, phrase := range phrases {
			if strings.Contains(name, phrase) {
				return rec, true
			}
		}
	}
	return domain.FinancialRecord{}, false
}

// allByName returns every record whose normalized account name contains any
// of the given phrases.
func allByName(records []domain.FinancialRecord, phrases ...string) []domain.FinancialRecord {
	var out []domain.FinancialRecord
	for _, rec := range records {
		name := normalizeName(rec.AccountName)
		for _, phrase := range phrases {
			if strings.Contains(name, phrase) {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

func sumAmounts(records []domain.FinancialRecord) decimal.Decimal {
	total := decimal.Zero
	for _, rec := range records {
		total = total.Add(rec.Amount)
	}
	return total
}
