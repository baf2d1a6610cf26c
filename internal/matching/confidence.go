package matching

import "github.com/shopspring/decimal"

// Sub-score weights of the confidence model. Fixed policy, not caller
// configurable: account identity and amount agreement dominate, period and
// context act as tie-breakers.
var (
	weightAccount = decimal.RequireFromString("0.4")
	weightAmount  = decimal.RequireFromString("0.4")
	weightDate    = decimal.RequireFromString("0.1")
	weightContext = decimal.RequireFromString("0.1")

	scoreMin = decimal.Zero
	scoreMax = decimal.NewFromInt(100)
)

// ConfidenceScore combines four independently computed sub-scores (account
// similarity, amount similarity, date/period similarity, contextual
// similarity) into a single 0-100 score, rounded to two decimal places.
// Out-of-range sub-scores are clamped, never propagated.
func ConfidenceScore(account, amount, date, context decimal.Decimal) decimal.Decimal {
	total := clampScore(account).Mul(weightAccount).
		Add(clampScore(amount).Mul(weightAmount)).
		Add(clampScore(date).Mul(weightDate)).
		Add(clampScore(context).Mul(weightContext))
	return clampScore(total).Round(2)
}

func clampScore(s decimal.Decimal) decimal.Decimal {
	if s.LessThan(scoreMin) {
		return scoreMin
	}
	if s.GreaterThan(scoreMax) {
		return scoreMax
	}
	return s
}
