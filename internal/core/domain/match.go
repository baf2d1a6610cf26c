package domain

import "github.com/shopspring/decimal"

// MatchType identifies the strategy that produced a match candidate.
// Strategy order is a correctness requirement: an exact match must never be
// second-guessed by a lower-priority strategy on the same record.
type MatchType string

const (
	MatchExact      MatchType = "exact"
	MatchFuzzy      MatchType = "fuzzy"
	MatchCalculated MatchType = "calculated"
	MatchInferred   MatchType = "inferred"
)

// StrategyPriority returns the fixed execution rank of a match type.
// Lower is higher priority.
func StrategyPriority(t MatchType) int {
	switch t {
	case MatchExact:
		return 0
	case MatchFuzzy:
		return 1
	case MatchCalculated:
		return 2
	case MatchInferred:
		return 3
	default:
		return 4
	}
}

// RelationshipType describes how the source value relates to the target value.
type RelationshipType string

const (
	RelEquality    RelationshipType = "equality"
	RelAggregation RelationshipType = "aggregation"
	RelRatio       RelationshipType = "ratio"
)

// MatchCandidate is a proposed correspondence between one source record and
// one target record, or between a source record and an aggregate of target
// records for calculated rules. Never mutated after creation.
type MatchCandidate struct {
	MatchID             string           `json:"matchID"`
	SessionID           string           `json:"sessionID"`
	MatchType           MatchType        `json:"matchType"`
	SourceRecordID      string           `json:"sourceRecordID"`
	TargetRecordIDs     []string         `json:"targetRecordIDs"`
	ConfidenceScore     decimal.Decimal  `json:"confidenceScore"` // 0-100
	AmountDifference    decimal.Decimal  `json:"amountDifference"`
	RelationshipType    RelationshipType `json:"relationshipType"`
	RelationshipFormula string           `json:"relationshipFormula"`
	AuditFields
}
