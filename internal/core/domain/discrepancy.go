package domain

import "github.com/shopspring/decimal"

// Severity grades how far a discrepancy sits above its materiality threshold.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ExceptionTier is the four-level routing classification for a discrepancy.
type ExceptionTier string

const (
	Tier0AutoClose   ExceptionTier = "tier_0_auto_close"
	Tier1AutoSuggest ExceptionTier = "tier_1_auto_suggest"
	Tier2Route       ExceptionTier = "tier_2_route"
	Tier3Escalate    ExceptionTier = "tier_3_escalate"
)

// TierRank maps a tier to its numeric level, 0 through 3.
func TierRank(t ExceptionTier) int {
	switch t {
	case Tier0AutoClose:
		return 0
	case Tier1AutoSuggest:
		return 1
	case Tier2Route:
		return 2
	case Tier3Escalate:
		return 3
	default:
		return 2
	}
}

// TierFromRank is the inverse of TierRank. Out-of-range ranks clamp.
func TierFromRank(rank int) ExceptionTier {
	switch {
	case rank <= 0:
		return Tier0AutoClose
	case rank == 1:
		return Tier1AutoSuggest
	case rank == 2:
		return Tier2Route
	default:
		return Tier3Escalate
	}
}

// ResolutionStatus tracks the lifecycle of a discrepancy. Discrepancies are
// an audit trail: statuses change, rows are never deleted.
type ResolutionStatus string

const (
	ResolutionOpen         ResolutionStatus = "open"
	ResolutionAutoClosed   ResolutionStatus = "auto_closed"
	ResolutionSuggested    ResolutionStatus = "suggested"
	ResolutionAcknowledged ResolutionStatus = "acknowledged"
	ResolutionResolved     ResolutionStatus = "resolved"
	ResolutionDismissed    ResolutionStatus = "dismissed"
)

// Discrepancy is a record (or record pair) that failed to reach a qualifying
// confidence, or whose counterpart does not exist.
type Discrepancy struct {
	DiscrepancyID        string           `json:"discrepancyID"`
	SessionID            string           `json:"sessionID"`
	RecordID             string           `json:"recordID"`
	CounterpartRecordID  string           `json:"counterpartRecordID"` // empty when no counterpart exists
	AccountCode          string           `json:"accountCode"`
	AccountName          string           `json:"accountName"`
	DocumentType         DocumentType     `json:"documentType"`
	AmountDifference     decimal.Decimal  `json:"amountDifference"`
	MatchConfidence      decimal.Decimal  `json:"matchConfidence"` // confidence of the rejected match, zero if unmatched
	Severity             Severity         `json:"severity"`
	ExceptionTier        ExceptionTier    `json:"exceptionTier"`
	AutoResolutionRuleID string           `json:"autoResolutionRuleID"` // empty when no rule matched
	ResolutionStatus     ResolutionStatus `json:"resolutionStatus"`
	Description          string           `json:"description"`
	AuditFields
}
