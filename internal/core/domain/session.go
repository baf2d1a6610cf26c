package domain

import "time"

// SessionStatus tracks the outcome of one reconciliation session.
type SessionStatus string

const (
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

// ReconciliationSession is one unit of work: cross-checking all statement
// pairs for a single property and period.
type ReconciliationSession struct {
	SessionID   string        `json:"sessionID"`
	PropertyID  string        `json:"propertyID"`
	Period      Period        `json:"period"`
	Status      SessionStatus `json:"status"`
	StartedAt   time.Time     `json:"startedAt"`
	CompletedAt time.Time     `json:"completedAt"`
	AuditFields
}

// SessionResult is the output contract of a session: counts plus the
// persisted rows, each carrying enough metadata for an audit trail without
// re-running the engine.
type SessionResult struct {
	Session             ReconciliationSession `json:"session"`
	RecordsConsidered   int                   `json:"recordsConsidered"`
	MatchesFound        int                   `json:"matchesFound"`
	MatchesByType       map[MatchType]int     `json:"matchesByType"`
	DiscrepanciesFound  int                   `json:"discrepanciesFound"`
	DiscrepanciesByTier map[ExceptionTier]int `json:"discrepanciesByTier"`
	Matches             []MatchCandidate      `json:"matches"`
	Discrepancies       []Discrepancy         `json:"discrepancies"`
}

// ConfigSnapshot is the read-only configuration state a session runs
// against. It is loaded once at session start; sessions never share a cached
// snapshot.
type ConfigSnapshot struct {
	MaterialityConfigs  []MaterialityConfig
	AutoResolutionRules []AutoResolutionRule
	AccountRiskClasses  []AccountRiskClass
	LoadedAt            time.Time
}
