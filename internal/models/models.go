// Package models holds the database-facing representations of the domain
// entities. The pgsql repositories map between these and the core domain
// structs so persistence details never leak into services.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuditFields holds standard audit columns.
type AuditFields struct {
	CreatedAt     time.Time
	CreatedBy     string
	LastUpdatedAt time.Time
	LastUpdatedBy string
}

// FinancialRecord mirrors the financial_records table.
type FinancialRecord struct {
	RecordID       string
	PropertyID     string
	AccountCode    string
	AccountName    string
	Amount         decimal.Decimal
	PeriodYear     int
	PeriodMonth    int
	DocumentType   string
	SourceUploadID string
	AuditFields
}

// ReconciliationSession mirrors the reconciliation_sessions table.
type ReconciliationSession struct {
	SessionID   string
	PropertyID  string
	PeriodYear  int
	PeriodMonth int
	Status      string
	StartedAt   time.Time
	CompletedAt time.Time
	AuditFields
}

// MatchCandidate mirrors the match_candidates table.
type MatchCandidate struct {
	MatchID             string
	SessionID           string
	MatchType           string
	SourceRecordID      string
	TargetRecordIDs     []string
	ConfidenceScore     decimal.Decimal
	AmountDifference    decimal.Decimal
	RelationshipType    string
	RelationshipFormula string
	AuditFields
}

// Discrepancy mirrors the discrepancies table.
type Discrepancy struct {
	DiscrepancyID        string
	SessionID            string
	RecordID             string
	CounterpartRecordID  string
	AccountCode          string
	AccountName          string
	DocumentType         string
	AmountDifference     decimal.Decimal
	MatchConfidence      decimal.Decimal
	Severity             string
	ExceptionTier        string
	AutoResolutionRuleID string
	ResolutionStatus     string
	Description          string
	AuditFields
}

// MaterialityConfig mirrors the materiality_configs table.
type MaterialityConfig struct {
	ConfigID                 string
	PropertyID               *string
	StatementType            *string
	AccountCode              *string
	AbsoluteThreshold        decimal.Decimal
	RelativeThresholdPercent decimal.Decimal
	RiskClass                string
	ToleranceType            string
	EffectiveDate            time.Time
	ExpiresAt                *time.Time
	AuditFields
}

// AutoResolutionRule mirrors the auto_resolution_rules table.
type AutoResolutionRule struct {
	RuleID              string
	Name                string
	PatternType         string
	ConditionJSON       string
	ActionType          string
	ConfidenceThreshold decimal.Decimal
	Priority            int
	IsActive            bool
	PropertyID          *string
	StatementType       *string
	AuditFields
}

// AccountRiskClass mirrors the account_risk_classes table.
type AccountRiskClass struct {
	RiskClassID        string
	AccountCodePattern string
	RiskClass          string
	DefaultTolerance   decimal.Decimal
	Description        string
	AuditFields
}
