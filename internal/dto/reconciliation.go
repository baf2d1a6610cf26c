package dto

import (
	"time"

	"github.com/propfolio/recon_backend/internal/core/domain"
	portssvc "github.com/propfolio/recon_backend/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// PeriodDTO is a reporting period in request/response bodies.
type PeriodDTO struct {
	Year  int `json:"year" binding:"required,min=1900,max=2200"`
	Month int `json:"month" binding:"required,min=1,max=12"`
}

func (p PeriodDTO) ToDomain() domain.Period {
	return domain.Period{Year: p.Year, Month: p.Month}
}

// RunSessionRequest triggers one reconciliation session.
type RunSessionRequest struct {
	PropertyID string    `json:"propertyID" binding:"required"`
	Period     PeriodDTO `json:"period" binding:"required"`
}

// RunBatchRequest triggers a fan-out of independent sessions.
type RunBatchRequest struct {
	Sessions []RunSessionRequest `json:"sessions" binding:"required,min=1,dive"`
}

// ToBatchRequests converts the DTO list into service-layer batch requests.
func (r RunBatchRequest) ToBatchRequests() []portssvc.BatchRequest {
	out := make([]portssvc.BatchRequest, 0, len(r.Sessions))
	for _, s := range r.Sessions {
		out = append(out, portssvc.BatchRequest{PropertyID: s.PropertyID, Period: s.Period.ToDomain()})
	}
	return out
}

// MatchCandidateResponse mirrors domain.MatchCandidate.
type MatchCandidateResponse struct {
	MatchID             string          `json:"matchID"`
	MatchType           string          `json:"matchType"`
	SourceRecordID      string          `json:"sourceRecordID"`
	TargetRecordIDs     []string        `json:"targetRecordIDs"`
	ConfidenceScore     decimal.Decimal `json:"confidenceScore"`
	AmountDifference    decimal.Decimal `json:"amountDifference"`
	RelationshipType    string          `json:"relationshipType"`
	RelationshipFormula string          `json:"relationshipFormula"`
}

// DiscrepancyResponse mirrors domain.Discrepancy.
type DiscrepancyResponse struct {
	DiscrepancyID        string          `json:"discrepancyID"`
	RecordID             string          `json:"recordID"`
	CounterpartRecordID  string          `json:"counterpartRecordID,omitempty"`
	AccountCode          string          `json:"accountCode"`
	AccountName          string          `json:"accountName"`
	DocumentType         string          `json:"documentType"`
	AmountDifference     decimal.Decimal `json:"amountDifference"`
	MatchConfidence      decimal.Decimal `json:"matchConfidence"`
	Severity             string          `json:"severity"`
	ExceptionTier        string          `json:"exceptionTier"`
	AutoResolutionRuleID string          `json:"autoResolutionRuleID,omitempty"`
	ResolutionStatus     string          `json:"resolutionStatus"`
	Description          string          `json:"description"`
}

// SessionResultResponse is the output contract of a session run.
type SessionResultResponse struct {
	SessionID           string                   `json:"sessionID"`
	PropertyID          string                   `json:"propertyID"`
	Period              PeriodDTO                `json:"period"`
	Status              string                   `json:"status"`
	StartedAt           time.Time                `json:"startedAt"`
	CompletedAt         time.Time                `json:"completedAt"`
	RecordsConsidered   int                      `json:"recordsConsidered"`
	MatchesFound        int                      `json:"matchesFound"`
	MatchesByType       map[string]int           `json:"matchesByType"`
	DiscrepanciesFound  int                      `json:"discrepanciesFound"`
	DiscrepanciesByTier map[string]int           `json:"discrepanciesByTier"`
	Matches             []MatchCandidateResponse `json:"matches"`
	Discrepancies       []DiscrepancyResponse    `json:"discrepancies"`
}

// ToMatchCandidateResponse converts a domain match candidate.
func ToMatchCandidateResponse(m domain.MatchCandidate) MatchCandidateResponse {
	return MatchCandidateResponse{
		MatchID:             m.MatchID,
		MatchType:           string(m.MatchType),
		SourceRecordID:      m.SourceRecordID,
		TargetRecordIDs:     m.TargetRecordIDs,
		ConfidenceScore:     m.ConfidenceScore,
		AmountDifference:    m.AmountDifference,
		RelationshipType:    string(m.RelationshipType),
		RelationshipFormula: m.RelationshipFormula,
	}
}

// ToDiscrepancyResponse converts a domain discrepancy.
func ToDiscrepancyResponse(d domain.Discrepancy) DiscrepancyResponse {
	return DiscrepancyResponse{
		DiscrepancyID:        d.DiscrepancyID,
		RecordID:             d.RecordID,
		CounterpartRecordID:  d.CounterpartRecordID,
		AccountCode:          d.AccountCode,
		AccountName:          d.AccountName,
		DocumentType:         string(d.DocumentType),
		AmountDifference:     d.AmountDifference,
		MatchConfidence:      d.MatchConfidence,
		Severity:             string(d.Severity),
		ExceptionTier:        string(d.ExceptionTier),
		AutoResolutionRuleID: d.AutoResolutionRuleID,
		ResolutionStatus:     string(d.ResolutionStatus),
		Description:          d.Description,
	}
}

// ToSessionResultResponse converts a session result.
func ToSessionResultResponse(r *domain.SessionResult) SessionResultResponse {
	matches := make([]MatchCandidateResponse, 0, len(r.Matches))
	for _, m := range r.Matches {
		matches = append(matches, ToMatchCandidateResponse(m))
	}
	discrepancies := make([]DiscrepancyResponse, 0, len(r.Discrepancies))
	for _, d := range r.Discrepancies {
		discrepancies = append(discrepancies, ToDiscrepancyResponse(d))
	}
	byType := make(map[string]int, len(r.MatchesByType))
	for t, n := range r.MatchesByType {
		byType[string(t)] = n
	}
	byTier := make(map[string]int, len(r.DiscrepanciesByTier))
	for t, n := range r.DiscrepanciesByTier {
		byTier[string(t)] = n
	}
	return SessionResultResponse{
		SessionID:           r.Session.SessionID,
		PropertyID:          r.Session.PropertyID,
		Period:              PeriodDTO{Year: r.Session.Period.Year, Month: r.Session.Period.Month},
		Status:              string(r.Session.Status),
		StartedAt:           r.Session.StartedAt,
		CompletedAt:         r.Session.CompletedAt,
		RecordsConsidered:   r.RecordsConsidered,
		MatchesFound:        r.MatchesFound,
		MatchesByType:       byType,
		DiscrepanciesFound:  r.DiscrepanciesFound,
		DiscrepanciesByTier: byTier,
		Matches:             matches,
		Discrepancies:       discrepancies,
	}
}

// ResolveDiscrepancyRequest applies a governance status transition.
type ResolveDiscrepancyRequest struct {
	Status string `json:"status" binding:"required,oneof=acknowledged resolved dismissed"`
}
