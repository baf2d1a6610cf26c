package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/propfolio/recon_backend/internal/apperrors"
	"github.com/propfolio/recon_backend/internal/core/domain"
	portsrepo "github.com/propfolio/recon_backend/internal/core/ports/repositories"
	portssvc "github.com/propfolio/recon_backend/internal/core/ports/services"
	"github.com/propfolio/recon_backend/internal/matching"
	"github.com/shopspring/decimal"
)

// documentPair names one source/target statement combination the engine
// cross-checks. The pair list is fixed: the chart of accounts and statement
// set of the platform are a closed taxonomy.
type documentPair struct {
	Source domain.DocumentType
	Target domain.DocumentType
}

var documentPairs = []documentPair{
	{Source: domain.BalanceSheet, Target: domain.IncomeStatement},
	{Source: domain.CashFlow, Target: domain.BalanceSheet},
	{Source: domain.BalanceSheet, Target: domain.MortgageStatement},
	{Source: domain.IncomeStatement, Target: domain.RentRoll},
}

// reconciliationServiceImpl drives one property/period reconciliation:
// loads record sets, runs the strategies in fixed priority order, scores,
// classifies the residue, and persists everything in one transaction.
type reconciliationServiceImpl struct {
	BaseService
	recordRepo  portsrepo.RecordReader
	configRepo  portsrepo.ConfigReader
	sessionRepo portsrepo.SessionRepository
	materiality portssvc.MaterialityResolverSvc
	classifier  portssvc.TierClassifierSvc
	autoRes     portssvc.AutoResolutionSvc
	params      matching.Params
	// minMatchConfidence is the floor below which a candidate is rejected
	// and surfaced as a low-confidence discrepancy instead of a match.
	minMatchConfidence decimal.Decimal
}

// NewReconciliationService wires the orchestrator.
func NewReconciliationService(
	recordRepo portsrepo.RecordReader,
	configRepo portsrepo.ConfigReader,
	sessionRepo portsrepo.SessionRepository,
	materiality portssvc.MaterialityResolverSvc,
	classifier portssvc.TierClassifierSvc,
	autoRes portssvc.AutoResolutionSvc,
	params matching.Params,
	minMatchConfidence decimal.Decimal,
) portssvc.ReconciliationSvc {
	if minMatchConfidence.IsZero() {
		minMatchConfidence = decimal.NewFromInt(70)
	}
	return &reconciliationServiceImpl{
		recordRepo:         recordRepo,
		configRepo:         configRepo,
		sessionRepo:        sessionRepo,
		materiality:        materiality,
		classifier:         classifier,
		autoRes:            autoRes,
		params:             params,
		minMatchConfidence: minMatchConfidence,
	}
}

var _ portssvc.ReconciliationSvc = (*reconciliationServiceImpl)(nil)

func (s *reconciliationServiceImpl) RunSession(ctx context.Context, propertyID string, period domain.Period, userID string) (*domain.SessionResult, error) {
	startedAt := time.Now()
	sessionID := uuid.NewString()
	logger := s.GetLogger(ctx).With(
		slog.String("session_id", sessionID),
		slog.String("property_id", propertyID),
		slog.String("period", period.String()),
	)
	logger.Info("Starting reconciliation session")

	// Fresh snapshot per session. Configuration writes happen through the
	// administration surface; reads here must see the latest committed state.
	snapshot, err := s.configRepo.LoadConfigSnapshot(ctx, propertyID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load config snapshot", slog.String("session_id", sessionID))
		return nil, fmt.Errorf("%w: loading config snapshot: %v", apperrors.ErrSessionFailed, err)
	}

	recordSets, loadOrder, err := s.loadRecordSets(ctx, propertyID, period)
	if err != nil {
		s.LogError(ctx, err, "Failed to load record sets", slog.String("session_id", sessionID))
		return nil, fmt.Errorf("%w: loading record sets: %v", apperrors.ErrSessionFailed, err)
	}

	recordsConsidered := 0
	for _, docType := range loadOrder {
		recordsConsidered += len(recordSets[docType])
	}

	matches, rejected := s.runStrategies(ctx, logger, recordSets)

	now := time.Now()
	audit := domain.AuditFields{CreatedAt: now, CreatedBy: userID, LastUpdatedAt: now, LastUpdatedBy: userID}

	claimed := make(map[string]bool)
	for i := range matches {
		matches[i].MatchID = uuid.NewString()
		matches[i].SessionID = sessionID
		matches[i].AuditFields = audit
		claimed[matches[i].SourceRecordID] = true
		for _, id := range matches[i].TargetRecordIDs {
			claimed[id] = true
		}
	}

	recordsByID := make(map[string]domain.FinancialRecord)
	for _, docType := range loadOrder {
		for _, rec := range recordSets[docType] {
			recordsByID[rec.RecordID] = rec
		}
	}

	var discrepancies []domain.Discrepancy

	// Survivors of the confidence floor: matched pairs rejected for scoring
	// too low. Their records are accounted for and excluded from the
	// unmatched sweep below.
	for _, cand := range rejected {
		src := recordsByID[cand.SourceRecordID]
		counterpart := ""
		if len(cand.TargetRecordIDs) > 0 {
			counterpart = cand.TargetRecordIDs[0]
		}
		claimed[cand.SourceRecordID] = true
		for _, id := range cand.TargetRecordIDs {
			claimed[id] = true
		}
		discrepancies = append(discrepancies, domain.Discrepancy{
			SessionID:           sessionID,
			RecordID:            cand.SourceRecordID,
			CounterpartRecordID: counterpart,
			AccountCode:         src.AccountCode,
			AccountName:         src.AccountName,
			DocumentType:        src.DocumentType,
			AmountDifference:    cand.AmountDifference,
			MatchConfidence:     cand.ConfidenceScore,
			Description:         fmt.Sprintf("low-confidence match (%s): %s", cand.ConfidenceScore.StringFixed(2), cand.RelationshipFormula),
		})
	}

	// Records no strategy claimed have no counterpart at all.
	for _, docType := range loadOrder {
		for _, rec := range recordSets[docType] {
			if claimed[rec.RecordID] {
				continue
			}
			discrepancies = append(discrepancies, domain.Discrepancy{
				SessionID:        sessionID,
				RecordID:         rec.RecordID,
				AccountCode:      rec.AccountCode,
				AccountName:      rec.AccountName,
				DocumentType:     rec.DocumentType,
				AmountDifference: rec.Amount,
				MatchConfidence:  decimal.Zero,
				Description:      fmt.Sprintf("no counterpart found for %s %q", rec.AccountCode, rec.AccountName),
			})
		}
	}

	// Materiality, auto-resolution, tiering.
	for i := range discrepancies {
		disc := &discrepancies[i]
		disc.DiscrepancyID = uuid.NewString()
		disc.AuditFields = audit

		decision := s.materiality.Resolve(ctx, snapshot, propertyID, disc.DocumentType, disc.AccountCode)
		rule := s.autoRes.Evaluate(ctx, snapshot, *disc, propertyID)

		base := recordsByID[disc.RecordID].Amount
		tier, severity := s.classifier.Classify(ctx, *disc, decision, base, rule)

		disc.ExceptionTier = tier
		disc.Severity = severity
		disc.ResolutionStatus = domain.ResolutionOpen
		if rule != nil {
			disc.AutoResolutionRuleID = rule.RuleID
		}
		switch {
		case tier == domain.Tier0AutoClose:
			disc.ResolutionStatus = domain.ResolutionAutoClosed
		case tier == domain.Tier1AutoSuggest && rule != nil:
			disc.ResolutionStatus = domain.ResolutionSuggested
		}
	}

	result := &domain.SessionResult{
		Session: domain.ReconciliationSession{
			SessionID:   sessionID,
			PropertyID:  propertyID,
			Period:      period,
			Status:      domain.SessionCompleted,
			StartedAt:   startedAt,
			CompletedAt: time.Now(),
			AuditFields: audit,
		},
		RecordsConsidered:   recordsConsidered,
		MatchesFound:        len(matches),
		MatchesByType:       countMatchesByType(matches),
		DiscrepanciesFound:  len(discrepancies),
		DiscrepanciesByTier: countDiscrepanciesByTier(discrepancies),
		Matches:             matches,
		Discrepancies:       discrepancies,
	}

	if err := s.sessionRepo.SaveSessionResult(ctx, result); err != nil {
		s.LogError(ctx, err, "Failed to persist session result", slog.String("session_id", sessionID))
		return nil, fmt.Errorf("%w: persisting session: %v", apperrors.ErrSessionFailed, err)
	}

	logger.Info("Reconciliation session completed",
		slog.Int("records_considered", recordsConsidered),
		slog.Int("matches_found", result.MatchesFound),
		slog.Int("discrepancies_found", result.DiscrepanciesFound),
	)
	return result, nil
}

// loadRecordSets loads each document type's records once. The load order is
// returned so downstream iteration stays deterministic.
func (s *reconciliationServiceImpl) loadRecordSets(ctx context.Context, propertyID string, period domain.Period) (map[domain.DocumentType][]domain.FinancialRecord, []domain.DocumentType, error) {
	sets := make(map[domain.DocumentType][]domain.FinancialRecord)
	var order []domain.DocumentType
	for _, pair := range documentPairs {
		for _, docType := range []domain.DocumentType{pair.Source, pair.Target} {
			if _, ok := sets[docType]; ok {
				continue
			}
			records, err := s.recordRepo.FindRecords(ctx, propertyID, period, docType)
			if err != nil {
				return nil, nil, fmt.Errorf("loading %s records: %w", docType, err)
			}
			sets[docType] = records
			order = append(order, docType)
		}
	}
	return sets, order, nil
}

// runStrategies executes the engines in fixed priority order over every
// document pair, with records claimed by a higher-priority engine excluded
// from later engines. Candidates below the confidence floor are returned
// separately as rejected.
func (s *reconciliationServiceImpl) runStrategies(ctx context.Context, logger *slog.Logger, recordSets map[domain.DocumentType][]domain.FinancialRecord) (accepted, rejected []domain.MatchCandidate) {
	claimed := make(map[string]bool)

	for _, pair := range documentPairs {
		source := recordSets[pair.Source]
		target := recordSets[pair.Target]
		if len(source) == 0 || len(target) == 0 {
			continue
		}

		engines := []matching.Engine{
			matching.NewExactMatchEngine(),
			matching.NewFuzzyMatchEngine(),
			matching.NewCalculatedMatchEngine(matching.RulesForPair(pair.Source, pair.Target), logger),
			matching.NewInferredMatchEngine(),
		}

		for _, engine := range engines {
			candidates := engine.Match(ctx, source, target, claimed, s.params)
			for _, cand := range candidates {
				if cand.ConfidenceScore.LessThan(s.minMatchConfidence) {
					rejected = append(rejected, cand)
				} else {
					accepted = append(accepted, cand)
				}
				// Both outcomes claim the records: a low-confidence pairing
				// is still the strategies' best answer for them, and a
				// lower-priority engine must not second-guess it.
				claimed[cand.SourceRecordID] = true
				for _, id := range cand.TargetRecordIDs {
					claimed[id] = true
				}
			}
		}
	}
	return accepted, rejected
}

func countMatchesByType(matches []domain.MatchCandidate) map[domain.MatchType]int {
	out := make(map[domain.MatchType]int)
	for _, m := range matches {
		out[m.MatchType]++
	}
	return out
}

func countDiscrepanciesByTier(discrepancies []domain.Discrepancy) map[domain.ExceptionTier]int {
	out := make(map[domain.ExceptionTier]int)
	for _, d := range discrepancies {
		out[d.ExceptionTier]++
	}
	return out
}

func (s *reconciliationServiceImpl) GetSession(ctx context.Context, sessionID string) (*domain.SessionResult, error) {
	result, err := s.sessionRepo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *reconciliationServiceImpl) ListDiscrepancies(ctx context.Context, sessionID string, tier domain.ExceptionTier) ([]domain.Discrepancy, error) {
	return s.sessionRepo.FindDiscrepancies(ctx, sessionID, tier)
}

// governanceTransitions are the only status changes the external governance
// workflow may apply. Engine-owned statuses (auto_closed, suggested) are not
// reachable from outside.
var governanceTransitions = map[domain.ResolutionStatus]bool{
	domain.ResolutionAcknowledged: true,
	domain.ResolutionResolved:     true,
	domain.ResolutionDismissed:    true,
}

func (s *reconciliationServiceImpl) ResolveDiscrepancy(ctx context.Context, discrepancyID string, status domain.ResolutionStatus, userID string) error {
	if !governanceTransitions[status] {
		return fmt.Errorf("%w: status %q cannot be set externally", apperrors.ErrValidation, status)
	}
	if _, err := s.sessionRepo.FindDiscrepancyByID(ctx, discrepancyID); err != nil {
		return err
	}
	return s.sessionRepo.UpdateDiscrepancyStatus(ctx, discrepancyID, status, userID)
}
