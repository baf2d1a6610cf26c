package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/propfolio/recon_backend/internal/apperrors"
	"github.com/propfolio/recon_backend/internal/core/domain"
	portsrepo "github.com/propfolio/recon_backend/internal/core/ports/repositories"
	"github.com/propfolio/recon_backend/internal/models"
)

// PgxSessionRepository persists reconciliation output: sessions, match
// candidates, discrepancies.
type PgxSessionRepository struct {
	BaseRepository
}

func newPgxSessionRepository(pool *pgxpool.Pool) portsrepo.SessionRepository {
	return &PgxSessionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.SessionRepository = (*PgxSessionRepository)(nil)

func toModelMatch(d domain.MatchCandidate) models.MatchCandidate {
	return models.MatchCandidate{
		MatchID:             d.MatchID,
		SessionID:           d.SessionID,
		MatchType:           string(d.MatchType),
		SourceRecordID:      d.SourceRecordID,
		TargetRecordIDs:     d.TargetRecordIDs,
		ConfidenceScore:     d.ConfidenceScore,
		AmountDifference:    d.AmountDifference,
		RelationshipType:    string(d.RelationshipType),
		RelationshipFormula: d.RelationshipFormula,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

func toDomainMatch(m models.MatchCandidate) domain.MatchCandidate {
	return domain.MatchCandidate{
		MatchID:             m.MatchID,
		SessionID:           m.SessionID,
		MatchType:           domain.MatchType(m.MatchType),
		SourceRecordID:      m.SourceRecordID,
		TargetRecordIDs:     m.TargetRecordIDs,
		ConfidenceScore:     m.ConfidenceScore,
		AmountDifference:    m.AmountDifference,
		RelationshipType:    domain.RelationshipType(m.RelationshipType),
		RelationshipFormula: m.RelationshipFormula,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

func toDomainDiscrepancy(m models.Discrepancy) domain.Discrepancy {
	return domain.Discrepancy{
		DiscrepancyID:        m.DiscrepancyID,
		SessionID:            m.SessionID,
		RecordID:             m.RecordID,
		CounterpartRecordID:  m.CounterpartRecordID,
		AccountCode:          m.AccountCode,
		AccountName:          m.AccountName,
		DocumentType:         domain.DocumentType(m.DocumentType),
		AmountDifference:     m.AmountDifference,
		MatchConfidence:      m.MatchConfidence,
		Severity:             domain.Severity(m.Severity),
		ExceptionTier:        domain.ExceptionTier(m.ExceptionTier),
		AutoResolutionRuleID: m.AutoResolutionRuleID,
		ResolutionStatus:     domain.ResolutionStatus(m.ResolutionStatus),
		Description:          m.Description,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

// SaveSessionResult persists the whole session output atomically. Prior
// output for the same (property, period) is replaced inside the same
// transaction so re-running a session never accumulates duplicate rows.
// Discrepancy rows of the replaced session survive as audit trail only when
// their status was touched by governance; untouched rows are superseded by
// the rerun's freshly classified set.
func (r *PgxSessionRepository) SaveSessionResult(ctx context.Context, result *domain.SessionResult) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	session := result.Session

	// Supersede earlier runs for the same scope.
	supersedeQuery := `
		UPDATE reconciliation_sessions SET status = 'superseded', last_updated_at = $4, last_updated_by = $5
		WHERE property_id = $1 AND period_year = $2 AND period_month = $3 AND status != 'superseded';
	`
	if _, err := tx.Exec(ctx, supersedeQuery, session.PropertyID, session.Period.Year, session.Period.Month, session.LastUpdatedAt, session.LastUpdatedBy); err != nil {
		return fmt.Errorf("failed to supersede prior sessions: %w", err)
	}
	cleanupMatches := `
		DELETE FROM match_candidates WHERE session_id IN (
			SELECT session_id FROM reconciliation_sessions
			WHERE property_id = $1 AND period_year = $2 AND period_month = $3 AND status = 'superseded'
		);
	`
	if _, err := tx.Exec(ctx, cleanupMatches, session.PropertyID, session.Period.Year, session.Period.Month); err != nil {
		return fmt.Errorf("failed to clear superseded matches: %w", err)
	}
	cleanupDiscrepancies := `
		DELETE FROM discrepancies WHERE resolution_status IN ('open', 'auto_closed', 'suggested') AND session_id IN (
			SELECT session_id FROM reconciliation_sessions
			WHERE property_id = $1 AND period_year = $2 AND period_month = $3 AND status = 'superseded'
		);
	`
	if _, err := tx.Exec(ctx, cleanupDiscrepancies, session.PropertyID, session.Period.Year, session.Period.Month); err != nil {
		return fmt.Errorf("failed to clear superseded discrepancies: %w", err)
	}

	sessionQuery := `
		INSERT INTO reconciliation_sessions (
			session_id, property_id, period_year, period_month, status,
			started_at, completed_at, created_at, created_by, last_updated_at, last_updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err = tx.Exec(ctx, sessionQuery,
		session.SessionID, session.PropertyID, session.Period.Year, session.Period.Month, string(session.Status),
		session.StartedAt, session.CompletedAt,
		session.CreatedAt, session.CreatedBy, session.LastUpdatedAt, session.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session %s: %w", session.SessionID, err)
	}

	batch := &pgx.Batch{}
	matchQuery := `
		INSERT INTO match_candidates (
			match_id, session_id, match_type, source_record_id, target_record_ids,
			confidence_score, amount_difference, relationship_type, relationship_formula,
			created_at, created_by, last_updated_at, last_updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	for _, match := range result.Matches {
		m := toModelMatch(match)
		batch.Queue(matchQuery,
			m.MatchID, m.SessionID, m.MatchType, m.SourceRecordID, m.TargetRecordIDs,
			m.ConfidenceScore, m.AmountDifference, m.RelationshipType, m.RelationshipFormula,
			m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
		)
	}
	discQuery := `
		INSERT INTO discrepancies (
			discrepancy_id, session_id, record_id, counterpart_record_id, account_code,
			account_name, document_type, amount_difference, match_confidence, severity,
			exception_tier, auto_resolution_rule_id, resolution_status, description,
			created_at, created_by, last_updated_at, last_updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);
	`
	for _, disc := range result.Discrepancies {
		var ruleID *string
		if disc.AutoResolutionRuleID != "" {
			ruleID = &disc.AutoResolutionRuleID
		}
		var counterpart *string
		if disc.CounterpartRecordID != "" {
			counterpart = &disc.CounterpartRecordID
		}
		batch.Queue(discQuery,
			disc.DiscrepancyID, disc.SessionID, disc.RecordID, counterpart, disc.AccountCode,
			disc.AccountName, string(disc.DocumentType), disc.AmountDifference, disc.MatchConfidence, string(disc.Severity),
			string(disc.ExceptionTier), ruleID, string(disc.ResolutionStatus), disc.Description,
			disc.CreatedAt, disc.CreatedBy, disc.LastUpdatedAt, disc.LastUpdatedBy,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert session rows: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to flush session rows: %w", err)
	}

	return r.Commit(ctx, tx)
}

func (r *PgxSessionRepository) FindSessionByID(ctx context.Context, sessionID string) (*domain.SessionResult, error) {
	sessionQuery := `
		SELECT session_id, property_id, period_year, period_month, status,
		       started_at, completed_at, created_at, created_by, last_updated_at, last_updated_by
		FROM reconciliation_sessions WHERE session_id = $1;
	`
	var m models.ReconciliationSession
	err := r.Pool.QueryRow(ctx, sessionQuery, sessionID).Scan(
		&m.SessionID, &m.PropertyID, &m.PeriodYear, &m.PeriodMonth, &m.Status,
		&m.StartedAt, &m.CompletedAt, &m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query session %s: %w", sessionID, err)
	}

	matches, err := r.findMatches(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	discrepancies, err := r.FindDiscrepancies(ctx, sessionID, "")
	if err != nil {
		return nil, err
	}

	result := &domain.SessionResult{
		Session: domain.ReconciliationSession{
			SessionID:   m.SessionID,
			PropertyID:  m.PropertyID,
			Period:      domain.Period{Year: m.PeriodYear, Month: m.PeriodMonth},
			Status:      domain.SessionStatus(m.Status),
			StartedAt:   m.StartedAt,
			CompletedAt: m.CompletedAt,
			AuditFields: domain.AuditFields{
				CreatedAt:     m.CreatedAt,
				CreatedBy:     m.CreatedBy,
				LastUpdatedAt: m.LastUpdatedAt,
				LastUpdatedBy: m.LastUpdatedBy,
			},
		},
		MatchesFound:       len(matches),
		DiscrepanciesFound: len(discrepancies),
		Matches:            matches,
		Discrepancies:      discrepancies,
	}
	result.MatchesByType = make(map[domain.MatchType]int)
	for _, match := range matches {
		result.MatchesByType[match.MatchType]++
	}
	result.DiscrepanciesByTier = make(map[domain.ExceptionTier]int)
	for _, disc := range discrepancies {
		result.DiscrepanciesByTier[disc.ExceptionTier]++
	}
	return result, nil
}

func (r *PgxSessionRepository) findMatches(ctx context.Context, sessionID string) ([]domain.MatchCandidate, error) {
	query := `
		SELECT match_id, session_id, match_type, source_record_id, target_record_ids,
		       confidence_score, amount_difference, relationship_type, relationship_formula,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM match_candidates WHERE session_id = $1
		ORDER BY match_type, source_record_id;
	`
	rows, err := r.Pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query match candidates: %w", err)
	}
	defer rows.Close()

	var matches []domain.MatchCandidate
	for rows.Next() {
		var m models.MatchCandidate
		err := rows.Scan(
			&m.MatchID, &m.SessionID, &m.MatchType, &m.SourceRecordID, &m.TargetRecordIDs,
			&m.ConfidenceScore, &m.AmountDifference, &m.RelationshipType, &m.RelationshipFormula,
			&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match candidate: %w", err)
		}
		matches = append(matches, toDomainMatch(m))
	}
	return matches, rows.Err()
}

func (r *PgxSessionRepository) FindDiscrepancies(ctx context.Context, sessionID string, tier domain.ExceptionTier) ([]domain.Discrepancy, error) {
	query := `
		SELECT discrepancy_id, session_id, record_id, COALESCE(counterpart_record_id, ''), account_code,
		       account_name, document_type, amount_difference, match_confidence, severity,
		       exception_tier, COALESCE(auto_resolution_rule_id, ''), resolution_status, description,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM discrepancies WHERE session_id = $1 AND ($2 = '' OR exception_tier = $2)
		ORDER BY exception_tier DESC, account_code;
	`
	rows, err := r.Pool.Query(ctx, query, sessionID, string(tier))
	if err != nil {
		return nil, fmt.Errorf("failed to query discrepancies: %w", err)
	}
	defer rows.Close()

	var discrepancies []domain.Discrepancy
	for rows.Next() {
		m, err := scanDiscrepancy(rows)
		if err != nil {
			return nil, err
		}
		discrepancies = append(discrepancies, toDomainDiscrepancy(m))
	}
	return discrepancies, rows.Err()
}

func scanDiscrepancy(row pgx.Row) (models.Discrepancy, error) {
	var m models.Discrepancy
	err := row.Scan(
		&m.DiscrepancyID, &m.SessionID, &m.RecordID, &m.CounterpartRecordID, &m.AccountCode,
		&m.AccountName, &m.DocumentType, &m.AmountDifference, &m.MatchConfidence, &m.Severity,
		&m.ExceptionTier, &m.AutoResolutionRuleID, &m.ResolutionStatus, &m.Description,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return models.Discrepancy{}, fmt.Errorf("failed to scan discrepancy: %w", err)
	}
	return m, nil
}

func (r *PgxSessionRepository) FindDiscrepancyByID(ctx context.Context, discrepancyID string) (*domain.Discrepancy, error) {
	query := `
		SELECT discrepancy_id, session_id, record_id, COALESCE(counterpart_record_id, ''), account_code,
		       account_name, document_type, amount_difference, match_confidence, severity,
		       exception_tier, COALESCE(auto_resolution_rule_id, ''), resolution_status, description,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM discrepancies WHERE discrepancy_id = $1;
	`
	m, err := scanDiscrepancy(r.Pool.QueryRow(ctx, query, discrepancyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	disc := toDomainDiscrepancy(m)
	return &disc, nil
}

// UpdateDiscrepancyStatus records a governance-side status transition.
// Discrepancies are never deleted; this is the only mutation allowed.
func (r *PgxSessionRepository) UpdateDiscrepancyStatus(ctx context.Context, discrepancyID string, status domain.ResolutionStatus, userID string) error {
	query := `
		UPDATE discrepancies SET resolution_status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE discrepancy_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, discrepancyID, string(status), time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update discrepancy %s: %w", discrepancyID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
