package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/propfolio/recon_backend/internal/core/domain"
	portsrepo "github.com/propfolio/recon_backend/internal/core/ports/repositories"
	"github.com/propfolio/recon_backend/internal/models"
)

// PgxConfigRepository loads the shared reconciliation configuration. Writes
// happen through the external administration surface; the engine only ever
// reads, and always reads fresh committed state at session start.
type PgxConfigRepository struct {
	BaseRepository
}

func newPgxConfigRepository(pool *pgxpool.Pool) portsrepo.ConfigReader {
	return &PgxConfigRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ConfigReader = (*PgxConfigRepository)(nil)

func toDomainMaterialityConfig(m models.MaterialityConfig) domain.MaterialityConfig {
	var stmt *domain.DocumentType
	if m.StatementType != nil {
		dt := domain.DocumentType(*m.StatementType)
		stmt = &dt
	}
	return domain.MaterialityConfig{
		ConfigID:                 m.ConfigID,
		PropertyID:               m.PropertyID,
		StatementType:            stmt,
		AccountCode:              m.AccountCode,
		AbsoluteThreshold:        m.AbsoluteThreshold,
		RelativeThresholdPercent: m.RelativeThresholdPercent,
		RiskClass:                domain.RiskClass(m.RiskClass),
		ToleranceType:            domain.ToleranceType(m.ToleranceType),
		EffectiveDate:            m.EffectiveDate,
		ExpiresAt:                m.ExpiresAt,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

func toDomainAutoRule(m models.AutoResolutionRule) domain.AutoResolutionRule {
	var stmt *domain.DocumentType
	if m.StatementType != nil {
		dt := domain.DocumentType(*m.StatementType)
		stmt = &dt
	}
	return domain.AutoResolutionRule{
		RuleID:              m.RuleID,
		Name:                m.Name,
		PatternType:         domain.PatternType(m.PatternType),
		ConditionJSON:       m.ConditionJSON,
		ActionType:          domain.ActionType(m.ActionType),
		ConfidenceThreshold: m.ConfidenceThreshold,
		Priority:            m.Priority,
		IsActive:            m.IsActive,
		PropertyID:          m.PropertyID,
		StatementType:       stmt,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

// LoadConfigSnapshot loads every config row applicable to a property:
// property-scoped rows plus globals. Scope precedence is resolved later by
// the materiality resolver; the snapshot is just the raw eligible set.
func (r *PgxConfigRepository) LoadConfigSnapshot(ctx context.Context, propertyID string) (*domain.ConfigSnapshot, error) {
	snapshot := &domain.ConfigSnapshot{LoadedAt: time.Now()}

	configQuery := `
		SELECT config_id, property_id, statement_type, account_code,
		       absolute_threshold, relative_threshold_percent, risk_class, tolerance_type,
		       effective_date, expires_at,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM materiality_configs
		WHERE property_id IS NULL OR property_id = $1
		ORDER BY config_id;
	`
	rows, err := r.Pool.Query(ctx, configQuery, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query materiality configs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m models.MaterialityConfig
		err := rows.Scan(
			&m.ConfigID, &m.PropertyID, &m.StatementType, &m.AccountCode,
			&m.AbsoluteThreshold, &m.RelativeThresholdPercent, &m.RiskClass, &m.ToleranceType,
			&m.EffectiveDate, &m.ExpiresAt,
			&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan materiality config: %w", err)
		}
		snapshot.MaterialityConfigs = append(snapshot.MaterialityConfigs, toDomainMaterialityConfig(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating materiality configs: %w", err)
	}

	ruleQuery := `
		SELECT rule_id, name, pattern_type, condition_json, action_type,
		       confidence_threshold, priority, is_active, property_id, statement_type,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM auto_resolution_rules
		WHERE property_id IS NULL OR property_id = $1
		ORDER BY priority DESC, rule_id;
	`
	ruleRows, err := r.Pool.Query(ctx, ruleQuery, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query auto-resolution rules: %w", err)
	}
	defer ruleRows.Close()
	for ruleRows.Next() {
		var m models.AutoResolutionRule
		err := ruleRows.Scan(
			&m.RuleID, &m.Name, &m.PatternType, &m.ConditionJSON, &m.ActionType,
			&m.ConfidenceThreshold, &m.Priority, &m.IsActive, &m.PropertyID, &m.StatementType,
			&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan auto-resolution rule: %w", err)
		}
		snapshot.AutoResolutionRules = append(snapshot.AutoResolutionRules, toDomainAutoRule(m))
	}
	if err := ruleRows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating auto-resolution rules: %w", err)
	}

	riskQuery := `
		SELECT risk_class_id, account_code_pattern, risk_class, default_tolerance, description,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM account_risk_classes
		ORDER BY account_code_pattern;
	`
	riskRows, err := r.Pool.Query(ctx, riskQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query account risk classes: %w", err)
	}
	defer riskRows.Close()
	for riskRows.Next() {
		var m models.AccountRiskClass
		err := riskRows.Scan(
			&m.RiskClassID, &m.AccountCodePattern, &m.RiskClass, &m.DefaultTolerance, &m.Description,
			&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account risk class: %w", err)
		}
		snapshot.AccountRiskClasses = append(snapshot.AccountRiskClasses, domain.AccountRiskClass{
			RiskClassID:        m.RiskClassID,
			AccountCodePattern: m.AccountCodePattern,
			RiskClass:          domain.RiskClass(m.RiskClass),
			DefaultTolerance:   m.DefaultTolerance,
			Description:        m.Description,
			AuditFields: domain.AuditFields{
				CreatedAt:     m.CreatedAt,
				CreatedBy:     m.CreatedBy,
				LastUpdatedAt: m.LastUpdatedAt,
				LastUpdatedBy: m.LastUpdatedBy,
			},
		})
	}
	if err := riskRows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating account risk classes: %w", err)
	}

	return snapshot, nil
}
