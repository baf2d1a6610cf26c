package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/propfolio/recon_backend/internal/core/domain"
	portsrepo "github.com/propfolio/recon_backend/internal/core/ports/repositories"
	"github.com/propfolio/recon_backend/internal/models"
)

// PgxRecordRepository reads extracted financial records. The extraction
// pipeline owns these rows; this repository is read-only.
type PgxRecordRepository struct {
	BaseRepository
}

func newPgxRecordRepository(pool *pgxpool.Pool) portsrepo.RecordReader {
	return &PgxRecordRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.RecordReader = (*PgxRecordRepository)(nil)

func toDomainRecord(m models.FinancialRecord) domain.FinancialRecord {
	return domain.FinancialRecord{
		RecordID:       m.RecordID,
		PropertyID:     m.PropertyID,
		AccountCode:    m.AccountCode,
		AccountName:    m.AccountName,
		Amount:         m.Amount,
		Period:         domain.Period{Year: m.PeriodYear, Month: m.PeriodMonth},
		DocumentType:   domain.DocumentType(m.DocumentType),
		SourceUploadID: m.SourceUploadID,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

// FindRecords returns every record of one document type for a property and
// period. Ordering is part of the contract: the strategy engines are
// deterministic only if the input order is.
func (r *PgxRecordRepository) FindRecords(ctx context.Context, propertyID string, period domain.Period, docType domain.DocumentType) ([]domain.FinancialRecord, error) {
	query := `
		SELECT record_id, property_id, account_code, account_name, amount,
		       period_year, period_month, document_type, source_upload_id,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM financial_records
		WHERE property_id = $1 AND period_year = $2 AND period_month = $3 AND document_type = $4
		ORDER BY account_code, record_id;
	`
	rows, err := r.Pool.Query(ctx, query, propertyID, period.Year, period.Month, string(docType))
	if err != nil {
		return nil, fmt.Errorf("failed to query financial records: %w", err)
	}
	defer rows.Close()

	var records []domain.FinancialRecord
	for rows.Next() {
		var m models.FinancialRecord
		err := rows.Scan(
			&m.RecordID, &m.PropertyID, &m.AccountCode, &m.AccountName, &m.Amount,
			&m.PeriodYear, &m.PeriodMonth, &m.DocumentType, &m.SourceUploadID,
			&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan financial record: %w", err)
		}
		records = append(records, toDomainRecord(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating financial records: %w", err)
	}
	return records, nil
}
