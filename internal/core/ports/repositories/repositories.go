package repositories

import (
	"context"

	"github.com/propfolio/recon_backend/internal/core/domain"
)

// RecordReader reads extracted financial records. The extraction pipeline
// owns these rows; the reconciliation engine never writes them.
type RecordReader interface {
	// FindRecords retrieves every record of one document type for a
	// property and period, in stable (account_code, record_id) order.
	FindRecords(ctx context.Context, propertyID string, period domain.Period, docType domain.DocumentType) ([]domain.FinancialRecord, error)
}

// ConfigReader loads the shared reconciliation configuration. Implementations
// must read fresh committed state: the snapshot is taken at session start and
// never cached across sessions.
type ConfigReader interface {
	// LoadConfigSnapshot loads the materiality configs, auto-resolution
	// rules and account risk classes applicable to a property.
	LoadConfigSnapshot(ctx context.Context, propertyID string) (*domain.ConfigSnapshot, error)
}

// SessionReader reads persisted reconciliation output.
type SessionReader interface {
	// FindSessionByID retrieves a session with its matches and discrepancies.
	FindSessionByID(ctx context.Context, sessionID string) (*domain.SessionResult, error)

	// FindDiscrepancies lists a session's discrepancies, optionally filtered
	// by exception tier (empty tier = all).
	FindDiscrepancies(ctx context.Context, sessionID string, tier domain.ExceptionTier) ([]domain.Discrepancy, error)

	// FindDiscrepancyByID retrieves one discrepancy.
	FindDiscrepancyByID(ctx context.Context, discrepancyID string) (*domain.Discrepancy, error)
}

// SessionWriter persists reconciliation output.
type SessionWriter interface {
	// SaveSessionResult persists the session row, its match candidates and
	// its discrepancies in a single transaction. Any prior session output
	// for the same (property, period) is replaced in the same transaction,
	// so re-running a session is idempotent. On error nothing is committed.
	SaveSessionResult(ctx context.Context, result *domain.SessionResult) error

	// UpdateDiscrepancyStatus records a governance-side status transition.
	UpdateDiscrepancyStatus(ctx context.Context, discrepancyID string, status domain.ResolutionStatus, userID string) error
}

// SessionRepository combines the reconciliation output operations.
type SessionRepository interface {
	SessionReader
	SessionWriter
}
