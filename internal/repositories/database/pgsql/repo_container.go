package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/propfolio/recon_backend/internal/core/ports/repositories"
)

// NewRepositoryProvider wires the pgsql repositories.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		RecordRepo:  newPgxRecordRepository(dbPool),
		ConfigRepo:  newPgxConfigRepository(dbPool),
		SessionRepo: newPgxSessionRepository(dbPool),
	}
}
