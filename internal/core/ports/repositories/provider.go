package repositories

// RepositoryProvider bundles the repository implementations handed to the
// service container.
type RepositoryProvider struct {
	RecordRepo  RecordReader
	ConfigRepo  ConfigReader
	SessionRepo SessionRepository
}
