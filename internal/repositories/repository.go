package repositories

import "context"

// Repository aggregates the per-entity repositories.
type Repository interface {
	Account() AccountRepository
	Subject() SubjectRepository
	Submission() SubmissionRepository

	// WithTransaction runs fn against a transaction-scoped Repository.
	// No business operation in this service spans more than one entity
	// mutation; this exists for the storage layer's own composite writes.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	Ping(ctx context.Context) error
	Close() error
}

// RepositoryManager manages repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
