package documentation

import "github.com/sourcelore/sourcelore/domain/repository"

// WithRepositoryID filters documentation by the repository it covers.
func WithRepositoryID(repositoryID int64) repository.Option {
	return repository.WithCondition("repository_id", repositoryID)
}

// WithStatus filters documentation by lifecycle status.
func WithStatus(status Status) repository.Option {
	return repository.WithCondition("status", string(status))
}
