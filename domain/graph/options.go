package graph

import "github.com/sourcelore/sourcelore/domain/repository"

// WithRepositoryID filters graphs/patterns by a repository ID they span.
func WithRepositoryID(repositoryID int64) repository.Option {
	return repository.WithCondition("repository_id", repositoryID)
}

// WithStatus filters graphs by lifecycle status.
func WithStatus(status Status) repository.Option {
	return repository.WithCondition("status", string(status))
}

// WithPatternType filters patterns by their detector family.
func WithPatternType(patternType PatternType) repository.Option {
	return repository.WithCondition("type", string(patternType))
}
