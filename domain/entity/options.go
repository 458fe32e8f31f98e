package entity

import "github.com/sourcelore/sourcelore/domain/repository"

// WithRepositoryID filters by the owning repository.
func WithRepositoryID(repositoryID int64) repository.Option {
	return repository.WithCondition("repository_id", repositoryID)
}

// WithEntityID filters by the deterministic entity ID.
func WithEntityID(entityID string) repository.Option {
	return repository.WithCondition("entity_id", entityID)
}

// WithEntityIDIn filters by a set of entity IDs.
func WithEntityIDIn(entityIDs []string) repository.Option {
	return repository.WithConditionIn("entity_id", entityIDs)
}

// WithKind filters by entity kind.
func WithKind(kind Kind) repository.Option {
	return repository.WithCondition("kind", string(kind))
}

// WithFilePath filters by source file path.
func WithFilePath(filePath string) repository.Option {
	return repository.WithCondition("file_path", filePath)
}

// WithLanguage filters by source language.
func WithLanguage(language string) repository.Option {
	return repository.WithCondition("language", language)
}

// WithSourceEntityID filters relationships by their source entity.
func WithSourceEntityID(entityID string) repository.Option {
	return repository.WithCondition("source_entity_id", entityID)
}

// WithTargetEntityID filters relationships by their target entity.
func WithTargetEntityID(entityID string) repository.Option {
	return repository.WithCondition("target_entity_id", entityID)
}

// WithRelationshipType filters relationships by type.
func WithRelationshipType(relType RelationshipType) repository.Option {
	return repository.WithCondition("type", string(relType))
}
