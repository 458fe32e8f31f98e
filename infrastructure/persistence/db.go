// Package persistence provides database storage implementations.
package persistence

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/sourcelore/sourcelore/internal/database"
	"gorm.io/gorm"
)

// PreMigrate handles one-time schema conversions from the Python-era database.
// It converts PostgreSQL enum columns to text so GORM AutoMigrate can manage them.
// Safe to run repeatedly — it checks whether the enum types still exist before acting.
func PreMigrate(db database.Database) error {
	if !db.IsPostgres() {
		return nil
	}

	gdb := db.GORM()

	// Convert embeddings.type from embeddingtype enum to text.
	var enumExists bool
	err := gdb.Raw(`SELECT EXISTS(SELECT 1 FROM pg_type WHERE typname = 'embeddingtype')`).Scan(&enumExists).Error
	if err != nil {
		return err
	}
	if enumExists {
		slog.Warn("one-time database migration: converting Python-era enum columns to text — please wait, do not interrupt")
		if err := gdb.Exec(`ALTER TABLE embeddings ALTER COLUMN type TYPE text USING type::text`).Error; err != nil {
			return err
		}
		if err := gdb.Exec(`UPDATE embeddings SET type = LOWER(type)`).Error; err != nil {
			return err
		}
		if err := gdb.Exec(`DROP TYPE IF EXISTS embeddingtype`).Error; err != nil {
			return err
		}
		slog.Info("one-time database migration complete")
	}

	// Replace non-unique ix_tasks_dedup_key with the unique index GORM expects.
	var hasOldDedupIndex bool
	err = gdb.Raw(`
		SELECT EXISTS(
			SELECT 1 FROM pg_indexes
			WHERE indexname = 'ix_tasks_dedup_key'
		)
	`).Scan(&hasOldDedupIndex).Error
	if err != nil {
		return err
	}
	if hasOldDedupIndex {
		slog.Warn("one-time database migration: replacing non-unique ix_tasks_dedup_key with unique index")
		stmts := []string{
			`DROP INDEX IF EXISTS ix_tasks_dedup_key`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_dedup_key ON tasks (dedup_key)`,
		}
		for _, stmt := range stmts {
			if err := gdb.Exec(stmt).Error; err != nil {
				return fmt.Errorf("tasks dedup_key index migration: %w", err)
			}
		}
		slog.Info("one-time database migration complete: tasks.dedup_key unique index created")
	}

	return nil
}

// AutoMigrate runs GORM auto migration for all models.
func AutoMigrate(db database.Database) error {
	if err := db.GORM().AutoMigrate(
		&RepositoryModel{},
		&EntityModel{},
		&RelationshipModel{},
		&TaskModel{},
		&TaskStatusModel{},
		&DocumentationModel{},
		&ConversationModel{},
	); err != nil {
		return err
	}
	return postMigrate(db)
}

// postMigrate creates FK constraints that GORM cannot manage correctly.
//
// GORM has a bug (go-gorm/gorm#7693) where AutoMigrate with multiple models
// creates spurious reverse FK constraints when a child model's composite PK
// shares a column with a parent model's PK. We suppress GORM's FK generation
// on affected fields (constraint:-) and create the correct forward FKs here.
//
// Also cleans up duplicate Python-era FK constraints that lack ON DELETE CASCADE.
func postMigrate(db database.Database) error {
	if !db.IsPostgres() {
		return nil
	}

	gdb := db.GORM()

	// Clean up duplicate Python-era FK constraints (superseded by GORM equivalents).
	oldFKs := []struct{ table, name string }{
		{"task_status", "task_status_parent_fkey"},
	}
	for _, fk := range oldFKs {
		if err := gdb.Exec(fmt.Sprintf(
			`ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s`, fk.table, fk.name,
		)).Error; err != nil {
			return fmt.Errorf("drop old constraint %s.%s: %w", fk.table, fk.name, err)
		}
	}

	return nil
}

// allModels returns every GORM model that AutoMigrate manages.
func allModels() []interface{} {
	return []interface{}{
		&RepositoryModel{},
		&EntityModel{},
		&RelationshipModel{},
		&TaskModel{},
		&TaskStatusModel{},
		&DocumentationModel{},
		&ConversationModel{},
	}
}

// ValidateSchema verifies every GORM model field has a corresponding column
// in the database. Returns an error listing any missing columns.
func ValidateSchema(db database.Database) error {
	gdb := db.GORM()
	migrator := gdb.Migrator()

	var missing []string
	for _, model := range allModels() {
		stmt := &gorm.Statement{DB: gdb}
		if err := stmt.Parse(model); err != nil {
			return fmt.Errorf("parse model schema: %w", err)
		}

		columnTypes, err := migrator.ColumnTypes(model)
		if err != nil {
			return fmt.Errorf("get column types for %s: %w", stmt.Table, err)
		}

		actual := make(map[string]bool, len(columnTypes))
		for _, ct := range columnTypes {
			actual[ct.Name()] = true
		}

		for _, field := range stmt.Schema.Fields {
			if field.DBName == "" || field.DBName == "-" {
				continue
			}
			if !actual[field.DBName] {
				missing = append(missing, stmt.Table+"."+field.DBName)
			}
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("schema validation failed — missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}
