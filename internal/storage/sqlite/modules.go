package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/modforge/modforge/internal/types"
)

// moduleColumns is the SELECT column list shared by all module queries.
const moduleColumns = `id, project_id, name, description, scope, dependencies,
       features, requirements, technical_specs, progress, task_count,
       completed_tasks, source_type, reused_from_module_id, reuse_strategy,
       tags_metadata, generation_metadata, created_at, updated_at`

// moduleUpdateColumns whitelists columns accepted by UpdateModule.
var moduleUpdateColumns = map[string]bool{
	"name":            true,
	"description":     true,
	"scope":           true,
	"dependencies":    true,
	"features":        true,
	"requirements":    true,
	"technical_specs": true,
	"progress":        true,
}

// CreateModule creates a new module. Generates an ID if not set. The module
// row and its per-layer tag rows are written in one transaction.
func (s *SQLiteStorage) CreateModule(ctx context.Context, module *types.Module) error {
	if err := module.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if module.ID == "" {
		module.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	module.CreatedAt = now
	module.UpdatedAt = now

	tagsJSON, err := marshalTags(module.Tags)
	if err != nil {
		return err
	}
	metaJSON, err := marshalMetadata(module.GenerationMetadata)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO modules (
			id, project_id, name, description, scope, dependencies,
			features, requirements, technical_specs, progress, task_count,
			completed_tasks, source_type, reused_from_module_id, reuse_strategy,
			tags_metadata, generation_metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		module.ID, module.ProjectID, module.Name, module.Description,
		module.Scope, module.Dependencies, module.Features,
		module.Requirements, module.TechnicalSpecs, module.Progress,
		module.TaskCount, module.CompletedTasks, module.SourceType,
		nullString(module.ReusedFromModuleID), nullString(string(module.ReuseStrategy)),
		tagsJSON, metaJSON, module.CreatedAt, module.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert module: %w", err)
	}

	if err := replaceTagRows(ctx, tx, module.ID, module.Tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetModule retrieves a module by ID. Returns nil if not found.
func (s *SQLiteStorage) GetModule(ctx context.Context, id string) (*types.Module, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+moduleColumns+`
		FROM modules
		WHERE id = ?
	`, id)
	module, err := scanModule(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	return module, nil
}

// ListModules returns all modules for a project ordered by creation time.
func (s *SQLiteStorage) ListModules(ctx context.Context, projectID string) ([]*types.Module, error) {
	return s.queryModules(ctx, `
		SELECT `+moduleColumns+`
		FROM modules
		WHERE project_id = ?
		ORDER BY created_at, id
	`, projectID)
}

// ListTaggedModules returns all modules carrying at least one scored-layer
// tag, across projects. This is the candidate pool for similarity search.
func (s *SQLiteStorage) ListTaggedModules(ctx context.Context) ([]*types.Module, error) {
	return s.queryModules(ctx, `
		SELECT `+moduleColumns+`
		FROM modules
		WHERE id IN (
			SELECT DISTINCT module_id FROM module_tags
			WHERE layer IN ('L1_intent', 'L2_constraint', 'L3_context')
		)
		ORDER BY created_at, id
	`)
}

// UpdateModule applies a partial update to whitelisted columns.
func (s *SQLiteStorage) UpdateModule(ctx context.Context, id string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	columns := make([]string, 0, len(updates))
	for col := range updates {
		if !moduleUpdateColumns[col] {
			return fmt.Errorf("column not updatable: %s", col)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	setClauses := make([]string, 0, len(columns)+1)
	args := make([]interface{}, 0, len(columns)+2)
	for _, col := range columns {
		setClauses = append(setClauses, col+" = ?")
		args = append(args, updates[col])
	}
	setClauses = append(setClauses, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	result, err := s.db.ExecContext(ctx,
		`UPDATE modules SET `+strings.Join(setClauses, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update module: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("module not found: %s", id)
	}
	return nil
}

// SetModuleTags replaces a module's tags. The denormalized JSON column and
// the per-layer rows are rewritten together so reads never see one without
// the other.
func (s *SQLiteStorage) SetModuleTags(ctx context.Context, moduleID string, tags types.TagSet) error {
	if err := tags.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tagsJSON, err := marshalTags(tags)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE modules SET tags_metadata = ?, updated_at = ? WHERE id = ?
	`, tagsJSON, time.Now().UTC(), moduleID)
	if err != nil {
		return fmt.Errorf("failed to update module tags: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("module not found: %s", moduleID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM module_tags WHERE module_id = ?`, moduleID); err != nil {
		return fmt.Errorf("failed to clear tag rows: %w", err)
	}
	if err := replaceTagRows(ctx, tx, moduleID, tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteModule deletes a module and its tag and task rows.
func (s *SQLiteStorage) DeleteModule(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM modules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete module: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("module not found: %s", id)
	}
	return nil
}

func (s *SQLiteStorage) queryModules(ctx context.Context, query string, args ...interface{}) ([]*types.Module, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	defer rows.Close()

	var modules []*types.Module
	for rows.Next() {
		module, err := scanModule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan module: %w", err)
		}
		modules = append(modules, module)
	}
	return modules, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanModule(row scanner) (*types.Module, error) {
	var m types.Module
	var reusedFrom, reuseStrategy sql.NullString
	var tagsJSON, metaJSON string

	err := row.Scan(
		&m.ID, &m.ProjectID, &m.Name, &m.Description, &m.Scope,
		&m.Dependencies, &m.Features, &m.Requirements, &m.TechnicalSpecs,
		&m.Progress, &m.TaskCount, &m.CompletedTasks, &m.SourceType,
		&reusedFrom, &reuseStrategy, &tagsJSON, &metaJSON,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if reusedFrom.Valid {
		m.ReusedFromModuleID = reusedFrom.String
	}
	if reuseStrategy.Valid {
		m.ReuseStrategy = types.Strategy(reuseStrategy.String)
	}
	if tagsJSON != "" && tagsJSON != "{}" {
		if err := json.Unmarshal([]byte(tagsJSON), &m.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags: %w", err)
		}
	}
	if metaJSON != "" && metaJSON != "{}" {
		if err := json.Unmarshal([]byte(metaJSON), &m.GenerationMetadata); err != nil {
			return nil, fmt.Errorf("failed to decode generation metadata: %w", err)
		}
	}
	return &m, nil
}

func replaceTagRows(ctx context.Context, tx *sql.Tx, moduleID string, tags types.TagSet) error {
	for _, layer := range []types.TagLayer{types.LayerIntent, types.LayerConstraint, types.LayerContext, types.LayerQuality} {
		tag, ok := tags[layer]
		if !ok {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO module_tags (module_id, layer, tag, confidence, reasoning)
			VALUES (?, ?, ?, ?, ?)
		`, moduleID, layer, tag.Value, tag.Confidence, tag.Reasoning)
		if err != nil {
			return fmt.Errorf("failed to insert tag row for %s: %w", layer, err)
		}
	}
	return nil
}

func marshalTags(tags types.TagSet) (string, error) {
	if len(tags) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(data), nil
}

func marshalMetadata(meta map[string]string) (string, error) {
	if len(meta) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to encode generation metadata: %w", err)
	}
	return string(data), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
