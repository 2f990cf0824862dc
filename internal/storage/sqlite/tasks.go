package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/modforge/modforge/internal/types"
)

const taskColumns = `id, module_id, name, description, assignee, status,
       priority, difficulty, time_estimate, generated_by_ai, due_date,
       created_at, updated_at`

// CreateTask creates a new task and bumps the parent module's counters.
func (s *SQLiteStorage) CreateTask(ctx context.Context, task *types.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tasks (
			id, module_id, name, description, assignee, status, priority,
			difficulty, time_estimate, generated_by_ai, due_date,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		task.ID, task.ModuleID, task.Name, task.Description,
		nullString(task.Assignee), task.Status, task.Priority,
		task.Difficulty, task.TimeEstimate, task.GeneratedByAI,
		task.DueDate, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	if err := recalcModuleProgress(ctx, tx, task.ModuleID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID. Returns nil if not found.
func (s *SQLiteStorage) GetTask(ctx context.Context, id string) (*types.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = ?
	`, id)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// ListTasks returns all tasks for a module ordered by creation time.
func (s *SQLiteStorage) ListTasks(ctx context.Context, moduleID string) ([]*types.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE module_id = ?
		ORDER BY created_at, id
	`, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*types.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// UpdateTaskStatus moves a task through its workflow and recomputes the
// parent module's progress in the same transaction.
func (s *SQLiteStorage) UpdateTaskStatus(ctx context.Context, id string, status types.TaskStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid status: %s", status)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var moduleID string
	err = tx.QueryRowContext(ctx, `SELECT module_id FROM tasks WHERE id = ?`, id).Scan(&moduleID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("task not found: %s", id)
	}
	if err != nil {
		return fmt.Errorf("failed to look up task: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?
	`, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}

	if err := recalcModuleProgress(ctx, tx, moduleID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteTask removes a task and recomputes the parent module's progress.
func (s *SQLiteStorage) DeleteTask(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var moduleID string
	err = tx.QueryRowContext(ctx, `SELECT module_id FROM tasks WHERE id = ?`, id).Scan(&moduleID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("task not found: %s", id)
	}
	if err != nil {
		return fmt.Errorf("failed to look up task: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if err := recalcModuleProgress(ctx, tx, moduleID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// recalcModuleProgress recomputes task_count, completed_tasks and the derived
// progress percentage for a module. Progress is 0 when the module has no
// tasks.
func recalcModuleProgress(ctx context.Context, tx *sql.Tx, moduleID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE modules SET
			task_count = (SELECT COUNT(*) FROM tasks WHERE module_id = ?),
			completed_tasks = (SELECT COUNT(*) FROM tasks WHERE module_id = ? AND status = 'done'),
			progress = COALESCE((
				SELECT (COUNT(CASE WHEN status = 'done' THEN 1 END) * 100) / COUNT(*)
				FROM tasks WHERE module_id = ?
			), 0),
			updated_at = ?
		WHERE id = ?
	`, moduleID, moduleID, moduleID, time.Now().UTC(), moduleID)
	if err != nil {
		return fmt.Errorf("failed to recompute module progress: %w", err)
	}
	return nil
}

func scanTask(row scanner) (*types.Task, error) {
	var t types.Task
	var assignee sql.NullString
	var dueDate sql.NullTime

	err := row.Scan(
		&t.ID, &t.ModuleID, &t.Name, &t.Description, &assignee,
		&t.Status, &t.Priority, &t.Difficulty, &t.TimeEstimate,
		&t.GeneratedByAI, &dueDate, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if assignee.Valid {
		t.Assignee = assignee.String
	}
	if dueDate.Valid {
		t.DueDate = &dueDate.Time
	}
	return &t, nil
}
