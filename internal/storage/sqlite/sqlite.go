// Package sqlite implements the storage interface backed by SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/modforge/modforge/internal/types"
)

// SQLiteStorage implements storage.Storage using SQLite.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// New creates a new SQLite storage backend at the given path.
// The special path ":memory:" creates an in-memory database.
func New(ctx context.Context, path string) (*SQLiteStorage, error) {
	// Create parent directory if needed (skip for in-memory databases)
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// In-memory databases live per-connection; keep the pool at one
	// connection so every query sees the same database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.path
}

// CreateProject creates a new project. Generates an ID if not set.
func (s *SQLiteStorage) CreateProject(ctx context.Context, project *types.Project) error {
	if project.Name == "" {
		return fmt.Errorf("validation failed: name is required")
	}
	if project.ID == "" {
		project.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, project.ID, project.Name, project.Description, project.CreatedAt, project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

// GetProject retrieves a project by ID. Returns nil if not found.
func (s *SQLiteStorage) GetProject(ctx context.Context, id string) (*types.Project, error) {
	var p types.Project
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM projects
		WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}

// ListProjects returns all projects ordered by creation time.
func (s *SQLiteStorage) ListProjects(ctx context.Context) ([]*types.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM projects
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*types.Project
	for rows.Next() {
		var p types.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

// DeleteProject deletes a project and, through foreign keys, its documents,
// modules, tags and tasks. Reuse history rows are kept.
func (s *SQLiteStorage) DeleteProject(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("project not found: %s", id)
	}
	return nil
}

// CreateDocument stores an uploaded document. Generates an ID if not set.
func (s *SQLiteStorage) CreateDocument(ctx context.Context, doc *types.Document) error {
	if doc.Name == "" {
		return fmt.Errorf("validation failed: name is required")
	}
	if doc.ProjectID == "" {
		return fmt.Errorf("validation failed: project_id is required")
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	doc.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, project_id, name, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, doc.ID, doc.ProjectID, doc.Name, doc.Content, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID. Returns nil if not found.
func (s *SQLiteStorage) GetDocument(ctx context.Context, id string) (*types.Document, error) {
	var d types.Document
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, name, content, created_at
		FROM documents
		WHERE id = ?
	`, id).Scan(&d.ID, &d.ProjectID, &d.Name, &d.Content, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &d, nil
}

// ListDocuments returns all documents for a project ordered by creation time.
func (s *SQLiteStorage) ListDocuments(ctx context.Context, projectID string) ([]*types.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, name, content, created_at
		FROM documents
		WHERE project_id = ?
		ORDER BY created_at, id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*types.Document
	for rows.Next() {
		var d types.Document
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.Name, &d.Content, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, &d)
	}
	return docs, rows.Err()
}
