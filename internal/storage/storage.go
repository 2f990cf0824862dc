// Package storage defines the persistence interface for modforge: projects,
// documents, modules with their tag rows, tasks, the append-only reuse
// history and scoring configurations.
package storage

import (
	"context"

	"github.com/modforge/modforge/internal/types"
)

// Storage is the interface all storage backends implement.
type Storage interface {
	// Projects
	CreateProject(ctx context.Context, project *types.Project) error
	GetProject(ctx context.Context, id string) (*types.Project, error)
	ListProjects(ctx context.Context) ([]*types.Project, error)
	DeleteProject(ctx context.Context, id string) error

	// Documents
	CreateDocument(ctx context.Context, doc *types.Document) error
	GetDocument(ctx context.Context, id string) (*types.Document, error)
	ListDocuments(ctx context.Context, projectID string) ([]*types.Document, error)

	// Modules. Tag writes are atomic with the module row: the denormalized
	// tags_metadata JSON and the per-layer module_tags rows are updated in
	// the same transaction.
	CreateModule(ctx context.Context, module *types.Module) error
	GetModule(ctx context.Context, id string) (*types.Module, error)
	ListModules(ctx context.Context, projectID string) ([]*types.Module, error)
	ListTaggedModules(ctx context.Context) ([]*types.Module, error)
	UpdateModule(ctx context.Context, id string, updates map[string]interface{}) error
	SetModuleTags(ctx context.Context, moduleID string, tags types.TagSet) error
	DeleteModule(ctx context.Context, id string) error

	// Tasks
	CreateTask(ctx context.Context, task *types.Task) error
	GetTask(ctx context.Context, id string) (*types.Task, error)
	ListTasks(ctx context.Context, moduleID string) ([]*types.Task, error)
	UpdateTaskStatus(ctx context.Context, id string, status types.TaskStatus) error
	DeleteTask(ctx context.Context, id string) error

	// Reuse history. The log is append-only: records are inserted once and
	// there is deliberately no update or delete method.
	RecordReuse(ctx context.Context, record *types.ReuseRecord) error
	GetReuseHistory(ctx context.Context, moduleID string) ([]*types.ReuseRecord, error)
	ListReuseHistory(ctx context.Context, limit int) ([]*types.ReuseRecord, error)

	// Scoring configs. SetDefaultScoringConfig clears any previous default
	// in the same transaction, so at most one default exists at a time.
	CreateScoringConfig(ctx context.Context, config *types.ScoringConfig) error
	GetScoringConfig(ctx context.Context, id string) (*types.ScoringConfig, error)
	GetDefaultScoringConfig(ctx context.Context) (*types.ScoringConfig, error)
	ListScoringConfigs(ctx context.Context) ([]*types.ScoringConfig, error)
	SetDefaultScoringConfig(ctx context.Context, id string) error

	// Lifecycle
	Close() error
}
