package sqlite

const schema = `
-- Projects table
CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL CHECK(length(name) <= 255),
    description TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Documents table
CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    name TEXT NOT NULL CHECK(length(name) <= 255),
    content TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_documents_project ON documents(project_id);

-- Modules table
CREATE TABLE IF NOT EXISTS modules (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    name TEXT NOT NULL CHECK(length(name) <= 255),
    description TEXT NOT NULL DEFAULT '',
    scope TEXT NOT NULL DEFAULT '',
    dependencies TEXT NOT NULL DEFAULT '',
    features TEXT NOT NULL DEFAULT '',
    requirements TEXT NOT NULL DEFAULT '',
    technical_specs TEXT NOT NULL DEFAULT '',
    progress INTEGER NOT NULL DEFAULT 0 CHECK(progress >= 0 AND progress <= 100),
    task_count INTEGER NOT NULL DEFAULT 0,
    completed_tasks INTEGER NOT NULL DEFAULT 0,
    source_type TEXT NOT NULL DEFAULT 'ai_generated',
    reused_from_module_id TEXT,
    reuse_strategy TEXT,
    tags_metadata TEXT NOT NULL DEFAULT '{}',
    generation_metadata TEXT NOT NULL DEFAULT '{}',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_modules_project ON modules(project_id);
CREATE INDEX IF NOT EXISTS idx_modules_source_type ON modules(source_type);
CREATE INDEX IF NOT EXISTS idx_modules_reused_from ON modules(reused_from_module_id);

-- Module tags table (one row per layer, canonical copy of tags_metadata)
CREATE TABLE IF NOT EXISTS module_tags (
    module_id TEXT NOT NULL,
    layer TEXT NOT NULL CHECK(layer IN ('L1_intent', 'L2_constraint', 'L3_context', 'L4_quality')),
    tag TEXT NOT NULL,
    confidence REAL NOT NULL DEFAULT 0 CHECK(confidence >= 0 AND confidence <= 1),
    reasoning TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (module_id, layer),
    FOREIGN KEY (module_id) REFERENCES modules(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_module_tags_layer_tag ON module_tags(layer, tag);

-- Tasks table
CREATE TABLE IF NOT EXISTS tasks (
    id TEXT PRIMARY KEY,
    module_id TEXT NOT NULL,
    name TEXT NOT NULL CHECK(length(name) <= 255),
    description TEXT NOT NULL DEFAULT '',
    assignee TEXT,
    status TEXT NOT NULL DEFAULT 'todo' CHECK(status IN ('todo', 'in_progress', 'done')),
    priority TEXT NOT NULL DEFAULT 'medium' CHECK(priority IN ('low', 'medium', 'high')),
    difficulty INTEGER NOT NULL DEFAULT 0 CHECK(difficulty >= 0 AND difficulty <= 5),
    time_estimate INTEGER NOT NULL DEFAULT 0,
    generated_by_ai INTEGER NOT NULL DEFAULT 0,
    due_date DATETIME,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (module_id) REFERENCES modules(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_tasks_module ON tasks(module_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);

-- Reuse history table (append-only log; no updates or deletes)
CREATE TABLE IF NOT EXISTS reuse_history (
    id TEXT PRIMARY KEY,
    source_module_id TEXT NOT NULL,
    target_module_id TEXT NOT NULL,
    weighted_score REAL NOT NULL CHECK(weighted_score >= 0 AND weighted_score <= 1),
    layer_scores TEXT NOT NULL DEFAULT '{}',
    strategy TEXT NOT NULL CHECK(strategy IN ('direct', 'partial_reuse', 'pattern_combination', 'new_gen')),
    rationale TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_reuse_history_source ON reuse_history(source_module_id);
CREATE INDEX IF NOT EXISTS idx_reuse_history_target ON reuse_history(target_module_id);
CREATE INDEX IF NOT EXISTS idx_reuse_history_created_at ON reuse_history(created_at);

-- Scoring configs table
CREATE TABLE IF NOT EXISTS scoring_configs (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL CHECK(length(name) <= 255),
    version INTEGER NOT NULL DEFAULT 1,
    weight_intent REAL NOT NULL DEFAULT 0.60,
    weight_tech REAL NOT NULL DEFAULT 0.25,
    weight_domain REAL NOT NULL DEFAULT 0.15,
    threshold_direct REAL NOT NULL DEFAULT 0.75,
    threshold_medium REAL NOT NULL DEFAULT 0.50,
    min_score REAL NOT NULL DEFAULT 0.30,
    is_default INTEGER NOT NULL DEFAULT 0,
    is_active INTEGER NOT NULL DEFAULT 1,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_scoring_configs_default ON scoring_configs(is_default);
`
