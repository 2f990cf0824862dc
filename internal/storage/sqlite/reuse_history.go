package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/modforge/modforge/internal/types"
)

// RecordReuse appends a reuse decision to the history log. The log is
// insert-only; there is no corresponding update or delete.
func (s *SQLiteStorage) RecordReuse(ctx context.Context, record *types.ReuseRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.CreatedAt = time.Now().UTC()

	scoresJSON := "{}"
	if len(record.LayerScores) > 0 {
		data, err := json.Marshal(record.LayerScores)
		if err != nil {
			return fmt.Errorf("failed to encode layer scores: %w", err)
		}
		scoresJSON = string(data)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reuse_history (
			id, source_module_id, target_module_id, weighted_score,
			layer_scores, strategy, rationale, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID, record.SourceModuleID, record.TargetModuleID,
		record.WeightedScore, scoresJSON, record.Strategy,
		record.Rationale, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reuse record: %w", err)
	}
	return nil
}

// GetReuseHistory returns all records where the module appears as source or
// target, newest first.
func (s *SQLiteStorage) GetReuseHistory(ctx context.Context, moduleID string) ([]*types.ReuseRecord, error) {
	return s.queryReuseRecords(ctx, `
		SELECT id, source_module_id, target_module_id, weighted_score,
		       layer_scores, strategy, rationale, created_at
		FROM reuse_history
		WHERE source_module_id = ? OR target_module_id = ?
		ORDER BY created_at DESC, id
	`, moduleID, moduleID)
}

// ListReuseHistory returns the most recent records across all modules.
// A limit of 0 or less means no limit.
func (s *SQLiteStorage) ListReuseHistory(ctx context.Context, limit int) ([]*types.ReuseRecord, error) {
	query := `
		SELECT id, source_module_id, target_module_id, weighted_score,
		       layer_scores, strategy, rationale, created_at
		FROM reuse_history
		ORDER BY created_at DESC, id
	`
	if limit > 0 {
		return s.queryReuseRecords(ctx, query+` LIMIT ?`, limit)
	}
	return s.queryReuseRecords(ctx, query)
}

func (s *SQLiteStorage) queryReuseRecords(ctx context.Context, query string, args ...interface{}) ([]*types.ReuseRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reuse history: %w", err)
	}
	defer rows.Close()

	var records []*types.ReuseRecord
	for rows.Next() {
		record, err := scanReuseRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reuse record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanReuseRecord(rows *sql.Rows) (*types.ReuseRecord, error) {
	var r types.ReuseRecord
	var scoresJSON string

	err := rows.Scan(
		&r.ID, &r.SourceModuleID, &r.TargetModuleID, &r.WeightedScore,
		&scoresJSON, &r.Strategy, &r.Rationale, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if scoresJSON != "" && scoresJSON != "{}" {
		if err := json.Unmarshal([]byte(scoresJSON), &r.LayerScores); err != nil {
			return nil, fmt.Errorf("failed to decode layer scores: %w", err)
		}
	}
	return &r, nil
}
