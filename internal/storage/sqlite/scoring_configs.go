package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/modforge/modforge/internal/types"
)

const scoringConfigColumns = `id, name, version, weight_intent, weight_tech,
       weight_domain, threshold_direct, threshold_medium, min_score,
       is_default, is_active, created_at`

// CreateScoringConfig stores a new scoring config. If the config is marked
// default, any previous default is cleared in the same transaction.
func (s *SQLiteStorage) CreateScoringConfig(ctx context.Context, config *types.ScoringConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if config.ID == "" {
		config.ID = uuid.NewString()
	}
	if config.Version == 0 {
		config.Version = 1
	}
	config.CreatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if config.IsDefault {
		if _, err := tx.ExecContext(ctx, `UPDATE scoring_configs SET is_default = 0`); err != nil {
			return fmt.Errorf("failed to clear previous default: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO scoring_configs (
			id, name, version, weight_intent, weight_tech, weight_domain,
			threshold_direct, threshold_medium, min_score,
			is_default, is_active, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		config.ID, config.Name, config.Version, config.WeightIntent,
		config.WeightTech, config.WeightDomain, config.ThresholdDirect,
		config.ThresholdMedium, config.MinScore, config.IsDefault,
		config.IsActive, config.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert scoring config: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetScoringConfig retrieves a config by ID. Returns nil if not found.
func (s *SQLiteStorage) GetScoringConfig(ctx context.Context, id string) (*types.ScoringConfig, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+scoringConfigColumns+`
		FROM scoring_configs
		WHERE id = ?
	`, id)
	config, err := scanScoringConfig(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scoring config: %w", err)
	}
	return config, nil
}

// GetDefaultScoringConfig returns the active default config, or nil when no
// default has been set.
func (s *SQLiteStorage) GetDefaultScoringConfig(ctx context.Context) (*types.ScoringConfig, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+scoringConfigColumns+`
		FROM scoring_configs
		WHERE is_default = 1 AND is_active = 1
	`)
	config, err := scanScoringConfig(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get default scoring config: %w", err)
	}
	return config, nil
}

// ListScoringConfigs returns all configs ordered by creation time.
func (s *SQLiteStorage) ListScoringConfigs(ctx context.Context) ([]*types.ScoringConfig, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+scoringConfigColumns+`
		FROM scoring_configs
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scoring configs: %w", err)
	}
	defer rows.Close()

	var configs []*types.ScoringConfig
	for rows.Next() {
		config, err := scanScoringConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scoring config: %w", err)
		}
		configs = append(configs, config)
	}
	return configs, rows.Err()
}

// SetDefaultScoringConfig promotes a config to default. The previous default
// is demoted in the same transaction, so exactly one default survives.
func (s *SQLiteStorage) SetDefaultScoringConfig(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var active bool
	err = tx.QueryRowContext(ctx, `SELECT is_active FROM scoring_configs WHERE id = ?`, id).Scan(&active)
	if err == sql.ErrNoRows {
		return fmt.Errorf("scoring config not found: %s", id)
	}
	if err != nil {
		return fmt.Errorf("failed to look up scoring config: %w", err)
	}
	if !active {
		return fmt.Errorf("scoring config is inactive: %s", id)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE scoring_configs SET is_default = 0`); err != nil {
		return fmt.Errorf("failed to clear previous default: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE scoring_configs SET is_default = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to set default: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanScoringConfig(row scanner) (*types.ScoringConfig, error) {
	var c types.ScoringConfig
	err := row.Scan(
		&c.ID, &c.Name, &c.Version, &c.WeightIntent, &c.WeightTech,
		&c.WeightDomain, &c.ThresholdDirect, &c.ThresholdMedium,
		&c.MinScore, &c.IsDefault, &c.IsActive, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
