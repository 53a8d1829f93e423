package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/arkanlabs/course-feedback-api/internal/models"
)

// SettingRepository persists per-tenant setting entries.
type SettingRepository struct {
	db *sqlx.DB
}

// NewSettingRepository constructs the repository.
func NewSettingRepository(db *sqlx.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Get fetches a single setting by key.
func (r *SettingRepository) Get(ctx context.Context, tenantID, key string) (*models.Setting, error) {
	const query = `SELECT tenant_id, key, value, updated_by, updated_at FROM settings WHERE tenant_id = $1 AND key = $2`
	var setting models.Setting
	if err := r.db.GetContext(ctx, &setting, query, tenantID, key); err != nil {
		return nil, err
	}
	return &setting, nil
}

// List returns every setting for the tenant, key ascending.
func (r *SettingRepository) List(ctx context.Context, tenantID string) ([]models.Setting, error) {
	const query = `SELECT tenant_id, key, value, updated_by, updated_at FROM settings WHERE tenant_id = $1 ORDER BY key ASC`
	var settings []models.Setting
	if err := r.db.SelectContext(ctx, &settings, query, tenantID); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return settings, nil
}

// Upsert inserts or updates a setting entry.
func (r *SettingRepository) Upsert(ctx context.Context, setting *models.Setting) error {
	const query = `INSERT INTO settings (tenant_id, key, value, updated_by, updated_at)
VALUES (:tenant_id, :key, :value, :updated_by, :updated_at)
ON CONFLICT (tenant_id, key)
DO UPDATE SET value = EXCLUDED.value, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	setting.UpdatedAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, query, setting); err != nil {
		return fmt.Errorf("upsert setting: %w", err)
	}
	return nil
}
