package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/arkanlabs/course-feedback-api/internal/models"
	appErrors "github.com/arkanlabs/course-feedback-api/pkg/errors"
)

type settingRepository interface {
	Get(ctx context.Context, tenantID, key string) (*models.Setting, error)
	List(ctx context.Context, tenantID string) ([]models.Setting, error)
	Upsert(ctx context.Context, setting *models.Setting) error
}

// settingDefaults supplies values for keys without a stored row.
var settingDefaults = map[string]string{
	models.SettingMaxFeedbackPerCourse: "0",
	models.SettingUITheme:              "default",
}

// SettingService manages per-tenant settings and interprets the typed ones.
type SettingService struct {
	repo   settingRepository
	logger *zap.Logger
}

// NewSettingService constructs the setting service.
func NewSettingService(repo settingRepository, logger *zap.Logger) *SettingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingService{repo: repo, logger: logger}
}

// List returns all stored settings merged over the defaults, so every known
// key always appears.
func (s *SettingService) List(ctx context.Context, actor models.Actor) ([]models.Setting, error) {
	stored, err := s.repo.List(ctx, actor.TenantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list settings")
	}
	seen := make(map[string]struct{}, len(stored))
	for _, setting := range stored {
		seen[setting.Key] = struct{}{}
	}
	for key, value := range settingDefaults {
		if _, ok := seen[key]; !ok {
			stored = append(stored, models.Setting{TenantID: actor.TenantID, Key: key, Value: value})
		}
	}
	return stored, nil
}

// Get returns a single setting, falling back to the default for known keys.
func (s *SettingService) Get(ctx context.Context, actor models.Actor, key string) (*models.Setting, error) {
	setting, err := s.repo.Get(ctx, actor.TenantID, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if value, ok := settingDefaults[key]; ok {
				return &models.Setting{TenantID: actor.TenantID, Key: key, Value: value}, nil
			}
			return nil, appErrors.Clone(appErrors.ErrNotFound, "setting not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load setting")
	}
	return setting, nil
}

// Update stores a setting value. Only known keys are accepted and typed keys
// are validated before writing.
func (s *SettingService) Update(ctx context.Context, actor models.Actor, key, value string) (*models.Setting, error) {
	if _, ok := settingDefaults[key]; !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown setting key %q", key))
	}
	if key == models.SettingMaxFeedbackPerCourse {
		limit, err := strconv.Atoi(value)
		if err != nil || limit < 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "max_feedback_per_course must be a non-negative integer")
		}
	}

	setting := &models.Setting{
		TenantID:  actor.TenantID,
		Key:       key,
		Value:     value,
		UpdatedBy: &actor.UserID,
	}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store setting")
	}
	return setting, nil
}

// MaxFeedbackPerCourse returns the per-course feedback cap for the tenant.
// Zero means unlimited; a malformed stored value is treated as unlimited
// rather than blocking submissions.
func (s *SettingService) MaxFeedbackPerCourse(ctx context.Context, tenantID string) (int, error) {
	setting, err := s.repo.Get(ctx, tenantID, models.SettingMaxFeedbackPerCourse)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("load feedback quota: %w", err)
	}
	limit, err := strconv.Atoi(setting.Value)
	if err != nil || limit < 0 {
		s.logger.Warn("ignoring malformed feedback quota setting",
			zap.String("tenant_id", tenantID), zap.String("value", setting.Value))
		return 0, nil
	}
	return limit, nil
}
