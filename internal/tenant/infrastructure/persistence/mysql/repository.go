// Package mysql 租户设置的 GORM 仓储实现
package mysql

import (
	"context"
	"errors"

	"github.com/hfdrk/AI-Muhasebi-sub012/internal/tenant/domain"
	"gorm.io/gorm"
)

type SettingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository 创建租户设置仓储
func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context, tenantID string) (*domain.TenantSettings, error) {
	var settings domain.TenantSettings
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *SettingsRepository) Save(ctx context.Context, settings *domain.TenantSettings) error {
	var existing domain.TenantSettings
	err := r.db.WithContext(ctx).Where("tenant_id = ?", settings.TenantID).First(&existing).Error
	if err == nil {
		settings.ID = existing.ID
		settings.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.db.WithContext(ctx).Save(settings).Error
}
