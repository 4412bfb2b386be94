// Package application 租户设置的应用服务
package application

import (
	"context"
	"time"

	riskapp "github.com/hfdrk/AI-Muhasebi-sub012/internal/riskengine/application"
	riskdomain "github.com/hfdrk/AI-Muhasebi-sub012/internal/riskengine/domain"
	"github.com/hfdrk/AI-Muhasebi-sub012/internal/tenant/domain"
)

// SettingsService 读写租户配置,同时向风险引擎提供评分期策略
type SettingsService struct {
	repo domain.SettingsRepository
}

// NewSettingsService 创建设置服务
func NewSettingsService(repo domain.SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

// Get 租户的生效配置,未配置时返回默认值
func (s *SettingsService) Get(ctx context.Context, tenantID string) (*domain.TenantSettings, error) {
	settings, err := s.repo.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return domain.DefaultSettings(tenantID), nil
	}
	settings.Normalize()
	return settings, nil
}

// Update 校验并保存租户配置
func (s *SettingsService) Update(ctx context.Context, settings *domain.TenantSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	return s.repo.Save(ctx, settings)
}

// PolicyFor 实现风险引擎的 PolicyProvider:评分生成时读取租户的
// 分桶边界与警报去重窗口
func (s *SettingsService) PolicyFor(ctx context.Context, tenantID string) (riskapp.ThresholdPolicy, error) {
	settings, err := s.Get(ctx, tenantID)
	if err != nil {
		return riskapp.ThresholdPolicy{}, err
	}
	return riskapp.ThresholdPolicy{
		Thresholds: riskdomain.Thresholds{
			High:     settings.HighThreshold,
			Critical: settings.CriticalThreshold,
		},
		AlertWindow: time.Duration(settings.AlertWindowHours) * time.Hour,
	}, nil
}
