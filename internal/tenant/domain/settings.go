// Package domain 租户设置模块的领域模型
package domain

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 未配置租户的文档化默认值
const (
	DefaultHighThreshold     = 70
	DefaultCriticalThreshold = 90
	DefaultAlertWindowHours  = 24
)

// ErrInvalidSettings 阈值配置不合法
var ErrInvalidSettings = errInvalidSettings{}

type errInvalidSettings struct{}

func (errInvalidSettings) Error() string { return "invalid tenant settings" }

// TenantSettings 租户级风险配置:等级分桶边界与警报去重窗口。
// 没有配置行的租户使用默认值;配置行存在时以租户配置为准。
type TenantSettings struct {
	gorm.Model
	TenantID          string          `gorm:"column:tenant_id;type:varchar(36);uniqueIndex;not null" json:"tenant_id"`
	HighThreshold     decimal.Decimal `gorm:"column:high_threshold;type:decimal(5,2);not null" json:"high_threshold"`
	CriticalThreshold decimal.Decimal `gorm:"column:critical_threshold;type:decimal(5,2);not null" json:"critical_threshold"`
	AlertWindowHours  int             `gorm:"column:alert_window_hours;not null;default:24" json:"alert_window_hours"`
}

func (TenantSettings) TableName() string { return "tenant_settings" }

// DefaultSettings 某租户的默认配置
func DefaultSettings(tenantID string) *TenantSettings {
	return &TenantSettings{
		TenantID:          tenantID,
		HighThreshold:     decimal.NewFromInt(DefaultHighThreshold),
		CriticalThreshold: decimal.NewFromInt(DefaultCriticalThreshold),
		AlertWindowHours:  DefaultAlertWindowHours,
	}
}

// Normalize 把零值字段回退为默认值,区分"存了 0"与"未配置"
func (s *TenantSettings) Normalize() {
	if s.HighThreshold.IsZero() {
		s.HighThreshold = decimal.NewFromInt(DefaultHighThreshold)
	}
	if s.CriticalThreshold.IsZero() {
		s.CriticalThreshold = decimal.NewFromInt(DefaultCriticalThreshold)
	}
	if s.AlertWindowHours <= 0 {
		s.AlertWindowHours = DefaultAlertWindowHours
	}
}

// Validate 配置写入校验: 0 < high < critical <= 100, 窗口至少 1 小时
func (s *TenantSettings) Validate() error {
	hundred := decimal.NewFromInt(100)
	if !s.HighThreshold.IsPositive() || !s.CriticalThreshold.IsPositive() {
		return ErrInvalidSettings
	}
	if s.HighThreshold.GreaterThanOrEqual(s.CriticalThreshold) {
		return ErrInvalidSettings
	}
	if s.CriticalThreshold.GreaterThan(hundred) {
		return ErrInvalidSettings
	}
	if s.AlertWindowHours < 1 {
		return ErrInvalidSettings
	}
	return nil
}

// SettingsRepository 租户设置仓储,未配置时返回 nil, nil
type SettingsRepository interface {
	Get(ctx context.Context, tenantID string) (*TenantSettings, error)
	Save(ctx context.Context, settings *TenantSettings) error
}
