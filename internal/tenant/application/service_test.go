package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hfdrk/AI-Muhasebi-sub012/internal/tenant/domain"
)

type memSettingsRepo struct {
	rows map[string]*domain.TenantSettings
}

func newMemSettingsRepo() *memSettingsRepo {
	return &memSettingsRepo{rows: make(map[string]*domain.TenantSettings)}
}

func (r *memSettingsRepo) Get(_ context.Context, tenantID string) (*domain.TenantSettings, error) {
	return r.rows[tenantID], nil
}

func (r *memSettingsRepo) Save(_ context.Context, settings *domain.TenantSettings) error {
	r.rows[settings.TenantID] = settings
	return nil
}

func TestGetFallsBackToDefaults(t *testing.T) {
	svc := NewSettingsService(newMemSettingsRepo())

	settings, err := svc.Get(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, "70", settings.HighThreshold.String())
	assert.Equal(t, "90", settings.CriticalThreshold.String())
	assert.Equal(t, 24, settings.AlertWindowHours)
}

func TestUpdateValidatesAndPersists(t *testing.T) {
	repo := newMemSettingsRepo()
	svc := NewSettingsService(repo)
	ctx := context.Background()

	bad := &domain.TenantSettings{
		TenantID:          "tenant-1",
		HighThreshold:     decimal.NewFromInt(95),
		CriticalThreshold: decimal.NewFromInt(80),
		AlertWindowHours:  24,
	}
	assert.ErrorIs(t, svc.Update(ctx, bad), domain.ErrInvalidSettings)
	assert.Empty(t, repo.rows)

	good := &domain.TenantSettings{
		TenantID:          "tenant-1",
		HighThreshold:     decimal.NewFromInt(50),
		CriticalThreshold: decimal.NewFromInt(80),
		AlertWindowHours:  6,
	}
	require.NoError(t, svc.Update(ctx, good))

	settings, err := svc.Get(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, "50", settings.HighThreshold.String())
}

func TestPolicyForMapsSettings(t *testing.T) {
	repo := newMemSettingsRepo()
	svc := NewSettingsService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Update(ctx, &domain.TenantSettings{
		TenantID:          "tenant-1",
		HighThreshold:     decimal.NewFromInt(60),
		CriticalThreshold: decimal.NewFromInt(85),
		AlertWindowHours:  6,
	}))

	policy, err := svc.PolicyFor(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, "60", policy.Thresholds.High.String())
	assert.Equal(t, "85", policy.Thresholds.Critical.String())
	assert.Equal(t, 6*time.Hour, policy.AlertWindow)

	// 未配置租户拿到默认策略
	policy, err = svc.PolicyFor(ctx, "tenant-2")
	require.NoError(t, err)
	assert.Equal(t, "70", policy.Thresholds.High.String())
	assert.Equal(t, 24*time.Hour, policy.AlertWindow)
}
