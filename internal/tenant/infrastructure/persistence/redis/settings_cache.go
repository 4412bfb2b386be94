// Package redis 租户设置的读穿缓存
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hfdrk/AI-Muhasebi-sub012/internal/tenant/domain"
)

// CachedSettingsRepository 包装底层仓储的读穿缓存。评分生成路径上
// 每次评估都要读租户配置,短 TTL 足以扛住批量任务的读放大。
type CachedSettingsRepository struct {
	client redis.UniversalClient
	inner  domain.SettingsRepository
	prefix string
	ttl    time.Duration
}

// NewCachedSettingsRepository 创建缓存仓储
func NewCachedSettingsRepository(client redis.UniversalClient, inner domain.SettingsRepository) *CachedSettingsRepository {
	return &CachedSettingsRepository{
		client: client,
		inner:  inner,
		prefix: "tenant:settings:",
		ttl:    5 * time.Minute,
	}
}

func (r *CachedSettingsRepository) Get(ctx context.Context, tenantID string) (*domain.TenantSettings, error) {
	key := r.prefix + tenantID
	data, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var settings domain.TenantSettings
		if jsonErr := json.Unmarshal(data, &settings); jsonErr == nil {
			return &settings, nil
		}
		// 缓存损坏时回源
	} else if err != redis.Nil {
		// redis 故障退化为直读数据库,不阻塞评分
		return r.inner.Get(ctx, tenantID)
	}

	settings, err := r.inner.Get(ctx, tenantID)
	if err != nil || settings == nil {
		return settings, err
	}
	if data, jsonErr := json.Marshal(settings); jsonErr == nil {
		r.client.Set(ctx, key, data, r.ttl)
	}
	return settings, nil
}

func (r *CachedSettingsRepository) Save(ctx context.Context, settings *domain.TenantSettings) error {
	if err := r.inner.Save(ctx, settings); err != nil {
		return err
	}
	r.client.Del(ctx, r.prefix+settings.TenantID)
	return nil
}
