package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hfdrk/AI-Muhasebi-sub012/internal/tenant/domain"
)

// stubClient 只实现缓存用到的三个命令,其余方法留给内嵌接口
type stubClient struct {
	redis.UniversalClient
	data map[string]string
	down bool
}

func newStubClient() *stubClient {
	return &stubClient{data: make(map[string]string)}
}

func (c *stubClient) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx, "get", key)
	if c.down {
		cmd.SetErr(errors.New("connection refused"))
		return cmd
	}
	if v, ok := c.data[key]; ok {
		cmd.SetVal(v)
	} else {
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (c *stubClient) Set(ctx context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx, "set", key)
	if c.down {
		cmd.SetErr(errors.New("connection refused"))
		return cmd
	}
	switch v := value.(type) {
	case []byte:
		c.data[key] = string(v)
	case string:
		c.data[key] = v
	}
	cmd.SetVal("OK")
	return cmd
}

func (c *stubClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "del")
	if c.down {
		cmd.SetErr(errors.New("connection refused"))
		return cmd
	}
	var n int64
	for _, key := range keys {
		if _, ok := c.data[key]; ok {
			delete(c.data, key)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

// countingRepo 记录数据库读次数的底层仓储
type countingRepo struct {
	rows map[string]*domain.TenantSettings
	gets int
}

func newCountingRepo() *countingRepo {
	return &countingRepo{rows: make(map[string]*domain.TenantSettings)}
}

func (r *countingRepo) Get(_ context.Context, tenantID string) (*domain.TenantSettings, error) {
	r.gets++
	return r.rows[tenantID], nil
}

func (r *countingRepo) Save(_ context.Context, settings *domain.TenantSettings) error {
	r.rows[settings.TenantID] = settings
	return nil
}

func testSettings(tenantID string, high int64) *domain.TenantSettings {
	return &domain.TenantSettings{
		TenantID:          tenantID,
		HighThreshold:     decimal.NewFromInt(high),
		CriticalThreshold: decimal.NewFromInt(90),
		AlertWindowHours:  24,
	}
}

func TestGetCachesAfterMiss(t *testing.T) {
	client := newStubClient()
	inner := newCountingRepo()
	inner.rows["tenant-1"] = testSettings("tenant-1", 60)
	cache := NewCachedSettingsRepository(client, inner)
	ctx := context.Background()

	first, err := cache.Get(ctx, "tenant-1")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "60", first.HighThreshold.String())
	assert.Equal(t, 1, inner.gets)
	assert.Contains(t, client.data, cache.prefix+"tenant-1")

	// 第二次命中缓存,不再读库
	second, err := cache.Get(ctx, "tenant-1")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, "60", second.HighThreshold.String())
	assert.Equal(t, 1, inner.gets)
}

func TestGetUnconfiguredTenantIsNotCached(t *testing.T) {
	client := newStubClient()
	inner := newCountingRepo()
	cache := NewCachedSettingsRepository(client, inner)

	settings, err := cache.Get(context.Background(), "tenant-none")
	require.NoError(t, err)
	assert.Nil(t, settings)
	assert.Empty(t, client.data)
}

func TestCorruptCacheEntryFallsBackToDatabase(t *testing.T) {
	client := newStubClient()
	inner := newCountingRepo()
	inner.rows["tenant-1"] = testSettings("tenant-1", 55)
	cache := NewCachedSettingsRepository(client, inner)
	client.data[cache.prefix+"tenant-1"] = "{broken json"

	settings, err := cache.Get(context.Background(), "tenant-1")
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, "55", settings.HighThreshold.String())
	assert.Equal(t, 1, inner.gets)
	// 损坏的缓存条目被重写为有效值
	assert.NotEqual(t, "{broken json", client.data[cache.prefix+"tenant-1"])
}

func TestRedisOutageDegradesToDatabase(t *testing.T) {
	client := newStubClient()
	client.down = true
	inner := newCountingRepo()
	inner.rows["tenant-1"] = testSettings("tenant-1", 65)
	cache := NewCachedSettingsRepository(client, inner)

	settings, err := cache.Get(context.Background(), "tenant-1")
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, "65", settings.HighThreshold.String())
	assert.Equal(t, 1, inner.gets)
}

func TestSaveInvalidatesCache(t *testing.T) {
	client := newStubClient()
	inner := newCountingRepo()
	inner.rows["tenant-1"] = testSettings("tenant-1", 60)
	cache := NewCachedSettingsRepository(client, inner)
	ctx := context.Background()

	_, err := cache.Get(ctx, "tenant-1")
	require.NoError(t, err)
	require.Contains(t, client.data, cache.prefix+"tenant-1")

	require.NoError(t, cache.Save(ctx, testSettings("tenant-1", 50)))
	assert.NotContains(t, client.data, cache.prefix+"tenant-1")

	// 失效后的下一次读取回源并看到新值
	settings, err := cache.Get(ctx, "tenant-1")
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, "50", settings.HighThreshold.String())
	assert.Equal(t, 2, inner.gets)
}
