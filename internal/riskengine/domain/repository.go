// Package domain 风险评分服务仓储接口
package domain

import (
	"context"
	"time"
)

// EntityRef 批量重评时定位一个待评实体
type EntityRef struct {
	EntityType RuleScope
	EntityID   string
	TenantID   string
}

type RuleRepository interface {
	Save(ctx context.Context, rule *RiskRule) error
	FindByCode(ctx context.Context, code string) (*RiskRule, error)
	// ListApplicable 返回 scope 匹配且启用的规则:全局规则 + 该租户的规则
	ListApplicable(ctx context.Context, scope RuleScope, tenantID string) ([]*RiskRule, error)
	List(ctx context.Context, scope RuleScope) ([]*RiskRule, error)
	// SeedMissing 只插入数据库中尚不存在的 code,已有行原样保留
	SeedMissing(ctx context.Context, rules []*RiskRule) error
}

type ScoreRepository interface {
	Create(ctx context.Context, score *RiskScore) error
	// LatestForEntity 实体的当前评分(generated_at 最大的一行),无评分时返回 nil, nil
	LatestForEntity(ctx context.Context, entityType RuleScope, entityID, tenantID string) (*RiskScore, error)
	ListForEntity(ctx context.Context, entityType RuleScope, entityID, tenantID string, limit int) ([]*RiskScore, error)
	// StaleEntities 当前评分早于 cutoff 的实体,供批量重评
	StaleEntities(ctx context.Context, cutoff time.Time, limit int) ([]EntityRef, error)
}

type AlertRepository interface {
	Create(ctx context.Context, alert *RiskAlert) error
	Save(ctx context.Context, alert *RiskAlert) error
	FindByAlertID(ctx context.Context, tenantID, alertID string) (*RiskAlert, error)
	// FindOpenForEntity 去重检查:同租户同实体同等级、since 之后创建且
	// 仍未关闭的警报。实体 id 只在租户内唯一,跨租户不互相去重。
	FindOpenForEntity(ctx context.Context, tenantID string, entityType RuleScope, entityID string, severity Severity, since time.Time) (*RiskAlert, error)
	ListByTenant(ctx context.Context, tenantID string, status AlertStatus, page, pageSize int) ([]*RiskAlert, int64, error)
}

// EventPublisher 领域事件发布
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}
