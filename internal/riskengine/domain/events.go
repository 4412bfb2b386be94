// Package domain 风险评分服务领域事件
package domain

import "time"

const (
	ScoreGeneratedEventType = "risk.score.generated"
	AlertCreatedEventType   = "risk.alert.created"
)

type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
}

// ScoreGeneratedEvent 评分生成事件
type ScoreGeneratedEvent struct {
	ScoreID            string    `json:"score_id"`
	EntityType         RuleScope `json:"entity_type"`
	EntityID           string    `json:"entity_id"`
	TenantID           string    `json:"tenant_id"`
	Score              string    `json:"score"`
	Severity           Severity  `json:"severity"`
	TriggeredRuleCodes []string  `json:"triggered_rule_codes"`
	Timestamp          time.Time `json:"timestamp"`
}

func (e *ScoreGeneratedEvent) EventName() string     { return ScoreGeneratedEventType }
func (e *ScoreGeneratedEvent) OccurredAt() time.Time { return e.Timestamp }

// AlertCreatedEvent 警报创建事件,通知与看板服务消费
type AlertCreatedEvent struct {
	AlertID    string    `json:"alert_id"`
	EntityType RuleScope `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	TenantID   string    `json:"tenant_id"`
	Severity   Severity  `json:"severity"`
	Title      string    `json:"title"`
	Timestamp  time.Time `json:"timestamp"`
}

func (e *AlertCreatedEvent) EventName() string     { return AlertCreatedEventType }
func (e *AlertCreatedEvent) OccurredAt() time.Time { return e.Timestamp }
