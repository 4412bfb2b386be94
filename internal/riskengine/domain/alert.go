package domain

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// AlertStatus 警报状态机: open → in_progress → closed
type AlertStatus string

const (
	AlertStatusOpen       AlertStatus = "open"
	AlertStatusInProgress AlertStatus = "in_progress"
	AlertStatusClosed     AlertStatus = "closed"
)

// RiskAlert 风险警报实体。由评分管道创建,之后只能由人工状态迁移
// 或级联租户删除改动,从不自动删除。entity_type/entity_id 指向触发
// 实体(文档或公司,二者互斥)。
type RiskAlert struct {
	gorm.Model
	AlertID            string      `gorm:"column:alert_id;type:varchar(32);uniqueIndex;not null" json:"alert_id"`
	TenantID           string      `gorm:"column:tenant_id;type:varchar(36);index;not null" json:"tenant_id"`
	EntityType         RuleScope   `gorm:"column:entity_type;type:varchar(16);index:idx_alert_entity;not null" json:"entity_type"`
	EntityID           string      `gorm:"column:entity_id;type:varchar(36);index:idx_alert_entity;not null" json:"entity_id"`
	Severity           Severity    `gorm:"column:severity;type:varchar(16);not null" json:"severity"`
	Status             AlertStatus `gorm:"column:status;type:varchar(16);index;not null;default:'open'" json:"status"`
	Title              string      `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Message            string      `gorm:"column:message;type:text" json:"message"`
	TriggeredRuleCodes string      `gorm:"column:triggered_rule_codes;type:json" json:"-"`
	ResolvedAt         *time.Time  `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	ResolvedByUserID   *string     `gorm:"column:resolved_by_user_id;type:varchar(36)" json:"resolved_by_user_id,omitempty"`
}

func (RiskAlert) TableName() string { return "risk_alerts" }

// IsOpen 警报仍需要人工处理
func (a *RiskAlert) IsOpen() bool {
	return a.Status == AlertStatusOpen || a.Status == AlertStatusInProgress
}

// Start 领取警报: open → in_progress
func (a *RiskAlert) Start() error {
	if a.Status != AlertStatusOpen {
		return ErrInvalidTransition
	}
	a.Status = AlertStatusInProgress
	return nil
}

// Close 关闭警报并记录处理人,open 或 in_progress 均可直接关闭
func (a *RiskAlert) Close(userID string, now time.Time) error {
	if !a.IsOpen() {
		return ErrInvalidTransition
	}
	a.Status = AlertStatusClosed
	a.ResolvedAt = &now
	a.ResolvedByUserID = &userID
	return nil
}

// SetTriggeredCodes 序列化触发的规则代码
func (a *RiskAlert) SetTriggeredCodes(codes []string) error {
	data, err := json.Marshal(codes)
	if err != nil {
		return err
	}
	a.TriggeredRuleCodes = string(data)
	return nil
}

// TriggeredCodes 反序列化触发的规则代码
func (a *RiskAlert) TriggeredCodes() []string {
	if a.TriggeredRuleCodes == "" {
		return nil
	}
	var codes []string
	if err := json.Unmarshal([]byte(a.TriggeredRuleCodes), &codes); err != nil {
		return nil
	}
	return codes
}
