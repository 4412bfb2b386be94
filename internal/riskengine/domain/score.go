package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RiskScore 风险评分实体。按实体只追加,从不更新历史行;
// "当前"评分 = 该实体 generated_at 最大的一行。并发评估产生两行
// 都是合法结果,读方总是取最新行(last-write-wins 是有意的策略)。
type RiskScore struct {
	gorm.Model
	ScoreID            string          `gorm:"column:score_id;type:varchar(32);uniqueIndex;not null" json:"score_id"`
	EntityType         RuleScope       `gorm:"column:entity_type;type:varchar(16);index:idx_score_entity;not null" json:"entity_type"`
	EntityID           string          `gorm:"column:entity_id;type:varchar(36);index:idx_score_entity;not null" json:"entity_id"`
	TenantID           string          `gorm:"column:tenant_id;type:varchar(36);index;not null" json:"tenant_id"`
	Score              decimal.Decimal `gorm:"column:score;type:decimal(5,2);not null" json:"score"`
	Severity           Severity        `gorm:"column:severity;type:varchar(16);not null" json:"severity"`
	TriggeredRuleCodes string          `gorm:"column:triggered_rule_codes;type:json" json:"-"`
	Snapshot           string          `gorm:"column:snapshot;type:json" json:"-"`
	GeneratedAt        time.Time       `gorm:"column:generated_at;index;not null" json:"generated_at"`
}

func (RiskScore) TableName() string { return "risk_scores" }

// SetTriggeredCodes 序列化触发的规则代码,保持求值顺序
func (s *RiskScore) SetTriggeredCodes(codes []string) error {
	data, err := json.Marshal(codes)
	if err != nil {
		return err
	}
	s.TriggeredRuleCodes = string(data)
	return nil
}

// TriggeredCodes 反序列化触发的规则代码
func (s *RiskScore) TriggeredCodes() []string {
	if s.TriggeredRuleCodes == "" {
		return nil
	}
	var codes []string
	if err := json.Unmarshal([]byte(s.TriggeredRuleCodes), &codes); err != nil {
		return nil
	}
	return codes
}

// SetSnapshot 保存本次评估使用的快照,批量重评与解释报告会读它
func (s *RiskScore) SetSnapshot(snap *EntitySnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	s.Snapshot = string(data)
	return nil
}

// StoredSnapshot 还原评估时的快照,没有存储时返回 nil
func (s *RiskScore) StoredSnapshot() *EntitySnapshot {
	if s.Snapshot == "" {
		return nil
	}
	var snap EntitySnapshot
	if err := json.Unmarshal([]byte(s.Snapshot), &snap); err != nil {
		return nil
	}
	return &snap
}
