// Package domain 风险评分服务的领域模型：规则、评分、警报与评估器。
package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RuleScope 规则适用的实体类型
type RuleScope string

const (
	ScopeDocument RuleScope = "document"
	ScopeCompany  RuleScope = "company"
)

// Severity 风险等级,阈值分桶后的离散档位
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// rank 用于等级比较,等级只在告警与测试中比较,不参与评分
func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// AtLeast 判断当前等级是否不低于给定等级
func (s Severity) AtLeast(other Severity) bool { return s.rank() >= other.rank() }

// RiskRule 风险规则实体。tenant_id 为空表示全局规则,对所有租户生效。
// 规则从不物理删除,历史评分仍引用其 code;下线通过 is_active 软禁用。
type RiskRule struct {
	gorm.Model
	Code            string          `gorm:"column:code;type:varchar(64);uniqueIndex;not null" json:"code"`
	Scope           RuleScope       `gorm:"column:scope;type:varchar(16);index;not null" json:"scope"`
	Description     string          `gorm:"column:description;type:text" json:"description"`
	Weight          decimal.Decimal `gorm:"column:weight;type:decimal(5,2);not null" json:"weight"`
	IsActive        bool            `gorm:"column:is_active;not null;default:true" json:"is_active"`
	TenantID        *string         `gorm:"column:tenant_id;type:varchar(36);index" json:"tenant_id,omitempty"`
	Config          string          `gorm:"column:config;type:json" json:"config,omitempty"`
	DefaultSeverity Severity        `gorm:"column:default_severity;type:varchar(16);not null" json:"default_severity"`
}

func (RiskRule) TableName() string { return "risk_rules" }

// AppliesTo 判断规则是否适用于给定租户
func (r *RiskRule) AppliesTo(tenantID string) bool {
	return r.TenantID == nil || *r.TenantID == tenantID
}

// Validate 规则写入时的数据完整性校验,评估期不再检查
func (r *RiskRule) Validate() error {
	if r.Code == "" {
		return ErrInvalidRule
	}
	if r.Scope != ScopeDocument && r.Scope != ScopeCompany {
		return ErrInvalidRule
	}
	if r.Weight.IsNegative() {
		return ErrInvalidRule
	}
	switch r.DefaultSeverity {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
	default:
		return ErrInvalidRule
	}
	return nil
}

// RuleParams 规则的 JSON 配置参数,缺失键取默认值
type RuleParams map[string]any

// Params 解析规则的 config 字段,解析失败按无参数处理
func (r *RiskRule) Params() RuleParams {
	if r.Config == "" {
		return RuleParams{}
	}
	var p RuleParams
	if err := json.Unmarshal([]byte(r.Config), &p); err != nil {
		return RuleParams{}
	}
	return p
}

// Float 读取数值参数
func (p RuleParams) Float(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return def
}

// Int 读取整数参数
func (p RuleParams) Int(key string, def int) int {
	if v, ok := p[key]; ok {
		if f, ok := v.(float64); ok {
			return int(f)
		}
	}
	return def
}

// Strings 读取字符串列表参数
func (p RuleParams) Strings(key string, def []string) []string {
	v, ok := p[key]
	if !ok {
		return def
	}
	raw, ok := v.([]any)
	if !ok {
		return def
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
