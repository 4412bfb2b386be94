package domain

import "github.com/shopspring/decimal"

// Thresholds 租户的等级分桶边界。score >= Critical 为 critical,
// score >= High 为 high,0 < score < High 为 medium,0 为 low。
type Thresholds struct {
	High     decimal.Decimal
	Critical decimal.Decimal
}

// DefaultThresholds 未配置租户的文档化默认值
func DefaultThresholds() Thresholds {
	return Thresholds{
		High:     decimal.NewFromInt(70),
		Critical: decimal.NewFromInt(90),
	}
}

// Normalize 零值边界回退到默认,避免把"未配置"当成"逢分必告警"
func (t Thresholds) Normalize() Thresholds {
	def := DefaultThresholds()
	if t.High.IsZero() {
		t.High = def.High
	}
	if t.Critical.IsZero() {
		t.Critical = def.Critical
	}
	return t
}

// Classify 分数到等级
func (t Thresholds) Classify(score decimal.Decimal) Severity {
	n := t.Normalize()
	switch {
	case score.GreaterThanOrEqual(n.Critical):
		return SeverityCritical
	case score.GreaterThanOrEqual(n.High):
		return SeverityHigh
	case score.IsPositive():
		return SeverityMedium
	default:
		return SeverityLow
	}
}
