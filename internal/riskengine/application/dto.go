package application

import (
	"time"

	"github.com/hfdrk/AI-Muhasebi-sub012/internal/riskengine/domain"
)

// EvaluationResult 评估结果 DTO
type EvaluationResult struct {
	ScoreID            string           `json:"score_id"`
	EntityType         domain.RuleScope `json:"entity_type"`
	EntityID           string           `json:"entity_id"`
	TenantID           string           `json:"tenant_id"`
	Score              string           `json:"score"`
	Severity           domain.Severity  `json:"severity"`
	TriggeredRuleCodes []string         `json:"triggered_rule_codes"`
	GeneratedAt        time.Time        `json:"generated_at"`
	AlertCreated       bool             `json:"alert_created"`
	AlertID            string           `json:"alert_id,omitempty"`
}

// 解释报告状态。not_scored 区分"从未评估"与"评估过且干净"。
const (
	ExplanationStatusScored    = "scored"
	ExplanationStatusNotScored = "not_scored"
)

// ContributingFactor 触发规则的贡献因子
type ContributingFactor struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Weight      string `json:"weight"`
}

// PassedRule 已求值但未触发的规则,保证报告透明性
type PassedRule struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ExplanationReport 评分解释报告
type ExplanationReport struct {
	Status              string               `json:"status"`
	EntityType          domain.RuleScope     `json:"entity_type"`
	EntityID            string               `json:"entity_id"`
	Score               string               `json:"score,omitempty"`
	Severity            domain.Severity      `json:"severity,omitempty"`
	GeneratedAt         *time.Time           `json:"generated_at,omitempty"`
	Summary             string               `json:"summary"`
	ContributingFactors []ContributingFactor `json:"contributing_factors"`
	PassedRules         []PassedRule         `json:"passed_rules"`
	Recommendations     []string             `json:"recommendations"`
}

// ScoreDTO 评分行 DTO
type ScoreDTO struct {
	ScoreID            string           `json:"score_id"`
	EntityType         domain.RuleScope `json:"entity_type"`
	EntityID           string           `json:"entity_id"`
	TenantID           string           `json:"tenant_id"`
	Score              string           `json:"score"`
	Severity           domain.Severity  `json:"severity"`
	TriggeredRuleCodes []string         `json:"triggered_rule_codes"`
	GeneratedAt        time.Time        `json:"generated_at"`
}

func toScoreDTO(s *domain.RiskScore) *ScoreDTO {
	return &ScoreDTO{
		ScoreID:            s.ScoreID,
		EntityType:         s.EntityType,
		EntityID:           s.EntityID,
		TenantID:           s.TenantID,
		Score:              s.Score.String(),
		Severity:           s.Severity,
		TriggeredRuleCodes: s.TriggeredCodes(),
		GeneratedAt:        s.GeneratedAt,
	}
}
