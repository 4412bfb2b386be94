package application

import (
	"context"
	"fmt"
	"sort"

	"github.com/hfdrk/AI-Muhasebi-sub012/internal/riskengine/domain"
)

// recommendations 按命中规则给出的静态处置建议
var recommendations = map[string]string{
	domain.CodeDocProcessingFailed:    "Re-run document processing or upload a higher quality scan.",
	domain.CodeInvMissingTaxNumber:    "Request the counterparty tax number and correct the document.",
	domain.CodeInvDuplicateSuspect:    "Compare with previously booked invoices before approving.",
	domain.CodeInvTaxMismatch:         "Verify the tax calculation against the declared rate.",
	domain.CodeInvNegativeOrZeroTotal: "Check the extracted amounts against the source document.",
	domain.CodeCompManyHighRiskDocs:   "Schedule a compliance review of the company's recent documents.",
	domain.CodeCompHighRiskRatio:      "Schedule a compliance review of the company's recent documents.",
	domain.CodeCompMissingTaxID:       "Complete the company's tax registration details.",
	domain.CodeCompOpenAlertBacklog:   "Triage and resolve the outstanding alerts for this company.",
}

// RiskQueryService 只读查询:解释报告、评分历史、警报列表
type RiskQueryService struct {
	rules  domain.RuleRepository
	scores domain.ScoreRepository
	alerts domain.AlertRepository
}

// NewRiskQueryService 创建查询服务
func NewRiskQueryService(rules domain.RuleRepository, scores domain.ScoreRepository, alerts domain.AlertRepository) *RiskQueryService {
	return &RiskQueryService{rules: rules, scores: scores, alerts: alerts}
}

// Explain 重建"为什么是这个分数"的可读报告。租户不匹配按 NotFound
// 处理;从未评估过的实体返回 not_scored 报告而不是错误。
func (s *RiskQueryService) Explain(ctx context.Context, scope domain.RuleScope, entityID, tenantID string) (*ExplanationReport, error) {
	latest, err := s.scores.LatestForEntity(ctx, scope, entityID, tenantID)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return &ExplanationReport{
			Status:              ExplanationStatusNotScored,
			EntityType:          scope,
			EntityID:            entityID,
			Summary:             "This entity has not been evaluated yet.",
			ContributingFactors: []ContributingFactor{},
			PassedRules:         []PassedRule{},
			Recommendations:     []string{},
		}, nil
	}

	active, err := s.rules.ListApplicable(ctx, scope, tenantID)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]*domain.RiskRule, len(active))
	for _, r := range active {
		byCode[r.Code] = r
	}

	triggered := latest.TriggeredCodes()
	triggeredSet := make(map[string]struct{}, len(triggered))
	factors := make([]ContributingFactor, 0, len(triggered))
	recs := make([]string, 0)
	for _, code := range triggered {
		triggeredSet[code] = struct{}{}
		factor := ContributingFactor{Code: code}
		rule := byCode[code]
		if rule == nil {
			// 评分后被软禁用的规则不在活跃集里,但历史评分仍引用它
			rule, err = s.rules.FindByCode(ctx, code)
			if err != nil {
				return nil, err
			}
		}
		if rule != nil {
			factor.Description = rule.Description
			factor.Weight = rule.Weight.String()
		}
		factors = append(factors, factor)
		if rec, ok := recommendations[code]; ok {
			recs = append(recs, rec)
		}
	}

	passed := make([]PassedRule, 0, len(active))
	for _, r := range active {
		if _, ok := triggeredSet[r.Code]; !ok {
			passed = append(passed, PassedRule{Code: r.Code, Description: r.Description})
		}
	}
	sort.Slice(passed, func(i, j int) bool { return passed[i].Code < passed[j].Code })

	generatedAt := latest.GeneratedAt
	return &ExplanationReport{
		Status:      ExplanationStatusScored,
		EntityType:  scope,
		EntityID:    entityID,
		Score:       latest.Score.String(),
		Severity:    latest.Severity,
		GeneratedAt: &generatedAt,
		Summary: fmt.Sprintf("Risk score %s (%s): %d of %d active rules triggered.",
			latest.Score.String(), latest.Severity, len(factors), len(active)),
		ContributingFactors: factors,
		PassedRules:         passed,
		Recommendations:     dedupStrings(recs),
	}, nil
}

// GetCurrentScore 实体的当前评分,未评估过返回 NotFound
func (s *RiskQueryService) GetCurrentScore(ctx context.Context, scope domain.RuleScope, entityID, tenantID string) (*ScoreDTO, error) {
	latest, err := s.scores.LatestForEntity(ctx, scope, entityID, tenantID)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return toScoreDTO(latest), nil
}

// ListScores 实体的评分历史,新的在前
func (s *RiskQueryService) ListScores(ctx context.Context, scope domain.RuleScope, entityID, tenantID string, limit int) ([]*ScoreDTO, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.scores.ListForEntity(ctx, scope, entityID, tenantID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*ScoreDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toScoreDTO(row))
	}
	return out, nil
}

// ListAlerts 分页查询租户警报
func (s *RiskQueryService) ListAlerts(ctx context.Context, tenantID string, status domain.AlertStatus, page, pageSize int) ([]*domain.RiskAlert, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return s.alerts.ListByTenant(ctx, tenantID, status, page, pageSize)
}

// ListRules 规则清单,运维与看板使用
func (s *RiskQueryService) ListRules(ctx context.Context, scope domain.RuleScope) ([]*domain.RiskRule, error) {
	return s.rules.List(ctx, scope)
}

func dedupStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
