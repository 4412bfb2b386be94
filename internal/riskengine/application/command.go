package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hfdrk/AI-Muhasebi-sub012/internal/riskengine/domain"
	"github.com/wyfcoding/pkg/idgen"
)

// ThresholdPolicy 租户的评分分桶与告警去重窗口
type ThresholdPolicy struct {
	Thresholds  domain.Thresholds
	AlertWindow time.Duration
}

// PolicyProvider 在评分生成时读取租户配置,租户设置模块实现该接口
type PolicyProvider interface {
	PolicyFor(ctx context.Context, tenantID string) (ThresholdPolicy, error)
}

// RiskCommandService 处理评估、警报状态迁移与规则维护
type RiskCommandService struct {
	rules     domain.RuleRepository
	scores    domain.ScoreRepository
	alerts    domain.AlertRepository
	policies  PolicyProvider
	publisher domain.EventPublisher
	evaluator *domain.Evaluator
	logger    *slog.Logger
	now       func() time.Time
}

// NewRiskCommandService 创建命令服务
func NewRiskCommandService(
	rules domain.RuleRepository,
	scores domain.ScoreRepository,
	alerts domain.AlertRepository,
	policies PolicyProvider,
	publisher domain.EventPublisher,
	logger *slog.Logger,
) *RiskCommandService {
	return &RiskCommandService{
		rules:     rules,
		scores:    scores,
		alerts:    alerts,
		policies:  policies,
		publisher: publisher,
		evaluator: domain.NewEvaluator(),
		logger:    logger,
		now:       time.Now,
	}
}

// EvaluateDocument 对文档快照同步评估,上传处理器、消费者和批量任务共用
func (s *RiskCommandService) EvaluateDocument(ctx context.Context, doc *domain.DocumentSnapshot) (*EvaluationResult, error) {
	return s.Evaluate(ctx, domain.NewDocumentSnapshot(doc))
}

// EvaluateCompany 对公司聚合快照同步评估
func (s *RiskCommandService) EvaluateCompany(ctx context.Context, comp *domain.CompanySnapshot) (*EvaluationResult, error) {
	return s.Evaluate(ctx, domain.NewCompanySnapshot(comp))
}

// Evaluate 核心评估流程:读规则集与租户阈值 → 求值聚合 → 追加评分行 →
// 必要时生成警报。评分行只追加,不修改既有历史。
func (s *RiskCommandService) Evaluate(ctx context.Context, snap *domain.EntitySnapshot) (*EvaluationResult, error) {
	entityID := snap.EntityID()
	tenantID := snap.TenantID()
	if entityID == "" || tenantID == "" {
		return nil, fmt.Errorf("%w: snapshot missing entity or tenant id", domain.ErrNotFound)
	}

	rules, err := s.rules.ListApplicable(ctx, snap.Scope, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	policy, err := s.policies.PolicyFor(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load tenant policy: %w", err)
	}

	now := s.now().UTC()
	eval := s.evaluator.Evaluate(rules, snap, policy.Thresholds, now)

	score := &domain.RiskScore{
		ScoreID:     fmt.Sprintf("RS%d", idgen.GenID()),
		EntityType:  snap.Scope,
		EntityID:    entityID,
		TenantID:    tenantID,
		Score:       eval.Score,
		Severity:    eval.Severity,
		GeneratedAt: eval.GeneratedAt,
	}
	if err := score.SetTriggeredCodes(eval.TriggeredRuleCodes); err != nil {
		return nil, err
	}
	// 落库的快照带上本次求值的参考时间,重评时按需重置
	if snap.AsOf.IsZero() {
		snap.AsOf = now
	}
	if err := score.SetSnapshot(snap); err != nil {
		return nil, err
	}
	if err := s.scores.Create(ctx, score); err != nil {
		return nil, fmt.Errorf("persist score: %w", err)
	}

	s.publishEvent(ctx, entityID, &domain.ScoreGeneratedEvent{
		ScoreID:            score.ScoreID,
		EntityType:         score.EntityType,
		EntityID:           score.EntityID,
		TenantID:           score.TenantID,
		Score:              score.Score.String(),
		Severity:           score.Severity,
		TriggeredRuleCodes: eval.TriggeredRuleCodes,
		Timestamp:          now,
	})

	result := &EvaluationResult{
		ScoreID:            score.ScoreID,
		EntityType:         score.EntityType,
		EntityID:           score.EntityID,
		TenantID:           score.TenantID,
		Score:              score.Score.String(),
		Severity:           score.Severity,
		TriggeredRuleCodes: eval.TriggeredRuleCodes,
		GeneratedAt:        score.GeneratedAt,
	}

	if eval.Severity.AtLeast(domain.SeverityHigh) {
		alert, err := s.maybeCreateAlert(ctx, snap, score, rules, policy.AlertWindow, now)
		if err != nil {
			return nil, err
		}
		if alert != nil {
			result.AlertCreated = true
			result.AlertID = alert.AlertID
		}
	}
	return result, nil
}

// maybeCreateAlert 去重后的警报生成:同实体同等级在窗口内已有未关闭
// 警报时不再重复打扰,定时任务对未变化实体反复评估不会刷屏。
func (s *RiskCommandService) maybeCreateAlert(
	ctx context.Context,
	snap *domain.EntitySnapshot,
	score *domain.RiskScore,
	rules []*domain.RiskRule,
	window time.Duration,
	now time.Time,
) (*domain.RiskAlert, error) {
	since := now.Add(-window)
	existing, err := s.alerts.FindOpenForEntity(ctx, score.TenantID, score.EntityType, score.EntityID, score.Severity, since)
	if err != nil {
		return nil, fmt.Errorf("alert dedup lookup: %w", err)
	}
	if existing != nil {
		return nil, nil
	}

	title, message := buildAlertContent(score, rules)
	alert := &domain.RiskAlert{
		AlertID:    fmt.Sprintf("RA%d", idgen.GenID()),
		TenantID:   score.TenantID,
		EntityType: score.EntityType,
		EntityID:   score.EntityID,
		Severity:   score.Severity,
		Status:     domain.AlertStatusOpen,
		Title:      title,
		Message:    message,
	}
	if err := alert.SetTriggeredCodes(score.TriggeredCodes()); err != nil {
		return nil, err
	}
	if err := s.alerts.Create(ctx, alert); err != nil {
		return nil, fmt.Errorf("persist alert: %w", err)
	}

	s.publishEvent(ctx, score.EntityID, &domain.AlertCreatedEvent{
		AlertID:    alert.AlertID,
		EntityType: alert.EntityType,
		EntityID:   alert.EntityID,
		TenantID:   alert.TenantID,
		Severity:   alert.Severity,
		Title:      alert.Title,
		Timestamp:  now,
	})
	return alert, nil
}

// buildAlertContent 由触发规则合成确定性的标题与正文,不做自由文本生成
func buildAlertContent(score *domain.RiskScore, rules []*domain.RiskRule) (string, string) {
	noun := "document"
	if score.EntityType == domain.ScopeCompany {
		noun = "company"
	}
	title := fmt.Sprintf("%s risk detected for %s %s", strings.ToUpper(string(score.Severity)), noun, score.EntityID)

	byCode := make(map[string]*domain.RiskRule, len(rules))
	for _, r := range rules {
		byCode[r.Code] = r
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Risk score %s (%s). Triggered rules:\n", score.Score.String(), score.Severity)
	for _, code := range score.TriggeredCodes() {
		if r, ok := byCode[code]; ok {
			fmt.Fprintf(&b, "- %s: %s (weight %s)\n", code, r.Description, r.Weight.String())
		} else {
			fmt.Fprintf(&b, "- %s\n", code)
		}
	}
	return title, b.String()
}

func (s *RiskCommandService) publishEvent(ctx context.Context, key string, event domain.DomainEvent) {
	if s.publisher == nil {
		return
	}
	// 事件是尽力而为的通知,发布失败不回滚已落库的评分/警报
	if err := s.publisher.Publish(ctx, event.EventName(), key, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish domain event", "event", event.EventName(), "error", err)
	}
}

// StartAlert 领取警报进入处理中
func (s *RiskCommandService) StartAlert(ctx context.Context, tenantID, alertID string) (*domain.RiskAlert, error) {
	alert, err := s.alerts.FindByAlertID(ctx, tenantID, alertID)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, domain.ErrNotFound
	}
	if err := alert.Start(); err != nil {
		return nil, err
	}
	if err := s.alerts.Save(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// CloseAlert 人工关闭警报并记录处理人
func (s *RiskCommandService) CloseAlert(ctx context.Context, tenantID, alertID, userID string) (*domain.RiskAlert, error) {
	alert, err := s.alerts.FindByAlertID(ctx, tenantID, alertID)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, domain.ErrNotFound
	}
	if err := alert.Close(userID, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.alerts.Save(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// SaveRule 规则写入,权重等完整性问题在此拦截而不是评估期
func (s *RiskCommandService) SaveRule(ctx context.Context, rule *domain.RiskRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	return s.rules.Save(ctx, rule)
}

// SetRuleActive 软启停规则,规则从不物理删除
func (s *RiskCommandService) SetRuleActive(ctx context.Context, code string, active bool) (*domain.RiskRule, error) {
	rule, err := s.rules.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, domain.ErrNotFound
	}
	rule.IsActive = active
	if err := s.rules.Save(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}
