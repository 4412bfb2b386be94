// Package mysql 风险评分服务的 GORM 仓储实现
package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/hfdrk/AI-Muhasebi-sub012/internal/riskengine/domain"
	"gorm.io/gorm"
)

// RuleRepository 规则仓储
type RuleRepository struct {
	db *gorm.DB
}

// NewRuleRepository 创建规则仓储
func NewRuleRepository(db *gorm.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

func (r *RuleRepository) Save(ctx context.Context, rule *domain.RiskRule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}

func (r *RuleRepository) FindByCode(ctx context.Context, code string) (*domain.RiskRule, error) {
	var rule domain.RiskRule
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *RuleRepository) ListApplicable(ctx context.Context, scope domain.RuleScope, tenantID string) ([]*domain.RiskRule, error) {
	var rules []*domain.RiskRule
	err := r.db.WithContext(ctx).
		Where("scope = ? AND is_active = ?", scope, true).
		Where("tenant_id IS NULL OR tenant_id = ?", tenantID).
		Order("code ASC").
		Find(&rules).Error
	return rules, err
}

func (r *RuleRepository) List(ctx context.Context, scope domain.RuleScope) ([]*domain.RiskRule, error) {
	var rules []*domain.RiskRule
	query := r.db.WithContext(ctx)
	if scope != "" {
		query = query.Where("scope = ?", scope)
	}
	err := query.Order("code ASC").Find(&rules).Error
	return rules, err
}

func (r *RuleRepository) SeedMissing(ctx context.Context, rules []*domain.RiskRule) error {
	for _, rule := range rules {
		var count int64
		if err := r.db.WithContext(ctx).Model(&domain.RiskRule{}).
			Where("code = ?", rule.Code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := r.db.WithContext(ctx).Create(rule).Error; err != nil {
			return err
		}
	}
	return nil
}

// ScoreRepository 评分仓储,只追加
type ScoreRepository struct {
	db *gorm.DB
}

// NewScoreRepository 创建评分仓储
func NewScoreRepository(db *gorm.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

func (r *ScoreRepository) Create(ctx context.Context, score *domain.RiskScore) error {
	return r.db.WithContext(ctx).Create(score).Error
}

func (r *ScoreRepository) LatestForEntity(ctx context.Context, entityType domain.RuleScope, entityID, tenantID string) (*domain.RiskScore, error) {
	var score domain.RiskScore
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ? AND tenant_id = ?", entityType, entityID, tenantID).
		Order("generated_at DESC").
		First(&score).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &score, nil
}

func (r *ScoreRepository) ListForEntity(ctx context.Context, entityType domain.RuleScope, entityID, tenantID string, limit int) ([]*domain.RiskScore, error) {
	var scores []*domain.RiskScore
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ? AND tenant_id = ?", entityType, entityID, tenantID).
		Order("generated_at DESC").
		Limit(limit).
		Find(&scores).Error
	return scores, err
}

func (r *ScoreRepository) StaleEntities(ctx context.Context, cutoff time.Time, limit int) ([]domain.EntityRef, error) {
	var refs []domain.EntityRef
	err := r.db.WithContext(ctx).
		Model(&domain.RiskScore{}).
		Select("entity_type, entity_id, tenant_id").
		Group("entity_type, entity_id, tenant_id").
		Having("MAX(generated_at) < ?", cutoff).
		Limit(limit).
		Scan(&refs).Error
	return refs, err
}

// AlertRepository 警报仓储
type AlertRepository struct {
	db *gorm.DB
}

// NewAlertRepository 创建警报仓储
func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) Create(ctx context.Context, alert *domain.RiskAlert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *AlertRepository) Save(ctx context.Context, alert *domain.RiskAlert) error {
	return r.db.WithContext(ctx).Save(alert).Error
}

func (r *AlertRepository) FindByAlertID(ctx context.Context, tenantID, alertID string) (*domain.RiskAlert, error) {
	var alert domain.RiskAlert
	err := r.db.WithContext(ctx).
		Where("alert_id = ? AND tenant_id = ?", alertID, tenantID).
		First(&alert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *AlertRepository) FindOpenForEntity(ctx context.Context, tenantID string, entityType domain.RuleScope, entityID string, severity domain.Severity, since time.Time) (*domain.RiskAlert, error) {
	var alert domain.RiskAlert
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Where("entity_type = ? AND entity_id = ? AND severity = ?", entityType, entityID, severity).
		Where("status IN ?", []domain.AlertStatus{domain.AlertStatusOpen, domain.AlertStatusInProgress}).
		Where("created_at >= ?", since).
		Order("created_at DESC").
		First(&alert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *AlertRepository) ListByTenant(ctx context.Context, tenantID string, status domain.AlertStatus, page, pageSize int) ([]*domain.RiskAlert, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.RiskAlert{}).Where("tenant_id = ?", tenantID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var alerts []*domain.RiskAlert
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&alerts).Error
	return alerts, total, err
}
