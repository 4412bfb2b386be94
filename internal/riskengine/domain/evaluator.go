package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// maxScore 评分上限
var maxScore = decimal.NewFromInt(100)

// Evaluation 单次评估的结果
type Evaluation struct {
	Score              decimal.Decimal
	Severity           Severity
	TriggeredRuleCodes []string
	GeneratedAt        time.Time
}

// Evaluator 规则注册表与评估器。谓词按规则 code 查表,
// 同一快照与同一规则集下结果完全确定。
type Evaluator struct {
	predicates map[string]Predicate
}

// NewEvaluator 使用内置谓词表创建评估器
func NewEvaluator() *Evaluator {
	return &Evaluator{predicates: BuiltinPredicates()}
}

// Register 注册或覆盖一个谓词,用于租户定制规则
func (e *Evaluator) Register(code string, p Predicate) {
	e.predicates[code] = p
}

// Evaluate 对快照执行全部适用规则并聚合评分。
// 适用集 = scope 匹配 ∧ is_active ∧ (全局 ∨ 同租户);按 code 升序求值,
// 触发顺序即求值顺序。分数 = min(100, Σ 触发规则权重),权重非负,
// 任何规则都不能降低分数。快照字段缺失从不报错,由谓词自行降级。
// 求值在快照的浅拷贝上进行,调用方的快照不被改动。
func (e *Evaluator) Evaluate(rules []*RiskRule, snap *EntitySnapshot, thresholds Thresholds, now time.Time) Evaluation {
	eval := *snap
	if eval.AsOf.IsZero() {
		eval.AsOf = now
	}

	applicable := make([]*RiskRule, 0, len(rules))
	for _, r := range rules {
		if r.Scope == eval.Scope && r.IsActive && r.AppliesTo(eval.TenantID()) {
			applicable = append(applicable, r)
		}
	}
	sort.Slice(applicable, func(i, j int) bool { return applicable[i].Code < applicable[j].Code })

	score := decimal.Zero
	triggered := make([]string, 0, len(applicable))
	for _, r := range applicable {
		p, ok := e.predicates[r.Code]
		if !ok {
			// 没有注册谓词的规则行无法求值,跳过而不是失败
			continue
		}
		if p(&eval, r.Params()) {
			triggered = append(triggered, r.Code)
			if r.Weight.IsPositive() {
				score = score.Add(r.Weight)
			}
		}
	}
	if score.GreaterThan(maxScore) {
		score = maxScore
	}

	return Evaluation{
		Score:              score,
		Severity:           thresholds.Classify(score),
		TriggeredRuleCodes: triggered,
		GeneratedAt:        now,
	}
}
