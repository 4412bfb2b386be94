package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func docRule(code string, weight int64) *RiskRule {
	return &RiskRule{
		Code:            code,
		Scope:           ScopeDocument,
		Description:     code,
		Weight:          decimal.NewFromInt(weight),
		IsActive:        true,
		DefaultSeverity: SeverityMedium,
	}
}

func compRule(code string, weight int64) *RiskRule {
	r := docRule(code, weight)
	r.Scope = ScopeCompany
	return r
}

func TestEvaluateIsDeterministic(t *testing.T) {
	rules := []*RiskRule{
		docRule(CodeInvMissingTaxNumber, 30),
		docRule(CodeInvMissingInvoiceNumber, 20),
		docRule(CodeDocProcessingFailed, 40),
	}
	snap := NewDocumentSnapshot(&DocumentSnapshot{
		DocumentID:       "doc-1",
		TenantID:         "tenant-1",
		ProcessingStatus: ProcessingStatusFailed,
	})
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	e := NewEvaluator()
	first := e.Evaluate(rules, snap, DefaultThresholds(), now)
	second := e.Evaluate(rules, snap, DefaultThresholds(), now)

	assert.True(t, first.Score.Equal(second.Score))
	assert.Equal(t, first.Severity, second.Severity)
	assert.Equal(t, first.TriggeredRuleCodes, second.TriggeredRuleCodes)
}

func TestEvaluateTriggersInAscendingCodeOrder(t *testing.T) {
	// 规则给进来的顺序是乱的,触发顺序必须按 code 升序
	rules := []*RiskRule{
		docRule(CodeInvMissingTaxNumber, 30),     // INV_MISSING_TAX_NUMBER
		docRule(CodeDocProcessingFailed, 40),     // DOC_PROCESSING_FAILED
		docRule(CodeInvMissingInvoiceNumber, 20), // INV_MISSING_INVOICE_NUMBER
	}
	snap := NewDocumentSnapshot(&DocumentSnapshot{
		DocumentID:       "doc-1",
		TenantID:         "tenant-1",
		ProcessingStatus: ProcessingStatusFailed,
	})

	result := NewEvaluator().Evaluate(rules, snap, DefaultThresholds(), time.Now())

	require.Equal(t, []string{
		CodeDocProcessingFailed,
		CodeInvMissingInvoiceNumber,
		CodeInvMissingTaxNumber,
	}, result.TriggeredRuleCodes)
	assert.Equal(t, "90", result.Score.String())
}

func TestEvaluateDoesNotMutateSnapshot(t *testing.T) {
	rules := []*RiskRule{docRule(CodeDocProcessingFailed, 40)}
	snap := NewDocumentSnapshot(&DocumentSnapshot{
		DocumentID:       "doc-1",
		TenantID:         "tenant-1",
		ProcessingStatus: ProcessingStatusFailed,
	})

	result := NewEvaluator().Evaluate(rules, snap, DefaultThresholds(), time.Now())

	assert.Equal(t, []string{CodeDocProcessingFailed}, result.TriggeredRuleCodes)
	assert.True(t, snap.AsOf.IsZero())
}

func TestEvaluateScoreCappedAtHundred(t *testing.T) {
	rules := []*RiskRule{
		docRule(CodeDocProcessingFailed, 60),
		docRule(CodeInvMissingTaxNumber, 60),
	}
	snap := NewDocumentSnapshot(&DocumentSnapshot{
		DocumentID:       "doc-1",
		TenantID:         "tenant-1",
		ProcessingStatus: ProcessingStatusFailed,
	})

	result := NewEvaluator().Evaluate(rules, snap, DefaultThresholds(), time.Now())

	assert.Equal(t, "100", result.Score.String())
	assert.Equal(t, SeverityCritical, result.Severity)
}

func TestEvaluateFiltersScopeActivityAndTenant(t *testing.T) {
	otherTenant := "tenant-2"
	inactive := docRule(CodeInvMissingTaxNumber, 30)
	inactive.IsActive = false
	foreign := docRule(CodeInvMissingInvoiceNumber, 20)
	foreign.TenantID = &otherTenant
	wrongScope := compRule(CodeCompMissingTaxID, 25)
	own := docRule(CodeDocProcessingFailed, 40)
	ownTenant := "tenant-1"
	own.TenantID = &ownTenant

	snap := NewDocumentSnapshot(&DocumentSnapshot{
		DocumentID:       "doc-1",
		TenantID:         "tenant-1",
		ProcessingStatus: ProcessingStatusFailed,
	})

	result := NewEvaluator().Evaluate(
		[]*RiskRule{inactive, foreign, wrongScope, own},
		snap, DefaultThresholds(), time.Now())

	assert.Equal(t, []string{CodeDocProcessingFailed}, result.TriggeredRuleCodes)
	assert.Equal(t, "40", result.Score.String())
}

func TestEvaluateUnknownCodeIsSkipped(t *testing.T) {
	rules := []*RiskRule{docRule("CUSTOM_RULE_WITHOUT_PREDICATE", 50)}
	snap := NewDocumentSnapshot(&DocumentSnapshot{DocumentID: "doc-1", TenantID: "tenant-1"})

	result := NewEvaluator().Evaluate(rules, snap, DefaultThresholds(), time.Now())

	assert.Empty(t, result.TriggeredRuleCodes)
	assert.Equal(t, SeverityLow, result.Severity)
}

func TestEvaluateCleanSnapshotIsLowSeverity(t *testing.T) {
	taxNo := "1234567890"
	invNo := "INV-2026-001"
	total := decimal.NewFromInt(1250)
	issue := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	snap := NewDocumentSnapshot(&DocumentSnapshot{
		DocumentID:            "doc-1",
		TenantID:              "tenant-1",
		ProcessingStatus:      "completed",
		InvoiceNumber:         &invNo,
		CounterpartyTaxNumber: &taxNo,
		IssueDate:             &issue,
		TotalAmount:           &total,
		Currency:              "TRY",
	})
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	result := NewEvaluator().Evaluate(BuiltinRules(), snap, DefaultThresholds(), now)

	assert.Empty(t, result.TriggeredRuleCodes)
	assert.True(t, result.Score.IsZero())
	assert.Equal(t, SeverityLow, result.Severity)
}

func TestMissingFieldsTriggerWithoutPanic(t *testing.T) {
	// 上游解析失败的文档几乎所有字段都缺,评估必须平滑降级
	snap := NewDocumentSnapshot(&DocumentSnapshot{
		DocumentID:       "doc-broken",
		TenantID:         "tenant-1",
		ProcessingStatus: ProcessingStatusFailed,
	})

	result := NewEvaluator().Evaluate(BuiltinRules(), snap, DefaultThresholds(), time.Now())

	assert.Contains(t, result.TriggeredRuleCodes, CodeDocProcessingFailed)
	assert.Contains(t, result.TriggeredRuleCodes, CodeInvMissingTaxNumber)
	assert.Contains(t, result.TriggeredRuleCodes, CodeInvMissingInvoiceNumber)
	// 金额类规则在金额缺失时不触发
	assert.NotContains(t, result.TriggeredRuleCodes, CodeInvNegativeOrZeroTotal)
	assert.NotContains(t, result.TriggeredRuleCodes, CodeInvLargeRoundTotal)
}

func TestCompanyPredicates(t *testing.T) {
	ratio := decimal.NewFromFloat(0.5)
	snap := NewCompanySnapshot(&CompanySnapshot{
		CompanyID:             "comp-1",
		TenantID:              "tenant-1",
		TaxNumber:             strPtr(""),
		TotalDocumentCount:    20,
		RecentDocumentCount:   10,
		HighRiskDocumentCount: 6,
		HighRiskRatio:         &ratio,
		LastDocumentAt:        timePtr(time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC)),
	})
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	result := NewEvaluator().Evaluate(BuiltinRules(), snap, DefaultThresholds(), now)

	assert.Contains(t, result.TriggeredRuleCodes, CodeCompManyHighRiskDocs)
	assert.Contains(t, result.TriggeredRuleCodes, CodeCompHighRiskRatio)
	assert.Contains(t, result.TriggeredRuleCodes, CodeCompMissingTaxID)
	assert.NotContains(t, result.TriggeredRuleCodes, CodeCompInactiveNoDocs)
}

func TestRuleParamsOverrideDefaults(t *testing.T) {
	rule := compRule(CodeCompManyHighRiskDocs, 50)
	rule.Config = `{"min_count": 10}`
	snap := NewCompanySnapshot(&CompanySnapshot{
		CompanyID:             "comp-1",
		TenantID:              "tenant-1",
		TaxNumber:             strPtr("123"),
		HighRiskDocumentCount: 6,
	})

	result := NewEvaluator().Evaluate([]*RiskRule{rule}, snap, DefaultThresholds(), time.Now())

	assert.Empty(t, result.TriggeredRuleCodes)
}

func TestThresholdClassification(t *testing.T) {
	custom := Thresholds{High: decimal.NewFromInt(50), Critical: decimal.NewFromInt(80)}
	cases := []struct {
		name       string
		thresholds Thresholds
		score      int64
		want       Severity
	}{
		{"zero is low", DefaultThresholds(), 0, SeverityLow},
		{"below high is medium", DefaultThresholds(), 30, SeverityMedium},
		{"at high", DefaultThresholds(), 70, SeverityHigh},
		{"at critical", DefaultThresholds(), 90, SeverityCritical},
		{"tenant high boundary", custom, 50, SeverityHigh},
		{"tenant critical boundary", custom, 80, SeverityCritical},
		{"tenant below high", custom, 49, SeverityMedium},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.thresholds.Classify(decimal.NewFromInt(tc.score)))
		})
	}
}

func TestZeroThresholdsFallBackToDefaults(t *testing.T) {
	var zero Thresholds
	assert.Equal(t, SeverityMedium, zero.Classify(decimal.NewFromInt(30)))
	assert.Equal(t, SeverityHigh, zero.Classify(decimal.NewFromInt(75)))
}

func TestRuleValidate(t *testing.T) {
	valid := docRule("X_RULE", 10)
	require.NoError(t, valid.Validate())

	negative := docRule("X_RULE", 10)
	negative.Weight = decimal.NewFromInt(-1)
	assert.ErrorIs(t, negative.Validate(), ErrInvalidRule)

	noCode := docRule("", 10)
	assert.ErrorIs(t, noCode.Validate(), ErrInvalidRule)

	badScope := docRule("X_RULE", 10)
	badScope.Scope = "transaction"
	assert.ErrorIs(t, badScope.Validate(), ErrInvalidRule)
}

func timePtr(t time.Time) *time.Time { return &t }
