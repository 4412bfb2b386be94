package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Predicate 规则谓词:对实体快照的纯函数判定,不得产生副作用或 panic。
// 快照字段缺失时按"条件成立"处理的规则(缺失 X 类),自行对 nil 判定。
type Predicate func(snap *EntitySnapshot, params RuleParams) bool

// 内置规则代码
const (
	CodeDocProcessingFailed     = "DOC_PROCESSING_FAILED"
	CodeInvMissingTaxNumber     = "INV_MISSING_TAX_NUMBER"
	CodeInvMissingInvoiceNumber = "INV_MISSING_INVOICE_NUMBER"
	CodeInvFutureIssueDate      = "INV_FUTURE_ISSUE_DATE"
	CodeInvStaleIssueDate       = "INV_STALE_ISSUE_DATE"
	CodeInvNegativeOrZeroTotal  = "INV_NEGATIVE_OR_ZERO_TOTAL"
	CodeInvLargeRoundTotal      = "INV_LARGE_ROUND_TOTAL"
	CodeInvDuplicateSuspect     = "INV_DUPLICATE_SUSPECT"
	CodeInvTaxMismatch          = "INV_TAX_MISMATCH"
	CodeInvUnusualCurrency      = "INV_UNUSUAL_CURRENCY"
	CodeCompManyHighRiskDocs    = "COMP_MANY_HIGH_RISK_DOCS"
	CodeCompHighRiskRatio       = "COMP_HIGH_RISK_RATIO"
	CodeCompDuplicateInvoices   = "COMP_DUPLICATE_INVOICES"
	CodeCompMissingTaxID        = "COMP_MISSING_TAX_ID"
	CodeCompInactiveNoDocs      = "COMP_INACTIVE_NO_DOCS"
	CodeCompOpenAlertBacklog    = "COMP_OPEN_ALERT_BACKLOG"
)

const (
	// ProcessingStatusFailed 文档管道标记的解析失败状态
	ProcessingStatusFailed = "failed"
)

func missing(s *string) bool { return s == nil || strings.TrimSpace(*s) == "" }

// builtinPredicates 规则代码到谓词的策略表
var builtinPredicates = map[string]Predicate{
	CodeDocProcessingFailed: func(snap *EntitySnapshot, _ RuleParams) bool {
		return snap.Document != nil && snap.Document.ProcessingStatus == ProcessingStatusFailed
	},
	CodeInvMissingTaxNumber: func(snap *EntitySnapshot, _ RuleParams) bool {
		return snap.Document != nil && missing(snap.Document.CounterpartyTaxNumber)
	},
	CodeInvMissingInvoiceNumber: func(snap *EntitySnapshot, _ RuleParams) bool {
		return snap.Document != nil && missing(snap.Document.InvoiceNumber)
	},
	CodeInvFutureIssueDate: func(snap *EntitySnapshot, _ RuleParams) bool {
		d := snap.Document
		return d != nil && d.IssueDate != nil && d.IssueDate.After(snap.AsOf)
	},
	CodeInvStaleIssueDate: func(snap *EntitySnapshot, params RuleParams) bool {
		d := snap.Document
		if d == nil || d.IssueDate == nil {
			return false
		}
		maxAge := time.Duration(params.Int("max_age_days", 365)) * 24 * time.Hour
		return snap.AsOf.Sub(*d.IssueDate) > maxAge
	},
	CodeInvNegativeOrZeroTotal: func(snap *EntitySnapshot, _ RuleParams) bool {
		d := snap.Document
		return d != nil && d.TotalAmount != nil && !d.TotalAmount.IsPositive()
	},
	CodeInvLargeRoundTotal: func(snap *EntitySnapshot, params RuleParams) bool {
		d := snap.Document
		if d == nil || d.TotalAmount == nil {
			return false
		}
		min := decimal.NewFromFloat(params.Float("min_amount", 10000))
		step := decimal.NewFromFloat(params.Float("round_step", 1000))
		if step.IsZero() || d.TotalAmount.LessThan(min) {
			return false
		}
		return d.TotalAmount.Mod(step).IsZero()
	},
	CodeInvDuplicateSuspect: func(snap *EntitySnapshot, _ RuleParams) bool {
		return snap.Document != nil && snap.Document.DuplicateCount > 0
	},
	CodeInvTaxMismatch: func(snap *EntitySnapshot, params RuleParams) bool {
		d := snap.Document
		if d == nil || d.TaxAmount == nil || d.ExpectedTaxAmount == nil {
			return false
		}
		tolerance := decimal.NewFromFloat(params.Float("tolerance", 1.0))
		return d.TaxAmount.Sub(*d.ExpectedTaxAmount).Abs().GreaterThan(tolerance)
	},
	CodeInvUnusualCurrency: func(snap *EntitySnapshot, params RuleParams) bool {
		d := snap.Document
		if d == nil || d.Currency == "" {
			return false
		}
		allowed := params.Strings("allowed_currencies", []string{"TRY", "USD", "EUR"})
		for _, cur := range allowed {
			if strings.EqualFold(cur, d.Currency) {
				return false
			}
		}
		return true
	},
	CodeCompManyHighRiskDocs: func(snap *EntitySnapshot, params RuleParams) bool {
		c := snap.Company
		return c != nil && c.HighRiskDocumentCount >= params.Int("min_count", 5)
	},
	CodeCompHighRiskRatio: func(snap *EntitySnapshot, params RuleParams) bool {
		c := snap.Company
		if c == nil || c.HighRiskRatio == nil || c.RecentDocumentCount == 0 {
			return false
		}
		threshold := decimal.NewFromFloat(params.Float("min_ratio", 0.3))
		return c.HighRiskRatio.GreaterThanOrEqual(threshold)
	},
	CodeCompDuplicateInvoices: func(snap *EntitySnapshot, _ RuleParams) bool {
		return snap.Company != nil && snap.Company.DuplicateInvoiceCount > 0
	},
	CodeCompMissingTaxID: func(snap *EntitySnapshot, _ RuleParams) bool {
		return snap.Company != nil && missing(snap.Company.TaxNumber)
	},
	CodeCompInactiveNoDocs: func(snap *EntitySnapshot, params RuleParams) bool {
		c := snap.Company
		if c == nil {
			return false
		}
		if c.TotalDocumentCount == 0 {
			return true
		}
		if c.LastDocumentAt == nil {
			return true
		}
		maxIdle := time.Duration(params.Int("max_idle_days", 90)) * 24 * time.Hour
		return snap.AsOf.Sub(*c.LastDocumentAt) > maxIdle
	},
	CodeCompOpenAlertBacklog: func(snap *EntitySnapshot, params RuleParams) bool {
		c := snap.Company
		return c != nil && c.OpenAlertCount >= params.Int("min_open_alerts", 3)
	},
}

// BuiltinPredicates 返回内置谓词表的拷贝,供评估器初始化
func BuiltinPredicates() map[string]Predicate {
	out := make(map[string]Predicate, len(builtinPredicates))
	for code, p := range builtinPredicates {
		out[code] = p
	}
	return out
}

// BuiltinRules 内置规则的种子定义。权重与描述仅在首次插入时生效,
// 数据库中的行是运行时的唯一事实来源。
func BuiltinRules() []*RiskRule {
	w := func(v int) decimal.Decimal { return decimal.NewFromInt(int64(v)) }
	return []*RiskRule{
		{Code: CodeDocProcessingFailed, Scope: ScopeDocument, Description: "Document processing (OCR/extraction) failed", Weight: w(40), IsActive: true, DefaultSeverity: SeverityHigh},
		{Code: CodeInvMissingTaxNumber, Scope: ScopeDocument, Description: "Counterparty tax number is missing", Weight: w(30), IsActive: true, DefaultSeverity: SeverityMedium},
		{Code: CodeInvMissingInvoiceNumber, Scope: ScopeDocument, Description: "Invoice number is missing", Weight: w(20), IsActive: true, DefaultSeverity: SeverityMedium},
		{Code: CodeInvFutureIssueDate, Scope: ScopeDocument, Description: "Invoice issue date is in the future", Weight: w(25), IsActive: true, DefaultSeverity: SeverityMedium},
		{Code: CodeInvStaleIssueDate, Scope: ScopeDocument, Description: "Invoice issue date is older than the allowed booking age", Weight: w(10), IsActive: true, DefaultSeverity: SeverityLow},
		{Code: CodeInvNegativeOrZeroTotal, Scope: ScopeDocument, Description: "Invoice total is zero or negative", Weight: w(35), IsActive: true, DefaultSeverity: SeverityHigh},
		{Code: CodeInvLargeRoundTotal, Scope: ScopeDocument, Description: "Unusually large round-figure invoice total", Weight: w(15), IsActive: true, DefaultSeverity: SeverityLow},
		{Code: CodeInvDuplicateSuspect, Scope: ScopeDocument, Description: "Suspected duplicate of an existing invoice", Weight: w(45), IsActive: true, DefaultSeverity: SeverityHigh},
		{Code: CodeInvTaxMismatch, Scope: ScopeDocument, Description: "Declared tax amount does not match the computed tax", Weight: w(30), IsActive: true, DefaultSeverity: SeverityMedium},
		{Code: CodeInvUnusualCurrency, Scope: ScopeDocument, Description: "Invoice currency outside the tenant's usual set", Weight: w(10), IsActive: true, DefaultSeverity: SeverityLow},
		{Code: CodeCompManyHighRiskDocs, Scope: ScopeCompany, Description: "Company has many recent high-risk documents", Weight: w(50), IsActive: true, DefaultSeverity: SeverityHigh},
		{Code: CodeCompHighRiskRatio, Scope: ScopeCompany, Description: "High ratio of risky documents among recent uploads", Weight: w(40), IsActive: true, DefaultSeverity: SeverityHigh},
		{Code: CodeCompDuplicateInvoices, Scope: ScopeCompany, Description: "Duplicate invoices detected across the company", Weight: w(30), IsActive: true, DefaultSeverity: SeverityMedium},
		{Code: CodeCompMissingTaxID, Scope: ScopeCompany, Description: "Company tax identifier is missing", Weight: w(25), IsActive: true, DefaultSeverity: SeverityMedium},
		{Code: CodeCompInactiveNoDocs, Scope: ScopeCompany, Description: "Company has no recent bookkeeping activity", Weight: w(10), IsActive: true, DefaultSeverity: SeverityLow},
		{Code: CodeCompOpenAlertBacklog, Scope: ScopeCompany, Description: "Company has a backlog of unresolved alerts", Weight: w(20), IsActive: true, DefaultSeverity: SeverityMedium},
	}
}
