package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentSnapshot 文档管道产出的归一化字段快照。
// 上游解析失败时字段可能整体缺失,谓词必须对 nil 字段平滑降级。
type DocumentSnapshot struct {
	DocumentID            string           `json:"document_id"`
	TenantID              string           `json:"tenant_id"`
	CompanyID             string           `json:"company_id,omitempty"`
	DocumentType          string           `json:"document_type,omitempty"`
	ProcessingStatus      string           `json:"processing_status"`
	InvoiceNumber         *string          `json:"invoice_number,omitempty"`
	CounterpartyName      *string          `json:"counterparty_name,omitempty"`
	CounterpartyTaxNumber *string          `json:"counterparty_tax_number,omitempty"`
	IssueDate             *time.Time       `json:"issue_date,omitempty"`
	TotalAmount           *decimal.Decimal `json:"total_amount,omitempty"`
	TaxAmount             *decimal.Decimal `json:"tax_amount,omitempty"`
	ExpectedTaxAmount     *decimal.Decimal `json:"expected_tax_amount,omitempty"`
	Currency              string           `json:"currency,omitempty"`
	DuplicateCount        int              `json:"duplicate_count"`
}

// CompanySnapshot 客户公司的聚合统计快照,由外围查询代码滚动计算。
type CompanySnapshot struct {
	CompanyID             string           `json:"company_id"`
	TenantID              string           `json:"tenant_id"`
	TaxNumber             *string          `json:"tax_number,omitempty"`
	TotalDocumentCount    int              `json:"total_document_count"`
	RecentDocumentCount   int              `json:"recent_document_count"`
	HighRiskDocumentCount int              `json:"high_risk_document_count"`
	HighRiskRatio         *decimal.Decimal `json:"high_risk_ratio,omitempty"`
	DuplicateInvoiceCount int              `json:"duplicate_invoice_count"`
	OpenAlertCount        int              `json:"open_alert_count"`
	LastDocumentAt        *time.Time       `json:"last_document_at,omitempty"`
}

// EntitySnapshot 评估器的统一输入,Document 与 Company 互斥。
// AsOf 是本次评估的参考时间,时间类谓词一律以它为基准,保证可复现。
type EntitySnapshot struct {
	Scope    RuleScope         `json:"scope"`
	AsOf     time.Time         `json:"as_of"`
	Document *DocumentSnapshot `json:"document,omitempty"`
	Company  *CompanySnapshot  `json:"company,omitempty"`
}

// NewDocumentSnapshot 包装文档快照
func NewDocumentSnapshot(doc *DocumentSnapshot) *EntitySnapshot {
	return &EntitySnapshot{Scope: ScopeDocument, Document: doc}
}

// NewCompanySnapshot 包装公司快照
func NewCompanySnapshot(comp *CompanySnapshot) *EntitySnapshot {
	return &EntitySnapshot{Scope: ScopeCompany, Company: comp}
}

// EntityID 快照对应实体的标识
func (s *EntitySnapshot) EntityID() string {
	switch s.Scope {
	case ScopeDocument:
		if s.Document != nil {
			return s.Document.DocumentID
		}
	case ScopeCompany:
		if s.Company != nil {
			return s.Company.CompanyID
		}
	}
	return ""
}

// TenantID 快照所属租户
func (s *EntitySnapshot) TenantID() string {
	switch s.Scope {
	case ScopeDocument:
		if s.Document != nil {
			return s.Document.TenantID
		}
	case ScopeCompany:
		if s.Company != nil {
			return s.Company.TenantID
		}
	}
	return ""
}
