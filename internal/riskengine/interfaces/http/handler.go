// Package http 风险评分服务的 HTTP 接口
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	"github.com/hfdrk/AI-Muhasebi-sub012/internal/riskengine/application"
	"github.com/hfdrk/AI-Muhasebi-sub012/internal/riskengine/domain"
)

// TenantHeader 多租户请求必须携带的租户标识头
const TenantHeader = "X-Tenant-ID"

// RiskHandler 负责处理风险评分相关的 HTTP 请求
type RiskHandler struct {
	cmd   *application.RiskCommandService
	query *application.RiskQueryService
}

// NewRiskHandler 创建 HTTP 处理器
func NewRiskHandler(cmd *application.RiskCommandService, query *application.RiskQueryService) *RiskHandler {
	return &RiskHandler{cmd: cmd, query: query}
}

// RegisterRoutes 注册路由
func (h *RiskHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/risk")
	{
		api.POST("/documents/evaluate", h.EvaluateDocument)
		api.POST("/companies/evaluate", h.EvaluateCompany)
		api.GET("/:scope/:id/score", h.GetCurrentScore)
		api.GET("/:scope/:id/scores", h.ListScores)
		api.GET("/:scope/:id/explanation", h.Explain)
		api.GET("/alerts", h.ListAlerts)
		api.POST("/alerts/:id/start", h.StartAlert)
		api.POST("/alerts/:id/close", h.CloseAlert)
		api.GET("/rules", h.ListRules)
		api.POST("/rules", h.SaveRule)
		api.POST("/rules/:code/activate", h.ActivateRule)
		api.POST("/rules/:code/deactivate", h.DeactivateRule)
	}
}

func tenantID(c *gin.Context) string {
	return c.GetHeader(TenantHeader)
}

func parseScope(raw string) (domain.RuleScope, bool) {
	switch raw {
	case "document", "documents":
		return domain.ScopeDocument, true
	case "company", "companies":
		return domain.ScopeCompany, true
	default:
		return "", false
	}
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, "not found", "")
	case errors.Is(err, domain.ErrInvalidTransition):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "")
	case errors.Is(err, domain.ErrInvalidRule):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
	default:
		logging.Error(c.Request.Context(), "risk request failed", "path", c.FullPath(), "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
	}
}

// EvaluateDocument 对文档快照同步评估
func (h *RiskHandler) EvaluateDocument(c *gin.Context) {
	tenant := tenantID(c)
	if tenant == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "X-Tenant-ID header is required", "")
		return
	}
	var snap domain.DocumentSnapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	snap.TenantID = tenant

	result, err := h.cmd.EvaluateDocument(c.Request.Context(), &snap)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, result)
}

// EvaluateCompany 对公司聚合快照同步评估
func (h *RiskHandler) EvaluateCompany(c *gin.Context) {
	tenant := tenantID(c)
	if tenant == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "X-Tenant-ID header is required", "")
		return
	}
	var snap domain.CompanySnapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	snap.TenantID = tenant

	result, err := h.cmd.EvaluateCompany(c.Request.Context(), &snap)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, result)
}

// GetCurrentScore 实体当前评分
func (h *RiskHandler) GetCurrentScore(c *gin.Context) {
	scope, ok := parseScope(c.Param("scope"))
	if !ok {
		response.ErrorWithStatus(c, http.StatusBadRequest, "unknown scope", "")
		return
	}
	dto, err := h.query.GetCurrentScore(c.Request.Context(), scope, c.Param("id"), tenantID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, dto)
}

// ListScores 实体评分历史
func (h *RiskHandler) ListScores(c *gin.Context) {
	scope, ok := parseScope(c.Param("scope"))
	if !ok {
		response.ErrorWithStatus(c, http.StatusBadRequest, "unknown scope", "")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	rows, err := h.query.ListScores(c.Request.Context(), scope, c.Param("id"), tenantID(c), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, rows)
}

// Explain 评分解释报告
func (h *RiskHandler) Explain(c *gin.Context) {
	scope, ok := parseScope(c.Param("scope"))
	if !ok {
		response.ErrorWithStatus(c, http.StatusBadRequest, "unknown scope", "")
		return
	}
	report, err := h.query.Explain(c.Request.Context(), scope, c.Param("id"), tenantID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, report)
}

// ListAlerts 分页查询警报
func (h *RiskHandler) ListAlerts(c *gin.Context) {
	tenant := tenantID(c)
	if tenant == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "X-Tenant-ID header is required", "")
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	status := domain.AlertStatus(c.Query("status"))

	alerts, total, err := h.query.ListAlerts(c.Request.Context(), tenant, status, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"items": alerts, "total": total, "page": page, "page_size": pageSize})
}

// StartAlert 领取警报
func (h *RiskHandler) StartAlert(c *gin.Context) {
	alert, err := h.cmd.StartAlert(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, alert)
}

type closeAlertRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// CloseAlert 关闭警报,记录处理人
func (h *RiskHandler) CloseAlert(c *gin.Context) {
	var req closeAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	alert, err := h.cmd.CloseAlert(c.Request.Context(), tenantID(c), c.Param("id"), req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, alert)
}

// ListRules 规则清单
func (h *RiskHandler) ListRules(c *gin.Context) {
	scope, _ := parseScope(c.Query("scope"))
	rules, err := h.query.ListRules(c.Request.Context(), scope)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, rules)
}

// SaveRule 写入规则,完整性校验失败返回 400
func (h *RiskHandler) SaveRule(c *gin.Context) {
	var rule domain.RiskRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	if err := h.cmd.SaveRule(c.Request.Context(), &rule); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, rule)
}

// ActivateRule 启用规则
func (h *RiskHandler) ActivateRule(c *gin.Context) {
	rule, err := h.cmd.SetRuleActive(c.Request.Context(), c.Param("code"), true)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, rule)
}

// DeactivateRule 软禁用规则
func (h *RiskHandler) DeactivateRule(c *gin.Context) {
	rule, err := h.cmd.SetRuleActive(c.Request.Context(), c.Param("code"), false)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, rule)
}
