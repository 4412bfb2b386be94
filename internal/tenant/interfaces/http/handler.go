// Package http 租户设置的 HTTP 接口
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	"github.com/hfdrk/AI-Muhasebi-sub012/internal/tenant/application"
	"github.com/hfdrk/AI-Muhasebi-sub012/internal/tenant/domain"
)

// SettingsHandler 负责租户配置的读写请求
type SettingsHandler struct {
	svc *application.SettingsService
}

// NewSettingsHandler 创建 HTTP 处理器
func NewSettingsHandler(svc *application.SettingsService) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

// RegisterRoutes 注册路由
func (h *SettingsHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/tenants")
	{
		api.GET("/:id/settings", h.GetSettings)
		api.PUT("/:id/settings", h.UpdateSettings)
	}
}

// GetSettings 租户的生效配置(未配置时返回默认值)
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		logging.Error(c.Request.Context(), "failed to get tenant settings", "tenant_id", c.Param("id"), "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, settings)
}

// UpdateSettings 更新租户配置
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var settings domain.TenantSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	settings.TenantID = c.Param("id")

	if err := h.svc.Update(c.Request.Context(), &settings); err != nil {
		if errors.Is(err, domain.ErrInvalidSettings) {
			response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
			return
		}
		logging.Error(c.Request.Context(), "failed to update tenant settings", "tenant_id", settings.TenantID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, settings)
}
