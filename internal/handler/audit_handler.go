package handler

import (
	"net/http"
	"strings"

	"workflow/internal/middleware"
	"workflow/internal/model"
	"workflow/internal/repository"
	"workflow/internal/service"
	"workflow/pkg/pagination"
	"workflow/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuditHandler struct {
	auditService service.AuditService
	log          *zap.Logger
}

func NewAuditHandler(auditService service.AuditService, log *zap.Logger) *AuditHandler {
	return &AuditHandler{auditService: auditService, log: log}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/admin/audit-logs")
	group.Use(middleware.RequireCapability(model.CapManageUsers))
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs lists audit records newest first
// @Summary      Get audit logs
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        action       query     string  false  "Filter by action, e.g. DELETE_MATERIAL"
// @Param        entity_type  query     string  false  "Filter by entity type: MATERIAL, REQUEST, USER"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Items per page (default 20)"
// @Success      200          {object}  response.Response{data=response.Page{items=[]service.AuditLogResponse}}
// @Router       /admin/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)
	filter := repository.AuditFilter{
		Action:     strings.ToUpper(strings.TrimSpace(c.Query("action"))),
		EntityType: strings.ToUpper(strings.TrimSpace(c.Query("entity_type"))),
	}

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), filter, p.Page, p.Limit)
	if err != nil {
		respondError(c, h.log, err, "Unable to load audit logs.")
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, logs, total, p.Page, p.Limit))
}
