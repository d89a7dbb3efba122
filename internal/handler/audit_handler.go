package handler

import (
	"net/http"

	"dailyreport/internal/middleware"
	"dailyreport/internal/model"
	"dailyreport/internal/repository"
	"dailyreport/internal/service"
	"dailyreport/pkg/pagination"
	"dailyreport/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup, guard middleware.Guard) {
	group := router.Group("/api/audit-logs")
	group.Use(guard.Roles(model.RoleAdmin)) // Protect history logs
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs lists audit entries newest first
// @Summary      Get audit logs
// @Description  Retrieves audit log entries, optionally filtered by action or entity
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 20)"
// @Param        action     query     string  false  "Action filter, e.g. SUBMIT_REPORT"
// @Param        entity_id  query     string  false  "Entity id filter"
// @Success      200        {object}  response.Response{data=[]service.AuditLogResponse}
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)
	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), repository.AuditFilter{
		Action:   c.Query("action"),
		EntityID: c.Query("entity_id"),
		Page:     p.Page,
		Limit:    p.Limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve audit logs: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, logs, p.Meta(total)))
}
