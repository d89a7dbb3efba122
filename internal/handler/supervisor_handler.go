package handler

import (
	"fmt"
	"net/http"

	"dailyreport/internal/middleware"
	"dailyreport/internal/service"
	"dailyreport/pkg/response"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type SupervisorHandler struct {
	directoryService service.DirectoryService
	reportService    service.ReportService
	exportService    service.ExportService
}

func NewSupervisorHandler(
	directoryService service.DirectoryService,
	reportService service.ReportService,
	exportService service.ExportService,
) *SupervisorHandler {
	return &SupervisorHandler{
		directoryService: directoryService,
		reportService:    reportService,
		exportService:    exportService,
	}
}

func (h *SupervisorHandler) RegisterRoutes(router *gin.RouterGroup, guard middleware.Guard) {
	group := router.Group("/api/supervisor", guard.Any())
	{
		group.GET("/has-subordinates", h.HasSubordinates)
		group.GET("/employees", h.ListEmployees)
		group.GET("/reports", h.ListReports)
		group.GET("/reports/export", h.ExportReports)
	}
}

// HasSubordinates handles GET /api/supervisor/has-subordinates
// @Summary      Whether the caller supervises anyone
// @Tags         supervisor
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=map[string]bool}
// @Router       /api/supervisor/has-subordinates [get]
func (h *SupervisorHandler) HasSubordinates(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	has, err := h.directoryService.HasSubordinates(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"has_subordinates": has}))
}

// ListEmployees handles GET /api/supervisor/employees
// @Summary      Direct reports of the caller
// @Tags         supervisor
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.EmployeeSummary}
// @Router       /api/supervisor/employees [get]
func (h *SupervisorHandler) ListEmployees(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	employees, err := h.directoryService.ListSubordinates(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, employees))
}

// ListReports handles GET /api/supervisor/reports?date=
// @Summary      Submitted reports of the caller's subordinates
// @Tags         supervisor
// @Produce      json
// @Security     BearerAuth
// @Param        date  query     string  true  "Date (YYYY-MM-DD)"
// @Success      200   {object}  response.Response{data=[]service.ReportResponse}
// @Failure      400   {object}  response.Response
// @Router       /api/supervisor/reports [get]
func (h *SupervisorHandler) ListReports(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	reports, err := h.reportService.ListForSupervisor(c.Request.Context(), userID, c.Query("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, reports))
}

// ExportReports handles GET /api/supervisor/reports/export?date=
// @Summary      Export a date's reports as a spreadsheet
// @Tags         supervisor
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        date  query     string  true  "Date (YYYY-MM-DD)"
// @Success      200   {file}    file
// @Failure      400   {object}  response.Response
// @Router       /api/supervisor/reports/export [get]
func (h *SupervisorHandler) ExportReports(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	date := c.Query("date")
	data, err := h.exportService.ExportDate(c.Request.Context(), userID, date)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="daily-reports-%s.xlsx"`, date))
	c.Data(http.StatusOK, xlsxContentType, data)
}
