package handler

import (
	"net/http"
	"time"

	"dailyreport/internal/middleware"
	"dailyreport/internal/service"
	"dailyreport/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
	scales        *service.RatingScales
	gate          *service.EditingGate
}

func NewReportHandler(reportService service.ReportService, scales *service.RatingScales, gate *service.EditingGate) *ReportHandler {
	return &ReportHandler{reportService: reportService, scales: scales, gate: gate}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup, guard middleware.Guard) {
	router.GET("/api/rating-scale", guard.Any(), h.GetRatingScale)

	group := router.Group("/api/daily-reports", guard.Any())
	{
		group.POST("", h.Submit)
		group.GET("/mine", h.GetMine)
		group.GET("/:id", h.GetReport)
		group.GET("/:id/approvals", h.ListApprovals)
		group.POST("/:id/review", h.Review)
		group.POST("/:id/reopen", h.Reopen)
	}
}

// Submit handles POST /api/daily-reports
// @Summary      Submit or resubmit a daily report
// @Description  Creates the report of a date or replaces its project snapshots and resets every approval to pending
// @Tags         daily-reports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SubmitReportRequest  true  "Project aggregates to submit"
// @Success      200      {object}  response.Response{data=service.ReportResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/daily-reports [post]
func (h *ReportHandler) Submit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	report, err := h.reportService.Submit(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// GetMine handles GET /api/daily-reports/mine?date=
// @Summary      Get the caller's report of a date
// @Tags         daily-reports
// @Produce      json
// @Security     BearerAuth
// @Param        date  query     string  true  "Date (YYYY-MM-DD)"
// @Success      200   {object}  response.Response{data=service.ReportResponse}
// @Failure      404   {object}  response.Response
// @Router       /api/daily-reports/mine [get]
func (h *ReportHandler) GetMine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	report, err := h.reportService.GetMine(c.Request.Context(), userID, c.Query("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// GetReport handles GET /api/daily-reports/:id
// @Summary      Get a daily report
// @Tags         daily-reports
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Report ID"
// @Success      200  {object}  response.Response{data=service.ReportResponse}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/daily-reports/{id} [get]
func (h *ReportHandler) GetReport(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	reportID, ok := pathID(c, "id")
	if !ok {
		return
	}
	report, err := h.reportService.GetReport(c.Request.Context(), reportID, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// ListApprovals handles GET /api/daily-reports/:id/approvals
// @Summary      Per-supervisor approval status of a report
// @Tags         daily-reports
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Report ID"
// @Success      200  {object}  response.Response{data=[]service.ApprovalResponse}
// @Router       /api/daily-reports/{id}/approvals [get]
func (h *ReportHandler) ListApprovals(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	reportID, ok := pathID(c, "id")
	if !ok {
		return
	}
	approvals, err := h.reportService.ListApprovals(c.Request.Context(), reportID, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, approvals))
}

// Review handles POST /api/daily-reports/:id/review
// @Summary      Review a report
// @Description  Approves the caller's approval with a rating and a review comment
// @Tags         daily-reports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true  "Report ID"
// @Param        payload  body      service.ReviewRequest  true  "Rating and comment"
// @Success      200      {object}  response.Response{data=service.ApprovalResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/daily-reports/{id}/review [post]
func (h *ReportHandler) Review(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	reportID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	approval, err := h.reportService.Review(c.Request.Context(), reportID, userID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, approval))
}

// Reopen handles POST /api/daily-reports/:id/reopen
// @Summary      Unlock a reviewed report
// @Description  Lets the employee resubmit a reviewed report while the date's window is open
// @Tags         daily-reports
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Report ID"
// @Success      200  {object}  response.Response{data=service.ReportResponse}
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/daily-reports/{id}/reopen [post]
func (h *ReportHandler) Reopen(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	reportID, ok := pathID(c, "id")
	if !ok {
		return
	}
	report, err := h.reportService.Reopen(c.Request.Context(), reportID, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// GetRatingScale handles GET /api/rating-scale?date=
// @Summary      Rating scale in effect on a date
// @Tags         daily-reports
// @Produce      json
// @Security     BearerAuth
// @Param        date  query     string  false  "Date (YYYY-MM-DD), defaults to today"
// @Success      200   {object}  response.Response{data=service.RatingScale}
// @Router       /api/rating-scale [get]
func (h *ReportHandler) GetRatingScale(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = h.gate.DateOf(time.Now())
	}
	date, err := service.ParseDate(date)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.scales.At(date)))
}
