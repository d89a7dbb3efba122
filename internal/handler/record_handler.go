package handler

import (
	"net/http"

	"dailyreport/internal/middleware"
	"dailyreport/internal/service"
	"dailyreport/pkg/response"

	"github.com/gin-gonic/gin"
)

type RecordHandler struct {
	recordService        service.RecordService
	consolidationService service.ConsolidationService
	overlayService       service.OverlayService
}

func NewRecordHandler(
	recordService service.RecordService,
	consolidationService service.ConsolidationService,
	overlayService service.OverlayService,
) *RecordHandler {
	return &RecordHandler{
		recordService:        recordService,
		consolidationService: consolidationService,
		overlayService:       overlayService,
	}
}

func (h *RecordHandler) RegisterRoutes(router *gin.RouterGroup, guard middleware.Guard) {
	group := router.Group("/api/work-records", guard.Any())
	{
		group.POST("", h.CreateRecord)
		group.GET("", h.ListRecords)
		group.PATCH("/:id", h.UpdateRecord)
		group.PATCH("/:id/files/:fileId", h.SelectFile)
		group.GET("/consolidated", h.GetConsolidated)
		group.GET("/editing-status", h.GetEditingStatus)
		group.PUT("/ai/:projectId", h.SetAIContent)
		group.POST("/ai/enhance", h.Enhance)
	}
}

// CreateRecord handles POST /api/work-records
// @Summary      Create a work record
// @Description  Logs a work record for the caller. The date defaults to today in the report timezone.
// @Tags         work-records
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRecordRequest  true  "Work record"
// @Success      201      {object}  response.Response{data=service.RecordResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/work-records [post]
func (h *RecordHandler) CreateRecord(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	record, err := h.recordService.CreateRecord(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, record))
}

// ListRecords handles GET /api/work-records?date=
// @Summary      List work records of a date
// @Tags         work-records
// @Produce      json
// @Security     BearerAuth
// @Param        date  query     string  true  "Date (YYYY-MM-DD)"
// @Success      200   {object}  response.Response{data=[]service.RecordResponse}
// @Failure      400   {object}  response.Response
// @Router       /api/work-records [get]
func (h *RecordHandler) ListRecords(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	records, err := h.recordService.ListRecords(c.Request.Context(), userID, c.Query("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, records))
}

// UpdateRecord handles PATCH /api/work-records/:id
// @Summary      Edit a work record's content
// @Tags         work-records
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true  "Record ID"
// @Param        payload  body      service.UpdateRecordRequest  true  "New content"
// @Success      200      {object}  response.Response{data=service.RecordResponse}
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/work-records/{id} [patch]
func (h *RecordHandler) UpdateRecord(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	recordID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	record, err := h.recordService.UpdateRecordContent(c.Request.Context(), userID, recordID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, record))
}

// SelectFile handles PATCH /api/work-records/:id/files/:fileId
// @Summary      Select a file as AI reference material
// @Tags         work-records
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Record ID"
// @Param        fileId   path      string                     true  "File ID"
// @Param        payload  body      service.SelectFileRequest  true  "Selection"
// @Success      200      {object}  response.Response{data=service.RecordResponse}
// @Router       /api/work-records/{id}/files/{fileId} [patch]
func (h *RecordHandler) SelectFile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	recordID, ok := pathID(c, "id")
	if !ok {
		return
	}
	fileID, ok := pathID(c, "fileId")
	if !ok {
		return
	}
	var req service.SelectFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	record, err := h.recordService.SelectFileForAI(c.Request.Context(), userID, recordID, fileID, req.IsSelectedForAI)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, record))
}

// GetConsolidated handles GET /api/work-records/consolidated?date=
// @Summary      Consolidate a date's records per project
// @Description  Groups the caller's records of one date by project, oldest first
// @Tags         work-records
// @Produce      json
// @Security     BearerAuth
// @Param        date  query     string  true  "Date (YYYY-MM-DD)"
// @Success      200   {object}  response.Response{data=[]service.ConsolidatedReport}
// @Failure      400   {object}  response.Response
// @Router       /api/work-records/consolidated [get]
func (h *RecordHandler) GetConsolidated(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	reports, err := h.consolidationService.GetConsolidated(c.Request.Context(), userID, c.Query("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, reports))
}

// GetEditingStatus handles GET /api/work-records/editing-status?date=
// @Summary      Editing window of a date
// @Tags         work-records
// @Produce      json
// @Security     BearerAuth
// @Param        date  query     string  false  "Date (YYYY-MM-DD), defaults to today"
// @Success      200   {object}  response.Response{data=service.EditingStatus}
// @Router       /api/work-records/editing-status [get]
func (h *RecordHandler) GetEditingStatus(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	status, err := h.recordService.GetEditingStatus(c.Request.Context(), userID, c.Query("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, status))
}

// SetAIContent handles PUT /api/work-records/ai/:projectId
// @Summary      Store edited AI content for a project aggregate
// @Tags         work-records
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string                       true  "Project ID"
// @Param        payload    body      service.SetAIContentRequest  true  "AI content"
// @Success      200        {object}  response.Response
// @Failure      403        {object}  response.Response
// @Failure      404        {object}  response.Response
// @Router       /api/work-records/ai/{projectId} [put]
func (h *RecordHandler) SetAIContent(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "projectId")
	if !ok {
		return
	}
	var req service.SetAIContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	if err := h.overlayService.SetAIContent(c.Request.Context(), userID, projectID, req); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, nil))
}

// Enhance handles POST /api/work-records/ai/enhance
// @Summary      Queue AI rewriting of a date's aggregates
// @Description  Returns immediately; results appear as ai_content on the consolidated view
// @Tags         work-records
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.EnhanceRequest  true  "Date and optional project"
// @Success      202      {object}  response.Response{data=service.EnhanceResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/work-records/ai/enhance [post]
func (h *RecordHandler) Enhance(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.EnhanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	res, err := h.overlayService.Enhance(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, response.Success(http.StatusAccepted, res))
}
