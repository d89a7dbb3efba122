package handler

import (
	"net/http"

	"dailyreport/internal/middleware"
	"dailyreport/internal/service"
	"dailyreport/pkg/response"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	commentService service.CommentService
}

func NewCommentHandler(commentService service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

func (h *CommentHandler) RegisterRoutes(router *gin.RouterGroup, guard middleware.Guard) {
	group := router.Group("/api/daily-reports/:id/comments", guard.Any())
	{
		group.GET("", h.ListComments)
		group.GET("/flat", h.ListCommentsFlat)
		group.POST("", h.PostComment)
	}
}

// ListComments handles GET /api/daily-reports/:id/comments
// @Summary      Comment threads of a report
// @Description  Returns root comments with nested replies, oldest first
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Report ID"
// @Success      200  {object}  response.Response{data=[]service.CommentResponse}
// @Failure      403  {object}  response.Response
// @Router       /api/daily-reports/{id}/comments [get]
func (h *CommentHandler) ListComments(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	reportID, ok := pathID(c, "id")
	if !ok {
		return
	}
	comments, err := h.commentService.ListComments(c.Request.Context(), reportID, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, comments))
}

// ListCommentsFlat handles GET /api/daily-reports/:id/comments/flat
// @Summary      Comments of a report in chronological order
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Report ID"
// @Success      200  {object}  response.Response{data=[]service.CommentResponse}
// @Router       /api/daily-reports/{id}/comments/flat [get]
func (h *CommentHandler) ListCommentsFlat(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	reportID, ok := pathID(c, "id")
	if !ok {
		return
	}
	comments, err := h.commentService.ListCommentsFlat(c.Request.Context(), reportID, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, comments))
}

// PostComment handles POST /api/daily-reports/:id/comments
// @Summary      Comment on a report
// @Description  Posts a root comment or a reply. Plain comments never carry a rating.
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Report ID"
// @Param        payload  body      service.PostCommentRequest  true  "Comment"
// @Success      201      {object}  response.Response{data=service.CommentResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/daily-reports/{id}/comments [post]
func (h *CommentHandler) PostComment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	reportID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.PostCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	comment, err := h.commentService.PostComment(c.Request.Context(), reportID, userID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, comment))
}
