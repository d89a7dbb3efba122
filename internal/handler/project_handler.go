package handler

import (
	"net/http"

	"dailyreport/internal/middleware"
	"dailyreport/internal/service"
	"dailyreport/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	projectService service.ProjectService
}

func NewProjectHandler(projectService service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

func (h *ProjectHandler) RegisterRoutes(router *gin.RouterGroup, guard middleware.Guard) {
	router.GET("/api/projects", guard.Any(), h.ListProjects)
}

// ListProjects returns the active projects records can be logged against
// @Summary      List projects
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Project}
// @Router       /api/projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	projects, err := h.projectService.ListActive(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, projects))
}
