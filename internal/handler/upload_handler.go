package handler

import (
	"net/http"

	"dailyreport/internal/middleware"
	"dailyreport/internal/service"
	"dailyreport/pkg/response"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	uploadService service.UploadService
}

func NewUploadHandler(uploadService service.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

func (h *UploadHandler) RegisterRoutes(router *gin.RouterGroup, guard middleware.Guard) {
	router.POST("/api/uploads", guard.Any(), h.Upload)
}

// Upload handles POST /api/uploads
// @Summary      Upload a record attachment
// @Description  Stores the file and returns a reference to attach to a work record
// @Tags         uploads
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "File"
// @Success      201   {object}  response.Response{data=model.FileRef}
// @Failure      400   {object}  response.Response
// @Router       /api/uploads [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxUploadBytes+1<<20)

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Missing file field"))
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Unreadable file"))
		return
	}
	defer file.Close()

	ref, err := h.uploadService.Upload(c.Request.Context(), userID, header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, ref))
}
