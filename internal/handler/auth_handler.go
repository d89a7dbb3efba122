package handler

import (
	"net/http"

	"dailyreport/internal/middleware"
	"dailyreport/internal/model"
	"dailyreport/internal/service"
	"dailyreport/pkg/pagination"
	"dailyreport/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	userService  service.UserService
	secureCookie bool
}

// NewAuthHandler sets up the routing dependencies for login and user endpoints
func NewAuthHandler(userService service.UserService, secureCookie bool) *AuthHandler {
	return &AuthHandler{userService: userService, secureCookie: secureCookie}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup, guard middleware.Guard) {
	// Public routes
	router.POST("/login", h.Login)
	router.POST("/logout", h.Logout)

	router.GET("/me", guard.Any(), h.GetMe)

	users := router.Group("/api/users", guard.Roles(model.RoleAdmin))
	{
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
	}
}

// Login handles POST /login to authenticate and return a JWT token
// @Summary      Login user
// @Description  Authenticates a user by email and password, returning a JWT token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginUserRequest   true  "Login Credentials"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	tokenRes, err := h.userService.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	middleware.SetTokenCookie(c, tokenRes.Token, h.secureCookie)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokenRes))
}

// Logout clears the token cookie
// @Summary      Logout user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.ClearTokenCookie(c, h.secureCookie)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, nil))
}

// GetMe handles GET /me to return current authenticated user based on JWT
// @Summary      Get current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Failure      401      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// ListUsers returns the user directory page by page
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=[]service.UserResponse}
// @Router       /api/users [get]
func (h *AuthHandler) ListUsers(c *gin.Context) {
	p := pagination.Parse(c)
	users, total, err := h.userService.ListUsers(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, users, p.Meta(total)))
}

// CreateUser registers a user with a hashed password
// @Summary      Create a new user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateUserRequest  true  "Create User Payload"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/users [post]
func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, user))
}
