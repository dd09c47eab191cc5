package handler

import (
	"net/http"

	"workflow/internal/middleware"
	"workflow/internal/model"
	"workflow/internal/service"
	"workflow/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService service.UserService
	log         *zap.Logger
}

// NewUserHandler sets up the routing dependencies for User endpoints
func NewUserHandler(userService service.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, log: log}
}

// RegisterRoutes binds the user pages and their /admin aliases.
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	manage := middleware.RequireCapability(model.CapManageUsers)

	users := router.Group("/users", manage)
	{
		users.GET("", h.ListUsers)
		users.GET("/new", h.NewUser)
		users.POST("", h.CreateUser)
		users.GET("/:id", h.GetUser)
		users.DELETE("/:id", h.DeleteUser)
	}

	admin := router.Group("/admin/users", manage)
	{
		admin.GET("", h.ListUsers)
		admin.POST("", h.CreateUser)
	}
}

type userFormResponse struct {
	Roles []string `json:"roles"`
}

// ListUsers handles GET /users
// @Summary      List users
// @Description  All users ordered by role, then name.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.UserResponse}
// @Failure      403  {object}  response.Response
// @Router       /users [get]
// @Router       /admin/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Unable to load users.")
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, users))
}

// NewUser handles GET /users/new
// @Summary      New user form
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=userFormResponse}
// @Router       /users/new [get]
func (h *UserHandler) NewUser(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, userFormResponse{Roles: model.Roles()}))
}

// GetUser handles GET /users/:id
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      404  {object}  response.Response
// @Router       /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, "Unable to load user.")
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// CreateUser handles POST /users
// @Summary      Create a new user
// @Description  Validates the fields, hashes the password and records an audit entry.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateUserRequest  true  "Create User Payload"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /users [post]
// @Router       /admin/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, h.log, err, "Unable to create user.")
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, user))
}

// DeleteUser handles DELETE /users/:id
// @Summary      Delete user
// @Description  Refuses to delete the acting admin or the last ADMIN. Requires the admin's password.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string               true  "User ID"
// @Param        payload  body      adminConfirmRequest  true  "Admin confirmation"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	password, ok := bindAdminPassword(c)
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), actor, c.Param("id"), password); err != nil {
		respondError(c, h.log, err, "Unable to delete user.")
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "User deleted successfully"))
}
