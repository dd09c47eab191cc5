package handler

import (
	"errors"
	"net/http"
	"strings"

	"workflow/internal/middleware"
	"workflow/internal/model"
	"workflow/internal/service"
	"workflow/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService service.AuthService
	cookie      middleware.CookieConfig
	loginLimit  gin.HandlerFunc
	log         *zap.Logger
}

// NewAuthHandler wires login, logout and credential checks. loginLimit guards the
// credential endpoints and may be nil.
func NewAuthHandler(authService service.AuthService, cookie middleware.CookieConfig, loginLimit gin.HandlerFunc, log *zap.Logger) *AuthHandler {
	if loginLimit == nil {
		loginLimit = func(c *gin.Context) { c.Next() }
	}
	return &AuthHandler{authService: authService, cookie: cookie, loginLimit: loginLimit, log: log}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/login", h.LoginPage)
	router.POST("/login", h.loginLimit, h.Login)
	router.POST("/logout", h.Logout)
	router.GET("/me", h.GetMe)

	router.POST("/api/internal/verify-credentials", h.loginLimit, h.VerifyCredentials)
}

type loginPageResponse struct {
	CallbackURL string `json:"callback_url"`
}

type loginResult struct {
	service.LoginResponse
	Redirect string `json:"redirect"`
}

type meResponse struct {
	service.SessionUser
	Capabilities []model.Capability `json:"capabilities"`
}

type verifyCredentialsResponse struct {
	OK   bool                 `json:"ok"`
	User *service.SessionUser `json:"user,omitempty"`
}

// safeCallback keeps redirects on this site.
func safeCallback(raw string) string {
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	return raw
}

// LoginPage returns the data behind the sign-in form
// @Summary      Login form
// @Tags         auth
// @Produce      json
// @Param        callbackUrl  query     string  false  "Where to go after signing in"
// @Success      200          {object}  response.Response{data=loginPageResponse}
// @Router       /login [get]
func (h *AuthHandler) LoginPage(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, loginPageResponse{
		CallbackURL: safeCallback(c.Query("callbackUrl")),
	}))
}

// Login authenticates with email and password and sets the session cookie
// @Summary      Login user
// @Description  Issues a session cookie. The token is also returned for Bearer clients.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        callbackUrl  query     string                false  "Where to go after signing in"
// @Param        payload      body      service.LoginRequest  true  "Login Credentials"
// @Success      200          {object}  response.Response{data=loginResult}
// @Failure      400          {object}  response.Response
// @Failure      401          {object}  response.Response
// @Failure      429          {object}  response.Response
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err, "Unable to sign in.")
		return
	}

	middleware.SetSessionCookie(c, h.cookie, res.Token)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, loginResult{
		LoginResponse: *res,
		Redirect:      safeCallback(c.Query("callbackUrl")),
	}))
}

// Logout clears the session cookie
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.ClearSessionCookie(c, h.cookie)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Logged out"))
}

// GetMe returns the signed-in user and what their role may do
// @Summary      Get current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=meResponse}
// @Failure      401  {object}  response.Response
// @Router       /me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, meResponse{
		SessionUser: service.SessionUser{
			ID:    actor.ID.String(),
			Name:  actor.Name,
			Email: actor.Email,
			Role:  actor.Role,
		},
		Capabilities: model.Capabilities(actor.Role),
	}))
}

// VerifyCredentials checks an email/password pair without creating a session
// @Summary      Verify credentials
// @Description  Returns {ok:true,user} on success and {ok:false} with 400, 401 or 500 otherwise.
// @Tags         internal
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Credentials"
// @Success      200      {object}  verifyCredentialsResponse
// @Failure      400      {object}  verifyCredentialsResponse
// @Failure      401      {object}  verifyCredentialsResponse
// @Failure      500      {object}  verifyCredentialsResponse
// @Router       /api/internal/verify-credentials [post]
func (h *AuthHandler) VerifyCredentials(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("verify-credentials: unreadable body", zap.Error(err))
		c.JSON(http.StatusInternalServerError, verifyCredentialsResponse{})
		return
	}

	user, err := h.authService.VerifyCredentials(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		var vErr *service.ValidationError
		switch {
		case errors.As(err, &vErr):
			c.JSON(http.StatusBadRequest, verifyCredentialsResponse{})
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, verifyCredentialsResponse{})
		default:
			h.log.Error("verify-credentials failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, verifyCredentialsResponse{})
		}
		return
	}

	c.JSON(http.StatusOK, verifyCredentialsResponse{OK: true, User: user})
}
