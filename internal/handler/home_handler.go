package handler

import (
	"net/http"

	"workflow/internal/service"
	"workflow/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type HomeHandler struct {
	homeService service.HomeService
	log         *zap.Logger
}

func NewHomeHandler(homeService service.HomeService, log *zap.Logger) *HomeHandler {
	return &HomeHandler{homeService: homeService, log: log}
}

func (h *HomeHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/", h.Home)
}

// Home handles GET /
// @Summary      Home
// @Description  Menu sections for the signed-in role, plus request and material matches for q.
// @Tags         home
// @Produce      json
// @Security     BearerAuth
// @Param        q    query     string  false  "Search requests and materials"
// @Success      200  {object}  response.Response{data=service.HomeResponse}
// @Router       / [get]
func (h *HomeHandler) Home(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	home, err := h.homeService.Home(c.Request.Context(), actor, c.Query("q"))
	if err != nil {
		respondError(c, h.log, err, "Unable to load the home page.")
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, home))
}
