package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"workflow/internal/middleware"
	"workflow/internal/model"
	"workflow/internal/service"
	"workflow/pkg/pagination"
	"workflow/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultRequestPageSize = 50

type RequestHandler struct {
	requestService service.RequestService
	exportService  service.ExportService
	log            *zap.Logger
}

func NewRequestHandler(requestService service.RequestService, exportService service.ExportService, log *zap.Logger) *RequestHandler {
	return &RequestHandler{requestService: requestService, exportService: exportService, log: log}
}

func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/requests")
	{
		requests.GET("", h.ListRequests)
		requests.GET("/new", middleware.RequireCapability(model.CapCreateRequests), h.NewRequest)
		requests.POST("", middleware.RequireCapability(model.CapCreateRequests), h.CreateRequest)
		requests.GET("/:id", h.GetRequest)
		requests.DELETE("/:id", middleware.RequireCapability(model.CapDelete), h.DeleteRequest)
		requests.GET("/:id/export/excel", middleware.RequireCapability(model.CapExport), h.ExportExcel)
	}
}

// feetParam parses a length from the query string; blanks and garbage read as 0.
func feetParam(c *gin.Context, key string) float64 {
	v, err := strconv.ParseFloat(c.Query(key), 64)
	if err != nil {
		return 0
	}
	return v
}

// ListRequests handles GET /requests
// @Summary      List requests
// @Description  Newest first, with team and item count.
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 50)"
// @Success      200    {object}  response.Response{data=response.Page{items=[]service.RequestSummaryResponse}}
// @Router       /requests [get]
func (h *RequestHandler) ListRequests(c *gin.Context) {
	p := pagination.ParseWithDefault(c, defaultRequestPageSize)

	requests, total, err := h.requestService.ListRequests(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		respondError(c, h.log, err, "Unable to load requests.")
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, requests, total, p.Page, p.Limit))
}

// NewRequest handles GET /requests/new
// @Summary      New request form
// @Description  Active materials with a quantity suggested from the entered fiber and strand lengths.
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        fiberFt   query     number  false  "Fiber length in feet"
// @Param        strandFt  query     number  false  "Strand length in feet"
// @Success      200       {object}  response.Response{data=service.RequestFormResponse}
// @Router       /requests/new [get]
func (h *RequestHandler) NewRequest(c *gin.Context) {
	form, err := h.requestService.NewRequestForm(c.Request.Context(), feetParam(c, "fiberFt"), feetParam(c, "strandFt"))
	if err != nil {
		respondError(c, h.log, err, "Unable to load the request form.")
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, form))
}

// CreateRequest handles POST /requests
// @Summary      Create request
// @Description  Keeps selected rows for active materials with quantity > 0 and assigns the next WF- code.
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRequestInput  true  "Request"
// @Success      201      {object}  response.Response{data=service.RequestCreatedResponse}
// @Failure      400      {object}  response.Response
// @Router       /requests [post]
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var in service.CreateRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	created, err := h.requestService.CreateRequest(c.Request.Context(), actor, in)
	if err != nil {
		respondError(c, h.log, err, "Unable to create request.")
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, created))
}

// GetRequest handles GET /requests/:id
// @Summary      Get request
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RequestDetailResponse}
// @Failure      404  {object}  response.Response
// @Router       /requests/{id} [get]
func (h *RequestHandler) GetRequest(c *gin.Context) {
	req, err := h.requestService.GetRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, "Unable to load request.")
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}

// DeleteRequest handles DELETE /requests/:id
// @Summary      Delete request
// @Description  Deletes the request and its items. Requires the admin's password.
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string               true  "Request ID"
// @Param        payload  body      adminConfirmRequest  true  "Admin confirmation"
// @Success      200      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /requests/{id} [delete]
func (h *RequestHandler) DeleteRequest(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	password, ok := bindAdminPassword(c)
	if !ok {
		return
	}

	if err := h.requestService.DeleteRequest(c.Request.Context(), actor, c.Param("id"), password); err != nil {
		respondError(c, h.log, err, "Unable to delete request.")
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Request deleted"))
}

// ExportExcel handles GET /requests/:id/export/excel
// @Summary      Export request to Excel
// @Description  Marks every item COMPLETE and downloads the styled workbook.
// @Tags         requests
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {file}    file
// @Failure      404  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /requests/{id}/export/excel [get]
func (h *RequestHandler) ExportExcel(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	file, err := h.exportService.ExportRequestExcel(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, "Unable to export request.")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
