package handler

import (
	"net/http"

	"workflow/internal/middleware"
	"workflow/internal/model"
	"workflow/internal/service"
	"workflow/pkg/pagination"
	"workflow/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type MaterialHandler struct {
	materialService service.MaterialService
	log             *zap.Logger
}

func NewMaterialHandler(materialService service.MaterialService, log *zap.Logger) *MaterialHandler {
	return &MaterialHandler{materialService: materialService, log: log}
}

func (h *MaterialHandler) RegisterRoutes(router *gin.RouterGroup) {
	materials := router.Group("/materials")
	{
		materials.GET("", h.ListMaterials)
		materials.GET("/new", middleware.RequireCapability(model.CapEditMaterials), h.NewMaterial)
		materials.GET("/:id/edit", middleware.RequireCapability(model.CapEditMaterials), h.EditMaterial)
		materials.POST("", middleware.RequireCapability(model.CapEditMaterials), h.CreateMaterial)
		materials.POST("/import", middleware.RequireCapability(model.CapEditMaterials), h.ImportMaterials)
		materials.PUT("/:id", middleware.RequireCapability(model.CapEditMaterials), h.UpdateMaterial)
		materials.DELETE("/:id", middleware.RequireCapability(model.CapDelete), h.DeleteMaterial)
	}
}

type materialEditResponse struct {
	Material *service.MaterialDetailResponse `json:"material"`
	Options  service.MaterialFormOptions     `json:"options"`
}

// ListMaterials handles GET /materials
// @Summary      List materials
// @Description  Active materials first, then by name. q filters on name and SAP PN.
// @Tags         materials
// @Produce      json
// @Security     BearerAuth
// @Param        q      query     string  false  "Search term"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=response.Page{items=[]service.MaterialResponse}}
// @Failure      500    {object}  response.Response
// @Router       /materials [get]
func (h *MaterialHandler) ListMaterials(c *gin.Context) {
	p := pagination.Parse(c)

	materials, total, err := h.materialService.ListMaterials(c.Request.Context(), c.Query("q"), p.Page, p.Limit)
	if err != nil {
		respondError(c, h.log, err, "Unable to load materials.")
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, materials, total, p.Page, p.Limit))
}

// NewMaterial handles GET /materials/new
// @Summary      New material form
// @Tags         materials
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.MaterialFormOptions}
// @Router       /materials/new [get]
func (h *MaterialHandler) NewMaterial(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.materialService.FormOptions()))
}

// EditMaterial handles GET /materials/:id/edit
// @Summary      Edit material form
// @Description  The material, how many request items use it, and whether it can be hard-deleted.
// @Tags         materials
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Material ID"
// @Success      200  {object}  response.Response{data=materialEditResponse}
// @Failure      404  {object}  response.Response
// @Router       /materials/{id}/edit [get]
func (h *MaterialHandler) EditMaterial(c *gin.Context) {
	material, err := h.materialService.GetMaterial(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, "Unable to load material.")
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, materialEditResponse{
		Material: material,
		Options:  h.materialService.FormOptions(),
	}))
}

// CreateMaterial handles POST /materials
// @Summary      Create material
// @Tags         materials
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.MaterialInput  true  "Material"
// @Success      201      {object}  response.Response{data=service.MaterialResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /materials [post]
func (h *MaterialHandler) CreateMaterial(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var in service.MaterialInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	material, err := h.materialService.CreateMaterial(c.Request.Context(), actor, in)
	if err != nil {
		respondError(c, h.log, err, "Unable to create material.")
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, material))
}

// UpdateMaterial handles PUT /materials/:id
// @Summary      Update material
// @Description  Replaces the material's fields. is_active may be toggled.
// @Tags         materials
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true  "Material ID"
// @Param        payload  body      service.MaterialInput  true  "Material"
// @Success      200      {object}  response.Response{data=service.MaterialResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /materials/{id} [put]
func (h *MaterialHandler) UpdateMaterial(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var in service.MaterialInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	material, err := h.materialService.UpdateMaterial(c.Request.Context(), actor, c.Param("id"), in)
	if err != nil {
		respondError(c, h.log, err, "Unable to update material.")
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, material))
}

// DeleteMaterial handles DELETE /materials/:id
// @Summary      Delete material
// @Description  Hard delete, refused while any request item references the material. Requires the admin's password.
// @Tags         materials
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string               true  "Material ID"
// @Param        payload  body      adminConfirmRequest  true  "Admin confirmation"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /materials/{id} [delete]
func (h *MaterialHandler) DeleteMaterial(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	password, ok := bindAdminPassword(c)
	if !ok {
		return
	}

	if err := h.materialService.DeleteMaterial(c.Request.Context(), actor, c.Param("id"), password); err != nil {
		respondError(c, h.log, err, "Unable to delete material.")
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Material deleted"))
}

// ImportMaterials handles POST /materials/import
// @Summary      Import parts list
// @Description  Upserts materials by SAP PN from the first sheet of an .xlsx with "SAP PN" and "DESCRIPTION" columns.
// @Tags         materials
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "Parts list (.xlsx)"
// @Success      200   {object}  response.Response{data=service.ImportResult}
// @Failure      400   {object}  response.Response
// @Router       /materials/import [post]
func (h *MaterialHandler) ImportMaterials(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Upload an .xlsx file in the \"file\" field."))
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, h.log, err, "Unable to read the uploaded file.")
		return
	}
	defer file.Close()

	result, err := h.materialService.ImportMaterials(c.Request.Context(), actor, file)
	if err != nil {
		respondError(c, h.log, err, "Unable to import materials.")
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
