package handler

import (
	catalogapp "github.com/ecomt/storefront/internal/application/catalog"
	"github.com/gin-gonic/gin"
)

// BrandHandler handles brand endpoints
type BrandHandler struct {
	BaseHandler
	brandService *catalogapp.BrandService
}

// NewBrandHandler creates a new BrandHandler
func NewBrandHandler(brandService *catalogapp.BrandService) *BrandHandler {
	return &BrandHandler{brandService: brandService}
}

// List godoc
// @Summary      List brands
// @Tags         brands
// @Produce      json
// @Success      200 {object} dto.Response{data=[]catalogapp.BrandResponse}
// @Router       /brands [get]
func (h *BrandHandler) List(c *gin.Context) {
	resp, err := h.brandService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get godoc
// @Summary      Get a brand
// @Tags         brands
// @Produce      json
// @Param        id path string true "Brand ID"
// @Success      200 {object} dto.Response{data=catalogapp.BrandResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /brands/{id} [get]
func (h *BrandHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.brandService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Create godoc
// @Summary      Create a brand
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body catalogapp.LabelRequest true "Brand"
// @Success      201 {object} dto.Response{data=catalogapp.BrandResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/brands [post]
func (h *BrandHandler) Create(c *gin.Context) {
	var req catalogapp.LabelRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.brandService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Update godoc
// @Summary      Update a brand
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id      path string                  true "Brand ID"
// @Param        request body catalogapp.LabelRequest true "Brand"
// @Success      200 {object} dto.Response{data=catalogapp.BrandResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/brands/{id} [put]
func (h *BrandHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.LabelRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.brandService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete godoc
// @Summary      Delete a brand
// @Description  Refused while products still reference the brand
// @Tags         admin
// @Produce      json
// @Param        id path string true "Brand ID"
// @Success      200 {object} dto.Response{data=dto.MessageData}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/brands/{id} [delete]
func (h *BrandHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.brandService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Brand deleted")
}
