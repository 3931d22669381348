package handler

import (
	catalogapp "github.com/ecomt/storefront/internal/application/catalog"
	"github.com/gin-gonic/gin"
)

// VariantHandler handles product variant endpoints
type VariantHandler struct {
	BaseHandler
	variantService *catalogapp.VariantService
}

// NewVariantHandler creates a new VariantHandler
func NewVariantHandler(variantService *catalogapp.VariantService) *VariantHandler {
	return &VariantHandler{variantService: variantService}
}

// List godoc
// @Summary      List product variants
// @Tags         variants
// @Produce      json
// @Success      200 {object} dto.Response{data=[]catalogapp.VariantResponse}
// @Router       /product-variants [get]
func (h *VariantHandler) List(c *gin.Context) {
	resp, err := h.variantService.ListAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListByProduct godoc
// @Summary      List the variants of a product
// @Tags         variants
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} dto.Response{data=[]catalogapp.VariantResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /product-variants/product/{id} [get]
func (h *VariantHandler) ListByProduct(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.variantService.ListByProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get godoc
// @Summary      Get a product variant
// @Tags         variants
// @Produce      json
// @Param        id path string true "Variant ID"
// @Success      200 {object} dto.Response{data=catalogapp.VariantResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /product-variants/{id} [get]
func (h *VariantHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.variantService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Create godoc
// @Summary      Create a product variant
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body catalogapp.VariantRequest true "Variant"
// @Success      201 {object} dto.Response{data=catalogapp.VariantResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/product-variants [post]
func (h *VariantHandler) Create(c *gin.Context) {
	var req catalogapp.VariantRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.variantService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Update godoc
// @Summary      Update a product variant
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id      path string                          true "Variant ID"
// @Param        request body catalogapp.UpdateVariantRequest true "Variant"
// @Success      200 {object} dto.Response{data=catalogapp.VariantResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/product-variants/{id} [put]
func (h *VariantHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.UpdateVariantRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.variantService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete godoc
// @Summary      Delete a product variant
// @Tags         admin
// @Produce      json
// @Param        id path string true "Variant ID"
// @Success      200 {object} dto.Response{data=dto.MessageData}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/product-variants/{id} [delete]
func (h *VariantHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.variantService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Variant deleted")
}
