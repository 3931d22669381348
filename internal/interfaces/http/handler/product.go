package handler

import (
	"strings"

	catalogapp "github.com/ecomt/storefront/internal/application/catalog"
	"github.com/gin-gonic/gin"
)

// ProductHandler serves the storefront catalog and the admin product endpoints
type ProductHandler struct {
	BaseHandler
	productService *catalogapp.ProductService
	imageService   *catalogapp.ImageService
}

// NewProductHandler creates a new ProductHandler. imageService may be nil
// when object storage is not configured.
func NewProductHandler(productService *catalogapp.ProductService, imageService *catalogapp.ImageService) *ProductHandler {
	return &ProductHandler{productService: productService, imageService: imageService}
}

// ListActive godoc
// @Summary      List active products
// @Tags         products
// @Produce      json
// @Success      200 {object} dto.Response{data=[]catalogapp.ProductResponse}
// @Router       /products [get]
func (h *ProductHandler) ListActive(c *gin.Context) {
	resp, err := h.productService.ListActive(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetActive godoc
// @Summary      Get an active product
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} dto.Response{data=catalogapp.ProductResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id} [get]
func (h *ProductHandler) GetActive(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.productService.GetActive(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetBySlug godoc
// @Summary      Get an active product by slug
// @Tags         products
// @Produce      json
// @Param        slug path string true "Product slug"
// @Success      200 {object} dto.Response{data=catalogapp.ProductResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/slug/{slug} [get]
func (h *ProductHandler) GetBySlug(c *gin.Context) {
	resp, err := h.productService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListByCategory godoc
// @Summary      List active products of a category
// @Tags         products
// @Produce      json
// @Param        id path string true "Category ID"
// @Success      200 {object} dto.Response{data=[]catalogapp.ProductResponse}
// @Router       /products/category/{id} [get]
func (h *ProductHandler) ListByCategory(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.productService.ListByCategory(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListByBrand godoc
// @Summary      List active products of a brand
// @Tags         products
// @Produce      json
// @Param        id path string true "Brand ID"
// @Success      200 {object} dto.Response{data=[]catalogapp.ProductResponse}
// @Router       /products/brand/{id} [get]
func (h *ProductHandler) ListByBrand(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.productService.ListByBrand(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Search godoc
// @Summary      Search active products by name
// @Tags         products
// @Produce      json
// @Param        name query string false "Name fragment"
// @Param        q    query string false "Alias of name"
// @Success      200 {object} dto.Response{data=[]catalogapp.ProductResponse}
// @Router       /products/search [get]
func (h *ProductHandler) Search(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		name = c.Query("q")
	}
	resp, err := h.productService.Search(c.Request.Context(), strings.TrimSpace(name))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Filter godoc
// @Summary      Filter, sort and page active products
// @Tags         products
// @Produce      json
// @Param        categoryId query string false "Category ID"
// @Param        brandId    query string false "Brand ID"
// @Param        minPrice   query number false "Lowest effective price"
// @Param        maxPrice   query number false "Highest effective price"
// @Param        name       query string false "Name fragment"
// @Param        sortBy     query string false "name, price or createdAt" default(createdAt)
// @Param        sortOrder  query string false "asc or desc" default(desc)
// @Param        page       query int    false "Page" default(1)
// @Param        limit      query int    false "Page size" default(12)
// @Success      200 {object} dto.Response{data=[]catalogapp.ProductResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/filter [get]
func (h *ProductHandler) Filter(c *gin.Context) {
	h.filter(c, false)
}

// AdminFilter godoc
// @Summary      Filter products including inactive ones
// @Tags         admin
// @Produce      json
// @Param        categoryId query string false "Category ID"
// @Param        brandId    query string false "Brand ID"
// @Param        name       query string false "Name fragment"
// @Param        sortBy     query string false "name, price or createdAt"
// @Param        sortOrder  query string false "asc or desc"
// @Param        page       query int    false "Page"
// @Param        limit      query int    false "Page size"
// @Success      200 {object} dto.Response{data=[]catalogapp.ProductResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /admin/products/filter [get]
func (h *ProductHandler) AdminFilter(c *gin.Context) {
	h.filter(c, true)
}

func (h *ProductHandler) filter(c *gin.Context, includeInactive bool) {
	var req catalogapp.ProductListFilter
	if !h.bindQuery(c, &req) {
		return
	}
	req.IncludeInactive = includeInactive

	page, err := h.productService.Filter(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ListAll godoc
// @Summary      List all products
// @Tags         admin
// @Produce      json
// @Success      200 {object} dto.Response{data=[]catalogapp.ProductResponse}
// @Security     BearerAuth
// @Router       /admin/products [get]
func (h *ProductHandler) ListAll(c *gin.Context) {
	resp, err := h.productService.ListAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByID godoc
// @Summary      Get any product
// @Tags         admin
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} dto.Response{data=catalogapp.ProductResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/products/{id} [get]
func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Create godoc
// @Summary      Create a product
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body catalogapp.ProductRequest true "Product"
// @Success      201 {object} dto.Response{data=catalogapp.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req catalogapp.ProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.productService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Update godoc
// @Summary      Replace a product
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id      path string                    true "Product ID"
// @Param        request body catalogapp.ProductRequest true "Product"
// @Success      200 {object} dto.Response{data=catalogapp.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.ProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.productService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete godoc
// @Summary      Delete a product
// @Tags         admin
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} dto.Response{data=dto.MessageData}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.productService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Product deleted")
}

// UploadImage godoc
// @Summary      Upload the product image
// @Tags         admin
// @Accept       multipart/form-data
// @Produce      json
// @Param        id   path     string true "Product ID"
// @Param        file formData file   true "Image (jpeg, png, webp, gif)"
// @Success      200 {object} dto.Response{data=catalogapp.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/products/{id}/image [post]
func (h *ProductHandler) UploadImage(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	file, ok := h.readUpload(c, h.imageService)
	if !ok {
		return
	}
	resp, err := h.productService.AttachImage(c.Request.Context(), id, file.data, file.name, file.contentType)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
