package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	catalogapp "github.com/ecomt/storefront/internal/application/catalog"
	"github.com/ecomt/storefront/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// UploadFormField is the multipart field carrying the image
const UploadFormField = "file"

type uploadedFile struct {
	data        []byte
	name        string
	contentType string
}

// readUpload reads the multipart image, enforcing the service size limit
func (h *BaseHandler) readUpload(c *gin.Context, images *catalogapp.ImageService) (*uploadedFile, bool) {
	if images == nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "Image storage is not configured")
		return nil, false
	}

	fh, err := c.FormFile(UploadFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
			return nil, false
		}
		h.BadRequest(c, "Missing image file in field '"+UploadFormField+"'")
		return nil, false
	}
	if fh.Size > images.MaxSize() {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeImageTooLarge,
			fmt.Sprintf("Image exceeds the %d MB limit", images.MaxSize()>>20))
		return nil, false
	}

	f, err := fh.Open()
	if err != nil {
		h.HandleError(c, fmt.Errorf("open upload: %w", err))
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, images.MaxSize()+1))
	if err != nil {
		h.HandleError(c, fmt.Errorf("read upload: %w", err))
		return nil, false
	}
	return &uploadedFile{
		data:        data,
		name:        fh.Filename,
		contentType: fh.Header.Get("Content-Type"),
	}, true
}

// UploadHandler stores and removes standalone images
type UploadHandler struct {
	BaseHandler
	imageService *catalogapp.ImageService
}

// NewUploadHandler creates a new UploadHandler. imageService may be nil.
func NewUploadHandler(imageService *catalogapp.ImageService) *UploadHandler {
	return &UploadHandler{imageService: imageService}
}

// Upload godoc
// @Summary      Upload an image
// @Tags         admin
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Image (jpeg, png, webp, gif)"
// @Success      201 {object} dto.Response{data=catalogapp.ImageResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/upload/image [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	file, ok := h.readUpload(c, h.imageService)
	if !ok {
		return
	}
	resp, err := h.imageService.Upload(c.Request.Context(), file.data, file.name, file.contentType)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Delete godoc
// @Summary      Delete an image
// @Tags         admin
// @Produce      json
// @Param        key path string true "Object key"
// @Success      200 {object} dto.Response{data=dto.MessageData}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/upload/image/{key} [delete]
func (h *UploadHandler) Delete(c *gin.Context) {
	if !h.available(c) {
		return
	}
	if err := h.imageService.Delete(c.Request.Context(), objectKey(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Image deleted")
}

// URL godoc
// @Summary      Resolve the public URL of an image
// @Tags         admin
// @Produce      json
// @Param        key path string true "Object key"
// @Success      200 {object} dto.Response{data=catalogapp.ImageResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/upload/image-url/{key} [get]
func (h *UploadHandler) URL(c *gin.Context) {
	if !h.available(c) {
		return
	}
	resp, err := h.imageService.URL(objectKey(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

func (h *UploadHandler) available(c *gin.Context) bool {
	if h.imageService == nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "Image storage is not configured")
		return false
	}
	return true
}

// objectKey reads a catch-all *key parameter without its leading slash
func objectKey(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("key"), "/")
}
