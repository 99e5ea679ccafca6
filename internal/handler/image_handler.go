package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trackmate-dev/trackmate-api/internal/middleware"
	"github.com/trackmate-dev/trackmate-api/internal/models"
	"github.com/trackmate-dev/trackmate-api/internal/service"
	appErrors "github.com/trackmate-dev/trackmate-api/pkg/errors"
	"github.com/trackmate-dev/trackmate-api/pkg/response"
)

// ImageHandler exposes image attachment endpoints.
type ImageHandler struct {
	images *service.ImageService
}

// NewImageHandler constructs ImageHandler.
func NewImageHandler(images *service.ImageService) *ImageHandler {
	return &ImageHandler{images: images}
}

// Upload godoc
// @Summary Upload an image for an item
// @Tags Images
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file"
// @Param item_id formData string true "Item ID"
// @Param item_type formData string true "lost or found"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /images/upload [post]
func (h *ImageHandler) Upload(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read file"))
		return
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "unable to read file"))
		return
	}

	req := service.UploadRequest{
		ItemID:       c.PostForm("item_id"),
		ItemKind:     models.ItemKind(c.PostForm("item_type")),
		OriginalName: fileHeader.Filename,
		MimeType:     fileHeader.Header.Get("Content-Type"),
		Data:         data,
	}
	if req.ItemID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "item_id is required"))
		return
	}

	image, err := h.images.Upload(c.Request.Context(), models.ActorFromClaims(claims), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, image)
}

// Download godoc
// @Summary Download a stored image file
// @Tags Images
// @Produce octet-stream
// @Param file_name path string true "Stored file name"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /uploads/{file_name} [get]
func (h *ImageHandler) Download(c *gin.Context) {
	image, reader, err := h.images.OpenFile(c.Request.Context(), c.Param("file_name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer reader.Close() //nolint:errcheck

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", image.OriginalName))
	c.DataFromReader(http.StatusOK, image.FileSize, image.MimeType, reader, nil)
}

// ListForItem godoc
// @Summary List images attached to an item
// @Tags Images
// @Produce json
// @Param item_type path string true "lost or found"
// @Param item_id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /images/{item_type}/{item_id} [get]
func (h *ImageHandler) ListForItem(c *gin.Context) {
	kind := models.ItemKind(c.Param("item_type"))
	images, err := h.images.ListForItem(c.Request.Context(), kind, c.Param("item_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, images, nil)
}
