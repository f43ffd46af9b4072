package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/institute-portal-api/internal/service"
	appErrors "github.com/noah-isme/institute-portal-api/pkg/errors"
	"github.com/noah-isme/institute-portal-api/pkg/response"
	"github.com/noah-isme/institute-portal-api/pkg/storage"
)

// multipartOverhead is the allowance for form boundaries and headers on top of the photo itself.
const multipartOverhead = 64 * 1024

type uploadService interface {
	MaxBytes() int64
	SavePhoto(ctx context.Context, data []byte) (*service.StoredPhoto, error)
}

type mediaStore interface {
	Open(key string) (*os.File, error)
}

// UploadHandler accepts applicant photos and serves stored media.
type UploadHandler struct {
	service uploadService
	media   mediaStore
}

// NewUploadHandler builds a new handler.
func NewUploadHandler(svc uploadService, media mediaStore) *UploadHandler {
	return &UploadHandler{service: svc, media: media}
}

// UploadPhoto godoc
// @Summary Upload applicant photo
// @Description Stores a JPEG, PNG or WebP image and returns its public URL for the admission form
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param photo formData file true "Image"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /uploads/photos [post]
func (h *UploadHandler) UploadPhoto(c *gin.Context) {
	limit := h.service.MaxBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

	header, err := c.FormFile("photo")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, appErrors.Validation("validation failed", []appErrors.FieldError{{Field: "photo", Tag: "max", Message: "photo is too large"}}))
			return
		}
		response.Error(c, appErrors.Validation("validation failed", []appErrors.FieldError{{Field: "photo", Tag: "required", Message: "photo is required"}}))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}

	photo, err := h.service.SavePhoto(c.Request.Context(), data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, photo)
}

// Media streams a stored object such as an applicant photo.
func (h *UploadHandler) Media(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("path"), "/")
	file, err := h.media.Open(key)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) || errors.Is(err, storage.ErrInvalidPath) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "media not found"))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open media"))
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil || info.IsDir() {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "media not found"))
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), file)
}
