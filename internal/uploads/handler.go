// Package uploads accepts dish image uploads.
package uploads

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/comanda-app/backend/internal/middleware"
	"github.com/comanda-app/backend/pkg/response"
	"github.com/comanda-app/backend/pkg/storage"
)

// FormField is the multipart field carrying the image.
const FormField = "image"

// multipart framing allowance on top of the image itself
const formOverhead = 1 << 20

// Handler handles POST /upload.
type Handler struct {
	store  storage.ImageStore
	logger *zap.Logger
}

// NewHandler creates an uploads handler.
func NewHandler(store storage.ImageStore, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Upload stores the image and responds 201 with its URL.
func (h *Handler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxImageSize+formOverhead)
	fh, err := c.FormFile(FormField)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			response.BadRequest(c, storage.ErrTooLarge.Error())
			return
		}
		response.BadRequest(c, "image file is required")
		return
	}
	ext, contentType, err := storage.ValidateImage(fh.Filename, fh.Size)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, "unreadable upload")
		return
	}
	defer f.Close()

	url, err := h.store.Put(c.Request.Context(), storage.ImageKey(ext), contentType, f, fh.Size)
	if err != nil {
		h.logger.Error("store image", zap.Error(err))
		response.Internal(c, "upload failed")
		return
	}
	tenantID, _ := middleware.TenantID(c)
	h.logger.Info("image uploaded", zap.Int64("tenant_id", tenantID), zap.String("url", url), zap.Int64("size", fh.Size))
	response.Created(c, gin.H{"url": url})
}
