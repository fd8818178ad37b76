package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"qayyim-backend/internal/apperr"
	"qayyim-backend/internal/media"
)

// POST /api/upload takes a multipart "image" field and responds with the
// stored image URL as plain text.
func (h *Handler) uploadImage(c *gin.Context) {
	if h.uploader == nil {
		c.Error(apperr.Internal(errors.New("no image uploader configured"), "Image upload is not configured"))
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.Error(apperr.Validation("No image uploaded"))
		return
	}
	if err := media.ValidateImageName(file.Filename); err != nil {
		c.Error(apperr.Validation("Images only! (jpg, jpeg, png, webp)"))
		return
	}

	f, err := file.Open()
	if err != nil {
		c.Error(apperr.Internal(err, "Failed to read upload"))
		return
	}
	defer f.Close()

	url, err := h.uploader.Upload(c.Request.Context(), file.Filename, file.Header.Get("Content-Type"), f)
	if err != nil {
		c.Error(apperr.Internal(err, "Image upload failed"))
		return
	}
	h.logger.Info("image uploaded", "filename", file.Filename, "url", url)
	c.String(http.StatusOK, url)
}
