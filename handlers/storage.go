package handlers

import (
	"errors"
	"net/http"

	"asterias/services/storage"
	"asterias/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// multipartOverhead leaves room for form boundaries and the folder field.
const multipartOverhead = 1 << 20

// StorageHandler uploads back-office images to the media library.
type StorageHandler struct {
	StorageSvc storage.StorageService
}

func NewStorageHandler(svc storage.StorageService) *StorageHandler {
	return &StorageHandler{StorageSvc: svc}
}

// UploadImageHandler accepts a multipart "file" and a "folder" of rooms,
// offers or gallery.
func (h *StorageHandler) UploadImageHandler(c *gin.Context) {
	if h.StorageSvc == nil {
		utils.JSONError(c, http.StatusServiceUnavailable, "Image uploads are not configured", "")
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxUploadBytes+multipartOverhead)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			utils.JSONError(c, http.StatusRequestEntityTooLarge, storage.ErrTooLarge.Error(), "")
			return
		}
		utils.JSONError(c, http.StatusBadRequest, "File not provided", err.Error())
		return
	}
	if fileHeader.Size > storage.MaxUploadBytes {
		utils.JSONError(c, http.StatusRequestEntityTooLarge, storage.ErrTooLarge.Error(), "")
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Unreadable file", err.Error())
		return
	}
	defer f.Close()

	res, err := h.StorageSvc.UploadImage(c.Request.Context(), f, c.PostForm("folder"))
	switch {
	case errors.Is(err, storage.ErrBadFolder):
		utils.FieldError(c, "folder", err.Error())
		return
	case errors.Is(err, storage.ErrTooLarge):
		utils.JSONError(c, http.StatusRequestEntityTooLarge, err.Error(), "")
		return
	case errors.Is(err, storage.ErrUnsupportedType):
		utils.JSONError(c, http.StatusUnsupportedMediaType, err.Error(), "")
		return
	case err != nil:
		utils.JSONError(c, http.StatusBadGateway, "Upload failed", err.Error())
		return
	}
	utils.LoggerFrom(c).Info("Image uploaded", zap.String("publicId", res.PublicID), zap.String("type", res.MimeType))
	c.JSON(http.StatusCreated, res)
}

// DeleteImageHandler removes an image by its media library public ID.
func (h *StorageHandler) DeleteImageHandler(c *gin.Context) {
	if h.StorageSvc == nil {
		utils.JSONError(c, http.StatusServiceUnavailable, "Image uploads are not configured", "")
		return
	}
	publicID := c.Query("publicId")
	if publicID == "" {
		utils.FieldError(c, "publicId", "is required")
		return
	}
	if err := h.StorageSvc.DeleteImage(c.Request.Context(), publicID); err != nil {
		utils.JSONError(c, http.StatusBadGateway, "Delete failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
