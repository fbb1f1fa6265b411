package storage

import (
	"context"
	"errors"
	"io"

	"asterias/models"
)

var (
	ErrTooLarge        = errors.New("file exceeds the upload limit")
	ErrUnsupportedType = errors.New("only JPEG, PNG and WebP images can be uploaded")
	ErrBadFolder       = errors.New("unknown media folder")
)

// MaxUploadBytes caps a single image upload.
const MaxUploadBytes = 10 << 20

// Folders are the media library sections the back office can upload to.
var Folders = map[string]bool{
	"rooms":   true,
	"offers":  true,
	"gallery": true,
}

// StorageService stores back-office images in the media library.
type StorageService interface {
	UploadImage(ctx context.Context, r io.Reader, folder string) (*models.UploadResult, error)
	DeleteImage(ctx context.Context, publicID string) error
}
