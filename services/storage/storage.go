package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"asterias/models"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

var allowedTypes = []string{"image/jpeg", "image/png", "image/webp"}

// mediaAPI is the subset of the Cloudinary upload API in use.
type mediaAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

type CloudinaryStorage struct {
	api    mediaAPI
	root   string
	logger *zap.Logger
}

var _ StorageService = (*CloudinaryStorage)(nil)

// NewCloudinaryStorage builds the media store from account credentials.
// Uploads land under root/<folder>.
func NewCloudinaryStorage(cloudName, apiKey, apiSecret, root string, logger *zap.Logger) (*CloudinaryStorage, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("storage: cloudinary credentials not set")
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("storage: initializing cloudinary: %w", err)
	}
	return newStorage(&cld.Upload, root, logger), nil
}

func newStorage(api mediaAPI, root string, logger *zap.Logger) *CloudinaryStorage {
	if logger == nil {
		logger = zap.L()
	}
	return &CloudinaryStorage{api: api, root: root, logger: logger.Named("storage")}
}

// SniffImage reads at most MaxUploadBytes from r and checks the content is an
// image type the site serves.
func SniffImage(r io.Reader) ([]byte, *mimetype.MIME, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, nil, fmt.Errorf("storage: reading upload: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, nil, ErrTooLarge
	}
	mt := mimetype.Detect(data)
	for _, t := range allowedTypes {
		if mt.Is(t) {
			return data, mt, nil
		}
	}
	return nil, mt, ErrUnsupportedType
}

func (s *CloudinaryStorage) UploadImage(ctx context.Context, r io.Reader, folder string) (*models.UploadResult, error) {
	if !Folders[folder] {
		return nil, ErrBadFolder
	}
	data, mt, err := SniffImage(r)
	if err != nil {
		return nil, err
	}
	res, err := s.api.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{Folder: s.root + "/" + folder})
	if err != nil {
		return nil, fmt.Errorf("storage: upload failed: %w", err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("storage: upload rejected: %s", res.Error.Message)
	}
	if res.PublicID == "" {
		return nil, fmt.Errorf("storage: no public ID returned")
	}
	s.logger.Info("image uploaded", zap.String("publicId", res.PublicID), zap.String("type", mt.String()), zap.Int("bytes", len(data)))
	return &models.UploadResult{
		URL:      res.SecureURL,
		PublicID: res.PublicID,
		MimeType: mt.String(),
		Bytes:    int64(len(data)),
	}, nil
}

func (s *CloudinaryStorage) DeleteImage(ctx context.Context, publicID string) error {
	res, err := s.api.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("storage: delete failed: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("storage: delete rejected: %s", res.Error.Message)
	}
	return nil
}
