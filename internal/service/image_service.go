package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trackmate-dev/trackmate-api/internal/models"
	appErrors "github.com/trackmate-dev/trackmate-api/pkg/errors"
)

type imageRepository interface {
	Create(ctx context.Context, image *models.Image) error
	FindByFileName(ctx context.Context, fileName string) (*models.Image, error)
	ListForItem(ctx context.Context, kind models.ItemKind, itemID string) ([]models.Image, error)
}

type itemLookup interface {
	Get(ctx context.Context, kind models.ItemKind, id string) (*models.Item, error)
}

type blobStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (io.ReadCloser, error)
	Delete(filename string) error
}

// ImageConfig bounds what uploads are accepted.
type ImageConfig struct {
	MaxFileSizeBytes  int64
	AllowedExtensions []string
}

// UploadRequest describes one incoming image upload.
type UploadRequest struct {
	ItemID       string
	ItemKind     models.ItemKind
	OriginalName string
	MimeType     string
	Data         []byte
}

// ImageService links uploaded files to lost/found items.
type ImageService struct {
	repo    imageRepository
	items   itemLookup
	store   blobStore
	logger  *zap.Logger
	config  ImageConfig
	allowed map[string]struct{}
}

// NewImageService constructs the image service.
func NewImageService(repo imageRepository, items itemLookup, store blobStore, logger *zap.Logger, config ImageConfig) *ImageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := make(map[string]struct{}, len(config.AllowedExtensions))
	for _, ext := range config.AllowedExtensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}
	return &ImageService{repo: repo, items: items, store: store, logger: logger, config: config, allowed: allowed}
}

// Upload validates the file, stores the bytes under a generated name and
// records the image row. The uploader must own the target item; admins may
// attach images to any item.
func (s *ImageService) Upload(ctx context.Context, actor models.Actor, req UploadRequest) (*models.Image, error) {
	if !req.ItemKind.IsValid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "item_type must be 'lost' or 'found'")
	}

	ext := strings.ToLower(filepath.Ext(req.OriginalName))
	if _, ok := s.allowed[ext]; !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file type %q is not allowed", ext))
	}
	if int64(len(req.Data)) > s.config.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds maximum size of %d bytes", s.config.MaxFileSizeBytes))
	}

	item, err := s.items.Get(ctx, req.ItemKind, req.ItemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != actor.UserID && !actor.Role.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the item owner can attach images")
	}

	filename := uuid.NewString() + ext
	if _, err := s.store.Save(filename, req.Data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store image")
	}

	image := &models.Image{
		ItemID:       item.ID,
		ItemKind:     req.ItemKind,
		FileName:     filename,
		OriginalName: req.OriginalName,
		FileSize:     int64(len(req.Data)),
		MimeType:     req.MimeType,
		UploadedBy:   actor.UserID,
	}
	if err := s.repo.Create(ctx, image); err != nil {
		// Do not leave orphaned files behind when the row insert fails.
		if cleanupErr := s.store.Delete(filename); cleanupErr != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("file", filename), zap.Error(cleanupErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record image")
	}

	s.logger.Info("image uploaded",
		zap.String("image_id", image.ID),
		zap.String("item_id", item.ID),
		zap.String("item_kind", string(req.ItemKind)))
	return image, nil
}

// OpenFile returns the stored bytes of an uploaded image together with its
// metadata so callers can set content headers.
func (s *ImageService) OpenFile(ctx context.Context, fileName string) (*models.Image, io.ReadCloser, error) {
	image, err := s.repo.FindByFileName(ctx, fileName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "image not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load image")
	}

	reader, err := s.store.Open(image.FileName)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open image file")
	}
	return image, reader, nil
}

// ListForItem returns the image records attached to an item in upload order.
func (s *ImageService) ListForItem(ctx context.Context, kind models.ItemKind, itemID string) ([]models.Image, error) {
	if !kind.IsValid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "item_type must be 'lost' or 'found'")
	}
	if _, err := s.items.Get(ctx, kind, itemID); err != nil {
		return nil, err
	}

	images, err := s.repo.ListForItem(ctx, kind, itemID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list images")
	}
	return images, nil
}
