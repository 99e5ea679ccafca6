package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trackmate-dev/trackmate-api/internal/models"
)

// ImageRepository manages image attachment metadata.
type ImageRepository struct {
	db *sqlx.DB
}

// NewImageRepository constructs an ImageRepository.
func NewImageRepository(db *sqlx.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// Create records an uploaded image reference.
func (r *ImageRepository) Create(ctx context.Context, image *models.Image) error {
	if image.ID == "" {
		image.ID = uuid.NewString()
	}
	if image.CreatedAt.IsZero() {
		image.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO images (id, item_id, item_kind, file_name, original_name, file_size, mime_type, uploaded_by, created_at)
        VALUES (:id, :item_id, :item_kind, :file_name, :original_name, :file_size, :mime_type, :uploaded_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, image); err != nil {
		return fmt.Errorf("create image: %w", err)
	}
	return nil
}

// FindByFileName returns the image record stored under the given file name.
func (r *ImageRepository) FindByFileName(ctx context.Context, fileName string) (*models.Image, error) {
	const query = `SELECT id, item_id, item_kind, file_name, original_name, file_size, mime_type, uploaded_by, created_at
        FROM images WHERE file_name = $1 LIMIT 1`
	var image models.Image
	if err := r.db.GetContext(ctx, &image, query, fileName); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find image by file name: %w", err)
	}
	return &image, nil
}

// ListForItem returns image records for an item in insertion order.
func (r *ImageRepository) ListForItem(ctx context.Context, kind models.ItemKind, itemID string) ([]models.Image, error) {
	const query = `SELECT id, item_id, item_kind, file_name, original_name, file_size, mime_type, uploaded_by, created_at
        FROM images WHERE item_id = $1 AND item_kind = $2 ORDER BY created_at ASC`
	var images []models.Image
	if err := r.db.SelectContext(ctx, &images, query, itemID, kind); err != nil {
		return nil, fmt.Errorf("list images for item: %w", err)
	}
	return images, nil
}
