package postgres

import (
	"context"
	"fmt"

	"github.com/crimpz/clic/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ImageRepo struct {
	pool *pgxpool.Pool
}

func NewImageRepo(pool *pgxpool.Pool) *ImageRepo {
	return &ImageRepo{pool: pool}
}

func scanImage(row pgx.CollectableRow) (domain.Image, error) {
	var img domain.Image
	err := row.Scan(&img.ID, &img.MessageID, &img.UserID, &img.Filename, &img.ContentType, &img.StoragePath, &img.UploadedAt)
	return img, err
}

func (r *ImageRepo) Create(ctx context.Context, img domain.Image) (*domain.Image, error) {
	rows, err := r.pool.Query(ctx, `
		INSERT INTO images (id, message_id, user_id, filename, content_type, storage_path, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, message_id, user_id, filename, content_type, storage_path, uploaded_at`,
		img.ID, img.MessageID, img.UserID, img.Filename, img.ContentType, img.StoragePath, img.UploadedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert image: %w", err)
	}

	created, err := pgx.CollectExactlyOneRow(rows, scanImage)
	if hasCode(err, pgForeignKeyViolation) {
		return nil, domain.NewNotFound("messages", img.MessageID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert image: %w", err)
	}
	return &created, nil
}
