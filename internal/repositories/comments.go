package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pagination"
)

// PostgresCommentRepository persists comments on videos.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

// Create stores a comment. A video id that does not resolve yields ErrNotFound.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	_, err := exec(ctx, r.pool, "comments.create", `
        INSERT INTO comments (id, owner_id, video_id, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, comment.ID, nullableID(comment.OwnerID), comment.VideoID, comment.Content, comment.CreatedAt, comment.UpdatedAt)
	return err
}

// FindByID loads the raw comment record.
func (r *PostgresCommentRepository) FindByID(ctx context.Context, id string) (models.Comment, error) {
	var (
		comment models.Comment
		ownerID *string
	)
	err := queryRow(ctx, r.pool, "comments.find_by_id", `
        SELECT id, owner_id, video_id, content, created_at, updated_at FROM comments WHERE id = $1
    `, []any{id}, &comment.ID, &ownerID, &comment.VideoID, &comment.Content, &comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		return models.Comment{}, err
	}
	if ownerID != nil {
		comment.OwnerID = *ownerID
	}
	return comment, nil
}

// Update replaces the comment's content.
func (r *PostgresCommentRepository) Update(ctx context.Context, comment models.Comment) error {
	return execOne(ctx, r.pool, "comments.update", `
        UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1
    `, comment.ID, comment.Content, comment.UpdatedAt)
}

// Delete removes the comment together with its likes.
func (r *PostgresCommentRepository) Delete(ctx context.Context, id string) error {
	_, err := deleteCascade(ctx, r.pool, entityComment, id)
	return err
}

// ListForVideo returns a page of the video's comments as seen by viewer.
func (r *PostgresCommentRepository) ListForVideo(ctx context.Context, videoID, viewer string, opts ListOptions) (pagination.Page[models.CommentView], error) {
	q, err := commentsSpec(videoID, viewer).Sorted(opts.SortBy, opts.SortType)
	if err != nil {
		return pagination.Page[models.CommentView]{}, err
	}
	return listView(ctx, r.pool, "comments.list_for_video", q, opts.Page, commentRow.view)
}
