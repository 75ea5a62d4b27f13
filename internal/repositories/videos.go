package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/metrics"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pagination"
	"github.com/vidtube/backend/internal/views"
)

// PostgresVideoRepository persists uploaded videos and answers the video views.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	_, err := exec(ctx, r.pool, "videos.create", `
        INSERT INTO videos (id, owner_id, video_url, video_public_id, thumbnail_url, thumbnail_public_id,
            title, description, duration, views, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `, video.ID, nullableID(video.OwnerID), video.VideoFile.URL, video.VideoFile.PublicID, video.Thumbnail.URL,
		video.Thumbnail.PublicID, video.Title, video.Description, video.Duration, video.Views,
		video.IsPublished, video.CreatedAt, video.UpdatedAt)
	return err
}

// FindByID loads the raw video record, regardless of visibility.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	var (
		video   models.Video
		ownerID *string
	)
	err := queryRow(ctx, r.pool, "videos.find_by_id", `
        SELECT id, owner_id, video_url, video_public_id, thumbnail_url, thumbnail_public_id,
            title, description, duration, views, is_published, created_at, updated_at
        FROM videos WHERE id = $1
    `, []any{id},
		&video.ID, &ownerID, &video.VideoFile.URL, &video.VideoFile.PublicID, &video.Thumbnail.URL,
		&video.Thumbnail.PublicID, &video.Title, &video.Description, &video.Duration, &video.Views,
		&video.IsPublished, &video.CreatedAt, &video.UpdatedAt)
	if err != nil {
		return models.Video{}, err
	}
	if ownerID != nil {
		video.OwnerID = *ownerID
	}
	return video, nil
}

// List returns a page of videos matching filter.
func (r *PostgresVideoRepository) List(ctx context.Context, filter VideoListFilter, opts ListOptions) (pagination.Page[models.VideoView], error) {
	q, err := videoListSpec(filter).Sorted(opts.SortBy, opts.SortType)
	if err != nil {
		return pagination.Page[models.VideoView]{}, err
	}
	return listView(ctx, r.pool, "videos.list", q, opts.Page, videoRow.view)
}

// Detail loads one video as seen by viewer. Unpublished videos resolve only
// for their owner.
func (r *PostgresVideoRepository) Detail(ctx context.Context, id, viewer string) (models.VideoView, error) {
	q := views.Query{Spec: videoDetailSpec(id, viewer)}
	return oneView(ctx, r.pool, "videos.detail", q, videoRow.view)
}

// RecordView counts one view of the video and, for a signed-in viewer, moves
// it to the front of their watch history. Both happen or neither does.
func (r *PostgresVideoRepository) RecordView(ctx context.Context, id, viewer string) error {
	defer metrics.TrackQuery("videos.record_view")()

	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var (
			sql  = `UPDATE videos SET views = views + 1 WHERE id = $1 AND is_published`
			args = []any{id}
		)
		if viewer != "" {
			sql = `UPDATE videos SET views = views + 1 WHERE id = $1 AND (is_published OR owner_id = $2)`
			args = append(args, viewer)
		}
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if viewer == "" {
			return nil
		}

		_, err = tx.Exec(ctx, `
            INSERT INTO watch_history (user_id, video_id, watched_at) VALUES ($1, $2, $3)
            ON CONFLICT (user_id, video_id) DO UPDATE SET watched_at = excluded.watched_at
        `, viewer, id, time.Now().UTC())
		return err
	})
	return mapError("videos.record_view", err)
}

// Update writes the mutable fields of video.
func (r *PostgresVideoRepository) Update(ctx context.Context, video models.Video) error {
	return execOne(ctx, r.pool, "videos.update", `
        UPDATE videos SET title = $2, description = $3, thumbnail_url = $4, thumbnail_public_id = $5, updated_at = $6
        WHERE id = $1
    `, video.ID, video.Title, video.Description, video.Thumbnail.URL, video.Thumbnail.PublicID, video.UpdatedAt)
}

// TogglePublished flips the publish status and returns the new value.
func (r *PostgresVideoRepository) TogglePublished(ctx context.Context, id string) (bool, error) {
	var published bool
	err := queryRow(ctx, r.pool, "videos.toggle_published", `
        UPDATE videos SET is_published = NOT is_published, updated_at = $2 WHERE id = $1 RETURNING is_published
    `, []any{id, time.Now().UTC()}, &published)
	return published, err
}

// Delete removes the video with its comments, likes, playlist entries and
// watch history, returning the media assets left unreferenced.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) ([]models.MediaAsset, error) {
	return deleteCascade(ctx, r.pool, entityVideo, id)
}

// LikedBy lists the visible videos actor liked, most recently liked first.
func (r *PostgresVideoRepository) LikedBy(ctx context.Context, actor string, params pagination.Params) (pagination.Page[models.VideoView], error) {
	q := views.Query{Spec: likedVideosSpec(actor)}
	return listView(ctx, r.pool, "videos.liked_by", q, params, videoRow.view)
}
