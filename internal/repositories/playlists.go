package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pagination"
	"github.com/vidtube/backend/internal/views"
)

// PostgresPlaylistRepository persists playlists and their ordered videos.
type PostgresPlaylistRepository struct {
	pool db.Pool
}

// NewPostgresPlaylistRepository constructs a playlist repository backed by PostgreSQL.
func NewPostgresPlaylistRepository(pool db.Pool) *PostgresPlaylistRepository {
	return &PostgresPlaylistRepository{pool: pool}
}

// Create stores an empty playlist.
func (r *PostgresPlaylistRepository) Create(ctx context.Context, playlist models.Playlist) error {
	_, err := exec(ctx, r.pool, "playlists.create", `
        INSERT INTO playlists (id, owner_id, name, description, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)
    `, playlist.ID, nullableID(playlist.OwnerID), playlist.Name, playlist.Description, playlist.CreatedAt, playlist.UpdatedAt)
	return err
}

// FindByID loads the raw playlist record.
func (r *PostgresPlaylistRepository) FindByID(ctx context.Context, id string) (models.Playlist, error) {
	var (
		playlist models.Playlist
		ownerID  *string
	)
	err := queryRow(ctx, r.pool, "playlists.find_by_id", `
        SELECT id, owner_id, name, description, created_at, updated_at FROM playlists WHERE id = $1
    `, []any{id}, &playlist.ID, &ownerID, &playlist.Name, &playlist.Description, &playlist.CreatedAt, &playlist.UpdatedAt)
	if err != nil {
		return models.Playlist{}, err
	}
	if ownerID != nil {
		playlist.OwnerID = *ownerID
	}
	return playlist, nil
}

// Update writes the playlist's name and description.
func (r *PostgresPlaylistRepository) Update(ctx context.Context, playlist models.Playlist) error {
	return execOne(ctx, r.pool, "playlists.update", `
        UPDATE playlists SET name = $2, description = $3, updated_at = $4 WHERE id = $1
    `, playlist.ID, playlist.Name, playlist.Description, playlist.UpdatedAt)
}

// Delete removes the playlist and its entries. The videos themselves stay.
func (r *PostgresPlaylistRepository) Delete(ctx context.Context, id string) error {
	_, err := deleteCascade(ctx, r.pool, entityPlaylist, id)
	return err
}

// ListForUser returns a page of ownerID's playlists. Totals cover only the
// videos viewer may see.
func (r *PostgresPlaylistRepository) ListForUser(ctx context.Context, ownerID, viewer string, opts ListOptions) (pagination.Page[models.PlaylistView], error) {
	q, err := userPlaylistsSpec(ownerID, viewer).Sorted(opts.SortBy, opts.SortType)
	if err != nil {
		return pagination.Page[models.PlaylistView]{}, err
	}
	return listView(ctx, r.pool, "playlists.list_for_user", q, opts.Page, playlistRow.view)
}

// Detail loads the playlist with its videos in playlist order. Videos the
// viewer may not see are left out of the list and the totals.
func (r *PostgresPlaylistRepository) Detail(ctx context.Context, id, viewer string) (models.PlaylistView, error) {
	playlist, err := oneView(ctx, r.pool, "playlists.detail", views.Query{Spec: playlistDetailSpec(id, viewer)}, playlistRow.view)
	if err != nil {
		return models.PlaylistView{}, err
	}

	videos, err := allView(ctx, r.pool, "playlists.videos", views.Query{Spec: playlistVideosSpec(id, viewer)}, videoRow.view)
	if err != nil {
		return models.PlaylistView{}, err
	}
	playlist.Videos = videos
	return playlist, nil
}

// AddVideo appends videoID to the end of the playlist. Adding a video twice
// yields ErrConflict.
func (r *PostgresPlaylistRepository) AddVideo(ctx context.Context, playlistID, videoID string) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var next int64
		if err := tx.QueryRow(ctx, `
            SELECT COALESCE(MAX(position), 0) + 1 FROM playlist_videos WHERE playlist_id = $1
        `, playlistID).Scan(&next); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
            INSERT INTO playlist_videos (playlist_id, video_id, position, added_at) VALUES ($1, $2, $3, $4)
        `, playlistID, videoID, next, time.Now().UTC())
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE playlists SET updated_at = $2 WHERE id = $1`, playlistID, time.Now().UTC())
		return err
	})
	return mapError("playlists.add_video", err)
}

// RemoveVideo takes videoID out of the playlist. ErrNotFound when it was not in it.
func (r *PostgresPlaylistRepository) RemoveVideo(ctx context.Context, playlistID, videoID string) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM playlist_videos WHERE playlist_id = $1 AND video_id = $2`, playlistID, videoID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		_, err = tx.Exec(ctx, `UPDATE playlists SET updated_at = $2 WHERE id = $1`, playlistID, time.Now().UTC())
		return err
	})
	return mapError("playlists.remove_video", err)
}
