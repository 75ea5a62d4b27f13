package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/metrics"
	"github.com/vidtube/backend/internal/models"
)

type entity string

const (
	entityUser     entity = "user"
	entityVideo    entity = "video"
	entityComment  entity = "comment"
	entityTweet    entity = "tweet"
	entityPlaylist entity = "playlist"
)

// cascade describes how deleting one entity cleans up its dependents. Every
// statement takes the root id as $1; the final statement deletes the root
// itself and must affect a row.
type cascade struct {
	// assets selects (url, public_id) pairs orphaned by the deletion.
	assets string
	steps  []string
}

const (
	ownVideos    = `SELECT id FROM videos WHERE owner_id = $1`
	ownComments  = `SELECT id FROM comments WHERE owner_id = $1 OR video_id IN (` + ownVideos + `)`
	ownTweets    = `SELECT id FROM tweets WHERE owner_id = $1`
	ownPlaylists = `SELECT id FROM playlists WHERE owner_id = $1`
)

var cascadePolicy = map[entity]cascade{
	entityComment: {
		steps: []string{
			`DELETE FROM likes WHERE target_kind = 'comment' AND target_id = $1`,
			`DELETE FROM comments WHERE id = $1`,
		},
	},
	entityTweet: {
		steps: []string{
			`DELETE FROM likes WHERE target_kind = 'tweet' AND target_id = $1`,
			`DELETE FROM tweets WHERE id = $1`,
		},
	},
	entityPlaylist: {
		steps: []string{
			`DELETE FROM playlist_videos WHERE playlist_id = $1`,
			`DELETE FROM playlists WHERE id = $1`,
		},
	},
	entityVideo: {
		assets: `SELECT video_url, video_public_id FROM videos WHERE id = $1
            UNION ALL SELECT thumbnail_url, thumbnail_public_id FROM videos WHERE id = $1`,
		steps: []string{
			`DELETE FROM likes WHERE target_kind = 'comment' AND target_id IN (SELECT id FROM comments WHERE video_id = $1)`,
			`DELETE FROM likes WHERE target_kind = 'video' AND target_id = $1`,
			`DELETE FROM comments WHERE video_id = $1`,
			`DELETE FROM playlist_videos WHERE video_id = $1`,
			`DELETE FROM watch_history WHERE video_id = $1`,
			`DELETE FROM videos WHERE id = $1`,
		},
	},
	entityUser: {
		assets: `SELECT avatar_url, avatar_public_id FROM users WHERE id = $1
            UNION ALL SELECT cover_image_url, cover_image_public_id FROM users WHERE id = $1
            UNION ALL SELECT video_url, video_public_id FROM videos WHERE owner_id = $1
            UNION ALL SELECT thumbnail_url, thumbnail_public_id FROM videos WHERE owner_id = $1`,
		steps: []string{
			`DELETE FROM likes WHERE liked_by = $1`,
			`DELETE FROM likes WHERE target_kind = 'comment' AND target_id IN (` + ownComments + `)`,
			`DELETE FROM likes WHERE target_kind = 'video' AND target_id IN (` + ownVideos + `)`,
			`DELETE FROM likes WHERE target_kind = 'tweet' AND target_id IN (` + ownTweets + `)`,
			`DELETE FROM comments WHERE id IN (` + ownComments + `)`,
			`DELETE FROM tweets WHERE owner_id = $1`,
			`DELETE FROM playlist_videos WHERE video_id IN (` + ownVideos + `) OR playlist_id IN (` + ownPlaylists + `)`,
			`DELETE FROM playlists WHERE owner_id = $1`,
			`DELETE FROM subscriptions WHERE subscriber_id = $1 OR channel_id = $1`,
			`DELETE FROM watch_history WHERE user_id = $1 OR video_id IN (` + ownVideos + `)`,
			`DELETE FROM videos WHERE owner_id = $1`,
			`DELETE FROM users WHERE id = $1`,
		},
	},
}

// deleteCascade applies the policy for kind in one transaction and returns
// the media assets to discard once it has committed.
func deleteCascade(ctx context.Context, pool db.Pool, kind entity, id string) (assets []models.MediaAsset, err error) {
	policy, ok := cascadePolicy[kind]
	if !ok {
		return nil, fmt.Errorf("no cascade policy for %s", kind)
	}

	op := string(kind) + "s.delete"
	ctx, span := logging.StartSpan(ctx, op)
	defer func() { span.EndErr(err) }()
	defer metrics.TrackQuery(op)()

	err = db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		assets = nil
		if policy.assets != "" {
			collected, err := collectAssets(ctx, tx, policy.assets, id)
			if err != nil {
				return err
			}
			assets = collected
		}

		last := len(policy.steps) - 1
		for i, step := range policy.steps {
			tag, err := tx.Exec(ctx, step, id)
			if err != nil {
				return fmt.Errorf("cascade step %d: %w", i, err)
			}
			if i == last && tag.RowsAffected() == 0 {
				return ErrNotFound
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapError(op, err)
	}
	return assets, nil
}

func collectAssets(ctx context.Context, tx pgx.Tx, sql, id string) ([]models.MediaAsset, error) {
	rows, err := tx.Query(ctx, sql, id)
	if err != nil {
		return nil, fmt.Errorf("select orphaned assets: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.MediaAsset, error) {
		var a models.MediaAsset
		err := row.Scan(&a.URL, &a.PublicID)
		return a, err
	})
}
