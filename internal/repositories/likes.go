package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// likeTargets holds the existence check of each like target. Checks that
// take the actor ($2) hide unpublished videos, and the comments on them, from
// everyone but their owner.
var likeTargets = map[string]struct {
	exists  string
	byActor bool
}{
	models.LikeTargetVideo: {
		exists:  `SELECT 1 FROM videos WHERE id = $1 AND (is_published OR owner_id = $2)`,
		byActor: true,
	},
	models.LikeTargetComment: {
		exists: `SELECT 1 FROM comments c JOIN videos v ON v.id = c.video_id
            WHERE c.id = $1 AND (v.is_published OR v.owner_id = $2)`,
		byActor: true,
	},
	models.LikeTargetTweet: {exists: `SELECT 1 FROM tweets WHERE id = $1`},
}

// PostgresLikeRepository stores likes on videos, comments and tweets.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// Toggle likes target on behalf of actor, or removes the like if one exists.
// It reports whether the target is liked afterwards.
func (r *PostgresLikeRepository) Toggle(ctx context.Context, target models.LikeTarget, actor string) (bool, error) {
	kind, ok := likeTargets[target.Kind]
	if !ok {
		return false, fmt.Errorf("unknown like target %q", target.Kind)
	}
	existsArgs := []any{target.ID}
	if kind.byActor {
		existsArgs = append(existsArgs, actor)
	}

	return toggle(ctx, r.pool, toggleOp{
		relation:   "likes",
		exists:     kind.exists,
		existsArgs: existsArgs,
		remove:     `DELETE FROM likes WHERE target_kind = $1 AND target_id = $2 AND liked_by = $3`,
		args:       []any{target.Kind, target.ID, actor},
		insert: `INSERT INTO likes (id, target_kind, target_id, liked_by, created_at) VALUES ($1, $2, $3, $4, $5)
            ON CONFLICT (target_kind, target_id, liked_by) DO NOTHING`,
		insertArgs: []any{uuid.NewString(), target.Kind, target.ID, actor, time.Now().UTC()},
	})
}
