package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pagination"
)

// PostgresTweetRepository persists channel tweets.
type PostgresTweetRepository struct {
	pool db.Pool
}

// NewPostgresTweetRepository constructs a tweet repository backed by PostgreSQL.
func NewPostgresTweetRepository(pool db.Pool) *PostgresTweetRepository {
	return &PostgresTweetRepository{pool: pool}
}

// Create stores a tweet.
func (r *PostgresTweetRepository) Create(ctx context.Context, tweet models.Tweet) error {
	_, err := exec(ctx, r.pool, "tweets.create", `
        INSERT INTO tweets (id, owner_id, content, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)
    `, tweet.ID, nullableID(tweet.OwnerID), tweet.Content, tweet.CreatedAt, tweet.UpdatedAt)
	return err
}

// FindByID loads the raw tweet record.
func (r *PostgresTweetRepository) FindByID(ctx context.Context, id string) (models.Tweet, error) {
	var (
		tweet   models.Tweet
		ownerID *string
	)
	err := queryRow(ctx, r.pool, "tweets.find_by_id", `
        SELECT id, owner_id, content, created_at, updated_at FROM tweets WHERE id = $1
    `, []any{id}, &tweet.ID, &ownerID, &tweet.Content, &tweet.CreatedAt, &tweet.UpdatedAt)
	if err != nil {
		return models.Tweet{}, err
	}
	if ownerID != nil {
		tweet.OwnerID = *ownerID
	}
	return tweet, nil
}

// Update replaces the tweet's content.
func (r *PostgresTweetRepository) Update(ctx context.Context, tweet models.Tweet) error {
	return execOne(ctx, r.pool, "tweets.update", `
        UPDATE tweets SET content = $2, updated_at = $3 WHERE id = $1
    `, tweet.ID, tweet.Content, tweet.UpdatedAt)
}

// Delete removes the tweet together with its likes.
func (r *PostgresTweetRepository) Delete(ctx context.Context, id string) error {
	_, err := deleteCascade(ctx, r.pool, entityTweet, id)
	return err
}

// ListForUser returns a page of ownerID's tweets as seen by viewer.
func (r *PostgresTweetRepository) ListForUser(ctx context.Context, ownerID, viewer string, opts ListOptions) (pagination.Page[models.TweetView], error) {
	q, err := tweetsSpec(ownerID, viewer).Sorted(opts.SortBy, opts.SortType)
	if err != nil {
		return pagination.Page[models.TweetView]{}, err
	}
	return listView(ctx, r.pool, "tweets.list_for_user", q, opts.Page, tweetRow.view)
}
