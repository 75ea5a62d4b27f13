package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pagination"
	"github.com/vidtube/backend/internal/views"
)

// PostgresSubscriptionRepository stores subscriber to channel relations.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Toggle subscribes subscriberID to channelID, or unsubscribes if already
// subscribed. It reports whether the subscription exists afterwards.
func (r *PostgresSubscriptionRepository) Toggle(ctx context.Context, subscriberID, channelID string) (bool, error) {
	return toggle(ctx, r.pool, toggleOp{
		relation:   "subscriptions",
		exists:     `SELECT 1 FROM users WHERE id = $1`,
		existsArgs: []any{channelID},
		remove:     `DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2`,
		args:       []any{subscriberID, channelID},
		insert: `INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at) VALUES ($1, $2, $3, $4)
            ON CONFLICT (subscriber_id, channel_id) DO NOTHING`,
		insertArgs: []any{uuid.NewString(), subscriberID, channelID, time.Now().UTC()},
	})
}

// Subscribers lists the users subscribed to channelID.
func (r *PostgresSubscriptionRepository) Subscribers(ctx context.Context, channelID string, params pagination.Params) (pagination.Page[models.Subscriber], error) {
	q := views.Query{Spec: subscribersSpec(channelID)}
	return listView(ctx, r.pool, "subscriptions.subscribers", q, params, subscriberRow.view)
}

// SubscribedChannels lists the channels subscriberID follows, with each
// channel's latest published video.
func (r *PostgresSubscriptionRepository) SubscribedChannels(ctx context.Context, subscriberID string, params pagination.Params) (pagination.Page[models.SubscribedChannel], error) {
	q := views.Query{Spec: subscribedChannelsSpec(subscriberID)}
	return listView(ctx, r.pool, "subscriptions.channels", q, params, subscribedChannelRow.view)
}
