package handlers

import (
	"context"
	"time"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pagination"
	"github.com/vidtube/backend/internal/repositories"
)

// UserFinder resolves user ids.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	UserFinder
	Create(ctx context.Context, user models.User) error
	FindByLogin(ctx context.Context, identifier string) (models.User, error)
	UpdateAccount(ctx context.Context, id, fullName, email string, at time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error
	ReplaceAvatar(ctx context.Context, id string, asset models.MediaAsset) (models.MediaAsset, error)
	ReplaceCoverImage(ctx context.Context, id string, asset models.MediaAsset) (models.MediaAsset, error)
	Channel(ctx context.Context, username string) (models.Channel, error)
	ChannelStats(ctx context.Context, channelID, viewer string) (models.ChannelStats, error)
	WatchHistory(ctx context.Context, userID string, params pagination.Params) (pagination.Page[models.VideoView], error)
	Delete(ctx context.Context, id string) ([]models.MediaAsset, error)
}

// SessionManager issues, refreshes and revokes authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, userID string) error
}

// VideoStore captures persistence for videos.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	List(ctx context.Context, filter repositories.VideoListFilter, opts repositories.ListOptions) (pagination.Page[models.VideoView], error)
	Detail(ctx context.Context, id, viewer string) (models.VideoView, error)
	RecordView(ctx context.Context, id, viewer string) error
	Update(ctx context.Context, video models.Video) error
	TogglePublished(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) ([]models.MediaAsset, error)
	LikedBy(ctx context.Context, actor string, params pagination.Params) (pagination.Page[models.VideoView], error)
}

// CommentStore captures persistence for comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	Update(ctx context.Context, comment models.Comment) error
	Delete(ctx context.Context, id string) error
	ListForVideo(ctx context.Context, videoID, viewer string, opts repositories.ListOptions) (pagination.Page[models.CommentView], error)
}

// TweetStore captures persistence for tweets.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	Update(ctx context.Context, tweet models.Tweet) error
	Delete(ctx context.Context, id string) error
	ListForUser(ctx context.Context, ownerID, viewer string, opts repositories.ListOptions) (pagination.Page[models.TweetView], error)
}

// LikeStore toggles likes.
type LikeStore interface {
	Toggle(ctx context.Context, target models.LikeTarget, actor string) (bool, error)
}

// SubscriptionStore toggles and lists subscriptions.
type SubscriptionStore interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
	Subscribers(ctx context.Context, channelID string, params pagination.Params) (pagination.Page[models.Subscriber], error)
	SubscribedChannels(ctx context.Context, subscriberID string, params pagination.Params) (pagination.Page[models.SubscribedChannel], error)
}

// PlaylistStore captures persistence for playlists.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	Update(ctx context.Context, playlist models.Playlist) error
	Delete(ctx context.Context, id string) error
	ListForUser(ctx context.Context, ownerID, viewer string, opts repositories.ListOptions) (pagination.Page[models.PlaylistView], error)
	Detail(ctx context.Context, id, viewer string) (models.PlaylistView, error)
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
}

// MediaStorage uploads staged files to the media host.
type MediaStorage interface {
	Upload(ctx context.Context, localPath string) (models.MediaAsset, error)
}

// AssetDiscarder removes media assets that are no longer referenced.
type AssetDiscarder interface {
	Discard(ctx context.Context, assets ...models.MediaAsset)
}

// DurationProber measures the playback length of a staged video.
type DurationProber interface {
	DurationOrZero(ctx context.Context, path string) float64
}

// ChannelCache fronts the stored fields of channel profiles.
type ChannelCache interface {
	Aside(ctx context.Context, space, key string, dest any, ttl time.Duration, fetch func() error) error
	Invalidate(ctx context.Context, keys ...string) error
}
