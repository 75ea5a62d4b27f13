package models

import "time"

// MediaAsset references a binary asset stored on the media host.
type MediaAsset struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// User represents an account within the vidtube platform. The password hash
// and refresh credential never leave the process.
type User struct {
	ID         string     `json:"_id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	FullName   string     `json:"fullName"`
	Avatar     MediaAsset `json:"avatar"`
	CoverImage MediaAsset `json:"coverImage"`
	Password   string     `json:"-"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Video is a single uploaded video record.
type Video struct {
	ID          string     `json:"_id"`
	OwnerID     string     `json:"owner"`
	VideoFile   MediaAsset `json:"videoFile"`
	Thumbnail   MediaAsset `json:"thumbnail"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Duration    float64    `json:"duration"`
	Views       int64      `json:"views"`
	IsPublished bool       `json:"isPublished"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Comment is a text comment attached to a video.
type Comment struct {
	ID        string    `json:"_id"`
	OwnerID   string    `json:"owner"`
	VideoID   string    `json:"video"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Tweet is a short text post on a user's channel.
type Tweet struct {
	ID        string    `json:"_id"`
	OwnerID   string    `json:"owner"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Playlist is a named, ordered collection of videos.
type Playlist struct {
	ID          string    `json:"_id"`
	OwnerID     string    `json:"owner"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// LikeTarget identifies the single entity a like points at.
type LikeTarget struct {
	Kind string
	ID   string
}

const (
	LikeTargetVideo   = "video"
	LikeTargetComment = "comment"
	LikeTargetTweet   = "tweet"
)

// Owner is the projected public profile embedded into enriched views.
type Owner struct {
	ID               string `json:"_id"`
	Username         string `json:"username"`
	FullName         string `json:"fullName"`
	Avatar           string `json:"avatar"`
	SubscribersCount *int64 `json:"subscribersCount,omitempty"`
	IsSubscribed     *bool  `json:"isSubscribed,omitempty"`
}

// VideoView is a video enriched with its owner and derived counts.
type VideoView struct {
	ID          string    `json:"_id" db:"id"`
	VideoFile   string    `json:"videoFile" db:"video_url"`
	Thumbnail   string    `json:"thumbnail" db:"thumbnail_url"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Duration    float64   `json:"duration" db:"duration"`
	Views       int64     `json:"views" db:"views"`
	IsPublished bool      `json:"isPublished" db:"is_published"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
	LikesCount  int64     `json:"likesCount" db:"likes_count"`
	IsLiked     bool      `json:"isLiked" db:"is_liked"`
	Owner       *Owner    `json:"owner,omitempty" db:"-"`
}

// CommentView is a comment enriched with its owner, like count and viewer flag.
type CommentView struct {
	ID         string    `json:"_id" db:"id"`
	Content    string    `json:"content" db:"content"`
	VideoID    string    `json:"video" db:"video_id"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
	LikesCount int64     `json:"likesCount" db:"likes_count"`
	IsLiked    bool      `json:"isLiked" db:"is_liked"`
	Owner      *Owner    `json:"owner,omitempty" db:"-"`
}

// TweetView is a tweet enriched with its owner, like count and viewer flag.
type TweetView struct {
	ID         string    `json:"_id" db:"id"`
	Content    string    `json:"content" db:"content"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
	LikesCount int64     `json:"likesCount" db:"likes_count"`
	IsLiked    bool      `json:"isLiked" db:"is_liked"`
	Owner      *Owner    `json:"owner,omitempty" db:"-"`
}

// Channel holds the stored fields of a user's public channel.
type Channel struct {
	ID         string    `json:"_id" db:"id"`
	Username   string    `json:"username" db:"username"`
	FullName   string    `json:"fullName" db:"full_name"`
	Email      string    `json:"email" db:"email"`
	Avatar     string    `json:"avatar" db:"avatar_url"`
	CoverImage string    `json:"coverImage" db:"cover_image_url"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// ChannelStats are the subscription counts of a channel and whether the
// viewer subscribes to it.
type ChannelStats struct {
	SubscribersCount          int64 `json:"subscribersCount" db:"subscribers_count"`
	ChannelsSubscribedToCount int64 `json:"channelsSubscribedToCount" db:"channels_subscribed_to_count"`
	IsSubscribed              bool  `json:"isSubscribed" db:"is_subscribed"`
}

// ChannelProfile is the public view of a user's channel.
type ChannelProfile struct {
	Channel
	ChannelStats
}

// Subscriber is an entry of a channel's subscriber list.
type Subscriber struct {
	ID                     string    `json:"_id" db:"id"`
	SubscribedAt           time.Time `json:"subscribedAt" db:"created_at"`
	Subscriber             *Owner    `json:"subscriber,omitempty" db:"-"`
	SubscribedToSubscriber bool      `json:"subscribedToSubscriber" db:"subscribed_to_subscriber"`
	SubscribersCount       int64     `json:"subscribersCount" db:"subscribers_count"`
}

// SubscribedChannel is an entry of a user's subscription list.
type SubscribedChannel struct {
	ID           string    `json:"_id" db:"id"`
	SubscribedAt time.Time `json:"subscribedAt" db:"created_at"`
	Channel      *Owner    `json:"subscribedChannel,omitempty" db:"-"`
	LatestVideo  *string   `json:"latestVideoId,omitempty" db:"latest_video_id"`
}

// PlaylistView is a playlist enriched with owner and aggregate video data.
type PlaylistView struct {
	ID          string      `json:"_id" db:"id"`
	Name        string      `json:"name" db:"name"`
	Description string      `json:"description" db:"description"`
	CreatedAt   time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time   `json:"updatedAt" db:"updated_at"`
	TotalVideos int64       `json:"totalVideos" db:"total_videos"`
	TotalViews  int64       `json:"totalViews" db:"total_views"`
	Owner       *Owner      `json:"owner,omitempty" db:"-"`
	Videos      []VideoView `json:"videos,omitempty" db:"-"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
