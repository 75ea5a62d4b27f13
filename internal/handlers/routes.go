package handlers

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vidtube/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers. Media,
// Prober, Janitor, Cache and Limiter are optional.
type Dependencies struct {
	Users         UserStore
	Sessions      SessionManager
	Tokens        middleware.TokenAuthenticator
	Videos        VideoStore
	Comments      CommentStore
	Tweets        TweetStore
	Likes         LikeStore
	Subscriptions SubscriptionStore
	Playlists     PlaylistStore
	Media         MediaStorage
	Prober        DurationProber
	Janitor       AssetDiscarder
	Cache         ChannelCache
	Limiter       middleware.RateLimiter
	DB            Pinger
	Uploads       Uploads
	ChannelTTL    time.Duration
	SecureCookies bool
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{DB: deps.DB}
	users := UserHandler{
		Users:         deps.Users,
		Sessions:      deps.Sessions,
		Media:         deps.Media,
		Janitor:       deps.Janitor,
		Uploads:       deps.Uploads,
		Cache:         deps.Cache,
		ChannelTTL:    deps.ChannelTTL,
		SecureCookies: deps.SecureCookies,
	}
	videos := VideoHandler{
		Videos:  deps.Videos,
		Media:   deps.Media,
		Prober:  deps.Prober,
		Janitor: deps.Janitor,
		Uploads: deps.Uploads,
	}
	comments := CommentHandler{Comments: deps.Comments, Videos: deps.Videos}
	likes := LikeHandler{Likes: deps.Likes, Videos: deps.Videos}
	tweets := TweetHandler{Tweets: deps.Tweets, Users: deps.Users}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions, Users: deps.Users}
	playlists := PlaylistHandler{Playlists: deps.Playlists, Users: deps.Users, Videos: deps.Videos}

	authn := middleware.Authenticator{Tokens: deps.Tokens}
	public := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authn.Optional(h))
	}
	private := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authn.Required(h))
	}
	limited := func(pattern, scope string, h http.HandlerFunc) {
		mux.Handle(pattern, middleware.Limit(deps.Limiter, scope)(h))
	}

	mux.HandleFunc("GET /healthz", health.Handle)
	mux.Handle("GET /metrics", promhttp.Handler())

	limited("POST /api/v1/users/register", "register", users.Register)
	limited("POST /api/v1/users/login", "login", users.Login)
	limited("POST /api/v1/users/refresh-token", "refresh", users.RefreshToken)
	private("POST /api/v1/users/logout", users.Logout)
	private("POST /api/v1/users/change-password", users.ChangePassword)
	private("GET /api/v1/users/current-user", users.CurrentUser)
	private("PATCH /api/v1/users/update-account", users.UpdateAccount)
	private("PATCH /api/v1/users/avatar", users.UpdateAvatar)
	private("PATCH /api/v1/users/cover-image", users.UpdateCoverImage)
	public("GET /api/v1/users/c/{username}", users.ChannelProfile)
	private("GET /api/v1/users/history", users.WatchHistory)
	private("DELETE /api/v1/users/me", users.DeleteAccount)

	public("GET /api/v1/videos", videos.List)
	private("POST /api/v1/videos", videos.Publish)
	public("GET /api/v1/videos/{videoId}", videos.Get)
	private("PATCH /api/v1/videos/{videoId}", videos.Update)
	private("DELETE /api/v1/videos/{videoId}", videos.Delete)
	private("PATCH /api/v1/videos/toggle/publish/{videoId}", videos.TogglePublish)

	public("GET /api/v1/comments/{videoId}", comments.List)
	private("POST /api/v1/comments/{videoId}", comments.Add)
	private("PATCH /api/v1/comments/c/{commentId}", comments.Update)
	private("DELETE /api/v1/comments/c/{commentId}", comments.Delete)

	private("POST /api/v1/likes/toggle/v/{videoId}", likes.ToggleVideo)
	private("POST /api/v1/likes/toggle/c/{commentId}", likes.ToggleComment)
	private("POST /api/v1/likes/toggle/t/{tweetId}", likes.ToggleTweet)
	private("GET /api/v1/likes/videos", likes.LikedVideos)

	private("POST /api/v1/tweets", tweets.Create)
	public("GET /api/v1/tweets/user/{userId}", tweets.ListForUser)
	private("PATCH /api/v1/tweets/{tweetId}", tweets.Update)
	private("DELETE /api/v1/tweets/{tweetId}", tweets.Delete)

	private("POST /api/v1/subscriptions/c/{channelId}", subscriptions.Toggle)
	public("GET /api/v1/subscriptions/c/{channelId}", subscriptions.Subscribers)
	public("GET /api/v1/subscriptions/u/{subscriberId}", subscriptions.SubscribedChannels)

	private("POST /api/v1/playlists", playlists.Create)
	public("GET /api/v1/playlists/{playlistId}", playlists.Get)
	public("GET /api/v1/playlists/user/{userId}", playlists.ListForUser)
	private("PATCH /api/v1/playlists/{playlistId}", playlists.Update)
	private("DELETE /api/v1/playlists/{playlistId}", playlists.Delete)
	private("PATCH /api/v1/playlists/add/{videoId}/{playlistId}", playlists.AddVideo)
	private("PATCH /api/v1/playlists/remove/{videoId}/{playlistId}", playlists.RemoveVideo)
}
