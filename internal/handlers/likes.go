package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/response"
)

// LikeHandler toggles likes and lists liked videos.
type LikeHandler struct {
	Likes  LikeStore
	Videos VideoStore
}

// ToggleVideo handles POST /api/v1/likes/toggle/v/{videoId}.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTargetVideo, "videoId", videoNotFound)
}

// ToggleComment handles POST /api/v1/likes/toggle/c/{commentId}.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTargetComment, "commentId", commentNotFound)
}

// ToggleTweet handles POST /api/v1/likes/toggle/t/{tweetId}.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTargetTweet, "tweetId", tweetNotFound)
}

func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, kind, param, notFound string) {
	ctx := r.Context()

	id, err := pathID(r, param)
	if err != nil {
		fail(w, r, err, "")
		return
	}

	liked, err := h.Likes.Toggle(ctx, models.LikeTarget{Kind: kind, ID: id}, auth.ActorFromContext(ctx))
	if err != nil {
		fail(w, r, err, notFound)
		return
	}

	message := "Like removed"
	if liked {
		message = "Like added"
	}
	response.JSON(ctx, w, http.StatusOK, map[string]any{param: id, "isLiked": liked}, message)
}

// LikedVideos handles GET /api/v1/likes/videos.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := h.Videos.LikedBy(ctx, auth.ActorFromContext(ctx), pageParams(r))
	if err != nil {
		fail(w, r, err, "")
		return
	}
	response.JSON(ctx, w, http.StatusOK, page, "Liked videos fetched successfully")
}
