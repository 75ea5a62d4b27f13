package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/response"
)

const tweetNotFound = "Tweet not found"

// TweetHandler manages channel tweets.
type TweetHandler struct {
	Tweets  TweetStore
	Users   UserFinder
	NowFunc func() time.Time
}

type tweetRequest struct {
	Content string `json:"content"`
}

// Create handles POST /api/v1/tweets.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req tweetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err, "")
		return
	}
	if err := required(&req.Content); err != nil {
		fail(w, r, err, "")
		return
	}

	now := h.now()
	tweet := models.Tweet{
		ID:        uuid.NewString(),
		OwnerID:   auth.ActorFromContext(ctx),
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Tweets.Create(ctx, tweet); err != nil {
		fail(w, r, err, "User not found")
		return
	}
	response.JSON(ctx, w, http.StatusCreated, tweet, "Tweet created successfully")
}

// ListForUser handles GET /api/v1/tweets/user/{userId}.
func (h TweetHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := pathID(r, "userId")
	if err != nil {
		fail(w, r, err, "")
		return
	}
	if _, err := h.Users.FindByID(ctx, userID); err != nil {
		fail(w, r, err, "User not found")
		return
	}

	page, err := h.Tweets.ListForUser(ctx, userID, auth.ActorFromContext(ctx), listOptions(r))
	if err != nil {
		fail(w, r, err, "")
		return
	}
	response.JSON(ctx, w, http.StatusOK, page, "Tweets fetched successfully")
}

// Update handles PATCH /api/v1/tweets/{tweetId}.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req tweetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err, "")
		return
	}
	if err := required(&req.Content); err != nil {
		fail(w, r, err, "")
		return
	}

	tweet, ok := h.owned(w, r)
	if !ok {
		return
	}
	tweet.Content, tweet.UpdatedAt = req.Content, h.now()
	if err := h.Tweets.Update(ctx, tweet); err != nil {
		fail(w, r, err, tweetNotFound)
		return
	}
	response.JSON(ctx, w, http.StatusOK, tweet, "Tweet updated successfully")
}

// Delete handles DELETE /api/v1/tweets/{tweetId}.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tweet, ok := h.owned(w, r)
	if !ok {
		return
	}
	if err := h.Tweets.Delete(ctx, tweet.ID); err != nil {
		fail(w, r, err, tweetNotFound)
		return
	}
	response.JSON(ctx, w, http.StatusOK, map[string]string{"tweetId": tweet.ID}, "Tweet deleted successfully")
}

func (h TweetHandler) owned(w http.ResponseWriter, r *http.Request) (models.Tweet, bool) {
	ctx := r.Context()

	id, err := pathID(r, "tweetId")
	if err != nil {
		fail(w, r, err, "")
		return models.Tweet{}, false
	}
	tweet, err := h.Tweets.FindByID(ctx, id)
	if err != nil {
		fail(w, r, err, tweetNotFound)
		return models.Tweet{}, false
	}
	if err := ensureOwner(auth.ActorFromContext(ctx), tweet.OwnerID, "tweet"); err != nil {
		fail(w, r, err, "")
		return models.Tweet{}, false
	}
	return tweet, true
}

func (h TweetHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
